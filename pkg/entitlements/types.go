package entitlements

// Plan represents a subscription plan tier
type Plan string

const (
	PlanStarter    Plan = "starter"
	PlanGrowth     Plan = "growth"
	PlanEnterprise Plan = "enterprise"
	PlanNone       Plan = "none"
)

// Valid reports whether p is a known plan tier
func (p Plan) Valid() bool {
	switch p {
	case PlanStarter, PlanGrowth, PlanEnterprise, PlanNone:
		return true
	}
	return false
}

// Feature represents a gateable product feature
type Feature string

const (
	FeatureBasicUnitManager      Feature = "basic_unit_manager"
	FeatureTenantPortal          Feature = "tenant_portal"
	FeatureMaintenanceScheduling Feature = "maintenance_scheduling"
	FeatureStandardSupport       Feature = "standard_support"
	FeaturePredictiveMaintenance Feature = "predictive_maintenance"
	FeatureAIAlerts              Feature = "ai_driven_alerts"
	FeatureEnergyAnalytics       Feature = "energy_usage_analytics"
	FeatureAPIAccess             Feature = "api_access"
	FeatureSimulationEngine      Feature = "simulation_engine"
	FeatureCustomIntegrations    Feature = "custom_integrations"
	FeatureUnlimitedTeamMembers  Feature = "unlimited_team_members"
	FeatureDedicatedSupport      Feature = "dedicated_support"
)
