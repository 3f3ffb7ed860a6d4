package entitlements

// starterFeatures is the allow-list for the starter plan. Any feature not in
// this set is denied, including feature names unknown to this build.
var starterFeatures = map[Feature]struct{}{
	FeatureBasicUnitManager:      {},
	FeatureTenantPortal:          {},
	FeatureMaintenanceScheduling: {},
	FeatureStandardSupport:       {},
}

// enterpriseOnlyFeatures is the deny-list for the growth plan. Growth allows
// any known feature outside this set; unknown names are denied.
var enterpriseOnlyFeatures = map[Feature]struct{}{
	FeatureSimulationEngine:     {},
	FeatureCustomIntegrations:   {},
	FeatureUnlimitedTeamMembers: {},
	FeatureDedicatedSupport:     {},
}

// catalog is every feature this build knows how to gate.
var catalog = []Feature{
	FeatureBasicUnitManager,
	FeatureTenantPortal,
	FeatureMaintenanceScheduling,
	FeatureStandardSupport,
	FeaturePredictiveMaintenance,
	FeatureAIAlerts,
	FeatureEnergyAnalytics,
	FeatureAPIAccess,
	FeatureSimulationEngine,
	FeatureCustomIntegrations,
	FeatureUnlimitedTeamMembers,
	FeatureDedicatedSupport,
}

// known reports whether f is part of the feature catalog.
func known(f Feature) bool {
	for _, c := range catalog {
		if c == f {
			return true
		}
	}
	return false
}

// CheckAccess reports whether the given plan unlocks the given feature.
//
// Enterprise allows every feature, known or not. Growth allows known features
// outside the enterprise-only set. Starter allows only its fixed allow-list.
// PlanNone (or an unresolved organization) allows nothing. Unknown feature
// names therefore deny for starter and growth and allow for enterprise.
func CheckAccess(plan Plan, feature Feature) bool {
	switch plan {
	case PlanEnterprise:
		return true
	case PlanGrowth:
		if !known(feature) {
			return false
		}
		_, enterpriseOnly := enterpriseOnlyFeatures[feature]
		return !enterpriseOnly
	case PlanStarter:
		_, ok := starterFeatures[feature]
		return ok
	default:
		return false
	}
}

// AllowedFeatures returns the catalog features the plan unlocks, in catalog
// order. Useful for rendering plan comparisons.
func AllowedFeatures(plan Plan) []Feature {
	var allowed []Feature
	for _, f := range catalog {
		if CheckAccess(plan, f) {
			allowed = append(allowed, f)
		}
	}
	return allowed
}

// Catalog returns a copy of the full feature catalog.
func Catalog() []Feature {
	out := make([]Feature, len(catalog))
	copy(out, catalog)
	return out
}
