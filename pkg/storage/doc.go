// Package storage declares the persistence configuration and the combined
// store surface the composition root wires together. The postgres subpackage
// provides the production implementation; workflow packages each declare the
// narrow slice of the store they consume.
package storage
