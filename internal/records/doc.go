// Package records defines the best-seller and review records that flow from
// the collector to the tagging jobs, and reads and writes the JSON artifacts
// that carry them between runs.
package records
