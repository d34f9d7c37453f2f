// Package collector reads NYT best-seller lists, either the full weekly
// overview or a set of named lists, and turns them into best-seller and
// review records ready for the tagging jobs.
package collector
