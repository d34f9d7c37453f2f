// Package reconcile moves best-seller and review records through a small state
// machine against the Open Library catalog.
//
// Each record starts unresolved and ends not_found, already_tagged, tagged or
// failed. The Tagger and Linker mutators decide which subjects and links a
// matching work must carry; the Engine resolves ISBNs to works, applies the
// mutator and saves the work unless the run is a dry run.
package reconcile
