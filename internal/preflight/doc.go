// Package preflight provides readiness checks for the directories and
// external APIs nytbot depends on.
//
// The CLI "nytbot status" command runs them before a scheduled job is wired
// up, so a bad key or an unwritable state directory shows up immediately
// instead of in the first weekly run. Without Open Library credentials only
// read access is checked.
package preflight
