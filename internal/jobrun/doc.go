// Package jobrun wraps every nytbot job in the same run lifecycle: the
// single-instance lock, a run ID, the run ledger row, the JSON report in the
// results directory, push notifications and log retention.
//
// The job bodies for collect, tag, link and the weekly pipeline live here too
// so the CLI only parses flags and renders results.
package jobrun
