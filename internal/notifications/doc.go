// Package notifications pushes run results to ntfy.
//
// Completed and failed runs each produce one message carrying the job name
// and its counters. Without a configured topic the service is a no-op.
package notifications
