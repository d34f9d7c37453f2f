// Package logging builds the slog loggers used by every nytbot command.
//
// Loggers write either single-line console output or JSON, to stderr and to a
// per-run file under paths.log_dir. Field keys such as run_id, job and isbn
// are shared constants so log lines from the collector, the tagger and the
// linker can be filtered the same way.
package logging
