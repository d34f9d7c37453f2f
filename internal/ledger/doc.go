// Package ledger keeps the history of nytbot runs in SQLite: one row per run
// with its final counters, and one row per record with the state it reached.
//
// The schema is versioned through embedded migrations applied on Open.
package ledger
