// Package main hosts the nytbot CLI entrypoint and command graph.
//
// Every job command (collect, tag, link and run) loads configuration once,
// hands a job body to jobrun.Runner and prints the resulting report, either
// as a table or as JSON. history reads the run ledger; config scaffolds and
// checks the TOML file.
//
// Keep this package thin: behaviour belongs in the internal packages.
package main
