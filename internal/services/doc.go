// Package services defines shared utilities consumed by the bot jobs and the
// external API clients.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, job names, and record ISBNs for
//     logging.
//   - Structured error markers plus the Wrap helper so callers can tell a
//     skippable record failure from one that must abort the run.
//
// The NYT and Open Library clients live in subpackages and tag every failure
// with one of these markers.
package services
