// Package textutil holds the small text helpers shared by the jobs: subject
// comparison keys and human-readable list names.
package textutil
