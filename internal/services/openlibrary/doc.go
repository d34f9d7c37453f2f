// Package openlibrary wraps the parts of the Open Library API the taggers use:
// login, ISBN to edition resolution, work reads, work saves and import
// requests.
//
// Work documents are held as raw JSON so that saving a work after appending a
// subject or a link writes every other field back untouched.
package openlibrary
