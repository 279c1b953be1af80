// Package id generates sync run identifiers.
package id

import "github.com/oklog/ulid/v2"

// New returns a ULID for the current instant. Run IDs sort by start time, so log
// lines and published summaries of successive runs order naturally.
func New() string {
	return ulid.Make().String()
}
