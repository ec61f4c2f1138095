package model

import "errors"

// Error conditions shared by the recorder, log store, and aggregator. Callers
// test with errors.Is; the packages wrap these with context via fmt.Errorf.
var (
	// ErrInvalidArgument marks malformed caller input: an unknown feature or
	// metric, a negative amount, or a month key that does not parse.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrStoreUnavailable marks a log store that cannot be read or written.
	// The prior persisted state remains authoritative when it is returned.
	ErrStoreUnavailable = errors.New("log store unavailable")
)
