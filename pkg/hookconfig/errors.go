package hookconfig

import "errors"

var (
	// ErrConfigMalformed wraps failures to read or parse an override source.
	ErrConfigMalformed = errors.New("hook config malformed")
	// ErrInvalidOverride marks a single override entry that was rejected.
	ErrInvalidOverride = errors.New("invalid hook override")
)
