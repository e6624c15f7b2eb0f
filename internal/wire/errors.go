package wire

import "errors"

var (
	// ErrWrongKind is returned when a line does not start with the expected keyword.
	ErrWrongKind = errors.New("not this message kind")
	// ErrMalformed is returned when a mandatory field is absent or a value cannot be parsed.
	ErrMalformed = errors.New("malformed message")
)
