package journal

import "errors"

var (
	ErrUnknownDriver = errors.New("unknown journal driver")
	ErrNilDB         = errors.New("database connection is nil")
	ErrCorruptEntry  = errors.New("corrupt journal entry")
)
