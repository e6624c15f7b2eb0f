package registry

import "errors"

// ErrFull is returned by Upsert when a new truck would exceed MaxEntries.
var ErrFull = errors.New("registry is full")

// ErrInvalidPosition is returned by Upsert for coordinates that are not finite
// or lie outside the valid latitude and longitude ranges.
var ErrInvalidPosition = errors.New("invalid position")
