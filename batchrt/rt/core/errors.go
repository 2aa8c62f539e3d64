package core

import "errors"

var (
	ErrCapacityExceeded    = errors.New("batched mesh capacity exceeded")
	ErrReservationTooSmall = errors.New("reserved space is smaller than the geometry")
	ErrUnknownGeometry     = errors.New("unknown geometry id")
	ErrUnknownInstance     = errors.New("unknown instance id")
)
