package queue

import "errors"

// Sentinel kinds for outbox errors.
var (
	ErrPersist = errors.New("outbox persist failed")
	ErrLoad    = errors.New("outbox load failed")
	ErrClosed  = errors.New("outbox closed")
)
