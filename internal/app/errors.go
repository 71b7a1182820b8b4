package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrInvalidRecord = errors.New("invalid record")
	ErrClosed        = errors.New("service closed")
)
