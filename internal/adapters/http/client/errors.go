package client

import (
	"errors"
	"fmt"
)

// ErrUnauthorized matches a 401 or 403 answer. Callers must not retry it
// without new credentials.
var ErrUnauthorized = errors.New("unauthorized")

// StatusError is a non-2xx answer from the server.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server answered %d", e.Code)
	}
	return fmt.Sprintf("server answered %d: %s", e.Code, e.Message)
}

// Is reports auth failures as ErrUnauthorized.
func (e *StatusError) Is(target error) bool {
	return target == ErrUnauthorized && (e.Code == 401 || e.Code == 403)
}
