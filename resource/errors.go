package resource

import "fmt"

// LimitExceededError is returned when a single reservation can never fit
// into the configured limit.
type LimitExceededError struct {
	Requested int64
	Limit     int64
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("resource: requested %d bytes exceeds memory limit of %d bytes", e.Requested, e.Limit)
}
