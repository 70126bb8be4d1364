package search

import (
	"errors"
	"fmt"
)

// ValidationError rejects one piece of user input. Message is shown to the
// user verbatim and the conversation stays in its current state.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ErrNoResults means the hotel search returned zero candidates. The turn
// ends with a single failure message and nothing is persisted.
var ErrNoResults = errors.New("search: no matching hotels")

// TransportError marks a failed collaborator call. During city lookup the
// conversation stays put; during orchestration the whole turn aborts.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("search: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
