package hooks

import (
	"errors"
	"fmt"
)

var (
	// ErrHookNotFound is returned for executions whose hook has no definition.
	ErrHookNotFound = errors.New("hooks: hook not found")
	// ErrNoBody is returned for definitions with neither a Body nor a Command.
	ErrNoBody = errors.New("hooks: definition has no body or command")
	// ErrExpired is reported for executions released by the watchdog.
	ErrExpired = errors.New("hooks: execution expired")
)

// ExitError reports a command hook that exited non-zero.
type ExitError struct {
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("hooks: command exited with status %d", e.Code)
	}
	return fmt.Sprintf("hooks: command exited with status %d: %s", e.Code, e.Stderr)
}

// RetryError is returned when every attempt of a hook failed.
type RetryError struct {
	Hook     string
	Attempts int
	Err      error // last attempt's error
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("hooks: %s failed after %d attempt(s): %v", e.Hook, e.Attempts, e.Err)
}

func (e *RetryError) Unwrap() error { return e.Err }
