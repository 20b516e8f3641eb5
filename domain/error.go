package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("no user found with this email")
	ErrInvalidTransition = errors.New("friend: invalid removal transition")
	// ErrNotLoaded blocks writes to a slot whose contents were never read.
	ErrNotLoaded         = errors.New("friend: saved list has not been read, refusing to overwrite it")
)

// PersistenceError reports a failed slot read or write. The in-memory list
// is still valid when this is returned, but it may not survive a reload.
type PersistenceError struct {
	Op  string
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("friend: failed to %s %q: %s", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
