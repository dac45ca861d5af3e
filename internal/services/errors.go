package services

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTarget  = errors.New("cannot target yourself")
	ErrAlreadyFriends = errors.New("already friends")
	ErrNotFriends     = errors.New("not friends")
	ErrUsernameTaken  = errors.New("username already taken")
	ErrUpstream       = errors.New("metadata service unavailable")
)

// ValidationError reports malformed input with a caller-facing reason.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// DuplicatePendingError carries the id of the pending request that
// already connects the pair, so clients can recover (e.g. accept it).
type DuplicatePendingError struct {
	RequestID int64
}

func (e *DuplicatePendingError) Error() string {
	return fmt.Sprintf("a pending friend request already exists (id=%d)", e.RequestID)
}
