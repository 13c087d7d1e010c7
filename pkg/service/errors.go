package service

import "github.com/pkg/errors"

var (
	// ErrInvalidTransition means the requested event is not legal from the
	// item's current status (e.g. approving a draft).
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrForbidden means the caller's role or ownership fails the
	// capability check for the requested event.
	ErrForbidden = errors.New("forbidden")
	// ErrUnknownCollection means the collection name is not on the
	// allow-list of managed content types.
	ErrUnknownCollection = errors.New("unknown collection")
)
