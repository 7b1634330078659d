package errs

import "errors"

var (
	ErrInvalidPayload   = errors.New("invalid payload")
	ErrUnexpectedStatus = errors.New("unexpected http status")
	ErrMissingToken     = errors.New("missing session token")

	ErrSendQueueFull = errors.New("send queue full")
	ErrClosed        = errors.New("connection closed")

	// ErrNavigated is returned once the host has already left the page.
	ErrNavigated = errors.New("already navigated away")
)
