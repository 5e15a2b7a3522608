package errors

import "errors"

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is a generic sentinel for auth failures.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden is a generic sentinel for callers acting outside their org.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrConflict is returned when a request races a concurrent operation.
	ErrConflict = errors.New("conflict")
	// ErrLimitExceeded is returned when a plan entitlement would be exceeded.
	ErrLimitExceeded = errors.New("plan limit exceeded")
)
