// Package common defines shared constants and sentinel errors used across
// client and server layers of beanfeed. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Protocol-level failure kinds. The server maps each of them to one
	// HTTP status and the client proxy maps the status back, so a caller
	// can branch on the cause on either side of the wire.
	ErrorUnauthorized     = errors.New("not authorized")
	ErrForbidden          = errors.New("forbidden")
	ErrPreconditionFailed = errors.New("precondition failed")
	ErrorNotFound         = errors.New("not found")
	ErrMalformedRequest   = errors.New("malformed request")
	ErrorInternal         = errors.New("internal error")

	// Storage-level errors.
	ErrVersionConflict = errors.New("version conflict")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
