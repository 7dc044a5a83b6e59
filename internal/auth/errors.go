package auth

import "errors"

var (
	// ErrUnauthenticated covers missing, malformed, signature-invalid and
	// expired tokens as well as failed credential checks. Callers never learn
	// which of those happened.
	ErrUnauthenticated = errors.New("auth: unauthenticated")

	// ErrNoSecret indicates the signing secret is not configured. Fatal at
	// startup, never surfaced per-request.
	ErrNoSecret = errors.New("auth: signing secret is not configured")

	ErrInvalidInput = errors.New("auth: invalid input")
)
