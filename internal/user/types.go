// Package user defines user accounts and the credential store contract.
package user

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Role distinguishes what a user is allowed to do with events.
type Role string

const (
	// RoleOrganizer may create events and manage the ones it owns.
	RoleOrganizer Role = "organizer"
	// RoleAttendee may register for events and cancel its registrations.
	RoleAttendee Role = "attendee"
)

// ParseRole normalizes and validates a role string.
func ParseRole(raw string) (Role, error) {
	switch Role(strings.TrimSpace(strings.ToLower(raw))) {
	case RoleOrganizer:
		return RoleOrganizer, nil
	case RoleAttendee:
		return RoleAttendee, nil
	default:
		return "", fmt.Errorf("%w: unknown role %q", ErrInvalidInput, raw)
	}
}

// User is an account record. Immutable after creation; there is no update or
// delete operation for users.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"type"`
	CreatedAt    time.Time `json:"created_at"`
}

var (
	ErrNotFound      = errors.New("user: not found")
	ErrUsernameTaken = errors.New("user: username already taken")
	ErrInvalidInput  = errors.New("user: invalid input")
)
