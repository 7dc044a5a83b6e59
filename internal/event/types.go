// Package event holds the event domain: records, stores, the registration
// engine and the policy-gated service.
package event

import (
	"errors"
	"slices"
	"time"
)

// Event is a scheduled gathering owned by an organizer. The id, organizer and
// creation time are fixed at creation; Participants is the set of registered
// attendee ids.
type Event struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Date         time.Time `json:"date"`
	Location     string    `json:"location"`
	OrganizerID  string    `json:"organizer_id"`
	CreatedAt    time.Time `json:"created_at"`
	Participants []string  `json:"participants"`
}

// HasParticipant reports whether the user id is in the participant set.
func (e *Event) HasParticipant(userID string) bool {
	return slices.Contains(e.Participants, userID)
}

// Clone returns a deep copy so callers never share the participant slice.
func (e *Event) Clone() *Event {
	cp := *e
	cp.Participants = make([]string, len(e.Participants))
	copy(cp.Participants, e.Participants)
	return &cp
}

// Update carries a partial event update. Nil fields leave prior values
// untouched; id, organizer and creation time can never be changed.
type Update struct {
	Title       *string
	Description *string
	Date        *time.Time
	Location    *string
}

// CreateInput carries the caller-supplied fields for a new event.
type CreateInput struct {
	Title       string
	Description string
	Date        time.Time
	Location    string
}

var (
	ErrNotFound          = errors.New("event: not found")
	ErrAlreadyRegistered = errors.New("event: user already registered")
	ErrNotRegistered     = errors.New("event: user is not registered")
	ErrInvalidInput      = errors.New("event: invalid input")
)
