package event

import (
	"context"
	"slices"
	"strings"
)

// Engine maintains the many-to-many registration relation between users and
// events. All mutations go through Store.Update, which guarantees per-event
// serializability; the engine itself holds no state.
type Engine struct {
	store Store
}

// NewEngine constructs a registration engine over the given store.
func NewEngine(store Store) *Engine {
	return &Engine{store: store}
}

// Register transitions (event, user) from NotRegistered to Registered.
// Returns ErrNotFound when the event does not exist and ErrAlreadyRegistered
// when the user is already in the participant set. Under concurrent calls for
// the same pair exactly one succeeds.
func (en *Engine) Register(ctx context.Context, eventID, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ErrInvalidInput
	}
	_, err := en.store.Update(ctx, eventID, func(ev *Event) error {
		if ev.HasParticipant(userID) {
			return ErrAlreadyRegistered
		}
		ev.Participants = append(ev.Participants, userID)
		return nil
	})
	return err
}

// Unregister transitions (event, user) from Registered to NotRegistered.
// Returns ErrNotRegistered when the user is not in the participant set.
func (en *Engine) Unregister(ctx context.Context, eventID, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ErrInvalidInput
	}
	_, err := en.store.Update(ctx, eventID, func(ev *Event) error {
		idx := slices.Index(ev.Participants, userID)
		if idx < 0 {
			return ErrNotRegistered
		}
		ev.Participants = slices.Delete(ev.Participants, idx, idx+1)
		return nil
	})
	return err
}

// IsRegistered reports whether the user is in the event's participant set.
// Pure read against the latest committed state.
func (en *Engine) IsRegistered(ctx context.Context, eventID, userID string) (bool, error) {
	ev, err := en.store.Get(ctx, eventID)
	if err != nil {
		return false, err
	}
	return ev.HasParticipant(userID), nil
}

// Participants returns the participant set of an event. An existing event
// with no registrations yields an empty, non-nil slice; a missing event
// yields ErrNotFound.
func (en *Engine) Participants(ctx context.Context, eventID string) ([]string, error) {
	ev, err := en.store.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(ev.Participants))
	copy(out, ev.Participants)
	return out, nil
}
