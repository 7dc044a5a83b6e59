package event

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"gatherly.org/internal/audit"
	"gatherly.org/internal/auth"
	"gatherly.org/internal/obs"
	"gatherly.org/internal/policy"
)

const (
	minTitleLen       = 5
	maxTitleLen       = 100
	minDescriptionLen = 10
	maxDescriptionLen = 1000
	minLocationLen    = 5
	maxLocationLen    = 200
)

// Service orchestrates event CRUD and registrations. Every mutating or
// sensitive-read operation consults the policy engine before touching the
// store.
type Service struct {
	store  Store
	engine *Engine
	now    func() time.Time
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs a Service over the given store.
func NewService(store Store, opts ...ServiceOption) *Service {
	svc := &Service{
		store:  store,
		engine: NewEngine(store),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Engine exposes the underlying registration engine.
func (s *Service) Engine() *Engine {
	return s.engine
}

// resource loads the policy view of an event. A missing event maps to a nil
// resource, which the policy engine turns into the appropriate denial.
func (s *Service) resource(ctx context.Context, id string) (*policy.Resource, error) {
	ev, err := s.store.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &policy.Resource{OrganizerID: ev.OrganizerID}, nil
}

func validateTitle(title string) error {
	if n := len(title); n < minTitleLen || n > maxTitleLen {
		return fmt.Errorf("%w: title must be %d-%d characters", ErrInvalidInput, minTitleLen, maxTitleLen)
	}
	return nil
}

func validateDescription(desc string) error {
	if n := len(desc); n < minDescriptionLen || n > maxDescriptionLen {
		return fmt.Errorf("%w: description must be %d-%d characters", ErrInvalidInput, minDescriptionLen, maxDescriptionLen)
	}
	return nil
}

func validateLocation(loc string) error {
	if n := len(loc); n < minLocationLen || n > maxLocationLen {
		return fmt.Errorf("%w: location must be %d-%d characters", ErrInvalidInput, minLocationLen, maxLocationLen)
	}
	return nil
}

// Create makes a new event owned by the calling organizer.
func (s *Service) Create(ctx context.Context, claims *auth.Claims, in CreateInput) (*Event, error) {
	if err := policy.Decide(claims, policy.ActionCreateEvent, nil).Err(); err != nil {
		return nil, err
	}
	if err := validateTitle(in.Title); err != nil {
		return nil, err
	}
	if err := validateDescription(in.Description); err != nil {
		return nil, err
	}
	if err := validateLocation(in.Location); err != nil {
		return nil, err
	}
	if in.Date.IsZero() {
		return nil, fmt.Errorf("%w: date is required", ErrInvalidInput)
	}

	ev := &Event{
		ID:           uuid.NewString(),
		Title:        in.Title,
		Description:  in.Description,
		Date:         in.Date,
		Location:     in.Location,
		OrganizerID:  claims.User.ID,
		CreatedAt:    s.now().UTC(),
		Participants: []string{},
	}
	if err := s.store.Insert(ctx, ev); err != nil {
		return nil, err
	}
	_ = audit.LogEvent(ctx, "event.created", map[string]any{"event_id": ev.ID})
	return ev.Clone(), nil
}

// Get returns one event. Available to any authenticated caller.
func (s *Service) Get(ctx context.Context, id string) (*Event, error) {
	return s.store.Get(ctx, id)
}

// List returns all events, oldest first.
func (s *Service) List(ctx context.Context) ([]Event, error) {
	return s.store.List(ctx)
}

// Update applies a partial merge to an event owned by the caller. Fields left
// nil keep their prior values; id, organizer and creation time are never
// touched.
func (s *Service) Update(ctx context.Context, claims *auth.Claims, id string, upd Update) (*Event, error) {
	res, err := s.resource(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Decide(claims, policy.ActionUpdateEvent, res).Err(); err != nil {
		return nil, err
	}

	if upd.Title != nil {
		if err := validateTitle(*upd.Title); err != nil {
			return nil, err
		}
	}
	if upd.Description != nil {
		if err := validateDescription(*upd.Description); err != nil {
			return nil, err
		}
	}
	if upd.Location != nil {
		if err := validateLocation(*upd.Location); err != nil {
			return nil, err
		}
	}

	updated, err := s.store.Update(ctx, id, func(ev *Event) error {
		if upd.Title != nil {
			ev.Title = *upd.Title
		}
		if upd.Description != nil {
			ev.Description = *upd.Description
		}
		if upd.Date != nil && !upd.Date.IsZero() {
			ev.Date = *upd.Date
		}
		if upd.Location != nil {
			ev.Location = *upd.Location
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	_ = audit.LogEvent(ctx, "event.updated", map[string]any{"event_id": id})
	return updated, nil
}

// Delete removes an event owned by the caller together with its entire
// participant set.
func (s *Service) Delete(ctx context.Context, claims *auth.Claims, id string) error {
	res, err := s.resource(ctx, id)
	if err != nil {
		return err
	}
	if err := policy.Decide(claims, policy.ActionDeleteEvent, res).Err(); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	_ = audit.LogEvent(ctx, "event.deleted", map[string]any{"event_id": id})
	return nil
}

// Register adds the calling attendee to the event's participant set.
func (s *Service) Register(ctx context.Context, claims *auth.Claims, eventID string) error {
	res, err := s.resource(ctx, eventID)
	if err != nil {
		return err
	}
	if err := policy.Decide(claims, policy.ActionRegister, res).Err(); err != nil {
		obs.ObserveRegistration("rejected")
		return err
	}
	if err := s.engine.Register(ctx, eventID, claims.User.ID); err != nil {
		obs.ObserveRegistration("rejected")
		return err
	}
	obs.ObserveRegistration("registered")
	_ = audit.LogEvent(ctx, "event.registration.added", map[string]any{"event_id": eventID})
	return nil
}

// Cancel removes the caller's registration from the event.
func (s *Service) Cancel(ctx context.Context, claims *auth.Claims, eventID string) error {
	res, err := s.resource(ctx, eventID)
	if err != nil {
		return err
	}
	if err := policy.Decide(claims, policy.ActionCancelRegistration, res).Err(); err != nil {
		return err
	}
	if err := s.engine.Unregister(ctx, eventID, claims.User.ID); err != nil {
		return err
	}
	obs.ObserveRegistration("cancelled")
	_ = audit.LogEvent(ctx, "event.registration.cancelled", map[string]any{"event_id": eventID})
	return nil
}

// RegistrationStatus reports whether the caller is registered for the event.
func (s *Service) RegistrationStatus(ctx context.Context, claims *auth.Claims, eventID string) (bool, error) {
	if claims == nil || claims.User.ID == "" {
		return false, policy.ErrNotAuthenticated
	}
	return s.engine.IsRegistered(ctx, eventID, claims.User.ID)
}

// Participants returns the registrant list of an event owned by the caller.
func (s *Service) Participants(ctx context.Context, claims *auth.Claims, eventID string) ([]string, error) {
	res, err := s.resource(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := policy.Decide(claims, policy.ActionViewRegistrations, res).Err(); err != nil {
		return nil, err
	}
	return s.engine.Participants(ctx, eventID)
}
