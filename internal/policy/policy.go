// Package policy implements the authorization decision function for event
// actions. Decisions are pure: no state is read or written here.
package policy

import (
	"errors"

	"gatherly.org/internal/auth"
	"gatherly.org/internal/user"
)

// Action identifies an operation gated by the policy engine.
type Action string

const (
	ActionCreateEvent        Action = "event.create"
	ActionUpdateEvent        Action = "event.update"
	ActionDeleteEvent        Action = "event.delete"
	ActionRegister           Action = "event.register"
	ActionViewRegistrations  Action = "event.registrations.view"
	ActionCancelRegistration Action = "event.registration.cancel"
)

// Reason classifies a denial so the boundary layer can map it to the right
// status code.
type Reason string

const (
	ReasonNotAuthenticated Reason = "not_authenticated"
	ReasonWrongRole        Reason = "wrong_role"
	ReasonNotOwner         Reason = "not_owner"
	ReasonNotFound         Reason = "resource_not_found"
)

var (
	ErrNotAuthenticated = errors.New("policy: not authenticated")
	ErrWrongRole        = errors.New("policy: wrong role for this action")
	ErrNotOwner         = errors.New("policy: caller does not own this resource")
	ErrNotFound         = errors.New("policy: resource not found")
)

// Subject is the distilled identity a decision is made about.
type Subject struct {
	UserID string
	Role   user.Role
}

// Resource describes the event a decision targets. A nil *Resource means the
// target does not exist.
type Resource struct {
	OrganizerID string
}

// Decision is the outcome of a policy evaluation.
type Decision struct {
	Allowed bool
	Reason  Reason
}

// Allow returns an allowing decision.
func Allow() Decision { return Decision{Allowed: true} }

// Deny returns a denial carrying the given reason.
func Deny(reason Reason) Decision { return Decision{Reason: reason} }

// Err converts a denial into its typed error; nil when allowed.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	switch d.Reason {
	case ReasonWrongRole:
		return ErrWrongRole
	case ReasonNotOwner:
		return ErrNotOwner
	case ReasonNotFound:
		return ErrNotFound
	default:
		return ErrNotAuthenticated
	}
}

// check is a single predicate in an action's rule chain. It reports the deny
// reason and whether the check failed.
type check func(sub Subject, res *Resource) (Reason, bool)

func requireRole(role user.Role) check {
	return func(sub Subject, _ *Resource) (Reason, bool) {
		if sub.Role != role {
			return ReasonWrongRole, true
		}
		return "", false
	}
}

func requireResource(_ Subject, res *Resource) (Reason, bool) {
	if res == nil {
		return ReasonNotFound, true
	}
	return "", false
}

func requireOwnership(sub Subject, res *Resource) (Reason, bool) {
	if res == nil || res.OrganizerID != sub.UserID {
		return ReasonNotOwner, true
	}
	return "", false
}

// rules lists the checks for each action, evaluated in order with fail-fast
// semantics. Authentication is checked before any of these run.
//
// Registrant lists are visible to the owning organizer only; holding the
// organizer role for someone else's event is not enough. Cancellation needs
// authentication only; whether the subject is actually registered is a state
// question answered by the registration engine.
var rules = map[Action][]check{
	ActionCreateEvent:        {requireRole(user.RoleOrganizer)},
	ActionUpdateEvent:        {requireRole(user.RoleOrganizer), requireResource, requireOwnership},
	ActionDeleteEvent:        {requireRole(user.RoleOrganizer), requireResource, requireOwnership},
	ActionRegister:           {requireRole(user.RoleAttendee), requireResource},
	ActionViewRegistrations:  {requireRole(user.RoleOrganizer), requireResource, requireOwnership},
	ActionCancelRegistration: {requireResource},
}

// Decide evaluates the policy for the given claims, action and resource.
func Decide(claims *auth.Claims, action Action, res *Resource) Decision {
	if claims == nil || claims.User.ID == "" {
		return Deny(ReasonNotAuthenticated)
	}
	sub := Subject{UserID: claims.User.ID, Role: claims.User.Role()}

	checks, ok := rules[action]
	if !ok {
		// Unknown actions are never allowed; no default-allow on ambiguous
		// input.
		return Deny(ReasonNotAuthenticated)
	}
	for _, c := range checks {
		if reason, denied := c(sub, res); denied {
			return Deny(reason)
		}
	}
	return Allow()
}
