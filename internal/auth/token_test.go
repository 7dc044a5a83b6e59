package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"gatherly.org/internal/user"
)

func testUser() *user.User {
	return &user.User{
		ID:        "8f14e45f-ceea-4e7a-9e3d-000000000001",
		Username:  "alice",
		Role:      user.RoleAttendee,
		CreatedAt: time.Now().UTC(),
	}
}

func TestIssueAndValidate(t *testing.T) {
	svc, err := NewTokenService("test-secret")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	token, expiresAt, err := svc.Issue(testUser())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if len(strings.Split(token, ".")) != 3 {
		t.Fatalf("expected three-part token, got %q", token)
	}
	if until := time.Until(expiresAt); until < 14*time.Minute || until > 15*time.Minute {
		t.Fatalf("unexpected expiry window: %v", until)
	}

	claims, err := svc.Validate(token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if claims.User.ID != testUser().ID {
		t.Fatalf("unexpected user id: %s", claims.User.ID)
	}
	if claims.User.Username != "alice" || claims.User.Type != "attendee" {
		t.Fatalf("unexpected user claims: %+v", claims.User)
	}
	if claims.User.Role() != user.RoleAttendee {
		t.Fatalf("unexpected role: %s", claims.User.Role())
	}
}

func TestValidateExpiredToken(t *testing.T) {
	issued := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	signer, err := NewTokenService("test-secret", WithClock(func() time.Time { return issued }))
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	token, _, err := signer.Issue(testUser())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	// 14 minutes in: still valid.
	verifier, _ := NewTokenService("test-secret", WithClock(func() time.Time { return issued.Add(14 * time.Minute) }))
	if _, err := verifier.Validate(token); err != nil {
		t.Fatalf("token should still be valid at 14m: %v", err)
	}

	// 16 minutes in: past the 15-minute lifetime.
	verifier, _ = NewTokenService("test-secret", WithClock(func() time.Time { return issued.Add(16 * time.Minute) }))
	if _, err := verifier.Validate(token); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for expired token, got %v", err)
	}
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	signer, _ := NewTokenService("secret-one")
	verifier, _ := NewTokenService("secret-two")

	token, _, err := signer.Issue(testUser())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := verifier.Validate(token); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestValidateRejectsTamperedToken(t *testing.T) {
	svc, _ := NewTokenService("test-secret")
	token, _, err := svc.Issue(testUser())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	parts := strings.Split(token, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]
	if _, err := svc.Validate(tampered); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestValidateRejectsGarbage(t *testing.T) {
	svc, _ := NewTokenService("test-secret")
	for _, raw := range []string{"", "   ", "not-a-token", "a.b", "a.b.c.d"} {
		if _, err := svc.Validate(raw); !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("Validate(%q): expected ErrUnauthenticated, got %v", raw, err)
		}
	}
}

func TestNewTokenServiceRequiresSecret(t *testing.T) {
	if _, err := NewTokenService("  "); !errors.Is(err, ErrNoSecret) {
		t.Fatalf("expected ErrNoSecret, got %v", err)
	}
}

func TestCustomTTL(t *testing.T) {
	svc, err := NewTokenService("test-secret", WithTTL(time.Hour))
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	_, expiresAt, err := svc.Issue(testUser())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if until := time.Until(expiresAt); until < 59*time.Minute {
		t.Fatalf("expected ~1h expiry, got %v", until)
	}
}

func TestValidateNormalizesRoleCasing(t *testing.T) {
	svc, err := NewTokenService("test-secret")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	u := testUser()
	u.Role = user.Role("Organizer")

	token, _, err := svc.Issue(u)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	claims, err := svc.Validate(token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if claims.User.Role() != user.RoleOrganizer {
		t.Fatalf("role = %q, want %q", claims.User.Role(), user.RoleOrganizer)
	}
}
