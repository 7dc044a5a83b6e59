package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"gatherly.org/internal/user"
)

const (
	minUsernameLen = 3
	maxUsernameLen = 20
	minPasswordLen = 6
	maxPasswordLen = 100
)

// Service registers user accounts and authenticates credentials into tokens.
type Service struct {
	users  user.Store
	hasher Hasher
	tokens *TokenService
	now    func() time.Time
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithHasher overrides the password hashing capability.
func WithHasher(h Hasher) ServiceOption {
	return func(s *Service) {
		if h != nil {
			s.hasher = h
		}
	}
}

// WithServiceClock overrides the time source (useful for tests).
func WithServiceClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs a Service backed by the given credential store and
// token service.
func NewService(users user.Store, tokens *TokenService, opts ...ServiceOption) *Service {
	svc := &Service{
		users:  users,
		hasher: BcryptHasher{},
		tokens: tokens,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Register creates a new user account. The username must be unique; the role
// is fixed at creation and the account is immutable afterwards.
func (s *Service) Register(ctx context.Context, username, password, role string) (*user.User, error) {
	username = strings.TrimSpace(username)
	if n := len(username); n < minUsernameLen || n > maxUsernameLen {
		return nil, fmt.Errorf("%w: username must be %d-%d characters", ErrInvalidInput, minUsernameLen, maxUsernameLen)
	}
	if n := len(password); n < minPasswordLen || n > maxPasswordLen {
		return nil, fmt.Errorf("%w: password must be %d-%d characters", ErrInvalidInput, minPasswordLen, maxPasswordLen)
	}
	parsedRole, err := user.ParseRole(role)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	taken, err := s.users.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, user.ErrUsernameTaken
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &user.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		Role:         parsedRole,
		CreatedAt:    s.now().UTC(),
	}
	// The store enforces uniqueness again; the pre-check above only provides
	// an early exit.
	if err := s.users.Insert(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login authenticates a username/password pair and issues a token. Unknown
// usernames and wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, username, password string) (string, time.Time, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", time.Time{}, ErrUnauthenticated
	}
	u, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return "", time.Time{}, ErrUnauthenticated
	}
	if !s.hasher.Verify(password, u.PasswordHash) {
		return "", time.Time{}, ErrUnauthenticated
	}
	return s.tokens.Issue(u)
}

// Validate verifies a raw token and returns its claims.
func (s *Service) Validate(token string) (*Claims, error) {
	return s.tokens.Validate(token)
}
