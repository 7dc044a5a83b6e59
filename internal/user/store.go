package user

import "context"

// Store describes persistence operations required for user accounts.
// Implementations must enforce username uniqueness on Insert.
type Store interface {
	Insert(ctx context.Context, u *User) error
	Find(ctx context.Context, id string) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
}
