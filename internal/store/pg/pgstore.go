// Package pg implements the user and event stores on PostgreSQL.
package pg

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"gatherly.org/internal/event"
	"gatherly.org/internal/user"
)

const uniqueViolation = "23505"

// Store wraps a shared connection pool and exposes the per-entity stores.
type Store struct {
	db *sql.DB
}

// Open connects to PostgreSQL via the pgx stdlib driver.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	// Tuned pool defaults; adjust under load tests
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// NewStore wraps an existing database handle (used by tests).
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

// Users returns the credential store.
func (s *Store) Users() *UserStore { return &UserStore{db: s.db} }

// Events returns the event store.
func (s *Store) Events() *EventStore { return &EventStore{db: s.db} }

// UserStore implements user.Store on PostgreSQL.
type UserStore struct {
	db *sql.DB
}

var _ user.Store = (*UserStore)(nil)

func (s *UserStore) Insert(ctx context.Context, u *user.User) error {
	_, err := s.db.ExecContext(ctx, `
		insert into users(id, username, password_hash, role, created_at)
		values ($1,$2,$3,$4,$5)
	`, u.ID, u.Username, u.PasswordHash, string(u.Role), u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return user.ErrUsernameTaken
		}
		return err
	}
	return nil
}

func (s *UserStore) Find(ctx context.Context, id string) (*user.User, error) {
	return s.findBy(ctx, `select id, username, password_hash, role, created_at from users where id=$1`, id)
}

func (s *UserStore) FindByUsername(ctx context.Context, username string) (*user.User, error) {
	return s.findBy(ctx, `select id, username, password_hash, role, created_at from users where username=$1`, username)
}

func (s *UserStore) findBy(ctx context.Context, query, arg string) (*user.User, error) {
	var u user.User
	var role string
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Username, &u.PasswordHash, &role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, user.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	u.Role = user.Role(role)
	return &u, nil
}

func (s *UserStore) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `select exists(select 1 from users where username=$1)`, username).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// EventStore implements event.Store on PostgreSQL. Per-event serializability
// of Update comes from a row-level lock: SELECT ... FOR UPDATE on the event
// row blocks concurrent mutations of the same event until commit while
// leaving other events untouched.
type EventStore struct {
	db *sql.DB
}

var _ event.Store = (*EventStore)(nil)

func (s *EventStore) Insert(ctx context.Context, ev *event.Event) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		insert into events(id, title, description, date, location, organizer_id, created_at)
		values ($1,$2,$3,$4,$5,$6,$7)
	`, ev.ID, ev.Title, ev.Description, ev.Date, ev.Location, ev.OrganizerID, ev.CreatedAt); err != nil {
		return err
	}
	for _, userID := range ev.Participants {
		if _, err := tx.ExecContext(ctx, `
			insert into registrations(event_id, user_id, created_at) values ($1,$2,$3)
		`, ev.ID, userID, ev.CreatedAt); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *EventStore) Get(ctx context.Context, id string) (*event.Event, error) {
	ev, err := scanEvent(s.db.QueryRowContext(ctx, `
		select id, title, description, date, location, organizer_id, created_at
		from events where id=$1
	`, id))
	if err != nil {
		return nil, err
	}
	parts, err := s.participants(ctx, s.db.QueryContext, id)
	if err != nil {
		return nil, err
	}
	ev.Participants = parts
	return ev, nil
}

func (s *EventStore) List(ctx context.Context) ([]event.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, title, description, date, location, organizer_id, created_at
		from events order by created_at asc, id asc
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []event.Event{}
	for rows.Next() {
		var ev event.Event
		if err := rows.Scan(&ev.ID, &ev.Title, &ev.Description, &ev.Date, &ev.Location, &ev.OrganizerID, &ev.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		parts, err := s.participants(ctx, s.db.QueryContext, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Participants = parts
	}
	return out, nil
}

func (s *EventStore) Update(ctx context.Context, id string, mutate func(*event.Event) error) (*event.Event, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	// Row lock serializes concurrent mutations of this event.
	ev, err := scanEvent(tx.QueryRowContext(ctx, `
		select id, title, description, date, location, organizer_id, created_at
		from events where id=$1 for update
	`, id))
	if err != nil {
		return nil, err
	}
	before, err := s.participants(ctx, tx.QueryContext, id)
	if err != nil {
		return nil, err
	}
	ev.Participants = before

	next := ev.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `
		update events set title=$2, description=$3, date=$4, location=$5 where id=$1
	`, id, next.Title, next.Description, next.Date, next.Location); err != nil {
		return nil, err
	}

	added, removed := diffParticipants(before, next.Participants)
	for _, userID := range added {
		if _, err := tx.ExecContext(ctx, `
			insert into registrations(event_id, user_id, created_at) values ($1,$2,$3)
		`, id, userID, time.Now().UTC()); err != nil {
			return nil, err
		}
	}
	for _, userID := range removed {
		if _, err := tx.ExecContext(ctx, `
			delete from registrations where event_id=$1 and user_id=$2
		`, id, userID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return next.Clone(), nil
}

func (s *EventStore) Delete(ctx context.Context, id string) error {
	// registrations are dropped by the on delete cascade constraint.
	res, err := s.db.ExecContext(ctx, `delete from events where id=$1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return event.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*event.Event, error) {
	var ev event.Event
	err := row.Scan(&ev.ID, &ev.Title, &ev.Description, &ev.Date, &ev.Location, &ev.OrganizerID, &ev.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, event.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

type queryFn func(ctx context.Context, query string, args ...any) (*sql.Rows, error)

func (s *EventStore) participants(ctx context.Context, query queryFn, eventID string) ([]string, error) {
	rows, err := query(ctx, `
		select user_id from registrations where event_id=$1 order by created_at asc, user_id asc
	`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, err
		}
		out = append(out, userID)
	}
	return out, rows.Err()
}

func diffParticipants(before, after []string) (added, removed []string) {
	beforeSet := make(map[string]struct{}, len(before))
	for _, id := range before {
		beforeSet[id] = struct{}{}
	}
	afterSet := make(map[string]struct{}, len(after))
	for _, id := range after {
		afterSet[id] = struct{}{}
		if _, ok := beforeSet[id]; !ok {
			added = append(added, id)
		}
	}
	for _, id := range before {
		if _, ok := afterSet[id]; !ok {
			removed = append(removed, id)
		}
	}
	return added, removed
}
