package pg

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"gatherly.org/internal/event"
	"gatherly.org/internal/user"
)

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
		db.Close()
	})
	return NewStore(db), mock
}

func TestUserStoreInsert(t *testing.T) {
	s, mock := newMock(t)
	u := &user.User{ID: "u1", Username: "alice", PasswordHash: "h", Role: user.RoleOrganizer, CreatedAt: time.Now().UTC()}

	mock.ExpectExec(`insert into users`).
		WithArgs(u.ID, u.Username, u.PasswordHash, "organizer", u.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.Users().Insert(context.Background(), u); err != nil {
		t.Fatalf("Insert: %v", err)
	}
}

func TestUserStoreInsertDuplicate(t *testing.T) {
	s, mock := newMock(t)
	u := &user.User{ID: "u1", Username: "alice", Role: user.RoleAttendee, CreatedAt: time.Now().UTC()}

	mock.ExpectExec(`insert into users`).
		WillReturnError(&pgconn.PgError{Code: uniqueViolation})

	if err := s.Users().Insert(context.Background(), u); !errors.Is(err, user.ErrUsernameTaken) {
		t.Fatalf("Insert err = %v, want ErrUsernameTaken", err)
	}
}

func TestUserStoreFindByUsername(t *testing.T) {
	s, mock := newMock(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`select id, username, password_hash, role, created_at from users where username`).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "role", "created_at"}).
			AddRow("u1", "alice", "h", "attendee", now))

	got, err := s.Users().FindByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatalf("FindByUsername: %v", err)
	}
	if got.ID != "u1" || got.Role != user.RoleAttendee {
		t.Fatalf("got %+v", got)
	}
}

func TestUserStoreFindMissing(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectQuery(`select id, username, password_hash, role, created_at from users where id`).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "role", "created_at"}))

	if _, err := s.Users().Find(context.Background(), "nope"); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("Find err = %v, want ErrNotFound", err)
	}
}

func TestUserStoreExists(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectQuery(`select exists`).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := s.Users().ExistsByUsername(context.Background(), "alice")
	if err != nil || !ok {
		t.Fatalf("ExistsByUsername = %v, %v", ok, err)
	}
}

func eventRows(ev *event.Event) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "title", "description", "date", "location", "organizer_id", "created_at"}).
		AddRow(ev.ID, ev.Title, ev.Description, ev.Date, ev.Location, ev.OrganizerID, ev.CreatedAt)
}

func sampleEvent() *event.Event {
	now := time.Now().UTC().Truncate(time.Second)
	return &event.Event{
		ID:          "ev1",
		Title:       "Tech Meetup",
		Description: "Monthly community meetup",
		Date:        now.Add(48 * time.Hour),
		Location:    "Community Hall",
		OrganizerID: "u2",
		CreatedAt:   now,
	}
}

func TestEventStoreGet(t *testing.T) {
	s, mock := newMock(t)
	ev := sampleEvent()

	mock.ExpectQuery(`from events where id`).WithArgs("ev1").WillReturnRows(eventRows(ev))
	mock.ExpectQuery(`select user_id from registrations`).WithArgs("ev1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow("u1"))

	got, err := s.Events().Get(context.Background(), "ev1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Title != ev.Title || len(got.Participants) != 1 || got.Participants[0] != "u1" {
		t.Fatalf("got %+v", got)
	}
}

func TestEventStoreGetMissing(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectQuery(`from events where id`).WithArgs("nope").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "description", "date", "location", "organizer_id", "created_at"}))

	if _, err := s.Events().Get(context.Background(), "nope"); !errors.Is(err, event.ErrNotFound) {
		t.Fatalf("Get err = %v, want ErrNotFound", err)
	}
}

func TestEventStoreUpdateRegisters(t *testing.T) {
	s, mock := newMock(t)
	ev := sampleEvent()

	mock.ExpectBegin()
	mock.ExpectQuery(`from events where id=\$1 for update`).WithArgs("ev1").WillReturnRows(eventRows(ev))
	mock.ExpectQuery(`select user_id from registrations`).WithArgs("ev1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}))
	mock.ExpectExec(`update events set`).
		WithArgs("ev1", ev.Title, ev.Description, ev.Date, ev.Location).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`insert into registrations`).
		WithArgs("ev1", "u1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	got, err := s.Events().Update(context.Background(), "ev1", func(e *event.Event) error {
		e.Participants = append(e.Participants, "u1")
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(got.Participants) != 1 || got.Participants[0] != "u1" {
		t.Fatalf("participants = %v", got.Participants)
	}
}

func TestEventStoreUpdateUnregisters(t *testing.T) {
	s, mock := newMock(t)
	ev := sampleEvent()

	mock.ExpectBegin()
	mock.ExpectQuery(`from events where id=\$1 for update`).WithArgs("ev1").WillReturnRows(eventRows(ev))
	mock.ExpectQuery(`select user_id from registrations`).WithArgs("ev1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow("u1"))
	mock.ExpectExec(`update events set`).
		WithArgs("ev1", ev.Title, ev.Description, ev.Date, ev.Location).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`delete from registrations`).
		WithArgs("ev1", "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	got, err := s.Events().Update(context.Background(), "ev1", func(e *event.Event) error {
		e.Participants = nil
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(got.Participants) != 0 {
		t.Fatalf("participants = %v", got.Participants)
	}
}

func TestEventStoreUpdateMutatorError(t *testing.T) {
	s, mock := newMock(t)
	ev := sampleEvent()

	mock.ExpectBegin()
	mock.ExpectQuery(`from events where id=\$1 for update`).WithArgs("ev1").WillReturnRows(eventRows(ev))
	mock.ExpectQuery(`select user_id from registrations`).WithArgs("ev1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow("u1"))
	mock.ExpectRollback()

	_, err := s.Events().Update(context.Background(), "ev1", func(e *event.Event) error {
		return event.ErrAlreadyRegistered
	})
	if !errors.Is(err, event.ErrAlreadyRegistered) {
		t.Fatalf("Update err = %v, want ErrAlreadyRegistered", err)
	}
}

func TestEventStoreUpdateMissing(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`from events where id=\$1 for update`).WithArgs("nope").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "description", "date", "location", "organizer_id", "created_at"}))
	mock.ExpectRollback()

	_, err := s.Events().Update(context.Background(), "nope", func(e *event.Event) error { return nil })
	if !errors.Is(err, event.ErrNotFound) {
		t.Fatalf("Update err = %v, want ErrNotFound", err)
	}
}

func TestEventStoreDelete(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectExec(`delete from events`).WithArgs("ev1").WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.Events().Delete(context.Background(), "ev1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}

func TestEventStoreDeleteMissing(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectExec(`delete from events`).WithArgs("nope").WillReturnResult(sqlmock.NewResult(0, 0))

	if err := s.Events().Delete(context.Background(), "nope"); !errors.Is(err, event.ErrNotFound) {
		t.Fatalf("Delete err = %v, want ErrNotFound", err)
	}
}
