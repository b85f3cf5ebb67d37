package sqlite_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/msomdec/friendconnect/internal/domain"
	"github.com/msomdec/friendconnect/internal/repository/sqlite"
)

func newMockDB(t *testing.T) (*sqlite.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })
	return sqlite.Wrap(sqlDB), mock
}

func TestUserRepository_GetByID_DriverError(t *testing.T) {
	db, mock := newMockDB(t)
	driverErr := errors.New("disk I/O error")

	mock.ExpectQuery("SELECT (.+) FROM users WHERE id").
		WithArgs(int64(1)).
		WillReturnError(driverErr)

	_, err := db.Users().GetByID(context.Background(), 1)
	if !errors.Is(err, driverErr) {
		t.Fatalf("expected wrapped driver error, got %v", err)
	}
	if errors.Is(err, domain.ErrNotFound) {
		t.Fatal("driver error must not be reported as not found")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUserRepository_GetByEmail_NoRows(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE email").
		WithArgs("ghost@example.com").
		WillReturnError(sql.ErrNoRows)

	_, err := db.Users().GetByEmail(context.Background(), "ghost@example.com")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserRepository_Create_UniqueViolation(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(errors.New("constraint failed: UNIQUE constraint failed: users.email (2067)"))

	err := db.Users().Create(context.Background(), &domain.User{Email: "dup@example.com"})
	if !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestFriendRequestRepository_Resolve_NoRowsAffected(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec("UPDATE friend_requests SET status").
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := db.FriendRequests().Resolve(context.Background(), 7, 2, domain.FriendRequestAccepted)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestConversationRepository_FindOrCreate_InsertError(t *testing.T) {
	db, mock := newMockDB(t)
	driverErr := errors.New("database is locked")

	mock.ExpectExec("INSERT INTO conversations").
		WithArgs(int64(1), int64(2), sqlmock.AnyArg()).
		WillReturnError(driverErr)

	_, _, err := db.Conversations().FindOrCreate(context.Background(), 2, 1)
	if !errors.Is(err, driverErr) {
		t.Fatalf("expected wrapped driver error, got %v", err)
	}
}
