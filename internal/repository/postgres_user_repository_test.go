package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"usermanagement/internal/models"
)

var userRowColumns = []string{"id", "name", "email", "mobile", "password_hash", "is_admin", "created_at", "updated_at"}

func newPostgresRepo(t *testing.T) (*PostgresUserRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresUserRepository(mock), mock
}

func TestPostgresFindByEmailNormalizes(t *testing.T) {
	repo, mock := newPostgresRepo(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT .* FROM users WHERE email = \$1`).
		WithArgs("ada@example.com").
		WillReturnRows(pgxmock.NewRows(userRowColumns).
			AddRow("u1", "Ada", "ada@example.com", "0123456789", []byte("hash"), false, now, now))

	user, err := repo.FindByEmail(context.Background(), "  Ada@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, []byte("hash"), user.PasswordHash)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresFindByIDNotFound(t *testing.T) {
	repo, mock := newPostgresRepo(t)

	mock.ExpectQuery(`SELECT .* FROM users WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresFindByIDWrapsFailure(t *testing.T) {
	repo, mock := newPostgresRepo(t)

	mock.ExpectQuery(`SELECT .* FROM users WHERE id = \$1`).
		WithArgs("u1").
		WillReturnError(errors.New("connection reset"))

	_, err := repo.FindByID(context.Background(), "u1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUserNotFound)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestPostgresCreate(t *testing.T) {
	repo, mock := newPostgresRepo(t)

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs("u1", "Ada", "ada@example.com", "0123456789", []byte("hash"), false).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Create(context.Background(), models.User{
		ID:           "u1",
		Name:         "Ada",
		Email:        "ADA@example.com",
		Mobile:       "0123456789",
		PasswordHash: []byte("hash"),
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCreateDuplicate(t *testing.T) {
	repo, mock := newPostgresRepo(t)

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs("u2", "Ada", "ada@example.com", "0123456789", []byte("hash"), false).
		WillReturnError(&pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "users_email_unique"})

	err := repo.Create(context.Background(), models.User{
		ID:           "u2",
		Name:         "Ada",
		Email:        "ada@example.com",
		Mobile:       "0123456789",
		PasswordHash: []byte("hash"),
	})
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestPostgresCreateOtherFailure(t *testing.T) {
	repo, mock := newPostgresRepo(t)

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs("u3", "Ada", "ada@example.com", "0123456789", []byte("hash"), false).
		WillReturnError(&pgconn.PgError{Code: "53300"})

	err := repo.Create(context.Background(), models.User{
		ID:           "u3",
		Name:         "Ada",
		Email:        "ada@example.com",
		Mobile:       "0123456789",
		PasswordHash: []byte("hash"),
	})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDuplicateEmail)
}

func TestPostgresUpdate(t *testing.T) {
	repo, mock := newPostgresRepo(t)

	mock.ExpectExec(`UPDATE users SET name = \$2, email = \$3, mobile = \$4`).
		WithArgs("u1", "Grace", "grace@example.com", "9876543210").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.Update(context.Background(), "u1", models.UserUpdate{Name: "Grace", Email: "Grace@example.com", Mobile: "9876543210"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateMissing(t *testing.T) {
	repo, mock := newPostgresRepo(t)

	mock.ExpectExec(`UPDATE users SET`).
		WithArgs("nope", "Grace", "grace@example.com", "9876543210").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.Update(context.Background(), "nope", models.UserUpdate{Name: "Grace", Email: "grace@example.com", Mobile: "9876543210"})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestPostgresUpdateDuplicate(t *testing.T) {
	repo, mock := newPostgresRepo(t)

	mock.ExpectExec(`UPDATE users SET`).
		WithArgs("u1", "Grace", "taken@example.com", "9876543210").
		WillReturnError(&pgconn.PgError{Code: pgUniqueViolation})

	err := repo.Update(context.Background(), "u1", models.UserUpdate{Name: "Grace", Email: "taken@example.com", Mobile: "9876543210"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestPostgresDeleteIsIdempotent(t *testing.T) {
	repo, mock := newPostgresRepo(t)

	mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).
		WithArgs("u1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).
		WithArgs("u1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.NoError(t, repo.Delete(context.Background(), "u1"))
	require.NoError(t, repo.Delete(context.Background(), "u1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSearchEscapesPattern(t *testing.T) {
	repo, mock := newPostgresRepo(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT .* FROM users\s+WHERE is_admin = \$1`).
		WithArgs(false, "50%_a", `%50\%\_a%`).
		WillReturnRows(pgxmock.NewRows(userRowColumns).
			AddRow("u1", "Ada", "ada@example.com", "0123456789", []byte("h"), false, now, now).
			AddRow("u2", "Bob", "bob@example.com", "1123456789", []byte("h"), false, now, now))

	users, err := repo.Search(context.Background(), "50%_a", false)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "Bob", users[1].Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSearchEmptyQuery(t *testing.T) {
	repo, mock := newPostgresRepo(t)

	mock.ExpectQuery(`SELECT .* FROM users`).
		WithArgs(true, "", "%%").
		WillReturnRows(pgxmock.NewRows(userRowColumns))

	users, err := repo.Search(context.Background(), "", true)
	require.NoError(t, err)
	assert.Empty(t, users)
	assert.NotNil(t, users)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `a\%b\_c\\d`, escapeLike(`a%b_c\d`))
}
