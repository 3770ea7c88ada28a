package repository

import (
	"context"
	"errors"
	"strings"

	"usermanagement/internal/models"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

// UserStore persists user records. Emails are unique and compared
// case-insensitively; Create reports a violation as ErrDuplicateEmail and
// never as a generic failure.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id string) (models.User, error)
	Create(ctx context.Context, user models.User) error
	Update(ctx context.Context, id string, update models.UserUpdate) error
	// Delete removes the record. Deleting a missing id is not an error.
	Delete(ctx context.Context, id string) error
	// Search matches query as a case-insensitive substring of name, email
	// or mobile among records whose admin flag equals admin. An empty query
	// matches every such record.
	Search(ctx context.Context, query string, admin bool) ([]models.User, error)
	Ping(ctx context.Context) error
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
