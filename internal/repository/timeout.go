package repository

import (
	"context"
	"time"

	"usermanagement/internal/models"
)

type timeoutStore struct {
	next    UserStore
	timeout time.Duration
}

// WithTimeout bounds every call on next by d. A non-positive d returns
// next unchanged.
func WithTimeout(next UserStore, d time.Duration) UserStore {
	if d <= 0 {
		return next
	}
	return timeoutStore{next: next, timeout: d}
}

func (s timeoutStore) FindByEmail(ctx context.Context, email string) (models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.next.FindByEmail(ctx, email)
}

func (s timeoutStore) FindByID(ctx context.Context, id string) (models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.next.FindByID(ctx, id)
}

func (s timeoutStore) Create(ctx context.Context, user models.User) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.next.Create(ctx, user)
}

func (s timeoutStore) Update(ctx context.Context, id string, update models.UserUpdate) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.next.Update(ctx, id, update)
}

func (s timeoutStore) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.next.Delete(ctx, id)
}

func (s timeoutStore) Search(ctx context.Context, query string, admin bool) ([]models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.next.Search(ctx, query, admin)
}

func (s timeoutStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.next.Ping(ctx)
}
