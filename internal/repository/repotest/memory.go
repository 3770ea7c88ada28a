// Package repotest provides an in-memory UserStore for tests.
package repotest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"usermanagement/internal/models"
	"usermanagement/internal/repository"
)

// MemoryStore is a UserStore kept in a map. Setting Err makes every call
// fail with it, which stands in for an unreachable database.
type MemoryStore struct {
	mu    sync.Mutex
	users map[string]models.User
	Err   error
}

func NewMemoryStore(users ...models.User) *MemoryStore {
	s := &MemoryStore{users: make(map[string]models.User)}
	for _, u := range users {
		u.Email = strings.ToLower(u.Email)
		s.users[u.ID] = u
	}
	return s
}

func (s *MemoryStore) FindByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return models.User{}, s.Err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, repository.ErrUserNotFound
}

func (s *MemoryStore) FindByID(_ context.Context, id string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return models.User{}, s.Err
	}
	u, ok := s.users[id]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	return u, nil
}

func (s *MemoryStore) Create(_ context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	for _, u := range s.users {
		if u.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}
	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now
	s.users[user.ID] = user
	return nil
}

func (s *MemoryStore) Update(_ context.Context, id string, update models.UserUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	u, ok := s.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	email := strings.ToLower(strings.TrimSpace(update.Email))
	for otherID, other := range s.users {
		if otherID != id && other.Email == email {
			return repository.ErrDuplicateEmail
		}
	}
	u.Name, u.Email, u.Mobile = update.Name, email, update.Mobile
	u.UpdatedAt = time.Now().UTC()
	s.users[id] = u
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	delete(s.users, id)
	return nil
}

func (s *MemoryStore) Search(_ context.Context, query string, admin bool) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	q := strings.ToLower(query)
	out := make([]models.User, 0)
	for _, u := range s.users {
		if u.IsAdmin != admin {
			continue
		}
		if q == "" ||
			strings.Contains(strings.ToLower(u.Name), q) ||
			strings.Contains(u.Email, q) ||
			strings.Contains(u.Mobile, q) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) Ping(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Err
}

// Len reports how many records are stored.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

// CountEmail reports how many records carry email.
func (s *MemoryStore) CountEmail(email string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, u := range s.users {
		if u.Email == strings.ToLower(email) {
			n++
		}
	}
	return n
}

// Set stores or replaces a record, bypassing uniqueness checks.
func (s *MemoryStore) Set(u models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

var _ repository.UserStore = (*MemoryStore)(nil)
