// Package session keeps per-client server-side state in Redis: the
// identity authenticated in each authority domain and the one-shot flash
// values carried across a redirect.
package session

import (
	"time"

	"usermanagement/internal/auth"
	"usermanagement/internal/ids"
)

// Flash is read exactly once, by the next render.
type Flash struct {
	Errors  map[string]string `json:"errors,omitempty"`
	Message string            `json:"message,omitempty"`
}

func (f Flash) Empty() bool {
	return len(f.Errors) == 0 && f.Message == ""
}

type Session struct {
	ID         string
	Identities map[auth.Domain]string
	CreatedAt  time.Time

	isNew      bool
	dirty      bool
	destroyed  bool
	previousID string
	flash      *Flash
}

// New returns an anonymous session that is not persisted until it changes.
func New() *Session {
	return &Session{
		ID:         ids.New(),
		Identities: make(map[auth.Domain]string),
		CreatedAt:  time.Now().UTC(),
		isNew:      true,
	}
}

// Identity returns the user authenticated in domain, or "".
func (s *Session) Identity(domain auth.Domain) string {
	return s.Identities[domain]
}

func (s *Session) Authenticated(domain auth.Domain) bool {
	return s.Identity(domain) != ""
}

// Authenticate records userID as the identity for domain. The session ID
// is rotated so an identifier issued before login cannot be replayed.
func (s *Session) Authenticate(domain auth.Domain, userID string) {
	if !s.isNew && s.previousID == "" {
		s.previousID = s.ID
	}
	s.ID = ids.New()
	s.Identities[domain] = userID
	s.dirty = true
}

// AddFlash queues one-shot values for the next render, replacing any
// queued earlier in the same request.
func (s *Session) AddFlash(f Flash) {
	s.flash = &f
	s.dirty = true
}

// PendingFlash returns the flash queued during this request.
func (s *Session) PendingFlash() (Flash, bool) {
	if s.flash == nil {
		return Flash{}, false
	}
	return *s.flash, true
}

func (s *Session) Destroy() {
	s.destroyed = true
}

func (s *Session) Destroyed() bool {
	return s.destroyed
}

func (s *Session) IsNew() bool {
	return s.isNew
}
