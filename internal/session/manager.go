package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"usermanagement/internal/security"
)

type CookieOptions struct {
	Name   string
	Secure bool
}

// Manager ties the store to the signed session cookie.
type Manager struct {
	store  *Store
	codec  *security.SessionCodec
	cookie CookieOptions
	log    zerolog.Logger
}

func NewManager(store *Store, codec *security.SessionCodec, cookie CookieOptions, log zerolog.Logger) *Manager {
	return &Manager{store: store, codec: codec, cookie: cookie, log: log}
}

func (m *Manager) Store() *Store {
	return m.store
}

// Load resolves the request's session. A missing, tampered or expired
// cookie yields a fresh anonymous session, as does an unreachable store.
func (m *Manager) Load(r *http.Request) *Session {
	c, err := r.Cookie(m.cookie.Name)
	if err != nil || c.Value == "" {
		return New()
	}

	id, err := m.codec.Decode(c.Value)
	if err != nil {
		m.log.Debug().Err(err).Msg("discarding session cookie")
		return New()
	}

	sess, err := m.store.Load(r.Context(), id)
	if err != nil {
		if !errors.Is(err, ErrSessionNotFound) {
			m.log.Error().Err(err).Msg("load session failed")
		}
		return New()
	}
	return sess
}

// Commit persists sess and writes or clears the cookie to match.
func (m *Manager) Commit(ctx context.Context, w http.ResponseWriter, sess *Session) error {
	destroyed := sess.Destroyed()
	if err := m.store.Save(ctx, sess); err != nil {
		return err
	}

	if destroyed {
		http.SetCookie(w, &http.Cookie{
			Name:     m.cookie.Name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   m.cookie.Secure,
			SameSite: http.SameSiteLaxMode,
		})
		return nil
	}
	if sess.IsNew() {
		return nil
	}

	value, err := m.codec.Encode(sess.ID)
	if err != nil {
		return fmt.Errorf("encode session cookie: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookie.Name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(m.store.TTL().Seconds()),
		HttpOnly: true,
		Secure:   m.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// TakeFlash consumes the flash stored for sess. Anonymous sessions that
// were never stored have none.
func (m *Manager) TakeFlash(ctx context.Context, sess *Session) Flash {
	if sess.IsNew() {
		return Flash{}
	}
	flash, err := m.store.TakeFlash(ctx, sess.ID)
	if err != nil {
		m.log.Error().Err(err).Msg("take flash failed")
		return Flash{}
	}
	return flash
}
