package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"usermanagement/internal/auth"
)

var ErrSessionNotFound = errors.New("session not found")

type record struct {
	Identities map[auth.Domain]string `json:"identities"`
	CreatedAt  time.Time              `json:"created_at"`
}

type Store struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewStore(client *redis.Client, prefix string, ttl time.Duration) *Store {
	return &Store{client: client, prefix: prefix, ttl: ttl}
}

func (s *Store) TTL() time.Duration {
	return s.ttl
}

func (s *Store) key(id string) string {
	return fmt.Sprintf("%s:%s", s.prefix, id)
}

func (s *Store) flashKey(id string) string {
	return fmt.Sprintf("%s:%s:flash", s.prefix, id)
}

func (s *Store) userKey(userID string) string {
	return fmt.Sprintf("%s:user:%s", s.prefix, userID)
}

func (s *Store) Load(ctx context.Context, id string) (*Session, error) {
	raw, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if rec.Identities == nil {
		rec.Identities = make(map[auth.Domain]string)
	}
	for domain := range rec.Identities {
		if !domain.Valid() {
			delete(rec.Identities, domain)
		}
	}

	return &Session{
		ID:         id,
		Identities: rec.Identities,
		CreatedAt:  rec.CreatedAt,
	}, nil
}

// Save writes the session back. A destroyed session is removed, a changed
// one is stored with a fresh TTL along with any queued flash, and an
// untouched stored session only has its expiry extended. Untouched new
// sessions are never written.
func (s *Store) Save(ctx context.Context, sess *Session) error {
	if sess.destroyed {
		return s.remove(ctx, sess)
	}
	if !sess.dirty {
		if sess.isNew {
			return nil
		}
		if err := s.client.Expire(ctx, s.key(sess.ID), s.ttl).Err(); err != nil {
			return fmt.Errorf("touch session: %w", err)
		}
		return nil
	}

	raw, err := json.Marshal(record{Identities: sess.Identities, CreatedAt: sess.CreatedAt})
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	var flash []byte
	if sess.flash != nil {
		if flash, err = json.Marshal(sess.flash); err != nil {
			return fmt.Errorf("encode flash: %w", err)
		}
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(sess.ID), raw, s.ttl)
		if flash != nil {
			pipe.Set(ctx, s.flashKey(sess.ID), flash, s.ttl)
		}
		for _, userID := range sess.Identities {
			pipe.SAdd(ctx, s.userKey(userID), sess.ID)
			pipe.Expire(ctx, s.userKey(userID), s.ttl)
		}
		if sess.previousID != "" {
			pipe.Del(ctx, s.key(sess.previousID), s.flashKey(sess.previousID))
			for _, userID := range sess.Identities {
				pipe.SRem(ctx, s.userKey(userID), sess.previousID)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	sess.isNew = false
	sess.dirty = false
	sess.previousID = ""
	sess.flash = nil
	return nil
}

func (s *Store) remove(ctx context.Context, sess *Session) error {
	if sess.isNew && sess.previousID == "" {
		return nil
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range []string{sess.ID, sess.previousID} {
			if id == "" {
				continue
			}
			pipe.Del(ctx, s.key(id), s.flashKey(id))
			for _, userID := range sess.Identities {
				pipe.SRem(ctx, s.userKey(userID), id)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("destroy session: %w", err)
	}
	return nil
}

// TakeFlash returns and clears the stored flash in one step, so
// concurrent renders of the same session cannot both observe it.
func (s *Store) TakeFlash(ctx context.Context, id string) (Flash, error) {
	raw, err := s.client.GetDel(ctx, s.flashKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Flash{}, nil
		}
		return Flash{}, fmt.Errorf("take flash: %w", err)
	}

	var flash Flash
	if err := json.Unmarshal(raw, &flash); err != nil {
		return Flash{}, fmt.Errorf("decode flash: %w", err)
	}
	return flash, nil
}

// DestroyUser removes every session in which userID is authenticated.
func (s *Store) DestroyUser(ctx context.Context, userID string) error {
	ids, err := s.client.SMembers(ctx, s.userKey(userID)).Result()
	if err != nil {
		return fmt.Errorf("list user sessions: %w", err)
	}

	keys := make([]string, 0, 2*len(ids)+1)
	for _, id := range ids {
		keys = append(keys, s.key(id), s.flashKey(id))
	}
	keys = append(keys, s.userKey(userID))

	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("destroy user sessions: %w", err)
	}
	return nil
}

// SweepIndexes drops index entries whose session has already expired and
// returns how many were removed.
func (s *Store) SweepIndexes(ctx context.Context) (int, error) {
	removed := 0
	iter := s.client.Scan(ctx, 0, s.userKey("*"), 100).Iterator()
	for iter.Next(ctx) {
		indexKey := iter.Val()
		members, err := s.client.SMembers(ctx, indexKey).Result()
		if err != nil {
			return removed, fmt.Errorf("read index %s: %w", indexKey, err)
		}
		for _, id := range members {
			exists, err := s.client.Exists(ctx, s.key(id)).Result()
			if err != nil {
				return removed, fmt.Errorf("check session %s: %w", id, err)
			}
			if exists > 0 {
				continue
			}
			if err := s.client.SRem(ctx, indexKey, id).Err(); err != nil {
				return removed, fmt.Errorf("prune index %s: %w", indexKey, err)
			}
			removed++
		}
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("scan indexes: %w", err)
	}
	return removed, nil
}
