package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/ngena/pkg/domain"
	"github.com/aretw0/ngena/pkg/ports"
)

// DefaultTTL is the inactivity window after which sessions and derived caches expire.
const DefaultTTL = 24 * time.Hour

// Store persists sessions and navigation-control entries.
type Store struct {
	kv  ports.KVStore
	ttl time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithTTL sets the expiration for every value written.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// NewStore creates a session store over kv.
func NewStore(kv ports.KVStore, opts ...Option) *Store {
	s := &Store{kv: kv, ttl: DefaultTTL}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// KV returns the underlying key-value store.
func (s *Store) KV() ports.KVStore {
	return s.kv
}

// TTL returns the expiration applied to writes.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Get returns the stored session. found is false when nothing is stored.
func (s *Store) Get(ctx context.Context, userID string) (sess domain.Session, found bool, err error) {
	found, err = GetJSON(ctx, s.kv, SessionKey(userID), &sess)
	if err != nil || !found {
		return domain.Session{}, found, err
	}
	if sess.Data == nil {
		sess.Data = make(map[string]any)
	}
	return sess, true, nil
}

// Load returns the stored session or the default menu session.
func (s *Store) Load(ctx context.Context, userID string) (domain.Session, error) {
	sess, found, err := s.Get(ctx, userID)
	if err != nil {
		return domain.Session{}, err
	}
	if !found {
		return domain.DefaultSession(), nil
	}
	return sess, nil
}

// Data returns the data of the stored session, or an empty mapping when absent.
func (s *Store) Data(ctx context.Context, userID string) (map[string]any, error) {
	sess, found, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !found {
		return make(map[string]any), nil
	}
	return sess.Data, nil
}

// Set overwrites the whole session.
func (s *Store) Set(ctx context.Context, userID string, sess domain.Session) error {
	if sess.Data == nil {
		sess.Data = make(map[string]any)
	}
	return SetJSON(ctx, s.kv, SessionKey(userID), sess, s.ttl)
}

// Delete removes the session record only.
func (s *Store) Delete(ctx context.Context, userID string) error {
	if err := s.kv.Delete(ctx, SessionKey(userID)); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Purge removes the session and every derived cache of the user.
func (s *Store) Purge(ctx context.Context, userID string) error {
	if err := s.kv.Delete(ctx, DerivedKeys(userID)...); err != nil {
		return fmt.Errorf("purge session: %w", err)
	}
	return nil
}

// Nav returns the navigation-control entry of the user.
func (s *Store) Nav(ctx context.Context, userID string) (nav domain.NavControl, found bool, err error) {
	found, err = GetJSON(ctx, s.kv, NavKey(userID), &nav)
	return nav, found, err
}

// SetNav writes the navigation-control entry.
func (s *Store) SetNav(ctx context.Context, userID string, nav domain.NavControl) error {
	return SetJSON(ctx, s.kv, NavKey(userID), nav, s.ttl)
}

// GetJSON decodes the value stored under key into v. It reports false when the key
// is absent.
func GetJSON(ctx context.Context, kv ports.KVStore, key string, v any) (bool, error) {
	raw, err := kv.Get(ctx, key)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, kv ports.KVStore, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := kv.Set(ctx, key, raw, ttl); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}
