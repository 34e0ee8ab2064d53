// Package history keeps the bounded per-user log of past dialog turns and the
// one-shot bookmark that tells "back" which turn to restore.
package history

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aretw0/ngena/pkg/domain"
	"github.com/aretw0/ngena/pkg/ports"
	"github.com/aretw0/ngena/pkg/session"
)

// Stack is the history log of every user, stored as one JSON list per user.
type Stack struct {
	kv    ports.KVStore
	ttl   time.Duration
	limit int
}

// Option configures a Stack.
type Option func(*Stack)

// WithTTL sets the expiration of the history and bookmark keys.
func WithTTL(ttl time.Duration) Option {
	return func(s *Stack) {
		s.ttl = ttl
	}
}

// WithLimit sets the maximum number of entries kept per user.
func WithLimit(n int) Option {
	return func(s *Stack) {
		if n > 0 {
			s.limit = n
		}
	}
}

// New creates a Stack over kv.
func New(kv ports.KVStore, opts ...Option) *Stack {
	s := &Stack{kv: kv, ttl: session.DefaultTTL, limit: domain.HistoryLimit}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Entries returns the user's history, oldest first. Absence yields an empty list.
func (s *Stack) Entries(ctx context.Context, userID string) ([]domain.HistoryEntry, error) {
	var entries []domain.HistoryEntry
	if _, err := session.GetJSON(ctx, s.kv, session.HistoryKey(userID), &entries); err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []domain.HistoryEntry{}
	}
	return entries, nil
}

// Append adds entry as the newest turn, evicting the oldest turns so the list never
// grows past the limit.
func (s *Stack) Append(ctx context.Context, userID string, entry domain.HistoryEntry) error {
	entries, err := s.Entries(ctx, userID)
	if err != nil {
		return err
	}
	if over := len(entries) + 1 - s.limit; over > 0 {
		entries = entries[over:]
	}
	entries = append(entries, entry)
	return s.save(ctx, userID, entries)
}

// PopAt removes and returns the entry at offset and persists the shorter list.
// Negative offsets count from the end; -1 is the newest entry.
func (s *Stack) PopAt(ctx context.Context, userID string, offset int) (domain.HistoryEntry, error) {
	entries, err := s.Entries(ctx, userID)
	if err != nil {
		return domain.HistoryEntry{}, err
	}

	idx, ok := resolve(len(entries), offset)
	if !ok {
		return domain.HistoryEntry{}, fmt.Errorf("%w: offset %d with %d entries", domain.ErrHistoryUnderflow, offset, len(entries))
	}

	entry := entries[idx]
	entries = append(entries[:idx], entries[idx+1:]...)
	if err := s.save(ctx, userID, entries); err != nil {
		return domain.HistoryEntry{}, err
	}
	return entry, nil
}

// SetBookmark records the offset the next "back" will pop.
func (s *Stack) SetBookmark(ctx context.Context, userID string, offset int) error {
	key := session.BookmarkKey(userID)
	if err := s.kv.Set(ctx, key, []byte(strconv.Itoa(offset)), s.ttl); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// TakeBookmark returns and deletes the stored bookmark, or DefaultBookmark when none
// is stored.
func (s *Stack) TakeBookmark(ctx context.Context, userID string) (int, error) {
	var offset int
	found, err := session.GetJSON(ctx, s.kv, session.BookmarkKey(userID), &offset)
	if err != nil {
		return 0, err
	}
	if !found {
		return domain.DefaultBookmark, nil
	}
	if err := s.kv.Delete(ctx, session.BookmarkKey(userID)); err != nil {
		return 0, fmt.Errorf("delete bookmark: %w", err)
	}
	return offset, nil
}

// Back pops the entry selected by the bookmark. It needs at least two entries; with
// fewer it returns ErrHistoryUnderflow and leaves the bookmark in place.
func (s *Stack) Back(ctx context.Context, userID string) (domain.HistoryEntry, int, error) {
	entries, err := s.Entries(ctx, userID)
	if err != nil {
		return domain.HistoryEntry{}, 0, err
	}
	if len(entries) < 2 {
		return domain.HistoryEntry{}, 0, fmt.Errorf("%w: %d entries", domain.ErrHistoryUnderflow, len(entries))
	}

	offset, err := s.TakeBookmark(ctx, userID)
	if err != nil {
		return domain.HistoryEntry{}, 0, err
	}
	entry, err := s.PopAt(ctx, userID, offset)
	return entry, offset, err
}

func (s *Stack) save(ctx context.Context, userID string, entries []domain.HistoryEntry) error {
	return session.SetJSON(ctx, s.kv, session.HistoryKey(userID), entries, s.ttl)
}

func resolve(n, offset int) (int, bool) {
	idx := offset
	if offset < 0 {
		idx = n + offset
	}
	return idx, idx >= 0 && idx < n
}
