package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/ngena/pkg/domain"
)

// Snapshot holds the raw values of every key owned by a user at one point in time.
type Snapshot struct {
	userID string
	values map[string][]byte
}

// Snapshot captures the derived keys of userID. Absent keys are recorded as absent.
func (s *Store) Snapshot(ctx context.Context, userID string) (*Snapshot, error) {
	snap := &Snapshot{userID: userID, values: make(map[string][]byte)}
	for _, key := range DerivedKeys(userID) {
		raw, err := s.kv.Get(ctx, key)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("snapshot %s: %w", key, err)
		}
		snap.values[key] = append([]byte(nil), raw...)
	}
	return snap, nil
}

// Restore writes snap back. Keys absent when it was taken are deleted. Restored
// values get a fresh TTL.
func (s *Store) Restore(ctx context.Context, snap *Snapshot) error {
	var absent []string
	for _, key := range DerivedKeys(snap.userID) {
		raw, ok := snap.values[key]
		if !ok {
			absent = append(absent, key)
			continue
		}
		if err := s.kv.Set(ctx, key, raw, s.ttl); err != nil {
			return fmt.Errorf("restore %s: %w", key, err)
		}
	}
	if len(absent) == 0 {
		return nil
	}
	if err := s.kv.Delete(ctx, absent...); err != nil {
		return fmt.Errorf("restore: %w", err)
	}
	return nil
}
