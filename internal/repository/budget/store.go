package budget

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// store is the consumer interface for budget counters (ISP).
type store interface {
	MGet(ctx context.Context, keys []string) ([][]byte, error)
	IncrBy(ctx context.Context, key string, val int64) error
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// Store persists token counters as plain integers with a TTL per period.
type Store struct {
	store store
}

// New creates a budget store.
func New(s store) *Store {
	return &Store{store: s}
}

// Add increments the counter and sets its TTL on first write (EXPIRE NX).
func (s *Store) Add(ctx context.Context, key string, val int64, ttl time.Duration) error {
	if err := s.store.IncrBy(ctx, key, val); err != nil {
		return fmt.Errorf("budget INCRBY %s: %w", key, err)
	}
	if ttl <= 0 {
		return nil
	}
	if err := s.store.Expire(ctx, key, ttl, true); err != nil {
		return fmt.Errorf("budget EXPIRE %s: %w", key, err)
	}
	return nil
}

// Load reads counters in one round-trip. Missing keys read as 0.
func (s *Store) Load(ctx context.Context, keys ...string) ([]int64, error) {
	raws, err := s.store.MGet(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("budget MGET: %w", err)
	}
	out := make([]int64, len(keys))
	for i, raw := range raws {
		if raw == nil || i >= len(out) {
			continue
		}
		n, err := strconv.ParseInt(string(raw), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("budget parse %s: %w", keys[i], err)
		}
		out[i] = n
	}
	return out, nil
}
