// Package memory implements db.Store in process memory for local runs and tests.
package memory

import (
	"context"
	"path"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/promptsgo/promptsgo/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// Store keeps strings, hashes and sets in maps guarded by one mutex.
// Expired keys are dropped lazily on access.
type Store struct {
	mu      sync.Mutex
	strings map[string][]byte
	hashes  map[string]map[string]string
	sets    map[string]map[string]struct{}
	expires map[string]time.Time
	clock   func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{
		strings: map[string][]byte{},
		hashes:  map[string]map[string]string{},
		sets:    map[string]map[string]struct{}{},
		expires: map[string]time.Time{},
		clock:   time.Now,
	}
}

// WithClock overrides the time source used for key expiry.
func (s *Store) WithClock(clock func() time.Time) *Store {
	s.clock = clock
	return s
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() {}

// WaitForReady returns immediately.
func (s *Store) WaitForReady(context.Context, time.Duration) error { return nil }

// Get retrieves a value by key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expire(key)
	v, ok := s.strings[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return append([]byte(nil), v...), nil
}

// MGet retrieves several values. Missing keys yield nil entries.
func (s *Store) MGet(_ context.Context, keys []string) ([][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]byte, len(keys))
	for i, k := range keys {
		s.expire(k)
		if v, ok := s.strings[k]; ok {
			out[i] = append([]byte(nil), v...)
		}
	}
	return out, nil
}

// Set stores a value and clears any expiry.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.strings[key] = append([]byte(nil), value...)
	delete(s.expires, key)
	return nil
}

// SetNX stores a value only if the key does not exist.
func (s *Store) SetNX(_ context.Context, key string, value []byte) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expire(key)
	if s.exists(key) {
		return false, nil
	}
	s.strings[key] = append([]byte(nil), value...)
	return true, nil
}

// Del deletes keys of any kind.
func (s *Store) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		s.drop(k)
	}
	return nil
}

// Exists checks if a key exists.
func (s *Store) Exists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expire(key)
	return s.exists(key), nil
}

// IncrBy increments an integer string value, creating it at zero.
func (s *Store) IncrBy(_ context.Context, key string, val int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expire(key)
	var n int64
	if raw, ok := s.strings[key]; ok {
		parsed, err := strconv.ParseInt(string(raw), 10, 64)
		if err != nil {
			return &db.Error{Op: db.OpIncrBy, Err: err}
		}
		n = parsed
	}
	s.strings[key] = []byte(strconv.FormatInt(n+val, 10))
	return nil
}

// Expire sets a TTL. With nx, only keys without an expiry are touched.
func (s *Store) Expire(_ context.Context, key string, ttl time.Duration, nx bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expire(key)
	if !s.exists(key) {
		return nil
	}
	if _, has := s.expires[key]; has && nx {
		return nil
	}
	s.expires[key] = s.clock().Add(ttl)
	return nil
}

// Scan returns keys matching a glob pattern in sorted order.
func (s *Store) Scan(_ context.Context, pattern string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []string
	collect := func(k string) {
		s.expire(k)
		if !s.exists(k) {
			return
		}
		ok, err := path.Match(pattern, k)
		if err == nil && ok {
			keys = append(keys, k)
		}
	}
	for k := range s.strings {
		collect(k)
	}
	for k := range s.hashes {
		collect(k)
	}
	for k := range s.sets {
		collect(k)
	}
	sort.Strings(keys)
	return keys, nil
}

// HSet sets hash fields.
func (s *Store) HSet(_ context.Context, key string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expire(key)
	h := s.hashes[key]
	if h == nil {
		h = map[string]string{}
		s.hashes[key] = h
	}
	for k, v := range fields {
		h[k] = v
	}
	return nil
}

// HGetAll returns a copy of a hash. A missing key yields an empty map.
func (s *Store) HGetAll(_ context.Context, key string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hgetall(key), nil
}

// HGetAllMulti returns copies of several hashes.
func (s *Store) HGetAllMulti(_ context.Context, keys []string) ([]map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]map[string]string, len(keys))
	for i, k := range keys {
		out[i] = s.hgetall(k)
	}
	return out, nil
}

// HIncrBy increments a hash field and returns the new value.
func (s *Store) HIncrBy(_ context.Context, key, field string, val int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expire(key)
	h := s.hashes[key]
	if h == nil {
		h = map[string]string{}
		s.hashes[key] = h
	}
	var n int64
	if raw, ok := h[field]; ok {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return 0, &db.Error{Op: db.OpHIncrBy, Err: err}
		}
		n = parsed
	}
	n += val
	h[field] = strconv.FormatInt(n, 10)
	return n, nil
}

// SAdd adds members and returns how many were new.
func (s *Store) SAdd(_ context.Context, key string, members ...string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expire(key)
	set := s.sets[key]
	if set == nil {
		set = map[string]struct{}{}
		s.sets[key] = set
	}
	var added int64
	for _, m := range members {
		if _, ok := set[m]; !ok {
			set[m] = struct{}{}
			added++
		}
	}
	return added, nil
}

// SRem removes members and returns how many were present.
func (s *Store) SRem(_ context.Context, key string, members ...string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expire(key)
	set := s.sets[key]
	var removed int64
	for _, m := range members {
		if _, ok := set[m]; ok {
			delete(set, m)
			removed++
		}
	}
	if set != nil && len(set) == 0 {
		delete(s.sets, key)
	}
	return removed, nil
}

// SIsMember reports whether member belongs to the set.
func (s *Store) SIsMember(_ context.Context, key, member string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expire(key)
	_, ok := s.sets[key][member]
	return ok, nil
}

// SMembers returns the members of a set in sorted order.
func (s *Store) SMembers(_ context.Context, key string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expire(key)
	out := make([]string, 0, len(s.sets[key]))
	for m := range s.sets[key] {
		out = append(out, m)
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) hgetall(key string) map[string]string {
	s.expire(key)
	out := make(map[string]string, len(s.hashes[key]))
	for k, v := range s.hashes[key] {
		out[k] = v
	}
	return out
}

func (s *Store) exists(key string) bool {
	if _, ok := s.strings[key]; ok {
		return true
	}
	if _, ok := s.hashes[key]; ok {
		return true
	}
	_, ok := s.sets[key]
	return ok
}

// expire drops key if its TTL has passed. Callers hold mu.
func (s *Store) expire(key string) {
	at, ok := s.expires[key]
	if ok && !s.clock().Before(at) {
		s.drop(key)
	}
}

func (s *Store) drop(key string) {
	delete(s.strings, key)
	delete(s.hashes, key)
	delete(s.sets, key)
	delete(s.expires, key)
}
