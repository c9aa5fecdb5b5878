package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/weiawesome/wes-io-live/relationship-service/internal/domain"
)

// MemoryCountsStore is an in-process CountsStore used when Redis is not
// configured and in tests.
type MemoryCountsStore struct {
	mu       sync.Mutex
	now      func() time.Time
	counts   map[string]versioned
	accesses map[string]float64
}

// versioned is a cache entry. An invalidated entry keeps only its version
// so that fills which read the database before the invalidation lose.
type versioned struct {
	counters    domain.Counters
	version     int64
	invalidated bool
}

// MemoryOption configures a MemoryCountsStore.
type MemoryOption func(*MemoryCountsStore)

// WithMemoryClock sets the clock that stamps invalidation markers.
func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(s *MemoryCountsStore) { s.now = now }
}

// NewMemoryCountsStore creates an empty in-process counts store.
func NewMemoryCountsStore(opts ...MemoryOption) *MemoryCountsStore {
	s := &MemoryCountsStore{
		now:      time.Now,
		counts:   make(map[string]versioned),
		accesses: make(map[string]float64),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryCountsStore) GetCounts(ctx context.Context, userID string) (*domain.Counters, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.counts[userID]
	if !ok || v.invalidated {
		return nil, false, nil
	}
	c := v.counters
	return &c, true, nil
}

func (s *MemoryCountsStore) SetCounts(ctx context.Context, c domain.Counters, version int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.counts[c.UserID]; ok && stale(cur, version) {
		return nil
	}
	s.counts[c.UserID] = versioned{counters: c, version: version}
	return nil
}

func (s *MemoryCountsStore) Invalidate(ctx context.Context, userIDs ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	marker := s.now().UnixMicro()
	for _, id := range userIDs {
		v := marker
		if cur, ok := s.counts[id]; ok && cur.version > v {
			v = cur.version
		}
		s.counts[id] = versioned{version: v, invalidated: true}
	}
	return nil
}

// stale reports whether a write at version must be dropped. A fill stamped
// in the same instant as an invalidation is dropped too.
func stale(cur versioned, version int64) bool {
	if cur.invalidated {
		return cur.version >= version
	}
	return cur.version > version
}

func (s *MemoryCountsStore) RecordAccess(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accesses[userID]++
	return nil
}

func (s *MemoryCountsStore) GetTopHotKeys(ctx context.Context, n int64) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.accesses))
	for k := range s.accesses {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if s.accesses[keys[i]] != s.accesses[keys[j]] {
			return s.accesses[keys[i]] > s.accesses[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if int64(len(keys)) > n {
		keys = keys[:n]
	}
	return keys, nil
}

func (s *MemoryCountsStore) ResetHotKeyScores(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accesses = make(map[string]float64)
	return nil
}

func (s *MemoryCountsStore) Close() error { return nil }

var _ CountsStore = (*MemoryCountsStore)(nil)
