package store

import (
	"errors"
	"sync"
	"time"
)

var (
	// ErrNotFound is returned when no fresh snapshot is available for a key.
	ErrNotFound = errors.New("no snapshot for key")
)

// Snapshot is a value captured at a point in time.
type Snapshot[T any] struct {
	Value     T
	FetchedAt time.Time // always UTC
}

// MemoryStore is a concurrency-safe in-memory history of snapshots per key.
type MemoryStore[T any] struct {
	mu sync.RWMutex

	// key: dataset key, value: time-ordered snapshots
	data map[string][]Snapshot[T]

	// retention configuration
	maxHistory int           // max number of snapshots per key
	maxAge     time.Duration // optional max age for snapshots

	now func() time.Time
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory or maxAge is <= 0, it is treated as unlimited.
func NewMemoryStore[T any](maxHistory int, maxAge time.Duration) *MemoryStore[T] {
	return &MemoryStore[T]{
		data:       make(map[string][]Snapshot[T]),
		maxHistory: maxHistory,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// Save appends a snapshot for key and enforces retention.
func (s *MemoryStore[T]) Save(key string, value T) Snapshot[T] {
	snap := Snapshot[T]{Value: value, FetchedAt: s.now().UTC()}

	s.mu.Lock()
	defer s.mu.Unlock()

	history := append(s.data[key], snap)

	// Enforce retention by count.
	if s.maxHistory > 0 && len(history) > s.maxHistory {
		history = history[len(history)-s.maxHistory:]
	}

	// Enforce retention by age.
	if s.maxAge > 0 {
		cutoff := s.now().Add(-s.maxAge)
		i := 0
		for ; i < len(history); i++ {
			if !history[i].FetchedAt.Before(cutoff) {
				break
			}
		}
		history = history[i:]
	}

	s.data[key] = history
	return snap
}

// GetLatest returns the most recent snapshot for key that is within maxAge.
func (s *MemoryStore[T]) GetLatest(key string) (Snapshot[T], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.data[key]
	if len(history) == 0 {
		return Snapshot[T]{}, ErrNotFound
	}
	latest := history[len(history)-1]
	if s.maxAge > 0 && s.now().Sub(latest.FetchedAt) > s.maxAge {
		return Snapshot[T]{}, ErrNotFound
	}
	return latest, nil
}

// History returns all retained snapshots for key, oldest first.
func (s *MemoryStore[T]) History(key string) []Snapshot[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.data[key]
	out := make([]Snapshot[T], len(history))
	copy(out, history)
	return out
}
