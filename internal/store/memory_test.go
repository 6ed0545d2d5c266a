package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestStore(maxHistory int, maxAge time.Duration) (*MemoryStore[string], *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	s := NewMemoryStore[string](maxHistory, maxAge)
	s.now = clock.now
	return s, clock
}

func TestGetLatestEmpty(t *testing.T) {
	s, _ := newTestStore(0, 0)
	_, err := s.GetLatest("schedule")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveAndGetLatest(t *testing.T) {
	s, clock := newTestStore(0, 0)

	s.Save("schedule", "a")
	clock.t = clock.t.Add(time.Minute)
	s.Save("schedule", "b")

	snap, err := s.GetLatest("schedule")
	require.NoError(t, err)
	assert.Equal(t, "b", snap.Value)
	assert.Equal(t, clock.t, snap.FetchedAt)

	_, err = s.GetLatest("standings")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRetentionByCount(t *testing.T) {
	s, clock := newTestStore(2, 0)
	for _, v := range []string{"a", "b", "c"} {
		s.Save("k", v)
		clock.t = clock.t.Add(time.Second)
	}

	history := s.History("k")
	require.Len(t, history, 2)
	assert.Equal(t, "b", history[0].Value)
	assert.Equal(t, "c", history[1].Value)
}

func TestRetentionByAge(t *testing.T) {
	s, clock := newTestStore(0, time.Hour)

	s.Save("k", "old")
	clock.t = clock.t.Add(2 * time.Hour)
	s.Save("k", "new")

	history := s.History("k")
	require.Len(t, history, 1)
	assert.Equal(t, "new", history[0].Value)
}

func TestGetLatestStale(t *testing.T) {
	s, clock := newTestStore(0, time.Hour)

	s.Save("k", "v")
	clock.t = clock.t.Add(59 * time.Minute)
	_, err := s.GetLatest("k")
	require.NoError(t, err)

	clock.t = clock.t.Add(2 * time.Minute)
	_, err = s.GetLatest("k")
	assert.ErrorIs(t, err, ErrNotFound)
}
