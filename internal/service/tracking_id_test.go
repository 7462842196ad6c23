package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type existsStub struct {
	taken map[string]bool
	err   error
	calls int
}

func (s *existsStub) Exists(ctx context.Context, id string) (bool, error) {
	s.calls++
	return s.taken[id], s.err
}

func TestAllocateFormat(t *testing.T) {
	a := NewTrackingIDAllocator(&existsStub{}, nil)
	a.now = func() time.Time { return time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC) }

	id, err := a.Allocate(context.Background())
	require.NoError(t, err)
	assert.True(t, ValidTrackingID(id), id)
	assert.Equal(t, "GR-2025-", id[:8])
}

func TestAllocateRetriesOnCollision(t *testing.T) {
	suffixes := []string{"AAAAAA", "BBBBBB", "CCCCCC"}
	i := 0
	store := &existsStub{taken: map[string]bool{"GR-2025-AAAAAA": true, "GR-2025-BBBBBB": true}}
	a := NewTrackingIDAllocator(store, nil)
	a.now = func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }
	a.random = func() (string, error) {
		s := suffixes[i]
		i++
		return s, nil
	}

	id, err := a.Allocate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "GR-2025-CCCCCC", id)
	assert.Equal(t, 3, store.calls)
}

func TestAllocateGivesUpAfterMaxAttempts(t *testing.T) {
	store := &existsStub{taken: map[string]bool{"GR-2025-ZZZZZZ": true}}
	a := NewTrackingIDAllocator(store, nil)
	a.now = func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }
	a.random = func() (string, error) { return "ZZZZZZ", nil }

	id, err := a.Allocate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "GR-2025-ZZZZZZ", id)
	assert.Equal(t, maxTrackingAttempts, store.calls)
}

func TestAllocatePropagatesStoreErrors(t *testing.T) {
	a := NewTrackingIDAllocator(&existsStub{err: errors.New("db down")}, nil)
	_, err := a.Allocate(context.Background())
	assert.Error(t, err)
}

func TestValidTrackingID(t *testing.T) {
	assert.True(t, ValidTrackingID("GR-2024-A1B2C3"))
	assert.False(t, ValidTrackingID("gr-2024-a1b2c3"))
	assert.False(t, ValidTrackingID("GR-24-A1B2C3"))
}

// issuedStub reports every ID the test has already recorded as stored.
type issuedStub struct {
	issued map[string]bool
}

func (s *issuedStub) Exists(ctx context.Context, id string) (bool, error) {
	return s.issued[id], nil
}

func TestAllocateThousandDistinct(t *testing.T) {
	store := &issuedStub{issued: map[string]bool{}}
	a := NewTrackingIDAllocator(store, nil)

	for i := 0; i < 1000; i++ {
		id, err := a.Allocate(context.Background())
		require.NoError(t, err)
		require.True(t, ValidTrackingID(id), id)
		require.False(t, store.issued[id], "duplicate %s", id)
		store.issued[id] = true
	}
	assert.Len(t, store.issued, 1000)
}
