// Package storetest provides migrated in-memory stores for tests.
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/DAAIDev/AgentBoxDev/internal/store"
)

// Clock is a deterministic time source that advances one millisecond on
// every read.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock starts a clock at a fixed instant.
func NewClock() *Clock {
	return &Clock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
}

// Now returns the current instant and advances the clock.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Millisecond)
	return c.now
}

// New opens and migrates an in-memory SQLite store closed at test end.
func New(t *testing.T) *store.Store {
	t.Helper()
	ctx := context.Background()

	s, err := store.Open(ctx, ":memory:", store.WithClock(NewClock().Now))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(ctx))

	t.Cleanup(func() {
		s.Close()
	})
	return s
}

// SeedCompany creates a company with the given slug.
func SeedCompany(t *testing.T, s *store.Store, slug, name string) string {
	t.Helper()
	c, err := s.CreateCompany(context.Background(), store.CompanyInput{Slug: slug, Name: name})
	require.NoError(t, err)
	return c.ID
}
