package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gotham-app/backend/internal/adapters/memory"
	"github.com/gotham-app/backend/internal/domain/entities"
	"github.com/gotham-app/backend/internal/domain/repositories"
)

// testClock is a settable clock shared by the store and the services
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(t time.Time) *testClock { return &testClock{now: t} }

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newStore(clock *testClock) *repositories.Store {
	return memory.NewStoreWithClock(clock.Now)
}

func seedPlace(t *testing.T, store *repositories.Store, p *entities.Place) *entities.Place {
	t.Helper()
	require.NoError(t, store.Places.Create(context.Background(), p))
	return p
}

