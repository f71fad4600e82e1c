package reaper

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/m3rciful/feedbackbot/core/session"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestSweepRemovesIdleSessions(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)}
	store := session.NewMemoryStoreWithClock(10*time.Minute, clock.Now)

	if _, _, err := store.GetOrCreate("idle"); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	clock.Advance(11 * time.Minute)
	if _, _, err := store.GetOrCreate("fresh"); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}

	r := New(store, time.Hour)
	if removed := r.Sweep(context.Background()); removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}

	count, err := store.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 1 {
		t.Fatalf("count = %d, want 1", count)
	}
}

func TestSweepSparesRevivedSession(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)}
	store := session.NewMemoryStoreWithClock(10*time.Minute, clock.Now)

	if _, _, err := store.GetOrCreate("u1"); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	clock.Advance(11 * time.Minute)

	idle, err := store.ListIdle()
	if err != nil {
		t.Fatalf("ListIdle: %v", err)
	}
	if len(idle) != 1 {
		t.Fatalf("idle = %d, want 1", len(idle))
	}

	// Revive between list and delete.
	if err := store.Save(session.Session{UserID: "u1", State: session.StateAwaitingName}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	r := New(store, time.Hour)
	r.Sweep(context.Background())

	if _, created, err := store.GetOrCreate("u1"); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	} else if created {
		t.Fatal("revived session was deleted by the sweep")
	}
}

func TestStartStopLifecycle(t *testing.T) {
	store := session.NewMemoryStore(time.Minute)
	r := New(store, 10*time.Millisecond)

	r.Start(context.Background())
	time.Sleep(30 * time.Millisecond)
	r.Stop()
	// Stop twice is safe.
	r.Stop()
}

func TestStopBeforeStart(t *testing.T) {
	r := New(session.NewMemoryStore(time.Minute), time.Minute)
	r.Stop()
}
