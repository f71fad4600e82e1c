package session

import (
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)}
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

func TestGetOrCreateFresh(t *testing.T) {
	clock := newFakeClock()
	store := NewMemoryStoreWithClock(12*time.Hour, clock.Now)

	sess, created, err := store.GetOrCreate("u1")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if !created {
		t.Fatal("expected fresh session")
	}
	if sess.State != StateAwaitingName {
		t.Fatalf("state = %s, expected %s", sess.State, StateAwaitingName)
	}
	if sess.Name != "" || sess.FeedbackText != "" || sess.MediaRef != "" {
		t.Fatal("fresh session must have empty collected fields")
	}
}

func TestGetOrCreateReturnsLive(t *testing.T) {
	clock := newFakeClock()
	store := NewMemoryStoreWithClock(12*time.Hour, clock.Now)

	sess, _, _ := store.GetOrCreate("u1")
	sess.State = StateAwaitingFeedback
	sess.Name = "Alice"
	if err := store.Save(sess); err != nil {
		t.Fatalf("Save: %v", err)
	}

	clock.Advance(time.Hour)
	got, created, err := store.GetOrCreate("u1")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if created {
		t.Fatal("session within TTL must survive")
	}
	if got.Name != "Alice" || got.State != StateAwaitingFeedback {
		t.Fatalf("unexpected session: %+v", got)
	}
}

func TestGetOrCreateDiscardsExpired(t *testing.T) {
	clock := newFakeClock()
	store := NewMemoryStoreWithClock(12*time.Hour, clock.Now)

	sess, _, _ := store.GetOrCreate("u1")
	sess.State = StateAwaitingMedia
	sess.Name = "Bob"
	_ = store.Save(sess)

	clock.Advance(12*time.Hour + time.Minute)
	got, created, err := store.GetOrCreate("u1")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if !created {
		t.Fatal("expired session must be replaced")
	}
	if got.State != StateAwaitingName || got.Name != "" {
		t.Fatalf("expected fresh session, got %+v", got)
	}
}

func TestSaveRefreshesActivity(t *testing.T) {
	clock := newFakeClock()
	store := NewMemoryStoreWithClock(time.Hour, clock.Now)

	sess, _, _ := store.GetOrCreate("u1")
	clock.Advance(50 * time.Minute)
	_ = store.Save(sess)

	// Would be expired relative to creation, but Save moved the activity mark.
	clock.Advance(30 * time.Minute)
	_, created, _ := store.GetOrCreate("u1")
	if created {
		t.Fatal("session refreshed by Save must still be live")
	}
}

func TestListIdleAndConditionalDelete(t *testing.T) {
	clock := newFakeClock()
	store := NewMemoryStoreWithClock(time.Hour, clock.Now)

	_, _, _ = store.GetOrCreate("idle")
	clock.Advance(2 * time.Hour)
	_, _, _ = store.GetOrCreate("fresh")

	idle, err := store.ListIdle()
	if err != nil {
		t.Fatalf("ListIdle: %v", err)
	}
	if len(idle) != 1 || idle[0].UserID != "idle" {
		t.Fatalf("unexpected idle set: %+v", idle)
	}

	// Revive the idle session before the reaper gets to it.
	revived, created, _ := store.GetOrCreate("idle")
	if !created {
		t.Fatal("expired session should have been recreated")
	}

	if err := store.DeleteIfUnchanged("idle", idle[0].LastActivityAt); err != nil {
		t.Fatalf("DeleteIfUnchanged: %v", err)
	}
	got, created, _ := store.GetOrCreate("idle")
	if created {
		t.Fatal("revived session must survive a stale conditional delete")
	}
	if !got.CreatedAt.Equal(revived.CreatedAt) {
		t.Fatalf("expected revived session, got %+v", got)
	}
}

func TestDeleteIsNoopWhenAbsent(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	if err := store.Delete("missing"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}

func TestSessionsAreIsolatedByUser(t *testing.T) {
	store := NewMemoryStore(time.Hour)

	a, _, _ := store.GetOrCreate("a")
	a.Name = "Alice"
	a.State = StateAwaitingFeedback
	_ = store.Save(a)

	b, _, _ := store.GetOrCreate("b")
	if b.Name != "" || b.State != StateAwaitingName {
		t.Fatalf("user b observed foreign data: %+v", b)
	}
}

func TestGetOrCreateConcurrentSingleWinner(t *testing.T) {
	store := NewMemoryStore(time.Hour)

	const goroutines = 32
	var wg sync.WaitGroup
	createdCount := make(chan bool, goroutines)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, created, err := store.GetOrCreate("u1")
			if err != nil {
				t.Errorf("GetOrCreate: %v", err)
			}
			createdCount <- created
		}()
	}
	wg.Wait()
	close(createdCount)

	total := 0
	for created := range createdCount {
		if created {
			total++
		}
	}
	if total != 1 {
		t.Fatalf("exactly one goroutine must create the session, got %d", total)
	}
}
