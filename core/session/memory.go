package session

import (
	"sync"
	"time"
)

// memoryStore is the in-memory Store implementation. All operations for a
// single user happen under one lock, so read-or-create is indivisible.
type memoryStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]*Session
	now      func() time.Time
}

// NewMemoryStore constructs an in-memory Store with the provided idle TTL.
func NewMemoryStore(ttl time.Duration) Store {
	return NewMemoryStoreWithClock(ttl, time.Now)
}

// NewMemoryStoreWithClock constructs an in-memory Store with an injectable
// clock for tests.
func NewMemoryStoreWithClock(ttl time.Duration, now func() time.Time) Store {
	if now == nil {
		now = time.Now
	}
	return &memoryStore{
		ttl:      ttl,
		sessions: make(map[string]*Session),
		now:      now,
	}
}

// GetOrCreate returns the live session if within TTL, otherwise discards any
// stale record and creates a fresh one in the initial state.
func (m *memoryStore) GetOrCreate(userID string) (Session, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if sess, ok := m.sessions[userID]; ok {
		if now.Sub(sess.LastActivityAt) <= m.ttl {
			return *sess, false, nil
		}
		delete(m.sessions, userID)
	}

	fresh := &Session{
		UserID:         userID,
		State:          StateAwaitingName,
		CreatedAt:      now,
		LastActivityAt: now,
	}
	m.sessions[userID] = fresh
	return *fresh, true, nil
}

// Save upserts by UserID, refreshing LastActivityAt to now.
func (m *memoryStore) Save(sess Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess.LastActivityAt = m.now()
	stored := sess
	m.sessions[sess.UserID] = &stored
	return nil
}

// Delete removes the session for a user; no-op when absent.
func (m *memoryStore) Delete(userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, userID)
	return nil
}

// ListIdle returns refs for sessions idle for longer than the TTL.
func (m *memoryStore) ListIdle() ([]IdleRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	var idle []IdleRef
	for userID, sess := range m.sessions {
		if now.Sub(sess.LastActivityAt) > m.ttl {
			idle = append(idle, IdleRef{UserID: userID, LastActivityAt: sess.LastActivityAt})
		}
	}
	return idle, nil
}

// Count reports the number of stored sessions.
func (m *memoryStore) Count() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions), nil
}

// DeleteIfUnchanged removes the session only when LastActivityAt matches the
// snapshot taken at list time.
func (m *memoryStore) DeleteIfUnchanged(userID string, lastActivityAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[userID]
	if !ok {
		return nil
	}
	if !sess.LastActivityAt.Equal(lastActivityAt) {
		return nil
	}
	delete(m.sessions, userID)
	return nil
}
