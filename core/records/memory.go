package records

import (
	"context"
	"sort"
	"sync"
)

// memoryStore keeps records in process memory. Used in tests and when the
// bot runs without a database.
type memoryStore struct {
	mu      sync.RWMutex
	byID    map[string]Record
	ordered []string
}

// NewMemoryStore constructs an in-memory Store implementation.
func NewMemoryStore() Store {
	return &memoryStore{byID: make(map[string]Record)}
}

func (m *memoryStore) Create(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.byID[rec.ID] = rec
	m.ordered = append(m.ordered, rec.ID)
	return nil
}

func (m *memoryStore) PatchMedia(_ context.Context, recordID, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.byID[recordID]
	if !ok {
		return ErrNotFound
	}
	rec.MediaURI = value
	m.byID[recordID] = rec
	return nil
}

func (m *memoryStore) GetByID(_ context.Context, recordID string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.byID[recordID]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (m *memoryStore) LatestByUser(_ context.Context, userID string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var (
		found  bool
		latest Record
	)
	for _, rec := range m.byID {
		if rec.UserID != userID {
			continue
		}
		if !found || rec.CreatedAt.After(latest.CreatedAt) {
			latest = rec
			found = true
		}
	}
	if !found {
		return Record{}, ErrNotFound
	}
	return latest, nil
}

func (m *memoryStore) ListRecent(_ context.Context, limit int) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Record, 0, len(m.byID))
	for _, rec := range m.byID {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryStore) Count(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.byID)), nil
}
