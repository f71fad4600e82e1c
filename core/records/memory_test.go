package records

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryStoreCreateAndPatch(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	rec := Record{
		ID:              "r1",
		UserID:          "u1",
		Name:            "Alice",
		FeedbackText:    "Great service",
		DurationSeconds: 42,
		CreatedAt:       time.Now(),
	}
	require.NoError(t, store.Create(ctx, rec))

	require.NoError(t, store.PatchMedia(ctx, "r1", "https://cdn.example.com/m1.jpg"))
	got, err := store.GetByID(ctx, "r1")
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example.com/m1.jpg", got.MediaURI)
	require.Equal(t, "Alice", got.Name)
}

func TestMemoryStorePatchMissing(t *testing.T) {
	store := NewMemoryStore()
	err := store.PatchMedia(context.Background(), "nope", "uri")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreLatestByUser(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.Create(ctx, Record{ID: "old", UserID: "u1", CreatedAt: base}))
	require.NoError(t, store.Create(ctx, Record{ID: "new", UserID: "u1", CreatedAt: base.Add(time.Hour)}))
	require.NoError(t, store.Create(ctx, Record{ID: "other", UserID: "u2", CreatedAt: base.Add(2 * time.Hour)}))

	latest, err := store.LatestByUser(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, "new", latest.ID)

	_, err = store.LatestByUser(ctx, "unknown")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreListRecentAndCount(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.Create(ctx, Record{ID: id, UserID: "u", CreatedAt: base.Add(time.Duration(i) * time.Minute)}))
	}

	recent, err := store.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	require.Equal(t, "c", recent[0].ID)
	require.Equal(t, "b", recent[1].ID)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 3, count)
}
