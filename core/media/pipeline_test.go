package media

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/m3rciful/feedbackbot/core/records"
)

type fakeResolver struct {
	mu         sync.Mutex
	resolveErr error
	downloadErr error
	payload    []byte
	contentType string
	resolved   []string
}

func (f *fakeResolver) ResolveURL(_ context.Context, mediaRef string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.resolveErr != nil {
		return "", f.resolveErr
	}
	f.resolved = append(f.resolved, mediaRef)
	return "https://channel.example.com/files/" + mediaRef, nil
}

func (f *fakeResolver) Download(_ context.Context, _ string) ([]byte, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.downloadErr != nil {
		return nil, "", f.downloadErr
	}
	return f.payload, f.contentType, nil
}

type fakeBlobs struct {
	mu       sync.Mutex
	uploadErr error
	uploads  map[string][]byte
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{uploads: make(map[string][]byte)}
}

func (f *fakeBlobs) Upload(_ context.Context, path string, data []byte, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.uploads[path] = data
	return "https://cdn.example.com/" + path, nil
}

func (f *fakeBlobs) Remove(_ context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.uploads, path)
	return nil
}

func waitForMedia(t *testing.T, store records.Store, recordID string) string {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		rec, err := store.GetByID(context.Background(), recordID)
		require.NoError(t, err)
		if rec.MediaURI != "" {
			return rec.MediaURI
		}
		select {
		case <-deadline:
			t.Fatal("media URI was not patched in time")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func newTestPipeline(t *testing.T, resolver *fakeResolver, blobs *fakeBlobs, store records.Store) *Pipeline {
	t.Helper()
	p := NewPipeline(Options{
		Resolver:  resolver,
		Blobs:     blobs,
		Records:   store,
		Workers:   2,
		QueueSize: 8,
	})
	require.NoError(t, p.Start(context.Background()))
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestPipelineSuccessPatchesRecord(t *testing.T) {
	resolver := &fakeResolver{payload: []byte("bytes"), contentType: "image/jpeg"}
	blobs := newFakeBlobs()
	store := records.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, records.Record{ID: "r1", UserID: "u1"}))

	p := newTestPipeline(t, resolver, blobs, store)
	enqueuedAt := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	require.NoError(t, p.Enqueue(ctx, Task{RecordID: "r1", UserID: "u1", MediaRef: "m1", EnqueuedAt: enqueuedAt}))

	uri := waitForMedia(t, store, "r1")
	require.Equal(t, "https://cdn.example.com/feedback/2026/08/28/r1.jpg", uri)

	blobs.mu.Lock()
	defer blobs.mu.Unlock()
	require.Equal(t, []byte("bytes"), blobs.uploads["feedback/2026/08/28/r1.jpg"])
}

func TestPipelineResolveFailureMarksRecord(t *testing.T) {
	resolver := &fakeResolver{resolveErr: errors.New("channel api down")}
	store := records.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, records.Record{ID: "r1", UserID: "u1"}))

	p := newTestPipeline(t, resolver, newFakeBlobs(), store)
	require.NoError(t, p.Enqueue(ctx, Task{RecordID: "r1", MediaRef: "m1", EnqueuedAt: time.Now()}))

	require.Equal(t, "error:resolve", waitForMedia(t, store, "r1"))
}

func TestPipelineDownloadFailureMarksRecord(t *testing.T) {
	resolver := &fakeResolver{downloadErr: errors.New("404")}
	store := records.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, records.Record{ID: "r1", UserID: "u1"}))

	p := newTestPipeline(t, resolver, newFakeBlobs(), store)
	require.NoError(t, p.Enqueue(ctx, Task{RecordID: "r1", MediaRef: "m1", EnqueuedAt: time.Now()}))

	require.Equal(t, "error:download", waitForMedia(t, store, "r1"))
}

func TestPipelineUploadFailureMarksRecord(t *testing.T) {
	resolver := &fakeResolver{payload: []byte("x"), contentType: "image/png"}
	blobs := newFakeBlobs()
	blobs.uploadErr = errors.New("bucket gone")
	store := records.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, records.Record{ID: "r1", UserID: "u1"}))

	p := newTestPipeline(t, resolver, blobs, store)
	require.NoError(t, p.Enqueue(ctx, Task{RecordID: "r1", MediaRef: "m1", EnqueuedAt: time.Now()}))

	require.Equal(t, "error:upload", waitForMedia(t, store, "r1"))
}

func TestPipelineEnqueueAfterClose(t *testing.T) {
	resolver := &fakeResolver{payload: []byte("x"), contentType: "image/jpeg"}
	store := records.NewMemoryStore()
	p := NewPipeline(Options{Resolver: resolver, Blobs: newFakeBlobs(), Records: store, Workers: 1})
	require.NoError(t, p.Start(context.Background()))
	require.NoError(t, p.Close())

	err := p.Enqueue(context.Background(), Task{RecordID: "r1", MediaRef: "m1", EnqueuedAt: time.Now()})
	require.ErrorIs(t, err, ErrPipelineClosed)
}

func TestObjectPathExtension(t *testing.T) {
	at := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	task := Task{RecordID: "abc", EnqueuedAt: at}
	require.Equal(t, "feedback/2026/01/02/abc.jpg", ObjectPath(task, "image/jpeg"))
	require.Equal(t, "feedback/2026/01/02/abc.png", ObjectPath(task, "image/png"))
	require.Equal(t, "feedback/2026/01/02/abc.bin", ObjectPath(task, "application/x-unknown"))
}
