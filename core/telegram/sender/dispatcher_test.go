package sender

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDispatcherRunsQueuedJobs(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, QueueSize: 4})
	defer d.Close()

	ran := make(chan struct{})
	err := d.Enqueue(context.Background(), "send.text", "sendMessage", func() error {
		close(ran)
		return nil
	})
	require.NoError(t, err)

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run")
	}
	require.Zero(t, d.ErrorCount())
}

func TestDispatcherCountsFailedJobs(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, QueueSize: 4})

	err := d.Enqueue(context.Background(), "send.text", "sendMessage", func() error {
		return errors.New("telegram: 502 (502)")
	})
	require.NoError(t, err)

	d.Close()
	require.Equal(t, uint64(1), d.ErrorCount())
}

func TestDispatcherEnforcesMaxDuration(t *testing.T) {
	release := make(chan struct{})
	d := NewDispatcher(Options{Workers: 1, QueueSize: 4, MaxDuration: 20 * time.Millisecond})

	err := d.Enqueue(context.Background(), "send.text", "sendMessage", func() error {
		<-release
		return nil
	})
	require.NoError(t, err)

	// The hung job is reported failed once the deadline passes, well before
	// it is released.
	require.Eventually(t, func() bool { return d.ErrorCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	close(release)
	d.Close()
}

func TestDispatcherEnqueueAfterClose(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, QueueSize: 4})
	d.Close()

	err := d.Enqueue(context.Background(), "send.text", "sendMessage", func() error { return nil })
	require.ErrorIs(t, err, ErrQueueClosed)
}
