// Package media implements the detached fetch-and-store pipeline for
// conversation media. Tasks are best-effort and at-most-once: failures are
// recorded on the feedback record and never retried or surfaced to the user.
package media

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/m3rciful/feedbackbot/core/blob"
	"github.com/m3rciful/feedbackbot/core/logger"
	"github.com/m3rciful/feedbackbot/core/records"
	"log/slog"
)

const fetchTopic = "media.fetch"

// ErrPipelineClosed is returned when enqueue is attempted after Close.
var ErrPipelineClosed = errors.New("media: pipeline closed")

// Options configures the pipeline.
type Options struct {
	Resolver Resolver
	Blobs    blob.Store
	Records  records.Store
	// Workers bounds concurrent fetch/upload operations.
	Workers int
	// QueueSize buffers published tasks between the conversational path
	// and the workers.
	QueueSize int
}

// Pipeline consumes media tasks with a bounded worker pool on top of a
// watermill gochannel queue.
type Pipeline struct {
	opts   Options
	pubsub *gochannel.GoChannel

	mu      sync.Mutex
	started bool
	closed  bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewPipeline constructs a pipeline with sane defaults for zeroed options.
func NewPipeline(opts Options) *Pipeline {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 64
	}
	return &Pipeline{
		opts: opts,
		pubsub: gochannel.NewGoChannel(
			gochannel.Config{OutputChannelBuffer: int64(opts.QueueSize)},
			watermill.NopLogger{},
		),
	}
}

// Start subscribes the worker pool. It may be called once.
func (p *Pipeline) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return nil
	}
	if p.closed {
		return ErrPipelineClosed
	}

	workerCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	msgs, err := p.pubsub.Subscribe(workerCtx, fetchTopic)
	if err != nil {
		cancel()
		return err
	}
	p.cancel = cancel
	p.started = true

	p.wg.Add(p.opts.Workers)
	for i := 0; i < p.opts.Workers; i++ {
		go p.worker(workerCtx, msgs)
	}

	logger.Info(workerCtx, "media", "pipeline.start",
		slog.Int("workers", p.opts.Workers),
		slog.Int("queue", p.opts.QueueSize),
	)
	return nil
}

// Enqueue publishes a task without awaiting its completion.
func (p *Pipeline) Enqueue(ctx context.Context, task Task) error {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return ErrPipelineClosed
	}

	payload, err := encodeTask(task)
	if err != nil {
		return err
	}
	if err := p.pubsub.Publish(fetchTopic, message.NewMessage(watermill.NewUUID(), payload)); err != nil {
		return err
	}
	logger.Debug(ctx, "media", "task.enqueued",
		slog.String("record_id", task.RecordID),
		slog.String("media_ref", logger.SanitizeLimit(task.MediaRef, 128)),
	)
	return nil
}

// Close stops accepting tasks, drains queued work, and waits for in-flight
// workers to finish.
func (p *Pipeline) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	err := p.pubsub.Close()
	p.wg.Wait()
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	p.mu.Unlock()
	return err
}

func (p *Pipeline) worker(ctx context.Context, msgs <-chan *message.Message) {
	defer p.wg.Done()
	for msg := range msgs {
		task, err := decodeTask(msg.Payload)
		if err != nil {
			logger.Error(ctx, "media", "task.decode",
				slog.String("status", "fail"),
				slog.String("err", err.Error()),
			)
			msg.Ack()
			continue
		}
		p.process(ctx, task)
		msg.Ack()
	}
}

// process runs one task through resolve, download, upload, and patch. Any
// failure marks the record with the failed stage and stops.
func (p *Pipeline) process(ctx context.Context, task Task) {
	start := time.Now()

	url, err := p.opts.Resolver.ResolveURL(ctx, task.MediaRef)
	if err != nil {
		p.fail(ctx, task, "resolve", err)
		return
	}

	data, contentType, err := p.opts.Resolver.Download(ctx, url)
	if err != nil {
		p.fail(ctx, task, "download", err)
		return
	}

	path := ObjectPath(task, contentType)
	uri, err := p.opts.Blobs.Upload(ctx, path, data, contentType)
	if err != nil {
		p.fail(ctx, task, "upload", err)
		return
	}

	if err := p.opts.Records.PatchMedia(ctx, task.RecordID, uri); err != nil {
		logger.Error(ctx, "media", "task.patch",
			slog.String("status", "fail"),
			slog.String("record_id", task.RecordID),
			slog.String("uri", uri),
			slog.String("err", err.Error()),
		)
		return
	}

	logger.Info(ctx, "media", "task.done",
		slog.String("status", "ok"),
		slog.String("record_id", task.RecordID),
		slog.String("path", path),
		slog.Int("count", len(data)),
		slog.Duration("duration", logger.Took(start)),
	)
}

// fail records the stage marker on the record in place of a media URI.
func (p *Pipeline) fail(ctx context.Context, task Task, stage string, cause error) {
	logger.Warn(ctx, "media", "task.fail",
		slog.String("status", "fail"),
		slog.String("stage", stage),
		slog.String("record_id", task.RecordID),
		slog.String("media_ref", logger.SanitizeLimit(task.MediaRef, 128)),
		slog.String("err", cause.Error()),
	)
	marker := records.MediaErrorMarker + stage
	if err := p.opts.Records.PatchMedia(ctx, task.RecordID, marker); err != nil {
		logger.Error(ctx, "media", "task.mark",
			slog.String("status", "fail"),
			slog.String("record_id", task.RecordID),
			slog.String("err", err.Error()),
		)
	}
}
