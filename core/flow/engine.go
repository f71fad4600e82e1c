// Package flow drives the feedback conversation: it classifies inbound
// events, applies the step state machine, and commits the results.
package flow

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/m3rciful/feedbackbot/core/logger"
	"github.com/m3rciful/feedbackbot/core/media"
	"github.com/m3rciful/feedbackbot/core/records"
	"github.com/m3rciful/feedbackbot/core/session"
	"log/slog"
)

// Kind classifies an inbound event.
type Kind string

const (
	// KindText is a plain text message.
	KindText Kind = "text"
	// KindMedia is a message carrying a media attachment reference.
	KindMedia Kind = "media"
	// KindOther is any other update the channel delivered.
	KindOther Kind = "other"
)

// Event is one inbound message, already detached from the transport.
type Event struct {
	SenderID string
	Kind     Kind
	Text     string
	MediaRef string
}

// Sender delivers outbound texts. Failures are observable but never abort
// event handling: the conversational state is committed before sending.
type Sender interface {
	Send(ctx context.Context, userID, text string) (string, error)
}

// Enqueuer hands completed-conversation media tasks to the detached pipeline.
type Enqueuer interface {
	Enqueue(ctx context.Context, task media.Task) error
}

// Options wires the engine's collaborators and tunables.
type Options struct {
	Sessions session.Store
	Records  records.Store
	Media    Enqueuer
	Sender   Sender

	// StartKeyword resets the conversation at any step (case-insensitive
	// exact match on trimmed text).
	StartKeyword string
	// MediaConsent inserts the yes/no consent step after the name step.
	// When false the flow is linear: name, feedback, media.
	MediaConsent bool
	Prompts      Prompts

	// Now and NewID are injectable for tests.
	Now   func() time.Time
	NewID func() string
}

// Engine routes inbound events through the step state machine. One event
// per user is processed at a time; distinct users proceed concurrently.
type Engine struct {
	opts  Options
	locks session.KeyMutex
}

// NewEngine constructs an Engine, filling defaults for zeroed options.
func NewEngine(opts Options) *Engine {
	if opts.StartKeyword == "" {
		opts.StartKeyword = "start"
	}
	if opts.Prompts == (Prompts{}) {
		opts.Prompts = DefaultPrompts()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &Engine{opts: opts}
}

// Handle processes one inbound event end to end. Any panic or store failure
// is contained here: the user receives a generic apology and other in-flight
// events are unaffected.
func (e *Engine) Handle(ctx context.Context, ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error(ctx, "flow", "handle.panic",
				slog.String("user_id", ev.SenderID),
				slog.Any("err", r),
				slog.String("stack", string(debug.Stack())),
			)
			e.send(ctx, ev.SenderID, e.opts.Prompts.Apology)
			err = fmt.Errorf("flow: panic while handling event: %v", r)
		}
	}()

	unlock := e.locks.Lock(ev.SenderID)
	defer unlock()

	if e.isStartKeyword(ev) {
		return e.reset(ctx, ev.SenderID)
	}

	sess, created, err := e.opts.Sessions.GetOrCreate(ev.SenderID)
	if err != nil {
		e.send(ctx, ev.SenderID, e.opts.Prompts.Apology)
		return fmt.Errorf("flow: session read: %w", err)
	}
	if created {
		logger.Debug(ctx, "flow", "session.created", slog.String("user_id", ev.SenderID))
	}

	if !sess.State.Known() || sess.State == session.StateCompleted {
		// Corrupted or leftover state: start over.
		logger.Warn(ctx, "flow", "session.reset",
			slog.String("user_id", ev.SenderID),
			slog.String("state", string(sess.State)),
			slog.String("cause", "unknown_state"),
		)
		return e.reset(ctx, ev.SenderID)
	}

	res := e.step(sess, ev)

	if res.complete {
		task, err := e.finalize(ctx, res.sess)
		if err != nil {
			e.send(ctx, ev.SenderID, e.opts.Prompts.Apology)
			return err
		}
		e.send(ctx, ev.SenderID, res.reply)
		if task != nil {
			// Detached: enqueue failures are logged and forgotten.
			if err := e.opts.Media.Enqueue(ctx, *task); err != nil {
				logger.Warn(ctx, "flow", "media.enqueue",
					slog.String("status", "fail"),
					slog.String("record_id", task.RecordID),
					slog.String("err", err.Error()),
				)
			}
		}
		return nil
	}

	if err := e.opts.Sessions.Save(res.sess); err != nil {
		e.send(ctx, ev.SenderID, e.opts.Prompts.Apology)
		return fmt.Errorf("flow: session save: %w", err)
	}
	e.send(ctx, ev.SenderID, res.reply)
	return nil
}

// Reset discards any in-progress session and restarts the conversation.
func (e *Engine) Reset(ctx context.Context, userID string) error {
	unlock := e.locks.Lock(userID)
	defer unlock()
	return e.reset(ctx, userID)
}

func (e *Engine) reset(ctx context.Context, userID string) error {
	now := e.opts.Now()
	fresh := session.Session{
		UserID:    userID,
		State:     session.StateAwaitingName,
		CreatedAt: now,
	}
	if err := e.opts.Sessions.Save(fresh); err != nil {
		e.send(ctx, userID, e.opts.Prompts.Apology)
		return fmt.Errorf("flow: session reset: %w", err)
	}
	e.send(ctx, userID, e.opts.Prompts.Opening)
	return nil
}

func (e *Engine) isStartKeyword(ev Event) bool {
	if ev.Kind != KindText {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(ev.Text), e.opts.StartKeyword)
}

// finalize persists the completed conversation: exactly one record is
// created, the session is removed, and the media task (if any) is returned
// for enqueueing after the completion message is sent.
func (e *Engine) finalize(ctx context.Context, sess session.Session) (*media.Task, error) {
	now := e.opts.Now()
	rec := records.Record{
		ID:              e.opts.NewID(),
		UserID:          sess.UserID,
		Name:            sess.Name,
		FeedbackText:    sess.FeedbackText,
		DurationSeconds: int64(now.Sub(sess.CreatedAt) / time.Second),
		CreatedAt:       now,
	}
	if err := e.opts.Records.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("flow: record create: %w", err)
	}
	if err := e.opts.Sessions.Delete(sess.UserID); err != nil {
		// The record is already durable. Park the session in the terminal
		// state so a replayed event resets instead of completing again.
		logger.Warn(ctx, "flow", "session.delete",
			slog.String("status", "fail"),
			slog.String("user_id", sess.UserID),
			slog.String("err", err.Error()),
		)
		sess.State = session.StateCompleted
		if saveErr := e.opts.Sessions.Save(sess); saveErr != nil {
			logger.Warn(ctx, "flow", "session.park",
				slog.String("status", "fail"),
				slog.String("user_id", sess.UserID),
				slog.String("err", saveErr.Error()),
			)
		}
	}

	logger.Info(ctx, "flow", "conversation.completed",
		slog.String("user_id", sess.UserID),
		slog.String("record_id", rec.ID),
		slog.Int64("count", rec.DurationSeconds),
	)

	if sess.MediaRef == "" {
		return nil, nil
	}
	return &media.Task{
		RecordID:   rec.ID,
		UserID:     sess.UserID,
		MediaRef:   sess.MediaRef,
		EnqueuedAt: now,
	}, nil
}

func (e *Engine) send(ctx context.Context, userID, text string) {
	if text == "" || e.opts.Sender == nil {
		return
	}
	if _, err := e.opts.Sender.Send(ctx, userID, text); err != nil {
		logger.Warn(ctx, "flow", "send",
			slog.String("status", "fail"),
			slog.String("user_id", userID),
			slog.String("err", err.Error()),
		)
	}
}
