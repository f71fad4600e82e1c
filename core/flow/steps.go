package flow

import (
	"strings"

	"github.com/m3rciful/feedbackbot/core/session"
)

// stepResult is the outcome of applying one event to one session step.
// When complete is set the conversation finished on this event and sess
// holds the final field values; otherwise sess is the state to persist.
type stepResult struct {
	sess     session.Session
	reply    string
	complete bool
}

// step applies ev to the session's current step. Input of the wrong kind
// leaves the session untouched and returns step-specific guidance.
func (e *Engine) step(sess session.Session, ev Event) stepResult {
	switch sess.State {
	case session.StateAwaitingName:
		return e.stepName(sess, ev)
	case session.StateAwaitingMediaConsent:
		return e.stepConsent(sess, ev)
	case session.StateAwaitingFeedback:
		return e.stepFeedback(sess, ev)
	case session.StateAwaitingMedia:
		return e.stepMedia(sess, ev)
	}
	// Unreachable: Handle resets unknown and completed states before
	// dispatching here.
	return stepResult{sess: sess, reply: e.opts.Prompts.Apology}
}

func (e *Engine) stepName(sess session.Session, ev Event) stepResult {
	if ev.Kind != KindText || strings.TrimSpace(ev.Text) == "" {
		return stepResult{sess: sess, reply: e.opts.Prompts.NeedText}
	}
	sess.Name = strings.TrimSpace(ev.Text)
	if e.opts.MediaConsent {
		sess.State = session.StateAwaitingMediaConsent
		return stepResult{sess: sess, reply: e.opts.Prompts.AskConsent}
	}
	sess.State = session.StateAwaitingFeedback
	return stepResult{sess: sess, reply: e.opts.Prompts.AskFeedback}
}

func (e *Engine) stepConsent(sess session.Session, ev Event) stepResult {
	if ev.Kind != KindText {
		return stepResult{sess: sess, reply: e.opts.Prompts.NeedChoice}
	}
	switch strings.ToLower(strings.TrimSpace(ev.Text)) {
	case "yes", "y":
		sess.State = session.StateAwaitingMedia
		return stepResult{sess: sess, reply: e.opts.Prompts.AskMedia}
	case "no", "n":
		sess.State = session.StateAwaitingFeedback
		return stepResult{sess: sess, reply: e.opts.Prompts.AskFeedback}
	}
	return stepResult{sess: sess, reply: e.opts.Prompts.NeedChoice}
}

func (e *Engine) stepFeedback(sess session.Session, ev Event) stepResult {
	if ev.Kind != KindText || strings.TrimSpace(ev.Text) == "" {
		return stepResult{sess: sess, reply: e.opts.Prompts.NeedText}
	}
	sess.FeedbackText = strings.TrimSpace(ev.Text)
	if e.opts.MediaConsent {
		// Consent variant: media (if any) was collected before feedback,
		// so the conversation finishes here.
		sess.State = session.StateCompleted
		return stepResult{sess: sess, reply: e.opts.Prompts.Completed, complete: true}
	}
	sess.State = session.StateAwaitingMedia
	return stepResult{sess: sess, reply: e.opts.Prompts.AskMedia}
}

func (e *Engine) stepMedia(sess session.Session, ev Event) stepResult {
	if ev.Kind != KindMedia || ev.MediaRef == "" {
		return stepResult{sess: sess, reply: e.opts.Prompts.NeedMedia}
	}
	sess.MediaRef = ev.MediaRef
	if e.opts.MediaConsent {
		sess.State = session.StateAwaitingFeedback
		return stepResult{sess: sess, reply: e.opts.Prompts.AskFeedback}
	}
	sess.State = session.StateCompleted
	return stepResult{sess: sess, reply: e.opts.Prompts.Completed, complete: true}
}
