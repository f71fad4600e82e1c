// Package session owns the per-user conversation session lifecycle.
package session

import "time"

// State identifies a step of the feedback conversation.
type State string

const (
	// StateAwaitingName is the initial step collecting the user's name.
	StateAwaitingName State = "awaiting_name"
	// StateAwaitingMediaConsent is the optional yes/no step before media collection.
	StateAwaitingMediaConsent State = "awaiting_media_consent"
	// StateAwaitingFeedback collects the free-form feedback text.
	StateAwaitingFeedback State = "awaiting_feedback"
	// StateAwaitingMedia collects the media attachment.
	StateAwaitingMedia State = "awaiting_media"
	// StateCompleted is terminal; the session is removed right after entering it.
	StateCompleted State = "completed"
)

// Known reports whether s is a member of the closed state set.
// Sessions carrying an unknown state are treated as corrupted and reset.
func (s State) Known() bool {
	switch s {
	case StateAwaitingName, StateAwaitingMediaConsent, StateAwaitingFeedback, StateAwaitingMedia, StateCompleted:
		return true
	}
	return false
}

// Session stores conversation progress for a single user.
type Session struct {
	UserID         string
	State          State
	Name           string
	FeedbackText   string
	MediaRef       string
	CreatedAt      time.Time
	LastActivityAt time.Time
}

// IdleRef identifies an idle session together with the activity timestamp
// observed when it was listed, so deletes can be made conditional.
type IdleRef struct {
	UserID         string
	LastActivityAt time.Time
}

// Store is the narrow persistence contract for sessions. A session whose
// last activity is older than the store TTL is logically absent: reads must
// behave as if no session exists for that user.
type Store interface {
	// GetOrCreate returns the live session for userID or atomically replaces
	// a stale/missing one with a fresh session in the initial state.
	// The second result reports whether a fresh session was created.
	GetOrCreate(userID string) (Session, bool, error)
	// Save upserts the session by UserID and refreshes LastActivityAt.
	Save(sess Session) error
	// Delete removes the session; it is a no-op when absent.
	Delete(userID string) error
	// ListIdle returns sessions idle for longer than the store TTL.
	ListIdle() ([]IdleRef, error)
	// DeleteIfUnchanged removes the session only when its LastActivityAt
	// still equals the provided timestamp. A session revived in between
	// survives the delete.
	DeleteIfUnchanged(userID string, lastActivityAt time.Time) error
	// Count reports the number of stored sessions, live or idle.
	Count() (int, error)
}
