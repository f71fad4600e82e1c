// Package records persists completed feedback conversations.
package records

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no record matches the lookup.
var ErrNotFound = errors.New("records: not found")

// MediaErrorMarker prefixes the media URI field when the asynchronous media
// pipeline failed; the suffix names the failed stage.
const MediaErrorMarker = "error:"

// Record is the immutable result of one completed feedback conversation.
// MediaURI starts empty and is patched exactly once by the media pipeline,
// either with a durable URI or with an error marker.
type Record struct {
	ID              string    `db:"id"`
	UserID          string    `db:"user_id"`
	Name            string    `db:"name"`
	FeedbackText    string    `db:"feedback_text"`
	MediaURI        string    `db:"media_uri"`
	DurationSeconds int64     `db:"duration_seconds"`
	CreatedAt       time.Time `db:"created_at"`
}

// Store is the append-only persistence contract for records.
type Store interface {
	Create(ctx context.Context, rec Record) error
	// PatchMedia sets the media URI (or error marker) on an existing record.
	PatchMedia(ctx context.Context, recordID, value string) error
	GetByID(ctx context.Context, recordID string) (Record, error)
	// LatestByUser returns the most recently created record for a user.
	LatestByUser(ctx context.Context, userID string) (Record, error)
	ListRecent(ctx context.Context, limit int) ([]Record, error)
	Count(ctx context.Context) (int64, error)
}
