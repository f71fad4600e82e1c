// Package blob abstracts durable byte storage for fetched media.
package blob

import "context"

// Store uploads byte payloads under deterministic paths and returns a
// durable URI for each stored object.
type Store interface {
	Upload(ctx context.Context, path string, data []byte, contentType string) (string, error)
	// Remove deletes a stored object. Used by auxiliary tooling only.
	Remove(ctx context.Context, path string) error
}
