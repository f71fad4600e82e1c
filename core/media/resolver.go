package media

import "context"

// Resolver turns an opaque channel media reference into bytes. The channel
// adapter supplies the implementation; the pipeline never talks to the
// channel API directly.
type Resolver interface {
	// ResolveURL exchanges the opaque media reference for a time-limited
	// fetch URL via the channel's media-metadata lookup.
	ResolveURL(ctx context.Context, mediaRef string) (string, error)
	// Download fetches the byte payload and reports its content type.
	Download(ctx context.Context, url string) ([]byte, string, error)
}
