package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"

	tele "gopkg.in/telebot.v4"
)

// maxMediaBytes bounds a single media download.
const maxMediaBytes = 50 << 20

// FileResolver resolves Telegram file ids to download URLs and fetches
// their bytes. It implements media.Resolver.
type FileResolver struct {
	bot    *tele.Bot
	token  string
	client *http.Client
}

// NewFileResolver constructs a FileResolver over bot. The token is needed
// because file download URLs embed it.
func NewFileResolver(bot *tele.Bot, token string) *FileResolver {
	return &FileResolver{
		bot:    bot,
		token:  token,
		client: BuildHTTPClient(),
	}
}

// ResolveURL asks the Bot API for the file path behind mediaRef.
// The returned URL is short-lived; callers download right away.
func (r *FileResolver) ResolveURL(_ context.Context, mediaRef string) (string, error) {
	file, err := r.bot.FileByID(mediaRef)
	if err != nil {
		return "", fmt.Errorf("telegram: getFile %s: %w", mediaRef, err)
	}
	if file.FilePath == "" {
		return "", fmt.Errorf("telegram: getFile %s: empty file path", mediaRef)
	}
	return fmt.Sprintf("https://api.telegram.org/file/bot%s/%s", r.token, file.FilePath), nil
}

// Download fetches url and returns the payload with its content type.
func (r *FileResolver) Download(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("telegram: download status %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxMediaBytes+1))
	if err != nil {
		return nil, "", err
	}
	if len(data) > maxMediaBytes {
		return nil, "", fmt.Errorf("telegram: media exceeds %d bytes", maxMediaBytes)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	return data, contentType, nil
}
