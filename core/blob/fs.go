package blob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// fsStore writes media under a local directory. Development backend.
type fsStore struct {
	dir     string
	baseURL string
}

// NewFSStore builds a filesystem-backed Store rooted at dir. The returned
// URIs are baseURL joined with the object path, or file:// URIs when
// baseURL is empty.
func NewFSStore(dir, baseURL string) Store {
	return &fsStore{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (f *fsStore) Upload(_ context.Context, path string, data []byte, _ string) (string, error) {
	path = strings.TrimLeft(path, "/")
	full := filepath.Join(f.dir, filepath.FromSlash(path))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("blob: mkdir for %s: %w", path, err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("blob: write %s: %w", path, err)
	}
	if f.baseURL != "" {
		return f.baseURL + "/" + path, nil
	}
	return "file://" + full, nil
}

func (f *fsStore) Remove(_ context.Context, path string) error {
	full := filepath.Join(f.dir, filepath.FromSlash(strings.TrimLeft(path, "/")))
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("blob: remove %s: %w", path, err)
	}
	return nil
}
