package media

import (
	"encoding/json"
	"fmt"
	"mime"
	"time"
)

// Task describes one media fetch enqueued at conversation completion.
// The record already exists when the task is published; the pipeline only
// patches its media URI afterwards.
type Task struct {
	RecordID   string    `json:"record_id"`
	UserID     string    `json:"user_id"`
	MediaRef   string    `json:"media_ref"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

func encodeTask(task Task) ([]byte, error) {
	data, err := json.Marshal(task)
	if err != nil {
		return nil, fmt.Errorf("media: encode task: %w", err)
	}
	return data, nil
}

func decodeTask(payload []byte) (Task, error) {
	var task Task
	if err := json.Unmarshal(payload, &task); err != nil {
		return Task{}, fmt.Errorf("media: decode task: %w", err)
	}
	return task, nil
}

// ObjectPath builds the deterministic storage path for a record's media,
// partitioned by enqueue date.
func ObjectPath(task Task, contentType string) string {
	ext := extensionFor(contentType)
	return fmt.Sprintf("feedback/%s/%s%s", task.EnqueuedAt.UTC().Format("2006/01/02"), task.RecordID, ext)
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "video/mp4":
		return ".mp4"
	}
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".bin"
}
