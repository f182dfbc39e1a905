package models

import "time"

// Recording はアップロード済みのメディア1件
type Recording struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Title       string    `json:"title"`
	Filename    string    `json:"filename"`
	StoragePath string    `json:"storage_path,omitempty"`
	MimeType    string    `json:"mime_type"`
	DurationMS  *int64    `json:"duration_ms,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// レコーディングステータス
const (
	RecordingStatusUploaded     = "uploaded"
	RecordingStatusTranscribing = "transcribing"
	RecordingStatusReady        = "ready"
	RecordingStatusFailed       = "failed"
)
