package models

import "time"

// TranscriptionJob は1回の文字起こし試行
type TranscriptionJob struct {
	ID            string    `json:"id"`
	RecordingID   string    `json:"recording_id"`
	Provider      string    `json:"provider"`
	ProviderJobID *string   `json:"provider_job_id,omitempty"`
	ModelID       string    `json:"model_id"`
	LanguageCode  string    `json:"language_code,omitempty"`
	Diarize       bool      `json:"diarize"`
	Status        string    `json:"status"`
	Error         *string   `json:"error,omitempty"`
	RawResponse   *string   `json:"-"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ジョブステータス
const (
	JobStatusQueued    = "queued"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// IsTerminal はジョブが終了状態かどうかを返す
func (j *TranscriptionJob) IsTerminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}

// TranscriptSegment は同一話者の連続発話区間
type TranscriptSegment struct {
	ID           string    `json:"id"`
	RecordingID  string    `json:"recording_id"`
	JobID        string    `json:"job_id"`
	SpeakerID    string    `json:"speaker_id"`
	SpeakerLabel string    `json:"speaker_label"`
	StartMS      int64     `json:"start_ms"`
	EndMS        int64     `json:"end_ms"`
	Text         string    `json:"text"`
	Metadata     *string   `json:"metadata,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
