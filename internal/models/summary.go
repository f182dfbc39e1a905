package models

import "time"

// Summary は文字起こしから生成された要約の1バージョン
// 一度作成されたら不変。再生成は新しいバージョンを追加する
type Summary struct {
	ID          string    `json:"id"`
	RecordingID string    `json:"recording_id"`
	Version     int64     `json:"version"`
	TemplateID  *string   `json:"template_id,omitempty"`
	Model       string    `json:"model"`
	Content     string    `json:"content"`
	RawResponse *string   `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

// SummaryTemplate は要約プロンプトのテンプレート
// プロンプト本文には {{transcript}} と {{instructions}} を埋め込める
type SummaryTemplate struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Prompt    string    `json:"prompt"`
	IsDefault bool      `json:"is_default"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
