package storage

import (
	"context"

	"kiroku/internal/models"
)

// SettingsRepository はプロセス全体のデフォルト設定の読み取り層
// 設定行は管理ツール側が所有しており、このコアからは書き込まない
type SettingsRepository struct {
	db *DB
}

// NewSettingsRepository は新しいSettingsRepositoryを作成
func NewSettingsRepository(db *DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get は設定を取得
func (r *SettingsRepository) Get(ctx context.Context) (*models.Settings, error) {
	var s models.Settings
	err := r.db.QueryRowContext(ctx,
		`SELECT stt_model_id, summary_model_id, diarize, tag_audio_events, temperature, max_tokens
		 FROM settings WHERE id = 1`).
		Scan(&s.SttModelID, &s.SummaryModelID, &s.Diarize, &s.TagAudioEvents,
			&s.Temperature, &s.MaxTokens)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
