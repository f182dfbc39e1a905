package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"kiroku/internal/models"
)

// SummaryRepository は要約と要約テンプレートのデータアクセス層
type SummaryRepository struct {
	db *DB
}

// NewSummaryRepository は新しいSummaryRepositoryを作成
func NewSummaryRepository(db *DB) *SummaryRepository {
	return &SummaryRepository{db: db}
}

// CreateNextVersion は次のバージョン番号で要約を作成する
// バージョンの採番と挿入は単一のINSERT文で行うため、同一レコーディングへの
// 並行生成でも番号の重複や欠落は起きない
func (r *SummaryRepository) CreateNextVersion(ctx context.Context, s *models.Summary) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	s.CreatedAt = time.Now()

	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO summaries (id, recording_id, version, template_id, model, content, raw_response, created_at)
			 SELECT ?, ?, COALESCE(MAX(version), 0) + 1, ?, ?, ?, ?, ?
			 FROM summaries WHERE recording_id = ?`,
			s.ID, s.RecordingID, s.TemplateID, s.Model, s.Content, s.RawResponse,
			s.CreatedAt, s.RecordingID); err != nil {
			return err
		}
		return tx.QueryRowContext(ctx,
			`SELECT version FROM summaries WHERE id = ?`, s.ID).Scan(&s.Version)
	})
}

// ListByRecording はレコーディングの要約一覧をバージョン順で取得
func (r *SummaryRepository) ListByRecording(ctx context.Context, recordingID string) ([]models.Summary, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, recording_id, version, template_id, model, content, raw_response, created_at
		 FROM summaries WHERE recording_id = ? ORDER BY version`, recordingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []models.Summary
	for rows.Next() {
		var s models.Summary
		if err := rows.Scan(&s.ID, &s.RecordingID, &s.Version, &s.TemplateID,
			&s.Model, &s.Content, &s.RawResponse, &s.CreatedAt); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

const templateColumns = `id, name, prompt, is_default, created_at, updated_at`

func scanTemplate(row interface{ Scan(...any) error }) (*models.SummaryTemplate, error) {
	var t models.SummaryTemplate
	err := row.Scan(&t.ID, &t.Name, &t.Prompt, &t.IsDefault, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetTemplate はIDで要約テンプレートを取得
func (r *SummaryRepository) GetTemplate(ctx context.Context, id string) (*models.SummaryTemplate, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+templateColumns+` FROM summary_templates WHERE id = ?`, id)
	return scanTemplate(row)
}

// GetDefaultTemplate はデフォルトの要約テンプレートを取得
func (r *SummaryRepository) GetDefaultTemplate(ctx context.Context) (*models.SummaryTemplate, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+templateColumns+` FROM summary_templates WHERE is_default = 1 LIMIT 1`)
	return scanTemplate(row)
}

// CreateTemplate は新しい要約テンプレートを作成
func (r *SummaryRepository) CreateTemplate(ctx context.Context, t *models.SummaryTemplate) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO summary_templates (`+templateColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.Name, t.Prompt, t.IsDefault, t.CreatedAt, t.UpdatedAt)
	return err
}
