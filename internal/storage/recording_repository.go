package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"kiroku/internal/models"
)

// RecordingRepository はレコーディングのデータアクセス層
type RecordingRepository struct {
	db *DB
}

// NewRecordingRepository は新しいRecordingRepositoryを作成
func NewRecordingRepository(db *DB) *RecordingRepository {
	return &RecordingRepository{db: db}
}

const recordingColumns = `id, owner_id, title, filename, storage_path, mime_type, duration_ms, status, created_at, updated_at`

func scanRecording(row interface{ Scan(...any) error }) (*models.Recording, error) {
	var r models.Recording
	err := row.Scan(&r.ID, &r.OwnerID, &r.Title, &r.Filename, &r.StoragePath,
		&r.MimeType, &r.DurationMS, &r.Status, &r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Create は新しいレコーディングを作成
func (r *RecordingRepository) Create(ctx context.Context, rec *models.Recording) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	now := time.Now()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	if rec.Status == "" {
		rec.Status = models.RecordingStatusUploaded
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO recordings (`+recordingColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.OwnerID, rec.Title, rec.Filename, rec.StoragePath,
		rec.MimeType, rec.DurationMS, rec.Status, rec.CreatedAt, rec.UpdatedAt)
	return err
}

// GetByID はIDでレコーディングを取得
func (r *RecordingRepository) GetByID(ctx context.Context, id string) (*models.Recording, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+recordingColumns+` FROM recordings WHERE id = ?`, id)
	return scanRecording(row)
}

// GetByIDForOwner はIDと所有者でレコーディングを取得
// 所有者が一致しない場合は存在しないものとして扱う
func (r *RecordingRepository) GetByIDForOwner(ctx context.Context, id, ownerID string) (*models.Recording, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+recordingColumns+` FROM recordings WHERE id = ? AND owner_id = ?`, id, ownerID)
	return scanRecording(row)
}

// ListByOwner は所有者のレコーディング一覧を取得
func (r *RecordingRepository) ListByOwner(ctx context.Context, ownerID string, limit int) ([]models.Recording, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+recordingColumns+` FROM recordings WHERE owner_id = ? ORDER BY created_at DESC LIMIT ?`,
		ownerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []models.Recording
	for rows.Next() {
		rec, err := scanRecording(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, *rec)
	}
	return recs, rows.Err()
}

// Delete はレコーディングを削除
// ジョブ・セグメント・要約は外部キーで連動して消える
func (r *RecordingRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM recordings WHERE id = ?`, id)
	return err
}
