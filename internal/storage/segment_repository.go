package storage

import (
	"context"

	"kiroku/internal/models"
)

// SegmentRepository はトランスクリプトセグメントのデータアクセス層
type SegmentRepository struct {
	db *DB
}

// NewSegmentRepository は新しいSegmentRepositoryを作成
func NewSegmentRepository(db *DB) *SegmentRepository {
	return &SegmentRepository{db: db}
}

const segmentColumns = `id, recording_id, job_id, speaker_id, speaker_label, start_ms, end_ms, text, metadata, created_at`

func (r *SegmentRepository) list(ctx context.Context, query string, args ...any) ([]models.TranscriptSegment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var segs []models.TranscriptSegment
	for rows.Next() {
		var s models.TranscriptSegment
		if err := rows.Scan(&s.ID, &s.RecordingID, &s.JobID, &s.SpeakerID, &s.SpeakerLabel,
			&s.StartMS, &s.EndMS, &s.Text, &s.Metadata, &s.CreatedAt); err != nil {
			return nil, err
		}
		segs = append(segs, s)
	}
	return segs, rows.Err()
}

// ListByJob はジョブのセグメント一覧を開始時刻順で取得
func (r *SegmentRepository) ListByJob(ctx context.Context, jobID string) ([]models.TranscriptSegment, error) {
	return r.list(ctx,
		`SELECT `+segmentColumns+` FROM transcript_segments WHERE job_id = ? ORDER BY start_ms`, jobID)
}

// ListByRecording はレコーディングのセグメント一覧を開始時刻順で取得
func (r *SegmentRepository) ListByRecording(ctx context.Context, recordingID string) ([]models.TranscriptSegment, error) {
	return r.list(ctx,
		`SELECT `+segmentColumns+` FROM transcript_segments WHERE recording_id = ? ORDER BY start_ms`, recordingID)
}

// RenameSpeaker は同一話者IDのセグメントの表示ラベルを一括更新する
// 話者IDはジョブをまたいで安定しないため、ジョブ単位でのみ適用する
func (r *SegmentRepository) RenameSpeaker(ctx context.Context, jobID, speakerID, label string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transcript_segments SET speaker_label = ? WHERE job_id = ? AND speaker_id = ?`,
		label, jobID, speakerID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CountByJob はジョブのセグメント数を取得
func (r *SegmentRepository) CountByJob(ctx context.Context, jobID string) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transcript_segments WHERE job_id = ?`, jobID).Scan(&n)
	return n, err
}
