package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"kiroku/internal/models"
)

// JobRepository は文字起こしジョブのデータアクセス層
type JobRepository struct {
	db *DB
}

// NewJobRepository は新しいJobRepositoryを作成
func NewJobRepository(db *DB) *JobRepository {
	return &JobRepository{db: db}
}

const jobColumns = `id, recording_id, provider, provider_job_id, model_id, language_code, diarize, status, error, raw_response, created_at, updated_at`

func scanJob(row interface{ Scan(...any) error }) (*models.TranscriptionJob, error) {
	var j models.TranscriptionJob
	err := row.Scan(&j.ID, &j.RecordingID, &j.Provider, &j.ProviderJobID, &j.ModelID,
		&j.LanguageCode, &j.Diarize, &j.Status, &j.Error, &j.RawResponse,
		&j.CreatedAt, &j.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &j, nil
}

// Create は新しいジョブを作成
func (r *JobRepository) Create(ctx context.Context, job *models.TranscriptionJob) error {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	now := time.Now()
	job.CreatedAt = now
	job.UpdatedAt = now
	if job.Status == "" {
		job.Status = models.JobStatusQueued
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transcription_jobs (`+jobColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.RecordingID, job.Provider, job.ProviderJobID, job.ModelID,
		job.LanguageCode, job.Diarize, job.Status, job.Error, job.RawResponse,
		job.CreatedAt, job.UpdatedAt)
	return err
}

// Enqueue はジョブ作成とレコーディングの transcribing 遷移を
// 1トランザクションで行う。途中で失敗した場合はどちらの書き込みも残らず、
// レコーディングが遷移済みのままジョブだけ欠ける状態にはならない
func (r *JobRepository) Enqueue(ctx context.Context, job *models.TranscriptionJob) error {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	now := time.Now()
	job.CreatedAt = now
	job.UpdatedAt = now
	if job.Status == "" {
		job.Status = models.JobStatusQueued
	}

	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO transcription_jobs (`+jobColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			job.ID, job.RecordingID, job.Provider, job.ProviderJobID, job.ModelID,
			job.LanguageCode, job.Diarize, job.Status, job.Error, job.RawResponse,
			job.CreatedAt, job.UpdatedAt); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`UPDATE recordings SET status = ?, updated_at = ? WHERE id = ?`,
			models.RecordingStatusTranscribing, now, job.RecordingID)
		return err
	})
}

// GetByID はIDでジョブを取得
func (r *JobRepository) GetByID(ctx context.Context, id string) (*models.TranscriptionJob, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM transcription_jobs WHERE id = ?`, id)
	return scanJob(row)
}

// MarkRunning はジョブを実行中に遷移させる
// 終了状態のジョブは変更しない（ステータスは単調にのみ進む）
func (r *JobRepository) MarkRunning(ctx context.Context, id string, providerJobID *string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE transcription_jobs
		 SET status = ?, provider_job_id = COALESCE(?, provider_job_id), updated_at = ?
		 WHERE id = ? AND status = ?`,
		models.JobStatusRunning, providerJobID, time.Now(), id, models.JobStatusQueued)
	return err
}

// SetProviderJobID はプロバイダ採番のジョブIDを記録する
func (r *JobRepository) SetProviderJobID(ctx context.Context, id, providerJobID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE transcription_jobs SET provider_job_id = ?, updated_at = ? WHERE id = ?`,
		providerJobID, time.Now(), id)
	return err
}

// CountActive はレコーディングの未終了ジョブ数を取得
func (r *JobRepository) CountActive(ctx context.Context, recordingID string) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transcription_jobs
		 WHERE recording_id = ? AND status IN (?, ?)`,
		recordingID, models.JobStatusQueued, models.JobStatusRunning).Scan(&n)
	return n, err
}

// GetLatestCompletedByRecording はレコーディングの直近の完了ジョブを取得
func (r *JobRepository) GetLatestCompletedByRecording(ctx context.Context, recordingID string) (*models.TranscriptionJob, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM transcription_jobs
		 WHERE recording_id = ? AND status = ?
		 ORDER BY created_at DESC LIMIT 1`,
		recordingID, models.JobStatusCompleted)
	return scanJob(row)
}

// ListByRecording はレコーディングのジョブ一覧を取得（新しい順）
func (r *JobRepository) ListByRecording(ctx context.Context, recordingID string) ([]models.TranscriptionJob, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+jobColumns+` FROM transcription_jobs
		 WHERE recording_id = ? ORDER BY created_at DESC`, recordingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []models.TranscriptionJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

// FinalizeSuccess はジョブ完了を1トランザクションで確定する:
// 旧ジョブのセグメント削除 → セグメント挿入 → ジョブ completed →
// レコーディング ready（duration反映）。
// ジョブが既に終了状態の場合は何もせず applied=false を返す（コールバックの
// 重複配信に対して冪等）。セグメントはジョブの終了ステータスより先に書かれる
// ため、completed を観測した読み手は必ずセグメントを見つけられる。
// 旧セグメントを同一トランザクションで消すことで、レコーディング単位の
// 読み取りは常に直近の完了ジョブ1件分だけを返す。
func (r *JobRepository) FinalizeSuccess(ctx context.Context, jobID string, rawResponse *string, durationMS *int64, segments []models.TranscriptSegment) (applied bool, err error) {
	err = r.db.withTx(ctx, func(tx *sql.Tx) error {
		var status, recordingID string
		if err := tx.QueryRowContext(ctx,
			`SELECT status, recording_id FROM transcription_jobs WHERE id = ?`,
			jobID).Scan(&status, &recordingID); err != nil {
			return err
		}
		if status == models.JobStatusCompleted || status == models.JobStatusFailed {
			return nil // already terminal
		}

		// 再文字起こしで置き換えられた過去のトランスクリプトを消す
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM transcript_segments WHERE recording_id = ?`, recordingID); err != nil {
			return err
		}

		now := time.Now()
		for i := range segments {
			seg := &segments[i]
			if seg.ID == "" {
				seg.ID = uuid.New().String()
			}
			seg.RecordingID = recordingID
			seg.JobID = jobID
			seg.CreatedAt = now
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO transcript_segments (id, recording_id, job_id, speaker_id, speaker_label, start_ms, end_ms, text, metadata, created_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				seg.ID, seg.RecordingID, seg.JobID, seg.SpeakerID, seg.SpeakerLabel,
				seg.StartMS, seg.EndMS, seg.Text, seg.Metadata, seg.CreatedAt); err != nil {
				return err
			}
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE transcription_jobs
			 SET status = ?, error = NULL, raw_response = ?, updated_at = ?
			 WHERE id = ?`,
			models.JobStatusCompleted, rawResponse, now, jobID); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE recordings
			 SET status = ?, duration_ms = COALESCE(?, duration_ms), updated_at = ?
			 WHERE id = ?`,
			models.RecordingStatusReady, durationMS, now, recordingID); err != nil {
			return err
		}

		applied = true
		return nil
	})
	return applied, err
}

// FinalizeFailure はジョブ失敗を1トランザクションで確定する:
// ジョブ failed（エラー文言を記録）→ レコーディング failed。
// ジョブが既に終了状態の場合は何もせず applied=false を返す
func (r *JobRepository) FinalizeFailure(ctx context.Context, jobID, errorMsg string, rawResponse *string) (applied bool, err error) {
	err = r.db.withTx(ctx, func(tx *sql.Tx) error {
		var status, recordingID string
		if err := tx.QueryRowContext(ctx,
			`SELECT status, recording_id FROM transcription_jobs WHERE id = ?`,
			jobID).Scan(&status, &recordingID); err != nil {
			return err
		}
		if status == models.JobStatusCompleted || status == models.JobStatusFailed {
			return nil
		}

		now := time.Now()
		if _, err := tx.ExecContext(ctx,
			`UPDATE transcription_jobs
			 SET status = ?, error = ?, raw_response = COALESCE(?, raw_response), updated_at = ?
			 WHERE id = ?`,
			models.JobStatusFailed, errorMsg, rawResponse, now, jobID); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE recordings SET status = ?, updated_at = ? WHERE id = ?`,
			models.RecordingStatusFailed, now, recordingID); err != nil {
			return err
		}

		applied = true
		return nil
	})
	return applied, err
}
