package transcription

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"kiroku/internal/apperr"
	"kiroku/internal/models"
	"kiroku/internal/scribe"
	"kiroku/internal/storage"
)

// Gateway は音声認識プロバイダへの送信口
type Gateway interface {
	Transcribe(ctx context.Context, req scribe.Request) (*scribe.Transcript, error)
	TranscribeAsync(ctx context.Context, req scribe.Request) (*scribe.AsyncReceipt, error)
}

// URLSigner はプロバイダに渡す期限付きメディアURLの発行口
type URLSigner interface {
	SignedURL(recordingID string, now time.Time) (string, error)
}

// Options は文字起こしリクエストの指定項目
// 未指定の項目はプロセス全体のデフォルト設定で補完される
type Options struct {
	LanguageCode   string `json:"language_code,omitempty"`
	Diarize        *bool  `json:"diarize,omitempty"`
	TagAudioEvents *bool  `json:"tag_audio_events,omitempty"`
	ModelID        string `json:"model_id,omitempty"`
}

// SubmitResult は送信呼び出しの結果
type SubmitResult struct {
	JobID         string  `json:"job_id"`
	ProviderJobID *string `json:"provider_job_id,omitempty"`
	Status        string  `json:"status"`
}

// CallbackResult はプロバイダのWebhookが届けた結果
type CallbackResult struct {
	Transcript *scribe.Transcript
	Error      string
}

// Service はジョブの送信から終了状態までを駆動する
type Service struct {
	recordings *storage.RecordingRepository
	jobs       *storage.JobRepository
	settings   *storage.SettingsRepository
	gateway    Gateway
	signer     URLSigner
	leases     *Leases
	log        *logrus.Logger
	useWebhook bool
}

// NewService は新しいServiceを作成
func NewService(
	recordings *storage.RecordingRepository,
	jobs *storage.JobRepository,
	settings *storage.SettingsRepository,
	gateway Gateway,
	signer URLSigner,
	useWebhook bool,
	log *logrus.Logger,
) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{
		recordings: recordings,
		jobs:       jobs,
		settings:   settings,
		gateway:    gateway,
		signer:     signer,
		leases:     NewLeases(),
		log:        log,
		useWebhook: useWebhook,
	}
}

// Submit はレコーディングの文字起こしジョブを作成しプロバイダへ送信する
// 同期モードでは応答をその場で確定し、Webhookモードでは受付のみ行う
func (s *Service) Submit(ctx context.Context, ownerID, recordingID string, opts Options) (*SubmitResult, error) {
	rec, err := s.recordings.GetByIDForOwner(ctx, recordingID, ownerID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "failed to load recording")
	}
	if rec == nil {
		return nil, apperr.New(apperr.NotFound, "recording not found")
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "failed to load settings")
	}
	eff := resolveOptions(opts, settings)

	if !CanRecordingTransition(rec.Status, models.RecordingStatusTranscribing) {
		return nil, apperr.New(apperr.Validation, "transcription already in progress")
	}

	// 同一レコーディングへの同時送信を1回に制限する
	if !s.leases.Acquire(rec.ID) {
		return nil, apperr.New(apperr.Validation, "transcription already in progress")
	}
	keepLease := false
	defer func() {
		if !keepLease {
			s.leases.Release(rec.ID)
		}
	}()

	// プロセス再起動をまたぐ重複はDB側の未終了ジョブ数で防ぐ
	active, err := s.jobs.CountActive(ctx, rec.ID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "failed to check active jobs")
	}
	if active > 0 {
		return nil, apperr.New(apperr.Validation, "transcription already in progress")
	}

	job := &models.TranscriptionJob{
		RecordingID:  rec.ID,
		Provider:     scribe.ProviderName,
		ModelID:      eff.ModelID,
		LanguageCode: eff.LanguageCode,
		Diarize:      eff.Diarize,
	}
	// ジョブ作成とレコーディングの遷移は1トランザクション。
	// どちらか片方だけ書かれた中途半端な状態を残さない
	if err := s.jobs.Enqueue(ctx, job); err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "failed to enqueue job")
	}

	log := s.log.WithFields(logrus.Fields{
		"recording_id": rec.ID,
		"job_id":       job.ID,
		"model":        eff.ModelID,
	})

	mediaURL, err := s.signer.SignedURL(rec.ID, time.Now())
	if err != nil {
		// 署名URLが作れないと試行は続行できない
		s.failJob(ctx, job.ID, "could not create signed URL: "+err.Error())
		return nil, err
	}

	if err := s.jobs.MarkRunning(ctx, job.ID, nil); err != nil {
		s.failJob(ctx, job.ID, "failed to start job: "+err.Error())
		return nil, apperr.Wrap(apperr.Internal, err, "failed to start job")
	}

	req := scribe.Request{
		MediaURL:       mediaURL,
		ModelID:        eff.ModelID,
		Diarize:        eff.Diarize,
		TagAudioEvents: eff.TagAudioEvents,
		LanguageCode:   eff.LanguageCode,
	}

	if s.useWebhook {
		receipt, err := s.gateway.TranscribeAsync(ctx, req)
		if err != nil {
			s.failJob(ctx, job.ID, err.Error())
			return nil, err
		}
		if err := s.jobs.SetProviderJobID(ctx, job.ID, receipt.RequestID); err != nil {
			log.WithError(err).Error("failed to record provider job id")
		}
		// 結果はWebhookで届く。リースは終了状態で解放する
		keepLease = true
		log.WithField("provider_job_id", receipt.RequestID).Info("transcription accepted")
		return &SubmitResult{
			JobID:         job.ID,
			ProviderJobID: &receipt.RequestID,
			Status:        models.JobStatusRunning,
		}, nil
	}

	transcript, err := s.gateway.Transcribe(ctx, req)
	if err != nil {
		s.failJob(ctx, job.ID, err.Error())
		return nil, err
	}

	if err := s.finalizeSuccess(ctx, job.ID, transcript, eff.Diarize); err != nil {
		return nil, err
	}
	log.Info("transcription completed")
	return &SubmitResult{JobID: job.ID, Status: models.JobStatusCompleted}, nil
}

// ProcessCallback はプロバイダのWebhookが届けた結果を確定する
// ジョブが既に終了状態なら何もしない（重複配信に対して冪等）
func (s *Service) ProcessCallback(ctx context.Context, jobID string, result CallbackResult) error {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return apperr.Wrap(apperr.Internal, err, "failed to load job")
	}
	if job == nil {
		return apperr.New(apperr.NotFound, "job not found")
	}
	if job.IsTerminal() {
		s.log.WithField("job_id", jobID).Info("callback for terminal job ignored")
		return nil
	}

	defer s.leases.Release(job.RecordingID)

	if result.Error != "" {
		s.failJob(ctx, jobID, result.Error)
		return nil
	}
	if result.Transcript == nil {
		return apperr.New(apperr.Validation, "callback carries neither transcript nor error")
	}
	return s.finalizeSuccess(ctx, jobID, result.Transcript, job.Diarize)
}

// finalizeSuccess はセグメント構築と状態確定を1トランザクションで行う
func (s *Service) finalizeSuccess(ctx context.Context, jobID string, transcript *scribe.Transcript, diarize bool) error {
	duration := transcriptDurationMS(transcript)
	var durationForBuild int64
	if duration != nil {
		durationForBuild = *duration
	}
	segments := BuildSegments(WordsFromTranscript(transcript), diarize, transcript.Text, durationForBuild)

	modelSegments := make([]models.TranscriptSegment, len(segments))
	for i, seg := range segments {
		modelSegments[i] = models.TranscriptSegment{
			SpeakerID:    seg.SpeakerID,
			SpeakerLabel: seg.SpeakerLabel,
			StartMS:      seg.StartMS,
			EndMS:        seg.EndMS,
			Text:         seg.Text,
		}
	}

	var raw *string
	if data, err := json.Marshal(transcript); err == nil {
		str := string(data)
		raw = &str
	}

	applied, err := s.jobs.FinalizeSuccess(ctx, jobID, raw, duration, modelSegments)
	if err != nil {
		return apperr.Wrap(apperr.Internal, err, "failed to finalize job")
	}
	if !applied {
		s.log.WithField("job_id", jobID).Info("job already finalized")
	}
	return nil
}

// failJob はジョブと所属レコーディングを失敗状態にする
// 失敗の記録自体が失敗した場合はログに残すことしかできない
func (s *Service) failJob(ctx context.Context, jobID, message string) {
	if _, err := s.jobs.FinalizeFailure(ctx, jobID, message, nil); err != nil {
		s.log.WithError(err).WithField("job_id", jobID).Error("failed to record job failure")
	}
}

type effectiveOptions struct {
	LanguageCode   string
	Diarize        bool
	TagAudioEvents bool
	ModelID        string
}

// resolveOptions はリクエスト指定→デフォルト設定の順で実効値を決める
func resolveOptions(opts Options, settings *models.Settings) effectiveOptions {
	eff := effectiveOptions{
		LanguageCode:   opts.LanguageCode,
		Diarize:        settings.Diarize,
		TagAudioEvents: settings.TagAudioEvents,
		ModelID:        settings.SttModelID,
	}
	if opts.Diarize != nil {
		eff.Diarize = *opts.Diarize
	}
	if opts.TagAudioEvents != nil {
		eff.TagAudioEvents = *opts.TagAudioEvents
	}
	if opts.ModelID != "" {
		eff.ModelID = opts.ModelID
	}
	return eff
}

// transcriptDurationMS は全体の長さを求める
// プロバイダが申告しない場合は最後の単語の終了時刻で代用する
func transcriptDurationMS(t *scribe.Transcript) *int64 {
	if t.DurationSeconds != nil {
		ms := int64(math.Round(*t.DurationSeconds * 1000))
		return &ms
	}
	for i := len(t.Words) - 1; i >= 0; i-- {
		if t.Words[i].End > 0 {
			ms := int64(math.Round(t.Words[i].End * 1000))
			return &ms
		}
	}
	return nil
}
