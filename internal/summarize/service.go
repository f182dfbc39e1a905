// Package summarize generates versioned summaries from a recording's
// transcript. Summaries are immutable; regenerating a summary appends the
// next version rather than overwriting.
package summarize

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"kiroku/internal/apperr"
	"kiroku/internal/models"
	"kiroku/internal/storage"
)

// プロンプトテンプレートの差し込み位置
const (
	placeholderTranscript   = "{{transcript}}"
	placeholderInstructions = "{{instructions}}"
)

// Options は要約生成リクエストの指定項目
type Options struct {
	TemplateID   string `json:"template_id,omitempty"`
	ModelID      string `json:"model_id,omitempty"`
	Instructions string `json:"instructions,omitempty"`
}

// Result は生成された要約
type Result struct {
	SummaryID string `json:"summary_id"`
	Version   int64  `json:"version"`
	Content   string `json:"content"`
}

// Service は要約の生成と永続化を行う
type Service struct {
	recordings *storage.RecordingRepository
	segments   *storage.SegmentRepository
	summaries  *storage.SummaryRepository
	settings   *storage.SettingsRepository
	gen        Generator
	log        *logrus.Logger
}

// NewService は新しいServiceを作成
func NewService(
	recordings *storage.RecordingRepository,
	segments *storage.SegmentRepository,
	summaries *storage.SummaryRepository,
	settings *storage.SettingsRepository,
	gen Generator,
	log *logrus.Logger,
) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{
		recordings: recordings,
		segments:   segments,
		summaries:  summaries,
		settings:   settings,
		gen:        gen,
		log:        log,
	}
}

// Generate はレコーディングの文字起こしから新しいバージョンの要約を作成する
func (s *Service) Generate(ctx context.Context, ownerID, recordingID string, opts Options) (*Result, error) {
	rec, err := s.recordings.GetByIDForOwner(ctx, recordingID, ownerID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "failed to load recording")
	}
	if rec == nil {
		return nil, apperr.New(apperr.NotFound, "recording not found")
	}
	if rec.Status != models.RecordingStatusReady {
		return nil, apperr.New(apperr.Validation, "recording is not ready (status: %s)", rec.Status)
	}

	tmpl, err := s.resolveTemplate(ctx, opts.TemplateID)
	if err != nil {
		return nil, err
	}

	segments, err := s.segments.ListByRecording(ctx, rec.ID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "failed to load segments")
	}
	if len(segments) == 0 {
		return nil, apperr.New(apperr.Validation, "recording has no transcript segments")
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "failed to load settings")
	}
	model := opts.ModelID
	if model == "" {
		model = settings.SummaryModelID
	}

	prompt := renderPrompt(tmpl.Prompt, segments, opts.Instructions)

	content, raw, err := s.gen.Generate(ctx, model, prompt, settings.Temperature, settings.MaxTokens)
	if err != nil {
		return nil, err
	}

	summary := &models.Summary{
		RecordingID: rec.ID,
		TemplateID:  &tmpl.ID,
		Model:       model,
		Content:     content,
	}
	if raw != "" {
		summary.RawResponse = &raw
	}
	if err := s.summaries.CreateNextVersion(ctx, summary); err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "failed to persist summary")
	}

	s.log.WithFields(logrus.Fields{
		"recording_id": rec.ID,
		"version":      summary.Version,
		"model":        model,
	}).Info("summary generated")

	return &Result{SummaryID: summary.ID, Version: summary.Version, Content: content}, nil
}

// resolveTemplate は明示指定→デフォルトの順でテンプレートを決める
func (s *Service) resolveTemplate(ctx context.Context, templateID string) (*models.SummaryTemplate, error) {
	if templateID != "" {
		tmpl, err := s.summaries.GetTemplate(ctx, templateID)
		if err != nil {
			return nil, apperr.Wrap(apperr.Internal, err, "failed to load template")
		}
		if tmpl == nil {
			return nil, apperr.New(apperr.NotFound, "template not found")
		}
		return tmpl, nil
	}

	tmpl, err := s.summaries.GetDefaultTemplate(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "failed to load default template")
	}
	if tmpl == nil {
		return nil, apperr.New(apperr.Validation, "no usable summary template")
	}
	return tmpl, nil
}

// renderPrompt はテンプレートに文字起こしと追加指示を差し込む
func renderPrompt(tmpl string, segments []models.TranscriptSegment, instructions string) string {
	var b strings.Builder
	for _, seg := range segments {
		fmt.Fprintf(&b, "%s: %s\n", seg.SpeakerLabel, seg.Text)
	}
	prompt := strings.ReplaceAll(tmpl, placeholderTranscript, b.String())
	return strings.ReplaceAll(prompt, placeholderInstructions, instructions)
}
