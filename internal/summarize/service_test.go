package summarize

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kiroku/internal/apperr"
	"kiroku/internal/models"
	"kiroku/internal/storage"
)

type fakeGenerator struct {
	content string
	err     error
	prompts []string
	models  []string
}

func (g *fakeGenerator) Generate(ctx context.Context, model, prompt string, temperature float64, maxTokens int64) (string, string, error) {
	g.prompts = append(g.prompts, prompt)
	g.models = append(g.models, model)
	if g.err != nil {
		return "", "", g.err
	}
	return g.content, `{"id":"resp-1"}`, nil
}

type testEnv struct {
	db         *storage.DB
	recordings *storage.RecordingRepository
	jobs       *storage.JobRepository
	segments   *storage.SegmentRepository
	summaries  *storage.SummaryRepository
	settings   *storage.SettingsRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &testEnv{
		db:         db,
		recordings: storage.NewRecordingRepository(db),
		jobs:       storage.NewJobRepository(db),
		segments:   storage.NewSegmentRepository(db),
		summaries:  storage.NewSummaryRepository(db),
		settings:   storage.NewSettingsRepository(db),
	}
}

func (e *testEnv) newService(gen Generator) *Service {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	return NewService(e.recordings, e.segments, e.summaries, e.settings, gen, log)
}

// seedReadyRecording は完了ジョブとセグメントを持つreadyなレコーディングを用意
func (e *testEnv) seedReadyRecording(t *testing.T, withSegments bool) *models.Recording {
	t.Helper()
	ctx := context.Background()

	rec := &models.Recording{OwnerID: "user-1", Title: "standup", Filename: "standup.mp3"}
	require.NoError(t, e.recordings.Create(ctx, rec))

	job := &models.TranscriptionJob{RecordingID: rec.ID, Provider: "elevenlabs", Diarize: true}
	require.NoError(t, e.jobs.Create(ctx, job))
	require.NoError(t, e.jobs.MarkRunning(ctx, job.ID, nil))

	var segs []models.TranscriptSegment
	if withSegments {
		segs = []models.TranscriptSegment{
			{SpeakerID: "speaker_0", SpeakerLabel: "Speaker 1", StartMS: 0, EndMS: 900, Text: "hi there"},
			{SpeakerID: "speaker_1", SpeakerLabel: "Speaker 2", StartMS: 1000, EndMS: 1400, Text: "hello"},
		}
	}
	_, err := e.jobs.FinalizeSuccess(ctx, job.ID, nil, nil, segs)
	require.NoError(t, err)
	return rec
}

func (e *testEnv) seedDefaultTemplate(t *testing.T) *models.SummaryTemplate {
	t.Helper()
	tmpl := &models.SummaryTemplate{
		Name:      "minutes",
		Prompt:    "Summarize the meeting.\n{{instructions}}\nTranscript:\n{{transcript}}",
		IsDefault: true,
	}
	require.NoError(t, e.summaries.CreateTemplate(context.Background(), tmpl))
	return tmpl
}

func TestGenerate_Success(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	rec := env.seedReadyRecording(t, true)
	env.seedDefaultTemplate(t)

	gen := &fakeGenerator{content: "Two people greeted each other."}
	svc := env.newService(gen)

	result, err := svc.Generate(ctx, "user-1", rec.ID, Options{Instructions: "keep it short"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Version)
	assert.Equal(t, "Two people greeted each other.", result.Content)

	// プロンプトにはラベル付きの文字起こしと指示が差し込まれる
	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "Speaker 1: hi there")
	assert.Contains(t, gen.prompts[0], "Speaker 2: hello")
	assert.Contains(t, gen.prompts[0], "keep it short")
	assert.Equal(t, "gpt-5-mini", gen.models[0])

	// 再生成は新しいバージョンを追加する
	result2, err := svc.Generate(ctx, "user-1", rec.ID, Options{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), result2.Version)

	list, err := env.summaries.ListByRecording(ctx, rec.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestGenerate_NoSegmentsIsValidationError(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	rec := env.seedReadyRecording(t, false)
	env.seedDefaultTemplate(t)

	svc := env.newService(&fakeGenerator{content: "unused"})

	_, err := svc.Generate(ctx, "user-1", rec.ID, Options{})
	require.Error(t, err)
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))

	// 要約は作成されない
	list, err := env.summaries.ListByRecording(ctx, rec.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestGenerate_NoTemplateIsValidationError(t *testing.T) {
	env := newTestEnv(t)
	rec := env.seedReadyRecording(t, true)

	svc := env.newService(&fakeGenerator{content: "unused"})

	_, err := svc.Generate(context.Background(), "user-1", rec.ID, Options{})
	require.Error(t, err)
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))
}

func TestGenerate_ExplicitTemplateNotFound(t *testing.T) {
	env := newTestEnv(t)
	rec := env.seedReadyRecording(t, true)
	env.seedDefaultTemplate(t)

	svc := env.newService(&fakeGenerator{content: "unused"})

	_, err := svc.Generate(context.Background(), "user-1", rec.ID, Options{TemplateID: "no-such-template"})
	require.Error(t, err)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

func TestGenerate_RecordingNotReady(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	rec := &models.Recording{OwnerID: "user-1", Title: "standup", Filename: "standup.mp3"}
	require.NoError(t, env.recordings.Create(ctx, rec))
	env.seedDefaultTemplate(t)

	svc := env.newService(&fakeGenerator{content: "unused"})

	_, err := svc.Generate(ctx, "user-1", rec.ID, Options{})
	require.Error(t, err)
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))
}

func TestGenerate_UpstreamFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	rec := env.seedReadyRecording(t, true)
	env.seedDefaultTemplate(t)

	svc := env.newService(&fakeGenerator{err: apperr.NewUpstream(429, "rate limited")})

	_, err := svc.Generate(ctx, "user-1", rec.ID, Options{})
	require.Error(t, err)
	assert.Equal(t, apperr.Upstream, apperr.KindOf(err))

	list, err := env.summaries.ListByRecording(ctx, rec.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestGenerate_ExplicitModelOverridesDefault(t *testing.T) {
	env := newTestEnv(t)
	rec := env.seedReadyRecording(t, true)
	env.seedDefaultTemplate(t)

	gen := &fakeGenerator{content: "ok"}
	svc := env.newService(gen)

	_, err := svc.Generate(context.Background(), "user-1", rec.ID, Options{ModelID: "gpt-5"})
	require.NoError(t, err)
	assert.Equal(t, "gpt-5", gen.models[0])
}
