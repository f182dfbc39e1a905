package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"kiroku/internal/apperr"
	"kiroku/internal/models"
	"kiroku/internal/storage"
	"kiroku/internal/transcription"
)

// RecordingHandler はレコーディングAPIのハンドラー
type RecordingHandler struct {
	recordings *storage.RecordingRepository
	jobs       *storage.JobRepository
	segments   *storage.SegmentRepository
}

// NewRecordingHandler は新しいRecordingHandlerを作成
func NewRecordingHandler(recordings *storage.RecordingRepository, jobs *storage.JobRepository, segments *storage.SegmentRepository) *RecordingHandler {
	return &RecordingHandler{recordings: recordings, jobs: jobs, segments: segments}
}

type createRecordingRequest struct {
	Title       string `json:"title"`
	Filename    string `json:"filename"`
	StoragePath string `json:"storage_path"`
	MimeType    string `json:"mime_type"`
}

// Create はアップロード済みメディアのレコーディングを登録
// ファイル転送そのものは外部のアップロード基盤が担当する
func (h *RecordingHandler) Create(c echo.Context) error {
	owner, err := ownerID(c)
	if err != nil {
		return errorJSON(c, err)
	}

	var req createRecordingRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, apperr.New(apperr.Validation, "invalid request body"))
	}
	if req.Filename == "" {
		return errorJSON(c, apperr.New(apperr.Validation, "filename is required"))
	}
	if req.Title == "" {
		req.Title = req.Filename
	}

	rec := &models.Recording{
		OwnerID:     owner,
		Title:       req.Title,
		Filename:    req.Filename,
		StoragePath: req.StoragePath,
		MimeType:    req.MimeType,
	}
	if err := h.recordings.Create(c.Request().Context(), rec); err != nil {
		return errorJSON(c, apperr.Wrap(apperr.Internal, err, "failed to create recording"))
	}

	return c.JSON(http.StatusCreated, rec)
}

// List はレコーディング一覧を取得
func (h *RecordingHandler) List(c echo.Context) error {
	owner, err := ownerID(c)
	if err != nil {
		return errorJSON(c, err)
	}

	recs, err := h.recordings.ListByOwner(c.Request().Context(), owner, listLimit(c.QueryParam("limit")))
	if err != nil {
		return errorJSON(c, apperr.Wrap(apperr.Internal, err, "failed to list recordings"))
	}
	return c.JSON(http.StatusOK, recs)
}

// listLimit は limit パラメータを正の範囲に丸める
// SQLiteでは負のLIMITが無制限を意味するため、そのまま渡さない
func listLimit(raw string) int {
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 50
	}
	if limit > 200 {
		return 200
	}
	return limit
}

// Get はレコーディングを取得
func (h *RecordingHandler) Get(c echo.Context) error {
	owner, err := ownerID(c)
	if err != nil {
		return errorJSON(c, err)
	}

	rec, err := h.recordings.GetByIDForOwner(c.Request().Context(), c.Param("id"), owner)
	if err != nil {
		return errorJSON(c, apperr.Wrap(apperr.Internal, err, "failed to load recording"))
	}
	if rec == nil {
		return errorJSON(c, apperr.New(apperr.NotFound, "recording not found"))
	}
	return c.JSON(http.StatusOK, rec)
}

// Delete はレコーディングを削除する
// ジョブ・セグメント・要約も連動して消える
func (h *RecordingHandler) Delete(c echo.Context) error {
	owner, err := ownerID(c)
	if err != nil {
		return errorJSON(c, err)
	}
	ctx := c.Request().Context()

	rec, err := h.recordings.GetByIDForOwner(ctx, c.Param("id"), owner)
	if err != nil {
		return errorJSON(c, apperr.Wrap(apperr.Internal, err, "failed to load recording"))
	}
	if rec == nil {
		return errorJSON(c, apperr.New(apperr.NotFound, "recording not found"))
	}

	if err := h.recordings.Delete(ctx, rec.ID); err != nil {
		return errorJSON(c, apperr.Wrap(apperr.Internal, err, "failed to delete recording"))
	}
	return c.NoContent(http.StatusNoContent)
}

// Segments はレコーディングのトランスクリプトを開始時刻順で取得
func (h *RecordingHandler) Segments(c echo.Context) error {
	owner, err := ownerID(c)
	if err != nil {
		return errorJSON(c, err)
	}
	ctx := c.Request().Context()

	rec, err := h.recordings.GetByIDForOwner(ctx, c.Param("id"), owner)
	if err != nil {
		return errorJSON(c, apperr.Wrap(apperr.Internal, err, "failed to load recording"))
	}
	if rec == nil {
		return errorJSON(c, apperr.New(apperr.NotFound, "recording not found"))
	}

	segs, err := h.segments.ListByRecording(ctx, rec.ID)
	if err != nil {
		return errorJSON(c, apperr.Wrap(apperr.Internal, err, "failed to load segments"))
	}
	return c.JSON(http.StatusOK, segs)
}

// Transcript はトランスクリプトを指定フォーマットでエクスポート
// format=srt|text|json（デフォルト: json）
func (h *RecordingHandler) Transcript(c echo.Context) error {
	owner, err := ownerID(c)
	if err != nil {
		return errorJSON(c, err)
	}
	ctx := c.Request().Context()

	rec, err := h.recordings.GetByIDForOwner(ctx, c.Param("id"), owner)
	if err != nil {
		return errorJSON(c, apperr.Wrap(apperr.Internal, err, "failed to load recording"))
	}
	if rec == nil {
		return errorJSON(c, apperr.New(apperr.NotFound, "recording not found"))
	}

	segs, err := h.segments.ListByRecording(ctx, rec.ID)
	if err != nil {
		return errorJSON(c, apperr.Wrap(apperr.Internal, err, "failed to load segments"))
	}

	switch c.QueryParam("format") {
	case "srt":
		return c.Blob(http.StatusOK, "application/x-subrip", []byte(transcription.FormatSRT(segs)))
	case "text":
		return c.String(http.StatusOK, transcription.FormatText(segs))
	default:
		return c.JSON(http.StatusOK, segs)
	}
}

type renameSpeakerRequest struct {
	Label string `json:"label"`
}

// RenameSpeaker は話者ラベルを一括変更する
// 話者IDはジョブをまたいで安定しないため、直近の完了ジョブにのみ適用する
func (h *RecordingHandler) RenameSpeaker(c echo.Context) error {
	owner, err := ownerID(c)
	if err != nil {
		return errorJSON(c, err)
	}
	ctx := c.Request().Context()

	rec, err := h.recordings.GetByIDForOwner(ctx, c.Param("id"), owner)
	if err != nil {
		return errorJSON(c, apperr.Wrap(apperr.Internal, err, "failed to load recording"))
	}
	if rec == nil {
		return errorJSON(c, apperr.New(apperr.NotFound, "recording not found"))
	}

	var req renameSpeakerRequest
	if err := c.Bind(&req); err != nil || req.Label == "" {
		return errorJSON(c, apperr.New(apperr.Validation, "label is required"))
	}

	job, err := h.jobs.GetLatestCompletedByRecording(ctx, rec.ID)
	if err != nil {
		return errorJSON(c, apperr.Wrap(apperr.Internal, err, "failed to load job"))
	}
	if job == nil {
		return errorJSON(c, apperr.New(apperr.Validation, "recording has no completed transcription"))
	}

	updated, err := h.segments.RenameSpeaker(ctx, job.ID, c.Param("speakerID"), req.Label)
	if err != nil {
		return errorJSON(c, apperr.Wrap(apperr.Internal, err, "failed to rename speaker"))
	}
	if updated == 0 {
		return errorJSON(c, apperr.New(apperr.NotFound, "speaker not found"))
	}
	return c.JSON(http.StatusOK, map[string]int64{"updated": updated})
}
