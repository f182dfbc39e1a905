package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"kiroku/internal/apperr"
	"kiroku/internal/storage"
	"kiroku/internal/summarize"
)

// SummaryHandler は要約APIのハンドラー
type SummaryHandler struct {
	svc        *summarize.Service
	recordings *storage.RecordingRepository
	summaries  *storage.SummaryRepository
}

// NewSummaryHandler は新しいSummaryHandlerを作成
func NewSummaryHandler(svc *summarize.Service, recordings *storage.RecordingRepository, summaries *storage.SummaryRepository) *SummaryHandler {
	return &SummaryHandler{svc: svc, recordings: recordings, summaries: summaries}
}

// Generate は新しいバージョンの要約を生成
func (h *SummaryHandler) Generate(c echo.Context) error {
	owner, err := ownerID(c)
	if err != nil {
		return errorJSON(c, err)
	}

	var opts summarize.Options
	if err := c.Bind(&opts); err != nil {
		return errorJSON(c, apperr.New(apperr.Validation, "invalid request body"))
	}

	result, err := h.svc.Generate(c.Request().Context(), owner, c.Param("id"), opts)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusCreated, result)
}

// List はレコーディングの要約一覧をバージョン順で取得
func (h *SummaryHandler) List(c echo.Context) error {
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

	summaries, err := h.summaries.ListByRecording(ctx, rec.ID)
	if err != nil {
		return errorJSON(c, apperr.Wrap(apperr.Internal, err, "failed to list summaries"))
	}
	return c.JSON(http.StatusOK, summaries)
}
