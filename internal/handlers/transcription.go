package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"kiroku/internal/apperr"
	"kiroku/internal/transcription"
)

// TranscriptionHandler は文字起こし送信APIのハンドラー
type TranscriptionHandler struct {
	svc *transcription.Service
}

// NewTranscriptionHandler は新しいTranscriptionHandlerを作成
func NewTranscriptionHandler(svc *transcription.Service) *TranscriptionHandler {
	return &TranscriptionHandler{svc: svc}
}

// Submit はレコーディングの文字起こしを開始
func (h *TranscriptionHandler) Submit(c echo.Context) error {
	owner, err := ownerID(c)
	if err != nil {
		return errorJSON(c, err)
	}

	var opts transcription.Options
	if err := c.Bind(&opts); err != nil {
		return errorJSON(c, apperr.New(apperr.Validation, "invalid request body"))
	}

	result, err := h.svc.Submit(c.Request().Context(), owner, c.Param("id"), opts)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusAccepted, result)
}
