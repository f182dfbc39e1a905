package handlers

import (
	"path/filepath"
	"time"

	"github.com/labstack/echo/v4"

	"kiroku/internal/apperr"
	"kiroku/internal/media"
	"kiroku/internal/storage"
)

// MediaHandler は署名付きメディアダウンロードの受け口
// 音声認識プロバイダがここから音声を取得する
type MediaHandler struct {
	recordings *storage.RecordingRepository
	signer     *media.Signer
	mediaDir   string
}

// NewMediaHandler は新しいMediaHandlerを作成
func NewMediaHandler(recordings *storage.RecordingRepository, signer *media.Signer, mediaDir string) *MediaHandler {
	return &MediaHandler{recordings: recordings, signer: signer, mediaDir: mediaDir}
}

// Download は署名を検証してメディアファイルを返す
func (h *MediaHandler) Download(c echo.Context) error {
	id := c.Param("id")
	if err := h.signer.Verify(id, c.QueryParam("expires"), c.QueryParam("sig"), time.Now()); err != nil {
		return errorJSON(c, err)
	}

	rec, err := h.recordings.GetByID(c.Request().Context(), id)
	if err != nil {
		return errorJSON(c, apperr.Wrap(apperr.Internal, err, "failed to load recording"))
	}
	if rec == nil {
		return errorJSON(c, apperr.New(apperr.NotFound, "recording not found"))
	}

	path := rec.StoragePath
	if path == "" {
		path = filepath.Join(h.mediaDir, rec.ID, rec.Filename)
	}
	return c.File(path)
}
