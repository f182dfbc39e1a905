package handlers

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"kiroku/internal/apperr"
	"kiroku/internal/scribe"
	"kiroku/internal/transcription"
)

// WebhookHandler はプロバイダからの非同期コールバックの受け口
type WebhookHandler struct {
	svc    *transcription.Service
	secret string
	log    *logrus.Logger
}

// NewWebhookHandler は新しいWebhookHandlerを作成
func NewWebhookHandler(svc *transcription.Service, secret string, log *logrus.Logger) *WebhookHandler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &WebhookHandler{svc: svc, secret: secret, log: log}
}

// コールバック本文: 成功時はプロバイダの応答そのもの、失敗時は error を持つ
type webhookPayload struct {
	scribe.Transcript
	Error string `json:"error,omitempty"`
}

// Receive はコールバックを検証して結果を確定する
// 認証済みで構文的に正しいリクエストには、内部処理が失敗しても200を返す
// （プロバイダの無駄な再送を避けるため）。秘密鍵不一致と未知のジョブIDは
// エラーステータスで拒否する
func (h *WebhookHandler) Receive(c echo.Context) error {
	secret := c.QueryParam("secret")
	if secret == "" {
		secret = c.Request().Header.Get("X-Webhook-Secret")
	}
	if h.secret == "" || subtle.ConstantTimeCompare([]byte(secret), []byte(h.secret)) != 1 {
		return errorJSON(c, apperr.New(apperr.Unauthorized, "invalid webhook secret"))
	}

	jobID := c.QueryParam("job_id")
	if jobID == "" {
		return errorJSON(c, apperr.New(apperr.NotFound, "missing job_id"))
	}

	var payload webhookPayload
	if err := c.Bind(&payload); err != nil {
		return errorJSON(c, apperr.New(apperr.Validation, "invalid callback body"))
	}

	result := transcription.CallbackResult{Error: payload.Error}
	if payload.Error == "" {
		result.Transcript = &payload.Transcript
	}

	if err := h.svc.ProcessCallback(c.Request().Context(), jobID, result); err != nil {
		if apperr.IsKind(err, apperr.NotFound) {
			return errorJSON(c, err)
		}
		// 処理失敗はジョブ状態に記録済みなので、再送させずに受領を返す
		h.log.WithError(err).WithField("job_id", jobID).Error("callback processing failed")
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
