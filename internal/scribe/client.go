// Package scribe is the HTTP client for the ElevenLabs-style
// speech-to-text API. It normalizes the provider's response into word-level
// transcripts that the transcription pipeline consumes, and supports both
// synchronous submission and webhook-based asynchronous delivery.
package scribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"kiroku/internal/apperr"
)

// ProviderName はジョブ記録に残すプロバイダ識別子
const ProviderName = "elevenlabs"

const defaultBaseURL = "https://api.elevenlabs.io"

// Config configures the speech-to-text client.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration // default 5m
}

// Client calls the speech-to-text endpoint.
type Client struct {
	cfg  Config
	http *http.Client
	log  *logrus.Logger
}

// NewClient creates a new speech-to-text client.
func NewClient(cfg Config, log *logrus.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Minute
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  log,
	}
}

// Request is one transcription submission.
type Request struct {
	MediaURL       string
	ModelID        string
	Diarize        bool
	TagAudioEvents bool
	LanguageCode   string
	// Webhook requests asynchronous delivery; the provider answers with a
	// request id only and posts the transcript to the configured webhook.
	Webhook bool
}

// Word token types in the provider response.
const (
	WordTypeWord       = "word"
	WordTypeSpacing    = "spacing"
	WordTypeAudioEvent = "audio_event"
)

// Word is one token of the transcript.
type Word struct {
	Text      string  `json:"text"`
	Type      string  `json:"type"`
	Start     float64 `json:"start"`
	End       float64 `json:"end"`
	SpeakerID *string `json:"speaker_id,omitempty"`
}

// Transcript mirrors the provider's success response.
type Transcript struct {
	LanguageCode    string   `json:"language_code,omitempty"`
	Text            string   `json:"text"`
	DurationSeconds *float64 `json:"duration_seconds,omitempty"`
	Words           []Word   `json:"words,omitempty"`
}

// AsyncReceipt is the provider's answer to a webhook-mode submission.
type AsyncReceipt struct {
	RequestID string `json:"request_id"`
}

// Transcribe submits the media reference and waits for the transcript.
func (c *Client) Transcribe(ctx context.Context, req Request) (*Transcript, error) {
	body, err := c.submit(ctx, req)
	if err != nil {
		return nil, err
	}

	var t Transcript
	if err := json.Unmarshal(body, &t); err != nil {
		return nil, apperr.Wrap(apperr.Upstream, err, "failed to decode provider response")
	}
	c.log.WithFields(logrus.Fields{
		"words":    len(t.Words),
		"language": t.LanguageCode,
	}).Debug("scribe: transcript received")
	return &t, nil
}

// TranscribeAsync submits the media reference in webhook mode and returns
// the provider's request id. The transcript arrives later on the webhook.
func (c *Client) TranscribeAsync(ctx context.Context, req Request) (*AsyncReceipt, error) {
	req.Webhook = true
	body, err := c.submit(ctx, req)
	if err != nil {
		return nil, err
	}

	var r AsyncReceipt
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, apperr.Wrap(apperr.Upstream, err, "failed to decode provider response")
	}
	if r.RequestID == "" {
		return nil, apperr.New(apperr.Upstream, "provider returned no request_id for async submission")
	}
	return &r, nil
}

func (c *Client) submit(ctx context.Context, req Request) ([]byte, error) {
	if c.cfg.APIKey == "" {
		return nil, apperr.New(apperr.Configuration, "speech-to-text provider is not configured")
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fields := map[string]string{
		"cloud_storage_url": req.MediaURL,
		"model_id":          req.ModelID,
		"diarize":           fmt.Sprintf("%t", req.Diarize),
		"tag_audio_events":  fmt.Sprintf("%t", req.TagAudioEvents),
	}
	if req.LanguageCode != "" {
		fields["language_code"] = req.LanguageCode
	}
	if req.Webhook {
		fields["webhook"] = "true"
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, apperr.Wrap(apperr.Internal, err, "failed to build request")
		}
	}
	if err := mw.Close(); err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "failed to build request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/v1/speech-to-text", &buf)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "failed to build request")
	}
	httpReq.Header.Set("xi-api-key", c.cfg.APIKey)
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())

	c.log.WithFields(logrus.Fields{
		"model":   req.ModelID,
		"diarize": req.Diarize,
		"webhook": req.Webhook,
	}).Debug("scribe: submitting")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, apperr.Wrap(apperr.Upstream, err, "provider request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Wrap(apperr.Upstream, err, "failed to read provider response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperr.NewUpstream(resp.StatusCode, string(body))
	}
	return body, nil
}
