package scribe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kiroku/internal/apperr"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL, APIKey: "test-key"}, nil)
}

func TestTranscribe_Success(t *testing.T) {
	var gotForm map[string]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotForm = map[string]string{}
		for k, v := range r.MultipartForm.Value {
			gotForm[k] = v[0]
		}
		assert.Equal(t, "test-key", r.Header.Get("xi-api-key"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"language_code": "en",
			"text": "hi there",
			"words": [
				{"text": "hi", "type": "word", "start": 0, "end": 0.5, "speaker_id": "speaker_0"},
				{"text": " ", "type": "spacing", "start": 0.5, "end": 0.5},
				{"text": "there", "type": "word", "start": 0.5, "end": 0.9, "speaker_id": "speaker_1"}
			]
		}`))
	})

	transcript, err := client.Transcribe(context.Background(), Request{
		MediaURL:     "http://example.com/media/rec-1",
		ModelID:      "scribe_v1",
		Diarize:      true,
		LanguageCode: "en",
	})
	require.NoError(t, err)

	assert.Equal(t, "http://example.com/media/rec-1", gotForm["cloud_storage_url"])
	assert.Equal(t, "scribe_v1", gotForm["model_id"])
	assert.Equal(t, "true", gotForm["diarize"])
	assert.Equal(t, "en", gotForm["language_code"])
	assert.NotContains(t, gotForm, "webhook")

	assert.Equal(t, "en", transcript.LanguageCode)
	assert.Equal(t, "hi there", transcript.Text)
	require.Len(t, transcript.Words, 3)
	require.NotNil(t, transcript.Words[0].SpeakerID)
	assert.Equal(t, "speaker_0", *transcript.Words[0].SpeakerID)
	assert.Nil(t, transcript.Words[1].SpeakerID)
}

func TestTranscribe_UpstreamError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("capacity exceeded"))
	})

	_, err := client.Transcribe(context.Background(), Request{ModelID: "scribe_v1"})
	require.Error(t, err)
	assert.Equal(t, apperr.Upstream, apperr.KindOf(err))
	// ステータスコードと本文をそのまま保持する
	assert.Contains(t, err.Error(), "500")
	assert.Contains(t, err.Error(), "capacity exceeded")
}

func TestTranscribe_NotConfigured(t *testing.T) {
	client := NewClient(Config{}, nil)

	_, err := client.Transcribe(context.Background(), Request{ModelID: "scribe_v1"})
	require.Error(t, err)
	assert.Equal(t, apperr.Configuration, apperr.KindOf(err))
}

func TestTranscribeAsync(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "true", r.MultipartForm.Value["webhook"][0])
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"request_id": "req-42"}`))
	})

	receipt, err := client.TranscribeAsync(context.Background(), Request{ModelID: "scribe_v1"})
	require.NoError(t, err)
	assert.Equal(t, "req-42", receipt.RequestID)
}

func TestTranscribeAsync_MissingRequestID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	_, err := client.TranscribeAsync(context.Background(), Request{ModelID: "scribe_v1"})
	require.Error(t, err)
	assert.Equal(t, apperr.Upstream, apperr.KindOf(err))
}
