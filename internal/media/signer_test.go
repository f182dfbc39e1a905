package media

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kiroku/internal/apperr"
)

func parseSigned(t *testing.T, signed string) (expires, sig string) {
	t.Helper()
	u, err := url.Parse(signed)
	require.NoError(t, err)
	return u.Query().Get("expires"), u.Query().Get("sig")
}

func TestSigner_SignAndVerify(t *testing.T) {
	s := NewSigner("http://localhost:8080", "secret", 30*time.Minute)
	now := time.Now()

	signed, err := s.SignedURL("rec-1", now)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(signed, "http://localhost:8080/media/rec-1?"))

	expires, sig := parseSigned(t, signed)
	assert.NoError(t, s.Verify("rec-1", expires, sig, now))
	assert.NoError(t, s.Verify("rec-1", expires, sig, now.Add(29*time.Minute)))
}

func TestSigner_Expired(t *testing.T) {
	s := NewSigner("http://localhost:8080", "secret", 30*time.Minute)
	now := time.Now()

	signed, err := s.SignedURL("rec-1", now)
	require.NoError(t, err)
	expires, sig := parseSigned(t, signed)

	err = s.Verify("rec-1", expires, sig, now.Add(31*time.Minute))
	require.Error(t, err)
	assert.Equal(t, apperr.Unauthorized, apperr.KindOf(err))
}

func TestSigner_TamperedSignature(t *testing.T) {
	s := NewSigner("http://localhost:8080", "secret", 30*time.Minute)
	now := time.Now()

	signed, err := s.SignedURL("rec-1", now)
	require.NoError(t, err)
	expires, _ := parseSigned(t, signed)

	assert.Error(t, s.Verify("rec-1", expires, "deadbeef", now))
	// 別のレコーディングIDには流用できない
	_, sig := parseSigned(t, signed)
	assert.Error(t, s.Verify("rec-2", expires, sig, now))
}

func TestSigner_MissingSecret(t *testing.T) {
	s := NewSigner("http://localhost:8080", "", 30*time.Minute)

	_, err := s.SignedURL("rec-1", time.Now())
	require.Error(t, err)
	assert.Equal(t, apperr.Configuration, apperr.KindOf(err))
}
