// Package media issues and verifies time-limited signed URLs for stored
// recordings. The speech-to-text provider fetches audio through these URLs,
// so the signature must outlive the provider's fetch window but not much
// more.
package media

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"kiroku/internal/apperr"
)

// Signer は期限付き署名URLの発行と検証を行う
type Signer struct {
	baseURL string
	secret  []byte
	ttl     time.Duration
}

// NewSigner は新しいSignerを作成
func NewSigner(baseURL, secret string, ttl time.Duration) *Signer {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Signer{baseURL: baseURL, secret: []byte(secret), ttl: ttl}
}

// SignedURL はレコーディングの期限付きダウンロードURLを発行する
func (s *Signer) SignedURL(recordingID string, now time.Time) (string, error) {
	if len(s.secret) == 0 {
		return "", apperr.New(apperr.Configuration, "media signing secret is not configured")
	}
	expires := now.Add(s.ttl).Unix()
	sig := s.sign(recordingID, expires)
	return fmt.Sprintf("%s/media/%s?expires=%d&sig=%s", s.baseURL, recordingID, expires, sig), nil
}

// Verify は署名と有効期限を検証する
func (s *Signer) Verify(recordingID, expiresStr, sig string, now time.Time) error {
	if len(s.secret) == 0 {
		return apperr.New(apperr.Configuration, "media signing secret is not configured")
	}
	expires, err := strconv.ParseInt(expiresStr, 10, 64)
	if err != nil {
		return apperr.New(apperr.Unauthorized, "invalid expiry")
	}
	if now.Unix() > expires {
		return apperr.New(apperr.Unauthorized, "signed URL expired")
	}
	expected := s.sign(recordingID, expires)
	if !hmac.Equal([]byte(expected), []byte(sig)) {
		return apperr.New(apperr.Unauthorized, "invalid signature")
	}
	return nil
}

func (s *Signer) sign(recordingID string, expires int64) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%s|%d", recordingID, expires)
	return hex.EncodeToString(mac.Sum(nil))
}
