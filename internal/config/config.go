// Package config loads process configuration from the environment.
// Provider credentials and signing secrets live here; per-request defaults
// (model ids, diarization flags) live in the settings row instead.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config はプロセス起動時の設定
type Config struct {
	Port         string
	DatabasePath string
	MediaDir     string
	// BaseURL is the externally reachable root of this service; signed
	// media URLs and the webhook address are built from it.
	BaseURL string

	MediaSigningSecret string
	MediaURLTTL        time.Duration

	ScribeAPIKey  string
	ScribeBaseURL string
	ScribeTimeout time.Duration
	// UseWebhook switches provider submission to asynchronous delivery.
	UseWebhook    bool
	WebhookSecret string

	OpenAIAPIKey  string
	OpenAIBaseURL string
}

// Load は環境変数から設定を読み込む
func Load() *Config {
	return &Config{
		Port:               getenv("PORT", "8080"),
		DatabasePath:       getenv("DATABASE_PATH", "data/kiroku.db"),
		MediaDir:           getenv("MEDIA_DIR", "data/media"),
		BaseURL:            getenv("BASE_URL", "http://localhost:8080"),
		MediaSigningSecret: os.Getenv("MEDIA_SIGNING_SECRET"),
		MediaURLTTL:        getduration("MEDIA_URL_TTL", 30*time.Minute),
		ScribeAPIKey:       os.Getenv("ELEVENLABS_API_KEY"),
		ScribeBaseURL:      os.Getenv("ELEVENLABS_BASE_URL"),
		ScribeTimeout:      getduration("ELEVENLABS_TIMEOUT", 5*time.Minute),
		UseWebhook:         getbool("TRANSCRIPTION_USE_WEBHOOK", false),
		WebhookSecret:      os.Getenv("TRANSCRIPTION_WEBHOOK_SECRET"),
		OpenAIAPIKey:       os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:      os.Getenv("OPENAI_BASE_URL"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getbool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getduration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return fallback
}
