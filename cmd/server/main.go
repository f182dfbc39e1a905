package main

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"kiroku/internal/config"
	"kiroku/internal/handlers"
	"kiroku/internal/media"
	"kiroku/internal/scribe"
	"kiroku/internal/storage"
	"kiroku/internal/summarize"
	"kiroku/internal/transcription"
	"kiroku/internal/version"
)

func main() {
	// .envファイルを読み込み（存在しない場合はスキップ）
	_ = godotenv.Load()

	cfg := config.Load()
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// データベース接続
	db, err := storage.Open(cfg.DatabasePath)
	if err != nil {
		log.WithError(err).Fatal("failed to open database")
	}
	defer db.Close()

	// リポジトリ
	recordings := storage.NewRecordingRepository(db)
	jobs := storage.NewJobRepository(db)
	segments := storage.NewSegmentRepository(db)
	summaries := storage.NewSummaryRepository(db)
	settings := storage.NewSettingsRepository(db)

	// 外部連携
	signer := media.NewSigner(cfg.BaseURL, cfg.MediaSigningSecret, cfg.MediaURLTTL)
	gateway := scribe.NewClient(scribe.Config{
		BaseURL: cfg.ScribeBaseURL,
		APIKey:  cfg.ScribeAPIKey,
		Timeout: cfg.ScribeTimeout,
	}, log)
	generator := summarize.NewOpenAIGenerator(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL)

	// サービス
	transcriptionSvc := transcription.NewService(recordings, jobs, settings, gateway, signer, cfg.UseWebhook, log)
	summarySvc := summarize.NewService(recordings, segments, summaries, settings, generator, log)

	// ハンドラー
	recordingHandler := handlers.NewRecordingHandler(recordings, jobs, segments)
	transcriptionHandler := handlers.NewTranscriptionHandler(transcriptionSvc)
	webhookHandler := handlers.NewWebhookHandler(transcriptionSvc, cfg.WebhookSecret, log)
	summaryHandler := handlers.NewSummaryHandler(summarySvc, recordings, summaries)
	mediaHandler := handlers.NewMediaHandler(recordings, signer, cfg.MediaDir)

	// Echoインスタンスの作成
	e := echo.New()
	e.HideBanner = true

	// ミドルウェアの設定
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// ルートの登録
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":  "ok",
			"version": version.Version,
		})
	})

	api := e.Group("/api")
	api.POST("/recordings", recordingHandler.Create)
	api.GET("/recordings", recordingHandler.List)
	api.GET("/recordings/:id", recordingHandler.Get)
	api.DELETE("/recordings/:id", recordingHandler.Delete)
	api.GET("/recordings/:id/segments", recordingHandler.Segments)
	api.GET("/recordings/:id/transcript", recordingHandler.Transcript)
	api.PUT("/recordings/:id/speakers/:speakerID", recordingHandler.RenameSpeaker)
	api.POST("/recordings/:id/transcribe", transcriptionHandler.Submit)
	api.POST("/recordings/:id/summaries", summaryHandler.Generate)
	api.GET("/recordings/:id/summaries", summaryHandler.List)

	e.POST("/webhooks/transcription", webhookHandler.Receive)
	e.GET("/media/:id", mediaHandler.Download)

	// サーバー起動
	log.Infof("Starting kiroku v%s on port %s", version.Version, cfg.Port)
	if err := e.Start(fmt.Sprintf(":%s", cfg.Port)); err != nil {
		log.Fatal(err)
	}
}
