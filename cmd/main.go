package main

import (
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"calobot/internal/config"
	"calobot/internal/infrastructure"
	"calobot/internal/interfaces/http"
	"calobot/internal/usecases"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logger := newLogger(cfg.AppEnv)

	if !cfg.MessagingConfigured() {
		logger.Warn().Msg("messaging credentials missing, delivery will be degraded to no-op")
	}

	// Messaging platform client doubles as Messenger and ContentFetcher.
	lineClient := infrastructure.NewLineClient(
		cfg.ChannelAccessToken,
		cfg.MessagingAPIBase,
		cfg.ContentAPIBase,
		cfg.MessagingTimeout,
		cfg.ContentTimeout,
		cfg.PushRPS,
		cfg.PushBurst,
		&logger,
	)

	// Recognition strategy is resolved exactly once, here.
	recognizer := infrastructure.NewRecognizer(cfg, &logger)
	logger.Info().Str("backend", recognizer.Name()).Msg("recognizer selected")

	queue := infrastructure.NewSenderQueue()
	dispatcher := usecases.NewDispatcher(lineClient, lineClient, recognizer, queue, &logger)

	middleware := http.NewMiddleware(cfg.ChannelSecret)
	handler := http.NewHandler(dispatcher, cfg, recognizer.Name(), &logger)

	if cfg.AppEnv != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	http.SetupRoutes(r, handler, middleware)

	go func() {
		if err := r.Run(fmt.Sprintf("0.0.0.0:%d", cfg.Port)); err != nil {
			logger.Error().Err(err).Msg("HTTP server failed")
			os.Exit(1)
		}
	}()

	logger.Info().Int("port", cfg.Port).Msg("webhook server started")

	// Optional Telegram channel shares the same pipeline.
	if cfg.TelegramBotToken != "" {
		tgManager, err := infrastructure.NewTelegramManager(cfg.TelegramBotToken, dispatcher, cfg.ContentTimeout, &logger)
		if err != nil {
			logger.Warn().Err(err).Msg("Telegram disabled (token invalid)")
		} else {
			tgManager.Run()

			return
		}
	}

	// Gin runs in a goroutine, nothing else to do here.
	select {}
}

func newLogger(appEnv string) zerolog.Logger {
	if appEnv == "local" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
			With().Timestamp().Logger()
	}

	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}
