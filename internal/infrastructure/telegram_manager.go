package infrastructure

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"calobot/internal/usecases"
)

// ImageAnalyzer is the slice of the dispatcher the Telegram channel needs.
type ImageAnalyzer interface {
	AnalyzeImage(ctx context.Context, image []byte) (string, error)
}

// TelegramManager runs the optional second channel: a long-polling Telegram
// bot feeding the same analysis pipeline as the webhook. Text is echoed,
// photos are analyzed, failures stay inside their own update.
type TelegramManager struct {
	bot        *tgbotapi.BotAPI
	analyzer   ImageAnalyzer
	httpClient *http.Client
	logger     *zerolog.Logger
	stopChan   chan struct{}
}

func NewTelegramManager(token string, analyzer ImageAnalyzer, contentTimeout time.Duration, logger *zerolog.Logger) (*TelegramManager, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}

	return &TelegramManager{
		bot:        bot,
		analyzer:   analyzer,
		httpClient: &http.Client{Timeout: contentTimeout},
		logger:     logger,
		stopChan:   make(chan struct{}),
	}, nil
}

// Run polls updates until Stop is called. Blocks; callers decide whether to
// run it in a goroutine or as the main loop.
func (m *TelegramManager) Run() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := m.bot.GetUpdatesChan(u)

	m.logger.Info().Str("bot", m.bot.Self.UserName).Msg("telegram polling started")

	for {
		select {
		case <-m.stopChan:
			m.bot.StopReceivingUpdates()
			m.logger.Info().Msg("telegram polling stopped")

			return
		case update := <-updates:
			go m.handleUpdate(update)
		}
	}
}

func (m *TelegramManager) Stop() {
	close(m.stopChan)
}

func (m *TelegramManager) handleUpdate(update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error().Interface("panic", r).Msg("telegram update handler panicked")
		}
	}()

	if update.Message == nil {
		return
	}

	chatID := update.Message.Chat.ID

	if len(update.Message.Photo) > 0 {
		m.handlePhoto(chatID, update.Message.Photo)

		return
	}

	if update.Message.Text != "" {
		m.send(chatID, usecases.MsgEchoPrefix+update.Message.Text)
	}
}

func (m *TelegramManager) handlePhoto(chatID int64, photos []tgbotapi.PhotoSize) {
	m.send(chatID, usecases.MsgImageAck)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	// Last entry is the largest size.
	fileID := photos[len(photos)-1].FileID

	image, err := m.downloadFile(ctx, fileID)
	if err != nil {
		m.logger.Error().Err(err).Int64("chat_id", chatID).Msg("telegram photo download failed")
		m.send(chatID, usecases.MsgAnalysisFailed)

		return
	}

	text, err := m.analyzer.AnalyzeImage(ctx, image)
	if err != nil {
		m.logger.Error().Err(err).Int64("chat_id", chatID).Msg("telegram photo analysis failed")
		m.send(chatID, usecases.MsgAnalysisFailed)

		return
	}

	m.send(chatID, text)
}

func (m *TelegramManager) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	url, err := m.bot.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("telegram file url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("telegram file download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("telegram file download: unexpected status %d", resp.StatusCode)
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxContentBytes))
}

func (m *TelegramManager) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := m.bot.Send(msg); err != nil {
		m.logger.Warn().Err(err).Int64("chat_id", chatID).Msg("telegram send failed")
	}
}
