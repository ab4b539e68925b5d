// Package dispatch delivers model responses to Telegram: it cleans the
// text, splits it into chunks the API accepts and records an audit row for
// every outbound message.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/KMDBKMDBK/emma-bot-railway/internal/markup"
	"github.com/KMDBKMDBK/emma-bot-railway/internal/session"
	"github.com/KMDBKMDBK/emma-bot-railway/internal/telegram"
)

const (
	telegramMax      = 4096
	chunkReserve     = 50
	miniAppURLMax    = 200
	defaultParseMode = "HTML"

	defaultMiniAppCaption = "🎀Просмотр🎀"
)

// Model-specific sentinel tokens that occasionally leak into completions.
var sentinels = []string{
	"｜begin▁of▁sentence｜",
	"｜end▁of▁sentence｜",
}

type Sender interface {
	SendMessage(ctx context.Context, req telegram.SendMessageRequest) (*telegram.Message, error)
}

type MessageLog interface {
	LogMessage(ctx context.Context, rec session.MessageRecord) error
}

type Dispatcher struct {
	sender         Sender
	log            MessageLog
	parseMode      string
	miniAppURL     string
	miniAppCaption string
	logger         *slog.Logger
	now            func() time.Time
}

func New(sender Sender, log MessageLog, miniAppURL, miniAppCaption string, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if miniAppCaption == "" {
		miniAppCaption = defaultMiniAppCaption
	}
	return &Dispatcher{
		sender:         sender,
		log:            log,
		parseMode:      defaultParseMode,
		miniAppURL:     miniAppURL,
		miniAppCaption: miniAppCaption,
		logger:         logger,
		now:            time.Now,
	}
}

// Send cleans and chunks text, writes one audit row, then sends every
// chunk. The mini-app button rides on the first chunk only. Empty text
// after cleanup is a logged no-op.
func (d *Dispatcher) Send(ctx context.Context, chatID, userID int64, text string) error {
	for _, s := range sentinels {
		text = strings.ReplaceAll(text, s, "")
	}
	text = strings.TrimSpace(markup.Sanitize(text))
	if text == "" {
		d.logger.Warn("dispatch_empty_response", "user_id", userID)
		return nil
	}

	corrID := correlationID(userID, d.now())
	if d.log != nil {
		rec := session.MessageRecord{
			ID:        corrID,
			UserID:    userID,
			Direction: "outbound",
			Text:      text,
			ParseMode: d.parseMode,
			SentAt:    d.now(),
		}
		if err := d.log.LogMessage(ctx, rec); err != nil {
			d.logger.Error("dispatch_log_error", "user_id", userID, "message_id", corrID, "error", err.Error())
		}
	}

	chunks := splitRunes(text, telegramMax-len(d.parseMode)-chunkReserve)
	for i, chunk := range chunks {
		req := telegram.SendMessageRequest{
			ChatID:                chatID,
			Text:                  chunk,
			ParseMode:             d.parseMode,
			DisableWebPagePreview: true,
		}
		if i == 0 {
			req.ReplyMarkup = d.miniAppMarkup(corrID, userID)
		}
		if _, err := d.sender.SendMessage(ctx, req); err != nil {
			d.logger.Error("dispatch_send_error",
				"user_id", userID,
				"message_id", corrID,
				"chunk", i+1,
				"chunks", len(chunks),
				"error", err.Error(),
			)
			return err
		}
	}

	d.logger.Info("dispatch_sent", "user_id", userID, "message_id", corrID, "chunks", len(chunks))
	return nil
}

// miniAppMarkup builds the web-app button. The correlation id and user id
// ride on the URL so the mini app can look up the logged message.
func (d *Dispatcher) miniAppMarkup(corrID string, userID int64) *telegram.InlineKeyboardMarkup {
	base := strings.TrimSpace(d.miniAppURL)
	if base == "" {
		return nil
	}
	url := fmt.Sprintf("%s?message_id=%s&user_id=%d", base, corrID, userID)
	if len(url) > miniAppURLMax {
		d.logger.Warn("dispatch_miniapp_url_too_long", "user_id", userID, "len", len(url))
		return nil
	}
	return &telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{{
			{Text: d.miniAppCaption, WebApp: &telegram.WebAppInfo{URL: url}},
		}},
	}
}

func correlationID(userID int64, now time.Time) string {
	return fmt.Sprintf("%d_%d", userID, now.UnixMilli())
}

// splitRunes cuts text into fixed-width rune slices. Concatenating the
// chunks reproduces the input exactly.
func splitRunes(text string, max int) []string {
	if max <= 0 {
		return []string{text}
	}
	runes := []rune(text)
	if len(runes) <= max {
		return []string{text}
	}
	chunks := make([]string, 0, (len(runes)+max-1)/max)
	for start := 0; start < len(runes); start += max {
		end := start + max
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}
