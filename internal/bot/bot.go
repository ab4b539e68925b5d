// Package bot routes Telegram updates: commands, subscription callbacks,
// Stars payments, feedback capture and the main conversation pipeline.
package bot

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/KMDBKMDBK/emma-bot-railway/internal/search"
	"github.com/KMDBKMDBK/emma-bot-railway/internal/session"
	"github.com/KMDBKMDBK/emma-bot-railway/internal/telegram"
	"github.com/KMDBKMDBK/emma-bot-railway/llm"
)

// API is the slice of the Telegram client the handlers use.
type API interface {
	SendMessage(ctx context.Context, req telegram.SendMessageRequest) (*telegram.Message, error)
	SendPhoto(ctx context.Context, req telegram.SendPhotoRequest) (*telegram.Message, error)
	SendChatAction(ctx context.Context, chatID int64, action string) error
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
	SendInvoice(ctx context.Context, req telegram.SendInvoiceRequest) (*telegram.Message, error)
	AnswerPreCheckoutQuery(ctx context.Context, queryID string, ok bool, errorMessage string) error
	AnswerCallbackQuery(ctx context.Context, queryID, text string) error
	SetMyCommands(ctx context.Context, commands []telegram.BotCommand) error
}

// Completer produces the model reply for a user turn.
type Completer interface {
	Respond(ctx context.Context, userID int64, userText string, history []llm.Message, isCodeRequest bool, results []search.Result) string
}

// Searcher supplies web snippets for prompt enrichment.
type Searcher interface {
	Enabled() bool
	Search(ctx context.Context, query, activeTopic string) []search.Result
}

// Outbox delivers a finished response to the chat.
type Outbox interface {
	Send(ctx context.Context, chatID, userID int64, text string) error
}

type PaymentLog interface {
	LogPayment(ctx context.Context, rec session.PaymentRecord) error
}

type Config struct {
	FeedbackChatID int64
	StartImageURL  string
	PayImageURL    string
}

type Bot struct {
	api       API
	store     session.Store
	locker    *session.Locker
	completer Completer
	searcher  Searcher
	outbox    Outbox
	payments  PaymentLog
	cfg       Config
	logger    *slog.Logger
	now       func() time.Time

	mu   sync.Mutex
	seen map[int64]time.Time

	wmu     sync.Mutex
	workers map[int64]*userWorker
	sem     chan struct{}
}

func New(api API, store session.Store, completer Completer, searcher Searcher, outbox Outbox, payments PaymentLog, cfg Config, logger *slog.Logger) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{
		api:       api,
		store:     store,
		locker:    session.NewLocker(),
		completer: completer,
		searcher:  searcher,
		outbox:    outbox,
		payments:  payments,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
		seen:      make(map[int64]time.Time),
		workers:   make(map[int64]*userWorker),
		sem:       make(chan struct{}, maxConcurrentUpdates),
	}
}

// Commands is the menu registered via setMyCommands at startup.
var Commands = []telegram.BotCommand{
	{Command: "/start", Description: "😇 Начать общение с Эммой"},
	{Command: "/info", Description: "👩🏻‍🦰 Узнать подробнее обо мне"},
	{Command: "/pay", Description: "💝 Моя подписка"},
	{Command: "/clear", Description: "🧹 Очистить историю диалога"},
	{Command: "/feedback", Description: "📩 Оставить обратную связь"},
	{Command: "/cancel", Description: "🚫 Отменить текущую операцию"},
}

// HandleUpdate processes one update. Updates already seen (webhook
// retries) are dropped; work for one user is serialized.
func (b *Bot) HandleUpdate(ctx context.Context, u telegram.Update) {
	if b.alreadySeen(u.UpdateID) {
		b.logger.Info("update_duplicate", "update_id", u.UpdateID)
		return
	}

	switch {
	case u.PreCheckoutQuery != nil:
		b.handlePreCheckout(ctx, u.PreCheckoutQuery)
	case u.CallbackQuery != nil:
		b.withUser(userOf(u.CallbackQuery.From), func(id int64) {
			b.handleCallback(ctx, id, u.CallbackQuery)
		})
	case u.Message != nil && u.Message.SuccessfulPayment != nil:
		b.withUser(userOf(u.Message.From), func(id int64) {
			b.handleSuccessfulPayment(ctx, id, u.Message)
		})
	case u.Message != nil:
		b.withUser(userOf(u.Message.From), func(id int64) {
			b.handleMessage(ctx, id, u.Message)
		})
	}
}

func (b *Bot) withUser(userID int64, fn func(int64)) {
	if userID == 0 {
		return
	}
	b.locker.Lock(userID)
	defer b.locker.Unlock(userID)
	fn(userID)
}

func userOf(u *telegram.User) int64 {
	if u == nil {
		return 0
	}
	return u.ID
}

// alreadySeen dedupes update ids. Entries older than an hour are pruned
// on the way through.
func (b *Bot) alreadySeen(updateID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.now()
	if _, ok := b.seen[updateID]; ok {
		return true
	}
	for id, at := range b.seen {
		if now.Sub(at) > time.Hour {
			delete(b.seen, id)
		}
	}
	b.seen[updateID] = now
	return false
}

// loadSession returns the stored session or a fresh one for new users.
func (b *Bot) loadSession(ctx context.Context, userID int64) *session.Session {
	s, err := b.store.Get(ctx, userID)
	if err != nil {
		if err != session.ErrNotFound {
			b.logger.Error("session_load_error", "user_id", userID, "error", err.Error())
		}
		return session.New()
	}
	return s
}

func (b *Bot) saveSession(ctx context.Context, userID int64, s *session.Session) {
	if err := b.store.Put(ctx, userID, s); err != nil {
		b.logger.Error("session_save_error", "user_id", userID, "error", err.Error())
	}
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string) *telegram.Message {
	msg, err := b.api.SendMessage(ctx, telegram.SendMessageRequest{
		ChatID:    chatID,
		Text:      text,
		ParseMode: "HTML",
	})
	if err != nil {
		b.logger.Error("telegram_send_error", "chat_id", chatID, "error", err.Error())
		return nil
	}
	return msg
}

// sendWithPhoto sends text as a photo caption when an image URL is
// configured, falling back to a plain message.
func (b *Bot) sendWithPhoto(ctx context.Context, chatID int64, imageURL, text string, markup *telegram.InlineKeyboardMarkup) *telegram.Message {
	if strings.HasPrefix(imageURL, "http") {
		msg, err := b.api.SendPhoto(ctx, telegram.SendPhotoRequest{
			ChatID:      chatID,
			Photo:       imageURL,
			Caption:     text,
			ParseMode:   "HTML",
			ReplyMarkup: markup,
		})
		if err == nil {
			return msg
		}
		b.logger.Error("telegram_photo_error", "chat_id", chatID, "error", err.Error())
	}
	msg, err := b.api.SendMessage(ctx, telegram.SendMessageRequest{
		ChatID:      chatID,
		Text:        text,
		ParseMode:   "HTML",
		ReplyMarkup: markup,
	})
	if err != nil {
		b.logger.Error("telegram_send_error", "chat_id", chatID, "error", err.Error())
		return nil
	}
	return msg
}
