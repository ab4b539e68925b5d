package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/KMDBKMDBK/emma-bot-railway/internal/search"
	"github.com/KMDBKMDBK/emma-bot-railway/internal/session"
	"github.com/KMDBKMDBK/emma-bot-railway/internal/telegram"
	"github.com/KMDBKMDBK/emma-bot-railway/internal/topic"
)

var codeRequestKeywords = []string{
	"код ", "программ", "коди", "python", "javascript", "html", "css",
}

func isCodeRequest(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range codeRequestKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// handleMessage runs the conversation pipeline for one inbound message.
func (b *Bot) handleMessage(ctx context.Context, userID int64, msg *telegram.Message) {
	if msg.Chat == nil {
		return
	}
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		b.logger.Info("non_text_message", "user_id", userID)
		b.reply(ctx, msg.Chat.ID, textOnlyText)
		return
	}
	if strings.HasPrefix(text, "/") && b.handleCommand(ctx, userID, msg) {
		return
	}

	b.logger.Info("message_received", "user_id", userID, "chars", len(text))
	if err := b.api.SendChatAction(ctx, msg.Chat.ID, "typing"); err != nil {
		b.logger.Warn("chat_action_error", "chat_id", msg.Chat.ID, "error", err.Error())
	}

	now := b.now()
	s := b.loadSession(ctx, userID)
	b.expireStalePremium(userID, s, now)

	if !s.AllowRequest(now) {
		b.logger.Info("rate_limited", "user_id", userID)
		b.saveSession(ctx, userID, s)
		b.reply(ctx, msg.Chat.ID, limitReachedText)
		return
	}
	b.logger.Info("request_counted", "user_id", userID, "count", s.RequestCount)

	if s.PendingFeedback {
		b.relayFeedback(ctx, userID, msg, s, text)
		b.saveSession(ctx, userID, s)
		return
	}

	code := isCodeRequest(text)
	var results []search.Result
	if b.searcher != nil && b.searcher.Enabled() && !code {
		results = b.searcher.Search(ctx, text, s.ActiveTopic)
		if len(results) > 0 && search.IsRelevant(results, text, s.ActiveTopic) {
			b.logger.Info("search_results_used", "user_id", userID, "count", len(results))
		} else {
			results = nil
			b.logger.Info("search_results_discarded", "user_id", userID)
		}
	}

	response := b.completer.Respond(ctx, userID, text, s.History, code, results)

	if response != "" {
		s.ActiveTopic = topic.Extract(response)
	}
	b.logger.Info("active_topic", "user_id", userID, "topic", s.ActiveTopic)

	s.AppendTurn(text, response)
	b.saveSession(ctx, userID, s)

	if err := b.outbox.Send(ctx, msg.Chat.ID, userID, response); err != nil {
		b.logger.Error("response_deliver_error", "user_id", userID, "error", err.Error())
	}
}

// expireStalePremium clears a subscription flag past its expiry.
func (b *Bot) expireStalePremium(userID int64, s *session.Session, now time.Time) {
	if s.Premium && !now.Before(s.PremiumExpiry) {
		s.Premium = false
		s.PremiumExpiry = time.Time{}
		b.logger.Info("premium_expired", "user_id", userID)
	}
}

// relayFeedback forwards the user's message to the feedback chat and
// closes feedback mode.
func (b *Bot) relayFeedback(ctx context.Context, userID int64, msg *telegram.Message, s *session.Session, text string) {
	defer func() {
		s.PendingFeedback = false
		s.FeedbackMsgID = 0
		s.UserFeedbackMsgID = 0
	}()

	if b.cfg.FeedbackChatID == 0 {
		b.logger.Error("feedback_chat_unconfigured")
		b.reply(ctx, msg.Chat.ID, "Ой, что-то пошло не так! 😔 Обратная связь временно недоступна.")
		return
	}

	username := "Аноним"
	if msg.From != nil {
		if msg.From.Username != "" {
			username = msg.From.Username
		} else if msg.From.FirstName != "" {
			username = msg.From.FirstName
		}
	}
	relay := fmt.Sprintf("<b>Обратная связь от пользователя</b> (ID: %d, @%s):\n%s", userID, username, text)

	_, err := b.api.SendMessage(ctx, telegram.SendMessageRequest{
		ChatID:    b.cfg.FeedbackChatID,
		Text:      relay,
		ParseMode: "HTML",
	})
	if err != nil {
		b.logger.Error("feedback_relay_error", "user_id", userID, "error", err.Error())
		b.reply(ctx, msg.Chat.ID, feedbackFailedText)
		return
	}

	b.logger.Info("feedback_relayed", "user_id", userID, "chat_id", b.cfg.FeedbackChatID)
	b.reply(ctx, msg.Chat.ID, feedbackDoneText)

	if s.FeedbackMsgID != 0 {
		if err := b.api.DeleteMessage(ctx, msg.Chat.ID, s.FeedbackMsgID); err != nil {
			b.logger.Warn("feedback_message_delete_error", "chat_id", msg.Chat.ID, "error", err.Error())
		}
	}
	if s.UserFeedbackMsgID != 0 {
		if err := b.api.DeleteMessage(ctx, msg.Chat.ID, s.UserFeedbackMsgID); err != nil {
			b.logger.Warn("feedback_message_delete_error", "chat_id", msg.Chat.ID, "error", err.Error())
		}
	}
}
