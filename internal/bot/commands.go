package bot

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/KMDBKMDBK/emma-bot-railway/internal/session"
	"github.com/KMDBKMDBK/emma-bot-railway/internal/telegram"
)

// handleCommand dispatches /commands. Unknown commands fall through to the
// conversation pipeline.
func (b *Bot) handleCommand(ctx context.Context, userID int64, msg *telegram.Message) bool {
	cmd := strings.ToLower(strings.TrimSpace(msg.Text))
	if i := strings.IndexAny(cmd, " \n"); i > 0 {
		cmd = cmd[:i]
	}
	if i := strings.Index(cmd, "@"); i > 0 {
		cmd = cmd[:i]
	}

	switch cmd {
	case "/start":
		b.cmdStart(ctx, userID, msg)
	case "/info":
		b.cmdInfo(ctx, userID, msg)
	case "/pay":
		b.cmdPay(ctx, userID, msg)
	case "/clear":
		b.cmdClear(ctx, userID, msg)
	case "/feedback":
		b.cmdFeedback(ctx, userID, msg)
	case "/cancel":
		b.cmdCancel(ctx, userID, msg)
	case "/reply":
		b.cmdReply(ctx, msg)
	default:
		return false
	}
	return true
}

// cmdStart resets the session and greets the user, with a photo when one
// is configured.
func (b *Bot) cmdStart(ctx context.Context, userID int64, msg *telegram.Message) {
	b.logger.Info("command", "name", "start", "user_id", userID)
	s := session.New()
	b.sendWithPhoto(ctx, msg.Chat.ID, b.cfg.StartImageURL, startText, nil)
	b.saveSession(ctx, userID, s)
}

func (b *Bot) cmdInfo(ctx context.Context, userID int64, msg *telegram.Message) {
	b.logger.Info("command", "name", "info", "user_id", userID)
	s := b.loadSession(ctx, userID)
	s.PendingFeedback = false
	b.reply(ctx, msg.Chat.ID, infoText)
	b.saveSession(ctx, userID, s)
}

// cmdClear wipes history and topic but keeps the subscription.
func (b *Bot) cmdClear(ctx context.Context, userID int64, msg *telegram.Message) {
	b.logger.Info("command", "name", "clear", "user_id", userID)
	old := b.loadSession(ctx, userID)
	s := session.New()
	s.Premium = old.Premium
	s.PremiumExpiry = old.PremiumExpiry
	b.reply(ctx, msg.Chat.ID, clearedText)
	b.saveSession(ctx, userID, s)
}

// cmdPay shows the subscription pitch, replacing any previous pay message.
func (b *Bot) cmdPay(ctx context.Context, userID int64, msg *telegram.Message) {
	b.logger.Info("command", "name", "pay", "user_id", userID)
	s := b.loadSession(ctx, userID)
	s.PendingFeedback = false
	b.showPayScreen(ctx, msg.Chat.ID, s)
	b.saveSession(ctx, userID, s)
}

func (b *Bot) showPayScreen(ctx context.Context, chatID int64, s *session.Session) {
	b.deleteLastPayMessage(ctx, chatID, s)
	markup := &telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{
			{{Text: "🎀Продлить доступ🎀", CallbackData: "show_plans"}},
		},
	}
	if msg := b.sendWithPhoto(ctx, chatID, b.cfg.PayImageURL, payText, markup); msg != nil {
		s.LastPayMsgID = msg.MessageID
	}
}

func (b *Bot) deleteLastPayMessage(ctx context.Context, chatID int64, s *session.Session) {
	if s.LastPayMsgID == 0 {
		return
	}
	if err := b.api.DeleteMessage(ctx, chatID, s.LastPayMsgID); err != nil {
		b.logger.Warn("pay_message_delete_error", "chat_id", chatID, "error", err.Error())
	}
	s.LastPayMsgID = 0
}

// cmdFeedback switches the user into feedback mode; the next plain message
// is relayed to the feedback chat.
func (b *Bot) cmdFeedback(ctx context.Context, userID int64, msg *telegram.Message) {
	b.logger.Info("command", "name", "feedback", "user_id", userID)
	s := b.loadSession(ctx, userID)
	s.PendingFeedback = true
	s.UserFeedbackMsgID = msg.MessageID

	markup := &telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{
			{{Text: "Назад", CallbackData: "cancel_feedback"}},
		},
	}
	sent, err := b.api.SendMessage(ctx, telegram.SendMessageRequest{
		ChatID:      msg.Chat.ID,
		Text:        feedbackText,
		ParseMode:   "HTML",
		ReplyMarkup: markup,
	})
	if err != nil {
		b.logger.Error("telegram_send_error", "chat_id", msg.Chat.ID, "error", err.Error())
		b.reply(ctx, msg.Chat.ID, somethingWrongText)
		s.PendingFeedback = false
	} else {
		s.FeedbackMsgID = sent.MessageID
	}
	b.saveSession(ctx, userID, s)
}

func (b *Bot) cmdCancel(ctx context.Context, userID int64, msg *telegram.Message) {
	b.logger.Info("command", "name", "cancel", "user_id", userID)
	s := b.loadSession(ctx, userID)
	if !s.PendingFeedback {
		b.reply(ctx, msg.Chat.ID, nothingToCancelText)
		return
	}
	b.clearFeedbackMode(ctx, msg.Chat.ID, s)
	b.reply(ctx, msg.Chat.ID, feedbackCanceledText)
	b.saveSession(ctx, userID, s)
}

func (b *Bot) clearFeedbackMode(ctx context.Context, chatID int64, s *session.Session) {
	s.PendingFeedback = false
	if s.FeedbackMsgID != 0 {
		if err := b.api.DeleteMessage(ctx, chatID, s.FeedbackMsgID); err != nil {
			b.logger.Warn("feedback_message_delete_error", "chat_id", chatID, "error", err.Error())
		}
	}
	if s.UserFeedbackMsgID != 0 {
		if err := b.api.DeleteMessage(ctx, chatID, s.UserFeedbackMsgID); err != nil {
			b.logger.Warn("feedback_message_delete_error", "chat_id", chatID, "error", err.Error())
		}
	}
	s.FeedbackMsgID = 0
	s.UserFeedbackMsgID = 0
}

var replyPattern = regexp.MustCompile(`(?s)^/reply\s+(\d+)\s+(.+)$`)

// cmdReply relays a team answer from the feedback chat back to a user.
func (b *Bot) cmdReply(ctx context.Context, msg *telegram.Message) {
	if msg.Chat.ID != b.cfg.FeedbackChatID {
		b.logger.Info("reply_outside_feedback_chat", "chat_id", msg.Chat.ID)
		b.reply(ctx, msg.Chat.ID, replyOnlyInFeedback)
		return
	}
	m := replyPattern.FindStringSubmatch(strings.TrimSpace(msg.Text))
	if m == nil {
		b.reply(ctx, msg.Chat.ID, replyFormatText)
		return
	}
	targetID, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		b.reply(ctx, msg.Chat.ID, replyFormatText)
		return
	}

	_, err = b.api.SendMessage(ctx, telegram.SendMessageRequest{
		ChatID:    targetID,
		Text:      "<b>Ответ от команды:</b>\n" + m[2],
		ParseMode: "HTML",
	})
	if err != nil {
		b.logger.Error("reply_deliver_error", "target_user_id", targetID, "error", err.Error())
		b.reply(ctx, msg.Chat.ID, fmt.Sprintf(
			"Не удалось отправить ответ пользователю с ID %d. 😔 Возможно, пользователь заблокировал бота или ID некорректен.", targetID))
		return
	}
	b.logger.Info("reply_delivered", "target_user_id", targetID)
	b.reply(ctx, msg.Chat.ID, fmt.Sprintf("Ответ успешно отправлен пользователю с ID %d! 😊", targetID))
}
