package bot

import (
	"context"

	"github.com/KMDBKMDBK/emma-bot-railway/internal/session"
	"github.com/KMDBKMDBK/emma-bot-railway/internal/telegram"
)

func (b *Bot) handleCallback(ctx context.Context, userID int64, cb *telegram.CallbackQuery) {
	b.logger.Info("callback", "data", cb.Data, "user_id", userID)
	if cb.Message == nil || cb.Message.Chat == nil {
		b.answerCallback(ctx, cb.ID)
		return
	}
	chatID := cb.Message.Chat.ID
	s := b.loadSession(ctx, userID)

	switch {
	case cb.Data == "show_plans" || cb.Data == "back_to_plans":
		b.showPlans(ctx, chatID, s)
	case cb.Data == "back_to_pay":
		b.showPayScreen(ctx, chatID, s)
	case cb.Data == "cancel_feedback":
		b.cancelFeedbackCallback(ctx, chatID, s)
	default:
		if plan, ok := Plans[cb.Data]; ok {
			b.showInvoice(ctx, chatID, s, plan)
		}
	}

	b.saveSession(ctx, userID, s)
	b.answerCallback(ctx, cb.ID)
}

func (b *Bot) answerCallback(ctx context.Context, callbackID string) {
	if err := b.api.AnswerCallbackQuery(ctx, callbackID, ""); err != nil {
		b.logger.Warn("callback_answer_error", "error", err.Error())
	}
}

func (b *Bot) showPlans(ctx context.Context, chatID int64, s *session.Session) {
	b.deleteLastPayMessage(ctx, chatID, s)
	markup := &telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{
			{{Text: "🎀1 Месяц🎀", CallbackData: "plan_1month"}},
			{{Text: "🎀3 месяца🎀", CallbackData: "plan_3months"}},
			{{Text: "🎀12 месяцев🎀", CallbackData: "plan_12months"}},
			{{Text: "Назад", CallbackData: "back_to_pay"}},
		},
	}
	if msg := b.sendWithPhoto(ctx, chatID, b.cfg.PayImageURL, plansText, markup); msg != nil {
		s.LastPayMsgID = msg.MessageID
	}
}

// showInvoice presents one tariff and issues its Stars invoice.
func (b *Bot) showInvoice(ctx context.Context, chatID int64, s *session.Session, plan Plan) {
	b.deleteLastPayMessage(ctx, chatID, s)
	markup := &telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{
			{{Text: "Подписаться", Pay: true}},
			{{Text: "Назад", CallbackData: "back_to_plans"}},
		},
	}
	if msg := b.sendWithPhoto(ctx, chatID, b.cfg.PayImageURL, plan.Description, markup); msg != nil {
		s.LastPayMsgID = msg.MessageID
	}

	_, err := b.api.SendInvoice(ctx, telegram.SendInvoiceRequest{
		ChatID:      chatID,
		Title:       plan.Title,
		Description: plan.Description,
		Payload:     plan.Payload,
		Currency:    "XTR",
		Prices:      []telegram.LabeledPrice{{Label: plan.Label, Amount: plan.Stars}},
		ReplyMarkup: markup,
	})
	if err != nil {
		b.logger.Error("invoice_send_error", "chat_id", chatID, "plan", plan.ID, "error", err.Error())
		b.reply(ctx, chatID, somethingWrongText)
	}
}

func (b *Bot) cancelFeedbackCallback(ctx context.Context, chatID int64, s *session.Session) {
	if !s.PendingFeedback {
		b.reply(ctx, chatID, feedbackClosedText)
		return
	}
	b.clearFeedbackMode(ctx, chatID, s)
	b.reply(ctx, chatID, feedbackCanceledText)
}
