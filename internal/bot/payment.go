package bot

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/KMDBKMDBK/emma-bot-railway/internal/session"
	"github.com/KMDBKMDBK/emma-bot-railway/internal/telegram"
)

// handlePreCheckout approves every pre-checkout query; the payload is
// validated again when the payment lands.
func (b *Bot) handlePreCheckout(ctx context.Context, q *telegram.PreCheckoutQuery) {
	b.logger.Info("pre_checkout", "user_id", userOf(q.From), "payload", q.InvoicePayload)
	if err := b.api.AnswerPreCheckoutQuery(ctx, q.ID, true, ""); err != nil {
		b.logger.Error("pre_checkout_answer_error", "error", err.Error())
	}
}

// handleSuccessfulPayment activates the purchased plan, records the
// payment and confirms to the user.
func (b *Bot) handleSuccessfulPayment(ctx context.Context, userID int64, msg *telegram.Message) {
	payment := msg.SuccessfulPayment
	b.logger.Info("payment_received",
		"user_id", userID,
		"payload", payment.InvoicePayload,
		"stars", payment.TotalAmount,
	)

	plan, ok := planByPayload(payment.InvoicePayload)
	if !ok {
		b.logger.Error("payment_unknown_payload", "user_id", userID, "payload", payment.InvoicePayload)
		b.reply(ctx, msg.Chat.ID, paymentErrorText)
		return
	}

	now := b.now()
	s := b.loadSession(ctx, userID)
	s.ExtendPremium(now, plan.Days)
	b.deleteLastPayMessage(ctx, msg.Chat.ID, s)
	b.saveSession(ctx, userID, s)

	if b.payments != nil {
		rec := session.PaymentRecord{
			ID:       uuid.NewString(),
			UserID:   userID,
			PlanID:   plan.ID,
			Stars:    plan.Stars,
			Days:     plan.Days,
			ChargeID: payment.TelegramPaymentChargeID,
			PaidAt:   now,
		}
		if err := b.payments.LogPayment(ctx, rec); err != nil {
			b.logger.Error("payment_log_error", "user_id", userID, "error", err.Error())
		}
	}

	b.reply(ctx, msg.Chat.ID, fmt.Sprintf(
		"Спасибо за поддержку, ты теперь премиум-пользователь! 🎉 Подписка на %s активна до %s. Наслаждайся всеми функциями! 😊✨",
		plan.Label, s.PremiumExpiry.Format("2006-01-02")))
}
