package bot

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KMDBKMDBK/emma-bot-railway/internal/search"
	"github.com/KMDBKMDBK/emma-bot-railway/internal/session"
	"github.com/KMDBKMDBK/emma-bot-railway/internal/telegram"
	"github.com/KMDBKMDBK/emma-bot-railway/llm"
)

type fakeAPI struct {
	messages    []telegram.SendMessageRequest
	photos      []telegram.SendPhotoRequest
	invoices    []telegram.SendInvoiceRequest
	deleted     []int
	actions     []string
	precheckout []string
	callbacks   []string
	nextMsgID   int
}

func (f *fakeAPI) SendMessage(_ context.Context, req telegram.SendMessageRequest) (*telegram.Message, error) {
	f.messages = append(f.messages, req)
	f.nextMsgID++
	return &telegram.Message{MessageID: f.nextMsgID}, nil
}

func (f *fakeAPI) SendPhoto(_ context.Context, req telegram.SendPhotoRequest) (*telegram.Message, error) {
	f.photos = append(f.photos, req)
	f.nextMsgID++
	return &telegram.Message{MessageID: f.nextMsgID}, nil
}

func (f *fakeAPI) SendChatAction(_ context.Context, _ int64, action string) error {
	f.actions = append(f.actions, action)
	return nil
}

func (f *fakeAPI) DeleteMessage(_ context.Context, _ int64, messageID int) error {
	f.deleted = append(f.deleted, messageID)
	return nil
}

func (f *fakeAPI) SendInvoice(_ context.Context, req telegram.SendInvoiceRequest) (*telegram.Message, error) {
	f.invoices = append(f.invoices, req)
	f.nextMsgID++
	return &telegram.Message{MessageID: f.nextMsgID}, nil
}

func (f *fakeAPI) AnswerPreCheckoutQuery(_ context.Context, queryID string, ok bool, _ string) error {
	if ok {
		f.precheckout = append(f.precheckout, queryID)
	}
	return nil
}

func (f *fakeAPI) AnswerCallbackQuery(_ context.Context, queryID, _ string) error {
	f.callbacks = append(f.callbacks, queryID)
	return nil
}

func (f *fakeAPI) SetMyCommands(_ context.Context, _ []telegram.BotCommand) error {
	return nil
}

func (f *fakeAPI) lastMessage() telegram.SendMessageRequest {
	return f.messages[len(f.messages)-1]
}

type fakeCompleter struct {
	calls    int
	lastText string
	lastHist []llm.Message
	lastCode bool
	lastRes  []search.Result
	response string
}

func (f *fakeCompleter) Respond(_ context.Context, _ int64, userText string, history []llm.Message, isCodeRequest bool, results []search.Result) string {
	f.calls++
	f.lastText = userText
	f.lastHist = history
	f.lastCode = isCodeRequest
	f.lastRes = results
	return f.response
}

type fakeSearcher struct {
	enabled bool
	calls   int
	results []search.Result
}

func (f *fakeSearcher) Enabled() bool { return f.enabled }

func (f *fakeSearcher) Search(_ context.Context, _, _ string) []search.Result {
	f.calls++
	return f.results
}

type fakeOutbox struct {
	sent []string
}

func (f *fakeOutbox) Send(_ context.Context, _, _ int64, text string) error {
	f.sent = append(f.sent, text)
	return nil
}

type fakePayments struct {
	records []session.PaymentRecord
}

func (f *fakePayments) LogPayment(_ context.Context, rec session.PaymentRecord) error {
	f.records = append(f.records, rec)
	return nil
}

type fixture struct {
	bot       *Bot
	api       *fakeAPI
	store     *session.MemoryStore
	completer *fakeCompleter
	searcher  *fakeSearcher
	outbox    *fakeOutbox
	payments  *fakePayments
	updateID  int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		api:       &fakeAPI{},
		store:     session.NewMemoryStore(),
		completer: &fakeCompleter{response: "ответ Эммы"},
		searcher:  &fakeSearcher{},
		outbox:    &fakeOutbox{},
		payments:  &fakePayments{},
	}
	f.bot = New(f.api, f.store, f.completer, f.searcher, f.outbox, f.payments,
		Config{FeedbackChatID: -100500}, slog.Default())
	return f
}

func (f *fixture) sendText(text string) {
	f.updateID++
	f.bot.HandleUpdate(context.Background(), telegram.Update{
		UpdateID: f.updateID,
		Message: &telegram.Message{
			MessageID: int(f.updateID),
			Chat:      &telegram.Chat{ID: 42, Type: "private"},
			From:      &telegram.User{ID: 7, Username: "misha"},
			Text:      text,
		},
	})
}

func (f *fixture) sendCallback(data string) {
	f.updateID++
	f.bot.HandleUpdate(context.Background(), telegram.Update{
		UpdateID: f.updateID,
		CallbackQuery: &telegram.CallbackQuery{
			ID:      "cb",
			From:    &telegram.User{ID: 7},
			Message: &telegram.Message{Chat: &telegram.Chat{ID: 42}},
			Data:    data,
		},
	})
}

func (f *fixture) session(t *testing.T) *session.Session {
	t.Helper()
	s, err := f.store.Get(context.Background(), 7)
	require.NoError(t, err)
	return s
}

func TestStartResetsSession(t *testing.T) {
	f := newFixture(t)
	f.sendText("привет")
	require.Len(t, f.outbox.sent, 1)

	f.sendText("/start")
	s := f.session(t)
	assert.Empty(t, s.History)
	require.NotEmpty(t, f.api.messages)
	assert.Contains(t, f.api.lastMessage().Text, "Меня зовут Эмма")
}

func TestClearKeepsSubscription(t *testing.T) {
	f := newFixture(t)
	f.sendText("привет")
	s := f.session(t)
	s.ExtendPremium(time.Now(), 30)
	require.NoError(t, f.store.Put(context.Background(), 7, s))

	f.sendText("/clear")
	s = f.session(t)
	assert.Empty(t, s.History)
	assert.True(t, s.Premium)
	assert.Contains(t, f.api.lastMessage().Text, "История очищена")
}

func TestPipelineAppendsHistoryAndTopic(t *testing.T) {
	f := newFixture(t)
	f.completer.response = "Вселенная огромна, а космос полон звёзд."

	f.sendText("расскажи про космос")

	require.Equal(t, 1, f.completer.calls)
	assert.Equal(t, "расскажи про космос", f.completer.lastText)
	require.Len(t, f.outbox.sent, 1)
	assert.Equal(t, f.completer.response, f.outbox.sent[0])
	assert.Contains(t, f.api.actions, "typing")

	s := f.session(t)
	require.Len(t, s.History, 2)
	assert.Equal(t, "user", s.History[0].Role)
	assert.Equal(t, "universe", s.ActiveTopic)
}

func TestPipelineSkipsSearchForCodeRequests(t *testing.T) {
	f := newFixture(t)
	f.searcher.enabled = true
	f.searcher.results = []search.Result{{Title: "t", Snippet: "s", Link: "l"}}

	f.sendText("напиши код python для сортировки")

	assert.Equal(t, 0, f.searcher.calls)
	assert.True(t, f.completer.lastCode)
	assert.Nil(t, f.completer.lastRes)
}

func TestPipelinePassesRelevantResults(t *testing.T) {
	f := newFixture(t)
	f.searcher.enabled = true
	f.searcher.results = []search.Result{
		{Title: "Марс планета", Snippet: "Марс — четвёртая планета солнечной системы", Link: "https://example.com"},
	}

	f.sendText("Марс планета солнечной системы")

	assert.Equal(t, 1, f.searcher.calls)
	require.Len(t, f.completer.lastRes, 1)
}

func TestPipelineDiscardsIrrelevantResults(t *testing.T) {
	f := newFixture(t)
	f.searcher.enabled = true
	f.searcher.results = []search.Result{
		{Title: "рецепт борща", Snippet: "как варить свёклу", Link: "https://example.com"},
	}

	f.sendText("Марс планета солнечной системы")

	assert.Equal(t, 1, f.searcher.calls)
	assert.Nil(t, f.completer.lastRes)
}

func TestRateLimitBlocksAfterQuota(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < session.FreeDailyLimit; i++ {
		f.sendText("вопрос")
	}
	require.Equal(t, session.FreeDailyLimit, f.completer.calls)

	f.sendText("ещё вопрос")
	assert.Equal(t, session.FreeDailyLimit, f.completer.calls)
	assert.Contains(t, f.api.lastMessage().Text, "Лимит запросов")
}

func TestPremiumBypassesRateLimit(t *testing.T) {
	f := newFixture(t)
	f.sendText("привет")
	s := f.session(t)
	s.ExtendPremium(time.Now(), 30)
	require.NoError(t, f.store.Put(context.Background(), 7, s))

	for i := 0; i < session.FreeDailyLimit+10; i++ {
		f.sendText("вопрос")
	}
	assert.Equal(t, session.FreeDailyLimit+11, f.completer.calls)
}

func TestLazyPremiumExpiry(t *testing.T) {
	f := newFixture(t)
	f.sendText("привет")
	s := f.session(t)
	s.Premium = true
	s.PremiumExpiry = time.Now().Add(-time.Hour)
	require.NoError(t, f.store.Put(context.Background(), 7, s))

	f.sendText("ещё")
	s = f.session(t)
	assert.False(t, s.Premium)
}

func TestFeedbackFlow(t *testing.T) {
	f := newFixture(t)
	f.sendText("/feedback")
	s := f.session(t)
	assert.True(t, s.PendingFeedback)
	assert.NotZero(t, s.FeedbackMsgID)

	f.sendText("кнопка оплаты не работает")

	var relayed *telegram.SendMessageRequest
	for i := range f.api.messages {
		if f.api.messages[i].ChatID == -100500 {
			relayed = &f.api.messages[i]
		}
	}
	require.NotNil(t, relayed)
	assert.Contains(t, relayed.Text, "ID: 7")
	assert.Contains(t, relayed.Text, "@misha")
	assert.Contains(t, relayed.Text, "кнопка оплаты не работает")

	s = f.session(t)
	assert.False(t, s.PendingFeedback)
	// feedback must not reach the model
	assert.Equal(t, 0, f.completer.calls)
}

func TestCancelFeedback(t *testing.T) {
	f := newFixture(t)
	f.sendText("/feedback")
	f.sendText("/cancel")

	s := f.session(t)
	assert.False(t, s.PendingFeedback)
	assert.Contains(t, f.api.lastMessage().Text, "Режим обратной связи отменён")
	assert.NotEmpty(t, f.api.deleted)
}

func TestShowPlansCallback(t *testing.T) {
	f := newFixture(t)
	f.sendCallback("show_plans")

	require.NotEmpty(t, f.api.messages)
	last := f.api.lastMessage()
	assert.Contains(t, last.Text, "тарифных планов")
	require.NotNil(t, last.ReplyMarkup)
	assert.Equal(t, "plan_1month", last.ReplyMarkup.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, []string{"cb"}, f.api.callbacks)
}

func TestPlanCallbackSendsInvoice(t *testing.T) {
	f := newFixture(t)
	f.sendCallback("plan_3months")

	require.Len(t, f.api.invoices, 1)
	inv := f.api.invoices[0]
	assert.Equal(t, "XTR", inv.Currency)
	assert.Equal(t, "emma_premium_3months", inv.Payload)
	require.Len(t, inv.Prices, 1)
	assert.Equal(t, 600, inv.Prices[0].Amount)
	assert.True(t, inv.ReplyMarkup.InlineKeyboard[0][0].Pay)
}

func TestPreCheckoutApproved(t *testing.T) {
	f := newFixture(t)
	f.updateID++
	f.bot.HandleUpdate(context.Background(), telegram.Update{
		UpdateID: f.updateID,
		PreCheckoutQuery: &telegram.PreCheckoutQuery{
			ID:             "pcq-1",
			From:           &telegram.User{ID: 7},
			Currency:       "XTR",
			TotalAmount:    250,
			InvoicePayload: "emma_premium_1month",
		},
	})
	assert.Equal(t, []string{"pcq-1"}, f.api.precheckout)
}

func TestSuccessfulPaymentActivatesPremium(t *testing.T) {
	f := newFixture(t)
	f.updateID++
	f.bot.HandleUpdate(context.Background(), telegram.Update{
		UpdateID: f.updateID,
		Message: &telegram.Message{
			MessageID: 9,
			Chat:      &telegram.Chat{ID: 42},
			From:      &telegram.User{ID: 7},
			SuccessfulPayment: &telegram.SuccessfulPayment{
				Currency:                "XTR",
				TotalAmount:             250,
				InvoicePayload:          "emma_premium_1month",
				TelegramPaymentChargeID: "charge-1",
			},
		},
	})

	s := f.session(t)
	assert.True(t, s.Premium)
	assert.True(t, s.PremiumExpiry.After(time.Now().AddDate(0, 0, 29)))

	require.Len(t, f.payments.records, 1)
	rec := f.payments.records[0]
	assert.Equal(t, "plan_1month", rec.PlanID)
	assert.Equal(t, 250, rec.Stars)
	assert.Equal(t, "charge-1", rec.ChargeID)

	assert.Contains(t, f.api.lastMessage().Text, "премиум-пользователь")
}

func TestUnknownPayloadRejected(t *testing.T) {
	f := newFixture(t)
	f.updateID++
	f.bot.HandleUpdate(context.Background(), telegram.Update{
		UpdateID: f.updateID,
		Message: &telegram.Message{
			Chat:              &telegram.Chat{ID: 42},
			From:              &telegram.User{ID: 7},
			SuccessfulPayment: &telegram.SuccessfulPayment{InvoicePayload: "bogus"},
		},
	})

	_, err := f.store.Get(context.Background(), 7)
	assert.ErrorIs(t, err, session.ErrNotFound)
	assert.Contains(t, f.api.lastMessage().Text, "Ошибка при обработке платежа")
	assert.Empty(t, f.payments.records)
}

func TestDuplicateUpdateIgnored(t *testing.T) {
	f := newFixture(t)
	u := telegram.Update{
		UpdateID: 555,
		Message: &telegram.Message{
			Chat: &telegram.Chat{ID: 42},
			From: &telegram.User{ID: 7},
			Text: "привет",
		},
	}
	f.bot.HandleUpdate(context.Background(), u)
	f.bot.HandleUpdate(context.Background(), u)
	assert.Equal(t, 1, f.completer.calls)
}

func TestReplyCommand(t *testing.T) {
	f := newFixture(t)
	f.updateID++
	f.bot.HandleUpdate(context.Background(), telegram.Update{
		UpdateID: f.updateID,
		Message: &telegram.Message{
			Chat: &telegram.Chat{ID: -100500},
			From: &telegram.User{ID: 99},
			Text: "/reply 7 Спасибо за отзыв!",
		},
	})

	require.NotEmpty(t, f.api.messages)
	assert.Equal(t, int64(7), f.api.messages[0].ChatID)
	assert.True(t, strings.Contains(f.api.messages[0].Text, "Ответ от команды"))
	assert.Contains(t, f.api.lastMessage().Text, "успешно отправлен")
}

func TestReplyOutsideFeedbackChat(t *testing.T) {
	f := newFixture(t)
	f.sendText("/reply 7 привет")
	require.Len(t, f.api.messages, 1)
	assert.Contains(t, f.api.lastMessage().Text, "только в чате для обратной связи")
}

func TestNonTextMessageHint(t *testing.T) {
	f := newFixture(t)
	f.sendText("   ")
	assert.Equal(t, 0, f.completer.calls)
	assert.Contains(t, f.api.lastMessage().Text, "только текстовые сообщения")
}
