package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KMDBKMDBK/emma-bot-railway/internal/search"
	"github.com/KMDBKMDBK/emma-bot-railway/internal/session"
	"github.com/KMDBKMDBK/emma-bot-railway/internal/telegram"
	"github.com/KMDBKMDBK/emma-bot-railway/llm"
)

type orderedCompleter struct {
	mu    sync.Mutex
	texts []string
}

func (o *orderedCompleter) Respond(_ context.Context, _ int64, userText string, _ []llm.Message, _ bool, _ []search.Result) string {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.texts = append(o.texts, userText)
	return "ок"
}

func (o *orderedCompleter) seen() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.texts...)
}

// quietAPI and quietOutbox are no-op collaborators safe to share between
// worker goroutines.
type quietAPI struct{}

func (quietAPI) SendMessage(_ context.Context, _ telegram.SendMessageRequest) (*telegram.Message, error) {
	return &telegram.Message{MessageID: 1}, nil
}

func (quietAPI) SendPhoto(_ context.Context, _ telegram.SendPhotoRequest) (*telegram.Message, error) {
	return &telegram.Message{MessageID: 1}, nil
}

func (quietAPI) SendChatAction(_ context.Context, _ int64, _ string) error { return nil }

func (quietAPI) DeleteMessage(_ context.Context, _ int64, _ int) error { return nil }

func (quietAPI) SendInvoice(_ context.Context, _ telegram.SendInvoiceRequest) (*telegram.Message, error) {
	return &telegram.Message{MessageID: 1}, nil
}

func (quietAPI) AnswerPreCheckoutQuery(_ context.Context, _ string, _ bool, _ string) error {
	return nil
}

func (quietAPI) AnswerCallbackQuery(_ context.Context, _, _ string) error { return nil }

func (quietAPI) SetMyCommands(_ context.Context, _ []telegram.BotCommand) error { return nil }

type quietOutbox struct{}

func (quietOutbox) Send(_ context.Context, _, _ int64, _ string) error { return nil }

func userUpdate(updateID int64, userID int64, text string) telegram.Update {
	return telegram.Update{
		UpdateID: updateID,
		Message: &telegram.Message{
			MessageID: int(updateID),
			Chat:      &telegram.Chat{ID: userID, Type: "private"},
			From:      &telegram.User{ID: userID},
			Text:      text,
		},
	}
}

func TestEnqueueKeepsPerUserArrivalOrder(t *testing.T) {
	completer := &orderedCompleter{}
	b := New(quietAPI{}, session.NewMemoryStore(), completer, &fakeSearcher{}, quietOutbox{}, nil,
		Config{}, slog.Default())

	const n = 12
	want := make([]string, 0, n)
	for i := 0; i < n; i++ {
		text := fmt.Sprintf("сообщение %d", i)
		want = append(want, text)
		b.Enqueue(context.Background(), userUpdate(int64(i+1), 7, text))
	}

	require.Eventually(t, func() bool {
		return len(completer.seen()) == n
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, want, completer.seen())
}

func TestEnqueueReusesOneWorkerPerUser(t *testing.T) {
	completer := &orderedCompleter{}
	b := New(quietAPI{}, session.NewMemoryStore(), completer, &fakeSearcher{}, quietOutbox{}, nil,
		Config{}, slog.Default())

	b.Enqueue(context.Background(), userUpdate(1, 7, "раз"))
	b.Enqueue(context.Background(), userUpdate(2, 8, "два"))
	b.Enqueue(context.Background(), userUpdate(3, 7, "три"))

	require.Eventually(t, func() bool {
		return len(completer.seen()) == 3
	}, 2*time.Second, 10*time.Millisecond)

	b.wmu.Lock()
	defer b.wmu.Unlock()
	assert.Len(t, b.workers, 2)
}
