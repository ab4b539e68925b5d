package completion

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KMDBKMDBK/emma-bot-railway/internal/search"
	"github.com/KMDBKMDBK/emma-bot-railway/llm"
)

type scriptedClient struct {
	calls   int
	lastReq llm.Request
	respond func(call int, req llm.Request) (llm.Result, error)
}

func (c *scriptedClient) Chat(_ context.Context, req llm.Request) (llm.Result, error) {
	c.calls++
	c.lastReq = req
	return c.respond(c.calls, req)
}

func newTestResponder(client llm.Client) *Responder {
	r := NewResponder(client, "test-model", FlavorHTML, slog.Default())
	r.sleep = func(context.Context, time.Duration) error { return nil }
	return r
}

func TestRespondAppendsSearchTurn(t *testing.T) {
	client := &scriptedClient{respond: func(int, llm.Request) (llm.Result, error) {
		return llm.Result{Text: "ответ"}, nil
	}}
	r := newTestResponder(client)

	results := []search.Result{
		{Title: "Марс", Snippet: "четвёртая планета", Link: "https://example.com/mars"},
		{Title: "Юпитер", Snippet: "газовый гигант", Link: "https://example.com/jupiter"},
	}
	out := r.Respond(context.Background(), 1, "расскажи про планеты", nil, false, results)

	require.Equal(t, "ответ", out)
	msgs := client.lastReq.Messages
	require.Len(t, msgs, 3)
	assert.Equal(t, "system", msgs[0].Role)
	assert.Equal(t, "расскажи про планеты", msgs[1].Content)
	assert.Contains(t, msgs[2].Content, "1. Заголовок: Марс")
	assert.Contains(t, msgs[2].Content, "2. Заголовок: Юпитер")
	assert.Contains(t, msgs[2].Content, "https://example.com/jupiter")
}

func TestRespondMetaQuestionSuppressesSearch(t *testing.T) {
	client := &scriptedClient{respond: func(int, llm.Request) (llm.Result, error) {
		return llm.Result{Text: "меня зовут Эмма"}, nil
	}}
	r := newTestResponder(client)

	results := []search.Result{{Title: "t", Snippet: "s", Link: "l"}}
	out := r.Respond(context.Background(), 1, "Привет! Как тебя зовут?", nil, false, results)

	require.Equal(t, "меня зовут Эмма", out)
	// system + user only, no search turn
	require.Len(t, client.lastReq.Messages, 2)
}

func TestRespondWindowsHistory(t *testing.T) {
	client := &scriptedClient{respond: func(int, llm.Request) (llm.Result, error) {
		return llm.Result{Text: "ok"}, nil
	}}
	r := newTestResponder(client)

	history := make([]llm.Message, 30)
	for i := range history {
		history[i] = llm.Message{Role: "user", Content: fmt.Sprintf("msg %d", i)}
	}
	r.Respond(context.Background(), 1, "последний вопрос", history, false, nil)

	msgs := client.lastReq.Messages
	require.Len(t, msgs, 22)
	assert.Equal(t, "msg 10", msgs[1].Content)
	assert.Equal(t, "msg 29", msgs[20].Content)
	assert.Equal(t, "последний вопрос", msgs[21].Content)
}

func TestRespondRequestParameters(t *testing.T) {
	client := &scriptedClient{respond: func(int, llm.Request) (llm.Result, error) {
		return llm.Result{Text: "ok"}, nil
	}}
	r := newTestResponder(client)
	r.Respond(context.Background(), 1, "вопрос", nil, false, nil)

	assert.Equal(t, "test-model", client.lastReq.Model)
	assert.InDelta(t, 0.3, client.lastReq.Temperature, 1e-9)
	assert.Equal(t, 2000, client.lastReq.MaxTokens)
}

func TestRespondNonRateLimitErrorFailsFast(t *testing.T) {
	client := &scriptedClient{respond: func(int, llm.Request) (llm.Result, error) {
		return llm.Result{}, &llm.APIError{StatusCode: 500, Message: "boom"}
	}}
	r := newTestResponder(client)

	out := r.Respond(context.Background(), 1, "вопрос", nil, false, nil)
	assert.Equal(t, Apology, out)
	assert.Equal(t, 1, client.calls)
}

func TestRespondRetriesOnRateLimit(t *testing.T) {
	client := &scriptedClient{respond: func(call int, _ llm.Request) (llm.Result, error) {
		if call < 3 {
			return llm.Result{}, &llm.APIError{StatusCode: 429, Message: "slow down"}
		}
		return llm.Result{Text: "наконец-то"}, nil
	}}
	r := newTestResponder(client)
	var delays []time.Duration
	r.sleep = func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}

	out := r.Respond(context.Background(), 1, "вопрос", nil, false, nil)
	require.Equal(t, "наконец-то", out)
	assert.Equal(t, 3, client.calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, delays)
}

func TestRespondExhaustsRetries(t *testing.T) {
	client := &scriptedClient{respond: func(int, llm.Request) (llm.Result, error) {
		return llm.Result{}, &llm.APIError{StatusCode: 429, Message: "slow down"}
	}}
	r := newTestResponder(client)

	out := r.Respond(context.Background(), 1, "вопрос", nil, false, nil)
	assert.Equal(t, Apology, out)
	assert.Equal(t, 6, client.calls)
}

func TestPersonaPromptFlavors(t *testing.T) {
	html := personaPrompt(FlavorHTML)
	md := personaPrompt(FlavorMarkdown)
	assert.Contains(t, html, "<b>текст</b>")
	assert.NotContains(t, html, "MarkdownV2")
	assert.Contains(t, md, "[текст](url)")
	assert.NotContains(t, md, "<b>")
}
