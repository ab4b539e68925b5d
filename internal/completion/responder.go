// Package completion turns a user message plus conversation history into a
// persona response from the hosted completion endpoint.
package completion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/KMDBKMDBK/emma-bot-railway/internal/search"
	"github.com/KMDBKMDBK/emma-bot-railway/llm"
)

// Flavor selects the markup dialect the persona prompt instructs the model
// to produce.
type Flavor string

const (
	FlavorHTML     Flavor = "html"
	FlavorMarkdown Flavor = "markdown"
)

const (
	// Apology is the single user-facing failure message. No raw errors ever
	// reach the chat.
	Apology = "Извини, что-то пошло не так. 😔 Попробуй ещё раз или спроси что-то другое! 😊"

	defaultMaxRetries = 5
	historyWindow     = 20
	temperature       = 0.3
	maxTokens         = 2000
)

// Meta-questions are answered from persona and history only; search context
// must never leak into them.
var metaQuestions = []string{
	"сколько тебе лет",
	"как тебя зовут",
	"что ты помнишь обо мне",
}

var contradictionMarkers = []string{"расходятся", "противоречия"}

type Responder struct {
	client     llm.Client
	model      string
	flavor     Flavor
	maxRetries int
	logger     *slog.Logger
	sleep      func(ctx context.Context, d time.Duration) error
}

func NewResponder(client llm.Client, model string, flavor Flavor, logger *slog.Logger) *Responder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Responder{
		client:     client,
		model:      model,
		flavor:     flavor,
		maxRetries: defaultMaxRetries,
		logger:     logger,
		sleep:      sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Respond builds the prompt and calls the completion endpoint. Rate-limited
// attempts are retried with exponential backoff; any other failure (and
// exhausted retries) yields the fixed apology string.
func (r *Responder) Respond(ctx context.Context, userID int64, userText string, history []llm.Message, isCodeRequest bool, results []search.Result) string {
	r.logger.Info("completion_request",
		"user_id", userID,
		"code_request", isCodeRequest,
		"search_results", len(results),
	)

	if isMetaQuestion(userText) {
		results = nil
	}

	messages := make([]llm.Message, 0, historyWindow+3)
	messages = append(messages, llm.Message{Role: "system", Content: personaPrompt(r.flavor)})
	tail := history
	if len(tail) > historyWindow {
		tail = tail[len(tail)-historyWindow:]
	}
	messages = append(messages, tail...)
	messages = append(messages, llm.Message{Role: "user", Content: userText})
	if len(results) > 0 {
		messages = append(messages, llm.Message{Role: "user", Content: formatSearchTurn(results)})
	}

	req := llm.Request{
		Model:       r.model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}

	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		res, err := r.client.Chat(ctx, req)
		if err == nil {
			text := res.Text
			if hasContradictionLanguage(text) {
				r.logger.Warn("completion_contradictory_sources", "user_id", userID, "query", userText)
			}
			return text
		}

		var apiErr *llm.APIError
		if errors.As(err, &apiErr) && apiErr.RateLimited() && attempt < r.maxRetries {
			delay := time.Duration(1<<uint(attempt)) * time.Second
			r.logger.Warn("completion_rate_limited",
				"user_id", userID,
				"attempt", attempt+1,
				"retry_in", delay.String(),
			)
			if sleepErr := r.sleep(ctx, delay); sleepErr != nil {
				return Apology
			}
			continue
		}

		r.logger.Error("completion_error", "user_id", userID, "attempt", attempt+1, "error", err.Error())
		return Apology
	}
	return Apology
}

func isMetaQuestion(text string) bool {
	lower := strings.ToLower(text)
	for _, q := range metaQuestions {
		if strings.Contains(lower, q) {
			return true
		}
	}
	return false
}

func hasContradictionLanguage(text string) bool {
	lower := strings.ToLower(text)
	for _, m := range contradictionMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

func formatSearchTurn(results []search.Result) string {
	var b strings.Builder
	b.WriteString("Данные поиска (для агрегации и проверки):\n")
	for i, r := range results {
		fmt.Fprintf(&b, "%d. Заголовок: %s\nОписание: %s\nСсылка: %s\n\n", i+1, r.Title, r.Snippet, r.Link)
	}
	return b.String()
}
