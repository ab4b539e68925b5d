package bot

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/KMDBKMDBK/emma-bot-railway/internal/telegram"
)

// WebhookHandler serves Telegram webhook deliveries plus a health probe.
// The bot token doubles as the webhook path secret.
func WebhookHandler(b *Bot, token string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Post("/webhook/{token}", func(w http.ResponseWriter, req *http.Request) {
		if chi.URLParam(req, "token") != token {
			b.logger.Warn("webhook_bad_token", "remote", req.RemoteAddr)
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		var u telegram.Update
		if err := json.NewDecoder(req.Body).Decode(&u); err != nil {
			b.logger.Warn("webhook_decode_error", "error", err.Error())
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		// Queue before acknowledging so same-user deliveries keep their
		// arrival order. The request context dies with the response, so
		// handling gets its own.
		b.Enqueue(context.Background(), u)
		w.WriteHeader(http.StatusOK)
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	return r
}
