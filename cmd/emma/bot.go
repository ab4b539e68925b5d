package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/KMDBKMDBK/emma-bot-railway/internal/bot"
	"github.com/KMDBKMDBK/emma-bot-railway/internal/completion"
	"github.com/KMDBKMDBK/emma-bot-railway/internal/dispatch"
	"github.com/KMDBKMDBK/emma-bot-railway/internal/logutil"
	"github.com/KMDBKMDBK/emma-bot-railway/internal/search"
	"github.com/KMDBKMDBK/emma-bot-railway/internal/session"
	fsstore "github.com/KMDBKMDBK/emma-bot-railway/internal/storage/firestore"
	"github.com/KMDBKMDBK/emma-bot-railway/internal/telegram"
	"github.com/KMDBKMDBK/emma-bot-railway/providers/openrouter"
)

func newBotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bot",
		Short: "Run the Telegram bot (long polling or webhook)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBot(cmd.Context())
		},
	}

	cmd.Flags().String("mode", "", "Update delivery: poll|webhook (default poll).")
	_ = viper.BindPFlag("server.mode", cmd.Flags().Lookup("mode"))
	cmd.Flags().String("addr", "", "Webhook listen address (default :8080).")
	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))

	return cmd
}

func runBot(parent context.Context) error {
	logger, err := logutil.LoggerFromViper()
	if err != nil {
		return err
	}

	token := strings.TrimSpace(viper.GetString("telegram.token"))
	if token == "" {
		return fmt.Errorf("telegram.token is required (EMMA_TELEGRAM_TOKEN)")
	}
	apiKey := strings.TrimSpace(viper.GetString("llm.api_key"))
	if apiKey == "" {
		return fmt.Errorf("llm.api_key is required (EMMA_LLM_API_KEY)")
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	api := telegram.New(nil, viper.GetString("telegram.base_url"), token)
	me, err := api.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("telegram getMe: %w", err)
	}
	logger.Info("bot_identity", "username", me.Username, "id", me.ID)

	llmClient := openrouter.New(viper.GetString("llm.base_url"), apiKey)
	responder := completion.NewResponder(llmClient, viper.GetString("llm.model"), completion.FlavorHTML, logger)

	searcher := search.New(search.Config{
		APIKey:     viper.GetString("search.api_key"),
		EngineID:   viper.GetString("search.engine_id"),
		NumResults: viper.GetInt("search.num_results"),
		Locale:     viper.GetString("search.locale"),
	}, logger)
	if !searcher.Enabled() {
		logger.Warn("search_disabled", "reason", "missing api key or engine id")
	}

	var (
		store    session.Store
		msgLog   dispatch.MessageLog
		payments bot.PaymentLog
		sweeper  bot.PremiumLister
	)
	if project := strings.TrimSpace(viper.GetString("firestore.project")); project != "" {
		fs, err := fsstore.NewStore(ctx, project)
		if err != nil {
			return fmt.Errorf("firestore: %w", err)
		}
		defer func() { _ = fs.Close() }()
		store, msgLog, payments, sweeper = fs, fs, fs, fs
		logger.Info("storage", "backend", "firestore", "project", project)
	} else {
		store = session.NewMemoryStore()
		logger.Warn("storage", "backend", "memory", "note", "state is lost on restart")
	}

	dispatcher := dispatch.New(api, msgLog,
		viper.GetString("bot.miniapp_url"),
		viper.GetString("bot.miniapp_button_text"),
		logger)

	b := bot.New(api, store, responder, searcher, dispatcher, payments, bot.Config{
		FeedbackChatID: viper.GetInt64("bot.feedback_chat_id"),
		StartImageURL:  viper.GetString("bot.start_image_url"),
		PayImageURL:    viper.GetString("bot.pay_image_url"),
	}, logger)

	if err := api.SetMyCommands(ctx, bot.Commands); err != nil {
		logger.Warn("set_commands_error", "error", err.Error())
	}

	if sweeper != nil {
		c := b.StartPremiumSweep(ctx, sweeper)
		defer c.Stop()
	}

	switch mode := strings.ToLower(strings.TrimSpace(viper.GetString("server.mode"))); mode {
	case "", "poll":
		// A leftover webhook makes getUpdates return HTTP 409.
		if err := api.DeleteWebhook(ctx); err != nil {
			return fmt.Errorf("delete webhook: %w", err)
		}
		timeout := time.Duration(viper.GetInt("telegram.poll_timeout_seconds")) * time.Second
		err := b.Poll(ctx, api, timeout)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	case "webhook":
		publicURL := strings.TrimRight(strings.TrimSpace(viper.GetString("server.public_url")), "/")
		if publicURL == "" {
			return fmt.Errorf("server.public_url is required in webhook mode (EMMA_SERVER_PUBLIC_URL)")
		}
		webhookURL := fmt.Sprintf("%s/webhook/%s", publicURL, token)
		if err := api.SetWebhook(ctx, webhookURL); err != nil {
			return fmt.Errorf("set webhook: %w", err)
		}
		logger.Info("webhook_registered", "url", publicURL+"/webhook/***")
		defer func() {
			delCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := api.DeleteWebhook(delCtx); err != nil {
				logger.Warn("delete_webhook_error", "error", err.Error())
			}
		}()
		return serveWebhook(ctx, logger, b, token)
	default:
		return fmt.Errorf("unknown server.mode: %s", mode)
	}
}

func serveWebhook(ctx context.Context, logger *slog.Logger, b *bot.Bot, token string) error {
	srv := &http.Server{
		Addr:              viper.GetString("server.addr"),
		Handler:           bot.WebhookHandler(b, token),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("webhook_listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("webhook_shutdown_error", "error", err.Error())
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
