package bot

import (
	"context"
	"time"

	"github.com/KMDBKMDBK/emma-bot-railway/internal/telegram"
)

// UpdateSource is the long-polling side of the Telegram client.
type UpdateSource interface {
	GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]telegram.Update, int64, error)
}

const maxConcurrentUpdates = 16

// Poll consumes updates until the context is canceled. Updates are fed to
// per-user workers, so two messages from one user in the same batch are
// handled in batch order.
func (b *Bot) Poll(ctx context.Context, src UpdateSource, timeout time.Duration) error {
	b.logger.Info("polling_started", "timeout", timeout.String())

	var offset int64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		updates, next, err := src.GetUpdates(ctx, offset, timeout)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			b.logger.Error("get_updates_error", "error", err.Error())
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(3 * time.Second):
			}
			continue
		}
		offset = next

		for _, u := range updates {
			b.Enqueue(ctx, u)
		}
	}
}
