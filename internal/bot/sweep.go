package bot

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
)

// PremiumLister finds users whose subscription flag outlived its expiry.
type PremiumLister interface {
	ExpiredPremiumUsers(ctx context.Context, now time.Time) ([]int64, error)
}

// StartPremiumSweep runs an hourly job clearing expired subscriptions, in
// addition to the lazy check on each message. The returned cron is already
// started.
func (b *Bot) StartPremiumSweep(ctx context.Context, lister PremiumLister) *cron.Cron {
	c := cron.New()
	_, err := c.AddFunc("@hourly", func() {
		b.sweepExpiredPremium(ctx, lister)
	})
	if err != nil {
		b.logger.Error("premium_sweep_schedule_error", "error", err.Error())
		return c
	}
	c.Start()
	b.logger.Info("premium_sweep_started")
	return c
}

func (b *Bot) sweepExpiredPremium(ctx context.Context, lister PremiumLister) {
	now := b.now()
	ids, err := lister.ExpiredPremiumUsers(ctx, now)
	if err != nil {
		b.logger.Error("premium_sweep_list_error", "error", err.Error())
		return
	}
	for _, id := range ids {
		b.withUser(id, func(userID int64) {
			err := b.store.Merge(ctx, userID, map[string]any{
				"premium":        false,
				"premium_expiry": time.Time{},
			})
			if err != nil {
				b.logger.Error("premium_sweep_merge_error", "user_id", userID, "error", err.Error())
				return
			}
			b.logger.Info("premium_expired", "user_id", userID)
		})
	}
}
