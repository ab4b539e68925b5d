package bot

import (
	"context"

	"github.com/KMDBKMDBK/emma-bot-railway/internal/telegram"
)

// userWorker drains one user's updates in arrival order.
type userWorker struct {
	jobs chan telegram.Update
}

// Enqueue routes an update to its user's worker (per user serial, across
// users parallel, all under the global concurrency cap). Updates with no
// user attached are handled off-queue.
func (b *Bot) Enqueue(ctx context.Context, u telegram.Update) {
	userID := updateUser(u)
	if userID == 0 {
		b.sem <- struct{}{}
		go func() {
			defer func() { <-b.sem }()
			b.HandleUpdate(ctx, u)
		}()
		return
	}

	b.wmu.Lock()
	w := b.workerLocked(ctx, userID)
	b.wmu.Unlock()
	w.jobs <- u
}

func (b *Bot) workerLocked(ctx context.Context, userID int64) *userWorker {
	if w, ok := b.workers[userID]; ok {
		return w
	}
	w := &userWorker{jobs: make(chan telegram.Update, 16)}
	b.workers[userID] = w

	go func() {
		for u := range w.jobs {
			b.sem <- struct{}{}
			b.HandleUpdate(ctx, u)
			<-b.sem
		}
	}()
	return w
}

func updateUser(u telegram.Update) int64 {
	switch {
	case u.PreCheckoutQuery != nil:
		return userOf(u.PreCheckoutQuery.From)
	case u.CallbackQuery != nil:
		return userOf(u.CallbackQuery.From)
	case u.Message != nil:
		return userOf(u.Message.From)
	}
	return 0
}
