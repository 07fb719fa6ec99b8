package worker

import (
	"context"
	"log/slog"
	"time"
)

const defaultSweepInterval = time.Minute

type NotificationRetrier interface {
	RetryPendingNotifications(ctx context.Context) (int, error)
}

// NotificationSweeper periodically re-dispatches notifications that an
// earlier signal left undelivered.
type NotificationSweeper struct {
	retrier  NotificationRetrier
	interval time.Duration
}

func NewNotificationSweeper(retrier NotificationRetrier, interval time.Duration) *NotificationSweeper {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	return &NotificationSweeper{retrier: retrier, interval: interval}
}

func (s *NotificationSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (s *NotificationSweeper) sweep(ctx context.Context) {
	sent, err := s.retrier.RetryPendingNotifications(ctx)
	if err != nil {
		slog.Error("notification sweep failed", "error", err.Error())
		return
	}
	if sent > 0 {
		slog.Info("notification sweep delivered messages", "sent", sent)
	}
}
