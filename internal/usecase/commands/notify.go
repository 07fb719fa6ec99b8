package commands

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"marketplace-checkout/internal/domain/order"
	"marketplace-checkout/internal/pkg/errs"
	"marketplace-checkout/internal/usecase/shared"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// dispatch sends every claimable recipient class of o concurrently. A class
// that another worker holds, or that was already sent, is skipped silently.
func (l *ledgerImpl) dispatch(ctx context.Context, o *order.Order, recipients []order.Recipient) (int, []NotificationFailure) {
	// Delivery outlives the inbound request that triggered it; each send is
	// bounded by sendTimeout instead.
	ctx = context.WithoutCancel(ctx)

	var (
		mu       sync.Mutex
		sent     int
		failures []NotificationFailure
	)

	var g errgroup.Group
	for _, r := range recipients {
		g.Go(func() error {
			ok, err := l.deliver(ctx, o, r)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, NotificationFailure{Recipient: r, Err: err})
				return nil
			}
			if ok {
				sent++
			}
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(failures, func(i, j int) bool {
		return failures[i].Recipient < failures[j].Recipient
	})
	return sent, failures
}

// deliver claims one record, sends it and records the outcome. It returns
// false with a nil error when the record was not claimable.
func (l *ledgerImpl) deliver(ctx context.Context, o *order.Order, r order.Recipient) (bool, error) {
	logger := slog.With("order_id", o.ID(), "recipient", r.String())

	now := l.clock.Now()
	var claimed bool
	err := l.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		var err error
		claimed, err = tx.Notifications().Claim(ctx, o.ID(), r, now, now.Add(l.opts.ClaimLease), l.opts.MaxAttempts)
		return err
	})
	if err != nil {
		logger.Error("failed to claim notification", "error", err.Error())
		return false, errs.Mark(err, ErrNotificationFailed)
	}
	if !claimed {
		return false, nil
	}

	sendErr := l.sendWithRetry(ctx, o, r)

	if sendErr == nil {
		err = l.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
			return tx.Notifications().MarkSent(ctx, o.ID(), r, l.clock.Now())
		})
		if err != nil {
			// The message went out; the lease will lapse and the sweeper may resend it.
			logger.Error("notification sent but not recorded", "error", err.Error())
			return false, errs.Mark(err, ErrNotificationFailed)
		}
		l.metrics.NotificationsSent.WithLabelValues(r.String()).Inc()
		logger.Info("notification sent")
		return true, nil
	}

	l.metrics.NotificationsFailed.WithLabelValues(r.String()).Inc()
	logger.Warn("notification failed", "error", sendErr.Error())

	err = l.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		return tx.Notifications().MarkFailed(ctx, o.ID(), r, sendErr.Error())
	})
	if err != nil {
		logger.Error("failed to record notification failure", "error", err.Error())
	}
	return false, errs.Mark(sendErr, ErrNotificationFailed)
}

func (l *ledgerImpl) sendWithRetry(ctx context.Context, o *order.Order, r order.Recipient) error {
	var err error
	for attempt := 1; attempt <= l.opts.InlineAttempts; attempt++ {
		err = l.send(ctx, o, r)
		if err == nil {
			return nil
		}
		if attempt == l.opts.InlineAttempts {
			break
		}
		backoff := l.opts.RetryBackoff * time.Duration(attempt)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return err
}

func (l *ledgerImpl) send(ctx context.Context, o *order.Order, r order.Recipient) error {
	ctx, cancel := context.WithTimeout(ctx, l.sendTimeout)
	defer cancel()

	switch r {
	case order.RecipientOperator:
		return l.dispatcher.NotifyOperator(ctx, o)
	case order.RecipientBuyer:
		return l.dispatcher.NotifyBuyer(ctx, o)
	default:
		return errs.New("unknown recipient " + r.String())
	}
}

// RetryPendingNotifications re-dispatches records left pending or failed by
// earlier signals, and sending records whose lease has lapsed. It returns the
// number of messages delivered. An order that cannot be loaded is skipped so
// the rest of the batch still goes out.
func (l *ledgerImpl) RetryPendingNotifications(ctx context.Context) (int, error) {
	var pending []order.Notification
	err := l.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		var err error
		pending, err = tx.Notifications().ListClaimable(ctx, l.clock.Now(), l.opts.MaxAttempts, l.opts.SweepBatchSize)
		return err
	})
	if err != nil {
		return 0, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	var orderIDs []uuid.UUID
	byOrder := make(map[uuid.UUID][]order.Recipient)
	for _, n := range pending {
		if _, ok := byOrder[n.OrderID]; !ok {
			orderIDs = append(orderIDs, n.OrderID)
		}
		byOrder[n.OrderID] = append(byOrder[n.OrderID], n.Recipient)
	}

	total, skipped := 0, 0
	for _, orderID := range orderIDs {
		// Each order is read in its own transaction: a failed read must not
		// poison the lookups that follow it.
		var o *order.Order
		err := l.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
			var err error
			o, err = tx.Orders().FindByID(ctx, orderID)
			return err
		})
		if err != nil {
			skipped++
			slog.Error("skipping notifications of unreadable order",
				"order_id", orderID,
				"error", err.Error())
			continue
		}

		sent, failures := l.dispatch(ctx, o, byOrder[orderID])
		total += sent
		for _, f := range failures {
			slog.Warn("notification retry failed",
				"order_id", orderID,
				"recipient", f.Recipient.String(),
				"error", f.Err.Error())
		}
	}

	slog.Info("notification sweep finished", "claimable", len(pending), "sent", total, "skipped_orders", skipped)
	return total, nil
}
