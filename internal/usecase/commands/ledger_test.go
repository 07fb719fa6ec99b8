//go:build unit

package commands_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"marketplace-checkout/internal/domain/checkout"
	"marketplace-checkout/internal/domain/order"
	"marketplace-checkout/internal/infra"
	"marketplace-checkout/internal/infra/notifier"
	"marketplace-checkout/internal/pkg/errs"
	"marketplace-checkout/internal/usecase/commands"
	"marketplace-checkout/internal/usecase/queries"
	"marketplace-checkout/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signal(ref, amount string) commands.PaymentCompleted {
	return commands.PaymentCompleted{
		PaymentSessionID: ref,
		ProviderEventID:  "evt_" + ref,
		Amount:           usd(amount),
	}
}

// stallingDispatcher hangs the first stalls buyer sends until their context
// ends, like a mail server that accepts the connection and never answers.
type stallingDispatcher struct {
	*notifier.Recorder

	mu        sync.Mutex
	stalls    int
	deadlines []time.Duration
}

func (d *stallingDispatcher) NotifyBuyer(ctx context.Context, o *order.Order) error {
	d.mu.Lock()
	stall := d.stalls > 0
	if stall {
		d.stalls--
	}
	deadline, ok := ctx.Deadline()
	if ok {
		d.deadlines = append(d.deadlines, time.Until(deadline))
	}
	d.mu.Unlock()

	if !stall {
		return d.Recorder.NotifyBuyer(ctx, o)
	}
	if !ok {
		return errors.New("send has no deadline")
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestHandlePaymentCompleted(t *testing.T) {
	ctx := context.Background()

	t.Run("materializes one order and notifies both classes", func(t *testing.T) {
		f := newFixture(t, commands.LedgerOptions{})
		co := f.openCheckout(t, "cs_1")

		res, err := f.ledger.HandlePaymentCompleted(ctx, signal("cs_1", "25.00"))
		require.NoError(t, err)
		require.NotNil(t, res.Order)
		assert.False(t, res.IsReplayed)
		assert.Empty(t, res.NotificationFailures)

		assert.Equal(t, co.SessionID, res.Order.CheckoutSessionID())
		assert.Equal(t, "25.00 USD", res.Order.Total().String())
		assert.Equal(t, "5.00 USD", res.Order.DeliveryPrice().String())
		assert.Equal(t, "1 Main St", res.Order.DeliveryAddress())

		assert.Equal(t, 1, f.recorder.Count(res.Order.ID(), order.RecipientOperator))
		assert.Equal(t, 1, f.recorder.Count(res.Order.ID(), order.RecipientBuyer))

		sessionRM, err := f.reads.FindSession(ctx, co.SessionID)
		require.NoError(t, err)
		assert.Equal(t, checkout.StatusPaid.String(), sessionRM.Status)
	})

	t.Run("redelivered signal replays without side effects", func(t *testing.T) {
		f := newFixture(t, commands.LedgerOptions{})
		f.openCheckout(t, "cs_1")

		first, err := f.ledger.HandlePaymentCompleted(ctx, signal("cs_1", "25.00"))
		require.NoError(t, err)

		for range 3 {
			again, err := f.ledger.HandlePaymentCompleted(ctx, signal("cs_1", "25.00"))
			require.NoError(t, err)
			assert.True(t, again.IsReplayed)
			assert.Equal(t, first.Order.ID(), again.Order.ID())
		}

		assert.Equal(t, 1, f.recorder.Count(first.Order.ID(), order.RecipientOperator))
		assert.Equal(t, 1, f.recorder.Count(first.Order.ID(), order.RecipientBuyer))
		assert.Len(t, f.recorder.Sent(), 2)
	})

	t.Run("concurrent signals create a single order", func(t *testing.T) {
		f := newFixture(t, commands.LedgerOptions{})
		f.openCheckout(t, "cs_race")

		const workers = 20
		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			results []*commands.PaymentCompletedResult
			errList []error
		)
		start := make(chan struct{})
		for range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				res, err := f.ledger.HandlePaymentCompleted(ctx, signal("cs_race", "25.00"))
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					errList = append(errList, err)
					return
				}
				results = append(results, res)
			}()
		}
		close(start)
		wg.Wait()

		require.Empty(t, errList)
		require.Len(t, results, workers)

		created := 0
		orderID := results[0].Order.ID()
		for _, r := range results {
			assert.Equal(t, orderID, r.Order.ID())
			if !r.IsReplayed {
				created++
			}
		}
		assert.Equal(t, 1, created)
		assert.Equal(t, 1, f.recorder.Count(orderID, order.RecipientOperator))
		assert.Equal(t, 1, f.recorder.Count(orderID, order.RecipientBuyer))
	})

	t.Run("amount mismatch creates nothing", func(t *testing.T) {
		f := newFixture(t, commands.LedgerOptions{})
		co := f.openCheckout(t, "cs_1")

		res, err := f.ledger.HandlePaymentCompleted(ctx, signal("cs_1", "24.99"))
		assert.Nil(t, res)
		assert.True(t, errs.Is(err, commands.ErrAmountMismatch))
		assert.True(t, commands.IsAnomaly(err))

		_, err = f.reads.FindOrderBySession(ctx, co.SessionID)
		assert.True(t, infra.IsKind(err, infra.KindNotFound))
		assert.Empty(t, f.recorder.Sent())

		sessionRM, err := f.reads.FindSession(ctx, co.SessionID)
		require.NoError(t, err)
		assert.Equal(t, checkout.StatusAwaitingPayment.String(), sessionRM.Status)
	})

	t.Run("unknown payment session", func(t *testing.T) {
		f := newFixture(t, commands.LedgerOptions{})

		_, err := f.ledger.HandlePaymentCompleted(ctx, signal("cs_nobody", "25.00"))
		assert.True(t, errs.Is(err, commands.ErrUnknownSession))
		assert.True(t, commands.IsAnomaly(err))
	})

	t.Run("expired session rejects the signal", func(t *testing.T) {
		f := newFixture(t, commands.LedgerOptions{})
		co := f.openCheckout(t, "cs_1")

		err := f.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
			_, err := tx.Sessions().CompareAndSetStatus(ctx, co.SessionID, checkout.PayableStatuses(), checkout.StatusExpired, fixedNow)
			return err
		})
		require.NoError(t, err)

		_, err = f.ledger.HandlePaymentCompleted(ctx, signal("cs_1", "25.00"))
		assert.True(t, errs.Is(err, commands.ErrSignalRejected))

		_, err = f.reads.FindOrderBySession(ctx, co.SessionID)
		assert.True(t, infra.IsKind(err, infra.KindNotFound))
	})

	t.Run("replay skips the amount check", func(t *testing.T) {
		f := newFixture(t, commands.LedgerOptions{})
		f.openCheckout(t, "cs_1")

		first, err := f.ledger.HandlePaymentCompleted(ctx, signal("cs_1", "25.00"))
		require.NoError(t, err)

		// A replay with a different amount still reports the existing order.
		again, err := f.ledger.HandlePaymentCompleted(ctx, signal("cs_1", "1.00"))
		require.NoError(t, err)
		assert.True(t, again.IsReplayed)
		assert.Equal(t, first.Order.ID(), again.Order.ID())
	})

	t.Run("notification failure does not undo the order", func(t *testing.T) {
		f := newFixture(t, commands.LedgerOptions{InlineAttempts: 2})
		f.openCheckout(t, "cs_1")
		f.recorder.Fail(order.RecipientBuyer, 2, errors.New("mailbox unavailable"))

		res, err := f.ledger.HandlePaymentCompleted(ctx, signal("cs_1", "25.00"))
		require.NoError(t, err)
		require.Len(t, res.NotificationFailures, 1)
		assert.Equal(t, order.RecipientBuyer, res.NotificationFailures[0].Recipient)
		assert.True(t, errs.Is(res.NotificationFailures[0].Err, commands.ErrNotificationFailed))

		assert.Equal(t, 1, f.recorder.Count(res.Order.ID(), order.RecipientOperator))
		assert.Equal(t, 0, f.recorder.Count(res.Order.ID(), order.RecipientBuyer))

		ns, err := f.reads.ListNotifications(ctx, res.Order.ID())
		require.NoError(t, err)
		require.Len(t, ns, 2)
		buyer := ns[0]
		assert.Equal(t, order.RecipientBuyer.String(), buyer.Recipient)
		assert.Equal(t, string(order.NotificationFailed), buyer.Status)
		assert.Equal(t, 1, buyer.Attempts)
		require.NotNil(t, buyer.LastError)
		assert.Contains(t, *buyer.LastError, "mailbox unavailable")
	})

	t.Run("stalled send ends before its lease so the sweep cannot resend", func(t *testing.T) {
		const lease = 400 * time.Millisecond
		stalling := &stallingDispatcher{stalls: 1}
		f := newFixtureWithDispatcher(t,
			commands.LedgerOptions{ClaimLease: lease, InlineAttempts: 2, RetryBackoff: 10 * time.Millisecond},
			func(rec *notifier.Recorder) commands.NotificationDispatcher {
				stalling.Recorder = rec
				return stalling
			})
		f.openCheckout(t, "cs_1")

		started := time.Now()
		res, err := f.ledger.HandlePaymentCompleted(ctx, signal("cs_1", "25.00"))
		elapsed := time.Since(started)
		require.NoError(t, err)
		assert.Less(t, elapsed, lease)
		assert.Empty(t, res.NotificationFailures)

		require.Len(t, stalling.deadlines, 2)
		for _, d := range stalling.deadlines {
			assert.Less(t, d, lease/2)
		}

		// Long after the lease: the record is settled, nothing is reclaimed.
		f.clock.Add(3 * time.Minute)
		sent, err := f.ledger.RetryPendingNotifications(ctx)
		require.NoError(t, err)
		assert.Zero(t, sent)
		assert.Equal(t, 1, f.recorder.Count(res.Order.ID(), order.RecipientBuyer))
	})

	t.Run("stalled send without inline retries is left for the sweep", func(t *testing.T) {
		const lease = 300 * time.Millisecond
		stalling := &stallingDispatcher{stalls: 1}
		f := newFixtureWithDispatcher(t,
			commands.LedgerOptions{ClaimLease: lease, InlineAttempts: 1},
			func(rec *notifier.Recorder) commands.NotificationDispatcher {
				stalling.Recorder = rec
				return stalling
			})
		f.openCheckout(t, "cs_1")

		res, err := f.ledger.HandlePaymentCompleted(ctx, signal("cs_1", "25.00"))
		require.NoError(t, err)
		require.Len(t, res.NotificationFailures, 1)
		assert.True(t, errs.Is(res.NotificationFailures[0].Err, context.DeadlineExceeded))
		assert.Equal(t, 0, f.recorder.Count(res.Order.ID(), order.RecipientBuyer))

		f.clock.Add(3 * time.Minute)
		sent, err := f.ledger.RetryPendingNotifications(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, sent)

		sent, err = f.ledger.RetryPendingNotifications(ctx)
		require.NoError(t, err)
		assert.Zero(t, sent)
		assert.Equal(t, 1, f.recorder.Count(res.Order.ID(), order.RecipientBuyer))
	})

	t.Run("inline retry recovers a transient failure", func(t *testing.T) {
		f := newFixture(t, commands.LedgerOptions{InlineAttempts: 3})
		f.openCheckout(t, "cs_1")
		f.recorder.Fail(order.RecipientOperator, 2, errors.New("timeout"))

		res, err := f.ledger.HandlePaymentCompleted(ctx, signal("cs_1", "25.00"))
		require.NoError(t, err)
		assert.Empty(t, res.NotificationFailures)
		assert.Equal(t, 1, f.recorder.Count(res.Order.ID(), order.RecipientOperator))
	})
}

func TestRetryPendingNotifications(t *testing.T) {
	ctx := context.Background()

	t.Run("sweep delivers what the signal could not", func(t *testing.T) {
		f := newFixture(t, commands.LedgerOptions{})
		co := f.openCheckout(t, "cs_1")
		f.recorder.Fail(order.RecipientBuyer, 1, errors.New("smtp down"))

		res, err := f.ledger.HandlePaymentCompleted(ctx, signal("cs_1", "25.00"))
		require.NoError(t, err)
		require.Len(t, res.NotificationFailures, 1)

		sent, err := f.ledger.RetryPendingNotifications(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, sent)
		assert.Equal(t, 1, f.recorder.Count(res.Order.ID(), order.RecipientBuyer))
		assert.Equal(t, 1, f.recorder.Count(res.Order.ID(), order.RecipientOperator))

		sent, err = f.ledger.RetryPendingNotifications(ctx)
		require.NoError(t, err)
		assert.Zero(t, sent)

		status, err := queries.NewCheckoutQueries(f.reads).GetOrderStatus(ctx, co.SessionID)
		require.NoError(t, err)
		assert.Equal(t, string(order.LedgerNotificationsSent), status.LedgerState)
	})

	t.Run("lapsed lease of a crashed sender is reclaimed", func(t *testing.T) {
		f := newFixture(t, commands.LedgerOptions{})
		f.openCheckout(t, "cs_1")
		f.recorder.Fail(order.RecipientBuyer, 1, errors.New("smtp down"))

		res, err := f.ledger.HandlePaymentCompleted(ctx, signal("cs_1", "25.00"))
		require.NoError(t, err)
		orderID := res.Order.ID()

		// A sender claims the record and dies before recording the outcome.
		err = f.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
			now := f.clock.Now()
			ok, err := tx.Notifications().Claim(ctx, orderID, order.RecipientBuyer, now, now.Add(claimLease), 5)
			if err != nil {
				return err
			}
			if !ok {
				return errors.New("claim refused")
			}
			return nil
		})
		require.NoError(t, err)

		sent, err := f.ledger.RetryPendingNotifications(ctx)
		require.NoError(t, err)
		assert.Zero(t, sent, "live lease must not be stolen")

		f.clock.Add(claimLease + time.Second)
		sent, err = f.ledger.RetryPendingNotifications(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, sent)
		assert.Equal(t, 1, f.recorder.Count(orderID, order.RecipientBuyer))
	})

	t.Run("a replayed signal also finishes pending deliveries", func(t *testing.T) {
		f := newFixture(t, commands.LedgerOptions{})
		f.openCheckout(t, "cs_1")
		f.recorder.Fail(order.RecipientOperator, 1, errors.New("smtp down"))

		first, err := f.ledger.HandlePaymentCompleted(ctx, signal("cs_1", "25.00"))
		require.NoError(t, err)
		require.Len(t, first.NotificationFailures, 1)

		again, err := f.ledger.HandlePaymentCompleted(ctx, signal("cs_1", "25.00"))
		require.NoError(t, err)
		assert.True(t, again.IsReplayed)
		assert.Empty(t, again.NotificationFailures)
		assert.Equal(t, 1, f.recorder.Count(first.Order.ID(), order.RecipientOperator))
		assert.Equal(t, 1, f.recorder.Count(first.Order.ID(), order.RecipientBuyer))
	})

	t.Run("unreadable order does not stop the batch", func(t *testing.T) {
		f := newFixture(t, commands.LedgerOptions{})
		f.openCheckout(t, "cs_1")
		f.recorder.Fail(order.RecipientBuyer, 1, errors.New("smtp down"))

		res, err := f.ledger.HandlePaymentCompleted(ctx, signal("cs_1", "25.00"))
		require.NoError(t, err)
		require.Len(t, res.NotificationFailures, 1)

		// Records whose order row cannot be loaded.
		err = f.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
			return tx.Notifications().CreatePending(ctx, order.NewPendingNotifications(uuid.New()))
		})
		require.NoError(t, err)

		sent, err := f.ledger.RetryPendingNotifications(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, sent)
		assert.Equal(t, 1, f.recorder.Count(res.Order.ID(), order.RecipientBuyer))
	})

	t.Run("attempts are capped", func(t *testing.T) {
		f := newFixture(t, commands.LedgerOptions{MaxAttempts: 2})
		f.openCheckout(t, "cs_1")
		f.recorder.Fail(order.RecipientBuyer, 100, errors.New("bounced"))

		res, err := f.ledger.HandlePaymentCompleted(ctx, signal("cs_1", "25.00"))
		require.NoError(t, err)

		for range 3 {
			_, err := f.ledger.RetryPendingNotifications(ctx)
			require.NoError(t, err)
		}

		ns, err := f.reads.ListNotifications(ctx, res.Order.ID())
		require.NoError(t, err)
		require.Len(t, ns, 2)
		assert.Equal(t, 2, ns[0].Attempts)
		assert.Equal(t, string(order.NotificationFailed), ns[0].Status)
		assert.Equal(t, 0, f.recorder.Count(res.Order.ID(), order.RecipientBuyer))
	})
}
