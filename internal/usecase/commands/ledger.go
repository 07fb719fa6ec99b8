package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"marketplace-checkout/internal/domain/checkout"
	"marketplace-checkout/internal/domain/money"
	"marketplace-checkout/internal/domain/order"
	"marketplace-checkout/internal/infra"
	"marketplace-checkout/internal/pkg/clock"
	"marketplace-checkout/internal/pkg/errs"
	"marketplace-checkout/internal/pkg/metrics"
	"marketplace-checkout/internal/usecase/shared"
)

//go:generate mockgen -source=ledger.go -destination=../../../tests/mock/commands/mock_ledger.go -package=commandsmock

var (
	ErrUnknownSession     = errs.New("unknown payment session")
	ErrSignalRejected     = errs.New("payment signal rejected")
	ErrAmountMismatch     = errs.New("payment amount mismatch")
	ErrNotificationFailed = errs.New("notification dispatch failed")

	errOrderRace = errs.New("order already materialized concurrently")
)

const (
	maxMaterializeAttempts = 2
	defaultClaimLease      = 2 * time.Minute
)

type PaymentCompleted struct {
	PaymentSessionID string
	ProviderEventID  string
	Amount           money.Money
}

type NotificationFailure struct {
	Recipient order.Recipient
	Err       error
}

type PaymentCompletedResult struct {
	Order                *order.Order
	IsReplayed           bool
	NotificationFailures []NotificationFailure
}

// IsAnomaly reports whether err is a webhook-time integrity problem that a
// redelivery of the same signal cannot fix.
func IsAnomaly(err error) bool {
	return errs.Is(err, ErrUnknownSession) ||
		errs.Is(err, ErrSignalRejected) ||
		errs.Is(err, ErrAmountMismatch)
}

type LedgerCommands interface {
	HandlePaymentCompleted(ctx context.Context, evt PaymentCompleted) (*PaymentCompletedResult, error)
	RetryPendingNotifications(ctx context.Context) (int, error)
}

type ledgerImpl struct {
	uow         shared.UnitOfWork
	dispatcher  NotificationDispatcher
	clock       clock.Clock
	metrics     *metrics.Registry
	opts        LedgerOptions
	sendTimeout time.Duration
}

func NewLedgerCommands(uow shared.UnitOfWork, dispatcher NotificationDispatcher, clk clock.Clock, m *metrics.Registry, opts LedgerOptions) LedgerCommands {
	if opts.InlineAttempts < 1 {
		opts.InlineAttempts = 1
	}
	if opts.SweepBatchSize < 1 {
		opts.SweepBatchSize = 100
	}
	if opts.ClaimLease <= 0 {
		opts.ClaimLease = defaultClaimLease
	}
	if opts.RetryBackoff < 0 {
		opts.RetryBackoff = 0
	}
	if inlineBackoff(opts) >= opts.ClaimLease/2 {
		opts.InlineAttempts = 1
	}
	return &ledgerImpl{
		uow:         uow,
		dispatcher:  dispatcher,
		clock:       clk,
		metrics:     m,
		opts:        opts,
		sendTimeout: sendBudget(opts),
	}
}

func inlineBackoff(opts LedgerOptions) time.Duration {
	var total time.Duration
	for attempt := 1; attempt < opts.InlineAttempts; attempt++ {
		total += opts.RetryBackoff * time.Duration(attempt)
	}
	return total
}

// sendBudget is the deadline of a single send. Every inline attempt plus the
// backoff between them ends before the claim lease lapses.
func sendBudget(opts LedgerOptions) time.Duration {
	budget := (opts.ClaimLease - inlineBackoff(opts)) / time.Duration(opts.InlineAttempts+1)
	if opts.SendTimeout > 0 && opts.SendTimeout < budget {
		return opts.SendTimeout
	}
	return budget
}

func (l *ledgerImpl) HandlePaymentCompleted(ctx context.Context, evt PaymentCompleted) (*PaymentCompletedResult, error) {
	logger := slog.With(
		"payment_session_id", evt.PaymentSessionID,
		"provider_event_id", evt.ProviderEventID,
	)

	var (
		materialized *order.Order
		replayed     bool
		err          error
	)
	for attempt := 0; attempt < maxMaterializeAttempts; attempt++ {
		materialized, replayed, err = l.materialize(ctx, evt)
		if !errs.Is(err, errOrderRace) {
			break
		}
		logger.Info("order created by a concurrent signal, replaying", "attempt", attempt+1)
	}
	if err != nil {
		l.recordRejection(logger, err)
		return nil, err
	}

	if replayed {
		l.metrics.SignalsReplayed.Inc()
		logger.Info("payment signal replayed", "order_id", materialized.ID())
	} else {
		l.metrics.OrdersMaterialized.Inc()
		logger.Info("order materialized", "order_id", materialized.ID(), "total", materialized.Total().String())
	}

	// Replays still dispatch: a crash between materialization and dispatch
	// leaves pending records that only a later signal or sweep will send.
	_, failures := l.dispatch(ctx, materialized, order.Recipients())

	return &PaymentCompletedResult{
		Order:                materialized,
		IsReplayed:           replayed,
		NotificationFailures: failures,
	}, nil
}

func (l *ledgerImpl) materialize(ctx context.Context, evt PaymentCompleted) (*order.Order, bool, error) {
	var (
		result   *order.Order
		replayed bool
	)

	err := l.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		result, replayed = nil, false

		session, err := tx.Sessions().LockByPaymentSessionID(ctx, evt.PaymentSessionID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return ErrUnknownSession
			}
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}

		existing, err := tx.Orders().FindBySessionID(ctx, session.ID())
		switch {
		case err == nil:
			result, replayed = existing, true
			return nil
		case !infra.IsKind(err, infra.KindNotFound):
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}

		if session.Status().IsTerminalFailure() {
			return errs.Wrap(ErrSignalRejected, "checkout session is "+session.Status().String())
		}
		if !session.Matches(evt.Amount) {
			return errs.Wrap(ErrAmountMismatch, fmt.Sprintf("expected %s, got %s", session.Total(), evt.Amount))
		}

		now := l.clock.Now()
		if err := session.MarkPaid(now); err != nil {
			return errs.Mark(err, ErrSignalRejected)
		}
		won, err := tx.Sessions().CompareAndSetStatus(ctx, session.ID(), checkout.PayableStatuses(), checkout.StatusPaid, now)
		if err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		if !won {
			return errOrderRace
		}

		o, err := order.Materialize(session, now)
		if err != nil {
			return err
		}
		if err := tx.Orders().Create(ctx, o); err != nil {
			if infra.IsKind(err, infra.KindDuplicateKey) {
				return errs.Mark(err, errOrderRace)
			}
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		if err := tx.Notifications().CreatePending(ctx, order.NewPendingNotifications(o.ID())); err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}

		result = o
		return nil
	})
	if err != nil {
		if infra.IsKind(err, infra.KindDuplicateKey) {
			return nil, false, errs.Mark(err, errOrderRace)
		}
		return nil, false, err
	}
	return result, replayed, nil
}

func (l *ledgerImpl) recordRejection(logger *slog.Logger, err error) {
	var reason string
	switch {
	case errs.Is(err, ErrUnknownSession):
		reason = "unknown_session"
	case errs.Is(err, ErrSignalRejected):
		reason = "signal_rejected"
	case errs.Is(err, ErrAmountMismatch):
		reason = "amount_mismatch"
	default:
		logger.Error("payment signal handling failed", "error", err.Error())
		return
	}
	l.metrics.SignalsRejected.WithLabelValues(reason).Inc()
	logger.Warn("payment signal anomaly", "reason", reason, "error", err.Error())
}
