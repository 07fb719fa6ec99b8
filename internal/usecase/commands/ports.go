package commands

import (
	"context"
	"time"

	"marketplace-checkout/internal/domain/money"
	"marketplace-checkout/internal/domain/order"

	"github.com/google/uuid"
)

//go:generate mockgen -source=ports.go -destination=../../../tests/mock/commands/mock_ports.go -package=commandsmock

type PaymentSessionRequest struct {
	CheckoutSessionID uuid.UUID
	Amount            money.Money
	CustomerEmail     string
	SuccessURL        string
	CancelURL         string
}

type PaymentSession struct {
	ID          string
	RedirectURL string
}

// PaymentGateway opens a hosted payment page for a checkout total.
type PaymentGateway interface {
	CreateSession(ctx context.Context, req PaymentSessionRequest) (*PaymentSession, error)
}

// NotificationDispatcher sends one message per call and never retries on its own.
type NotificationDispatcher interface {
	NotifyOperator(ctx context.Context, o *order.Order) error
	NotifyBuyer(ctx context.Context, o *order.Order) error
}

type CheckoutOptions struct {
	SessionTTL     time.Duration
	GatewayTimeout time.Duration
	SuccessURL     string
	CancelURL      string
}

type LedgerOptions struct {
	// MaxAttempts bounds how many times a recipient class may be claimed.
	MaxAttempts int
	// InlineAttempts is the number of sends tried within one claim.
	InlineAttempts int
	RetryBackoff   time.Duration
	// SendTimeout caps one send. It is shortened further when the inline
	// attempts would otherwise outlast ClaimLease.
	SendTimeout    time.Duration
	ClaimLease     time.Duration
	SweepBatchSize int
}
