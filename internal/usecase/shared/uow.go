package shared

import (
	"context"
	"time"

	"marketplace-checkout/internal/domain/cart"
	"marketplace-checkout/internal/domain/checkout"
	"marketplace-checkout/internal/domain/delivery"
	"marketplace-checkout/internal/domain/order"

	"github.com/google/uuid"
)

type UnitOfWork interface {
	// Within: Full transaction for write operations with retry logic
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// CommandReads: Reference data lookups for validation outside transactions
	CommandReads() CommandReads
}

type Tx interface {
	Sessions() CheckoutSessionRepository
	Orders() OrderRepository
	Notifications() NotificationRepository
}

type CommandReads interface {
	ProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]cart.Product, error)
	DeliveryAreaByID(ctx context.Context, id uuid.UUID) (*delivery.Area, error)
}

type CheckoutSessionRepository interface {
	Create(ctx context.Context, s *checkout.Session) error
	// LockByPaymentSessionID holds the session exclusively until the unit of work ends.
	LockByPaymentSessionID(ctx context.Context, paymentSessionID string) (*checkout.Session, error)
	// CompareAndSetStatus moves the session to next only while it is in one of from.
	CompareAndSetStatus(ctx context.Context, id uuid.UUID, from []checkout.Status, next checkout.Status, updatedAt time.Time) (bool, error)
}

type OrderRepository interface {
	Create(ctx context.Context, o *order.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error)
	FindBySessionID(ctx context.Context, sessionID uuid.UUID) (*order.Order, error)
}

type NotificationRepository interface {
	CreatePending(ctx context.Context, ns []order.Notification) error
	// Claim takes a record for sending when it is claimable at now; false means someone else owns it.
	Claim(ctx context.Context, orderID uuid.UUID, recipient order.Recipient, now, leaseUntil time.Time, maxAttempts int) (bool, error)
	MarkSent(ctx context.Context, orderID uuid.UUID, recipient order.Recipient, sentAt time.Time) error
	MarkFailed(ctx context.Context, orderID uuid.UUID, recipient order.Recipient, lastError string) error
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]order.Notification, error)
	ListClaimable(ctx context.Context, now time.Time, maxAttempts, limit int) ([]order.Notification, error)
}
