package checkout

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"marketplace-checkout/internal/domain/cart"
	"marketplace-checkout/internal/domain/delivery"
	"marketplace-checkout/internal/domain/money"

	"github.com/google/uuid"
)

var (
	ErrIllegalTransition        = errors.New("illegal checkout status transition")
	ErrPaymentSessionAlreadySet = errors.New("payment session identifier already set")
	ErrEmptyPaymentSession      = errors.New("payment session identifier is empty")
)

// Session binds a cart snapshot and a delivery snapshot into one chargeable request.
type Session struct {
	id               uuid.UUID
	cart             cart.Snapshot
	delivery         delivery.Snapshot
	total            money.Money
	status           Status
	paymentSessionID string
	expiresAt        time.Time
	createdAt        time.Time
	updatedAt        time.Time
}

func NewSession(id uuid.UUID, items cart.Snapshot, profile delivery.Profile, now time.Time, ttl time.Duration) (*Session, error) {
	if items.IsEmpty() {
		return nil, cart.ErrEmptyCart
	}
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	subtotal, err := items.Subtotal()
	if err != nil {
		return nil, err
	}
	total, err := subtotal.Add(profile.Area.Price)
	if err != nil {
		return nil, err
	}

	if id == uuid.Nil {
		id = uuid.New()
	}

	return &Session{
		id:        id,
		cart:      items,
		delivery:  profile.Snapshot(),
		total:     total,
		status:    StatusPending,
		expiresAt: now.Add(ttl),
		createdAt: now,
		updatedAt: now,
	}, nil
}

func ReconstructSession(
	id uuid.UUID,
	items cart.Snapshot,
	deliverySnap delivery.Snapshot,
	total money.Money,
	status Status,
	paymentSessionID string,
	expiresAt, createdAt, updatedAt time.Time,
) *Session {
	return &Session{
		id:               id,
		cart:             items,
		delivery:         deliverySnap,
		total:            total,
		status:           status,
		paymentSessionID: paymentSessionID,
		expiresAt:        expiresAt,
		createdAt:        createdAt,
		updatedAt:        updatedAt,
	}
}

// AwaitPayment records the provider's session identifier. It can be set only once.
func (s *Session) AwaitPayment(paymentSessionID string, now time.Time) error {
	paymentSessionID = strings.TrimSpace(paymentSessionID)
	if paymentSessionID == "" {
		return ErrEmptyPaymentSession
	}
	if s.paymentSessionID != "" {
		return ErrPaymentSessionAlreadySet
	}
	if err := s.transition(StatusAwaitingPayment, now); err != nil {
		return err
	}
	s.paymentSessionID = paymentSessionID
	return nil
}

func (s *Session) MarkPaid(now time.Time) error {
	return s.transition(StatusPaid, now)
}

func (s *Session) MarkFailed(now time.Time) error {
	return s.transition(StatusFailed, now)
}

func (s *Session) MarkExpired(now time.Time) error {
	return s.transition(StatusExpired, now)
}

func (s *Session) transition(next Status, now time.Time) error {
	if !s.status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, s.status, next)
	}
	s.status = next
	s.updatedAt = now
	return nil
}

// Matches reports whether a provider-reported amount equals the chargeable total.
func (s *Session) Matches(amount money.Money) bool {
	return s.total.Equal(amount)
}

func (s *Session) HasExpired(now time.Time) bool {
	return !s.expiresAt.IsZero() && now.After(s.expiresAt)
}

func (s *Session) ID() uuid.UUID               { return s.id }
func (s *Session) Cart() cart.Snapshot         { return s.cart }
func (s *Session) Delivery() delivery.Snapshot { return s.delivery }
func (s *Session) Total() money.Money          { return s.total }
func (s *Session) Status() Status              { return s.status }
func (s *Session) PaymentSessionID() string    { return s.paymentSessionID }
func (s *Session) ExpiresAt() time.Time        { return s.expiresAt }
func (s *Session) CreatedAt() time.Time        { return s.createdAt }
func (s *Session) UpdatedAt() time.Time        { return s.updatedAt }
