package repository

import (
	"context"
	"errors"
	"time"

	"marketplace-checkout/internal/domain/checkout"
	"marketplace-checkout/internal/infra"
	"marketplace-checkout/internal/infra/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const sessionColumns = `id, payment_session_id, status, cart, delivery, delivery_price, total, currency, expires_at, created_at, updated_at`

type CheckoutSessionRepository struct {
	db db.DBTX
}

func NewCheckoutSessionRepository(dbtx db.DBTX) *CheckoutSessionRepository {
	return &CheckoutSessionRepository{db: dbtx}
}

func (r *CheckoutSessionRepository) Create(ctx context.Context, s *checkout.Session) error {
	cartJSON, err := encodeCart(s.Cart())
	if err != nil {
		return infra.WrapRepoErr("failed to encode cart", err)
	}
	deliveryJSON, err := encodeDelivery(s.Delivery())
	if err != nil {
		return infra.WrapRepoErr("failed to encode delivery", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO checkout_sessions (`+sessionColumns+`)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		s.ID(),
		s.PaymentSessionID(),
		string(s.Status()),
		cartJSON,
		deliveryJSON,
		s.Delivery().AreaPrice.Amount(),
		s.Total().Amount(),
		s.Total().Currency().String(),
		s.ExpiresAt(),
		s.CreatedAt(),
		s.UpdatedAt(),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to create checkout session", err)
	}
	return nil
}

func (r *CheckoutSessionRepository) LockByPaymentSessionID(ctx context.Context, paymentSessionID string) (*checkout.Session, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+sessionColumns+`
		FROM checkout_sessions
		WHERE payment_session_id = $1
		FOR UPDATE`, paymentSessionID)

	s, err := scanSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr("checkout session not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to lock checkout session", err)
	}
	return s, nil
}

func (r *CheckoutSessionRepository) CompareAndSetStatus(ctx context.Context, id uuid.UUID, from []checkout.Status, next checkout.Status, updatedAt time.Time) (bool, error) {
	allowed := make([]string, len(from))
	for i, s := range from {
		allowed[i] = string(s)
	}

	tag, err := r.db.Exec(ctx, `
		UPDATE checkout_sessions
		SET status = $2, updated_at = $3
		WHERE id = $1 AND status = ANY($4)`,
		id, string(next), updatedAt, allowed)
	if err != nil {
		return false, infra.WrapRepoErr("failed to update checkout session status", err)
	}
	return tag.RowsAffected() == 1, nil
}

func scanSession(row pgx.Row) (*checkout.Session, error) {
	var (
		id               uuid.UUID
		paymentSessionID *string
		status           string
		cartJSON         []byte
		deliveryJSON     []byte
		deliveryPrice    decimal.Decimal
		total            decimal.Decimal
		currency         string
		expiresAt        time.Time
		createdAt        time.Time
		updatedAt        time.Time
	)
	if err := row.Scan(&id, &paymentSessionID, &status, &cartJSON, &deliveryJSON,
		&deliveryPrice, &total, &currency, &expiresAt, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	totalMoney, err := moneyOf(total, currency)
	if err != nil {
		return nil, err
	}
	priceMoney, err := moneyOf(deliveryPrice, currency)
	if err != nil {
		return nil, err
	}
	items, err := decodeCart(cartJSON, totalMoney.Currency())
	if err != nil {
		return nil, err
	}
	snap, err := decodeDelivery(deliveryJSON, priceMoney)
	if err != nil {
		return nil, err
	}

	var psID string
	if paymentSessionID != nil {
		psID = *paymentSessionID
	}

	return checkout.ReconstructSession(id, items, snap, totalMoney, checkout.Status(status), psID,
		expiresAt, createdAt, updatedAt), nil
}
