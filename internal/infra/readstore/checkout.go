package readstore

import (
	"context"
	"encoding/json"
	"errors"

	"marketplace-checkout/internal/infra"
	"marketplace-checkout/internal/infra/db"
	"marketplace-checkout/internal/pkg/errs"
	"marketplace-checkout/internal/usecase/readmodel"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type CheckoutReadStore struct {
	db db.DBTX
}

func NewCheckoutReadStore(dbtx db.DBTX) *CheckoutReadStore {
	return &CheckoutReadStore{db: dbtx}
}

func (r *CheckoutReadStore) FindSession(ctx context.Context, id uuid.UUID) (*readmodel.CheckoutSessionRM, error) {
	var (
		rm       readmodel.CheckoutSessionRM
		cartJSON []byte
	)
	err := r.db.QueryRow(ctx, `
		SELECT id, payment_session_id, status, cart, delivery_price, total, currency, expires_at, created_at, updated_at
		FROM checkout_sessions
		WHERE id = $1`, id).Scan(
		&rm.ID, &rm.PaymentSessionID, &rm.Status, &cartJSON,
		&rm.DeliveryPrice, &rm.Total, &rm.Currency,
		&rm.ExpiresAt, &rm.CreatedAt, &rm.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr("checkout session not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find checkout session", err)
	}

	if err := json.Unmarshal(cartJSON, &rm.Lines); err != nil {
		return nil, infra.WrapRepoErr("failed to decode cart snapshot", errs.Wrap(err, "cart"))
	}
	return &rm, nil
}

func (r *CheckoutReadStore) FindOrderBySession(ctx context.Context, sessionID uuid.UUID) (*readmodel.OrderRM, error) {
	var (
		rm        readmodel.OrderRM
		linesJSON []byte
	)
	err := r.db.QueryRow(ctx, `
		SELECT id, checkout_session_id, contact_email, contact_phone, delivery_address, delivery_area_label,
		       delivery_price, lines, total, currency, created_at
		FROM orders
		WHERE checkout_session_id = $1`, sessionID).Scan(
		&rm.ID, &rm.CheckoutSessionID, &rm.ContactEmail, &rm.ContactPhone,
		&rm.DeliveryAddress, &rm.DeliveryAreaLabel, &rm.DeliveryPrice,
		&linesJSON, &rm.Total, &rm.Currency, &rm.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr("order not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find order", err)
	}

	if err := json.Unmarshal(linesJSON, &rm.Lines); err != nil {
		return nil, infra.WrapRepoErr("failed to decode order lines", errs.Wrap(err, "lines"))
	}
	return &rm, nil
}

func (r *CheckoutReadStore) ListNotifications(ctx context.Context, orderID uuid.UUID) ([]readmodel.NotificationRM, error) {
	rows, err := r.db.Query(ctx, `
		SELECT order_id, recipient, status, attempts, last_error, sent_at, updated_at
		FROM order_notifications
		WHERE order_id = $1
		ORDER BY recipient`, orderID)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list notifications", err)
	}

	out, err := pgx.CollectRows(rows, pgx.RowToStructByPos[readmodel.NotificationRM])
	if err != nil {
		return nil, infra.WrapRepoErr("failed to scan notifications", err)
	}
	return out, nil
}
