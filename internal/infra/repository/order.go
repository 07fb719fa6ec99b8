package repository

import (
	"context"
	"errors"
	"time"

	"marketplace-checkout/internal/domain/order"
	"marketplace-checkout/internal/infra"
	"marketplace-checkout/internal/infra/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const orderColumns = `id, checkout_session_id, contact_email, contact_phone, delivery_address, delivery_area_label, delivery_price, lines, total, currency, created_at`

type OrderRepository struct {
	db db.DBTX
}

func NewOrderRepository(dbtx db.DBTX) *OrderRepository {
	return &OrderRepository{db: dbtx}
}

// Create relies on the UNIQUE checkout_session_id constraint; a second order
// for the same session fails with KindDuplicateKey.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	linesJSON, err := encodeOrderLines(o.Lines())
	if err != nil {
		return infra.WrapRepoErr("failed to encode order lines", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		o.ID(),
		o.CheckoutSessionID(),
		o.ContactEmail(),
		o.ContactPhone(),
		o.DeliveryAddress(),
		o.DeliveryAreaLabel(),
		o.DeliveryPrice().Amount(),
		linesJSON,
		o.Total().Amount(),
		o.Total().Currency().String(),
		o.CreatedAt(),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to create order", err)
	}
	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	row := r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	return r.find(row)
}

func (r *OrderRepository) FindBySessionID(ctx context.Context, sessionID uuid.UUID) (*order.Order, error) {
	row := r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE checkout_session_id = $1`, sessionID)
	return r.find(row)
}

func (r *OrderRepository) find(row pgx.Row) (*order.Order, error) {
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr("order not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find order", err)
	}
	return o, nil
}

func scanOrder(row pgx.Row) (*order.Order, error) {
	var (
		id, sessionID                    uuid.UUID
		email, phone, address, areaLabel string
		deliveryPrice, total             decimal.Decimal
		linesJSON                        []byte
		currency                         string
		createdAt                        time.Time
	)
	if err := row.Scan(&id, &sessionID, &email, &phone, &address, &areaLabel,
		&deliveryPrice, &linesJSON, &total, &currency, &createdAt); err != nil {
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
	lines, err := decodeOrderLines(linesJSON, totalMoney.Currency())
	if err != nil {
		return nil, err
	}

	return order.ReconstructOrder(id, sessionID, email, phone, address, areaLabel,
		priceMoney, lines, totalMoney, createdAt), nil
}
