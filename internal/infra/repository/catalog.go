package repository

import (
	"context"
	"errors"

	"marketplace-checkout/internal/domain/cart"
	"marketplace-checkout/internal/domain/delivery"
	"marketplace-checkout/internal/infra"
	"marketplace-checkout/internal/infra/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// CatalogReads serves the reference data a checkout is priced from.
type CatalogReads struct {
	db db.DBTX
}

func NewCatalogReads(dbtx db.DBTX) *CatalogReads {
	return &CatalogReads{db: dbtx}
}

// ProductsByIDs returns the products that exist; missing ids are simply absent.
func (r *CatalogReads) ProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]cart.Product, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, price, currency FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to load products", err)
	}

	products, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (cart.Product, error) {
		var (
			p        cart.Product
			price    decimal.Decimal
			currency string
		)
		if err := row.Scan(&p.ID, &p.Name, &price, &currency); err != nil {
			return cart.Product{}, err
		}
		m, err := moneyOf(price, currency)
		if err != nil {
			return cart.Product{}, err
		}
		p.Price = m
		return p, nil
	})
	if err != nil {
		return nil, infra.WrapRepoErr("failed to scan products", err)
	}
	return products, nil
}

func (r *CatalogReads) DeliveryAreaByID(ctx context.Context, id uuid.UUID) (*delivery.Area, error) {
	var (
		area     delivery.Area
		price    decimal.Decimal
		currency string
	)
	err := r.db.QueryRow(ctx, `
		SELECT id, marketplace_id, label, price, currency
		FROM delivery_areas
		WHERE id = $1`, id).Scan(&area.ID, &area.MarketplaceID, &area.Label, &price, &currency)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr("delivery area not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to load delivery area", err)
	}

	m, err := moneyOf(price, currency)
	if err != nil {
		return nil, infra.WrapRepoErr("invalid delivery area price", err)
	}
	area.Price = m
	return &area, nil
}
