package repository

import (
	"encoding/json"

	"marketplace-checkout/internal/domain/cart"
	"marketplace-checkout/internal/domain/delivery"
	"marketplace-checkout/internal/domain/money"
	"marketplace-checkout/internal/domain/order"
	"marketplace-checkout/internal/pkg/errs"
	"marketplace-checkout/internal/usecase/readmodel"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// deliveryRow is the JSONB shape of checkout_sessions.delivery.
type deliveryRow struct {
	Address      string    `json:"address"`
	AreaID       uuid.UUID `json:"area_id"`
	AreaLabel    string    `json:"area_label"`
	ContactEmail string    `json:"contact_email"`
	ContactPhone string    `json:"contact_phone"`
}

func encodeCart(s cart.Snapshot) ([]byte, error) {
	rows := make([]readmodel.CartLineRM, 0, len(s.Lines))
	for _, l := range s.Lines {
		rows = append(rows, readmodel.CartLineRM{
			ProductID:   l.Product.ID,
			ProductName: l.Product.Name,
			UnitPrice:   l.Product.Price.Amount(),
			Quantity:    l.Quantity,
		})
	}
	return json.Marshal(rows)
}

func decodeCart(raw []byte, currency money.Currency) (cart.Snapshot, error) {
	var rows []readmodel.CartLineRM
	if err := json.Unmarshal(raw, &rows); err != nil {
		return cart.Snapshot{}, errs.Wrap(err, "failed to decode cart snapshot")
	}
	lines := make([]cart.Line, 0, len(rows))
	for _, r := range rows {
		price, err := money.New(r.UnitPrice, currency)
		if err != nil {
			return cart.Snapshot{}, err
		}
		lines = append(lines, cart.Line{
			Product:  cart.Product{ID: r.ProductID, Name: r.ProductName, Price: price},
			Quantity: r.Quantity,
		})
	}
	return cart.Snapshot{Lines: lines}, nil
}

func encodeDelivery(s delivery.Snapshot) ([]byte, error) {
	return json.Marshal(deliveryRow{
		Address:      s.Address,
		AreaID:       s.AreaID,
		AreaLabel:    s.AreaLabel,
		ContactEmail: s.ContactEmail,
		ContactPhone: s.ContactPhone,
	})
}

func decodeDelivery(raw []byte, price money.Money) (delivery.Snapshot, error) {
	var row deliveryRow
	if err := json.Unmarshal(raw, &row); err != nil {
		return delivery.Snapshot{}, errs.Wrap(err, "failed to decode delivery snapshot")
	}
	return delivery.Snapshot{
		Address:      row.Address,
		AreaID:       row.AreaID,
		AreaLabel:    row.AreaLabel,
		AreaPrice:    price,
		ContactEmail: row.ContactEmail,
		ContactPhone: row.ContactPhone,
	}, nil
}

func encodeOrderLines(lines []order.Line) ([]byte, error) {
	rows := make([]readmodel.CartLineRM, 0, len(lines))
	for _, l := range lines {
		rows = append(rows, readmodel.CartLineRM{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			UnitPrice:   l.UnitPrice.Amount(),
			Quantity:    l.Quantity,
		})
	}
	return json.Marshal(rows)
}

func decodeOrderLines(raw []byte, currency money.Currency) ([]order.Line, error) {
	var rows []readmodel.CartLineRM
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, errs.Wrap(err, "failed to decode order lines")
	}
	lines := make([]order.Line, 0, len(rows))
	for _, r := range rows {
		price, err := money.New(r.UnitPrice, currency)
		if err != nil {
			return nil, err
		}
		lines = append(lines, order.Line{
			ProductID:   r.ProductID,
			ProductName: r.ProductName,
			UnitPrice:   price,
			Quantity:    r.Quantity,
		})
	}
	return lines, nil
}

func moneyOf(amount decimal.Decimal, code string) (money.Money, error) {
	currency, err := money.NewCurrency(code)
	if err != nil {
		return money.Money{}, err
	}
	return money.New(amount, currency)
}
