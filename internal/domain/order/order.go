package order

import (
	"errors"
	"time"

	"marketplace-checkout/internal/domain/checkout"
	"marketplace-checkout/internal/domain/money"

	"github.com/google/uuid"
)

var ErrSessionNotPaid = errors.New("checkout session is not paid")

// Line is the order's own copy of a purchased product.
type Line struct {
	ProductID   uuid.UUID
	ProductName string
	UnitPrice   money.Money
	Quantity    int
}

func (l Line) Total() money.Money {
	return l.UnitPrice.MulInt(l.Quantity)
}

// Order is immutable once materialized.
type Order struct {
	id                uuid.UUID
	checkoutSessionID uuid.UUID
	contactEmail      string
	contactPhone      string
	deliveryAddress   string
	deliveryAreaLabel string
	deliveryPrice     money.Money
	lines             []Line
	total             money.Money
	createdAt         time.Time
}

// Materialize copies everything the order needs out of a paid session.
func Materialize(s *checkout.Session, now time.Time) (*Order, error) {
	if s.Status() != checkout.StatusPaid {
		return nil, ErrSessionNotPaid
	}

	items := s.Cart().Lines
	lines := make([]Line, len(items))
	for i, l := range items {
		lines[i] = Line{
			ProductID:   l.Product.ID,
			ProductName: l.Product.Name,
			UnitPrice:   l.Product.Price,
			Quantity:    l.Quantity,
		}
	}

	d := s.Delivery()
	return &Order{
		id:                uuid.New(),
		checkoutSessionID: s.ID(),
		contactEmail:      d.ContactEmail,
		contactPhone:      d.ContactPhone,
		deliveryAddress:   d.Address,
		deliveryAreaLabel: d.AreaLabel,
		deliveryPrice:     d.AreaPrice,
		lines:             lines,
		total:             s.Total(),
		createdAt:         now,
	}, nil
}

func ReconstructOrder(
	id, checkoutSessionID uuid.UUID,
	contactEmail, contactPhone, deliveryAddress, deliveryAreaLabel string,
	deliveryPrice money.Money,
	lines []Line,
	total money.Money,
	createdAt time.Time,
) *Order {
	return &Order{
		id:                id,
		checkoutSessionID: checkoutSessionID,
		contactEmail:      contactEmail,
		contactPhone:      contactPhone,
		deliveryAddress:   deliveryAddress,
		deliveryAreaLabel: deliveryAreaLabel,
		deliveryPrice:     deliveryPrice,
		lines:             lines,
		total:             total,
		createdAt:         createdAt,
	}
}

func (o *Order) Lines() []Line {
	out := make([]Line, len(o.lines))
	copy(out, o.lines)
	return out
}

func (o *Order) ID() uuid.UUID                { return o.id }
func (o *Order) CheckoutSessionID() uuid.UUID { return o.checkoutSessionID }
func (o *Order) ContactEmail() string         { return o.contactEmail }
func (o *Order) ContactPhone() string         { return o.contactPhone }
func (o *Order) DeliveryAddress() string      { return o.deliveryAddress }
func (o *Order) DeliveryAreaLabel() string    { return o.deliveryAreaLabel }
func (o *Order) DeliveryPrice() money.Money   { return o.deliveryPrice }
func (o *Order) Total() money.Money           { return o.total }
func (o *Order) CreatedAt() time.Time         { return o.createdAt }
