package cart

import (
	"errors"

	"marketplace-checkout/internal/domain/money"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

var (
	ErrEmptyCart       = errors.New("cart is empty")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrInvalidProduct  = errors.New("invalid product")
)

// Product is catalog reference data. A cart line only points at it.
type Product struct {
	ID    uuid.UUID
	Name  string
	Price money.Money
}

type Line struct {
	Product  Product
	Quantity int
}

func (l Line) Total() money.Money {
	return l.Product.Price.MulInt(l.Quantity)
}

// Cart keeps lines in insertion order with at most one line per product.
type Cart struct {
	lines []Line
}

func New() *Cart {
	return &Cart{}
}

func (c *Cart) Add(p Product, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	if p.ID == uuid.Nil {
		return ErrInvalidProduct
	}
	for i := range c.lines {
		if c.lines[i].Product.ID == p.ID {
			c.lines[i].Quantity += quantity
			return nil
		}
	}
	c.lines = append(c.lines, Line{Product: p, Quantity: quantity})
	return nil
}

func (c *Cart) Remove(productID uuid.UUID) {
	for i := range c.lines {
		if c.lines[i].Product.ID == productID {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return
		}
	}
}

func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

func (c *Cart) Subtotal() (money.Money, error) {
	return Snapshot{Lines: c.lines}.Subtotal()
}

// Snapshot copies the cart so later mutation cannot change a submitted checkout.
func (c *Cart) Snapshot() (Snapshot, error) {
	var s Snapshot
	if err := copier.Copy(&s.Lines, c.lines); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}

type Snapshot struct {
	Lines []Line
}

func (s Snapshot) IsEmpty() bool {
	return len(s.Lines) == 0
}

func (s Snapshot) Subtotal() (money.Money, error) {
	if len(s.Lines) == 0 {
		return money.Money{}, ErrEmptyCart
	}
	total := money.Zero(s.Lines[0].Product.Price.Currency())
	for _, l := range s.Lines {
		var err error
		total, err = total.Add(l.Total())
		if err != nil {
			return money.Money{}, err
		}
	}
	return total, nil
}
