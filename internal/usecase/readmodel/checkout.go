package readmodel

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CartLineRM struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
}

type CheckoutSessionRM struct {
	ID               uuid.UUID       `json:"id"`
	PaymentSessionID *string         `json:"payment_session_id,omitempty"`
	Status           string          `json:"status"`
	Lines            []CartLineRM    `json:"lines"`
	DeliveryPrice    decimal.Decimal `json:"delivery_price"`
	Total            decimal.Decimal `json:"total"`
	Currency         string          `json:"currency"`
	ExpiresAt        time.Time       `json:"expires_at"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

type OrderRM struct {
	ID                uuid.UUID       `json:"id"`
	CheckoutSessionID uuid.UUID       `json:"checkout_session_id"`
	ContactEmail      string          `json:"contact_email"`
	ContactPhone      string          `json:"contact_phone"`
	DeliveryAddress   string          `json:"delivery_address"`
	DeliveryAreaLabel string          `json:"delivery_area_label"`
	DeliveryPrice     decimal.Decimal `json:"delivery_price"`
	Lines             []CartLineRM    `json:"lines"`
	Total             decimal.Decimal `json:"total"`
	Currency          string          `json:"currency"`
	CreatedAt         time.Time       `json:"created_at"`
}

type NotificationRM struct {
	OrderID   uuid.UUID  `json:"order_id"`
	Recipient string     `json:"recipient"`
	Status    string     `json:"status"`
	Attempts  int        `json:"attempts"`
	LastError *string    `json:"last_error,omitempty"`
	SentAt    *time.Time `json:"sent_at,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
}
