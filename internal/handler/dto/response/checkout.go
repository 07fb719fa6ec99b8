package response

import (
	"time"

	"marketplace-checkout/internal/usecase/commands"
	"marketplace-checkout/internal/usecase/queries"

	"github.com/google/uuid"
)

type CheckoutCreatedResponse struct {
	ID               uuid.UUID `json:"id"`
	Total            string    `json:"total"`
	Currency         string    `json:"currency"`
	PaymentSessionID string    `json:"paymentSessionId"`
	RedirectURL      string    `json:"redirectUrl"`
}

func FromCheckoutResult(r *commands.CheckoutResult) *CheckoutCreatedResponse {
	return &CheckoutCreatedResponse{
		ID:               r.SessionID,
		Total:            r.Total.Amount().StringFixed(2),
		Currency:         r.Total.Currency().String(),
		PaymentSessionID: r.PaymentSessionID,
		RedirectURL:      r.RedirectURL,
	}
}

type CheckoutTotalResponse struct {
	ID            uuid.UUID `json:"id"`
	Status        string    `json:"status"`
	LineCount     int       `json:"lineCount"`
	Subtotal      string    `json:"subtotal"`
	DeliveryPrice string    `json:"deliveryPrice"`
	Total         string    `json:"total"`
	Currency      string    `json:"currency"`
}

func FromCheckoutTotalView(v *queries.CheckoutTotalView) *CheckoutTotalResponse {
	return &CheckoutTotalResponse{
		ID:            v.SessionID,
		Status:        v.Status,
		LineCount:     v.LineCount,
		Subtotal:      v.Subtotal,
		DeliveryPrice: v.DeliveryPrice,
		Total:         v.Total,
		Currency:      v.Currency,
	}
}

type NotificationResponse struct {
	Recipient string     `json:"recipient"`
	Status    string     `json:"status"`
	Attempts  int        `json:"attempts"`
	LastError *string    `json:"lastError,omitempty"`
	SentAt    *time.Time `json:"sentAt,omitempty"`
}

type OrderStatusResponse struct {
	CheckoutID     uuid.UUID              `json:"checkoutId"`
	SessionStatus  string                 `json:"sessionStatus"`
	LedgerState    string                 `json:"ledgerState"`
	OrderID        *uuid.UUID             `json:"orderId,omitempty"`
	OrderCreatedAt *time.Time             `json:"orderCreatedAt,omitempty"`
	Notifications  []NotificationResponse `json:"notifications"`
}

func FromOrderStatusView(v *queries.OrderStatusView) *OrderStatusResponse {
	notifications := make([]NotificationResponse, 0, len(v.Notifications))
	for _, n := range v.Notifications {
		notifications = append(notifications, NotificationResponse{
			Recipient: n.Recipient,
			Status:    n.Status,
			Attempts:  n.Attempts,
			LastError: n.LastError,
			SentAt:    n.SentAt,
		})
	}
	return &OrderStatusResponse{
		CheckoutID:     v.SessionID,
		SessionStatus:  v.SessionStatus,
		LedgerState:    v.LedgerState,
		OrderID:        v.OrderID,
		OrderCreatedAt: v.OrderCreatedAt,
		Notifications:  notifications,
	}
}

type OrderLineResponse struct {
	ProductID   uuid.UUID `json:"productId"`
	ProductName string    `json:"productName"`
	UnitPrice   string    `json:"unitPrice"`
	Quantity    int       `json:"quantity"`
	LineTotal   string    `json:"lineTotal"`
}

type OrderResponse struct {
	ID                uuid.UUID           `json:"id"`
	CheckoutID        uuid.UUID           `json:"checkoutId"`
	ContactEmail      string              `json:"contactEmail"`
	ContactPhone      string              `json:"contactPhoneNumber"`
	DeliveryAddress   string              `json:"deliveryAddress"`
	DeliveryAreaLabel string              `json:"deliveryArea"`
	DeliveryPrice     string              `json:"deliveryPrice"`
	Lines             []OrderLineResponse `json:"lines"`
	Total             string              `json:"total"`
	Currency          string              `json:"currency"`
	CreatedAt         time.Time           `json:"createdAt"`
}

func FromOrderView(v *queries.OrderView) *OrderResponse {
	lines := make([]OrderLineResponse, 0, len(v.Lines))
	for _, l := range v.Lines {
		lines = append(lines, OrderLineResponse{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			UnitPrice:   l.UnitPrice,
			Quantity:    l.Quantity,
			LineTotal:   l.LineTotal,
		})
	}
	return &OrderResponse{
		ID:                v.ID,
		CheckoutID:        v.CheckoutSessionID,
		ContactEmail:      v.ContactEmail,
		ContactPhone:      v.ContactPhone,
		DeliveryAddress:   v.DeliveryAddress,
		DeliveryAreaLabel: v.DeliveryAreaLabel,
		DeliveryPrice:     v.DeliveryPrice,
		Lines:             lines,
		Total:             v.Total,
		Currency:          v.Currency,
		CreatedAt:         v.CreatedAt,
	}
}

type PaymentEventAck struct {
	Received bool   `json:"received"`
	Outcome  string `json:"outcome"`
	OrderID  string `json:"orderId,omitempty"`
}
