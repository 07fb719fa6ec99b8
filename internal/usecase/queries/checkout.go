package queries

import (
	"context"
	"time"

	"marketplace-checkout/internal/domain/checkout"
	"marketplace-checkout/internal/domain/order"
	"marketplace-checkout/internal/infra"
	"marketplace-checkout/internal/pkg/errs"
	"marketplace-checkout/internal/usecase/readmodel"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=checkout.go -destination=../../../tests/mock/queries/mock_checkout.go -package=queriesmock

var (
	ErrCheckoutNotFound = errs.New("checkout session not found")
	ErrOrderNotFound    = errs.New("order not found")
)

type CheckoutTotalView struct {
	SessionID     uuid.UUID
	Status        string
	LineCount     int
	Subtotal      string
	DeliveryPrice string
	Total         string
	Currency      string
}

type NotificationView struct {
	Recipient string
	Status    string
	Attempts  int
	LastError *string
	SentAt    *time.Time
}

type OrderStatusView struct {
	SessionID      uuid.UUID
	SessionStatus  string
	LedgerState    string
	OrderID        *uuid.UUID
	OrderCreatedAt *time.Time
	Notifications  []NotificationView
}

type OrderLineView struct {
	ProductID   uuid.UUID
	ProductName string
	UnitPrice   string
	Quantity    int
	LineTotal   string
}

type OrderView struct {
	ID                uuid.UUID
	CheckoutSessionID uuid.UUID
	ContactEmail      string
	ContactPhone      string
	DeliveryAddress   string
	DeliveryAreaLabel string
	DeliveryPrice     string
	Lines             []OrderLineView
	Total             string
	Currency          string
	CreatedAt         time.Time
}

type CheckoutReadStore interface {
	FindSession(ctx context.Context, id uuid.UUID) (*readmodel.CheckoutSessionRM, error)
	FindOrderBySession(ctx context.Context, sessionID uuid.UUID) (*readmodel.OrderRM, error)
	ListNotifications(ctx context.Context, orderID uuid.UUID) ([]readmodel.NotificationRM, error)
}

type CheckoutQueries interface {
	GetCheckoutTotal(ctx context.Context, sessionID uuid.UUID) (*CheckoutTotalView, error)
	GetOrderStatus(ctx context.Context, sessionID uuid.UUID) (*OrderStatusView, error)
	GetOrder(ctx context.Context, sessionID uuid.UUID) (*OrderView, error)
}

type checkoutQueriesImpl struct {
	readStore CheckoutReadStore
}

func NewCheckoutQueries(readStore CheckoutReadStore) CheckoutQueries {
	return &checkoutQueriesImpl{readStore: readStore}
}

func (q *checkoutQueriesImpl) GetCheckoutTotal(ctx context.Context, sessionID uuid.UUID) (*CheckoutTotalView, error) {
	s, err := q.findSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	subtotal := s.Total.Sub(s.DeliveryPrice)
	return &CheckoutTotalView{
		SessionID:     s.ID,
		Status:        s.Status,
		LineCount:     len(s.Lines),
		Subtotal:      subtotal.StringFixed(2),
		DeliveryPrice: s.DeliveryPrice.StringFixed(2),
		Total:         s.Total.StringFixed(2),
		Currency:      s.Currency,
	}, nil
}

func (q *checkoutQueriesImpl) GetOrderStatus(ctx context.Context, sessionID uuid.UUID) (*OrderStatusView, error) {
	s, err := q.findSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	view := &OrderStatusView{
		SessionID:     s.ID,
		SessionStatus: s.Status,
		Notifications: []NotificationView{},
	}

	o, err := q.readStore.FindOrderBySession(ctx, sessionID)
	switch {
	case err == nil:
	case infra.IsKind(err, infra.KindNotFound):
		view.LedgerState = string(order.DeriveLedgerState(checkout.Status(s.Status), false, nil))
		return view, nil
	default:
		return nil, err
	}

	rows, err := q.readStore.ListNotifications(ctx, o.ID)
	if err != nil {
		return nil, err
	}

	states := make([]order.Notification, 0, len(rows))
	for _, r := range rows {
		states = append(states, order.Notification{
			OrderID:   r.OrderID,
			Recipient: order.Recipient(r.Recipient),
			Status:    order.NotificationStatus(r.Status),
			Attempts:  r.Attempts,
		})
	}
	if err := copier.Copy(&view.Notifications, rows); err != nil {
		return nil, errs.Wrap(err, "failed to map notifications")
	}

	view.OrderID = &o.ID
	view.OrderCreatedAt = &o.CreatedAt
	view.LedgerState = string(order.DeriveLedgerState(checkout.Status(s.Status), true, states))
	return view, nil
}

func (q *checkoutQueriesImpl) GetOrder(ctx context.Context, sessionID uuid.UUID) (*OrderView, error) {
	o, err := q.readStore.FindOrderBySession(ctx, sessionID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	lines := make([]OrderLineView, 0, len(o.Lines))
	for _, l := range o.Lines {
		lines = append(lines, OrderLineView{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			UnitPrice:   l.UnitPrice.StringFixed(2),
			Quantity:    l.Quantity,
			LineTotal:   l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))).StringFixed(2),
		})
	}

	return &OrderView{
		ID:                o.ID,
		CheckoutSessionID: o.CheckoutSessionID,
		ContactEmail:      o.ContactEmail,
		ContactPhone:      o.ContactPhone,
		DeliveryAddress:   o.DeliveryAddress,
		DeliveryAreaLabel: o.DeliveryAreaLabel,
		DeliveryPrice:     o.DeliveryPrice.StringFixed(2),
		Lines:             lines,
		Total:             o.Total.StringFixed(2),
		Currency:          o.Currency,
		CreatedAt:         o.CreatedAt,
	}, nil
}

func (q *checkoutQueriesImpl) findSession(ctx context.Context, id uuid.UUID) (*readmodel.CheckoutSessionRM, error) {
	s, err := q.readStore.FindSession(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrCheckoutNotFound
		}
		return nil, err
	}
	return s, nil
}
