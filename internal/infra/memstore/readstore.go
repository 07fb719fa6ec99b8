package memstore

import (
	"context"

	"marketplace-checkout/internal/domain/order"
	"marketplace-checkout/internal/infra"
	"marketplace-checkout/internal/usecase/readmodel"

	"github.com/google/uuid"
)

// ReadStore projects committed state into read models.
type ReadStore struct {
	store *Store
}

func NewReadStore(store *Store) *ReadStore {
	return &ReadStore{store: store}
}

func (r *ReadStore) FindSession(_ context.Context, id uuid.UUID) (*readmodel.CheckoutSessionRM, error) {
	r.store.mu.RLock()
	s, ok := r.store.sessions[id]
	r.store.mu.RUnlock()
	if !ok {
		return nil, infra.WrapRepoErr("checkout session not found", nil, infra.KindNotFound)
	}

	rm := &readmodel.CheckoutSessionRM{
		ID:            s.ID(),
		Status:        s.Status().String(),
		DeliveryPrice: s.Delivery().AreaPrice.Amount(),
		Total:         s.Total().Amount(),
		Currency:      s.Total().Currency().String(),
		ExpiresAt:     s.ExpiresAt(),
		CreatedAt:     s.CreatedAt(),
		UpdatedAt:     s.UpdatedAt(),
	}
	if ref := s.PaymentSessionID(); ref != "" {
		rm.PaymentSessionID = &ref
	}
	for _, l := range s.Cart().Lines {
		rm.Lines = append(rm.Lines, readmodel.CartLineRM{
			ProductID:   l.Product.ID,
			ProductName: l.Product.Name,
			UnitPrice:   l.Product.Price.Amount(),
			Quantity:    l.Quantity,
		})
	}
	return rm, nil
}

func (r *ReadStore) FindOrderBySession(_ context.Context, sessionID uuid.UUID) (*readmodel.OrderRM, error) {
	r.store.mu.RLock()
	var o *order.Order
	if id, ok := r.store.ordersBySession[sessionID]; ok {
		o = r.store.orders[id]
	}
	r.store.mu.RUnlock()
	if o == nil {
		return nil, infra.WrapRepoErr("order not found", nil, infra.KindNotFound)
	}

	rm := &readmodel.OrderRM{
		ID:                o.ID(),
		CheckoutSessionID: o.CheckoutSessionID(),
		ContactEmail:      o.ContactEmail(),
		ContactPhone:      o.ContactPhone(),
		DeliveryAddress:   o.DeliveryAddress(),
		DeliveryAreaLabel: o.DeliveryAreaLabel(),
		DeliveryPrice:     o.DeliveryPrice().Amount(),
		Total:             o.Total().Amount(),
		Currency:          o.Total().Currency().String(),
		CreatedAt:         o.CreatedAt(),
	}
	for _, l := range o.Lines() {
		rm.Lines = append(rm.Lines, readmodel.CartLineRM{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			UnitPrice:   l.UnitPrice.Amount(),
			Quantity:    l.Quantity,
		})
	}
	return rm, nil
}

func (r *ReadStore) ListNotifications(_ context.Context, orderID uuid.UUID) ([]readmodel.NotificationRM, error) {
	r.store.mu.RLock()
	var ns []order.Notification
	for _, n := range r.store.notifications {
		if n.OrderID == orderID {
			ns = append(ns, n)
		}
	}
	r.store.mu.RUnlock()
	sortNotifications(ns)

	out := make([]readmodel.NotificationRM, 0, len(ns))
	for _, n := range ns {
		out = append(out, readmodel.NotificationRM{
			OrderID:   n.OrderID,
			Recipient: n.Recipient.String(),
			Status:    string(n.Status),
			Attempts:  n.Attempts,
			LastError: n.LastError,
			SentAt:    n.SentAt,
		})
	}
	return out, nil
}
