//go:build unit

package order_test

import (
	"testing"
	"time"

	"marketplace-checkout/internal/domain/cart"
	"marketplace-checkout/internal/domain/checkout"
	"marketplace-checkout/internal/domain/delivery"
	"marketplace-checkout/internal/domain/money"
	"marketplace-checkout/internal/domain/order"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func paidSession(t *testing.T) *checkout.Session {
	t.Helper()
	c := cart.New()
	require.NoError(t, c.Add(cart.Product{ID: uuid.New(), Name: "Mug", Price: money.MustParse("20.00", "USD")}, 2))
	snap, err := c.Snapshot()
	require.NoError(t, err)
	area := &delivery.Area{ID: uuid.New(), Label: "Downtown", Price: money.MustParse("5.00", "USD")}

	s, err := checkout.NewSession(uuid.New(), snap, delivery.NewProfile("1 Main St", area, "buyer@example.com", "555"), now, time.Hour)
	require.NoError(t, err)
	require.NoError(t, s.AwaitPayment("cs_1", now))
	require.NoError(t, s.MarkPaid(now))
	return s
}

func TestMaterialize(t *testing.T) {
	t.Run("copies the session", func(t *testing.T) {
		s := paidSession(t)
		o, err := order.Materialize(s, now)
		require.NoError(t, err)

		assert.Equal(t, s.ID(), o.CheckoutSessionID())
		assert.Equal(t, "45.00 USD", o.Total().String())
		assert.Equal(t, "Downtown", o.DeliveryAreaLabel())
		assert.Equal(t, "buyer@example.com", o.ContactEmail())
		require.Len(t, o.Lines(), 1)
		assert.Equal(t, "40.00 USD", o.Lines()[0].Total().String())
	})

	t.Run("unpaid session", func(t *testing.T) {
		c := cart.New()
		require.NoError(t, c.Add(cart.Product{ID: uuid.New(), Name: "Mug", Price: money.MustParse("1.00", "USD")}, 1))
		snap, _ := c.Snapshot()
		area := &delivery.Area{ID: uuid.New(), Label: "A", Price: money.MustParse("1.00", "USD")}
		s, err := checkout.NewSession(uuid.New(), snap, delivery.NewProfile("x", area, "e", "p"), now, time.Hour)
		require.NoError(t, err)

		_, err = order.Materialize(s, now)
		assert.ErrorIs(t, err, order.ErrSessionNotPaid)
	})
}

func TestNotificationClaimable(t *testing.T) {
	lease := now.Add(time.Minute)

	tests := []struct {
		name string
		n    order.Notification
		at   time.Time
		want bool
	}{
		{name: "pending", n: order.Notification{Status: order.NotificationPending}, at: now, want: true},
		{name: "failed under the cap", n: order.Notification{Status: order.NotificationFailed, Attempts: 2}, at: now, want: true},
		{name: "failed at the cap", n: order.Notification{Status: order.NotificationFailed, Attempts: 5}, at: now, want: false},
		{name: "sending with live lease", n: order.Notification{Status: order.NotificationSending, ClaimedUntil: &lease}, at: now, want: false},
		{name: "sending with lapsed lease", n: order.Notification{Status: order.NotificationSending, ClaimedUntil: &lease}, at: lease.Add(time.Second), want: true},
		{name: "sent", n: order.Notification{Status: order.NotificationSent}, at: now, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.n.Claimable(tt.at, 5))
		})
	}
}

func TestDeriveLedgerState(t *testing.T) {
	sent := order.Notification{Status: order.NotificationSent}
	pending := order.Notification{Status: order.NotificationPending}

	assert.Equal(t, order.LedgerAwaitingSignal, order.DeriveLedgerState(checkout.StatusAwaitingPayment, false, nil))
	assert.Equal(t, order.LedgerExpired, order.DeriveLedgerState(checkout.StatusExpired, false, nil))
	assert.Equal(t, order.LedgerSignalRejected, order.DeriveLedgerState(checkout.StatusFailed, false, nil))
	assert.Equal(t, order.LedgerMaterialized, order.DeriveLedgerState(checkout.StatusPaid, true, []order.Notification{sent, pending}))
	assert.Equal(t, order.LedgerNotificationsSent, order.DeriveLedgerState(checkout.StatusPaid, true, []order.Notification{sent, sent}))
}

func TestNewPendingNotifications(t *testing.T) {
	id := uuid.New()
	ns := order.NewPendingNotifications(id)
	require.Len(t, ns, 2)
	for _, n := range ns {
		assert.Equal(t, id, n.OrderID)
		assert.Equal(t, order.NotificationPending, n.Status)
	}
}
