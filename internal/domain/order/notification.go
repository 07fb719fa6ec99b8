package order

import (
	"time"

	"marketplace-checkout/internal/domain/checkout"

	"github.com/google/uuid"
)

type Recipient string

const (
	RecipientOperator Recipient = "operator"
	RecipientBuyer    Recipient = "buyer"
)

// Recipients lists every class that must be notified once per order.
func Recipients() []Recipient {
	return []Recipient{RecipientOperator, RecipientBuyer}
}

func (r Recipient) String() string {
	return string(r)
}

type NotificationStatus string

const (
	NotificationPending NotificationStatus = "pending"
	NotificationSending NotificationStatus = "sending"
	NotificationSent    NotificationStatus = "sent"
	NotificationFailed  NotificationStatus = "failed"
)

// Notification tracks delivery of one recipient class for one order.
type Notification struct {
	OrderID      uuid.UUID
	Recipient    Recipient
	Status       NotificationStatus
	Attempts     int
	LastError    *string
	ClaimedUntil *time.Time
	SentAt       *time.Time
}

func NewPendingNotifications(orderID uuid.UUID) []Notification {
	out := make([]Notification, 0, len(Recipients()))
	for _, r := range Recipients() {
		out = append(out, Notification{OrderID: orderID, Recipient: r, Status: NotificationPending})
	}
	return out
}

// Claimable reports whether a dispatcher may take this record at the given time.
// A sending record whose lease lapsed is claimable again.
func (n Notification) Claimable(now time.Time, maxAttempts int) bool {
	if maxAttempts > 0 && n.Attempts >= maxAttempts {
		return false
	}
	switch n.Status {
	case NotificationPending, NotificationFailed:
		return true
	case NotificationSending:
		return n.ClaimedUntil != nil && now.After(*n.ClaimedUntil)
	default:
		return false
	}
}

type LedgerState string

const (
	LedgerAwaitingSignal    LedgerState = "awaiting_signal"
	LedgerMaterialized      LedgerState = "materialized"
	LedgerNotificationsSent LedgerState = "notifications_sent"
	LedgerExpired           LedgerState = "expired"
	LedgerSignalRejected    LedgerState = "signal_rejected"
)

// DeriveLedgerState computes where a checkout stands in the order ledger.
func DeriveLedgerState(status checkout.Status, hasOrder bool, notifications []Notification) LedgerState {
	if !hasOrder {
		switch status {
		case checkout.StatusExpired:
			return LedgerExpired
		case checkout.StatusFailed:
			return LedgerSignalRejected
		default:
			return LedgerAwaitingSignal
		}
	}
	sent := 0
	for _, n := range notifications {
		if n.Status == NotificationSent {
			sent++
		}
	}
	if sent == len(Recipients()) {
		return LedgerNotificationsSent
	}
	return LedgerMaterialized
}
