package notifier

import (
	"context"
	"sync"

	"marketplace-checkout/internal/domain/order"

	"github.com/google/uuid"
)

type Message struct {
	OrderID   uuid.UUID
	Recipient order.Recipient
	To        string
}

// Recorder keeps every message it is asked to send. Fail makes the next n
// sends to a recipient class return err.
type Recorder struct {
	mu            sync.Mutex
	operatorEmail string
	sent          []Message
	failures      map[order.Recipient]failure
}

type failure struct {
	remaining int
	err       error
}

func NewRecorder(operatorEmail string) *Recorder {
	return &Recorder{
		operatorEmail: operatorEmail,
		failures:      make(map[order.Recipient]failure),
	}
}

func (r *Recorder) NotifyOperator(_ context.Context, o *order.Order) error {
	return r.record(o, order.RecipientOperator, r.operatorEmail)
}

func (r *Recorder) NotifyBuyer(_ context.Context, o *order.Order) error {
	return r.record(o, order.RecipientBuyer, o.ContactEmail())
}

func (r *Recorder) Fail(recipient order.Recipient, n int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures[recipient] = failure{remaining: n, err: err}
}

func (r *Recorder) Sent() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.sent))
	copy(out, r.sent)
	return out
}

// Count returns how many messages of a class were sent for an order.
func (r *Recorder) Count(orderID uuid.UUID, recipient order.Recipient) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, m := range r.sent {
		if m.OrderID == orderID && m.Recipient == recipient {
			n++
		}
	}
	return n
}

func (r *Recorder) record(o *order.Order, recipient order.Recipient, to string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f, ok := r.failures[recipient]; ok && f.remaining > 0 {
		f.remaining--
		r.failures[recipient] = f
		return f.err
	}
	r.sent = append(r.sent, Message{OrderID: o.ID(), Recipient: recipient, To: to})
	return nil
}
