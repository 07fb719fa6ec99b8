package gateway

import (
	"encoding/json"
	"strings"

	"marketplace-checkout/internal/domain/money"
	"marketplace-checkout/internal/pkg/errs"
	"marketplace-checkout/internal/usecase/commands"
)

const EventCheckoutSessionCompleted = "checkout.session.completed"

const (
	PaymentStatusPaid              = "paid"
	PaymentStatusNoPaymentRequired = "no_payment_required"
)

var ErrMalformedEvent = errs.New("malformed payment event")

// Event is the subset of the provider's event envelope the ledger consumes.
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID                string `json:"id"`
			AmountTotal       int64  `json:"amount_total"`
			Currency          string `json:"currency"`
			PaymentStatus     string `json:"payment_status"`
			ClientReferenceID string `json:"client_reference_id"`
		} `json:"object"`
	} `json:"data"`
}

func ParseEvent(payload []byte) (*Event, error) {
	var evt Event
	if err := json.Unmarshal(payload, &evt); err != nil {
		return nil, errs.Mark(errs.Wrap(err, "failed to decode payment event"), ErrMalformedEvent)
	}
	if evt.ID == "" || evt.Type == "" {
		return nil, errs.Wrap(ErrMalformedEvent, "event id and type are required")
	}
	return &evt, nil
}

func (e *Event) IsCheckoutCompleted() bool {
	return e.Type == EventCheckoutSessionCompleted
}

// IsPaid reports whether the charge has been captured. Delayed payment methods
// complete the checkout while payment_status is still "unpaid".
func (e *Event) IsPaid() bool {
	switch e.Data.Object.PaymentStatus {
	case PaymentStatusPaid, PaymentStatusNoPaymentRequired:
		return true
	default:
		return false
	}
}

// PaymentCompleted converts a completed-checkout event into the ledger's signal.
func (e *Event) PaymentCompleted() (commands.PaymentCompleted, error) {
	obj := e.Data.Object
	if obj.ID == "" {
		return commands.PaymentCompleted{}, errs.Wrap(ErrMalformedEvent, "missing checkout session id")
	}
	currency, err := money.NewCurrency(strings.ToUpper(obj.Currency))
	if err != nil {
		return commands.PaymentCompleted{}, errs.Mark(err, ErrMalformedEvent)
	}
	amount, err := money.FromMinorUnits(obj.AmountTotal, currency)
	if err != nil {
		return commands.PaymentCompleted{}, errs.Mark(err, ErrMalformedEvent)
	}
	return commands.PaymentCompleted{
		PaymentSessionID: obj.ID,
		ProviderEventID:  e.ID,
		Amount:           amount,
	}, nil
}
