package checkout

type Status string

const (
	StatusPending         Status = "pending"
	StatusAwaitingPayment Status = "awaiting_payment"
	StatusPaid            Status = "paid"
	StatusFailed          Status = "failed"
	StatusExpired         Status = "expired"
)

var transitions = map[Status][]Status{
	StatusPending:         {StatusAwaitingPayment, StatusPaid, StatusFailed, StatusExpired},
	StatusAwaitingPayment: {StatusPaid, StatusFailed, StatusExpired},
}

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusAwaitingPayment, StatusPaid, StatusFailed, StatusExpired:
		return true
	default:
		return false
	}
}

// IsTerminalFailure reports whether a payment signal can no longer be honoured.
func (s Status) IsTerminalFailure() bool {
	return s == StatusFailed || s == StatusExpired
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// PayableStatuses are the only states from which a session may become paid.
func PayableStatuses() []Status {
	return []Status{StatusPending, StatusAwaitingPayment}
}
