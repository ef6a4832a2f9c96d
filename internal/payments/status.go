package payments

type Status string

const (
	StatusAwaitingApproval Status = "AWAITING_APPROVAL"
	StatusPaid             Status = "PAID"
	StatusFailed           Status = "FAILED"
	StatusCancelled        Status = "CANCELLED"
	StatusRefunded         Status = "REFUNDED"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusAwaitingApproval, StatusPaid, StatusFailed, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// CanTransitionTo encodes the whole state machine. Everything not
// listed here is an invalid transition.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusAwaitingApproval:
		return next == StatusPaid || next == StatusFailed || next == StatusCancelled
	case StatusPaid:
		return next == StatusRefunded
	}
	return false
}

// IsTerminal reports whether no further transition is possible
func (s Status) IsTerminal() bool {
	return s == StatusFailed || s == StatusCancelled || s == StatusRefunded
}
