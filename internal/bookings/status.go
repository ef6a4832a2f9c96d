package bookings

type Status string

const (
	StatusPendingConfirmation Status = "PENDING_CONFIRMATION"
	StatusDeposited           Status = "DEPOSITED"
	StatusConfirmed           Status = "CONFIRMED"
	StatusCancelled           Status = "CANCELLED"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPendingConfirmation, StatusDeposited, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// IsActive reports whether the booking still occupies its slot
func (s Status) IsActive() bool {
	return s != StatusCancelled
}

func (s Status) CanBeCancelled() bool {
	return s == StatusPendingConfirmation || s == StatusDeposited || s == StatusConfirmed
}

// CanBeConfirmed gates the staff confirmation transition
func (s Status) CanBeConfirmed() bool {
	return s == StatusPendingConfirmation || s == StatusDeposited
}
