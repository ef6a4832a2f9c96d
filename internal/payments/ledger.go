package payments

import (
	"context"

	"github.com/google/uuid"
)

// PayableBooking is the slice of a booking the orchestrator needs
type PayableBooking struct {
	ID         uuid.UUID
	CustomerID uuid.UUID
	TotalPrice float64
	AmountPaid float64
	Cancelled  bool
}

// BookingLedger is the orchestrator's view of the booking module.
// Declared here so payments never imports bookings; the server wires an
// adapter over the booking service.
type BookingLedger interface {
	GetPayable(ctx context.Context, bookingID uuid.UUID) (*PayableBooking, error)

	// ApplySettlement records a paid amount and promotes the booking
	// (Deposited on partial, Confirmed on full settlement).
	ApplySettlement(ctx context.Context, bookingID uuid.UUID, amount float64) error
}

// EventPublisher broadcasts settlement events. Publishing is
// fire-and-forget; a broker outage never fails a payment transition.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload interface{})
}
