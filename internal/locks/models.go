package locks

import (
	"time"

	"github.com/google/uuid"
)

// Lock statuses. A lock never goes back to HOLDING once it leaves.
const (
	LockStatusHolding   = "HOLDING"
	LockStatusReleased  = "RELEASED"
	LockStatusCommitted = "COMMITTED"
)

// Rejection reason codes
const (
	ReasonAlreadyBooked = "ALREADY_BOOKED"
	ReasonAlreadyLocked = "ALREADY_LOCKED"
)

// SlotLock is a short-lived hold on one (field, date, window) slot.
// A partial unique index allows at most one HOLDING row per slot, so the
// INSERT itself is the atomic check-and-insert.
type SlotLock struct {
	ID           uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	FieldID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"field_id"`
	UsageDate    string     `gorm:"type:varchar(10);not null" json:"usage_date"` // "2006-01-02"
	WindowID     uuid.UUID  `gorm:"type:uuid;not null" json:"window_id"`
	SessionToken string     `gorm:"not null" json:"-"`
	CustomerID   *uuid.UUID `gorm:"type:uuid" json:"customer_id,omitempty"`
	Status       string     `gorm:"not null;default:'HOLDING'" json:"status"`
	AcquiredAt   time.Time  `gorm:"not null" json:"acquired_at"`
	ExpiresAt    time.Time  `gorm:"not null" json:"expires_at"`
	ReleasedAt   *time.Time `json:"released_at,omitempty"`
	BookingID    *uuid.UUID `gorm:"type:uuid" json:"booking_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// RemainingSeconds until expiry, zero when already past
func (l *SlotLock) RemainingSeconds(now time.Time) int64 {
	remaining := l.ExpiresAt.Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int64(remaining.Seconds() + 0.5)
}

// IsHeldBy reports whether sessionToken is the live holder
func (l *SlotLock) IsHeldBy(sessionToken string, now time.Time) bool {
	return l.Status == LockStatusHolding && l.SessionToken == sessionToken && l.ExpiresAt.After(now)
}
