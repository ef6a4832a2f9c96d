package bookings

import (
	"time"

	"github.com/google/uuid"
)

// Booking is one customer's claim on a field slot. Price columns are
// frozen at creation time; later holiday rule edits never reprice an
// existing booking.
type Booking struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	BookingRef string     `gorm:"unique;not null" json:"booking_ref"`
	CustomerID uuid.UUID  `gorm:"type:uuid;index;not null" json:"customer_id"`
	FieldID    uuid.UUID  `gorm:"type:uuid;index;not null" json:"field_id"`
	UsageDate  string     `gorm:"type:varchar(10);not null" json:"usage_date"` // "2006-01-02"

	// WindowID is nil for custom-time bookings. Start/end are always
	// populated so overlap checks never need a window lookup.
	WindowID  *uuid.UUID `gorm:"type:uuid" json:"window_id,omitempty"`
	StartTime string     `gorm:"type:varchar(5);not null" json:"start_time"` // "HH:MM"
	EndTime   string     `gorm:"type:varchar(5);not null" json:"end_time"`

	LockID *uuid.UUID `gorm:"type:uuid" json:"lock_id,omitempty"`

	BasePrice        float64    `gorm:"not null" json:"base_price"`
	DiscountAmount   float64    `gorm:"not null;default:0" json:"discount_amount"`
	FinalPrice       float64    `gorm:"not null" json:"final_price"`
	TotalPrice       float64    `gorm:"not null" json:"total_price"` // final + add-ons
	AmountPaid       float64    `gorm:"not null;default:0" json:"amount_paid"`
	AppliedHolidayID *uuid.UUID `gorm:"type:uuid" json:"applied_holiday_id,omitempty"`

	Status          Status     `gorm:"type:varchar(25);not null;default:'PENDING_CONFIRMATION'" json:"status"`
	Note            string     `json:"note,omitempty"`
	AssignedStaffID *uuid.UUID `gorm:"type:uuid" json:"assigned_staff_id,omitempty"`
	ConfirmedAt     *time.Time `json:"confirmed_at,omitempty"`
	CancelledAt     *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	AddOns []AddOnCharge `json:"add_ons,omitempty" gorm:"foreignKey:BookingID;constraint:OnDelete:CASCADE;"`
}

// AddOnCharge is an extra line item on a booking (equipment rental,
// referee fee, drinks).
type AddOnCharge struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	BookingID uuid.UUID `gorm:"type:uuid;index;not null" json:"booking_id"`
	Label     string    `gorm:"not null" json:"label"`
	UnitPrice float64   `gorm:"not null" json:"unit_price"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	LineTotal float64   `gorm:"not null" json:"line_total"`
	CreatedAt time.Time `json:"created_at"`
}

// Overlaps reports whether two same-date time ranges intersect.
// "HH:MM" strings compare lexicographically.
func (b *Booking) Overlaps(startTime, endTime string) bool {
	return b.StartTime < endTime && startTime < b.EndTime
}
