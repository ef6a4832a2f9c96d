package fields

import (
	"time"

	"github.com/google/uuid"
)

// Field statuses
const (
	FieldStatusActive      = "ACTIVE"
	FieldStatusMaintenance = "MAINTENANCE"
	FieldStatusRetired     = "RETIRED"
)

type Field struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex;not null" json:"name"`
	Description string    `json:"description"`
	FieldType   string    `gorm:"not null" json:"field_type"` // FIVE_A_SIDE, SEVEN_A_SIDE, ELEVEN_A_SIDE
	BasePrice   float64   `gorm:"not null" json:"base_price"` // per hour, VND
	Status      string    `gorm:"not null;default:'ACTIVE'" json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TimeWindow is a bookable block of a field's day. PriceCoefficient scales
// the field's base price for peak/off-peak blocks.
type TimeWindow struct {
	ID               uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Label            string    `gorm:"not null" json:"label"`
	StartTime        string    `gorm:"not null" json:"start_time"` // "HH:MM"
	EndTime          string    `gorm:"not null" json:"end_time"`   // "HH:MM"
	PriceCoefficient float64   `gorm:"not null;default:1.0" json:"price_coefficient"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// DurationHours returns the window length in hours
func (w *TimeWindow) DurationHours() float64 {
	start, err1 := time.Parse("15:04", w.StartTime)
	end, err2 := time.Parse("15:04", w.EndTime)
	if err1 != nil || err2 != nil || !end.After(start) {
		return 0
	}
	return end.Sub(start).Hours()
}
