package pricing

import (
	"time"

	"github.com/google/uuid"
)

// HolidayRule discounts slots whose usage date falls inside its range.
// StartMarker is either a full date "2006-01-02" (10 chars) or a recurring
// month-day "01-02" (5 chars). A nil EndMarker makes the rule single-day.
type HolidayRule struct {
	ID             uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name           string    `gorm:"not null" json:"name"`
	StartMarker    string    `gorm:"not null" json:"start_marker"`
	EndMarker      *string   `json:"end_marker,omitempty"`
	DiscountFactor float64   `gorm:"not null" json:"discount_factor"` // finalPrice = basePrice * factor
	Active         bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Matches reports whether usageDate falls inside the rule's range.
// Both marker formats sort lexicographically, so inclusive string
// comparison is the whole check. Recurring ranges do not wrap year-end.
func (r *HolidayRule) Matches(usageDate time.Time) bool {
	d := usageDate.Format("2006-01-02")
	switch len(r.StartMarker) {
	case 10:
		if r.EndMarker == nil {
			return d == r.StartMarker
		}
		return d >= r.StartMarker && d <= *r.EndMarker
	case 5:
		md := d[5:]
		if r.EndMarker == nil {
			return md == r.StartMarker
		}
		return md >= r.StartMarker && md <= *r.EndMarker
	default:
		return false
	}
}

// AppliedHoliday identifies the rule a quote was discounted by
type AppliedHoliday struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	DiscountFactor float64   `json:"discount_factor"`
}

// Quote is the pricing resolver's result
type Quote struct {
	BasePrice      float64         `json:"base_price"`
	DiscountAmount float64         `json:"discount_amount"`
	FinalPrice     float64         `json:"final_price"`
	AppliedHoliday *AppliedHoliday `json:"applied_holiday,omitempty"`
}
