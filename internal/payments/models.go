package payments

import (
	"time"

	"github.com/google/uuid"
)

// Payment purposes
const (
	PurposeFull      = "FULL"
	PurposeDeposit   = "DEPOSIT"
	PurposeRemainder = "REMAINDER"
)

// Payment is one attempt to move money for a booking. Version guards
// status transitions against concurrent callbacks and manual confirms.
type Payment struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	BookingID       uuid.UUID `gorm:"type:uuid;index;not null" json:"booking_id"`
	Amount          float64   `gorm:"not null" json:"amount"`
	Purpose         string    `gorm:"type:varchar(10);not null" json:"purpose"`
	Method          string    `gorm:"type:varchar(20);not null" json:"method"`
	Status          Status    `gorm:"type:varchar(20);not null;default:'AWAITING_APPROVAL'" json:"status"`
	TransactionCode string    `gorm:"unique;not null" json:"transaction_code"`
	Version         int       `gorm:"not null;default:0" json:"-"`

	FailureReason     string     `json:"failure_reason,omitempty"`
	ConfirmedByStaff  *uuid.UUID `gorm:"type:uuid" json:"confirmed_by_staff,omitempty"`
	PaidAt            *time.Time `json:"paid_at,omitempty"`
	RefundedAt        *time.Time `json:"refunded_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// ExternalTransaction mirrors one provider-side payment intent: what we
// sent, what came back, and the provider's id we look the payment up by.
type ExternalTransaction struct {
	ID                    uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	PaymentID             uuid.UUID `gorm:"type:uuid;index;not null" json:"payment_id"`
	Provider              string    `gorm:"type:varchar(20);not null" json:"provider"`
	ProviderTransactionID string    `gorm:"index;not null" json:"provider_transaction_id"`
	RequestPayload        string    `gorm:"type:text" json:"request_payload,omitempty"`
	CallbackPayload       string    `gorm:"type:text" json:"callback_payload,omitempty"`
	RedirectURL           string    `json:"redirect_url,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}
