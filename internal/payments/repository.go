package payments

import (
	"context"
	"time"

	"fieldbook/internal/payments/providers"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository interface for payment storage. Transition is the only way
// a payment's status changes; it bumps the version column so a stale
// writer loses.
type Repository interface {
	CreatePayment(ctx context.Context, payment *Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Payment, error)
	GetByTransactionCode(ctx context.Context, code string) (*Payment, error)
	ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]Payment, error)

	Transition(ctx context.Context, id uuid.UUID, fromVersion int, to Status, updates map[string]interface{}) (bool, error)

	CreateExternal(ctx context.Context, tx *ExternalTransaction) error
	GetExternalByProviderTxID(ctx context.Context, providerTxID string) (*ExternalTransaction, error)
	GetExternalByPaymentID(ctx context.Context, paymentID uuid.UUID) (*ExternalTransaction, error)
	RecordCallback(ctx context.Context, externalID uuid.UUID, payload string) error

	// ListStaleWalletPayments finds wallet payments still awaiting
	// approval past the cutoff, for the reconciliation pass.
	ListStaleWalletPayments(ctx context.Context, cutoff time.Time) ([]Payment, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new payment repository
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreatePayment(ctx context.Context, payment *Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Payment, error) {
	var payment Payment
	err := r.db.WithContext(ctx).First(&payment, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *repository) GetByTransactionCode(ctx context.Context, code string) (*Payment, error) {
	var payment Payment
	err := r.db.WithContext(ctx).First(&payment, "transaction_code = ?", code).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *repository) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]Payment, error) {
	var list []Payment
	err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("created_at asc").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (r *repository) Transition(ctx context.Context, id uuid.UUID, fromVersion int, to Status, updates map[string]interface{}) (bool, error) {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = to
	updates["version"] = fromVersion + 1

	result := r.db.WithContext(ctx).Model(&Payment{}).
		Where("id = ? AND version = ?", id, fromVersion).
		Updates(updates)
	return result.RowsAffected > 0, result.Error
}

func (r *repository) CreateExternal(ctx context.Context, tx *ExternalTransaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

func (r *repository) GetExternalByProviderTxID(ctx context.Context, providerTxID string) (*ExternalTransaction, error) {
	var tx ExternalTransaction
	err := r.db.WithContext(ctx).First(&tx, "provider_transaction_id = ?", providerTxID).Error
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

func (r *repository) GetExternalByPaymentID(ctx context.Context, paymentID uuid.UUID) (*ExternalTransaction, error) {
	var tx ExternalTransaction
	err := r.db.WithContext(ctx).First(&tx, "payment_id = ?", paymentID).Error
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

func (r *repository) RecordCallback(ctx context.Context, externalID uuid.UUID, payload string) error {
	return r.db.WithContext(ctx).Model(&ExternalTransaction{}).
		Where("id = ?", externalID).
		Update("callback_payload", payload).Error
}

func (r *repository) ListStaleWalletPayments(ctx context.Context, cutoff time.Time) ([]Payment, error) {
	var list []Payment
	err := r.db.WithContext(ctx).
		Where("status = ? AND method <> ? AND created_at < ?",
			StatusAwaitingApproval, providers.MethodBankTransfer, cutoff).
		Order("created_at asc").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}
