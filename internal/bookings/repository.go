package bookings

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository interface defines booking storage. The repository also
// implements locks.BookingChecker via SlotTaken.
type Repository interface {
	Create(ctx context.Context, booking *Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	GetByRef(ctx context.Context, ref string) (*Booking, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]Booking, error)

	// ListActiveByFieldDate returns every non-cancelled booking on the
	// field/date, for interval overlap checks.
	ListActiveByFieldDate(ctx context.Context, fieldID uuid.UUID, usageDate string) ([]Booking, error)

	// SlotTaken reports whether a non-cancelled window booking occupies
	// the slot.
	SlotTaken(ctx context.Context, fieldID uuid.UUID, usageDate string, windowID uuid.UUID) (bool, error)

	MarkCancelled(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)
	MarkConfirmed(ctx context.Context, id uuid.UUID, staffID uuid.UUID, now time.Time) (bool, error)

	// AddAmountPaid atomically adds amount to amount_paid and returns the
	// post-increment total, guarded by the expected current statuses.
	AddAmountPaid(ctx context.Context, id uuid.UUID, amount float64, allowedFrom []Status) (float64, bool, error)

	// PromoteStatus moves the booking forward only from the listed
	// statuses, so concurrent settlements can never downgrade it.
	PromoteStatus(ctx context.Context, id uuid.UUID, to Status, allowedFrom []Status) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new booking repository
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, booking *Booking) error {
	// AddOns ride along in the same transaction via gorm association writes
	return r.db.WithContext(ctx).Create(booking).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	var booking Booking
	err := r.db.WithContext(ctx).Preload("AddOns").First(&booking, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *repository) GetByRef(ctx context.Context, ref string) (*Booking, error) {
	var booking Booking
	err := r.db.WithContext(ctx).Preload("AddOns").First(&booking, "booking_ref = ?", ref).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *repository) ListByCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]Booking, error) {
	var list []Booking
	err := r.db.WithContext(ctx).
		Preload("AddOns").
		Where("customer_id = ?", customerID).
		Order("created_at desc").
		Limit(limit).Offset(offset).
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (r *repository) ListActiveByFieldDate(ctx context.Context, fieldID uuid.UUID, usageDate string) ([]Booking, error) {
	var list []Booking
	err := r.db.WithContext(ctx).
		Where("field_id = ? AND usage_date = ? AND status <> ?", fieldID, usageDate, StatusCancelled).
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (r *repository) SlotTaken(ctx context.Context, fieldID uuid.UUID, usageDate string, windowID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Booking{}).
		Where("field_id = ? AND usage_date = ? AND window_id = ? AND status <> ?",
			fieldID, usageDate, windowID, StatusCancelled).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) MarkCancelled(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&Booking{}).
		Where("id = ? AND status <> ?", id, StatusCancelled).
		Updates(map[string]interface{}{
			"status":       StatusCancelled,
			"cancelled_at": now,
		})
	return result.RowsAffected > 0, result.Error
}

func (r *repository) MarkConfirmed(ctx context.Context, id uuid.UUID, staffID uuid.UUID, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&Booking{}).
		Where("id = ? AND status IN ?", id, []Status{StatusPendingConfirmation, StatusDeposited}).
		Updates(map[string]interface{}{
			"status":            StatusConfirmed,
			"assigned_staff_id": staffID,
			"confirmed_at":      now,
		})
	return result.RowsAffected > 0, result.Error
}

func (r *repository) AddAmountPaid(ctx context.Context, id uuid.UUID, amount float64, allowedFrom []Status) (float64, bool, error) {
	var booking Booking
	result := r.db.WithContext(ctx).Model(&booking).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "amount_paid"}}}).
		Where("id = ? AND status IN ?", id, allowedFrom).
		Update("amount_paid", gorm.Expr("amount_paid + ?", amount))
	if result.Error != nil {
		return 0, false, result.Error
	}
	return booking.AmountPaid, result.RowsAffected > 0, nil
}

func (r *repository) PromoteStatus(ctx context.Context, id uuid.UUID, to Status, allowedFrom []Status) (bool, error) {
	result := r.db.WithContext(ctx).Model(&Booking{}).
		Where("id = ? AND status IN ?", id, allowedFrom).
		Update("status", to)
	return result.RowsAffected > 0, result.Error
}
