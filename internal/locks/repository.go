package locks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository interface for lock storage. Create relies on the partial
// unique index uniq_slot_locks_holding; callers must treat
// gorm.ErrDuplicatedKey as "someone else won the race".
type Repository interface {
	Create(ctx context.Context, lock *SlotLock) error
	GetByID(ctx context.Context, id uuid.UUID) (*SlotLock, error)
	FindHolding(ctx context.Context, fieldID uuid.UUID, usageDate string, windowID uuid.UUID) (*SlotLock, error)
	ListHoldingByFieldDate(ctx context.Context, fieldID uuid.UUID, usageDate string) ([]SlotLock, error)

	// SweepExpired flips every overdue HOLDING lock to RELEASED and
	// returns how many it touched.
	SweepExpired(ctx context.Context, now time.Time) (int64, error)

	// The guarded updates match on status = HOLDING so a swept or
	// committed lock cannot be mutated; zero rows means denied.
	ExtendExpiry(ctx context.Context, id uuid.UUID, sessionToken string, newExpiry time.Time) (bool, error)
	MarkReleased(ctx context.Context, id uuid.UUID, sessionToken string, now time.Time) (bool, error)
	MarkReleasedAnyHolder(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)
	MarkCommitted(ctx context.Context, id uuid.UUID, bookingID uuid.UUID) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new lock repository
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, lock *SlotLock) error {
	return r.db.WithContext(ctx).Create(lock).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*SlotLock, error) {
	var lock SlotLock
	err := r.db.WithContext(ctx).First(&lock, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &lock, nil
}

func (r *repository) FindHolding(ctx context.Context, fieldID uuid.UUID, usageDate string, windowID uuid.UUID) (*SlotLock, error) {
	var lock SlotLock
	err := r.db.WithContext(ctx).
		Where("field_id = ? AND usage_date = ? AND window_id = ? AND status = ?",
			fieldID, usageDate, windowID, LockStatusHolding).
		First(&lock).Error
	if err != nil {
		return nil, err
	}
	return &lock, nil
}

func (r *repository) ListHoldingByFieldDate(ctx context.Context, fieldID uuid.UUID, usageDate string) ([]SlotLock, error) {
	var list []SlotLock
	err := r.db.WithContext(ctx).
		Where("field_id = ? AND usage_date = ? AND status = ?", fieldID, usageDate, LockStatusHolding).
		Order("expires_at asc").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (r *repository) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&SlotLock{}).
		Where("status = ? AND expires_at <= ?", LockStatusHolding, now).
		Updates(map[string]interface{}{
			"status":      LockStatusReleased,
			"released_at": now,
		})
	return result.RowsAffected, result.Error
}

func (r *repository) ExtendExpiry(ctx context.Context, id uuid.UUID, sessionToken string, newExpiry time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&SlotLock{}).
		Where("id = ? AND session_token = ? AND status = ?", id, sessionToken, LockStatusHolding).
		Update("expires_at", newExpiry)
	return result.RowsAffected > 0, result.Error
}

func (r *repository) MarkReleased(ctx context.Context, id uuid.UUID, sessionToken string, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&SlotLock{}).
		Where("id = ? AND session_token = ? AND status = ?", id, sessionToken, LockStatusHolding).
		Updates(map[string]interface{}{
			"status":      LockStatusReleased,
			"released_at": now,
		})
	return result.RowsAffected > 0, result.Error
}

func (r *repository) MarkReleasedAnyHolder(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&SlotLock{}).
		Where("id = ? AND status = ?", id, LockStatusHolding).
		Updates(map[string]interface{}{
			"status":      LockStatusReleased,
			"released_at": now,
		})
	return result.RowsAffected > 0, result.Error
}

func (r *repository) MarkCommitted(ctx context.Context, id uuid.UUID, bookingID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Model(&SlotLock{}).
		Where("id = ? AND status = ?", id, LockStatusHolding).
		Updates(map[string]interface{}{
			"status":     LockStatusCommitted,
			"booking_id": bookingID,
		})
	return result.RowsAffected > 0, result.Error
}
