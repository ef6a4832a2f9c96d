package pricing

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository interface for holiday rule storage
type Repository interface {
	Create(ctx context.Context, rule *HolidayRule) error
	GetByID(ctx context.Context, id uuid.UUID) (*HolidayRule, error)
	// ListActive returns active rules in data-entry order; matching picks
	// the first hit, so ordering is part of the contract.
	ListActive(ctx context.Context) ([]HolidayRule, error)
	ListAll(ctx context.Context) ([]HolidayRule, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new holiday rule repository
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, rule *HolidayRule) error {
	return r.db.WithContext(ctx).Create(rule).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*HolidayRule, error) {
	var rule HolidayRule
	err := r.db.WithContext(ctx).First(&rule, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *repository) ListActive(ctx context.Context) ([]HolidayRule, error) {
	var rules []HolidayRule
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("created_at asc, id asc").
		Find(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *repository) ListAll(ctx context.Context) ([]HolidayRule, error) {
	var rules []HolidayRule
	err := r.db.WithContext(ctx).Order("created_at asc, id asc").Find(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&HolidayRule{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
