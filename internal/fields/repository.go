package fields

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository interface for catalog operations
type Repository interface {
	CreateField(ctx context.Context, field *Field) error
	GetFieldByID(ctx context.Context, id uuid.UUID) (*Field, error)
	GetFieldByName(ctx context.Context, name string) (*Field, error)
	GetFields(ctx context.Context, status string) ([]Field, error)
	UpdateField(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error

	CreateTimeWindow(ctx context.Context, window *TimeWindow) error
	GetTimeWindowByID(ctx context.Context, id uuid.UUID) (*TimeWindow, error)
	GetTimeWindows(ctx context.Context) ([]TimeWindow, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new catalog repository
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateField(ctx context.Context, field *Field) error {
	return r.db.WithContext(ctx).Create(field).Error
}

func (r *repository) GetFieldByID(ctx context.Context, id uuid.UUID) (*Field, error) {
	var field Field
	err := r.db.WithContext(ctx).First(&field, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &field, nil
}

func (r *repository) GetFieldByName(ctx context.Context, name string) (*Field, error) {
	var field Field
	err := r.db.WithContext(ctx).First(&field, "name = ?", name).Error
	if err != nil {
		return nil, err
	}
	return &field, nil
}

func (r *repository) GetFields(ctx context.Context, status string) ([]Field, error) {
	var list []Field
	query := r.db.WithContext(ctx).Model(&Field{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Order("name asc").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *repository) UpdateField(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&Field{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) CreateTimeWindow(ctx context.Context, window *TimeWindow) error {
	return r.db.WithContext(ctx).Create(window).Error
}

func (r *repository) GetTimeWindowByID(ctx context.Context, id uuid.UUID) (*TimeWindow, error) {
	var window TimeWindow
	err := r.db.WithContext(ctx).First(&window, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &window, nil
}

func (r *repository) GetTimeWindows(ctx context.Context) ([]TimeWindow, error) {
	var list []TimeWindow
	if err := r.db.WithContext(ctx).Order("start_time asc").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
