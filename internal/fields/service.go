package fields

import (
	"context"
	"errors"
	"fmt"

	"fieldbook/internal/shared/apperr"
	"fieldbook/internal/shared/constants"
	"fieldbook/pkg/cache"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Service interface {
	CreateField(ctx context.Context, req CreateFieldRequest) (*Field, error)
	GetFieldByID(ctx context.Context, id string) (*Field, error)
	GetFields(ctx context.Context, status string) ([]Field, error)
	UpdateFieldStatus(ctx context.Context, id string, status string) (*Field, error)

	CreateTimeWindow(ctx context.Context, req CreateTimeWindowRequest) (*TimeWindow, error)
	GetTimeWindowByID(ctx context.Context, id string) (*TimeWindow, error)
	GetTimeWindows(ctx context.Context) ([]TimeWindow, error)
}

type service struct {
	repo  Repository
	cache cache.Service
}

func NewService(repo Repository, cacheService cache.Service) Service {
	return &service{repo: repo, cache: cacheService}
}

func (s *service) CreateField(ctx context.Context, req CreateFieldRequest) (*Field, error) {
	existing, err := s.repo.GetFieldByName(ctx, req.Name)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check field name: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("field '%s': %w", req.Name, apperr.ErrConflict)
	}

	field := &Field{
		Name:        req.Name,
		Description: req.Description,
		FieldType:   req.FieldType,
		BasePrice:   req.BasePrice,
		Status:      FieldStatusActive,
	}
	if err := s.repo.CreateField(ctx, field); err != nil {
		return nil, fmt.Errorf("failed to create field: %w", err)
	}

	s.invalidateCatalog(ctx)
	return field, nil
}

func (s *service) GetFieldByID(ctx context.Context, id string) (*Field, error) {
	fieldID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid field ID: %w", apperr.ErrValidation)
	}

	var field Field
	err = s.cache.GetOrSet(ctx, constants.BuildFieldDetailKey(id), constants.TTL_FIELD_CATALOG,
		func() (interface{}, error) {
			return s.repo.GetFieldByID(ctx, fieldID)
		}, &field)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("field %s: %w", id, apperr.ErrNotFound)
		}
		return nil, err
	}
	return &field, nil
}

func (s *service) GetFields(ctx context.Context, status string) ([]Field, error) {
	// Filtered listings bypass the cache; the unfiltered catalog is the hot path
	if status != "" {
		return s.repo.GetFields(ctx, status)
	}

	var list []Field
	err := s.cache.GetOrSet(ctx, constants.CACHE_KEY_FIELDS_LIST, constants.TTL_FIELD_CATALOG,
		func() (interface{}, error) {
			return s.repo.GetFields(ctx, "")
		}, &list)
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (s *service) UpdateFieldStatus(ctx context.Context, id string, status string) (*Field, error) {
	fieldID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid field ID: %w", apperr.ErrValidation)
	}
	if status != FieldStatusActive && status != FieldStatusMaintenance && status != FieldStatusRetired {
		return nil, fmt.Errorf("invalid field status '%s': %w", status, apperr.ErrValidation)
	}

	if err := s.repo.UpdateField(ctx, fieldID, map[string]interface{}{"status": status}); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("field %s: %w", id, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update field: %w", err)
	}

	s.invalidateCatalog(ctx)
	s.cache.Delete(ctx, constants.BuildFieldDetailKey(id))
	return s.repo.GetFieldByID(ctx, fieldID)
}

func (s *service) CreateTimeWindow(ctx context.Context, req CreateTimeWindowRequest) (*TimeWindow, error) {
	window := &TimeWindow{
		Label:            req.Label,
		StartTime:        req.StartTime,
		EndTime:          req.EndTime,
		PriceCoefficient: req.PriceCoefficient,
	}
	if window.DurationHours() <= 0 {
		return nil, fmt.Errorf("window end must be after start: %w", apperr.ErrValidation)
	}
	if err := s.repo.CreateTimeWindow(ctx, window); err != nil {
		return nil, fmt.Errorf("failed to create time window: %w", err)
	}

	s.cache.Delete(ctx, constants.CACHE_KEY_TIME_WINDOWS)
	return window, nil
}

func (s *service) GetTimeWindowByID(ctx context.Context, id string) (*TimeWindow, error) {
	windowID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid window ID: %w", apperr.ErrValidation)
	}
	window, err := s.repo.GetTimeWindowByID(ctx, windowID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("time window %s: %w", id, apperr.ErrNotFound)
		}
		return nil, err
	}
	return window, nil
}

func (s *service) GetTimeWindows(ctx context.Context) ([]TimeWindow, error) {
	var list []TimeWindow
	err := s.cache.GetOrSet(ctx, constants.CACHE_KEY_TIME_WINDOWS, constants.TTL_TIME_WINDOWS,
		func() (interface{}, error) {
			return s.repo.GetTimeWindows(ctx)
		}, &list)
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (s *service) invalidateCatalog(ctx context.Context) {
	s.cache.Delete(ctx, constants.CACHE_KEY_FIELDS_LIST)
}
