package pricing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fieldbook/internal/shared/apperr"
	"fieldbook/internal/shared/constants"
	"fieldbook/pkg/cache"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Service interface {
	// Resolve prices one slot: basePrice = resourceBasePrice * coefficient,
	// discounted by the first active holiday rule matching usageDate.
	Resolve(ctx context.Context, resourceBasePrice, coefficient float64, usageDate time.Time) (*Quote, error)

	// DiscountInfo returns the rule that would apply on usageDate, if any
	DiscountInfo(ctx context.Context, usageDate time.Time) (*AppliedHoliday, error)

	ActiveRules(ctx context.Context) ([]HolidayRule, error)
	CreateRule(ctx context.Context, req CreateHolidayRuleRequest) (*HolidayRule, error)
	DeactivateRule(ctx context.Context, id string) error
}

type service struct {
	repo  Repository
	cache cache.Service
}

func NewService(repo Repository, cacheService cache.Service) Service {
	return &service{repo: repo, cache: cacheService}
}

func (s *service) Resolve(ctx context.Context, resourceBasePrice, coefficient float64, usageDate time.Time) (*Quote, error) {
	if resourceBasePrice < 0 {
		return nil, fmt.Errorf("negative base price: %w", apperr.ErrValidation)
	}
	if coefficient <= 0 {
		coefficient = 1.0
	}

	basePrice := resourceBasePrice * coefficient
	quote := &Quote{
		BasePrice:  basePrice,
		FinalPrice: basePrice,
	}

	rule, err := s.matchRule(ctx, usageDate)
	if err != nil {
		return nil, err
	}
	if rule != nil {
		quote.FinalPrice = basePrice * rule.DiscountFactor
		quote.DiscountAmount = basePrice - quote.FinalPrice
		quote.AppliedHoliday = &AppliedHoliday{
			ID:             rule.ID,
			Name:           rule.Name,
			DiscountFactor: rule.DiscountFactor,
		}
	}

	return quote, nil
}

func (s *service) DiscountInfo(ctx context.Context, usageDate time.Time) (*AppliedHoliday, error) {
	rule, err := s.matchRule(ctx, usageDate)
	if err != nil || rule == nil {
		return nil, err
	}
	return &AppliedHoliday{ID: rule.ID, Name: rule.Name, DiscountFactor: rule.DiscountFactor}, nil
}

// matchRule returns the first active rule matching usageDate, in
// data-entry order. Overlapping rules have no smarter tie-break.
func (s *service) matchRule(ctx context.Context, usageDate time.Time) (*HolidayRule, error) {
	rules, err := s.activeRulesCached(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load holiday rules: %w", err)
	}
	for i := range rules {
		if rules[i].Matches(usageDate) {
			return &rules[i], nil
		}
	}
	return nil, nil
}

func (s *service) ActiveRules(ctx context.Context) ([]HolidayRule, error) {
	return s.activeRulesCached(ctx)
}

func (s *service) activeRulesCached(ctx context.Context) ([]HolidayRule, error) {
	var rules []HolidayRule
	err := s.cache.GetOrSet(ctx, constants.CACHE_KEY_HOLIDAY_RULES, constants.TTL_HOLIDAY_RULES,
		func() (interface{}, error) {
			return s.repo.ListActive(ctx)
		}, &rules)
	if err != nil {
		return nil, err
	}
	return rules, nil
}

func (s *service) CreateRule(ctx context.Context, req CreateHolidayRuleRequest) (*HolidayRule, error) {
	if err := validateMarker(req.StartMarker); err != nil {
		return nil, err
	}
	if req.EndMarker != nil {
		if err := validateMarker(*req.EndMarker); err != nil {
			return nil, err
		}
		if len(*req.EndMarker) != len(req.StartMarker) {
			return nil, fmt.Errorf("start and end markers must use the same format: %w", apperr.ErrValidation)
		}
		if *req.EndMarker < req.StartMarker {
			return nil, fmt.Errorf("end marker before start marker: %w", apperr.ErrValidation)
		}
	}
	if req.DiscountFactor <= 0 || req.DiscountFactor > 1 {
		return nil, fmt.Errorf("discount factor must be in (0, 1]: %w", apperr.ErrValidation)
	}

	rule := &HolidayRule{
		Name:           req.Name,
		StartMarker:    req.StartMarker,
		EndMarker:      req.EndMarker,
		DiscountFactor: req.DiscountFactor,
		Active:         true,
	}
	if err := s.repo.Create(ctx, rule); err != nil {
		return nil, fmt.Errorf("failed to create holiday rule: %w", err)
	}

	s.cache.Delete(ctx, constants.CACHE_KEY_HOLIDAY_RULES)
	return rule, nil
}

func (s *service) DeactivateRule(ctx context.Context, id string) error {
	ruleID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid rule ID: %w", apperr.ErrValidation)
	}

	if err := s.repo.Update(ctx, ruleID, map[string]interface{}{"active": false}); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("holiday rule %s: %w", id, apperr.ErrNotFound)
		}
		return fmt.Errorf("failed to deactivate holiday rule: %w", err)
	}

	s.cache.Delete(ctx, constants.CACHE_KEY_HOLIDAY_RULES)
	return nil
}

func validateMarker(marker string) error {
	switch len(marker) {
	case 10:
		if _, err := time.Parse("2006-01-02", marker); err != nil {
			return fmt.Errorf("invalid date marker '%s': %w", marker, apperr.ErrValidation)
		}
	case 5:
		if _, err := time.Parse("01-02", marker); err != nil {
			return fmt.Errorf("invalid month-day marker '%s': %w", marker, apperr.ErrValidation)
		}
	default:
		return fmt.Errorf("marker '%s' must be yyyy-mm-dd or mm-dd: %w", marker, apperr.ErrValidation)
	}
	return nil
}
