package pricing

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"fieldbook/pkg/cache"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	rules []HolidayRule
}

func (f *fakeRepo) Create(ctx context.Context, rule *HolidayRule) error {
	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	rule.CreatedAt = time.Now().UTC()
	f.rules = append(f.rules, *rule)
	return nil
}

func (f *fakeRepo) GetByID(ctx context.Context, id uuid.UUID) (*HolidayRule, error) {
	for i := range f.rules {
		if f.rules[i].ID == id {
			return &f.rules[i], nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) ListActive(ctx context.Context) ([]HolidayRule, error) {
	var out []HolidayRule
	for _, r := range f.rules {
		if r.Active {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListAll(ctx context.Context) ([]HolidayRule, error) {
	return f.rules, nil
}

func (f *fakeRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	for i := range f.rules {
		if f.rules[i].ID == id {
			if active, ok := updates["active"].(bool); ok {
				f.rules[i].Active = active
			}
			return nil
		}
	}
	return nil
}

// passCache always misses and runs the fetcher
type passCache struct{}

func (passCache) Get(ctx context.Context, key string, dest interface{}) error {
	return cache.ErrCacheMiss
}
func (passCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return nil
}
func (passCache) Delete(ctx context.Context, key string) error         { return nil }
func (passCache) DeletePattern(ctx context.Context, pattern string) error { return nil }
func (passCache) Exists(ctx context.Context, key string) bool          { return false }
func (passCache) Ping(ctx context.Context) error                       { return nil }
func (passCache) GetOrSet(ctx context.Context, key string, ttl time.Duration, fetcher func() (interface{}, error), dest interface{}) error {
	value, err := fetcher()
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

func strPtr(s string) *string { return &s }

func newTestService(rules ...HolidayRule) Service {
	repo := &fakeRepo{}
	for i := range rules {
		rules[i].Active = true
		_ = repo.Create(context.Background(), &rules[i])
	}
	return NewService(repo, passCache{})
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return d
}

func TestResolveHolidayDiscount(t *testing.T) {
	svc := newTestService(HolidayRule{
		Name:           "Lunar New Year",
		StartMarker:    "01-28",
		EndMarker:      strPtr("02-03"),
		DiscountFactor: 0.6,
	})

	quote, err := svc.Resolve(context.Background(), 300000, 1.5, mustDate(t, "2026-02-01"))
	require.NoError(t, err)

	assert.Equal(t, 450000.0, quote.BasePrice)
	assert.Equal(t, 180000.0, quote.DiscountAmount)
	assert.Equal(t, 270000.0, quote.FinalPrice)
	require.NotNil(t, quote.AppliedHoliday)
	assert.Equal(t, "Lunar New Year", quote.AppliedHoliday.Name)
}

func TestResolveNoMatch(t *testing.T) {
	svc := newTestService(HolidayRule{
		Name:           "National Day",
		StartMarker:    "09-02",
		DiscountFactor: 0.5,
	})

	quote, err := svc.Resolve(context.Background(), 300000, 1.0, mustDate(t, "2026-09-03"))
	require.NoError(t, err)

	assert.Equal(t, 300000.0, quote.BasePrice)
	assert.Equal(t, 0.0, quote.DiscountAmount)
	assert.Equal(t, 300000.0, quote.FinalPrice)
	assert.Nil(t, quote.AppliedHoliday)
}

func TestResolveCoefficientDefaultsToOne(t *testing.T) {
	svc := newTestService()

	quote, err := svc.Resolve(context.Background(), 250000, 0, mustDate(t, "2026-03-10"))
	require.NoError(t, err)
	assert.Equal(t, 250000.0, quote.BasePrice)
}

func TestRecurringRangeBoundariesInclusive(t *testing.T) {
	svc := newTestService(HolidayRule{
		Name:           "Spring Break",
		StartMarker:    "04-10",
		EndMarker:      strPtr("04-15"),
		DiscountFactor: 0.8,
	})

	for _, date := range []string{"2026-04-10", "2026-04-15", "2027-04-12"} {
		quote, err := svc.Resolve(context.Background(), 100000, 1.0, mustDate(t, date))
		require.NoError(t, err)
		assert.NotNil(t, quote.AppliedHoliday, date)
	}

	quote, err := svc.Resolve(context.Background(), 100000, 1.0, mustDate(t, "2026-04-16"))
	require.NoError(t, err)
	assert.Nil(t, quote.AppliedHoliday)
}

func TestFullDateSingleDayRule(t *testing.T) {
	svc := newTestService(HolidayRule{
		Name:           "Grand Opening",
		StartMarker:    "2026-06-01",
		DiscountFactor: 0.5,
	})

	quote, err := svc.Resolve(context.Background(), 100000, 1.0, mustDate(t, "2026-06-01"))
	require.NoError(t, err)
	assert.NotNil(t, quote.AppliedHoliday)

	quote, err = svc.Resolve(context.Background(), 100000, 1.0, mustDate(t, "2026-06-02"))
	require.NoError(t, err)
	assert.Nil(t, quote.AppliedHoliday)
}

func TestFirstMatchByEntryOrderWins(t *testing.T) {
	svc := newTestService(
		HolidayRule{Name: "First", StartMarker: "05-01", EndMarker: strPtr("05-03"), DiscountFactor: 0.7},
		HolidayRule{Name: "Second", StartMarker: "05-02", EndMarker: strPtr("05-04"), DiscountFactor: 0.3},
	)

	quote, err := svc.Resolve(context.Background(), 100000, 1.0, mustDate(t, "2026-05-02"))
	require.NoError(t, err)
	require.NotNil(t, quote.AppliedHoliday)
	assert.Equal(t, "First", quote.AppliedHoliday.Name)
	assert.Equal(t, 70000.0, quote.FinalPrice)
}

func TestCreateRuleValidation(t *testing.T) {
	svc := newTestService()

	_, err := svc.CreateRule(context.Background(), CreateHolidayRuleRequest{
		Name: "Bad", StartMarker: "June 1st", DiscountFactor: 0.5,
	})
	assert.Error(t, err)

	_, err = svc.CreateRule(context.Background(), CreateHolidayRuleRequest{
		Name: "Mixed", StartMarker: "2026-06-01", EndMarker: strPtr("06-05"), DiscountFactor: 0.5,
	})
	assert.Error(t, err)

	_, err = svc.CreateRule(context.Background(), CreateHolidayRuleRequest{
		Name: "Backwards", StartMarker: "06-05", EndMarker: strPtr("06-01"), DiscountFactor: 0.5,
	})
	assert.Error(t, err)

	rule, err := svc.CreateRule(context.Background(), CreateHolidayRuleRequest{
		Name: "Good", StartMarker: "06-01", EndMarker: strPtr("06-05"), DiscountFactor: 0.5,
	})
	require.NoError(t, err)
	assert.True(t, rule.Active)
}
