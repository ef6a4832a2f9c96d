package bookings

import (
	"context"
	"sync"
	"testing"
	"time"

	"fieldbook/internal/fields"
	"fieldbook/internal/locks"
	"fieldbook/internal/pricing"
	"fieldbook/internal/shared/apperr"
	"fieldbook/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type memBookingRepo struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*Booking
}

func newMemBookingRepo() *memBookingRepo {
	return &memBookingRepo{bookings: map[uuid.UUID]*Booking{}}
}

func (m *memBookingRepo) Create(ctx context.Context, booking *Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	booking.ID = uuid.New()
	for i := range booking.AddOns {
		booking.AddOns[i].ID = uuid.New()
		booking.AddOns[i].BookingID = booking.ID
	}
	copied := *booking
	m.bookings[booking.ID] = &copied
	return nil
}

func (m *memBookingRepo) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.bookings[id]; ok {
		copied := *b
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memBookingRepo) GetByRef(ctx context.Context, ref string) (*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bookings {
		if b.BookingRef == ref {
			copied := *b
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memBookingRepo) ListByCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Booking
	for _, b := range m.bookings {
		if b.CustomerID == customerID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (m *memBookingRepo) ListActiveByFieldDate(ctx context.Context, fieldID uuid.UUID, usageDate string) ([]Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Booking
	for _, b := range m.bookings {
		if b.FieldID == fieldID && b.UsageDate == usageDate && b.Status.IsActive() {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (m *memBookingRepo) SlotTaken(ctx context.Context, fieldID uuid.UUID, usageDate string, windowID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bookings {
		if b.FieldID == fieldID && b.UsageDate == usageDate && b.WindowID != nil && *b.WindowID == windowID && b.Status.IsActive() {
			return true, nil
		}
	}
	return false, nil
}

func (m *memBookingRepo) MarkCancelled(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok || b.Status == StatusCancelled {
		return false, nil
	}
	b.Status = StatusCancelled
	b.CancelledAt = &now
	return true, nil
}

func (m *memBookingRepo) MarkConfirmed(ctx context.Context, id uuid.UUID, staffID uuid.UUID, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok || (b.Status != StatusPendingConfirmation && b.Status != StatusDeposited) {
		return false, nil
	}
	b.Status = StatusConfirmed
	b.AssignedStaffID = &staffID
	b.ConfirmedAt = &now
	return true, nil
}

func (m *memBookingRepo) AddAmountPaid(ctx context.Context, id uuid.UUID, amount float64, allowedFrom []Status) (float64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok || !statusIn(b.Status, allowedFrom) {
		return 0, false, nil
	}
	b.AmountPaid += amount
	return b.AmountPaid, true, nil
}

func (m *memBookingRepo) PromoteStatus(ctx context.Context, id uuid.UUID, to Status, allowedFrom []Status) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok || !statusIn(b.Status, allowedFrom) {
		return false, nil
	}
	b.Status = to
	return true, nil
}

func statusIn(s Status, list []Status) bool {
	for _, candidate := range list {
		if s == candidate {
			return true
		}
	}
	return false
}

// fakeLocks scripts the lock manager's answers and records calls
type fakeLocks struct {
	rejectWith *locks.AcquireResult
	released   []uuid.UUID
	committed  []uuid.UUID
}

func (f *fakeLocks) TryAcquire(ctx context.Context, req locks.AcquireRequest) (*locks.AcquireResult, error) {
	if f.rejectWith != nil {
		return f.rejectWith, nil
	}
	return &locks.AcquireResult{
		Granted: true,
		Lock: &locks.SlotLock{
			ID:        uuid.New(),
			FieldID:   req.FieldID,
			UsageDate: req.UsageDate,
			WindowID:  req.WindowID,
			Status:    locks.LockStatusHolding,
		},
	}, nil
}

func (f *fakeLocks) Extend(ctx context.Context, lockID string, sessionToken string) (*locks.SlotLock, error) {
	return nil, nil
}
func (f *fakeLocks) Release(ctx context.Context, lockID string, sessionToken string) error {
	return nil
}
func (f *fakeLocks) ReleaseBySlot(ctx context.Context, fieldID uuid.UUID, usageDate string, windowID uuid.UUID, sessionToken string) error {
	return nil
}
func (f *fakeLocks) IsAvailable(ctx context.Context, fieldID uuid.UUID, usageDate string, windowID uuid.UUID, excludingSession string) (bool, error) {
	return true, nil
}
func (f *fakeLocks) ListActiveLocks(ctx context.Context, fieldID uuid.UUID, usageDate string) ([]locks.ActiveLockInfo, error) {
	return nil, nil
}
func (f *fakeLocks) Commit(ctx context.Context, lockID uuid.UUID, bookingID uuid.UUID) error {
	f.committed = append(f.committed, lockID)
	return nil
}
func (f *fakeLocks) ForceRelease(ctx context.Context, lockID uuid.UUID) error {
	f.released = append(f.released, lockID)
	return nil
}

// fakePricing applies a fixed discount factor when holiday is set
type fakePricing struct {
	holidayFactor float64 // 0 means no holiday
}

func (f *fakePricing) Resolve(ctx context.Context, resourceBasePrice, coefficient float64, usageDate time.Time) (*pricing.Quote, error) {
	if coefficient <= 0 {
		coefficient = 1.0
	}
	base := resourceBasePrice * coefficient
	quote := &pricing.Quote{BasePrice: base, FinalPrice: base}
	if f.holidayFactor > 0 {
		quote.FinalPrice = base * f.holidayFactor
		quote.DiscountAmount = base - quote.FinalPrice
		quote.AppliedHoliday = &pricing.AppliedHoliday{ID: uuid.New(), Name: "Holiday", DiscountFactor: f.holidayFactor}
	}
	return quote, nil
}

func (f *fakePricing) DiscountInfo(ctx context.Context, usageDate time.Time) (*pricing.AppliedHoliday, error) {
	return nil, nil
}
func (f *fakePricing) ActiveRules(ctx context.Context) ([]pricing.HolidayRule, error) { return nil, nil }
func (f *fakePricing) CreateRule(ctx context.Context, req pricing.CreateHolidayRuleRequest) (*pricing.HolidayRule, error) {
	return nil, nil
}
func (f *fakePricing) DeactivateRule(ctx context.Context, id string) error { return nil }

// fakeFields serves a single field and window
type fakeFields struct {
	field  fields.Field
	window fields.TimeWindow
}

func (f *fakeFields) CreateField(ctx context.Context, req fields.CreateFieldRequest) (*fields.Field, error) {
	return nil, nil
}
func (f *fakeFields) GetFieldByID(ctx context.Context, id string) (*fields.Field, error) {
	copied := f.field
	return &copied, nil
}
func (f *fakeFields) GetFields(ctx context.Context, status string) ([]fields.Field, error) {
	return nil, nil
}
func (f *fakeFields) UpdateFieldStatus(ctx context.Context, id string, status string) (*fields.Field, error) {
	return nil, nil
}
func (f *fakeFields) CreateTimeWindow(ctx context.Context, req fields.CreateTimeWindowRequest) (*fields.TimeWindow, error) {
	return nil, nil
}
func (f *fakeFields) GetTimeWindowByID(ctx context.Context, id string) (*fields.TimeWindow, error) {
	copied := f.window
	return &copied, nil
}
func (f *fakeFields) GetTimeWindows(ctx context.Context) ([]fields.TimeWindow, error) {
	return nil, nil
}

type bookingFixture struct {
	repo    *memBookingRepo
	locks   *fakeLocks
	pricing *fakePricing
	fields  *fakeFields
	svc     Service
}

func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()
	repo := newMemBookingRepo()
	lockSvc := &fakeLocks{}
	priceSvc := &fakePricing{}
	fieldSvc := &fakeFields{
		field: fields.Field{
			ID:        uuid.MustParse("11111111-1111-1111-1111-111111111111"),
			Name:      "Field One",
			BasePrice: 200000,
			Status:    fields.FieldStatusActive,
		},
		window: fields.TimeWindow{
			ID:               uuid.MustParse("22222222-2222-2222-2222-222222222222"),
			Label:            "Evening",
			StartTime:        "18:00",
			EndTime:          "19:30",
			PriceCoefficient: 1.5,
		},
	}
	svc := NewService(repo, lockSvc, priceSvc, fieldSvc, logger.New())
	return &bookingFixture{repo: repo, locks: lockSvc, pricing: priceSvc, fields: fieldSvc, svc: svc}
}

func windowBookingRequest() CreateBookingRequest {
	windowID := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	return CreateBookingRequest{
		CustomerID:   uuid.New(),
		FieldID:      uuid.MustParse("11111111-1111-1111-1111-111111111111"),
		UsageDate:    "2026-04-20",
		WindowID:     &windowID,
		SessionToken: "session-a",
	}
}

func TestCreateBookingWindowSlot(t *testing.T) {
	f := newBookingFixture(t)

	req := windowBookingRequest()
	req.AddOns = []AddOnInput{
		{Label: "Ball rental", UnitPrice: 30000, Quantity: 1},
		{Label: "Water", UnitPrice: 10000, Quantity: 4},
	}

	result, err := f.svc.CreateBooking(context.Background(), req)
	require.NoError(t, err)
	require.Nil(t, result.Rejection)
	require.NotNil(t, result.Booking)

	b := result.Booking
	// 200000/hour * 1.5h window * 1.5 coefficient
	assert.Equal(t, 450000.0, b.BasePrice)
	assert.Equal(t, 450000.0, b.FinalPrice)
	assert.Equal(t, 450000.0+30000+40000, b.TotalPrice)
	assert.Equal(t, StatusPendingConfirmation, b.Status)
	assert.Equal(t, "18:00", b.StartTime)
	assert.Equal(t, "19:30", b.EndTime)
	assert.NotNil(t, b.LockID)
	assert.NotEmpty(t, b.BookingRef)
	assert.Len(t, b.AddOns, 2)
}

func TestCreateBookingAppliesHolidayDiscount(t *testing.T) {
	f := newBookingFixture(t)
	f.pricing.holidayFactor = 0.6

	result, err := f.svc.CreateBooking(context.Background(), windowBookingRequest())
	require.NoError(t, err)

	b := result.Booking
	assert.Equal(t, 450000.0, b.BasePrice)
	assert.Equal(t, 180000.0, b.DiscountAmount)
	assert.Equal(t, 270000.0, b.FinalPrice)
	assert.NotNil(t, b.AppliedHolidayID)
}

func TestCreateBookingSurfacesLockRejection(t *testing.T) {
	f := newBookingFixture(t)
	f.locks.rejectWith = &locks.AcquireResult{
		Granted:          false,
		ReasonCode:       locks.ReasonAlreadyLocked,
		RemainingSeconds: 412,
	}

	result, err := f.svc.CreateBooking(context.Background(), windowBookingRequest())
	require.NoError(t, err)

	assert.Nil(t, result.Booking)
	require.NotNil(t, result.Rejection)
	assert.Equal(t, locks.ReasonAlreadyLocked, result.Rejection.ReasonCode)
	assert.Equal(t, int64(412), result.Rejection.RemainingSeconds)
	assert.Empty(t, f.repo.bookings, "no booking row on rejection")
}

func TestCreateCustomTimeBookingOverlapRejected(t *testing.T) {
	f := newBookingFixture(t)

	// Window booking 18:00-19:30 already on the books
	_, err := f.svc.CreateBooking(context.Background(), windowBookingRequest())
	require.NoError(t, err)

	custom := CreateBookingRequest{
		CustomerID:    uuid.New(),
		FieldID:       uuid.MustParse("11111111-1111-1111-1111-111111111111"),
		UsageDate:     "2026-04-20",
		StartTime:     "19:00",
		DurationHours: 1,
		SessionToken:  "session-b",
	}
	_, err = f.svc.CreateBooking(context.Background(), custom)
	assert.Error(t, err, "19:00-20:00 overlaps 18:00-19:30")

	custom.StartTime = "19:30"
	result, err := f.svc.CreateBooking(context.Background(), custom)
	require.NoError(t, err)
	require.NotNil(t, result.Booking)
	assert.Equal(t, "20:30", result.Booking.EndTime)
	assert.Nil(t, result.Booking.WindowID)
	// Custom slots default the coefficient
	assert.Equal(t, 200000.0, result.Booking.BasePrice)
}

func TestCancelReleasesLock(t *testing.T) {
	f := newBookingFixture(t)

	result, err := f.svc.CreateBooking(context.Background(), windowBookingRequest())
	require.NoError(t, err)
	bookingID := result.Booking.ID

	require.NoError(t, f.svc.Cancel(context.Background(), bookingID))

	cancelled, err := f.svc.GetBooking(context.Background(), bookingID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)
	assert.NotNil(t, cancelled.CancelledAt)
	require.Len(t, f.locks.released, 1)
	assert.Equal(t, *result.Booking.LockID, f.locks.released[0])

	// Cancel is not idempotent; the second call reports the state error
	assert.Error(t, f.svc.Cancel(context.Background(), bookingID))
}

func TestConfirmByStaff(t *testing.T) {
	f := newBookingFixture(t)

	result, err := f.svc.CreateBooking(context.Background(), windowBookingRequest())
	require.NoError(t, err)
	staffID := uuid.New()

	confirmed, err := f.svc.ConfirmByStaff(context.Background(), result.Booking.ID, staffID)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, confirmed.Status)
	require.NotNil(t, confirmed.AssignedStaffID)
	assert.Equal(t, staffID, *confirmed.AssignedStaffID)

	// Already confirmed, cannot confirm again
	_, err = f.svc.ConfirmByStaff(context.Background(), result.Booking.ID, staffID)
	assert.Error(t, err)
}

func TestApplySettlementPartialThenFull(t *testing.T) {
	f := newBookingFixture(t)

	result, err := f.svc.CreateBooking(context.Background(), windowBookingRequest())
	require.NoError(t, err)
	bookingID := result.Booking.ID
	total := result.Booking.TotalPrice // 450000

	deposited, err := f.svc.ApplySettlement(context.Background(), bookingID, 140000)
	require.NoError(t, err)
	assert.Equal(t, StatusDeposited, deposited.Status)
	assert.Equal(t, 140000.0, deposited.AmountPaid)
	assert.Empty(t, f.locks.committed, "lock stays held until full settlement")

	confirmed, err := f.svc.ApplySettlement(context.Background(), bookingID, total-140000)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, confirmed.Status)
	assert.Equal(t, total, confirmed.AmountPaid)
	require.Len(t, f.locks.committed, 1)
	assert.Equal(t, *result.Booking.LockID, f.locks.committed[0])
}

func TestApplySettlementFullPaymentConfirmsDirectly(t *testing.T) {
	f := newBookingFixture(t)

	result, err := f.svc.CreateBooking(context.Background(), windowBookingRequest())
	require.NoError(t, err)

	confirmed, err := f.svc.ApplySettlement(context.Background(), result.Booking.ID, result.Booking.TotalPrice)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, confirmed.Status)
}

func TestApplySettlementRejectsCancelledBooking(t *testing.T) {
	f := newBookingFixture(t)

	result, err := f.svc.CreateBooking(context.Background(), windowBookingRequest())
	require.NoError(t, err)
	require.NoError(t, f.svc.Cancel(context.Background(), result.Booking.ID))

	_, err = f.svc.ApplySettlement(context.Background(), result.Booking.ID, 100000)
	assert.Error(t, err)
}

func TestApplySettlementRejectsSettledBooking(t *testing.T) {
	f := newBookingFixture(t)

	result, err := f.svc.CreateBooking(context.Background(), windowBookingRequest())
	require.NoError(t, err)
	total := result.Booking.TotalPrice

	confirmed, err := f.svc.ApplySettlement(context.Background(), result.Booking.ID, total)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, confirmed.Status)

	// A second full payment must not push amount_paid past the total
	_, err = f.svc.ApplySettlement(context.Background(), result.Booking.ID, total)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	after, err := f.svc.GetBooking(context.Background(), result.Booking.ID)
	require.NoError(t, err)
	assert.Equal(t, total, after.AmountPaid)
}

func TestConcurrentPartialSettlementsConfirm(t *testing.T) {
	f := newBookingFixture(t)

	result, err := f.svc.CreateBooking(context.Background(), windowBookingRequest())
	require.NoError(t, err)
	bookingID := result.Booking.ID
	half := result.Booking.TotalPrice / 2

	// Two partial settlements land at once; the one whose increment
	// reaches the total must confirm, and the other must not downgrade it
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, serr := f.svc.ApplySettlement(context.Background(), bookingID, half)
			assert.NoError(t, serr)
		}()
	}
	wg.Wait()

	after, err := f.svc.GetBooking(context.Background(), bookingID)
	require.NoError(t, err)
	assert.Equal(t, result.Booking.TotalPrice, after.AmountPaid)
	assert.Equal(t, StatusConfirmed, after.Status)
	assert.Len(t, f.locks.committed, 1)
}

func TestCustomBookingCrossingMidnightRejected(t *testing.T) {
	f := newBookingFixture(t)

	// Window booking 18:00-19:30 already on the books
	_, err := f.svc.CreateBooking(context.Background(), windowBookingRequest())
	require.NoError(t, err)

	// 17:00 + 9h wraps past midnight; the wrapped "02:00" end would slip
	// through the lexicographic overlap check, so the range is rejected
	custom := CreateBookingRequest{
		CustomerID:    uuid.New(),
		FieldID:       uuid.MustParse("11111111-1111-1111-1111-111111111111"),
		UsageDate:     "2026-04-20",
		StartTime:     "17:00",
		DurationHours: 9,
		SessionToken:  "session-b",
	}
	_, err = f.svc.CreateBooking(context.Background(), custom)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	list, err := f.repo.ListActiveByFieldDate(context.Background(),
		custom.FieldID, custom.UsageDate)
	require.NoError(t, err)
	assert.Len(t, list, 1, "only the window booking exists")

	// Ending exactly at midnight is equally unrepresentable in "HH:MM"
	custom.StartTime = "22:00"
	custom.DurationHours = 2
	_, err = f.svc.CreateBooking(context.Background(), custom)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestWindowWithInvalidRangeRejected(t *testing.T) {
	f := newBookingFixture(t)
	f.fields.window.StartTime = "23:00"
	f.fields.window.EndTime = "00:30"

	_, err := f.svc.CreateBooking(context.Background(), windowBookingRequest())
	assert.ErrorIs(t, err, apperr.ErrValidation, "zero-duration window must not price a booking at zero")
}
