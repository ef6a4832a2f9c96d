package bookings

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math"
	"math/big"
	"time"

	"fieldbook/internal/fields"
	"fieldbook/internal/locks"
	"fieldbook/internal/pricing"
	"fieldbook/internal/shared/apperr"
	"fieldbook/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AddOnInput struct {
	Label     string  `json:"label" binding:"required,min=1,max=255"`
	UnitPrice float64 `json:"unit_price" binding:"required,gte=0"`
	Quantity  int     `json:"quantity" binding:"required,min=1,max=100"`
}

type CreateBookingRequest struct {
	CustomerID   uuid.UUID
	FieldID      uuid.UUID
	UsageDate    string
	WindowID     *uuid.UUID // nil means custom time
	StartTime    string     // custom time only, "HH:MM"
	DurationHours float64   // custom time only
	SessionToken string
	Note         string
	AddOns       []AddOnInput
}

// CreateResult carries either the booking or the lock manager's
// rejection, verbatim.
type CreateResult struct {
	Booking   *Booking             `json:"booking,omitempty"`
	Rejection *locks.AcquireResult `json:"rejection,omitempty"`
}

type Service interface {
	CreateBooking(ctx context.Context, req CreateBookingRequest) (*CreateResult, error)
	GetBooking(ctx context.Context, bookingID uuid.UUID) (*Booking, error)
	GetUserBookings(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]Booking, error)
	Cancel(ctx context.Context, bookingID uuid.UUID) error
	ConfirmByStaff(ctx context.Context, bookingID uuid.UUID, staffID uuid.UUID) (*Booking, error)

	// ApplySettlement records a paid amount and promotes the booking:
	// partial pays move PendingConfirmation to Deposited, full settlement
	// to Confirmed and commits the slot lock.
	ApplySettlement(ctx context.Context, bookingID uuid.UUID, amount float64) (*Booking, error)
}

type service struct {
	repo    Repository
	locks   locks.Service
	pricing pricing.Service
	fields  fields.Service
	log     *logger.Logger
}

func NewService(repo Repository, lockService locks.Service, pricingService pricing.Service, fieldService fields.Service, log *logger.Logger) Service {
	return &service{
		repo:    repo,
		locks:   lockService,
		pricing: pricingService,
		fields:  fieldService,
		log:     log,
	}
}

func (s *service) CreateBooking(ctx context.Context, req CreateBookingRequest) (*CreateResult, error) {
	usageDate, err := time.Parse("2006-01-02", req.UsageDate)
	if err != nil {
		return nil, fmt.Errorf("usage date must be yyyy-mm-dd: %w", apperr.ErrValidation)
	}

	field, err := s.fields.GetFieldByID(ctx, req.FieldID.String())
	if err != nil {
		return nil, err
	}
	if field.Status != fields.FieldStatusActive {
		return nil, fmt.Errorf("field %s is not bookable: %w", field.Name, apperr.ErrConflict)
	}

	booking := &Booking{
		CustomerID: req.CustomerID,
		FieldID:    req.FieldID,
		UsageDate:  req.UsageDate,
		Note:       req.Note,
		Status:     StatusPendingConfirmation,
	}

	var coefficient float64
	var resourcePrice float64

	if req.WindowID != nil {
		window, err := s.fields.GetTimeWindowByID(ctx, req.WindowID.String())
		if err != nil {
			return nil, err
		}
		if window.DurationHours() <= 0 {
			return nil, fmt.Errorf("time window %s has an invalid range: %w", window.Label, apperr.ErrValidation)
		}

		// The hold is the admission check for window slots
		acquire, err := s.locks.TryAcquire(ctx, locks.AcquireRequest{
			FieldID:      req.FieldID,
			UsageDate:    req.UsageDate,
			WindowID:     *req.WindowID,
			SessionToken: req.SessionToken,
			CustomerID:   &req.CustomerID,
		})
		if err != nil {
			return nil, err
		}
		if !acquire.Granted {
			return &CreateResult{Rejection: acquire}, nil
		}

		booking.WindowID = req.WindowID
		booking.StartTime = window.StartTime
		booking.EndTime = window.EndTime
		booking.LockID = &acquire.Lock.ID
		coefficient = window.PriceCoefficient
		resourcePrice = field.BasePrice * window.DurationHours()
	} else {
		start, err := time.Parse("15:04", req.StartTime)
		if err != nil {
			return nil, fmt.Errorf("start time must be HH:MM: %w", apperr.ErrValidation)
		}
		if req.DurationHours <= 0 || req.DurationHours > 12 {
			return nil, fmt.Errorf("duration must be between 0 and 12 hours: %w", apperr.ErrValidation)
		}

		// Overlap checks compare "HH:MM" strings, which only works while
		// both endpoints fall on the same day
		end := start.Add(time.Duration(req.DurationHours * float64(time.Hour)))
		if end.Day() != start.Day() {
			return nil, fmt.Errorf("booking cannot cross midnight: %w", apperr.ErrValidation)
		}

		booking.StartTime = req.StartTime
		booking.EndTime = end.Format("15:04")
		coefficient = 1.0
		resourcePrice = field.BasePrice * req.DurationHours

		// Custom times are not slot-keyed, so the guard is an interval
		// check against every live booking on the field that day
		if err := s.checkOverlap(ctx, booking, uuid.Nil); err != nil {
			return nil, err
		}
	}

	quote, err := s.pricing.Resolve(ctx, resourcePrice, coefficient, usageDate)
	if err != nil {
		return nil, err
	}

	booking.BasePrice = quote.BasePrice
	booking.DiscountAmount = quote.DiscountAmount
	booking.FinalPrice = quote.FinalPrice
	if quote.AppliedHoliday != nil {
		booking.AppliedHolidayID = &quote.AppliedHoliday.ID
	}

	total := quote.FinalPrice
	for _, addOn := range req.AddOns {
		lineTotal := addOn.UnitPrice * float64(addOn.Quantity)
		booking.AddOns = append(booking.AddOns, AddOnCharge{
			Label:     addOn.Label,
			UnitPrice: addOn.UnitPrice,
			Quantity:  addOn.Quantity,
			LineTotal: lineTotal,
		})
		total += lineTotal
	}
	booking.TotalPrice = total

	booking.BookingRef, err = generateBookingReference()
	if err != nil {
		return nil, fmt.Errorf("failed to generate booking reference: %w", err)
	}

	if err := s.repo.Create(ctx, booking); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("slot was booked concurrently: %w", apperr.ErrConflict)
		}
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	s.log.LogBookingCreated(ctx, booking.ID.String(), booking.FieldID.String(), booking.CustomerID.String())
	return &CreateResult{Booking: booking}, nil
}

func (s *service) GetBooking(ctx context.Context, bookingID uuid.UUID) (*Booking, error) {
	booking, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("booking %s: %w", bookingID, apperr.ErrNotFound)
		}
		return nil, err
	}
	return booking, nil
}

func (s *service) GetUserBookings(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]Booking, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListByCustomer(ctx, customerID, limit, offset)
}

func (s *service) Cancel(ctx context.Context, bookingID uuid.UUID) error {
	booking, err := s.GetBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if !booking.Status.CanBeCancelled() {
		return fmt.Errorf("booking is already cancelled: %w", apperr.ErrInvalidStateTransition)
	}

	ok, err := s.repo.MarkCancelled(ctx, bookingID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to cancel booking: %w", err)
	}
	if !ok {
		return fmt.Errorf("booking is already cancelled: %w", apperr.ErrInvalidStateTransition)
	}

	if booking.LockID != nil {
		if err := s.locks.ForceRelease(ctx, *booking.LockID); err != nil {
			s.log.ErrorWithContext(ctx, "failed to release lock on cancel", err,
				map[string]interface{}{"booking_id": bookingID.String()})
		}
	}
	return nil
}

func (s *service) ConfirmByStaff(ctx context.Context, bookingID uuid.UUID, staffID uuid.UUID) (*Booking, error) {
	booking, err := s.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !booking.Status.CanBeConfirmed() {
		return nil, fmt.Errorf("booking is %s: %w", booking.Status, apperr.ErrInvalidStateTransition)
	}

	if err := s.checkOverlap(ctx, booking, booking.ID); err != nil {
		return nil, err
	}

	ok, err := s.repo.MarkConfirmed(ctx, bookingID, staffID, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to confirm booking: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("booking is not confirmable: %w", apperr.ErrInvalidStateTransition)
	}

	return s.GetBooking(ctx, bookingID)
}

func (s *service) ApplySettlement(ctx context.Context, bookingID uuid.UUID, amount float64) (*Booking, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("settlement amount must be positive: %w", apperr.ErrValidation)
	}

	booking, err := s.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status == StatusCancelled {
		return nil, fmt.Errorf("cannot settle a cancelled booking: %w", apperr.ErrInvalidStateTransition)
	}
	if booking.AmountPaid >= booking.TotalPrice || almostEqual(booking.AmountPaid, booking.TotalPrice) {
		return nil, fmt.Errorf("booking is already fully settled: %w", apperr.ErrConflict)
	}

	// Re-validate occupancy before any promotion
	if err := s.checkOverlap(ctx, booking, booking.ID); err != nil {
		return nil, err
	}

	allowedFrom := []Status{StatusPendingConfirmation, StatusDeposited, StatusConfirmed}
	newPaid, ok, err := s.repo.AddAmountPaid(ctx, bookingID, amount, allowedFrom)
	if err != nil {
		return nil, fmt.Errorf("failed to apply settlement: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("booking is not payable: %w", apperr.ErrInvalidStateTransition)
	}

	// Promote from the post-increment total, so two partial settlements
	// that together reach the total cannot both take the Deposited branch
	fullySettled := newPaid >= booking.TotalPrice || almostEqual(newPaid, booking.TotalPrice)
	if fullySettled {
		if _, err := s.repo.PromoteStatus(ctx, bookingID, StatusConfirmed,
			[]Status{StatusPendingConfirmation, StatusDeposited}); err != nil {
			return nil, fmt.Errorf("failed to promote booking: %w", err)
		}
	} else {
		if _, err := s.repo.PromoteStatus(ctx, bookingID, StatusDeposited,
			[]Status{StatusPendingConfirmation}); err != nil {
			return nil, fmt.Errorf("failed to promote booking: %w", err)
		}
	}

	if fullySettled && booking.LockID != nil {
		if err := s.locks.Commit(ctx, *booking.LockID, bookingID); err != nil {
			// The hold may have lapsed while payment was in flight; the
			// booking row itself still guards the slot
			s.log.ErrorWithContext(ctx, "failed to commit lock on settlement", err,
				map[string]interface{}{"booking_id": bookingID.String()})
		}
	}

	return s.GetBooking(ctx, bookingID)
}

// checkOverlap rejects when another live booking on the same field/date
// intersects the candidate's time range. excludeID skips the booking
// itself on re-validation.
func (s *service) checkOverlap(ctx context.Context, candidate *Booking, excludeID uuid.UUID) error {
	others, err := s.repo.ListActiveByFieldDate(ctx, candidate.FieldID, candidate.UsageDate)
	if err != nil {
		return fmt.Errorf("failed to list bookings: %w", err)
	}
	for i := range others {
		if others[i].ID == excludeID {
			continue
		}
		if others[i].Overlaps(candidate.StartTime, candidate.EndTime) {
			return fmt.Errorf("slot overlaps an existing booking: %w", apperr.ErrConflict)
		}
	}
	return nil
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 0.5
}

// generateBookingReference generates a unique booking reference
func generateBookingReference() (string, error) {
	timestamp := time.Now().Format("20060102")

	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	randomPart := make([]byte, 6)
	for i := range randomPart {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(letters))))
		if err != nil {
			return "", err
		}
		randomPart[i] = letters[num.Int64()]
	}

	return fmt.Sprintf("FB-%s-%s", timestamp, string(randomPart)), nil
}
