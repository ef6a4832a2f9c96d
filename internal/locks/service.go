package locks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fieldbook/internal/shared/apperr"
	"fieldbook/internal/shared/config"
	"fieldbook/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BookingChecker answers "is this slot already taken by a live booking".
// Implemented by the bookings repository; declared here so the lock
// manager does not import it.
type BookingChecker interface {
	SlotTaken(ctx context.Context, fieldID uuid.UUID, usageDate string, windowID uuid.UUID) (bool, error)
}

type AcquireRequest struct {
	FieldID      uuid.UUID
	UsageDate    string // "2006-01-02"
	WindowID     uuid.UUID
	SessionToken string
	CustomerID   *uuid.UUID
}

// AcquireResult is a structured outcome; a rejection is not an error.
type AcquireResult struct {
	Granted          bool      `json:"granted"`
	Lock             *SlotLock `json:"lock,omitempty"`
	ReasonCode       string    `json:"reason_code,omitempty"`
	RemainingSeconds int64     `json:"remaining_seconds,omitempty"`
}

type ActiveLockInfo struct {
	WindowID         uuid.UUID `json:"window_id"`
	ExpiresAt        time.Time `json:"expires_at"`
	RemainingSeconds int64     `json:"remaining_seconds"`
}

type Service interface {
	TryAcquire(ctx context.Context, req AcquireRequest) (*AcquireResult, error)
	Extend(ctx context.Context, lockID string, sessionToken string) (*SlotLock, error)
	Release(ctx context.Context, lockID string, sessionToken string) error
	ReleaseBySlot(ctx context.Context, fieldID uuid.UUID, usageDate string, windowID uuid.UUID, sessionToken string) error
	IsAvailable(ctx context.Context, fieldID uuid.UUID, usageDate string, windowID uuid.UUID, excludingSession string) (bool, error)
	ListActiveLocks(ctx context.Context, fieldID uuid.UUID, usageDate string) ([]ActiveLockInfo, error)

	// Commit flips a live hold to COMMITTED once the booking it guarded
	// is fully settled.
	Commit(ctx context.Context, lockID uuid.UUID, bookingID uuid.UUID) error

	// ForceRelease drops a hold regardless of the holder, for booking
	// cancellation. No error when the hold is already gone.
	ForceRelease(ctx context.Context, lockID uuid.UUID) error
}

type service struct {
	repo     Repository
	bookings BookingChecker
	cfg      *config.Config
	log      *logger.Logger
	now      func() time.Time
}

func NewService(repo Repository, bookings BookingChecker, cfg *config.Config, log *logger.Logger) Service {
	return newService(repo, bookings, cfg, log, func() time.Time { return time.Now().UTC() })
}

func newService(repo Repository, bookings BookingChecker, cfg *config.Config, log *logger.Logger, now func() time.Time) Service {
	return &service{repo: repo, bookings: bookings, cfg: cfg, log: log, now: now}
}

// sweep is the lazy expiry pass run before every mutating operation.
// There is no background timer.
func (s *service) sweep(ctx context.Context) {
	count, err := s.repo.SweepExpired(ctx, s.now())
	if err != nil {
		s.log.ErrorWithContext(ctx, "lock sweep failed", err, nil)
		return
	}
	if count > 0 {
		s.log.LogLocksSwept(ctx, count)
	}
}

func (s *service) TryAcquire(ctx context.Context, req AcquireRequest) (*AcquireResult, error) {
	if req.SessionToken == "" {
		return nil, fmt.Errorf("session token is required: %w", apperr.ErrValidation)
	}
	if _, err := time.Parse("2006-01-02", req.UsageDate); err != nil {
		return nil, fmt.Errorf("usage date must be yyyy-mm-dd: %w", apperr.ErrValidation)
	}

	s.sweep(ctx)
	now := s.now()

	taken, err := s.bookings.SlotTaken(ctx, req.FieldID, req.UsageDate, req.WindowID)
	if err != nil {
		return nil, fmt.Errorf("failed to check bookings: %w", err)
	}
	if taken {
		return &AcquireResult{Granted: false, ReasonCode: ReasonAlreadyBooked}, nil
	}

	existing, err := s.repo.FindHolding(ctx, req.FieldID, req.UsageDate, req.WindowID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing locks: %w", err)
	}
	if existing != nil {
		if existing.SessionToken == req.SessionToken {
			// Idempotent re-acquire refreshes the full hold duration
			newExpiry := now.Add(s.cfg.Lock.HoldDuration)
			ok, err := s.repo.ExtendExpiry(ctx, existing.ID, req.SessionToken, newExpiry)
			if err != nil {
				return nil, fmt.Errorf("failed to refresh hold: %w", err)
			}
			if ok {
				existing.ExpiresAt = newExpiry
			}
			return &AcquireResult{Granted: true, Lock: existing}, nil
		}
		return &AcquireResult{
			Granted:          false,
			ReasonCode:       ReasonAlreadyLocked,
			RemainingSeconds: existing.RemainingSeconds(now),
		}, nil
	}

	lock := &SlotLock{
		FieldID:      req.FieldID,
		UsageDate:    req.UsageDate,
		WindowID:     req.WindowID,
		SessionToken: req.SessionToken,
		CustomerID:   req.CustomerID,
		Status:       LockStatusHolding,
		AcquiredAt:   now,
		ExpiresAt:    now.Add(s.cfg.Lock.HoldDuration),
	}

	err = s.repo.Create(ctx, lock)
	if err == nil {
		s.log.LogLockAcquired(ctx, lock.ID.String(), req.FieldID.String(), req.UsageDate, req.SessionToken)
		return &AcquireResult{Granted: true, Lock: lock}, nil
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, fmt.Errorf("failed to create lock: %w", err)
	}

	// Lost the insert race; tell the loser the winner's remaining time
	winner, werr := s.repo.FindHolding(ctx, req.FieldID, req.UsageDate, req.WindowID)
	if werr != nil && !errors.Is(werr, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to read winning lock: %w", werr)
	}
	result := &AcquireResult{Granted: false, ReasonCode: ReasonAlreadyLocked}
	if winner != nil {
		if winner.SessionToken == req.SessionToken {
			return &AcquireResult{Granted: true, Lock: winner}, nil
		}
		result.RemainingSeconds = winner.RemainingSeconds(s.now())
	}
	return result, nil
}

func (s *service) Extend(ctx context.Context, lockID string, sessionToken string) (*SlotLock, error) {
	id, err := uuid.Parse(lockID)
	if err != nil {
		return nil, fmt.Errorf("invalid lock ID: %w", apperr.ErrValidation)
	}

	s.sweep(ctx)

	lock, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("lock %s: %w", lockID, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load lock: %w", err)
	}

	newExpiry := lock.ExpiresAt.Add(s.cfg.Lock.ExtendIncrement)
	ok, err := s.repo.ExtendExpiry(ctx, id, sessionToken, newExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to extend lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("lock is not held by this session: %w", apperr.ErrConflict)
	}

	lock.ExpiresAt = newExpiry
	return lock, nil
}

func (s *service) Release(ctx context.Context, lockID string, sessionToken string) error {
	id, err := uuid.Parse(lockID)
	if err != nil {
		return fmt.Errorf("invalid lock ID: %w", apperr.ErrValidation)
	}

	s.sweep(ctx)

	ok, err := s.repo.MarkReleased(ctx, id, sessionToken, s.now())
	if err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	if !ok {
		if _, gerr := s.repo.GetByID(ctx, id); errors.Is(gerr, gorm.ErrRecordNotFound) {
			return fmt.Errorf("lock %s: %w", lockID, apperr.ErrNotFound)
		}
		return fmt.Errorf("lock is not held by this session: %w", apperr.ErrConflict)
	}
	return nil
}

func (s *service) ReleaseBySlot(ctx context.Context, fieldID uuid.UUID, usageDate string, windowID uuid.UUID, sessionToken string) error {
	s.sweep(ctx)

	lock, err := s.repo.FindHolding(ctx, fieldID, usageDate, windowID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil // nothing held, nothing to do
		}
		return fmt.Errorf("failed to find lock: %w", err)
	}

	ok, err := s.repo.MarkReleased(ctx, lock.ID, sessionToken, s.now())
	if err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("lock is not held by this session: %w", apperr.ErrConflict)
	}
	return nil
}

func (s *service) IsAvailable(ctx context.Context, fieldID uuid.UUID, usageDate string, windowID uuid.UUID, excludingSession string) (bool, error) {
	taken, err := s.bookings.SlotTaken(ctx, fieldID, usageDate, windowID)
	if err != nil {
		return false, fmt.Errorf("failed to check bookings: %w", err)
	}
	if taken {
		return false, nil
	}

	lock, err := s.repo.FindHolding(ctx, fieldID, usageDate, windowID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return true, nil
		}
		return false, fmt.Errorf("failed to check locks: %w", err)
	}

	// A stale hold the sweep has not touched yet does not block anyone
	if !lock.ExpiresAt.After(s.now()) {
		return true, nil
	}
	if excludingSession != "" && lock.SessionToken == excludingSession {
		return true, nil
	}
	return false, nil
}

func (s *service) ListActiveLocks(ctx context.Context, fieldID uuid.UUID, usageDate string) ([]ActiveLockInfo, error) {
	list, err := s.repo.ListHoldingByFieldDate(ctx, fieldID, usageDate)
	if err != nil {
		return nil, fmt.Errorf("failed to list locks: %w", err)
	}

	now := s.now()
	out := make([]ActiveLockInfo, 0, len(list))
	for _, lock := range list {
		if !lock.ExpiresAt.After(now) {
			continue
		}
		out = append(out, ActiveLockInfo{
			WindowID:         lock.WindowID,
			ExpiresAt:        lock.ExpiresAt,
			RemainingSeconds: lock.RemainingSeconds(now),
		})
	}
	return out, nil
}

func (s *service) ForceRelease(ctx context.Context, lockID uuid.UUID) error {
	s.sweep(ctx)

	if _, err := s.repo.MarkReleasedAnyHolder(ctx, lockID, s.now()); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}

func (s *service) Commit(ctx context.Context, lockID uuid.UUID, bookingID uuid.UUID) error {
	s.sweep(ctx)

	ok, err := s.repo.MarkCommitted(ctx, lockID, bookingID)
	if err != nil {
		return fmt.Errorf("failed to commit lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("lock %s is no longer holding: %w", lockID, apperr.ErrConflict)
	}
	return nil
}
