package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"fieldbook/internal/payments/providers"
	"fieldbook/internal/shared/apperr"
	"fieldbook/internal/shared/config"
	"fieldbook/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Settlement event types
const (
	EventPaymentPaid     = "payment.paid"
	EventPaymentRefunded = "payment.refunded"
)

type BankTransferRequest struct {
	BookingID uuid.UUID
	Purpose   string // FULL or DEPOSIT or REMAINDER
}

type BankTransferResult struct {
	Payment *Payment                  `json:"payment"`
	QR      *providers.BankTransferQR `json:"qr"`
}

type WalletPaymentRequest struct {
	BookingID uuid.UUID
	Method    string // MOMO, ZALOPAY, SANDBOX
	Purpose   string
	ReturnURL string
	NotifyURL string
	Customer  string
}

type WalletPaymentResult struct {
	Payment     *Payment `json:"payment"`
	RedirectURL string   `json:"redirect_url"`
}

type Service interface {
	CreateBankTransfer(ctx context.Context, req BankTransferRequest) (*BankTransferResult, error)
	ConfirmBankTransfer(ctx context.Context, paymentID uuid.UUID, staffID uuid.UUID) (*Payment, error)
	CreateWalletPayment(ctx context.Context, req WalletPaymentRequest) (*WalletPaymentResult, error)

	// HandleCallback verifies and applies one provider callback. A
	// signature mismatch is a hard failure and never touches state.
	HandleCallback(ctx context.Context, method string, params map[string]string) (*Payment, error)

	Refund(ctx context.Context, paymentID uuid.UUID, reason string) (*Payment, error)
	GetPayment(ctx context.Context, id uuid.UUID) (*Payment, error)
	GetPaymentHistory(ctx context.Context, bookingID uuid.UUID) ([]Payment, error)

	// ReconcilePending re-queries the provider for wallet payments stuck
	// in AwaitingApproval and settles or fails them by the answer.
	ReconcilePending(ctx context.Context) (int, error)
}

type service struct {
	repo      Repository
	ledger    BookingLedger
	registry  *providers.Registry
	bank      *providers.BankTransferGenerator
	publisher EventPublisher
	cfg       *config.Config
	log       *logger.Logger
	now       func() time.Time
}

func NewService(repo Repository, ledger BookingLedger, registry *providers.Registry, bank *providers.BankTransferGenerator, publisher EventPublisher, cfg *config.Config, log *logger.Logger) Service {
	return newService(repo, ledger, registry, bank, publisher, cfg, log, func() time.Time { return time.Now().UTC() })
}

func newService(repo Repository, ledger BookingLedger, registry *providers.Registry, bank *providers.BankTransferGenerator, publisher EventPublisher, cfg *config.Config, log *logger.Logger, now func() time.Time) Service {
	return &service{
		repo:      repo,
		ledger:    ledger,
		registry:  registry,
		bank:      bank,
		publisher: publisher,
		cfg:       cfg,
		log:       log,
		now:       now,
	}
}

// resolveAmount picks the charge for a purpose against what is still owed
func resolveAmount(payable *PayableBooking, purpose string) (float64, error) {
	outstanding := payable.TotalPrice - payable.AmountPaid
	if outstanding <= 0 {
		return 0, fmt.Errorf("booking is already settled: %w", apperr.ErrConflict)
	}

	switch purpose {
	case PurposeFull:
		return outstanding, nil
	case PurposeDeposit:
		if payable.AmountPaid > 0 {
			return 0, fmt.Errorf("deposit must be the first payment: %w", apperr.ErrInvalidStateTransition)
		}
		deposit := providers.DepositAmount(payable.TotalPrice)
		if deposit >= outstanding {
			return outstanding, nil
		}
		return deposit, nil
	case PurposeRemainder:
		if payable.AmountPaid == 0 {
			return 0, fmt.Errorf("nothing has been paid yet, use FULL or DEPOSIT: %w", apperr.ErrInvalidStateTransition)
		}
		return outstanding, nil
	default:
		return 0, fmt.Errorf("unknown payment purpose '%s': %w", purpose, apperr.ErrValidation)
	}
}

func (s *service) payableFor(ctx context.Context, bookingID uuid.UUID) (*PayableBooking, error) {
	payable, err := s.ledger.GetPayable(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if payable.Cancelled {
		return nil, fmt.Errorf("booking is cancelled: %w", apperr.ErrInvalidStateTransition)
	}
	return payable, nil
}

// paymentRef is the short suffix inside a transaction code
func paymentRef(id uuid.UUID) string {
	return strings.ToUpper(id.String()[:8])
}

// createPayment inserts the row. The partial unique index on
// (booking_id, method, purpose) WHERE awaiting rejects a second
// identical payment while the first is still open.
func (s *service) createPayment(ctx context.Context, payment *Payment) error {
	if err := s.repo.CreatePayment(ctx, payment); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("a %s %s payment is already awaiting approval for this booking: %w",
				payment.Method, payment.Purpose, apperr.ErrConflict)
		}
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

func (s *service) CreateBankTransfer(ctx context.Context, req BankTransferRequest) (*BankTransferResult, error) {
	payable, err := s.payableFor(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}
	amount, err := resolveAmount(payable, req.Purpose)
	if err != nil {
		return nil, err
	}

	id := uuid.New()
	qr := s.bank.Generate(paymentRef(id), amount)

	payment := &Payment{
		ID:              id,
		BookingID:       req.BookingID,
		Amount:          amount,
		Purpose:         req.Purpose,
		Method:          providers.MethodBankTransfer,
		Status:          StatusAwaitingApproval,
		TransactionCode: qr.TransferCode,
	}
	if err := s.createPayment(ctx, payment); err != nil {
		return nil, err
	}

	return &BankTransferResult{Payment: payment, QR: qr}, nil
}

func (s *service) ConfirmBankTransfer(ctx context.Context, paymentID uuid.UUID, staffID uuid.UUID) (*Payment, error) {
	payment, err := s.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.Method != providers.MethodBankTransfer {
		return nil, fmt.Errorf("payment %s is not a bank transfer: %w", paymentID, apperr.ErrValidation)
	}

	return s.settle(ctx, payment, map[string]interface{}{
		"confirmed_by_staff": staffID,
	})
}

func (s *service) CreateWalletPayment(ctx context.Context, req WalletPaymentRequest) (*WalletPaymentResult, error) {
	provider, err := s.registry.Get(req.Method)
	if err != nil {
		return nil, err
	}

	payable, err := s.payableFor(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}
	amount, err := resolveAmount(payable, req.Purpose)
	if err != nil {
		return nil, err
	}

	id := uuid.New()
	payment := &Payment{
		ID:              id,
		BookingID:       req.BookingID,
		Amount:          amount,
		Purpose:         req.Purpose,
		Method:          req.Method,
		Status:          StatusAwaitingApproval,
		TransactionCode: providers.TransferCode(s.now(), paymentRef(id)),
	}

	// The row goes in before the provider call: a timeout then leaves an
	// AwaitingApproval payment the reconciliation pass can resolve.
	if err := s.createPayment(ctx, payment); err != nil {
		return nil, err
	}

	createReq := providers.CreateRequest{
		OrderID:     payment.TransactionCode,
		Amount:      int64(math.Round(amount)),
		Description: fmt.Sprintf("Field booking payment %s", payment.TransactionCode),
		ReturnURL:   req.ReturnURL,
		NotifyURL:   req.NotifyURL,
		Customer:    req.Customer,
	}

	started := s.now()
	created, err := provider.CreatePayment(ctx, createReq)
	s.log.LogProviderCall(ctx, req.Method, "create", s.now().Sub(started), err)
	if err != nil {
		return nil, err
	}
	if !created.Success {
		s.transition(ctx, payment, StatusFailed, map[string]interface{}{"failure_reason": created.Message})
		return nil, fmt.Errorf("provider rejected the payment: %s: %w", created.Message, apperr.ErrProviderUnavailable)
	}

	requestPayload, _ := json.Marshal(createReq)
	external := &ExternalTransaction{
		PaymentID:             payment.ID,
		Provider:              req.Method,
		ProviderTransactionID: created.TransactionID,
		RequestPayload:        string(requestPayload),
		RedirectURL:           created.RedirectURL,
	}
	if err := s.repo.CreateExternal(ctx, external); err != nil {
		return nil, fmt.Errorf("failed to record external transaction: %w", err)
	}

	return &WalletPaymentResult{Payment: payment, RedirectURL: created.RedirectURL}, nil
}

func (s *service) HandleCallback(ctx context.Context, method string, params map[string]string) (*Payment, error) {
	provider, err := s.registry.Get(method)
	if err != nil {
		return nil, err
	}

	verified, err := provider.VerifyCallback(ctx, params)
	if err != nil {
		if errors.Is(err, apperr.ErrSignatureMismatch) {
			s.log.LogCallbackRejected(ctx, method, err.Error())
		}
		return nil, err
	}

	external, err := s.repo.GetExternalByProviderTxID(ctx, verified.TransactionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("unknown transaction %s: %w", verified.TransactionID, apperr.ErrNotFound)
		}
		return nil, err
	}

	callbackPayload, _ := json.Marshal(params)
	if err := s.repo.RecordCallback(ctx, external.ID, string(callbackPayload)); err != nil {
		s.log.ErrorWithContext(ctx, "failed to record callback payload", err, nil)
	}

	payment, err := s.GetPayment(ctx, external.PaymentID)
	if err != nil {
		return nil, err
	}

	switch {
	case verified.Success:
		// A late duplicate of an already-applied callback is a no-op
		if payment.Status == StatusPaid {
			return payment, nil
		}
		if verified.Amount != int64(math.Round(payment.Amount)) {
			return nil, fmt.Errorf("callback amount %d does not match payment amount %.0f: %w",
				verified.Amount, payment.Amount, apperr.ErrValidation)
		}
		return s.settle(ctx, payment, nil)
	case verified.Cancelled:
		return s.fail(ctx, payment, StatusCancelled, "cancelled by customer")
	default:
		return s.fail(ctx, payment, StatusFailed, verified.Message)
	}
}

func (s *service) Refund(ctx context.Context, paymentID uuid.UUID, reason string) (*Payment, error) {
	payment, err := s.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if !payment.Status.CanTransitionTo(StatusRefunded) {
		return nil, fmt.Errorf("cannot refund a %s payment: %w", payment.Status, apperr.ErrInvalidStateTransition)
	}

	// Bank transfers have no provider leg; the refund is an operator
	// action recorded here
	if payment.Method != providers.MethodBankTransfer {
		provider, err := s.registry.Get(payment.Method)
		if err != nil {
			return nil, err
		}
		external, err := s.repo.GetExternalByPaymentID(ctx, payment.ID)
		if err != nil {
			return nil, fmt.Errorf("no external transaction for payment %s: %w", paymentID, apperr.ErrNotFound)
		}

		started := s.now()
		refund, err := provider.Refund(ctx, external.ProviderTransactionID, int64(math.Round(payment.Amount)), reason)
		s.log.LogProviderCall(ctx, payment.Method, "refund", s.now().Sub(started), err)
		if err != nil {
			return nil, err
		}
		if !refund.Success {
			return nil, fmt.Errorf("provider declined the refund: %s: %w", refund.Message, apperr.ErrConflict)
		}
	}

	now := s.now()
	updated, err := s.transition(ctx, payment, StatusRefunded, map[string]interface{}{
		"refunded_at":    now,
		"failure_reason": reason,
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, EventPaymentRefunded, updated)
	return updated, nil
}

func (s *service) GetPayment(ctx context.Context, id uuid.UUID) (*Payment, error) {
	payment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("payment %s: %w", id, apperr.ErrNotFound)
		}
		return nil, err
	}
	return payment, nil
}

func (s *service) GetPaymentHistory(ctx context.Context, bookingID uuid.UUID) ([]Payment, error) {
	return s.repo.ListByBooking(ctx, bookingID)
}

func (s *service) ReconcilePending(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.cfg.ProviderTimeout)
	stale, err := s.repo.ListStaleWalletPayments(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to list stale payments: %w", err)
	}

	resolved := 0
	for i := range stale {
		payment := &stale[i]

		provider, err := s.registry.Get(payment.Method)
		if err != nil {
			continue
		}
		external, err := s.repo.GetExternalByPaymentID(ctx, payment.ID)
		if err != nil {
			// Created but never reached the provider; nothing to query
			if _, ferr := s.fail(ctx, payment, StatusFailed, "no provider transaction"); ferr == nil {
				resolved++
			}
			continue
		}

		status, err := provider.CheckStatus(ctx, external.ProviderTransactionID)
		if err != nil {
			continue // provider unreachable, retry next pass
		}

		switch status.Status {
		case providers.StatusPaid:
			if _, serr := s.settle(ctx, payment, nil); serr == nil {
				resolved++
			}
		case providers.StatusCancelled:
			if _, ferr := s.fail(ctx, payment, StatusCancelled, "cancelled at provider"); ferr == nil {
				resolved++
			}
		case providers.StatusFailed:
			if _, ferr := s.fail(ctx, payment, StatusFailed, "failed at provider"); ferr == nil {
				resolved++
			}
		}
	}
	return resolved, nil
}

// settle flips a payment to Paid and pushes the amount into the ledger.
// The booking's balance is re-checked here: another payment may have
// settled it while this one sat awaiting approval, and a stale pending
// payment must be voided, not paid.
func (s *service) settle(ctx context.Context, payment *Payment, extraUpdates map[string]interface{}) (*Payment, error) {
	payable, err := s.ledger.GetPayable(ctx, payment.BookingID)
	if err != nil {
		return nil, err
	}
	if payable.Cancelled {
		s.fail(ctx, payment, StatusCancelled, "booking was cancelled")
		return nil, fmt.Errorf("booking %s is cancelled: %w", payment.BookingID, apperr.ErrInvalidStateTransition)
	}
	if payable.TotalPrice-payable.AmountPaid <= 0 {
		s.fail(ctx, payment, StatusCancelled, "booking already settled")
		return nil, fmt.Errorf("booking %s is already fully settled: %w", payment.BookingID, apperr.ErrConflict)
	}

	if extraUpdates == nil {
		extraUpdates = map[string]interface{}{}
	}
	extraUpdates["paid_at"] = s.now()

	updated, err := s.transition(ctx, payment, StatusPaid, extraUpdates)
	if err != nil {
		return nil, err
	}

	if err := s.ledger.ApplySettlement(ctx, updated.BookingID, updated.Amount); err != nil {
		return nil, fmt.Errorf("payment is paid but settlement failed: %w", err)
	}

	s.publisher.Publish(ctx, EventPaymentPaid, updated)
	return updated, nil
}

func (s *service) fail(ctx context.Context, payment *Payment, to Status, reason string) (*Payment, error) {
	return s.transition(ctx, payment, to, map[string]interface{}{"failure_reason": reason})
}

// transition applies one state machine edge with the version check
func (s *service) transition(ctx context.Context, payment *Payment, to Status, updates map[string]interface{}) (*Payment, error) {
	if !payment.Status.CanTransitionTo(to) {
		return nil, fmt.Errorf("cannot move payment from %s to %s: %w", payment.Status, to, apperr.ErrInvalidStateTransition)
	}

	ok, err := s.repo.Transition(ctx, payment.ID, payment.Version, to, updates)
	if err != nil {
		return nil, fmt.Errorf("failed to transition payment: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("payment %s changed concurrently: %w", payment.ID, apperr.ErrConflict)
	}

	s.log.LogPaymentTransition(ctx, payment.ID.String(), payment.Status.String(), to.String())
	return s.GetPayment(ctx, payment.ID)
}
