package providers

import (
	"context"
	"fmt"

	"fieldbook/internal/shared/apperr"
)

// Method names as stored on payments
const (
	MethodMoMo         = "MOMO"
	MethodZaloPay      = "ZALOPAY"
	MethodSandbox      = "SANDBOX"
	MethodBankTransfer = "BANK_TRANSFER"
)

// Normalized provider-side payment states
const (
	StatusPending   = "PENDING"
	StatusPaid      = "PAID"
	StatusCancelled = "CANCELLED"
	StatusFailed    = "FAILED"
	StatusRefunded  = "REFUNDED"
)

type CreateRequest struct {
	OrderID     string // our transaction code, unique per payment
	Amount      int64  // VND, whole units
	Description string
	ReturnURL   string
	NotifyURL   string
	Customer    string
}

type CreateResult struct {
	Success       bool
	TransactionID string // provider-side id we look the payment up by later
	RedirectURL   string
	Message       string
}

type VerifyResult struct {
	Success       bool
	Cancelled     bool // user backed out at the provider, not a failure
	TransactionID string
	Amount        int64
	Message       string
}

type StatusResult struct {
	Status string
	Amount int64
}

type RefundResult struct {
	Success          bool
	ProviderRefundID string
	Message          string
}

// Provider is the uniform wallet adapter contract. Every adapter owns
// its provider's signing scheme; callers never see raw signatures.
type Provider interface {
	Name() string
	CreatePayment(ctx context.Context, req CreateRequest) (*CreateResult, error)

	// VerifyCallback recomputes the provider's signature over the inbound
	// params and rejects on any mismatch with apperr.ErrSignatureMismatch.
	// Field names are provider-specific; params is the raw key-value set.
	VerifyCallback(ctx context.Context, params map[string]string) (*VerifyResult, error)

	CheckStatus(ctx context.Context, transactionID string) (*StatusResult, error)
	Refund(ctx context.Context, transactionID string, amount int64, reason string) (*RefundResult, error)
}

// Registry resolves adapters by payment method name
type Registry struct {
	providers map[string]Provider
}

func NewRegistry(list ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider, len(list))}
	for _, p := range list {
		r.providers[p.Name()] = p
	}
	return r
}

func (r *Registry) Get(method string) (Provider, error) {
	p, ok := r.providers[method]
	if !ok {
		return nil, fmt.Errorf("unknown payment method '%s': %w", method, apperr.ErrValidation)
	}
	return p, nil
}
