package providers

import (
	"context"
	"fmt"
	"sync"

	"fieldbook/internal/shared/apperr"
)

// SandboxProvider is a deterministic in-memory adapter for tests and
// demos. It is never the source of truth for real money; the payment
// rows in Postgres are.
type SandboxProvider struct {
	mu           sync.Mutex
	transactions map[string]*sandboxTransaction
}

type sandboxTransaction struct {
	amount   int64
	status   string
	refunded int64
}

func NewSandboxProvider() *SandboxProvider {
	return &SandboxProvider{transactions: map[string]*sandboxTransaction{}}
}

func (p *SandboxProvider) Name() string { return MethodSandbox }

func (p *SandboxProvider) CreatePayment(ctx context.Context, req CreateRequest) (*CreateResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	txID := "sandbox-" + req.OrderID
	if _, exists := p.transactions[txID]; exists {
		return nil, fmt.Errorf("sandbox transaction %s already exists: %w", txID, apperr.ErrConflict)
	}
	p.transactions[txID] = &sandboxTransaction{amount: req.Amount, status: StatusPending}

	return &CreateResult{
		Success:       true,
		TransactionID: txID,
		RedirectURL:   "https://sandbox.invalid/pay/" + txID,
		Message:       "sandbox payment created",
	}, nil
}

// VerifyCallback trusts a `status` param instead of a signature; the
// sandbox has no key material by design.
func (p *SandboxProvider) VerifyCallback(ctx context.Context, params map[string]string) (*VerifyResult, error) {
	txID := params["transaction_id"]
	if txID == "" {
		return nil, fmt.Errorf("sandbox callback has no transaction_id: %w", apperr.ErrValidation)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	tx, ok := p.transactions[txID]
	if !ok {
		return nil, fmt.Errorf("sandbox transaction %s: %w", txID, apperr.ErrNotFound)
	}

	result := &VerifyResult{TransactionID: txID, Amount: tx.amount}
	switch params["status"] {
	case "success":
		tx.status = StatusPaid
		result.Success = true
	case "cancel":
		tx.status = StatusCancelled
		result.Cancelled = true
	default:
		tx.status = StatusFailed
		result.Message = "sandbox payment failed"
	}
	return result, nil
}

func (p *SandboxProvider) CheckStatus(ctx context.Context, transactionID string) (*StatusResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tx, ok := p.transactions[transactionID]
	if !ok {
		return nil, fmt.Errorf("sandbox transaction %s: %w", transactionID, apperr.ErrNotFound)
	}
	return &StatusResult{Status: tx.status, Amount: tx.amount}, nil
}

func (p *SandboxProvider) Refund(ctx context.Context, transactionID string, amount int64, reason string) (*RefundResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tx, ok := p.transactions[transactionID]
	if !ok {
		return nil, fmt.Errorf("sandbox transaction %s: %w", transactionID, apperr.ErrNotFound)
	}
	if tx.status != StatusPaid {
		return &RefundResult{Success: false, Message: "only paid transactions can be refunded"}, nil
	}
	if amount > tx.amount-tx.refunded {
		return &RefundResult{Success: false, Message: "refund exceeds remaining amount"}, nil
	}

	tx.refunded += amount
	if tx.refunded == tx.amount {
		tx.status = StatusRefunded
	}
	return &RefundResult{
		Success:          true,
		ProviderRefundID: transactionID + "-refund",
		Message:          "sandbox refund applied",
	}, nil
}
