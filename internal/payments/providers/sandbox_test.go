package providers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSandboxLifecycle(t *testing.T) {
	p := NewSandboxProvider()
	ctx := context.Background()

	created, err := p.CreatePayment(ctx, CreateRequest{OrderID: "GD1", Amount: 150000})
	require.NoError(t, err)
	assert.True(t, created.Success)
	assert.Equal(t, "sandbox-GD1", created.TransactionID)
	assert.NotEmpty(t, created.RedirectURL)

	status, err := p.CheckStatus(ctx, created.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, status.Status)

	verified, err := p.VerifyCallback(ctx, map[string]string{
		"transaction_id": created.TransactionID,
		"status":         "success",
	})
	require.NoError(t, err)
	assert.True(t, verified.Success)
	assert.Equal(t, int64(150000), verified.Amount)

	status, err = p.CheckStatus(ctx, created.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, status.Status)

	refund, err := p.Refund(ctx, created.TransactionID, 150000, "test refund")
	require.NoError(t, err)
	assert.True(t, refund.Success)

	status, err = p.CheckStatus(ctx, created.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, StatusRefunded, status.Status)
}

func TestSandboxRefundRequiresPaid(t *testing.T) {
	p := NewSandboxProvider()
	ctx := context.Background()

	created, err := p.CreatePayment(ctx, CreateRequest{OrderID: "GD2", Amount: 90000})
	require.NoError(t, err)

	refund, err := p.Refund(ctx, created.TransactionID, 90000, "too early")
	require.NoError(t, err)
	assert.False(t, refund.Success)
}

func TestSandboxCancelCallback(t *testing.T) {
	p := NewSandboxProvider()
	ctx := context.Background()

	created, err := p.CreatePayment(ctx, CreateRequest{OrderID: "GD3", Amount: 90000})
	require.NoError(t, err)

	verified, err := p.VerifyCallback(ctx, map[string]string{
		"transaction_id": created.TransactionID,
		"status":         "cancel",
	})
	require.NoError(t, err)
	assert.False(t, verified.Success)
	assert.True(t, verified.Cancelled)
}

func TestSandboxDuplicateOrderRejected(t *testing.T) {
	p := NewSandboxProvider()
	ctx := context.Background()

	_, err := p.CreatePayment(ctx, CreateRequest{OrderID: "GD4", Amount: 1000})
	require.NoError(t, err)
	_, err = p.CreatePayment(ctx, CreateRequest{OrderID: "GD4", Amount: 1000})
	assert.Error(t, err)
}
