package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"fieldbook/internal/shared/apperr"
	"fieldbook/internal/shared/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func zaloTestConfig(endpoint string) config.ZaloPayConfig {
	return config.ZaloPayConfig{
		AppID:          2553,
		Key1:           "key1-material",
		Key2:           "key2-material",
		Endpoint:       endpoint,
		QueryEndpoint:  endpoint,
		RefundEndpoint: endpoint,
	}
}

func TestZaloPayCreatePaymentSignsWithKey1(t *testing.T) {
	var form map[string][]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		form = r.PostForm
		json.NewEncoder(w).Encode(zaloCreateResponse{
			ReturnCode:    1,
			ReturnMessage: "success",
			OrderURL:      "https://qcgateway.zalopay.vn/openinapp?order=xyz",
		})
	}))
	defer server.Close()

	p := NewZaloPayProvider(zaloTestConfig(server.URL), server.Client())
	fixed := time.Date(2026, 4, 20, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return fixed }

	result, err := p.CreatePayment(context.Background(), CreateRequest{
		OrderID:     "GD20260420120000AB12",
		Amount:      270000,
		Description: "Field booking",
		ReturnURL:   "https://fieldbook.example/payments/return",
		NotifyURL:   "https://fieldbook.example/payments/callback/zalopay",
		Customer:    "customer-7",
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "260420_GD20260420120000AB12", result.TransactionID)

	// Recompute appid|apptransid|appuser|amount|apptime|embeddata|item
	appTime, err := strconv.ParseInt(form["app_time"][0], 10, 64)
	require.NoError(t, err)
	assert.Equal(t, fixed.UnixMilli(), appTime)

	raw := fmt.Sprintf("2553|260420_GD20260420120000AB12|customer-7|270000|%d|%s|%s",
		appTime, form["embed_data"][0], form["item"][0])
	assert.Equal(t, hmacHex("key1-material", raw), form["mac"][0])
}

func TestZaloPayVerifyCallbackWithKey2(t *testing.T) {
	p := NewZaloPayProvider(zaloTestConfig("http://unused.invalid"), http.DefaultClient)

	data := `{"app_id":2553,"app_trans_id":"260420_GD20260420120000AB12","app_user":"customer-7","amount":270000,"zp_trans_id":240420000001}`
	params := map[string]string{
		"data": data,
		"mac":  hmacHex("key2-material", data),
	}

	result, err := p.VerifyCallback(context.Background(), params)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "260420_GD20260420120000AB12", result.TransactionID)
	assert.Equal(t, int64(270000), result.Amount)
}

func TestZaloPayVerifyCallbackTamperedData(t *testing.T) {
	p := NewZaloPayProvider(zaloTestConfig("http://unused.invalid"), http.DefaultClient)

	data := `{"app_id":2553,"app_trans_id":"260420_GD20260420120000AB12","amount":270000}`
	params := map[string]string{
		"data": `{"app_id":2553,"app_trans_id":"260420_GD20260420120000AB12","amount":1}`,
		"mac":  hmacHex("key2-material", data), // mac of the original data
	}

	_, err := p.VerifyCallback(context.Background(), params)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrSignatureMismatch))
}

func TestZaloPayVerifyCallbackWrongKey(t *testing.T) {
	p := NewZaloPayProvider(zaloTestConfig("http://unused.invalid"), http.DefaultClient)

	data := `{"app_id":2553,"app_trans_id":"260420_X","amount":270000}`
	params := map[string]string{
		"data": data,
		"mac":  hmacHex("key1-material", data), // signed with the wrong key
	}

	_, err := p.VerifyCallback(context.Background(), params)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrSignatureMismatch))
}

func TestZaloPayCheckStatusMapsReturnCodes(t *testing.T) {
	returnCode := 1
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(zaloQueryResponse{ReturnCode: returnCode, Amount: 270000})
	}))
	defer server.Close()

	p := NewZaloPayProvider(zaloTestConfig(server.URL), server.Client())

	status, err := p.CheckStatus(context.Background(), "260420_GD1")
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, status.Status)
	assert.Equal(t, int64(270000), status.Amount)

	returnCode = 3
	status, err = p.CheckStatus(context.Background(), "260420_GD1")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, status.Status)

	returnCode = 2
	status, err = p.CheckStatus(context.Background(), "260420_GD1")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, status.Status)
}
