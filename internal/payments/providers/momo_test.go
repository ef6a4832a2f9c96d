package providers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fieldbook/internal/shared/apperr"
	"fieldbook/internal/shared/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func momoTestConfig(endpoint string) config.MoMoConfig {
	return config.MoMoConfig{
		PartnerCode:    "MOMO_PARTNER",
		AccessKey:      "access123",
		SecretKey:      "secret456",
		Endpoint:       endpoint,
		QueryEndpoint:  endpoint,
		RefundEndpoint: endpoint,
	}
}

func hmacHex(key, raw string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(raw))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestMoMoCreatePaymentSignsCanonicalString(t *testing.T) {
	var received momoCreateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		json.NewEncoder(w).Encode(momoCreateResponse{
			ResultCode: 0,
			Message:    "Success",
			PayURL:     "https://test-payment.momo.vn/pay/abc",
		})
	}))
	defer server.Close()

	p := NewMoMoProvider(momoTestConfig(server.URL), server.Client())

	result, err := p.CreatePayment(context.Background(), CreateRequest{
		OrderID:     "GD20260420120000AB12",
		Amount:      270000,
		Description: "Field booking FB-20260420-QWERTY",
		ReturnURL:   "https://fieldbook.example/payments/return",
		NotifyURL:   "https://fieldbook.example/payments/callback/momo",
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "GD20260420120000AB12", result.TransactionID)
	assert.Equal(t, "https://test-payment.momo.vn/pay/abc", result.RedirectURL)

	// Recompute the alphabetical key=value canonical string independently
	raw := "accessKey=access123" +
		"&amount=270000" +
		"&extraData=" +
		"&ipnUrl=https://fieldbook.example/payments/callback/momo" +
		"&orderId=GD20260420120000AB12" +
		"&orderInfo=Field booking FB-20260420-QWERTY" +
		"&partnerCode=MOMO_PARTNER" +
		"&redirectUrl=https://fieldbook.example/payments/return" +
		"&requestId=GD20260420120000AB12" +
		"&requestType=captureWallet"
	assert.Equal(t, hmacHex("secret456", raw), received.Signature)
	assert.Equal(t, "captureWallet", received.RequestType)
	assert.Equal(t, "270000", received.Amount)
}

func momoCallbackParams(resultCode string) map[string]string {
	return map[string]string{
		"partnerCode":  "MOMO_PARTNER",
		"orderId":      "GD20260420120000AB12",
		"requestId":    "GD20260420120000AB12",
		"amount":       "270000",
		"orderInfo":    "Field booking",
		"orderType":    "momo_wallet",
		"transId":      "4088878885",
		"resultCode":   resultCode,
		"message":      "Successful.",
		"payType":      "qr",
		"responseTime": "1745125276000",
		"extraData":    "",
	}
}

func signMoMoCallback(params map[string]string) string {
	raw := fmt.Sprintf("accessKey=%s&amount=%s&extraData=%s&message=%s&orderId=%s&orderInfo=%s&orderType=%s&partnerCode=%s&payType=%s&requestId=%s&responseTime=%s&resultCode=%s&transId=%s",
		"access123", params["amount"], params["extraData"], params["message"],
		params["orderId"], params["orderInfo"], params["orderType"], params["partnerCode"],
		params["payType"], params["requestId"], params["responseTime"], params["resultCode"],
		params["transId"])
	return hmacHex("secret456", raw)
}

func TestMoMoVerifyCallbackSuccess(t *testing.T) {
	p := NewMoMoProvider(momoTestConfig("http://unused.invalid"), http.DefaultClient)

	params := momoCallbackParams("0")
	params["signature"] = signMoMoCallback(params)

	result, err := p.VerifyCallback(context.Background(), params)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.False(t, result.Cancelled)
	assert.Equal(t, "GD20260420120000AB12", result.TransactionID)
	assert.Equal(t, int64(270000), result.Amount)
}

func TestMoMoVerifyCallbackUserCancelled(t *testing.T) {
	p := NewMoMoProvider(momoTestConfig("http://unused.invalid"), http.DefaultClient)

	params := momoCallbackParams("1006")
	params["signature"] = signMoMoCallback(params)

	result, err := p.VerifyCallback(context.Background(), params)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.True(t, result.Cancelled)
}

func TestMoMoVerifyCallbackTamperedAmount(t *testing.T) {
	p := NewMoMoProvider(momoTestConfig("http://unused.invalid"), http.DefaultClient)

	params := momoCallbackParams("0")
	params["signature"] = signMoMoCallback(params)
	params["amount"] = "1000" // tampered after signing

	_, err := p.VerifyCallback(context.Background(), params)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrSignatureMismatch))
}

func TestMoMoVerifyCallbackMissingSignature(t *testing.T) {
	p := NewMoMoProvider(momoTestConfig("http://unused.invalid"), http.DefaultClient)

	_, err := p.VerifyCallback(context.Background(), momoCallbackParams("0"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrSignatureMismatch))
}

func TestMoMoGatewayDownIsProviderUnavailable(t *testing.T) {
	p := NewMoMoProvider(momoTestConfig("http://127.0.0.1:1"), &http.Client{Timeout: 200 * time.Millisecond})

	_, err := p.CreatePayment(context.Background(), CreateRequest{OrderID: "GD1", Amount: 1000})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrProviderUnavailable))
}
