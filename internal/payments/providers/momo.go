package providers

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"fieldbook/internal/shared/apperr"
	"fieldbook/internal/shared/config"
)

// MoMo result codes we branch on; anything else is a plain failure
const (
	momoResultSuccess       = 0
	momoResultUserCancelled = 1006
)

// MoMoProvider implements the captureWallet flow. Every outbound request
// and inbound callback carries an HMAC-SHA256 signature over a canonical
// key=value string; the exact field order is fixed by the gateway.
type MoMoProvider struct {
	cfg    config.MoMoConfig
	client *http.Client
}

func NewMoMoProvider(cfg config.MoMoConfig, client *http.Client) *MoMoProvider {
	return &MoMoProvider{cfg: cfg, client: client}
}

func (p *MoMoProvider) Name() string { return MethodMoMo }

func (p *MoMoProvider) sign(raw string) string {
	mac := hmac.New(sha256.New, []byte(p.cfg.SecretKey))
	mac.Write([]byte(raw))
	return hex.EncodeToString(mac.Sum(nil))
}

// createSignatureBase builds the canonical string for a create request.
// Field order is alphabetical per the gateway contract and must not change.
func (p *MoMoProvider) createSignatureBase(requestID, orderID string, amount int64, orderInfo, redirectURL, ipnURL, extraData string) string {
	return fmt.Sprintf("accessKey=%s&amount=%d&extraData=%s&ipnUrl=%s&orderId=%s&orderInfo=%s&partnerCode=%s&redirectUrl=%s&requestId=%s&requestType=captureWallet",
		p.cfg.AccessKey, amount, extraData, ipnURL, orderID, orderInfo, p.cfg.PartnerCode, redirectURL, requestID)
}

// callbackSignatureBase builds the canonical string the gateway signs on
// IPN callbacks. Params are the raw callback fields.
func (p *MoMoProvider) callbackSignatureBase(params map[string]string) string {
	return fmt.Sprintf("accessKey=%s&amount=%s&extraData=%s&message=%s&orderId=%s&orderInfo=%s&orderType=%s&partnerCode=%s&payType=%s&requestId=%s&responseTime=%s&resultCode=%s&transId=%s",
		p.cfg.AccessKey,
		params["amount"],
		params["extraData"],
		params["message"],
		params["orderId"],
		params["orderInfo"],
		params["orderType"],
		params["partnerCode"],
		params["payType"],
		params["requestId"],
		params["responseTime"],
		params["resultCode"],
		params["transId"])
}

type momoCreateRequest struct {
	PartnerCode string `json:"partnerCode"`
	AccessKey   string `json:"accessKey"`
	RequestID   string `json:"requestId"`
	Amount      string `json:"amount"`
	OrderID     string `json:"orderId"`
	OrderInfo   string `json:"orderInfo"`
	RedirectURL string `json:"redirectUrl"`
	IpnURL      string `json:"ipnUrl"`
	ExtraData   string `json:"extraData"`
	RequestType string `json:"requestType"`
	Signature   string `json:"signature"`
	Lang        string `json:"lang"`
}

type momoCreateResponse struct {
	ResultCode int    `json:"resultCode"`
	Message    string `json:"message"`
	PayURL     string `json:"payUrl"`
	OrderID    string `json:"orderId"`
	RequestID  string `json:"requestId"`
}

func (p *MoMoProvider) CreatePayment(ctx context.Context, req CreateRequest) (*CreateResult, error) {
	requestID := req.OrderID // one request per order
	signature := p.sign(p.createSignatureBase(requestID, req.OrderID, req.Amount, req.Description, req.ReturnURL, req.NotifyURL, ""))

	payload := momoCreateRequest{
		PartnerCode: p.cfg.PartnerCode,
		AccessKey:   p.cfg.AccessKey,
		RequestID:   requestID,
		Amount:      strconv.FormatInt(req.Amount, 10),
		OrderID:     req.OrderID,
		OrderInfo:   req.Description,
		RedirectURL: req.ReturnURL,
		IpnURL:      req.NotifyURL,
		ExtraData:   "",
		RequestType: "captureWallet",
		Signature:   signature,
		Lang:        "vi",
	}

	var resp momoCreateResponse
	if err := p.post(ctx, p.cfg.Endpoint, payload, &resp); err != nil {
		return nil, err
	}

	if resp.ResultCode != momoResultSuccess {
		return &CreateResult{Success: false, Message: resp.Message}, nil
	}
	return &CreateResult{
		Success:       true,
		TransactionID: req.OrderID,
		RedirectURL:   resp.PayURL,
		Message:       resp.Message,
	}, nil
}

func (p *MoMoProvider) VerifyCallback(ctx context.Context, params map[string]string) (*VerifyResult, error) {
	received := params["signature"]
	if received == "" {
		return nil, fmt.Errorf("momo callback missing signature: %w", apperr.ErrSignatureMismatch)
	}

	expected := p.sign(p.callbackSignatureBase(params))
	if !hmac.Equal([]byte(expected), []byte(received)) {
		return nil, fmt.Errorf("momo callback signature mismatch: %w", apperr.ErrSignatureMismatch)
	}

	amount, _ := strconv.ParseInt(params["amount"], 10, 64)
	resultCode, err := strconv.Atoi(params["resultCode"])
	if err != nil {
		return nil, fmt.Errorf("momo callback has no result code: %w", apperr.ErrValidation)
	}

	result := &VerifyResult{
		TransactionID: params["orderId"],
		Amount:        amount,
		Message:       params["message"],
	}
	switch resultCode {
	case momoResultSuccess:
		result.Success = true
	case momoResultUserCancelled:
		result.Cancelled = true
	}
	return result, nil
}

type momoQueryResponse struct {
	ResultCode int    `json:"resultCode"`
	Message    string `json:"message"`
	Amount     int64  `json:"amount"`
}

func (p *MoMoProvider) CheckStatus(ctx context.Context, transactionID string) (*StatusResult, error) {
	raw := fmt.Sprintf("accessKey=%s&orderId=%s&partnerCode=%s&requestId=%s",
		p.cfg.AccessKey, transactionID, p.cfg.PartnerCode, transactionID)

	payload := map[string]string{
		"partnerCode": p.cfg.PartnerCode,
		"accessKey":   p.cfg.AccessKey,
		"requestId":   transactionID,
		"orderId":     transactionID,
		"signature":   p.sign(raw),
		"lang":        "vi",
	}

	var resp momoQueryResponse
	if err := p.post(ctx, p.cfg.QueryEndpoint, payload, &resp); err != nil {
		return nil, err
	}

	status := StatusFailed
	switch resp.ResultCode {
	case momoResultSuccess:
		status = StatusPaid
	case momoResultUserCancelled:
		status = StatusCancelled
	case 1000: // initiated, awaiting user
		status = StatusPending
	}
	return &StatusResult{Status: status, Amount: resp.Amount}, nil
}

type momoRefundResponse struct {
	ResultCode int    `json:"resultCode"`
	Message    string `json:"message"`
	TransID    int64  `json:"transId"`
}

func (p *MoMoProvider) Refund(ctx context.Context, transactionID string, amount int64, reason string) (*RefundResult, error) {
	refundID := transactionID + "-refund"
	raw := fmt.Sprintf("accessKey=%s&amount=%d&description=%s&orderId=%s&partnerCode=%s&requestId=%s&transId=%s",
		p.cfg.AccessKey, amount, reason, refundID, p.cfg.PartnerCode, refundID, transactionID)

	payload := map[string]interface{}{
		"partnerCode": p.cfg.PartnerCode,
		"accessKey":   p.cfg.AccessKey,
		"requestId":   refundID,
		"orderId":     refundID,
		"amount":      amount,
		"transId":     transactionID,
		"description": reason,
		"signature":   p.sign(raw),
		"lang":        "vi",
	}

	var resp momoRefundResponse
	if err := p.post(ctx, p.cfg.RefundEndpoint, payload, &resp); err != nil {
		return nil, err
	}

	if resp.ResultCode != momoResultSuccess {
		return &RefundResult{Success: false, Message: resp.Message}, nil
	}
	return &RefundResult{
		Success:          true,
		ProviderRefundID: strconv.FormatInt(resp.TransID, 10),
		Message:          resp.Message,
	}, nil
}

func (p *MoMoProvider) post(ctx context.Context, url string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode momo request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build momo request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("momo gateway unreachable: %w", apperr.ErrProviderUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("momo gateway returned %d: %w", resp.StatusCode, apperr.ErrProviderUnavailable)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode momo response: %w", err)
	}
	return nil
}
