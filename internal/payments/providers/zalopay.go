package providers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fieldbook/internal/shared/apperr"
	"fieldbook/internal/shared/config"
)

// ZaloPay return codes
const (
	zaloReturnSuccess = 1
	zaloReturnPending = 3
)

// ZaloPayProvider signs create requests with key1 over a pipe-joined
// field string and verifies callbacks with key2 over the raw data JSON.
type ZaloPayProvider struct {
	cfg    config.ZaloPayConfig
	client *http.Client
	now    func() time.Time
}

func NewZaloPayProvider(cfg config.ZaloPayConfig, client *http.Client) *ZaloPayProvider {
	return &ZaloPayProvider{cfg: cfg, client: client, now: time.Now}
}

func (p *ZaloPayProvider) Name() string { return MethodZaloPay }

func signHMAC(key, raw string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(raw))
	return hex.EncodeToString(mac.Sum(nil))
}

// appTransID prefixes the order with the gateway's mandatory yymmdd stamp
func (p *ZaloPayProvider) appTransID(orderID string) string {
	return fmt.Sprintf("%s_%s", p.now().Format("060102"), orderID)
}

type zaloCreateResponse struct {
	ReturnCode    int    `json:"return_code"`
	ReturnMessage string `json:"return_message"`
	OrderURL      string `json:"order_url"`
	ZpTransToken  string `json:"zp_trans_token"`
}

func (p *ZaloPayProvider) CreatePayment(ctx context.Context, req CreateRequest) (*CreateResult, error) {
	appTransID := p.appTransID(req.OrderID)
	appTime := p.now().UnixMilli()
	appUser := req.Customer
	if appUser == "" {
		appUser = "guest"
	}

	embedData := fmt.Sprintf(`{"redirecturl":"%s"}`, req.ReturnURL)
	item := "[]"

	// MAC over appid|apptransid|appuser|amount|apptime|embeddata|item with key1
	raw := fmt.Sprintf("%d|%s|%s|%d|%d|%s|%s",
		p.cfg.AppID, appTransID, appUser, req.Amount, appTime, embedData, item)

	form := url.Values{
		"app_id":       {strconv.Itoa(p.cfg.AppID)},
		"app_trans_id": {appTransID},
		"app_user":     {appUser},
		"app_time":     {strconv.FormatInt(appTime, 10)},
		"amount":       {strconv.FormatInt(req.Amount, 10)},
		"description":  {req.Description},
		"embed_data":   {embedData},
		"item":         {item},
		"callback_url": {req.NotifyURL},
		"mac":          {signHMAC(p.cfg.Key1, raw)},
	}

	var resp zaloCreateResponse
	if err := p.postForm(ctx, p.cfg.Endpoint, form, &resp); err != nil {
		return nil, err
	}

	if resp.ReturnCode != zaloReturnSuccess {
		return &CreateResult{Success: false, Message: resp.ReturnMessage}, nil
	}
	return &CreateResult{
		Success:       true,
		TransactionID: appTransID,
		RedirectURL:   resp.OrderURL,
		Message:       resp.ReturnMessage,
	}, nil
}

// zaloCallbackData is the JSON carried in the callback's data field
type zaloCallbackData struct {
	AppID      int    `json:"app_id"`
	AppTransID string `json:"app_trans_id"`
	AppUser    string `json:"app_user"`
	Amount     int64  `json:"amount"`
	ZpTransID  int64  `json:"zp_trans_id"`
}

func (p *ZaloPayProvider) VerifyCallback(ctx context.Context, params map[string]string) (*VerifyResult, error) {
	data := params["data"]
	receivedMAC := params["mac"]
	if data == "" || receivedMAC == "" {
		return nil, fmt.Errorf("zalopay callback missing data or mac: %w", apperr.ErrSignatureMismatch)
	}

	// key2 signs the raw data string exactly as received
	expected := signHMAC(p.cfg.Key2, data)
	if !hmac.Equal([]byte(expected), []byte(receivedMAC)) {
		return nil, fmt.Errorf("zalopay callback mac mismatch: %w", apperr.ErrSignatureMismatch)
	}

	var payload zaloCallbackData
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		return nil, fmt.Errorf("zalopay callback data is not valid JSON: %w", apperr.ErrValidation)
	}
	if payload.AppTransID == "" {
		return nil, fmt.Errorf("zalopay callback has no app_trans_id: %w", apperr.ErrValidation)
	}

	// A signed callback is a success notification; failures never get one
	return &VerifyResult{
		Success:       true,
		TransactionID: payload.AppTransID,
		Amount:        payload.Amount,
	}, nil
}

type zaloQueryResponse struct {
	ReturnCode    int    `json:"return_code"`
	ReturnMessage string `json:"return_message"`
	Amount        int64  `json:"amount"`
	IsProcessing  bool   `json:"is_processing"`
}

func (p *ZaloPayProvider) CheckStatus(ctx context.Context, transactionID string) (*StatusResult, error) {
	raw := fmt.Sprintf("%d|%s|%s", p.cfg.AppID, transactionID, p.cfg.Key1)

	form := url.Values{
		"app_id":       {strconv.Itoa(p.cfg.AppID)},
		"app_trans_id": {transactionID},
		"mac":          {signHMAC(p.cfg.Key1, raw)},
	}

	var resp zaloQueryResponse
	if err := p.postForm(ctx, p.cfg.QueryEndpoint, form, &resp); err != nil {
		return nil, err
	}

	status := StatusFailed
	switch {
	case resp.ReturnCode == zaloReturnSuccess:
		status = StatusPaid
	case resp.ReturnCode == zaloReturnPending || resp.IsProcessing:
		status = StatusPending
	}
	return &StatusResult{Status: status, Amount: resp.Amount}, nil
}

type zaloRefundResponse struct {
	ReturnCode    int    `json:"return_code"`
	ReturnMessage string `json:"return_message"`
	RefundID      int64  `json:"refund_id"`
}

func (p *ZaloPayProvider) Refund(ctx context.Context, transactionID string, amount int64, reason string) (*RefundResult, error) {
	timestamp := p.now().UnixMilli()
	mRefundID := fmt.Sprintf("%s_%d_%s", p.now().Format("060102"), p.cfg.AppID, transactionID)

	raw := fmt.Sprintf("%d|%s|%d|%s|%d", p.cfg.AppID, transactionID, amount, reason, timestamp)

	form := url.Values{
		"app_id":      {strconv.Itoa(p.cfg.AppID)},
		"m_refund_id": {mRefundID},
		"zp_trans_id": {transactionID},
		"amount":      {strconv.FormatInt(amount, 10)},
		"description": {reason},
		"timestamp":   {strconv.FormatInt(timestamp, 10)},
		"mac":         {signHMAC(p.cfg.Key1, raw)},
	}

	var resp zaloRefundResponse
	if err := p.postForm(ctx, p.cfg.RefundEndpoint, form, &resp); err != nil {
		return nil, err
	}

	if resp.ReturnCode != zaloReturnSuccess && resp.ReturnCode != zaloReturnPending {
		return &RefundResult{Success: false, Message: resp.ReturnMessage}, nil
	}
	return &RefundResult{
		Success:          true,
		ProviderRefundID: strconv.FormatInt(resp.RefundID, 10),
		Message:          resp.ReturnMessage,
	}, nil
}

func (p *ZaloPayProvider) postForm(ctx context.Context, endpoint string, form url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build zalopay request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("zalopay gateway unreachable: %w", apperr.ErrProviderUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("zalopay gateway returned %d: %w", resp.StatusCode, apperr.ErrProviderUnavailable)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode zalopay response: %w", err)
	}
	return nil
}
