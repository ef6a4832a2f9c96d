package providers

import (
	"fmt"
	"math"
	"net/url"
	"time"

	"fieldbook/internal/shared/config"
)

// DepositRate is the fraction of the total charged as a deposit
const DepositRate = 0.30

// DepositAmount is ceiling(total * 0.30) rounded up to the nearest
// thousand VND, so transfer amounts stay round numbers.
func DepositAmount(total float64) float64 {
	return math.Ceil(total*DepositRate/1000) * 1000
}

// TransferCode derives the deterministic code the customer must put in
// the transfer note, so an operator can match the incoming transfer.
func TransferCode(at time.Time, paymentRef string) string {
	return fmt.Sprintf("GD%s%s", at.Format("20060102150405"), paymentRef)
}

// BankTransferQR describes one VietQR payment request
type BankTransferQR struct {
	ImageURL     string    `json:"image_url"`
	TransferCode string    `json:"transfer_code"`
	Amount       float64   `json:"amount"`
	BankName     string    `json:"bank_name"`
	AccountNo    string    `json:"account_no"`
	AccountName  string    `json:"account_name"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// BankTransferGenerator builds VietQR image URLs for the receiving
// account. There is no verification leg; confirmation is manual.
type BankTransferGenerator struct {
	cfg config.BankTransferConfig
	now func() time.Time
}

func NewBankTransferGenerator(cfg config.BankTransferConfig) *BankTransferGenerator {
	return &BankTransferGenerator{cfg: cfg, now: time.Now}
}

func (g *BankTransferGenerator) Generate(paymentRef string, amount float64) *BankTransferQR {
	now := g.now()
	code := TransferCode(now, paymentRef)

	query := url.Values{
		"amount":      {fmt.Sprintf("%.0f", amount)},
		"addInfo":     {code},
		"accountName": {g.cfg.AccountName},
	}
	imageURL := fmt.Sprintf("https://img.vietqr.io/image/%s-%s-compact2.jpg?%s",
		g.cfg.BankID, g.cfg.AccountNo, query.Encode())

	return &BankTransferQR{
		ImageURL:     imageURL,
		TransferCode: code,
		Amount:       amount,
		BankName:     g.cfg.BankName,
		AccountNo:    g.cfg.AccountNo,
		AccountName:  g.cfg.AccountName,
		ExpiresAt:    now.Add(g.cfg.QRExpiry),
	}
}
