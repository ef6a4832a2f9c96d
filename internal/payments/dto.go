package payments

type CreateBankTransferBody struct {
	BookingID string `json:"booking_id" binding:"required,uuid"`
	Purpose   string `json:"purpose" binding:"required,oneof=FULL DEPOSIT REMAINDER"`
}

type CreateWalletPaymentBody struct {
	BookingID string `json:"booking_id" binding:"required,uuid"`
	Method    string `json:"method" binding:"required,oneof=MOMO ZALOPAY SANDBOX"`
	Purpose   string `json:"purpose" binding:"required,oneof=FULL DEPOSIT REMAINDER"`
	ReturnURL string `json:"return_url" binding:"omitempty,url"`
	NotifyURL string `json:"notify_url" binding:"omitempty,url"`
	Customer  string `json:"customer" binding:"omitempty,max=100"`
}

type RefundBody struct {
	Reason string `json:"reason" binding:"required,max=255"`
}
