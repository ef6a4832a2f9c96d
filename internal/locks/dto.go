package locks

type AcquireLockRequest struct {
	FieldID    string `json:"field_id" binding:"required,uuid"`
	UsageDate  string `json:"usage_date" binding:"required,len=10"`
	WindowID   string `json:"window_id" binding:"required,uuid"`
	CustomerID string `json:"customer_id" binding:"omitempty,uuid"`
}

type SlotQuery struct {
	FieldID   string `form:"field_id" binding:"required,uuid"`
	UsageDate string `form:"usage_date" binding:"required,len=10"`
	WindowID  string `form:"window_id" binding:"omitempty,uuid"`
}
