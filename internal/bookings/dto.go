package bookings

type CreateBookingBody struct {
	CustomerID    string       `json:"customer_id" binding:"required,uuid"`
	FieldID       string       `json:"field_id" binding:"required,uuid"`
	UsageDate     string       `json:"usage_date" binding:"required,usagedate"`
	WindowID      string       `json:"window_id" binding:"omitempty,uuid"`
	StartTime     string       `json:"start_time" binding:"omitempty,hhmm"`
	DurationHours float64      `json:"duration_hours" binding:"omitempty,gt=0,lte=12"`
	Note          string       `json:"note" binding:"max=1000"`
	AddOns        []AddOnInput `json:"add_ons" binding:"omitempty,max=20,dive"`
}

type ListBookingsQuery struct {
	CustomerID string `form:"customer_id" binding:"required,uuid"`
	Limit      int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Offset     int    `form:"offset" binding:"omitempty,min=0"`
}
