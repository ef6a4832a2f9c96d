package pricing

type CreateHolidayRuleRequest struct {
	Name           string  `json:"name" binding:"required,min=2,max=255"`
	StartMarker    string  `json:"start_marker" binding:"required"`
	EndMarker      *string `json:"end_marker"`
	DiscountFactor float64 `json:"discount_factor" binding:"required,gt=0,lte=1"`
}

type QuoteRequest struct {
	BasePrice   float64 `form:"base_price" binding:"required,gt=0"`
	Coefficient float64 `form:"coefficient"`
	UsageDate   string  `form:"usage_date" binding:"required,len=10"`
}
