package fields

type CreateFieldRequest struct {
	Name        string  `json:"name" binding:"required,min=2,max=255"`
	Description string  `json:"description" binding:"max=1000"`
	FieldType   string  `json:"field_type" binding:"required,oneof=FIVE_A_SIDE SEVEN_A_SIDE ELEVEN_A_SIDE"`
	BasePrice   float64 `json:"base_price" binding:"required,gt=0"`
}

type UpdateFieldStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=ACTIVE MAINTENANCE RETIRED"`
}

type CreateTimeWindowRequest struct {
	Label            string  `json:"label" binding:"required,min=2,max=100"`
	StartTime        string  `json:"start_time" binding:"required,len=5"`
	EndTime          string  `json:"end_time" binding:"required,len=5"`
	PriceCoefficient float64 `json:"price_coefficient" binding:"required,gt=0,max=10"`
}
