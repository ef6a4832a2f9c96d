package bookings

import (
	"net/http"

	"fieldbook/internal/shared/apperr"
	"fieldbook/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

func (c *Controller) CreateBooking(ctx *gin.Context) {
	var body CreateBookingBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request data", nil, err.Error())
		return
	}
	if body.WindowID == "" && (body.StartTime == "" || body.DurationHours <= 0) {
		response.RespondJSON(ctx, "error", http.StatusBadRequest,
			"Either window_id or start_time plus duration_hours is required", nil, nil)
		return
	}

	req := CreateBookingRequest{
		CustomerID:    uuid.MustParse(body.CustomerID),
		FieldID:       uuid.MustParse(body.FieldID),
		UsageDate:     body.UsageDate,
		StartTime:     body.StartTime,
		DurationHours: body.DurationHours,
		SessionToken:  ctx.GetString("session_token"),
		Note:          body.Note,
		AddOns:        body.AddOns,
	}
	if body.WindowID != "" {
		windowID := uuid.MustParse(body.WindowID)
		req.WindowID = &windowID
	}

	result, err := c.service.CreateBooking(ctx.Request.Context(), req)
	if err != nil {
		response.RespondJSON(ctx, "error", apperr.HTTPStatus(err), "Failed to create booking", nil, err.Error())
		return
	}

	if result.Rejection != nil {
		response.RespondJSON(ctx, "error", http.StatusConflict, "Slot is not available", result.Rejection, nil)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Booking created successfully", result.Booking, nil)
}

func (c *Controller) GetBooking(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid booking ID", nil, err.Error())
		return
	}

	booking, err := c.service.GetBooking(ctx.Request.Context(), id)
	if err != nil {
		response.RespondJSON(ctx, "error", apperr.HTTPStatus(err), "Failed to get booking", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Booking retrieved successfully", booking, nil)
}

func (c *Controller) GetUserBookings(ctx *gin.Context) {
	var query ListBookingsQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	list, err := c.service.GetUserBookings(ctx.Request.Context(), uuid.MustParse(query.CustomerID), query.Limit, query.Offset)
	if err != nil {
		response.RespondJSON(ctx, "error", apperr.HTTPStatus(err), "Failed to get bookings", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Bookings retrieved successfully", list, nil)
}

func (c *Controller) CancelBooking(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid booking ID", nil, err.Error())
		return
	}

	if err := c.service.Cancel(ctx.Request.Context(), id); err != nil {
		response.RespondJSON(ctx, "error", apperr.HTTPStatus(err), "Failed to cancel booking", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Booking cancelled successfully", nil, nil)
}

func (c *Controller) ConfirmBooking(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid booking ID", nil, err.Error())
		return
	}

	staffID, err := uuid.Parse(ctx.GetString("user_id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Staff identity is required", nil, nil)
		return
	}

	booking, err := c.service.ConfirmByStaff(ctx.Request.Context(), id, staffID)
	if err != nil {
		response.RespondJSON(ctx, "error", apperr.HTTPStatus(err), "Failed to confirm booking", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Booking confirmed successfully", booking, nil)
}
