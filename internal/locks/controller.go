package locks

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

func sessionToken(ctx *gin.Context) string {
	return ctx.GetString("session_token")
}

func (c *Controller) Acquire(ctx *gin.Context) {
	var req AcquireLockRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request data", nil, err.Error())
		return
	}

	acquire := AcquireRequest{
		FieldID:      uuid.MustParse(req.FieldID),
		UsageDate:    req.UsageDate,
		WindowID:     uuid.MustParse(req.WindowID),
		SessionToken: sessionToken(ctx),
	}
	if req.CustomerID != "" {
		customerID := uuid.MustParse(req.CustomerID)
		acquire.CustomerID = &customerID
	}

	result, err := c.service.TryAcquire(ctx.Request.Context(), acquire)
	if err != nil {
		response.RespondJSON(ctx, "error", apperr.HTTPStatus(err), "Failed to acquire lock", nil, err.Error())
		return
	}

	if !result.Granted {
		response.RespondJSON(ctx, "error", http.StatusConflict, "Slot is not available", result, nil)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Slot lock acquired", result, nil)
}

func (c *Controller) Extend(ctx *gin.Context) {
	lock, err := c.service.Extend(ctx.Request.Context(), ctx.Param("id"), sessionToken(ctx))
	if err != nil {
		response.RespondJSON(ctx, "error", apperr.HTTPStatus(err), "Failed to extend lock", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Lock extended", lock, nil)
}

func (c *Controller) Release(ctx *gin.Context) {
	if err := c.service.Release(ctx.Request.Context(), ctx.Param("id"), sessionToken(ctx)); err != nil {
		response.RespondJSON(ctx, "error", apperr.HTTPStatus(err), "Failed to release lock", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Lock released", nil, nil)
}

func (c *Controller) ReleaseBySlot(ctx *gin.Context) {
	var query SlotQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}
	if query.WindowID == "" {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "window_id is required", nil, nil)
		return
	}

	err := c.service.ReleaseBySlot(ctx.Request.Context(),
		uuid.MustParse(query.FieldID), query.UsageDate, uuid.MustParse(query.WindowID), sessionToken(ctx))
	if err != nil {
		response.RespondJSON(ctx, "error", apperr.HTTPStatus(err), "Failed to release lock", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Lock released", nil, nil)
}

func (c *Controller) CheckAvailability(ctx *gin.Context) {
	var query SlotQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}
	if query.WindowID == "" {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "window_id is required", nil, nil)
		return
	}

	available, err := c.service.IsAvailable(ctx.Request.Context(),
		uuid.MustParse(query.FieldID), query.UsageDate, uuid.MustParse(query.WindowID), sessionToken(ctx))
	if err != nil {
		response.RespondJSON(ctx, "error", apperr.HTTPStatus(err), "Failed to check availability", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Availability checked", gin.H{"available": available}, nil)
}

func (c *Controller) ListActive(ctx *gin.Context) {
	var query SlotQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	list, err := c.service.ListActiveLocks(ctx.Request.Context(), uuid.MustParse(query.FieldID), query.UsageDate)
	if err != nil {
		response.RespondJSON(ctx, "error", apperr.HTTPStatus(err), "Failed to list active locks", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Active locks retrieved", list, nil)
}
