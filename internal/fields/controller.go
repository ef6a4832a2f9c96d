package fields

import (
	"net/http"

	"fieldbook/internal/shared/apperr"
	"fieldbook/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

func (c *Controller) GetFields(ctx *gin.Context) {
	status := ctx.Query("status")

	list, err := c.service.GetFields(ctx.Request.Context(), status)
	if err != nil {
		response.RespondJSON(ctx, "error", apperr.HTTPStatus(err), "Failed to get fields", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Fields retrieved successfully", list, nil)
}

func (c *Controller) GetField(ctx *gin.Context) {
	id := ctx.Param("id")
	if id == "" {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Field ID is required", nil, "missing field ID")
		return
	}

	field, err := c.service.GetFieldByID(ctx.Request.Context(), id)
	if err != nil {
		response.RespondJSON(ctx, "error", apperr.HTTPStatus(err), "Failed to get field", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Field retrieved successfully", field, nil)
}

func (c *Controller) CreateField(ctx *gin.Context) {
	var req CreateFieldRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request data", nil, err.Error())
		return
	}

	field, err := c.service.CreateField(ctx.Request.Context(), req)
	if err != nil {
		response.RespondJSON(ctx, "error", apperr.HTTPStatus(err), "Failed to create field", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Field created successfully", field, nil)
}

func (c *Controller) UpdateFieldStatus(ctx *gin.Context) {
	id := ctx.Param("id")

	var req UpdateFieldStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request data", nil, err.Error())
		return
	}

	field, err := c.service.UpdateFieldStatus(ctx.Request.Context(), id, req.Status)
	if err != nil {
		response.RespondJSON(ctx, "error", apperr.HTTPStatus(err), "Failed to update field status", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Field status updated successfully", field, nil)
}

func (c *Controller) GetTimeWindows(ctx *gin.Context) {
	list, err := c.service.GetTimeWindows(ctx.Request.Context())
	if err != nil {
		response.RespondJSON(ctx, "error", apperr.HTTPStatus(err), "Failed to get time windows", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Time windows retrieved successfully", list, nil)
}

func (c *Controller) CreateTimeWindow(ctx *gin.Context) {
	var req CreateTimeWindowRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request data", nil, err.Error())
		return
	}

	window, err := c.service.CreateTimeWindow(ctx.Request.Context(), req)
	if err != nil {
		response.RespondJSON(ctx, "error", apperr.HTTPStatus(err), "Failed to create time window", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Time window created successfully", window, nil)
}
