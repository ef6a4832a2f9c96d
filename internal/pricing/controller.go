package pricing

import (
	"net/http"
	"time"

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

// Quote prices a hypothetical slot; the booking service calls the
// resolver directly, this endpoint exists for UI previews.
func (c *Controller) Quote(ctx *gin.Context) {
	var req QuoteRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	usageDate, err := time.Parse("2006-01-02", req.UsageDate)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "usage_date must be yyyy-mm-dd", nil, err.Error())
		return
	}

	quote, err := c.service.Resolve(ctx.Request.Context(), req.BasePrice, req.Coefficient, usageDate)
	if err != nil {
		response.RespondJSON(ctx, "error", apperr.HTTPStatus(err), "Failed to resolve price", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Price resolved successfully", quote, nil)
}

func (c *Controller) GetActiveRules(ctx *gin.Context) {
	rules, err := c.service.ActiveRules(ctx.Request.Context())
	if err != nil {
		response.RespondJSON(ctx, "error", apperr.HTTPStatus(err), "Failed to get holiday rules", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Holiday rules retrieved successfully", rules, nil)
}

func (c *Controller) CreateRule(ctx *gin.Context) {
	var req CreateHolidayRuleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request data", nil, err.Error())
		return
	}

	rule, err := c.service.CreateRule(ctx.Request.Context(), req)
	if err != nil {
		response.RespondJSON(ctx, "error", apperr.HTTPStatus(err), "Failed to create holiday rule", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Holiday rule created successfully", rule, nil)
}

func (c *Controller) DeactivateRule(ctx *gin.Context) {
	id := ctx.Param("id")

	if err := c.service.DeactivateRule(ctx.Request.Context(), id); err != nil {
		response.RespondJSON(ctx, "error", apperr.HTTPStatus(err), "Failed to deactivate holiday rule", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Holiday rule deactivated successfully", nil, nil)
}
