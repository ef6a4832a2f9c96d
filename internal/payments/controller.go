package payments

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

func (c *Controller) CreateBankTransfer(ctx *gin.Context) {
	var req CreateBankTransferBody
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request data", nil, err.Error())
		return
	}

	bookingID, err := uuid.Parse(req.BookingID)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid booking ID", nil, err.Error())
		return
	}

	result, err := c.service.CreateBankTransfer(ctx.Request.Context(), BankTransferRequest{
		BookingID: bookingID,
		Purpose:   req.Purpose,
	})
	if err != nil {
		response.RespondJSON(ctx, "error", apperr.HTTPStatus(err), "Failed to create bank transfer", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Bank transfer created successfully", result, nil)
}

func (c *Controller) ConfirmBankTransfer(ctx *gin.Context) {
	paymentID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid payment ID", nil, err.Error())
		return
	}

	staffID, err := uuid.Parse(ctx.GetString("user_id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Invalid staff identity", nil, err.Error())
		return
	}

	payment, err := c.service.ConfirmBankTransfer(ctx.Request.Context(), paymentID, staffID)
	if err != nil {
		response.RespondJSON(ctx, "error", apperr.HTTPStatus(err), "Failed to confirm bank transfer", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Bank transfer confirmed successfully", payment, nil)
}

func (c *Controller) CreateWalletPayment(ctx *gin.Context) {
	var req CreateWalletPaymentBody
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request data", nil, err.Error())
		return
	}

	bookingID, err := uuid.Parse(req.BookingID)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid booking ID", nil, err.Error())
		return
	}

	result, err := c.service.CreateWalletPayment(ctx.Request.Context(), WalletPaymentRequest{
		BookingID: bookingID,
		Method:    req.Method,
		Purpose:   req.Purpose,
		ReturnURL: req.ReturnURL,
		NotifyURL: req.NotifyURL,
		Customer:  req.Customer,
	})
	if err != nil {
		response.RespondJSON(ctx, "error", apperr.HTTPStatus(err), "Failed to create wallet payment", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Wallet payment created successfully", result, nil)
}

// HandleCallback serves the provider notification endpoints. Providers
// send either query strings or form bodies, so both are flattened into
// one parameter map before verification.
func (c *Controller) HandleCallback(ctx *gin.Context) {
	method := ctx.Param("method")

	params := map[string]string{}
	for key, values := range ctx.Request.URL.Query() {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}
	if err := ctx.Request.ParseForm(); err == nil {
		for key, values := range ctx.Request.PostForm {
			if len(values) > 0 {
				params[key] = values[0]
			}
		}
	}
	if len(params) == 0 {
		var body map[string]interface{}
		if err := ctx.ShouldBindJSON(&body); err == nil {
			for key, value := range body {
				if s, ok := value.(string); ok {
					params[key] = s
				}
			}
		}
	}

	payment, err := c.service.HandleCallback(ctx.Request.Context(), method, params)
	if err != nil {
		response.RespondJSON(ctx, "error", apperr.HTTPStatus(err), "Callback rejected", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Callback processed successfully", payment, nil)
}

func (c *Controller) Refund(ctx *gin.Context) {
	paymentID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid payment ID", nil, err.Error())
		return
	}

	var req RefundBody
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request data", nil, err.Error())
		return
	}

	payment, err := c.service.Refund(ctx.Request.Context(), paymentID, req.Reason)
	if err != nil {
		response.RespondJSON(ctx, "error", apperr.HTTPStatus(err), "Failed to refund payment", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Payment refunded successfully", payment, nil)
}

func (c *Controller) GetPayment(ctx *gin.Context) {
	paymentID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid payment ID", nil, err.Error())
		return
	}

	payment, err := c.service.GetPayment(ctx.Request.Context(), paymentID)
	if err != nil {
		response.RespondJSON(ctx, "error", apperr.HTTPStatus(err), "Failed to get payment", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Payment retrieved successfully", payment, nil)
}

func (c *Controller) GetPaymentHistory(ctx *gin.Context) {
	bookingID, err := uuid.Parse(ctx.Param("bookingId"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid booking ID", nil, err.Error())
		return
	}

	list, err := c.service.GetPaymentHistory(ctx.Request.Context(), bookingID)
	if err != nil {
		response.RespondJSON(ctx, "error", apperr.HTTPStatus(err), "Failed to get payment history", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Payment history retrieved successfully", list, nil)
}

func (c *Controller) Reconcile(ctx *gin.Context) {
	resolved, err := c.service.ReconcilePending(ctx.Request.Context())
	if err != nil {
		response.RespondJSON(ctx, "error", apperr.HTTPStatus(err), "Failed to reconcile payments", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Reconciliation completed", gin.H{"resolved": resolved}, nil)
}
