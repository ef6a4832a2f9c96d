package payments

import (
	"fieldbook/internal/shared/config"
	"fieldbook/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupPaymentRoutes(rg *gin.RouterGroup, controller *Controller, cfg *config.Config) {
	public := rg.Group("/payments")
	{
		public.POST("/bank-transfer", controller.CreateBankTransfer) // POST /api/v1/payments/bank-transfer
		public.POST("/wallet", controller.CreateWalletPayment)       // POST /api/v1/payments/wallet
		public.GET("/:id", controller.GetPayment)                    // GET /api/v1/payments/:id
		public.GET("/booking/:bookingId", controller.GetPaymentHistory)

		// Provider notification endpoints carry their own signatures,
		// so these stay outside any auth middleware.
		public.POST("/callback/:method", controller.HandleCallback)
		public.GET("/callback/:method", controller.HandleCallback)
	}

	staff := rg.Group("/staff/payments")
	staff.Use(middleware.JWTAuth(cfg), middleware.RequireStaff())
	{
		staff.POST("/:id/confirm", controller.ConfirmBankTransfer) // POST /api/v1/staff/payments/:id/confirm
		staff.POST("/:id/refund", controller.Refund)               // POST /api/v1/staff/payments/:id/refund
		staff.POST("/reconcile", controller.Reconcile)             // POST /api/v1/staff/payments/reconcile
	}
}
