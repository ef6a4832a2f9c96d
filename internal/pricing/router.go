package pricing

import (
	"fieldbook/internal/shared/config"
	"fieldbook/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupPricingRoutes(rg *gin.RouterGroup, controller *Controller, cfg *config.Config) {
	public := rg.Group("/pricing")
	{
		public.GET("/quote", controller.Quote)          // GET /api/v1/pricing/quote
		public.GET("/holidays", controller.GetActiveRules) // GET /api/v1/pricing/holidays
	}

	admin := rg.Group("/admin/pricing/holidays")
	admin.Use(middleware.JWTAuth(cfg), middleware.RequireRoles(middleware.RoleAdmin))
	{
		admin.POST("", controller.CreateRule)              // POST /api/v1/admin/pricing/holidays
		admin.DELETE("/:id", controller.DeactivateRule)    // DELETE /api/v1/admin/pricing/holidays/:id
	}
}
