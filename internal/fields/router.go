package fields

import (
	"fieldbook/internal/shared/config"
	"fieldbook/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupFieldRoutes(rg *gin.RouterGroup, controller *Controller, cfg *config.Config) {
	public := rg.Group("/fields")
	{
		public.GET("", controller.GetFields)           // GET /api/v1/fields
		public.GET("/:id", controller.GetField)        // GET /api/v1/fields/:id
		public.GET("/windows", controller.GetTimeWindows) // GET /api/v1/fields/windows
	}

	admin := rg.Group("/admin/fields")
	admin.Use(middleware.JWTAuth(cfg), middleware.RequireRoles(middleware.RoleAdmin))
	{
		admin.POST("", controller.CreateField)                  // POST /api/v1/admin/fields
		admin.PATCH("/:id/status", controller.UpdateFieldStatus) // PATCH /api/v1/admin/fields/:id/status
		admin.POST("/windows", controller.CreateTimeWindow)      // POST /api/v1/admin/fields/windows
	}
}
