package locks

import (
	"fieldbook/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupLockRoutes(rg *gin.RouterGroup, controller *Controller) {
	group := rg.Group("/locks")
	group.Use(middleware.SessionToken())
	{
		group.POST("/acquire", controller.Acquire)       // POST /api/v1/locks/acquire
		group.POST("/:id/extend", controller.Extend)     // POST /api/v1/locks/:id/extend
		group.DELETE("/:id", controller.Release)         // DELETE /api/v1/locks/:id
		group.DELETE("", controller.ReleaseBySlot)       // DELETE /api/v1/locks?field_id=..&usage_date=..&window_id=..
		group.GET("/availability", controller.CheckAvailability) // GET /api/v1/locks/availability
		group.GET("/active", controller.ListActive)      // GET /api/v1/locks/active
	}
}
