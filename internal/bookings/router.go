package bookings

import (
	"fieldbook/internal/shared/config"
	"fieldbook/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupBookingRoutes(rg *gin.RouterGroup, controller *Controller, cfg *config.Config) {
	group := rg.Group("/bookings")
	group.Use(middleware.SessionToken())
	{
		group.POST("", controller.CreateBooking)       // POST /api/v1/bookings
		group.GET("", controller.GetUserBookings)      // GET /api/v1/bookings?customer_id=..
		group.GET("/:id", controller.GetBooking)       // GET /api/v1/bookings/:id
		group.DELETE("/:id", controller.CancelBooking) // DELETE /api/v1/bookings/:id
	}

	staff := rg.Group("/bookings")
	staff.Use(middleware.JWTAuth(cfg), middleware.RequireStaff())
	{
		staff.POST("/:id/confirm", controller.ConfirmBooking) // POST /api/v1/bookings/:id/confirm
	}
}
