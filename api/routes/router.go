package routes

import (
	"context"
	"net/http"
	"time"

	"fieldbook/internal/bookings"
	"fieldbook/internal/fields"
	"fieldbook/internal/locks"
	"fieldbook/internal/payments"
	"fieldbook/internal/payments/providers"
	"fieldbook/internal/pricing"
	"fieldbook/internal/shared/config"
	"fieldbook/internal/shared/database"
	"fieldbook/pkg/cache"
	"fieldbook/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Router holds all route dependencies
type Router struct {
	config    *config.Config
	db        *database.DB
	log       *logger.Logger
	publisher payments.EventPublisher
}

// NewRouter creates a new router instance
func NewRouter(cfg *config.Config, db *database.DB, log *logger.Logger, publisher payments.EventPublisher) *Router {
	return &Router{
		config:    cfg,
		db:        db,
		log:       log,
		publisher: publisher,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	bookings.RegisterValidators()

	r.setupHealthRoutes(engine)

	api := engine.Group(r.config.GetAPIBasePath())
	{
		cacheService := cache.NewService(r.db.GetRedisClient())

		fieldRepo := fields.NewRepository(r.db.GetPostgreSQL())
		fieldService := fields.NewService(fieldRepo, cacheService)
		fields.SetupFieldRoutes(api, fields.NewController(fieldService), r.config)

		pricingRepo := pricing.NewRepository(r.db.GetPostgreSQL())
		pricingService := pricing.NewService(pricingRepo, cacheService)
		pricing.SetupPricingRoutes(api, pricing.NewController(pricingService), r.config)

		bookingRepo := bookings.NewRepository(r.db.GetPostgreSQL())

		// The booking repository doubles as the lock manager's view of
		// already-booked slots
		lockRepo := locks.NewRepository(r.db.GetPostgreSQL())
		lockService := locks.NewService(lockRepo, bookingRepo, r.config, r.log)
		locks.SetupLockRoutes(api, locks.NewController(lockService))

		bookingService := bookings.NewService(bookingRepo, lockService, pricingService, fieldService, r.log)
		bookings.SetupBookingRoutes(api, bookings.NewController(bookingService), r.config)

		providerClient := &http.Client{Timeout: r.config.ProviderTimeout}
		registry := providers.NewRegistry(
			providers.NewMoMoProvider(r.config.MoMo, providerClient),
			providers.NewZaloPayProvider(r.config.ZaloPay, providerClient),
			providers.NewSandboxProvider(),
		)

		paymentRepo := payments.NewRepository(r.db.GetPostgreSQL())
		paymentService := payments.NewService(
			paymentRepo,
			&bookingLedgerAdapter{bookings: bookingService},
			registry,
			providers.NewBankTransferGenerator(r.config.Bank),
			r.publisher,
			r.config,
			r.log,
		)
		payments.SetupPaymentRoutes(api, payments.NewController(paymentService), r.config)
	}
}

func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "fieldbook",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "fieldbook",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})
}

// bookingLedgerAdapter exposes the booking service to the payment
// orchestrator without a package dependency in that direction.
type bookingLedgerAdapter struct {
	bookings bookings.Service
}

func (a *bookingLedgerAdapter) GetPayable(ctx context.Context, bookingID uuid.UUID) (*payments.PayableBooking, error) {
	booking, err := a.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	return &payments.PayableBooking{
		ID:         booking.ID,
		CustomerID: booking.CustomerID,
		TotalPrice: booking.TotalPrice,
		AmountPaid: booking.AmountPaid,
		Cancelled:  booking.Status == bookings.StatusCancelled,
	}, nil
}

func (a *bookingLedgerAdapter) ApplySettlement(ctx context.Context, bookingID uuid.UUID, amount float64) error {
	_, err := a.bookings.ApplySettlement(ctx, bookingID, amount)
	return err
}
