package server

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mwalcott/stagecrew/config"
	"github.com/mwalcott/stagecrew/internal/handlers"
	"github.com/mwalcott/stagecrew/internal/logging"
	"github.com/mwalcott/stagecrew/internal/middleware"
)

func Start() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %v", err)
	}

	logger := logging.NewLogger(cfg.AppEnv)
	defer logger.Sync()

	db, err := config.InitDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %v", err)
	}

	r := gin.Default()

	setupRoutes(r, db, logger)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	logger.Info("server starting", zap.String("port", port))
	return r.Run(":" + port)
}

func setupRoutes(r *gin.Engine, db *gorm.DB, logger *zap.Logger) {
	r.Use(middleware.DatabaseMiddleware(db))
	r.Use(middleware.LoggerMiddleware(logger))

	public := r.Group("/v1")
	{
		public.POST("/register", handlers.Register)
		public.POST("/login", handlers.Login)
	}

	protected := r.Group("/v1")
	protected.Use(middleware.JWTAuthMiddleware())
	{
		orgs := protected.Group("/organizations")
		{
			orgs.POST("", handlers.CreateOrganization)
			orgs.GET("", handlers.ListOrganizations)
			orgs.GET("/:id", handlers.GetOrganization)
			orgs.POST("/:id/members", handlers.AddOrganizationMember)
		}

		catalog := protected.Group("/catalog")
		{
			catalog.POST("/categories", handlers.CreateCategory)
			catalog.GET("/categories", handlers.ListCategories)
			catalog.POST("/services", handlers.CreateService)
			catalog.GET("/services", handlers.ListServices)
			catalog.POST("/extras", handlers.CreateExtra)
			catalog.GET("/extras", handlers.ListExtras)
			catalog.POST("/extras/:id/disappear", handlers.MarkExtraDisappeared)
			catalog.POST("/discounts", handlers.CreateDiscount)
			catalog.GET("/discounts", handlers.ListDiscounts)
			catalog.POST("/fees", handlers.CreateFee)
			catalog.GET("/fees", handlers.ListFees)
		}

		pricelists := protected.Group("/pricelists")
		{
			pricelists.POST("", handlers.CreatePricelist)
			pricelists.GET("/:id", handlers.GetPricelist)
			pricelists.PUT("/:id/entries", handlers.SetPricelistEntry)
		}

		events := protected.Group("/events")
		{
			events.POST("", handlers.CreateEvent)
			events.GET("", handlers.ListEvents)
			events.GET("/:id", handlers.GetEvent)
			events.GET("/:id/status", handlers.GetEventStatus)

			events.POST("/:id/approve", handlers.ApproveEvent())
			events.POST("/:id/deny", handlers.DenyEvent)
			events.POST("/:id/review", handlers.ReviewEvent())
			events.POST("/:id/close", handlers.CloseEvent())
			events.POST("/:id/reopen", handlers.ReopenEvent())
			events.POST("/:id/cancel", handlers.CancelEvent())

			events.POST("/:id/services", handlers.AddEventService)
			events.DELETE("/:id/services/:instanceId", handlers.RemoveEventService)
			events.POST("/:id/extras", handlers.AddEventExtra)
			events.PUT("/:id/extras/:instanceId", handlers.UpdateEventExtraQuantity)
			events.DELETE("/:id/extras/:instanceId", handlers.RemoveEventExtra)
			events.POST("/:id/rentals", handlers.AddEventRental)
			events.DELETE("/:id/rentals/:rentalId", handlers.RemoveEventRental)
			events.PUT("/:id/discounts", handlers.SetEventDiscounts)
			events.PUT("/:id/fees", handlers.SetEventFees)

			events.GET("/:id/billings", handlers.ListEventBillings)
			events.GET("/:id/attendance", handlers.ListEventAttendance)
			events.POST("/:id/crew-chiefs", handlers.AssignCrewChief)
		}

		billings := protected.Group("/billings")
		{
			billings.POST("", handlers.CreateBilling)
			billings.POST("/:id/pay", handlers.MarkBillingPaid)
			billings.DELETE("/:id", handlers.DeleteBilling)
		}

		multibillings := protected.Group("/multibillings")
		{
			multibillings.POST("", handlers.CreateMultiBilling)
			multibillings.POST("/:id/pay", handlers.MarkMultiBillingPaid)
			multibillings.DELETE("/:id", handlers.DeleteMultiBilling)
		}

		attendance := protected.Group("/attendance")
		{
			attendance.POST("/checkin", handlers.CheckIn)
			attendance.POST("/checkout", handlers.CheckOut)
			attendance.GET("/hours", handlers.MyHours)
		}
	}
}
