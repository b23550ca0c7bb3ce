package server

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/fairtix/fairtix/config"
	"github.com/fairtix/fairtix/internal/cache"
	"github.com/fairtix/fairtix/internal/handlers"
	"github.com/fairtix/fairtix/internal/middleware"
	"github.com/fairtix/fairtix/internal/ticketing"
)

func Start() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %v", err)
	}

	db, err := config.InitDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %v", err)
	}

	r := gin.Default()

	setupRoutes(r, db, cfg)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	return r.Run(":" + port)
}

func setupRoutes(r *gin.Engine, db *gorm.DB, cfg *config.Config) {
	engine := ticketing.NewEngine(db)
	registry := ticketing.NewRegistry(db, cfg.CreationFee)
	wallet := ticketing.NewWallet(db)
	summaryCache := cache.NewSummaryCache(config.InitRedis(cfg))

	collectionHandler := handlers.NewCollectionHandler(registry, engine, summaryCache)
	ticketHandler := handlers.NewTicketHandler(engine, summaryCache)
	walletHandler := handlers.NewWalletHandler(wallet)
	adminHandler := handlers.NewAdminHandler(registry)

	r.Use(middleware.DatabaseMiddleware(db))

	r.GET("/health", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err != nil || sqlDB.Ping() != nil {
			c.JSON(503, gin.H{"status": "unhealthy"})
			return
		}
		c.JSON(200, gin.H{"status": "healthy"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	public := r.Group("/v1")
	{
		public.POST("/register", handlers.Register)
		public.POST("/login", handlers.Login)

		collectionPublic := public.Group("/collections")
		{
			collectionPublic.GET("", collectionHandler.ListCollections)
			collectionPublic.GET("/:id", collectionHandler.GetCollection)
			collectionPublic.GET("/:id/tickets/:serial", ticketHandler.GetTicket)
			collectionPublic.GET("/:id/tickets/:serial/metadata", ticketHandler.GetTicketMetadata)
		}
	}

	protected := r.Group("/v1")
	protected.Use(middleware.JWTAuthMiddleware())
	{
		walletProtected := protected.Group("/wallet")
		{
			walletProtected.GET("", walletHandler.GetWallet)
			walletProtected.GET("/history", walletHandler.History)
			walletProtected.POST("/deposit", walletHandler.Deposit)
			walletProtected.POST("/withdraw", walletHandler.Withdraw)
		}

		collectionProtected := protected.Group("/collections")
		{
			collectionProtected.POST("", middleware.RequireRole("organizer"), collectionHandler.CreateCollection)
			collectionProtected.POST("/:id/mint", ticketHandler.Mint)
			collectionProtected.POST("/:id/tickets/:serial/resale", ticketHandler.Resale)
			collectionProtected.POST("/:id/tickets/:serial/refund", ticketHandler.Refund)
			collectionProtected.POST("/:id/tickets/:serial/cancel-refund", ticketHandler.CancelRefund)
			collectionProtected.GET("/:id/tickets/:serial/pass", ticketHandler.GetTicketPass)

			// Organizer authorization for these is enforced by the engine
			// against the collection's organizer, not by role.
			collectionProtected.POST("/:id/tickets/:serial/check-in", ticketHandler.CheckIn)
			collectionProtected.POST("/:id/cancel", ticketHandler.CancelEvent)
			collectionProtected.PUT("/:id/metadata-locator", ticketHandler.SetMetadataLocator)
		}

		protected.POST("/check-in", ticketHandler.CheckInScanned)

		admin := protected.Group("/admin")
		admin.Use(middleware.RequireRole("admin"))
		{
			admin.POST("/withdraw-fees", adminHandler.WithdrawFees)
		}
	}
}
