package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/essenza/backend/internal/config"
	"github.com/essenza/backend/internal/handlers"
	"github.com/essenza/backend/internal/middleware"
	"github.com/essenza/backend/internal/models"
	"github.com/essenza/backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.New()

	db, err := models.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	if err := models.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	if err := models.SeedRadioConfig(db); err != nil {
		log.Fatalf("Failed to seed radio config: %v", err)
	}

	redisClient := models.InitRedis(cfg)
	defer redisClient.Close()

	authService := services.NewAuthService(db, redisClient, cfg)
	userService := services.NewUserService(db)
	productService := services.NewProductService(db)
	radioService := services.NewRadioService(db, redisClient, cfg)
	orderService := services.NewOrderService(db, cfg)
	emailService := services.NewEmailService(cfg)
	orderService.AttachEmailService(emailService)
	adminService := services.NewAdminService(db, cfg)
	storageService := services.NewStorageService(cfg)
	assetService := services.NewAssetService(db, cfg)
	s3Service, err := services.NewS3Service(cfg)
	if err != nil {
		log.Fatalf("Failed to init S3 service: %v", err)
	}
	qrService := services.NewQRService(cfg)
	auditService := services.NewAuditService(db, emailService, cfg)

	if err := adminService.CreateDefaultAdmin(); err != nil {
		log.Printf("Failed to create default admin: %v", err)
	}

	startWorkers(cfg, orderService, authService)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), middleware.CORS(cfg), middleware.RateLimiter(redisClient, cfg))

	registerRoutes(router, cfg, redisClient,
		handlers.NewAuthHandler(authService, userService, emailService),
		handlers.NewUserHandler(userService, orderService, qrService),
		handlers.NewAdminHandler(adminService, productService, radioService, userService, orderService, auditService, emailService),
		handlers.NewPublicHandler(productService, radioService),
		handlers.NewStripeHandler(orderService, cfg),
		handlers.NewMediaHandler(adminService, assetService, productService, storageService, s3Service),
		authService, auditService)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  120 * time.Second, // allow large audio uploads
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exited")
}

// runEvery loops a named maintenance job forever at a fixed interval
func runEvery(name string, interval time.Duration, job func() (int, error)) {
	go func() {
		for {
			n, err := job()
			switch {
			case err != nil:
				log.Printf("%s error: %v", name, err)
			case n > 0:
				log.Printf("%s: processed %d", name, n)
			}
			time.Sleep(interval)
		}
	}()
}

func startWorkers(cfg *config.Config, orderService *services.OrderService, authService *services.AuthService) {
	// Fallback poll for pending orders whose webhook never arrived
	runEvery("Pending payment check", 30*time.Second, orderService.CheckPendingPayments)

	// Abandoned checkouts go back to stock
	if cfg.PendingOrderCleanupEnabled {
		runEvery("Pending order cleanup", 5*time.Minute, orderService.CleanupStalePending)
	}

	// One-shot pickup reminders for orders waiting at the boutique
	runEvery("Pickup reminders", 6*time.Hour, orderService.SendPickupReminders)

	runEvery("Token cleanup", time.Hour, func() (int, error) {
		return 0, authService.CleanupExpiredTokens()
	})
}

func registerRoutes(router *gin.Engine, cfg *config.Config, redisClient *redis.Client,
	authHandler *handlers.AuthHandler, userHandler *handlers.UserHandler, adminHandler *handlers.AdminHandler,
	publicHandler *handlers.PublicHandler, stripeHandler *handlers.StripeHandler, mediaHandler *handlers.MediaHandler,
	authService *services.AuthService, auditService *services.AuditService) {

	healthy := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	}
	router.GET("/health", healthy)

	api := router.Group("/api/v1")
	api.GET("/health", healthy)

	// Catch-all OPTIONS handler for CORS preflight requests
	api.OPTIONS("/*path", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	public := api.Group("/public")
	{
		public.GET("/products", publicHandler.GetProducts)
		public.GET("/products/:id", publicHandler.GetProduct)
		public.GET("/radio/now", publicHandler.GetRadioNow)
		public.GET("/radio/tracks", publicHandler.GetRadioTracks)
		public.GET("/assets/:id/file", mediaHandler.ServeAsset)
	}

	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.RefreshToken)
		auth.POST("/logout", middleware.Auth(authService), authHandler.Logout)
	}

	user := api.Group("/user", middleware.Auth(authService))
	{
		user.GET("/profile", userHandler.GetProfile)
		user.PUT("/profile", userHandler.UpdateProfile)
		user.GET("/orders", userHandler.GetOrders)
		user.POST("/orders", userHandler.Checkout)
		user.DELETE("/orders/:id", userHandler.CancelOrder)
		user.GET("/orders/:id/pickup.pdf", userHandler.GetOrderPickupPDF)
		user.GET("/orders/:id/invoice.pdf", userHandler.GetOrderInvoicePDF)
	}

	admin := api.Group("/admin", middleware.Auth(authService), middleware.AdminOnly())
	{
		// Catalog management
		admin.GET("/products", adminHandler.GetAllProducts)
		admin.POST("/products", adminHandler.CreateProduct)
		admin.PUT("/products/:id", adminHandler.UpdateProduct)
		admin.POST("/products/:id/stock", adminHandler.AdjustProductStock)
		admin.DELETE("/products/:id", adminHandler.DeleteProduct)

		// Radio management
		admin.GET("/radio", adminHandler.GetRadioConfig)
		admin.PUT("/radio/live", adminHandler.SetRadioLive)
		admin.GET("/tracks", adminHandler.GetAllTracks)
		admin.POST("/tracks", adminHandler.CreateTrack)
		admin.PUT("/tracks/reorder", adminHandler.ReorderTracks)
		admin.PUT("/tracks/:id", adminHandler.UpdateTrack)
		admin.DELETE("/tracks/:id", adminHandler.DeleteTrack)

		// User management; account actions go through the escalating
		// per-admin rate limit
		sensitive := middleware.AdminActionRateLimit(auditService, redisClient, cfg.AdminRateLimitActions, cfg.AdminRateLimitWindowMinutes)
		admin.GET("/users", adminHandler.GetAllUsers)
		admin.GET("/users/:id", adminHandler.GetUserDetails)
		admin.PUT("/users/:id/active", middleware.TagAction("set_user_active"), sensitive, adminHandler.SetUserActive)
		if cfg.AdminPasswordResetEnabled {
			admin.PUT("/users/:id/password", middleware.TagAction("reset_user_password"), sensitive, adminHandler.ResetUserPassword)
		}

		// Order lookup and counter pickup
		admin.GET("/orders/:id", adminHandler.GetOrder)
		admin.GET("/pickup/verify", adminHandler.VerifyPickup)
		admin.POST("/orders/:id/fulfill", adminHandler.FulfillOrder)

		// Media library
		admin.GET("/assets", mediaHandler.ListAssets)
		admin.DELETE("/assets/:id", mediaHandler.DeleteAsset)
		admin.GET("/media/orphans", mediaHandler.ListOrphanMedia)

		// Dashboard and audit
		admin.GET("/stats", adminHandler.GetDashboardStats)
		admin.GET("/audit/logs", adminHandler.GetAuditLogs)
		admin.GET("/audit/stats", adminHandler.GetAuditStats)

		// Media uploads (rate limited per admin)
		uploads := admin.Group("", middleware.UploadRateLimit(redisClient, cfg))
		uploads.POST("/products/images", mediaHandler.UploadProductImage)
		uploads.POST("/tracks/audio", mediaHandler.UploadTrackAudio)
	}

	// Payment webhook
	api.POST("/stripe/webhook", stripeHandler.HandleWebhook)
}
