package main

import (
	"fmt"
	"log"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"stockmaster/internal/caching"
	"stockmaster/internal/config"
	"stockmaster/internal/handlers"
	"stockmaster/internal/jobs/background"
	"stockmaster/internal/middleware"
	"stockmaster/internal/models"
	"stockmaster/internal/realtime"
	"stockmaster/internal/repositories"
	"stockmaster/internal/services"
	"stockmaster/pkg/database"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	pool, err := database.NewPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// Cache and the realtime feed use separate Redis connections; a
	// subscribed connection cannot serve regular commands.
	cacheSvc := caching.NewRedisCacheService(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	redisClient := realtime.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	feed := realtime.NewRedisFeed(redisClient)

	storageSvc, err := services.NewMinioStorage(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioUseSSL)
	if err != nil {
		log.Fatalf("Failed to initialize object storage: %v", err)
	}

	// Repositories
	companyRepo := repositories.NewCompanyRepo(pool)
	userRepo := repositories.NewUserRepo(pool)
	subscriptionRepo := repositories.NewSubscriptionRepo(pool)
	productRepo := repositories.NewProductRepo(pool)
	saleRepo := repositories.NewSaleRepo(pool)
	supportRepo := repositories.NewSupportRepo(pool)
	activityRepo := repositories.NewActivityLogsRepo(pool)
	configRepo := repositories.NewSystemConfigRepo(pool)

	// Services
	evaluator := services.NewEntitlementEvaluator(services.DefaultPlanLimits())
	mailer := services.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.MailFrom)
	authSvc := services.NewAuthService(userRepo, companyRepo, supportRepo, activityRepo, mailer, cfg.JWTSecret, cfg.AppBaseURL, cfg.TokenTTL)
	sessionSvc := services.NewSessionService(userRepo, companyRepo, subscriptionRepo, evaluator, cacheSvc, feed)
	subscriptionSvc := services.NewSubscriptionService(subscriptionRepo, userRepo, supportRepo, activityRepo, evaluator, cacheSvc, feed)
	productSvc := services.NewProductService(productRepo, feed)
	salesSvc := services.NewSalesService(saleRepo, productRepo, activityRepo, feed)
	reportSvc := services.NewReportService(salesSvc, companyRepo, storageSvc)
	supportSvc := services.NewSupportService(supportRepo, activityRepo, feed)
	configSvc := services.NewConfigService(configRepo, cacheSvc)

	// Handlers
	authHandlers := handlers.NewAuthHandlers(authSvc, sessionSvc)
	subscriptionHandlers := handlers.NewSubscriptionHandlers(subscriptionSvc, sessionSvc, configSvc)
	productHandlers := handlers.NewProductHandlers(productSvc, sessionSvc)
	salesHandlers := handlers.NewSalesHandlers(salesSvc, reportSvc, sessionSvc)
	workerHandlers := handlers.NewWorkerHandlers(userRepo, sessionSvc)
	supportHandlers := handlers.NewSupportHandlers(supportSvc, sessionSvc)
	activityHandlers := handlers.NewActivityHandlers(activityRepo)
	adminHandlers := handlers.NewAdminHandlers(companyRepo, subscriptionSvc, supportSvc, configSvc, sessionSvc)
	healthHandlers := handlers.NewHealthHandlers(pool, redisClient)

	// Background jobs
	scheduler := background.NewJobScheduler(subscriptionRepo, activityRepo, cacheSvc, feed)
	if err := scheduler.Start(); err != nil {
		log.Fatalf("Failed to start job scheduler: %v", err)
	}
	defer scheduler.Stop()

	e := echo.New()

	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.RemoveTrailingSlash())

	e.GET("/health", healthHandlers.HealthCheck)

	v1 := e.Group("/v1")

	// Authentication routes (no JWT required)
	auth := v1.Group("/auth")
	auth.POST("/signup", authHandlers.RegisterShop)
	auth.POST("/join", authHandlers.JoinStaff)
	auth.POST("/login", authHandlers.Login)
	auth.POST("/forgot", authHandlers.ForgotPassword)
	auth.POST("/reset", authHandlers.ResetPassword)

	// Pricing is public; the paywall renders before any session exists.
	v1.GET("/subscription/pricing", subscriptionHandlers.Pricing)

	// Protected routes
	protected := v1.Group("")
	protected.Use(echojwt.WithConfig(middleware.JWTConfig(cfg.JWTSecret)))

	protected.GET("/auth/me", authHandlers.Me)
	protected.POST("/auth/refresh", authHandlers.RefreshSession)
	protected.POST("/auth/logout", authHandlers.Logout)
	protected.POST("/auth/password", authHandlers.ChangePassword)

	// Subscription lifecycle (managers only)
	subscription := protected.Group("/subscription", middleware.RequireCompany(), middleware.RequireRole(models.RoleManager))
	subscription.POST("/free", subscriptionHandlers.StartFree)
	subscription.POST("/claim", subscriptionHandlers.SubmitClaim)
	subscription.POST("/verify-pin", subscriptionHandlers.VerifyPIN)
	subscription.GET("/status", subscriptionHandlers.Status)
	subscription.GET("/events", subscriptionHandlers.Events)

	// Shop routes, shared by managers and workers
	shop := protected.Group("", middleware.RequireCompany(), middleware.RequireRole(models.RoleManager, models.RoleWorker))
	shop.GET("/products", productHandlers.ListProducts)
	shop.GET("/products/low-stock", productHandlers.ListLowStock)
	shop.GET("/products/:id", productHandlers.GetProduct)
	shop.POST("/sales", salesHandlers.RecordSale)
	shop.GET("/sales", salesHandlers.ListSales)
	shop.POST("/support/tickets", supportHandlers.OpenTicket)
	shop.GET("/support/tickets", supportHandlers.ListTickets)

	// Manager-only shop routes
	manager := protected.Group("", middleware.RequireCompany(), middleware.RequireRole(models.RoleManager))
	manager.POST("/products", productHandlers.CreateProduct)
	manager.PUT("/products/:id", productHandlers.UpdateProduct)
	manager.DELETE("/products/:id", productHandlers.DeleteProduct)
	manager.POST("/products/:id/restock", productHandlers.RestockProduct)
	manager.GET("/sales/summary", salesHandlers.MonthlySummary)
	manager.POST("/sales/summary/pdf", salesHandlers.ExportMonthlyPDF)
	manager.GET("/workers", workerHandlers.ListWorkers)
	manager.POST("/workers/:id/approve", workerHandlers.ApproveWorker)
	manager.POST("/workers/:id/reject", workerHandlers.RejectWorker)
	manager.GET("/activity", activityHandlers.ListActivity)

	// Super-admin console
	admin := protected.Group("/admin", middleware.RequireRole(models.RoleSuperAdmin))
	admin.GET("/companies", adminHandlers.ListCompanies)
	admin.PUT("/companies/:id/license", adminHandlers.AdjustLicense)
	admin.PUT("/companies/:id/currency", adminHandlers.UpdateCompanyCurrency)
	admin.GET("/claims", adminHandlers.ListClaims)
	admin.POST("/claims/:id/approve", adminHandlers.ApproveClaim)
	admin.POST("/claims/:id/deny", adminHandlers.DenyClaim)
	admin.GET("/configs", adminHandlers.ListConfigs)
	admin.PUT("/configs/:key", adminHandlers.UpdateConfig)
	admin.GET("/tickets", adminHandlers.ListTickets)
	admin.POST("/tickets/:id/reply", adminHandlers.ReplyTicket)
	admin.POST("/broadcast", adminHandlers.Broadcast)

	log.Printf("StockMaster server v%s starting on port %d", version, cfg.Port)

	e.Logger.Fatal(e.Start(fmt.Sprintf(":%d", cfg.Port)))
}
