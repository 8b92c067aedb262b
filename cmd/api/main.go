package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	_ "github.com/joho/godotenv/autoload"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/rentora/rentora-api/docs" // Swagger docs
	"github.com/rentora/rentora-api/internal/config"
	"github.com/rentora/rentora-api/internal/database"
	"github.com/rentora/rentora-api/internal/handlers"
	"github.com/rentora/rentora-api/internal/jobs"
	"github.com/rentora/rentora-api/internal/middleware"
	"github.com/rentora/rentora-api/internal/repository"
	"github.com/rentora/rentora-api/internal/services"
	"github.com/rentora/rentora-api/internal/storage"
	"github.com/rentora/rentora-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// @title Rentora API
// @version 1.0
// @description REST API for the Rentora vehicle rental back office

// @contact.name API Support
// @contact.url http://www.swagger.io/support
// @contact.email support@swagger.io

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /api/v1
// @schemes http
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Setup(cfg.Environment)

	// Initialize Sentry when DSN is configured
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			TracesSampleRate: 0.2,
			Environment:      cfg.Environment,
		}); err != nil {
			logger.Error("Sentry initialization failed", "error", err)
		} else {
			logger.Info("Sentry initialized")
		}
	}

	if cfg.ResendAPIKey == "" || cfg.FromEmail == "" {
		logger.Warn("Resend email disabled: RESEND_API_KEY or FROM_EMAIL not set")
	}

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to database")

	// Initialize storage
	store, err := storage.NewLocalStorage(cfg.StoragePath)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	logger.Info("Initialized local storage")

	// Initialize repositories
	repos := repository.NewRepositories(db)

	// Initialize background worker
	worker := jobs.NewWorker(cfg.WorkerCount)
	logger.Info("Started background worker", "goroutines", cfg.WorkerCount)

	// Initialize services
	svcs := services.NewServices(repos, worker, store, cfg, db)

	// Schedule recurring jobs
	scheduleJobs(worker, svcs)

	// Initialize handlers
	h := handlers.NewHandlers(svcs, store)

	// Setup router
	router := setupRouter(h, cfg)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	// Shutdown background worker
	worker.Shutdown()
	logger.Info("Background worker stopped")

	// Flush Sentry events before exit
	if cfg.SentryDSN != "" {
		sentry.Flush(5 * time.Second)
	}

	logger.Info("Server exited gracefully")
}

func setupRouter(h *handlers.Handlers, cfg *config.Config) *gin.Engine {
	router := gin.New()

	// Global middleware
	if cfg.SentryDSN != "" {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// Redirect root to swagger
	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Health check
		v1.GET("/health", h.Health.Index)

		// Leases and reconciliation
		leases := v1.Group("/leases")
		{
			leases.GET("", h.Lease.Index)
			leases.POST("", h.Lease.Create)
			leases.GET("/:lease_id", h.Lease.Show)
			leases.POST("/:lease_id/activate", h.Lease.Activate)
			leases.POST("/:lease_id/close", h.Lease.Close)
			leases.POST("/:lease_id/cancel", h.Lease.Cancel)
			leases.POST("/:lease_id/reconcile", h.Lease.Reconcile)
			leases.POST("/:lease_id/resolve_duplicates", h.Lease.ResolveDuplicates)
			leases.POST("/:lease_id/synchronize", h.Lease.Synchronize)
			leases.GET("/:lease_id/statement", h.Lease.Statement)
		}

		// Obligations
		obligations := v1.Group("/obligations")
		{
			// Static route first so "stats" is not matched as :obligation_id
			obligations.GET("/stats", h.Obligation.Stats)
			obligations.GET("", h.Obligation.Index)
			obligations.GET("/:obligation_id", h.Obligation.Show)
			obligations.POST("/:obligation_id/payments", h.Obligation.ManualPayment)
			obligations.POST("/:obligation_id/receipt", h.Obligation.UploadReceipt)
			obligations.GET("/:obligation_id/receipt", h.Obligation.DownloadReceipt)
		}

		// Traffic fines
		fines := v1.Group("/fines")
		{
			fines.POST("", h.Fine.Register)
			fines.GET("/:fine_id", h.Fine.Show)
			fines.POST("/:fine_id/assign", h.Fine.Assign)
		}

		// Notifications
		v1.GET("/customers/:customer_id/notifications", h.Notification.Index)
		v1.POST("/customers/:customer_id/notifications/read_all", h.Notification.MarkAllAsRead)
		v1.POST("/notifications/:notification_id/read", h.Notification.MarkAsRead)

		// Reports
		reports := v1.Group("/reports")
		{
			reports.GET("/overdue", h.Report.OverdueCSV)
			reports.GET("/collections", h.Report.CollectionsCSV)
			reports.GET("/stats.xlsx", h.Report.StatsXLSX)
		}
	}

	return router
}

func scheduleJobs(worker *jobs.Worker, svcs *services.Services) {
	// Refresh payment schedules hourly: resolve duplicates and materialize
	// obligations for every active lease
	worker.ScheduleEveryImmediate(1*time.Hour, func(ctx context.Context) error {
		logger.Info("[Job] Refreshing payment schedules...")
		return svcs.Reconciliation.RefreshAllSchedules(ctx)
	})

	// Assign pending traffic fines hourly
	worker.ScheduleEvery(1*time.Hour, func(ctx context.Context) error {
		logger.Info("[Job] Assigning pending traffic fines...")
		assigned, err := svcs.Fine.AssignPending(ctx)
		if err != nil {
			return err
		}
		if assigned > 0 {
			logger.Info("[Job] Fines assigned", "count", assigned)
		}
		return nil
	})

	// Daily overdue reminder emails
	worker.ScheduleEvery(24*time.Hour, func(ctx context.Context) error {
		logger.Info("[Job] Sending overdue reminder emails...")
		sent, err := svcs.Obligation.SendOverdueReminders(ctx)
		if err != nil {
			return err
		}
		logger.Info("[Job] Overdue reminders sent", "count", sent)
		return nil
	})

	logger.Info("Scheduled recurring jobs")
}
