package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nithamitabh/AI-Powered-Regulatory-Compliance-Checker-for-Contracts/config"
	"github.com/nithamitabh/AI-Powered-Regulatory-Compliance-Checker-for-Contracts/handler"
	"github.com/nithamitabh/AI-Powered-Regulatory-Compliance-Checker-for-Contracts/middleware"
	"github.com/nithamitabh/AI-Powered-Regulatory-Compliance-Checker-for-Contracts/pkg/logger"
	"github.com/nithamitabh/AI-Powered-Regulatory-Compliance-Checker-for-Contracts/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	slog.Info("configuration loaded successfully")

	ctx := context.Background()

	// Initialize the template library backed by object storage
	library, err := service.NewMinioLibrary(&cfg.Minio)
	if err != nil {
		slog.Error("failed to initialize template library", "error", err)
		os.Exit(1)
	}
	if err := library.EnsureBucket(ctx); err != nil {
		slog.Error("failed to ensure storage bucket", "error", err)
		os.Exit(1)
	}

	// Initialize the language model and analysis services
	chatModel, err := service.NewChatModel(ctx, &cfg.LLM)
	if err != nil {
		slog.Error("failed to initialize chat model", "error", err)
		os.Exit(1)
	}
	analyzer := service.NewLLMService(chatModel, &cfg.LLM)

	extractor, err := service.NewPDFTextExtractor(ctx)
	if err != nil {
		slog.Error("failed to initialize pdf extractor", "error", err)
		os.Exit(1)
	}

	notifier := service.NewNotifyService(&cfg.SMTP, &cfg.Slack)
	compliance := service.NewComplianceService(analyzer, library, notifier)
	updater := service.NewTemplateUpdater(analyzer, extractor, library, notifier, cfg.Sources)

	// Fill missing reference templates without blocking startup
	go func() {
		if err := updater.Bootstrap(context.Background()); err != nil {
			slog.Error("template bootstrap incomplete", "error", err)
		}
	}()

	// Schedule the nightly template sweep
	if cfg.Scheduler.Enabled {
		if err := updater.Start(cfg.Scheduler.Spec); err != nil {
			slog.Error("failed to start template scheduler", "error", err)
			os.Exit(1)
		}
	}

	// Initialize handlers
	authHandler := handler.NewAuthHandler(cfg)
	complianceHandler := handler.NewComplianceHandler(compliance, extractor, library, updater, library)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New() // Use New() instead of Default() to avoid default middleware

	// Add custom middleware
	router.Use(middleware.RequestID())                // Request ID for tracing
	router.Use(middleware.Recovery())                 // Panic recovery
	router.Use(middleware.RequestLogger())            // Access logging
	router.Use(corsMiddleware())                      // CORS
	router.Use(middleware.RateLimit(60, time.Minute)) // Compliance checks are LLM-bound

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	// Public routes
	api := router.Group("/api")
	{
		api.POST("/auth/login", authHandler.Login)
	}

	// Protected routes
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(&cfg.Auth))
	{
		protected.GET("/auth/me", authHandler.GetCurrentUser)
		protected.POST("/compliance/check", complianceHandler.Check)
		protected.GET("/templates", complianceHandler.ListTemplates)
		protected.POST("/templates/sweep", complianceHandler.TriggerSweep)
	}

	// Create server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 300 * time.Second, // checks wait on several LLM round trips
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server...")

	updater.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server exited gracefully")
}

// corsMiddleware handles CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
