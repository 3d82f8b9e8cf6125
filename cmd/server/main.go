package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/nycre/explorer/internal/config"
	"github.com/nycre/explorer/internal/database"
	"github.com/nycre/explorer/internal/handlers"
	"github.com/nycre/explorer/internal/logger"
	"github.com/nycre/explorer/internal/middleware"
	"github.com/nycre/explorer/internal/repository"
	"github.com/nycre/explorer/internal/services"
)

const (
	shutdownTimeout = 30 * time.Second
)

func main() {
	// Load .env if present; real environments set variables directly
	_ = godotenv.Load()

	// Load configuration from environment variables
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	log := logger.New(cfg.Server.Env)
	log.Info("Starting NYC CRE Explorer API", map[string]interface{}{
		"version":     "0.1.0",
		"environment": cfg.Server.Env,
		"port":        cfg.Server.Port,
	})

	// Create database connection pool
	ctx := context.Background()
	db, err := database.NewPostgresPool(ctx, cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", err, map[string]interface{}{
			"host": cfg.Database.Host,
			"port": cfg.Database.Port,
			"name": cfg.Database.Name,
		})
	}
	defer db.Close()

	log.Info("Database connection established", map[string]interface{}{
		"host":     cfg.Database.Host,
		"port":     cfg.Database.Port,
		"database": cfg.Database.Name,
		"pool_min": cfg.Database.PoolMin,
		"pool_max": cfg.Database.PoolMax,
	})

	// Setup Gin router
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Add middleware in order: RequestID -> Logger -> Recovery -> CORS
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS(cfg.CORS.Origins))

	// Register health check routes
	healthHandler := handlers.NewHealthHandler(db, cfg.Server.Env)
	router.GET("/health", healthHandler.Health)
	router.GET("/health/ready", healthHandler.Ready)
	router.GET("/api/v1/info", healthHandler.Info)

	// Initialize repository layer
	propertyRepo := repository.NewPropertyRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	violationRepo := repository.NewViolationRepository(db)

	// Initialize service layer
	propertyService := services.NewPropertyService(propertyRepo, saleRepo, violationRepo, log)
	compsService := services.NewCompsService(propertyRepo, saleRepo, log)
	ownerService := services.NewOwnerService(propertyRepo, saleRepo, violationRepo, log)
	heatmapService := services.NewHeatmapService(propertyRepo, saleRepo, violationRepo, log)
	saleService := services.NewSaleService(saleRepo, log)

	// Initialize handlers
	propertyHandler := handlers.NewPropertyHandler(propertyService)
	compsHandler := handlers.NewCompsHandler(compsService)
	ownerHandler := handlers.NewOwnerHandler(ownerService)
	heatmapHandler := handlers.NewHeatmapHandler(heatmapService)
	saleHandler := handlers.NewSaleHandler(saleService)

	// Register API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(middleware.NoCache())
	{
		properties := v1.Group("/properties")
		{
			properties.GET("", propertyHandler.List)
			properties.GET("/:bbl", propertyHandler.Detail)
			properties.GET("/:bbl/comps", compsHandler.Find)
		}

		owners := v1.Group("/owners")
		{
			owners.GET("/distressed", ownerHandler.Distressed)
			owners.GET("/:name", ownerHandler.Search)
		}

		v1.GET("/opportunities", propertyHandler.Opportunities)
		v1.GET("/heatmap", heatmapHandler.Grid)
		v1.GET("/sales", saleHandler.Recent)
		v1.GET("/stats", propertyHandler.Stats)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server listening", map[string]interface{}{
			"port": cfg.Server.Port,
			"addr": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start", err, nil)
		}
	}()

	// Wait for interrupt signal (SIGINT or SIGTERM)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Graceful shutdown
	log.Info("Shutting down server...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", err, map[string]interface{}{
			"timeout": shutdownTimeout.String(),
		})
	}

	log.Info("Server exited", nil)
}
