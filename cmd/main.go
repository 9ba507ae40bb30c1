package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"catalog-pipeline/internal/config"
	"catalog-pipeline/internal/handlers"
	"catalog-pipeline/internal/middleware"
	"catalog-pipeline/internal/pipeline"
	"catalog-pipeline/internal/repository"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Initialize configuration
	cfg := config.Load()

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if cfg.Environment == "production" {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(logrus.DebugLevel)
	}

	// Initialize Redis client
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Printf("WARNING: Failed to parse Redis URL: %v (continuing without Redis)", err)
		redisOpts = &redis.Options{
			Addr: "localhost:6379",
		}
	}
	redisClient := redis.NewClient(redisOpts)

	// Test Redis connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("WARNING: Failed to connect to Redis: %v (caching will be disabled)", err)
	} else {
		log.Println("✓ Redis connected successfully")
	}
	cancel()

	// Initialize repository and pipeline
	catalogRepo := repository.NewCatalogRepository(db, redisClient)
	feedPipeline := pipeline.New(logger)

	// Initialize handlers
	feedHandler := handlers.NewFeedHandler(catalogRepo, feedPipeline, cfg.MinQualityScore, logger)
	catalogHandler := handlers.NewCatalogHandler(catalogRepo, logger)

	// Initialize Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.AllowedOrigins))

	// Health check endpoints
	router.GET("/health", handlers.HealthCheck)
	router.GET("/ready", handlers.HealthCheck)

	// API routes
	api := router.Group("/api/v1")
	{
		catalog := api.Group("/catalog")
		{
			catalog.POST("/import", feedHandler.ImportFeed)
			catalog.GET("/import/template", feedHandler.GetImportTemplate)

			catalog.GET("/products", catalogHandler.ListProducts)
			catalog.GET("/products/high-value", catalogHandler.HighValueProducts)
			catalog.GET("/products/quick-wins", catalogHandler.QuickWins)
			catalog.GET("/products/needing-review", catalogHandler.ProductsNeedingReview)
			catalog.GET("/products/tier/:tier", catalogHandler.ProductsByTier)
			catalog.GET("/products/:handle", catalogHandler.GetProduct)

			catalog.GET("/categories/summary", catalogHandler.CategorySummary)
			catalog.GET("/vendors/performance", catalogHandler.VendorPerformance)
			catalog.GET("/vendors/:vendor/products", catalogHandler.ProductsByVendor)

			catalog.GET("/validation/report", catalogHandler.LatestReport)
		}
	}

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Catalog pipeline service starting on port %s", cfg.Port)
		if err := router.Run(":" + cfg.Port); err != nil {
			log.Fatal("Failed to start server:", err)
		}
	}()

	// Wait for interrupt signal
	<-quit
	log.Println("Shutting down catalog-pipeline...")

	if err := redisClient.Close(); err != nil {
		log.Printf("Error closing Redis client: %v", err)
	}

	log.Println("Catalog pipeline service stopped")
}
