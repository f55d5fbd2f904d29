package main

import (
	"fmt"
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"ai-scribe-server/internal/ai"
	"ai-scribe-server/internal/config"
	"ai-scribe-server/internal/logger"
	"ai-scribe-server/internal/models"
	"ai-scribe-server/internal/routes"
	"ai-scribe-server/internal/storage"
)

func main() {
	// Load environment variables; a missing .env is fine in containerized deployments
	_ = godotenv.Load()

	// Initialize configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	zlog, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Error creating logger: %v", err)
	}
	defer zlog.Sync()

	// Initialize database connection
	db, err := models.InitDB(models.DatabaseConfig{DSN: cfg.Database.DSN})
	if err != nil {
		zlog.Fatal("Error connecting to database", zap.Error(err))
	}

	// Initialize the audio upload store
	store, err := storage.New(cfg.UploadDir)
	if err != nil {
		zlog.Fatal("Error initializing upload store", zap.Error(err))
	}

	// AI client; runs in degraded mode when no API key is configured
	aiClient := ai.NewOpenAIClient(cfg.OpenAI.APIKey, time.Duration(cfg.AITimeout)*time.Second, zlog)
	if cfg.OpenAI.APIKey == "" {
		zlog.Warn("OPENAI_API_KEY not set, AI enrichment disabled")
	}

	// Initialize Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	// Configure CORS
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Origin}
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	router.Use(cors.New(corsConfig))

	// Set up routes
	routes.SetupRoutes(router, db, store, aiClient, zlog)

	// Start server
	serverAddr := fmt.Sprintf(":%s", cfg.Port)
	zlog.Info("Server starting", zap.String("port", cfg.Port))
	if err := router.Run(serverAddr); err != nil {
		zlog.Fatal("Failed to start server", zap.Error(err))
	}
}
