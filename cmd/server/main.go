package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/playfishing/backend/internal/api"
	"github.com/playfishing/backend/internal/api/handlers"
	"github.com/playfishing/backend/internal/config"
	"github.com/playfishing/backend/internal/database"
	"github.com/playfishing/backend/internal/migrations"
	"github.com/playfishing/backend/internal/redis"
	"github.com/playfishing/backend/internal/room"
	"github.com/playfishing/backend/internal/ws"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Run migrations on start if requested
	if os.Getenv("MIGRATE_ON_START") == "true" {
		log.Println("↗ Running DB migrations on startup...")
		if err := migrations.RunMigrations(cfg.DatabaseURL); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	}

	// Initialize Redis
	rdb, err := redis.Connect(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer rdb.Close()

	// Initialize room manager with Redis and config
	room.InitializeManager(db, rdb, cfg)

	// Wire the WS layer: session token validation and cross-process snapshot
	// fan-out over Redis pub/sub.
	ws.SetAuthenticator(func(token string) (string, string, error) {
		claims, err := handlers.ParseSessionToken(cfg, token)
		if err != nil {
			return "", "", err
		}
		return claims.PlayerID, claims.RoomID, nil
	})
	ws.SetRedisClient(rdb)
	ws.StartRoomEventSubscriber(context.Background())

	// Set up Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	// Initialize API handlers
	api.SetupRoutes(router, db, rdb, cfg)

	// Start server
	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	log.Printf("Starting PlayFishing server on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
