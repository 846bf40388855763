package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	Environment string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// Server
	Port        string
	FrontendURL string

	// Game Settings
	CardsPerPlayer     int
	MaxPlayersPerRoom  int
	RoomCodeLength     int
	RoomExpiryMinutes  int
	SnapshotTTLMinutes int

	// Security
	JWTSecret         string
	SessionTimeoutMin int
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		// Environment
		Environment: getEnv("APP_ENV", "development"),

		// Database
		DatabaseURL: getEnv("DATABASE_URL", "postgres://localhost:5432/playfishing?sslmode=disable"),

		// Redis
		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		// Server
		Port:        getEnv("APP_PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		// Game Settings
		CardsPerPlayer:     getEnvInt("CARDS_PER_PLAYER", 5),
		MaxPlayersPerRoom:  getEnvInt("MAX_PLAYERS_PER_ROOM", 6),
		RoomCodeLength:     getEnvInt("ROOM_CODE_LENGTH", 6),
		RoomExpiryMinutes:  getEnvInt("ROOM_EXPIRY_MINUTES", 120),
		SnapshotTTLMinutes: getEnvInt("SNAPSHOT_TTL_MINUTES", 180),

		// Security
		JWTSecret:         getEnv("JWT_SECRET", "change-me-in-production"),
		SessionTimeoutMin: getEnvInt("SESSION_TIMEOUT_MINUTES", 720),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
