package api

import (
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/playfishing/backend/internal/api/handlers"
	"github.com/playfishing/backend/internal/config"
	"github.com/playfishing/backend/internal/middleware"
	"github.com/redis/go-redis/v9"
)

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, db *sqlx.DB, rdb *redis.Client, cfg *config.Config) {
	router.Use(middleware.CORSMiddleware(cfg))
	router.Use(middleware.WebSocketCORSCheck(cfg))

	// API v1 group
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck)

		// Room lifecycle. Create and join are unauthenticated and return a
		// room-scoped session token; everything else requires it.
		rooms := v1.Group("/rooms")
		{
			rooms.POST("", handlers.CreateRoom(cfg))
			rooms.POST("/join", handlers.JoinRoom(cfg))
			rooms.GET("/:id", handlers.AuthMiddleware(cfg), handlers.GetRoomInfo())

			// WebSocket authenticates via token query param, not header.
			rooms.GET("/:id/ws", handlers.HandleRoomWebSocket())

			g := rooms.Group("/:id/game", handlers.AuthMiddleware(cfg))
			{
				g.GET("/state", handlers.GetGameState())
				g.POST("/start", handlers.StartGame())
				g.POST("/ask", handlers.SubmitAsk())
				g.POST("/guess", handlers.SubmitGuess())
			}
		}

		// Admin endpoints
		adm := v1.Group("/admin", handlers.AdminAuthMiddleware(db))
		{
			adm.GET("/stats", handlers.AdminStats(db))
			adm.DELETE("/rooms/:id", handlers.AdminRemoveRoom(db))
		}
	}
}
