package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/playfishing/backend/internal/ws"
)

// HandleRoomWebSocket upgrades the connection and attaches it to the room hub
func HandleRoomWebSocket() gin.HandlerFunc {
	return func(c *gin.Context) {
		ws.HandleWebSocket(c)
	}
}
