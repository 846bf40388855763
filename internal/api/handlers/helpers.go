package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/playfishing/backend/internal/game"
	"github.com/playfishing/backend/internal/room"
)

// writeGameError maps engine and room errors to HTTP responses. Rule
// violations and lost version races are both 409: the client should re-fetch
// the snapshot and retry from there.
func writeGameError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, game.ErrRoomNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Room not found", "code": "room_not_found"})
	case errors.Is(err, room.ErrGameNotStarted):
		c.JSON(http.StatusConflict, gin.H{"error": "Game not started", "code": "not_started"})
	case errors.Is(err, game.ErrGameOver):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "game_over"})
	case errors.Is(err, game.ErrConcurrentModification):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "conflict"})
	case errors.Is(err, game.ErrIllegalMove):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "illegal_move"})
	case errors.Is(err, game.ErrInsufficientCards):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "insufficient_cards"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error", "code": "internal"})
	}
}

// requestIdentity pulls the authenticated player and room from the context.
func requestIdentity(c *gin.Context) (playerID, roomID string) {
	return c.GetString("player_id"), c.GetString("room_id")
}
