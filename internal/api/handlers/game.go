package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/playfishing/backend/internal/game"
	"github.com/playfishing/backend/internal/room"
	"github.com/playfishing/backend/internal/ws"
)

// GetGameState returns the latest published snapshot for the room.
func GetGameState() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, roomID := requestIdentity(c)

		st, err := room.Manager.GetState(roomID)
		if err != nil {
			writeGameError(c, err)
			return
		}
		c.JSON(http.StatusOK, st)
	}
}

// StartGame deals a fresh game. Host only; repeated calls while a game is
// live return the current snapshot.
func StartGame() gin.HandlerFunc {
	return func(c *gin.Context) {
		playerID, roomID := requestIdentity(c)

		st, err := room.Manager.StartGame(roomID, playerID)
		if err != nil {
			writeGameError(c, err)
			return
		}
		ws.NotifyRoomState(roomID, st)
		c.JSON(http.StatusOK, st)
	}
}

// SubmitAsk applies an ask move for the authenticated player.
func SubmitAsk() gin.HandlerFunc {
	return func(c *gin.Context) {
		playerID, roomID := requestIdentity(c)

		var req struct {
			TargetPlayerID string    `json:"targetPlayerId" binding:"required"`
			Rank           game.Rank `json:"rank" binding:"required"`
			Version        int       `json:"version" binding:"required"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "targetPlayerId, rank and version required"})
			return
		}

		st, err := room.Manager.SubmitAsk(roomID, playerID, req.TargetPlayerID, req.Rank, req.Version)
		if err != nil {
			writeGameError(c, err)
			return
		}
		ws.NotifyRoomState(roomID, st)
		c.JSON(http.StatusOK, st)
	}
}

// SubmitGuess applies a suit guess for the pending ask.
func SubmitGuess() gin.HandlerFunc {
	return func(c *gin.Context) {
		playerID, roomID := requestIdentity(c)

		var req struct {
			Suits   []game.Suit `json:"suits" binding:"required"`
			Version int         `json:"version" binding:"required"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "suits and version required"})
			return
		}

		st, err := room.Manager.SubmitGuess(roomID, playerID, req.Suits, req.Version)
		if err != nil {
			writeGameError(c, err)
			return
		}
		ws.NotifyRoomState(roomID, st)
		c.JSON(http.StatusOK, st)
	}
}
