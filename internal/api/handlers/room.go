package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/playfishing/backend/internal/config"
	"github.com/playfishing/backend/internal/room"
)

// CreateRoom creates a new room with the caller as host and returns the room,
// the host's player record and a room-scoped session token.
func CreateRoom(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Name string `json:"name" binding:"required"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Player name required"})
			return
		}

		r, host, err := room.Manager.CreateRoom(req.Name)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		token, err := IssueSessionToken(cfg, host.ID, r.ID)
		if err != nil {
			log.Printf("[API] Failed to issue session token for %s: %v", host.ID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"roomId":   r.ID,
			"code":     r.Code,
			"playerId": host.ID,
			"hostId":   r.HostID,
			"players":  r.Players,
			"token":    token,
		})
	}
}

// JoinRoom adds the caller to a room by join code.
func JoinRoom(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Code string `json:"code" binding:"required"`
			Name string `json:"name" binding:"required"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Join code and player name required"})
			return
		}

		r, p, err := room.Manager.JoinRoom(req.Code, req.Name)
		if err != nil {
			writeGameError(c, err)
			return
		}

		token, err := IssueSessionToken(cfg, p.ID, r.ID)
		if err != nil {
			log.Printf("[API] Failed to issue session token for %s: %v", p.ID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"roomId":   r.ID,
			"code":     r.Code,
			"playerId": p.ID,
			"hostId":   r.HostID,
			"players":  r.Players,
			"token":    token,
		})
	}
}

// GetRoomInfo returns the room's player roster and whether a game is live.
func GetRoomInfo() gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID := c.Param("id")

		r, err := room.Manager.GetRoom(roomID)
		if err != nil {
			writeGameError(c, err)
			return
		}

		players, err := room.Manager.ListPlayers(roomID)
		if err != nil {
			writeGameError(c, err)
			return
		}

		started := false
		if st, err := room.Manager.GetState(roomID); err == nil {
			started = !st.GameOver
		}

		c.JSON(http.StatusOK, gin.H{
			"roomId":  r.ID,
			"code":    r.Code,
			"hostId":  r.HostID,
			"players": players,
			"started": started,
		})
	}
}
