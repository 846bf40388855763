package handlers

import (
	"log"
	"net"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/playfishing/backend/internal/admin"
	"github.com/playfishing/backend/internal/room"
)

// AdminAuthMiddleware validates admin credentials from the Authorization
// header (Bearer username:token) against the bcrypt hash in the database, and
// enforces the account's IP allowlist when one is set.
func AdminAuthMiddleware(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing admin credentials"})
			c.Abort()
			return
		}

		parts := strings.SplitN(strings.TrimPrefix(header, "Bearer "), ":", 2)
		if len(parts) != 2 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Malformed admin credentials"})
			c.Abort()
			return
		}
		username, token := parts[0], parts[1]

		acc, err := admin.GetAdminAccount(db, username)
		if err != nil {
			log.Printf("[ADMIN] Unknown admin account %s: %v", username, err)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			c.Abort()
			return
		}

		if !admin.VerifyAdminToken(acc.TokenHash, token) {
			admin.LogAdminAction(db, username, c.ClientIP(), c.FullPath(), "auth", nil, false)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			c.Abort()
			return
		}

		if len(acc.AllowedIPs) > 0 && !ipAllowed(c.ClientIP(), acc.AllowedIPs) {
			admin.LogAdminAction(db, username, c.ClientIP(), c.FullPath(), "auth_ip_denied", nil, false)
			c.JSON(http.StatusForbidden, gin.H{"error": "IP not allowed"})
			c.Abort()
			return
		}

		c.Set("admin_username", username)
		c.Next()
	}
}

func ipAllowed(clientIP string, allowed []string) bool {
	ip := net.ParseIP(clientIP)
	for _, entry := range allowed {
		if entry == clientIP {
			return true
		}
		if _, cidr, err := net.ParseCIDR(entry); err == nil && ip != nil && cidr.Contains(ip) {
			return true
		}
	}
	return false
}

// AdminStats returns service counters for the ops dashboard.
func AdminStats(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats := gin.H{
			"active_rooms": room.Manager.GetActiveRoomCount(),
		}

		if db != nil {
			var totalRooms, totalMoves, totalSnapshots int
			if err := db.Get(&totalRooms, `SELECT COUNT(*) FROM rooms`); err == nil {
				stats["total_rooms"] = totalRooms
			}
			if err := db.Get(&totalMoves, `SELECT COUNT(*) FROM game_moves`); err == nil {
				stats["total_moves"] = totalMoves
			}
			if err := db.Get(&totalSnapshots, `SELECT COUNT(*) FROM game_snapshots`); err == nil {
				stats["total_snapshots"] = totalSnapshots
			}
		}

		admin.LogAdminAction(db, c.GetString("admin_username"), c.ClientIP(), c.FullPath(), "stats", nil, true)
		c.JSON(http.StatusOK, stats)
	}
}

// AdminRemoveRoom force-removes a room from the manager.
func AdminRemoveRoom(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID := c.Param("id")
		room.Manager.RemoveRoom(roomID)
		admin.LogAdminAction(db, c.GetString("admin_username"), c.ClientIP(), c.FullPath(), "remove_room",
			map[string]interface{}{"room_id": roomID}, true)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
