package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/playfishing/backend/internal/config"
)

// SessionClaims is the JWT payload issued to a player on room create/join.
// The token is scoped to a single room; moving to another room means joining
// again and getting a fresh token.
type SessionClaims struct {
	PlayerID string `json:"player_id"`
	RoomID   string `json:"room_id"`
	jwt.RegisteredClaims
}

// IssueSessionToken creates a signed session token for a player in a room
func IssueSessionToken(cfg *config.Config, playerID, roomID string) (string, error) {
	claims := SessionClaims{
		PlayerID: playerID,
		RoomID:   roomID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Duration(cfg.SessionTimeoutMin) * time.Minute)),
			Issuer:    "playfishing",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWTSecret))
}

// ParseSessionToken validates a session token and returns its claims
func ParseSessionToken(cfg *config.Config, tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid session token")
	}
	return claims, nil
}

// AuthMiddleware validates the Bearer session token and stores the player and
// room identity on the request context.
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing session token"})
			c.Abort()
			return
		}

		claims, err := ParseSessionToken(cfg, strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session token"})
			c.Abort()
			return
		}

		// Tokens are room-scoped: the path's room must match the token's.
		if roomID := c.Param("id"); roomID != "" && roomID != claims.RoomID {
			c.JSON(http.StatusForbidden, gin.H{"error": "Token not valid for this room"})
			c.Abort()
			return
		}

		c.Set("player_id", claims.PlayerID)
		c.Set("room_id", claims.RoomID)
		c.Next()
	}
}
