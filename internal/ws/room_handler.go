package ws

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/playfishing/backend/internal/game"
	"github.com/playfishing/backend/internal/room"
)

// Inbound message data types
type AskData struct {
	TargetPlayerID string    `json:"targetPlayerId"`
	Rank           game.Rank `json:"rank"`
	Version        int       `json:"version"`
}

type GuessData struct {
	Suits   []game.Suit `json:"suits"`
	Version int         `json:"version"`
}

// GameHub is the single hub for all rooms.
var GameHub *Hub

func init() {
	GameHub = NewHub()
	go runGameHub(GameHub)
}

// Authenticator resolves a session token to (playerID, roomID). Wired to the
// JWT parser by the API layer so this package does not depend on it.
type Authenticator func(token string) (playerID, roomID string, err error)

var authenticate Authenticator

// SetAuthenticator installs the session token validator.
func SetAuthenticator(fn Authenticator) {
	authenticate = fn
}

// HandleWebSocket upgrades a room WebSocket connection. The session token is
// passed as a query parameter since browsers cannot set headers on upgrade
// requests.
func HandleWebSocket(c *gin.Context) {
	roomID := c.Param("id")
	token := c.Query("token")

	if roomID == "" || token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "room id and token required"})
		return
	}
	if authenticate == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "authenticator not configured"})
		return
	}

	playerID, tokenRoomID, err := authenticate(token)
	if err != nil || tokenRoomID != roomID {
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid session token"})
		return
	}
	if !room.Manager.HasPlayer(roomID, playerID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WS] Upgrade error: %v", err)
		return
	}

	client := &Client{
		conn:     conn,
		playerID: playerID,
		roomID:   roomID,
		send:     make(chan []byte, 256),
	}

	GameHub.register <- client

	go client.writePump()
	go client.readPump()
}

// runGameHub runs the hub's register/unregister loop.
func runGameHub(h *Hub) {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()

			if oldClient, exists := h.clients[client.playerID]; exists {
				log.Printf("[WS] Player %s reconnecting - closing old connection", client.playerID)
				if err := oldClient.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "replaced by new connection"), time.Now().Add(5*time.Second)); err != nil {
					log.Printf("Error writing close control to old client %s: %v", oldClient.playerID, err)
				}
				oldClient.conn.Close()
				select {
				case <-oldClient.send:
				default:
					close(oldClient.send)
				}
				delete(h.clients, client.playerID)
				if r, exists := h.roomClients[oldClient.roomID]; exists {
					delete(r, client.playerID)
				}
			}

			h.clients[client.playerID] = client
			if _, exists := h.roomClients[client.roomID]; !exists {
				h.roomClients[client.roomID] = make(map[string]*Client)
			}
			h.roomClients[client.roomID][client.playerID] = client
			h.mu.Unlock()

			log.Printf("[WS] Player %s connected to room %s", client.playerID, client.roomID)

			// Catch the client up: latest snapshot if a game is live,
			// otherwise the current roster.
			if st, err := room.Manager.GetState(client.roomID); err == nil {
				h.SendToPlayer(client.playerID, gin.H{"type": "game_state", "state": st})
			} else if players, perr := room.Manager.ListPlayers(client.roomID); perr == nil {
				h.BroadcastToRoom(client.roomID, gin.H{"type": "room_players", "players": players})
			}

		case client := <-h.unregister:
			h.mu.Lock()
			if cur, ok := h.clients[client.playerID]; ok && cur == client {
				delete(h.clients, client.playerID)
				if r, exists := h.roomClients[client.roomID]; exists {
					delete(r, client.playerID)
					if len(r) == 0 {
						delete(h.roomClients, client.roomID)
					}
				}
				close(client.send)
				log.Printf("[WS] Player %s disconnected from room %s", client.playerID, client.roomID)
			}
			h.mu.Unlock()
		}
	}
}

// readPump reads and dispatches messages from the WebSocket connection
func (c *Client) readPump() {
	defer func() {
		GameHub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[WS] Read error for player %s: %v", c.playerID, err)
			}
			return
		}

		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.sendError("bad_request", "invalid message format")
			continue
		}
		c.dispatch(msg)
	}
}

// dispatch routes one inbound message to the room manager.
func (c *Client) dispatch(msg WSMessage) {
	switch msg.Type {
	case "start_game":
		st, err := room.Manager.StartGame(c.roomID, c.playerID)
		if err != nil {
			c.sendError(errorCode(err), err.Error())
			return
		}
		NotifyRoomState(c.roomID, st)

	case "ask":
		var data AskData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("bad_request", "invalid ask payload")
			return
		}
		st, err := room.Manager.SubmitAsk(c.roomID, c.playerID, data.TargetPlayerID, data.Rank, data.Version)
		if err != nil {
			c.sendError(errorCode(err), err.Error())
			return
		}
		NotifyRoomState(c.roomID, st)

	case "guess":
		var data GuessData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("bad_request", "invalid guess payload")
			return
		}
		st, err := room.Manager.SubmitGuess(c.roomID, c.playerID, data.Suits, data.Version)
		if err != nil {
			c.sendError(errorCode(err), err.Error())
			return
		}
		NotifyRoomState(c.roomID, st)

	case "sync":
		st, err := room.Manager.GetState(c.roomID)
		if err != nil {
			c.sendError(errorCode(err), err.Error())
			return
		}
		GameHub.SendToPlayer(c.playerID, gin.H{"type": "game_state", "state": st})

	default:
		c.sendError("bad_request", "unknown message type: "+msg.Type)
	}
}

// NotifyRoomState broadcasts a published snapshot directly when no Redis
// replication is configured. With Redis, the room_events subscriber delivers
// it exactly once per process instead. The HTTP handlers call this too so
// REST-submitted moves still reach connected sockets.
func NotifyRoomState(roomID string, st *game.GameState) {
	if rdbClient != nil {
		return
	}
	GameHub.BroadcastToRoom(roomID, gin.H{"type": "game_state", "state": st})
	if st.GameOver {
		GameHub.BroadcastToRoom(roomID, gin.H{"type": "game_over", "winner": st.Winner, "scores": st.PlayerScores})
	}
}

// errorCode maps engine errors to wire error codes.
func errorCode(err error) string {
	switch {
	case errors.Is(err, game.ErrIllegalMove):
		return "illegal_move"
	case errors.Is(err, game.ErrGameOver):
		return "game_over"
	case errors.Is(err, game.ErrConcurrentModification):
		return "conflict"
	case errors.Is(err, game.ErrRoomNotFound):
		return "room_not_found"
	case errors.Is(err, room.ErrGameNotStarted):
		return "not_started"
	}
	return "internal"
}
