package ws

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/playfishing/backend/internal/room"
	"github.com/redis/go-redis/v9"
)

var rdbClient *redis.Client

// SetRedisClient installs the Redis client used for cross-process fan-out.
func SetRedisClient(rdb *redis.Client) {
	rdbClient = rdb
}

// StartRoomEventSubscriber consumes published snapshots from the room_events
// channel and forwards them to the connected clients of each room. With more
// than one server process behind a load balancer, this is what gets a
// snapshot published on one process to players connected to another.
func StartRoomEventSubscriber(ctx context.Context) {
	if rdbClient == nil {
		log.Printf("[WS] No Redis client, room event subscriber disabled")
		return
	}

	go func() {
		for {
			pubsub := rdbClient.Subscribe(ctx, room.EventsChannel)
			ch := pubsub.Channel()
			log.Printf("[WS] Subscribed to %s", room.EventsChannel)

			for msg := range ch {
				var ev room.StateEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					log.Printf("[WS] Bad room event payload: %v", err)
					continue
				}
				if ev.Type != "state_published" {
					continue
				}
				out, err := json.Marshal(map[string]interface{}{
					"type":  "game_state",
					"state": ev.State,
				})
				if err != nil {
					log.Printf("[WS] Failed to marshal game_state event: %v", err)
					continue
				}
				GameHub.BroadcastRawToRoom(ev.RoomID, out)

				var terminal struct {
					GameOver bool           `json:"gameOver"`
					Winner   *string        `json:"winner"`
					Scores   map[string]int `json:"playerScores"`
				}
				if err := json.Unmarshal(ev.State, &terminal); err == nil && terminal.GameOver {
					GameHub.BroadcastToRoom(ev.RoomID, map[string]interface{}{
						"type":   "game_over",
						"winner": terminal.Winner,
						"scores": terminal.Scores,
					})
				}
			}

			pubsub.Close()
			select {
			case <-ctx.Done():
				return
			default:
				log.Printf("[WS] Room event subscription dropped, reconnecting")
				time.Sleep(time.Second)
			}
		}
	}()
}
