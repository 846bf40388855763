package room

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/playfishing/backend/internal/game"
	"github.com/redis/go-redis/v9"
)

// EventsChannel is the Redis pub/sub channel carrying published snapshots to
// every process's WebSocket layer.
const EventsChannel = "room_events"

// StateEvent is the payload published on EventsChannel after every accepted
// transition.
type StateEvent struct {
	Type    string          `json:"type"`
	RoomID  string          `json:"room_id"`
	Version int             `json:"version"`
	State   json.RawMessage `json:"state"`
}

// publish installs the new snapshot as the room's canonical state and fans
// it out: Redis snapshot cache, persistent records, pub/sub event. The
// in-memory swap is the atomicity point; everything downstream is
// best-effort replication. Callers must hold the room's mutex.
func (m *RoomManager) publish(r *Room, st *game.GameState, playerID, moveType string, payload map[string]interface{}) {
	if err := st.CheckInvariants(); err != nil {
		// A conservation failure is a bug in a transition, not a bad
		// move. Log it loudly and keep serving; tests assert on the
		// same check.
		log.Printf("[ROOM] INTEGRITY VIOLATION in room %s after %s: %v", r.ID, moveType, err)
	}

	r.State = st
	r.LastActivity = time.Now()

	m.saveRoomToRedis(r)
	m.recordSnapshot(r, st, playerID, moveType, payload)

	if m.rdb == nil {
		return
	}
	data, err := json.Marshal(st)
	if err != nil {
		log.Printf("[ROOM] Failed to marshal snapshot for room %s: %v", r.ID, err)
		return
	}
	ev := StateEvent{Type: "state_published", RoomID: r.ID, Version: st.Version, State: data}
	b, err := json.Marshal(ev)
	if err != nil {
		log.Printf("[ROOM] Failed to marshal state event for room %s: %v", r.ID, err)
		return
	}
	if err := m.rdb.Publish(context.Background(), EventsChannel, b).Err(); err != nil {
		log.Printf("[ROOM] Publish state event failed for room %s: %v", r.ID, err)
	}
}

// saveRoomToRedis persists the room (players + snapshot) to Redis with a TTL
func (m *RoomManager) saveRoomToRedis(r *Room) {
	if m.rdb == nil {
		return
	}

	ctx := context.Background()
	data, err := json.Marshal(r)
	if err != nil {
		log.Printf("[ROOM] Failed to marshal room %s: %v", r.ID, err)
		return
	}

	ttl := time.Duration(m.config.SnapshotTTLMinutes) * time.Minute
	if err := m.rdb.SetEx(ctx, "room:"+r.ID, data, ttl).Err(); err != nil {
		log.Printf("[ROOM] Failed to save room %s to Redis: %v", r.ID, err)
		return
	}
	if err := m.rdb.SetEx(ctx, "room_code:"+r.Code, r.ID, ttl).Err(); err != nil {
		log.Printf("[ROOM] Failed to save room code %s to Redis: %v", r.Code, err)
	}
}

// loadRoomFromRedis restores a room from Redis
func (m *RoomManager) loadRoomFromRedis(roomID string) (*Room, error) {
	if m.rdb == nil {
		return nil, errors.New("no redis client")
	}

	ctx := context.Background()
	data, err := m.rdb.Get(ctx, "room:"+roomID).Result()
	if err == redis.Nil {
		return nil, errors.New("room not found in redis")
	}
	if err != nil {
		return nil, err
	}

	var r Room
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		return nil, err
	}
	r.LastActivity = time.Now()

	log.Printf("[ROOM] Loaded room %s from Redis", roomID)
	return &r, nil
}

// lookupCodeInRedis resolves a join code to a room ID
func (m *RoomManager) lookupCodeInRedis(code string) (string, error) {
	if m.rdb == nil {
		return "", errors.New("no redis client")
	}
	id, err := m.rdb.Get(context.Background(), "room_code:"+code).Result()
	if err != nil {
		return "", err
	}
	return id, nil
}

func (m *RoomManager) deleteRoomFromRedis(r *Room) {
	if m.rdb == nil {
		return
	}
	ctx := context.Background()
	m.rdb.Del(ctx, "room:"+r.ID)
	m.rdb.Del(ctx, "room_code:"+r.Code)
}

// recordRoom upserts the room row and inserts the joining player. Best-effort
// bookkeeping; gameplay never depends on the DB.
func (m *RoomManager) recordRoom(r *Room, p game.Player) {
	if m.db == nil {
		return
	}

	if _, err := m.db.Exec(`INSERT INTO rooms (id, code, host_player_id, created_at, last_activity) VALUES ($1,$2,$3,$4,NOW())
		ON CONFLICT (id) DO UPDATE SET last_activity=NOW()`,
		r.ID, r.Code, r.HostID, r.CreatedAt); err != nil {
		log.Printf("[DB] Failed to upsert room %s: %v", r.ID, err)
		return
	}
	if _, err := m.db.Exec(`INSERT INTO room_players (room_id, player_id, name, seat, joined_at) VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (room_id, player_id) DO NOTHING`,
		r.ID, p.ID, p.Name, len(r.Players)-1, p.JoinedAt); err != nil {
		log.Printf("[DB] Failed to insert room player %s/%s: %v", r.ID, p.ID, err)
	}
}

// recordSnapshot persists the snapshot and its originating move.
func (m *RoomManager) recordSnapshot(r *Room, st *game.GameState, playerID, moveType string, payload map[string]interface{}) {
	if m.db == nil {
		return
	}

	data, err := json.Marshal(st)
	if err != nil {
		log.Printf("[DB] Failed to marshal snapshot for room %s: %v", r.ID, err)
		return
	}
	if _, err := m.db.Exec(`INSERT INTO game_snapshots (room_id, version, state, created_at) VALUES ($1,$2,$3::jsonb,NOW())`,
		r.ID, st.Version, string(data)); err != nil {
		log.Printf("[DB] Failed to insert game_snapshot for room %s v%d: %v", r.ID, st.Version, err)
	}

	pl, err := json.Marshal(payload)
	if err != nil {
		pl = []byte("{}")
	}
	if _, err := m.db.Exec(`INSERT INTO game_moves (room_id, move_number, player_id, move_type, payload, created_at) VALUES ($1,$2,$3,$4,$5::jsonb,NOW())`,
		r.ID, st.Version, playerID, moveType, string(pl)); err != nil {
		log.Printf("[DB] Failed to insert game_move for room %s v%d: %v", r.ID, st.Version, err)
	}
}
