package models

import (
	"database/sql"
	"time"
)

// Room is the persistent record of a game room
type Room struct {
	ID           string       `db:"id" json:"id"`
	Code         string       `db:"code" json:"code"`
	HostPlayerID string       `db:"host_player_id" json:"host_player_id"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	LastActivity sql.NullTime `db:"last_activity" json:"last_activity,omitempty"`
}

// RoomPlayer is a seat in a room, ordered by join time
type RoomPlayer struct {
	ID       int       `db:"id" json:"id"`
	RoomID   string    `db:"room_id" json:"room_id"`
	PlayerID string    `db:"player_id" json:"player_id"`
	Name     string    `db:"name" json:"name"`
	Seat     int       `db:"seat" json:"seat"`
	JoinedAt time.Time `db:"joined_at" json:"joined_at"`
}

// GameSnapshot is one published authoritative state, keyed by version
type GameSnapshot struct {
	ID        int       `db:"id" json:"id"`
	RoomID    string    `db:"room_id" json:"room_id"`
	Version   int       `db:"version" json:"version"`
	State     string    `db:"state" json:"state"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// GameMove is the move that produced a snapshot
type GameMove struct {
	ID         int       `db:"id" json:"id"`
	RoomID     string    `db:"room_id" json:"room_id"`
	MoveNumber int       `db:"move_number" json:"move_number"`
	PlayerID   string    `db:"player_id" json:"player_id"`
	MoveType   string    `db:"move_type" json:"move_type"`
	Payload    string    `db:"payload" json:"payload"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// AdminAccount represents an operator account
type AdminAccount struct {
	Username    string         `db:"username" json:"username"`
	DisplayName string         `db:"display_name" json:"display_name"`
	TokenHash   string         `db:"token_hash" json:"-"`
	Roles       []string       `db:"roles" json:"roles"`
	AllowedIPs  []string       `db:"allowed_ips" json:"allowed_ips"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   sql.NullTime   `db:"updated_at" json:"updated_at,omitempty"`
}

// AdminAuditLog records an admin action
type AdminAuditLog struct {
	ID            int       `db:"id" json:"id"`
	AdminUsername string    `db:"admin_username" json:"admin_username"`
	IP            string    `db:"ip" json:"ip"`
	Route         string    `db:"route" json:"route"`
	Action        string    `db:"action" json:"action"`
	Details       string    `db:"details" json:"details"`
	Success       bool      `db:"success" json:"success"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
