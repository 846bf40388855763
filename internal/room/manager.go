package room

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/playfishing/backend/internal/config"
	"github.com/playfishing/backend/internal/game"
	"github.com/redis/go-redis/v9"
)

// ErrGameNotStarted is returned when a snapshot is requested before the host
// has started the game.
var ErrGameNotStarted = errors.New("game not started")

// Room holds one game room: its player directory and the canonical game
// state. The mutex serializes the read-validate-compute-publish cycle; a
// room processes at most one transition at a time.
type Room struct {
	ID           string        `json:"id"`
	Code         string        `json:"code"`
	HostID       string        `json:"host_id"`
	Players      []game.Player `json:"players"`
	State        *game.GameState `json:"state"`
	CreatedAt    time.Time     `json:"created_at"`
	LastActivity time.Time     `json:"last_activity"`

	mu sync.Mutex
}

// RoomManager owns every active room and is the only writer of canonical
// game state. UI layers never hold a mutable copy.
type RoomManager struct {
	rooms  map[string]*Room  // room ID -> room
	codes  map[string]string // join code -> room ID
	rdb    *redis.Client     // snapshot cache + cross-process events
	db     *sqlx.DB          // persistent records
	config *config.Config
	rng    game.Rand
	mu     sync.RWMutex
}

// Manager is the global room manager instance.
var Manager *RoomManager

// InitializeManager initializes the global room manager with Redis, DB and
// config and starts the background expiry checker.
func InitializeManager(db *sqlx.DB, rdb *redis.Client, cfg *config.Config) {
	Manager = NewRoomManager(db, rdb, cfg)
	go Manager.StartExpiryChecker()
}

// NewRoomManager creates a new room manager.
func NewRoomManager(db *sqlx.DB, rdb *redis.Client, cfg *config.Config) *RoomManager {
	return &RoomManager{
		rooms:  make(map[string]*Room),
		codes:  make(map[string]string),
		rdb:    rdb,
		db:     db,
		config: cfg,
		rng:    game.NewRand(),
	}
}

// SetRand overrides the random source. Used by tests for deterministic
// shuffles and starting players.
func (m *RoomManager) SetRand(rng game.Rand) {
	m.rng = rng
}

// generateToken generates a secure random hex token
func generateToken(length int) string {
	bytes := make([]byte, length)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// generateRoomID generates a unique room ID
func generateRoomID() string {
	return "room_" + generateToken(8)
}

// generatePlayerID generates a unique player ID
func generatePlayerID() string {
	return "p_" + generateToken(6)
}

// generateRoomCode generates a short join code players type in
func generateRoomCode(length int) string {
	const charset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	result := make([]byte, length)
	for i := range result {
		n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		result[i] = charset[n.Int64()]
	}
	return string(result)
}

// CreateRoom creates a room with the given host as its first player.
func (m *RoomManager) CreateRoom(hostName string) (*Room, game.Player, error) {
	hostName = strings.TrimSpace(hostName)
	if hostName == "" || len(hostName) > 50 {
		return nil, game.Player{}, fmt.Errorf("invalid player name")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	code := generateRoomCode(m.config.RoomCodeLength)
	for _, taken := m.codes[code]; taken; _, taken = m.codes[code] {
		code = generateRoomCode(m.config.RoomCodeLength)
	}

	host := game.Player{
		ID:       generatePlayerID(),
		Name:     hostName,
		JoinedAt: time.Now().UTC(),
	}
	r := &Room{
		ID:           generateRoomID(),
		Code:         code,
		HostID:       host.ID,
		Players:      []game.Player{host},
		CreatedAt:    time.Now(),
		LastActivity: time.Now(),
	}
	m.rooms[r.ID] = r
	m.codes[r.Code] = r.ID

	log.Printf("[ROOM] Room created: %s (code=%s, host=%s)", r.ID, r.Code, host.ID)

	m.saveRoomToRedis(r)
	m.recordRoom(r, host)
	return r, host, nil
}

// JoinRoom adds a player to the room with the given join code. Player order
// is fixed by join time and drives turn rotation; joins are rejected once a
// game is in progress.
func (m *RoomManager) JoinRoom(code, name string) (*Room, game.Player, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 50 {
		return nil, game.Player{}, fmt.Errorf("invalid player name")
	}
	code = strings.ToUpper(strings.TrimSpace(code))

	m.mu.RLock()
	roomID, ok := m.codes[code]
	m.mu.RUnlock()
	if !ok {
		// Not in memory, try Redis (another process may own it).
		id, err := m.lookupCodeInRedis(code)
		if err != nil {
			return nil, game.Player{}, game.ErrRoomNotFound
		}
		roomID = id
	}

	r, err := m.GetRoom(roomID)
	if err != nil {
		return nil, game.Player{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.State != nil && !r.State.GameOver {
		return nil, game.Player{}, fmt.Errorf("%w: game already in progress", game.ErrIllegalMove)
	}
	if len(r.Players) >= m.config.MaxPlayersPerRoom {
		return nil, game.Player{}, fmt.Errorf("%w: room is full", game.ErrIllegalMove)
	}

	p := game.Player{
		ID:       generatePlayerID(),
		Name:     name,
		JoinedAt: time.Now().UTC(),
	}
	r.Players = append(r.Players, p)
	r.LastActivity = time.Now()

	log.Printf("[ROOM] Player %s (%s) joined room %s", p.ID, p.Name, r.ID)

	m.saveRoomToRedis(r)
	m.recordRoom(r, p)
	return r, p, nil
}

// GetRoom retrieves a room by ID, falling back to Redis for rooms created by
// another process or evicted from memory.
func (m *RoomManager) GetRoom(roomID string) (*Room, error) {
	m.mu.RLock()
	r, exists := m.rooms[roomID]
	m.mu.RUnlock()
	if exists {
		return r, nil
	}

	r, err := m.loadRoomFromRedis(roomID)
	if err != nil {
		return nil, game.ErrRoomNotFound
	}

	m.mu.Lock()
	// Another goroutine may have loaded it in the meantime.
	if cur, exists := m.rooms[roomID]; exists {
		m.mu.Unlock()
		return cur, nil
	}
	m.rooms[roomID] = r
	m.codes[r.Code] = r.ID
	m.mu.Unlock()
	return r, nil
}

// GetState returns the most recently published snapshot for the room.
func (m *RoomManager) GetState(roomID string) (*game.GameState, error) {
	r, err := m.GetRoom(roomID)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.State == nil {
		return nil, ErrGameNotStarted
	}
	return r.State, nil
}

// ListPlayers returns the room's players in join order.
func (m *RoomManager) ListPlayers(roomID string) ([]game.Player, error) {
	r, err := m.GetRoom(roomID)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	players := make([]game.Player, len(r.Players))
	copy(players, r.Players)
	return players, nil
}

// HasPlayer reports whether the given player belongs to the room.
func (m *RoomManager) HasPlayer(roomID, playerID string) bool {
	players, err := m.ListPlayers(roomID)
	if err != nil {
		return false
	}
	for _, p := range players {
		if p.ID == playerID {
			return true
		}
	}
	return false
}

// StartGame deals a fresh game. Only the host may start; calling it again
// while a game is live returns the current snapshot unchanged, and a
// finished game may be restarted.
func (m *RoomManager) StartGame(roomID, playerID string) (*game.GameState, error) {
	r, err := m.GetRoom(roomID)
	if err != nil {
		return nil, err
	}

	if !r.mu.TryLock() {
		return nil, game.ErrConcurrentModification
	}
	defer r.mu.Unlock()

	if r.State != nil && !r.State.GameOver {
		return r.State, nil
	}
	if playerID != r.HostID {
		return nil, fmt.Errorf("%w: only the host can start the game", game.ErrIllegalMove)
	}

	st, err := game.NewGame(r.Players, m.config.CardsPerPlayer, m.rng)
	if err != nil {
		return nil, err
	}
	// Seats were reordered nowhere; mirror the turn flags back onto the
	// room's directory copy.
	r.Players = append([]game.Player(nil), st.Players...)

	m.publish(r, st, playerID, "start", map[string]interface{}{
		"cards_per_player": m.config.CardsPerPlayer,
	})
	log.Printf("[ROOM] Game started in room %s (%d players, starting=%s)", r.ID, len(st.Players), st.CurrentPlayerID())
	return st, nil
}

// SubmitAsk validates and applies an ask transition against the latest
// published snapshot. version is the snapshot version the client computed
// its move against; a stale version is either recognized as a duplicate of
// the already-applied move (a no-op returning the current snapshot) or
// rejected.
func (m *RoomManager) SubmitAsk(roomID, playerID, targetID string, rank game.Rank, version int) (*game.GameState, error) {
	r, err := m.GetRoom(roomID)
	if err != nil {
		return nil, err
	}

	if !r.mu.TryLock() {
		return nil, game.ErrConcurrentModification
	}
	defer r.mu.Unlock()

	st := r.State
	if st == nil {
		return nil, ErrGameNotStarted
	}
	if version != st.Version {
		if isDuplicateAsk(st, playerID, targetID, rank, version) {
			log.Printf("[ROOM] Duplicate ask from %s in room %s ignored (version %d)", playerID, r.ID, version)
			return st, nil
		}
		return nil, game.ErrConcurrentModification
	}

	next, err := game.Ask(st, playerID, targetID, rank)
	if err != nil {
		return nil, err
	}

	m.publish(r, next, playerID, "ask", map[string]interface{}{
		"target": targetID,
		"rank":   rank,
	})
	return next, nil
}

// SubmitGuess validates and applies a suit guess for the pending ask.
func (m *RoomManager) SubmitGuess(roomID, playerID string, suits []game.Suit, version int) (*game.GameState, error) {
	r, err := m.GetRoom(roomID)
	if err != nil {
		return nil, err
	}

	if !r.mu.TryLock() {
		return nil, game.ErrConcurrentModification
	}
	defer r.mu.Unlock()

	st := r.State
	if st == nil {
		return nil, ErrGameNotStarted
	}
	if version != st.Version {
		if isDuplicateGuess(st, playerID, suits, version) {
			log.Printf("[ROOM] Duplicate guess from %s in room %s ignored (version %d)", playerID, r.ID, version)
			return st, nil
		}
		return nil, game.ErrConcurrentModification
	}

	next, err := game.Guess(st, playerID, suits)
	if err != nil {
		return nil, err
	}

	m.publish(r, next, playerID, "guess", map[string]interface{}{
		"suits": suits,
	})
	return next, nil
}

// isDuplicateAsk reports whether a stale ask submission is the one already
// reflected in the current snapshot: same actor, target and rank, submitted
// against the immediately preceding version. Covers all three ask outcomes:
// a pending currentAsk or a resolved lastMove without guessed suits.
func isDuplicateAsk(st *game.GameState, playerID, targetID string, rank game.Rank, version int) bool {
	if version != st.Version-1 {
		return false
	}
	if ask := st.CurrentAsk; ask != nil {
		return ask.AskingPlayerID == playerID && ask.TargetPlayerID == targetID && ask.RequestedRank == rank
	}
	if mv := st.LastMove; mv != nil && mv.GuessedSuits == nil {
		return mv.PlayerID == playerID && mv.TargetPlayerID == targetID && mv.RequestedRank == rank
	}
	return false
}

// isDuplicateGuess reports whether a stale guess submission matches the
// guess already resolved into lastMove.
func isDuplicateGuess(st *game.GameState, playerID string, suits []game.Suit, version int) bool {
	if version != st.Version-1 || st.Phase != game.PhaseAsking {
		return false
	}
	mv := st.LastMove
	if mv == nil || mv.GuessedSuits == nil || mv.PlayerID != playerID {
		return false
	}
	return sameSuitSet(mv.GuessedSuits, suits)
}

// sameSuitSet compares two suit lists as sets.
func sameSuitSet(a, b []game.Suit) bool {
	in := func(s game.Suit, list []game.Suit) bool {
		for _, v := range list {
			if v == s {
				return true
			}
		}
		return false
	}
	for _, s := range a {
		if !in(s, b) {
			return false
		}
	}
	for _, s := range b {
		if !in(s, a) {
			return false
		}
	}
	return true
}

// RemoveRoom removes a room from the manager.
func (m *RoomManager) RemoveRoom(roomID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, exists := m.rooms[roomID]; exists {
		delete(m.codes, r.Code)
		delete(m.rooms, roomID)
	}
}

// GetActiveRoomCount returns the number of rooms held in memory.
func (m *RoomManager) GetActiveRoomCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

// StartExpiryChecker runs a background job removing rooms idle past the
// configured expiry.
func (m *RoomManager) StartExpiryChecker() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		m.expireIdleRooms()
	}
}

func (m *RoomManager) expireIdleRooms() {
	maxIdle := time.Duration(m.config.RoomExpiryMinutes) * time.Minute
	cutoff := time.Now().Add(-maxIdle)

	m.mu.Lock()
	var expired []*Room
	for id, r := range m.rooms {
		if r.LastActivity.Before(cutoff) {
			expired = append(expired, r)
			delete(m.codes, r.Code)
			delete(m.rooms, id)
		}
	}
	m.mu.Unlock()

	for _, r := range expired {
		log.Printf("[ROOM] Room %s expired after %s idle", r.ID, maxIdle)
		m.deleteRoomFromRedis(r)
	}
}
