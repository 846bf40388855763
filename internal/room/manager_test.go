package room

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/playfishing/backend/internal/config"
	"github.com/playfishing/backend/internal/game"
)

func testConfig() *config.Config {
	return &config.Config{
		Environment:        "test",
		CardsPerPlayer:     5,
		MaxPlayersPerRoom:  4,
		RoomCodeLength:     6,
		RoomExpiryMinutes:  120,
		SnapshotTTLMinutes: 180,
	}
}

// newTestManager builds a manager with no Redis and no DB: persistence is
// best-effort and gameplay must work without either.
func newTestManager(seed int64) *RoomManager {
	m := NewRoomManager(nil, nil, testConfig())
	m.SetRand(rand.New(rand.NewSource(seed)))
	return m
}

func setupStartedGame(t *testing.T, m *RoomManager, playerCount int) (*Room, *game.GameState) {
	t.Helper()

	r, host, err := m.CreateRoom("Alice")
	if err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}
	names := []string{"Bob", "Carol", "Dave"}
	for i := 0; i < playerCount-1; i++ {
		if _, _, err := m.JoinRoom(r.Code, names[i]); err != nil {
			t.Fatalf("JoinRoom failed: %v", err)
		}
	}

	st, err := m.StartGame(r.ID, host.ID)
	if err != nil {
		t.Fatalf("StartGame failed: %v", err)
	}
	return r, st
}

// legalAsk finds a rank the current player can ask for and a target.
func legalAsk(st *game.GameState) (asker, target string, rank game.Rank) {
	asker = st.CurrentPlayerID()
	rank = st.PlayerHands[asker][0].Rank
	for _, p := range st.Players {
		if p.ID != asker {
			return asker, p.ID, rank
		}
	}
	return asker, "", rank
}

func TestCreateAndJoinRoom(t *testing.T) {
	m := newTestManager(1)

	r, host, err := m.CreateRoom("Alice")
	if err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}
	if r.HostID != host.ID {
		t.Errorf("host = %s, want %s", r.HostID, host.ID)
	}
	if len(r.Code) != 6 {
		t.Errorf("code = %q, want 6 characters", r.Code)
	}

	r2, p, err := m.JoinRoom(r.Code, "Bob")
	if err != nil {
		t.Fatalf("JoinRoom failed: %v", err)
	}
	if r2.ID != r.ID {
		t.Errorf("joined room %s, want %s", r2.ID, r.ID)
	}
	if len(r2.Players) != 2 {
		t.Errorf("players = %d, want 2", len(r2.Players))
	}
	if !m.HasPlayer(r.ID, p.ID) {
		t.Errorf("HasPlayer = false for joined player")
	}
}

func TestJoinRoomLowercasesCode(t *testing.T) {
	m := newTestManager(2)
	r, _, err := m.CreateRoom("Alice")
	if err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}
	if _, _, err := m.JoinRoom("  "+lower(r.Code)+" ", "Bob"); err != nil {
		t.Errorf("join with lowercased padded code failed: %v", err)
	}
}

func lower(s string) string {
	out := []byte(s)
	for i, b := range out {
		if b >= 'A' && b <= 'Z' {
			out[i] = b + 32
		}
	}
	return string(out)
}

func TestJoinRoomRejectsBadInput(t *testing.T) {
	m := newTestManager(3)
	r, _, _ := m.CreateRoom("Alice")

	if _, _, err := m.JoinRoom(r.Code, "   "); err == nil {
		t.Errorf("blank name accepted")
	}
	if _, _, err := m.JoinRoom("NOPE99", "Bob"); !errors.Is(err, game.ErrRoomNotFound) {
		t.Errorf("unknown code err = %v, want ErrRoomNotFound", err)
	}
}

func TestJoinRoomRejectsWhenFull(t *testing.T) {
	m := newTestManager(4)
	r, _, _ := m.CreateRoom("Alice")
	for _, name := range []string{"Bob", "Carol", "Dave"} {
		if _, _, err := m.JoinRoom(r.Code, name); err != nil {
			t.Fatalf("JoinRoom %s failed: %v", name, err)
		}
	}
	if _, _, err := m.JoinRoom(r.Code, "Eve"); !errors.Is(err, game.ErrIllegalMove) {
		t.Errorf("join into a full room err = %v, want ErrIllegalMove", err)
	}
}

func TestJoinRoomRejectsWhileGameLive(t *testing.T) {
	m := newTestManager(5)
	r, _ := setupStartedGame(t, m, 2)

	if _, _, err := m.JoinRoom(r.Code, "Carol"); !errors.Is(err, game.ErrIllegalMove) {
		t.Errorf("join into a live game err = %v, want ErrIllegalMove", err)
	}
}

func TestStartGameHostOnly(t *testing.T) {
	m := newTestManager(6)
	r, _, _ := m.CreateRoom("Alice")
	_, bob, err := m.JoinRoom(r.Code, "Bob")
	if err != nil {
		t.Fatalf("JoinRoom failed: %v", err)
	}

	if _, err := m.StartGame(r.ID, bob.ID); !errors.Is(err, game.ErrIllegalMove) {
		t.Errorf("non-host start err = %v, want ErrIllegalMove", err)
	}
}

func TestStartGameIsIdempotentWhileLive(t *testing.T) {
	m := newTestManager(7)
	r, st := setupStartedGame(t, m, 2)

	again, err := m.StartGame(r.ID, r.HostID)
	if err != nil {
		t.Fatalf("second StartGame failed: %v", err)
	}
	if again.Version != st.Version {
		t.Errorf("second start replaced the game: version %d -> %d", st.Version, again.Version)
	}
}

func TestGetStateBeforeStart(t *testing.T) {
	m := newTestManager(8)
	r, _, _ := m.CreateRoom("Alice")

	if _, err := m.GetState(r.ID); !errors.Is(err, ErrGameNotStarted) {
		t.Errorf("err = %v, want ErrGameNotStarted", err)
	}
	if _, err := m.GetState("room_missing"); !errors.Is(err, game.ErrRoomNotFound) {
		t.Errorf("err = %v, want ErrRoomNotFound", err)
	}
}

func TestSubmitAskAdvancesVersion(t *testing.T) {
	m := newTestManager(9)
	r, st := setupStartedGame(t, m, 2)

	asker, target, rank := legalAsk(st)
	next, err := m.SubmitAsk(r.ID, asker, target, rank, st.Version)
	if err != nil {
		t.Fatalf("SubmitAsk failed: %v", err)
	}
	if next.Version != st.Version+1 {
		t.Errorf("version = %d, want %d", next.Version, st.Version+1)
	}

	cur, err := m.GetState(r.ID)
	if err != nil {
		t.Fatalf("GetState failed: %v", err)
	}
	if cur.Version != next.Version {
		t.Errorf("published version = %d, want %d", cur.Version, next.Version)
	}
}

func TestSubmitAskStaleVersionRejected(t *testing.T) {
	m := newTestManager(10)
	r, st := setupStartedGame(t, m, 3)

	asker, target, rank := legalAsk(st)
	if _, err := m.SubmitAsk(r.ID, asker, target, rank, st.Version+5); !errors.Is(err, game.ErrConcurrentModification) {
		t.Errorf("future version err = %v, want ErrConcurrentModification", err)
	}
}

func TestSubmitAskDuplicateIsNoop(t *testing.T) {
	m := newTestManager(11)
	r, st := setupStartedGame(t, m, 2)

	asker, target, rank := legalAsk(st)
	first, err := m.SubmitAsk(r.ID, asker, target, rank, st.Version)
	if err != nil {
		t.Fatalf("SubmitAsk failed: %v", err)
	}

	// A retry of the same move against the old version is absorbed.
	retry, err := m.SubmitAsk(r.ID, asker, target, rank, st.Version)
	if err != nil {
		t.Fatalf("duplicate SubmitAsk rejected: %v", err)
	}
	if retry.Version != first.Version {
		t.Errorf("duplicate advanced version to %d, want %d", retry.Version, first.Version)
	}
}

func TestSubmitAskStaleDifferentMoveRejected(t *testing.T) {
	m := newTestManager(12)
	r, st := setupStartedGame(t, m, 3)

	asker, target, rank := legalAsk(st)
	if _, err := m.SubmitAsk(r.ID, asker, target, rank, st.Version); err != nil {
		t.Fatalf("SubmitAsk failed: %v", err)
	}

	// Same stale version but a different rank: not a duplicate, reject.
	otherRank := game.Ace
	if otherRank == rank {
		otherRank = game.Two
	}
	if _, err := m.SubmitAsk(r.ID, asker, target, otherRank, st.Version); !errors.Is(err, game.ErrConcurrentModification) {
		t.Errorf("stale different move err = %v, want ErrConcurrentModification", err)
	}
}

func TestSubmitGuessDuplicateIsNoop(t *testing.T) {
	// Drive games until an ask lands in the guessing phase, then exercise
	// the duplicate path.
	for seed := int64(20); seed < 60; seed++ {
		m := newTestManager(seed)
		r, st := setupStartedGame(t, m, 2)

		for i := 0; i < 50 && !st.GameOver; i++ {
			if st.Phase == game.PhaseGuessing {
				suits := []game.Suit{st.CurrentAsk.ShownCards[0].Suit}
				first, err := m.SubmitGuess(r.ID, st.CurrentAsk.AskingPlayerID, suits, st.Version)
				if err != nil {
					t.Fatalf("seed %d: SubmitGuess failed: %v", seed, err)
				}
				retry, err := m.SubmitGuess(r.ID, first.LastMove.PlayerID, suits, st.Version)
				if err != nil {
					t.Fatalf("seed %d: duplicate SubmitGuess rejected: %v", seed, err)
				}
				if retry.Version != first.Version {
					t.Errorf("seed %d: duplicate advanced version to %d, want %d", seed, retry.Version, first.Version)
				}
				return
			}

			asker, target, rank := legalAsk(st)
			next, err := m.SubmitAsk(r.ID, asker, target, rank, st.Version)
			if err != nil {
				t.Fatalf("seed %d: SubmitAsk failed: %v", seed, err)
			}
			st = next
		}
	}
	t.Fatalf("no playout reached the guessing phase")
}

func TestSubmitAskWhileRoomLockedConflicts(t *testing.T) {
	m := newTestManager(16)
	r, st := setupStartedGame(t, m, 2)

	// Another submission is mid-flight: the room mutex is held.
	r.mu.Lock()
	defer r.mu.Unlock()

	asker, target, rank := legalAsk(st)
	if _, err := m.SubmitAsk(r.ID, asker, target, rank, st.Version); !errors.Is(err, game.ErrConcurrentModification) {
		t.Errorf("locked room err = %v, want ErrConcurrentModification", err)
	}
}

func TestSubmitAskWrongPlayerRejected(t *testing.T) {
	m := newTestManager(13)
	r, st := setupStartedGame(t, m, 2)

	asker, target, _ := legalAsk(st)
	// The target tries to move out of turn.
	rank := st.PlayerHands[target][0].Rank
	if _, err := m.SubmitAsk(r.ID, target, asker, rank, st.Version); !errors.Is(err, game.ErrIllegalMove) {
		t.Errorf("out-of-turn ask err = %v, want ErrIllegalMove", err)
	}
}

func TestRemoveRoomForgetsRoom(t *testing.T) {
	m := newTestManager(14)
	r, _, _ := m.CreateRoom("Alice")

	m.RemoveRoom(r.ID)
	if m.GetActiveRoomCount() != 0 {
		t.Errorf("active rooms = %d after removal, want 0", m.GetActiveRoomCount())
	}
	if _, err := m.GetRoom(r.ID); !errors.Is(err, game.ErrRoomNotFound) {
		t.Errorf("removed room still resolvable: %v", err)
	}
	if _, _, err := m.JoinRoom(r.Code, "Bob"); !errors.Is(err, game.ErrRoomNotFound) {
		t.Errorf("removed room code still resolvable: %v", err)
	}
}

func TestPublishedStatePassesInvariants(t *testing.T) {
	m := newTestManager(15)
	r, st := setupStartedGame(t, m, 3)

	for i := 0; i < 30 && !st.GameOver; i++ {
		var next *game.GameState
		var err error
		if st.Phase == game.PhaseGuessing {
			next, err = m.SubmitGuess(r.ID, st.CurrentAsk.AskingPlayerID,
				[]game.Suit{st.CurrentAsk.ShownCards[0].Suit}, st.Version)
		} else {
			asker, target, rank := legalAsk(st)
			next, err = m.SubmitAsk(r.ID, asker, target, rank, st.Version)
		}
		if err != nil {
			t.Fatalf("move %d failed: %v", i, err)
		}
		if err := next.CheckInvariants(); err != nil {
			t.Fatalf("published state v%d violates invariants: %v", next.Version, err)
		}
		st = next
	}
}
