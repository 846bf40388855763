package game

import (
	"encoding/json"
	"math/rand"
	"strings"
	"testing"
)

func testPlayers(n int) []Player {
	names := []string{"Alice", "Bob", "Carol", "Dave", "Eve", "Frank"}
	players := make([]Player, n)
	for i := 0; i < n; i++ {
		players[i] = Player{ID: "p" + string(rune('1'+i)), Name: names[i]}
	}
	return players
}

func TestCloneIsDeep(t *testing.T) {
	s, err := NewGame(testPlayers(3), 5, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("NewGame failed: %v", err)
	}

	c := s.Clone()
	c.PlayerHands["p1"][0] = Card{Suit: Spades, Rank: Ace}
	c.PlayerScores["p1"] = 99
	c.Deck = c.Deck[:0]
	c.Players[0].Name = "Mallory"

	if s.PlayerScores["p1"] == 99 {
		t.Errorf("clone shares score map with original")
	}
	if len(s.Deck) == 0 {
		t.Errorf("clone shares deck slice header effects with original")
	}
	if s.Players[0].Name == "Mallory" {
		t.Errorf("clone shares players slice with original")
	}
}

func TestCloneCopiesAskAndMove(t *testing.T) {
	correct := true
	s := &GameState{
		Players:          []Player{{ID: "p1"}, {ID: "p2"}},
		PlayerHands:      map[string][]Card{"p1": nil, "p2": nil},
		PlayerScores:     map[string]int{},
		PlayerStockpiles: map[string][][]Card{},
		Phase:            PhaseGuessing,
		CurrentAsk: &PendingAsk{
			AskingPlayerID: "p1",
			TargetPlayerID: "p2",
			RequestedRank:  Seven,
			ShownCards:     []Card{{Suit: Hearts, Rank: Seven}},
		},
		LastMove: &Move{
			PlayerID:     "p1",
			GuessedSuits: []Suit{Hearts},
			GuessCorrect: &correct,
		},
	}

	c := s.Clone()
	c.CurrentAsk.ShownCards[0] = Card{Suit: Clubs, Rank: Two}
	*c.LastMove.GuessCorrect = false
	c.LastMove.GuessedSuits[0] = Spades

	if s.CurrentAsk.ShownCards[0] != (Card{Suit: Hearts, Rank: Seven}) {
		t.Errorf("clone shares shown cards with original")
	}
	if !*s.LastMove.GuessCorrect {
		t.Errorf("clone shares guessCorrect pointer with original")
	}
	if s.LastMove.GuessedSuits[0] != Hearts {
		t.Errorf("clone shares guessed suits with original")
	}
}

func TestSnapshotJSONUsesWireFieldNames(t *testing.T) {
	s, err := NewGame(testPlayers(2), 5, rand.New(rand.NewSource(2)))
	if err != nil {
		t.Fatalf("NewGame failed: %v", err)
	}

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	body := string(data)
	for _, field := range []string{
		`"players"`, `"currentPlayerIndex"`, `"playerHands"`, `"playerScores"`,
		`"playerStockpiles"`, `"deck"`, `"discardedCards"`, `"phase"`,
		`"currentAsk"`, `"lastMove"`, `"gameOver"`, `"winner"`, `"version"`,
	} {
		if !strings.Contains(body, field) {
			t.Errorf("snapshot JSON missing field %s", field)
		}
	}
}

func TestSnapshotRoundTripPreservesState(t *testing.T) {
	s, err := NewGame(testPlayers(3), 5, rand.New(rand.NewSource(3)))
	if err != nil {
		t.Fatalf("NewGame failed: %v", err)
	}

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var restored GameState
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if restored.Version != s.Version {
		t.Errorf("version = %d, want %d", restored.Version, s.Version)
	}
	if restored.CurrentPlayerID() != s.CurrentPlayerID() {
		t.Errorf("current player = %s, want %s", restored.CurrentPlayerID(), s.CurrentPlayerID())
	}
	if err := restored.CheckInvariants(); err != nil {
		t.Errorf("restored snapshot violates invariants: %v", err)
	}
	for id, hand := range s.PlayerHands {
		if len(restored.PlayerHands[id]) != len(hand) {
			t.Errorf("hand of %s = %d cards, want %d", id, len(restored.PlayerHands[id]), len(hand))
		}
	}
}

func TestCheckInvariantsCatchesDuplicateCard(t *testing.T) {
	s, err := NewGame(testPlayers(2), 5, rand.New(rand.NewSource(4)))
	if err != nil {
		t.Fatalf("NewGame failed: %v", err)
	}
	if err := s.CheckInvariants(); err != nil {
		t.Fatalf("fresh game violates invariants: %v", err)
	}

	s.PlayerHands["p1"][0] = s.PlayerHands["p2"][0]
	if err := s.CheckInvariants(); err == nil {
		t.Errorf("duplicated card not detected")
	}
}

func TestCheckInvariantsCatchesLostCard(t *testing.T) {
	s, err := NewGame(testPlayers(2), 5, rand.New(rand.NewSource(5)))
	if err != nil {
		t.Fatalf("NewGame failed: %v", err)
	}
	s.Deck = s.Deck[:len(s.Deck)-1]
	if err := s.CheckInvariants(); err == nil {
		t.Errorf("missing card not detected")
	}
}

func TestCheckInvariantsCatchesPhaseAskMismatch(t *testing.T) {
	s, err := NewGame(testPlayers(2), 5, rand.New(rand.NewSource(6)))
	if err != nil {
		t.Fatalf("NewGame failed: %v", err)
	}
	s.Phase = PhaseGuessing // no currentAsk set
	if err := s.CheckInvariants(); err == nil {
		t.Errorf("guessing phase without a pending ask not detected")
	}
}

func TestCheckInvariantsCatchesCompletedRankInHand(t *testing.T) {
	s := &GameState{
		Players:          []Player{{ID: "p1", IsCurrentPlayer: true}, {ID: "p2"}},
		PlayerHands:      map[string][]Card{"p1": fourOf(Seven), "p2": nil},
		PlayerScores:     map[string]int{},
		PlayerStockpiles: map[string][][]Card{},
		Phase:            PhaseAsking,
	}
	// Park the rest of the deck in discarded so conservation passes.
	full := NewDeck()
	for _, c := range full {
		if c.Rank != Seven {
			s.DiscardedCards = append(s.DiscardedCards, c)
		}
	}
	if err := s.CheckInvariants(); err == nil {
		t.Errorf("unextracted completed set not detected")
	}
}

func TestMarkCurrentFlagsExactlyOnePlayer(t *testing.T) {
	s, err := NewGame(testPlayers(4), 5, rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatalf("NewGame failed: %v", err)
	}

	count := 0
	for _, p := range s.Players {
		if p.IsCurrentPlayer {
			count++
			if p.ID != s.CurrentPlayerID() {
				t.Errorf("flagged player %s != current player %s", p.ID, s.CurrentPlayerID())
			}
		}
	}
	if count != 1 {
		t.Errorf("%d players flagged current, want 1", count)
	}
}
