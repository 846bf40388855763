package game

import (
	"fmt"
	"time"
)

// Phase is the room-wide stage of the current ask cycle.
type Phase string

const (
	PhaseAsking   Phase = "asking"
	PhaseShowing  Phase = "showing"
	PhaseGuessing Phase = "guessing"
)

// Player is a seat in the game. Order is fixed at game start and drives turn
// rotation.
type Player struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	JoinedAt        time.Time `json:"joinedAt"`
	IsCurrentPlayer bool      `json:"isCurrentPlayer"`
}

// PendingAsk is the in-flight request record. It exists only between the ask
// and guess phases; ShownCards is filled when the target's matching cards are
// revealed.
type PendingAsk struct {
	AskingPlayerID string `json:"askingPlayerId"`
	TargetPlayerID string `json:"targetPlayerId"`
	RequestedRank  Rank   `json:"requestedRank"`
	ShownCards     []Card `json:"shownCards"`
}

// Move records the most recently resolved ask: who asked whom for what rank,
// what was shown, what was guessed, and which cards changed hands. Purely
// informational; clients use it for notifications.
type Move struct {
	PlayerID          string    `json:"playerId"`
	PlayerName        string    `json:"playerName"`
	TargetPlayerID    string    `json:"targetPlayerId"`
	Timestamp         time.Time `json:"timestamp"`
	RequestedRank     Rank      `json:"requestedRank"`
	TargetPlayerCards []Card    `json:"targetPlayerCards"`
	GuessedSuits      []Suit    `json:"guessedSuits"`
	GuessCorrect      *bool     `json:"guessCorrect"`
	CardsExchanged    []Card    `json:"cardsExchanged"`
}

// GameState is the root aggregate for one room's game. Exactly one canonical
// instance exists per room; every transition replaces it wholesale rather
// than mutating it across a publish boundary.
type GameState struct {
	Players            []Player            `json:"players"`
	CurrentPlayerIndex int                 `json:"currentPlayerIndex"`
	PlayerHands        map[string][]Card   `json:"playerHands"`
	PlayerScores       map[string]int      `json:"playerScores"`
	PlayerStockpiles   map[string][][]Card `json:"playerStockpiles"`
	Deck               []Card              `json:"deck"`
	DiscardedCards     []Card              `json:"discardedCards"`
	Phase              Phase               `json:"phase"`
	CurrentAsk         *PendingAsk         `json:"currentAsk"`
	LastMove           *Move               `json:"lastMove"`
	GameOver           bool                `json:"gameOver"`
	Winner             *string             `json:"winner"`

	// Version increases by one on every published transition. The
	// reconciliation layer uses it to detect stale and duplicate
	// submissions.
	Version int `json:"version"`
}

// Clone returns a deep copy. Transitions operate on clones so the published
// state is never mutated in place.
func (s *GameState) Clone() *GameState {
	c := &GameState{
		Players:            make([]Player, len(s.Players)),
		CurrentPlayerIndex: s.CurrentPlayerIndex,
		PlayerHands:        make(map[string][]Card, len(s.PlayerHands)),
		PlayerScores:       make(map[string]int, len(s.PlayerScores)),
		PlayerStockpiles:   make(map[string][][]Card, len(s.PlayerStockpiles)),
		Deck:               append([]Card(nil), s.Deck...),
		DiscardedCards:     append([]Card(nil), s.DiscardedCards...),
		Phase:              s.Phase,
		GameOver:           s.GameOver,
		Version:            s.Version,
	}
	copy(c.Players, s.Players)
	for id, hand := range s.PlayerHands {
		c.PlayerHands[id] = append([]Card(nil), hand...)
	}
	for id, score := range s.PlayerScores {
		c.PlayerScores[id] = score
	}
	for id, piles := range s.PlayerStockpiles {
		cp := make([][]Card, len(piles))
		for i, set := range piles {
			cp[i] = append([]Card(nil), set...)
		}
		c.PlayerStockpiles[id] = cp
	}
	if s.CurrentAsk != nil {
		ask := *s.CurrentAsk
		ask.ShownCards = append([]Card(nil), s.CurrentAsk.ShownCards...)
		c.CurrentAsk = &ask
	}
	if s.LastMove != nil {
		mv := *s.LastMove
		mv.TargetPlayerCards = append([]Card(nil), s.LastMove.TargetPlayerCards...)
		mv.GuessedSuits = append([]Suit(nil), s.LastMove.GuessedSuits...)
		mv.CardsExchanged = append([]Card(nil), s.LastMove.CardsExchanged...)
		if s.LastMove.GuessCorrect != nil {
			v := *s.LastMove.GuessCorrect
			mv.GuessCorrect = &v
		}
		c.LastMove = &mv
	}
	if s.Winner != nil {
		w := *s.Winner
		c.Winner = &w
	}
	return c
}

// CurrentPlayerID returns the id of the player whose turn it is.
func (s *GameState) CurrentPlayerID() string {
	if s.CurrentPlayerIndex < 0 || s.CurrentPlayerIndex >= len(s.Players) {
		return ""
	}
	return s.Players[s.CurrentPlayerIndex].ID
}

// PlayerIndex returns the seat index for the given player id, or -1.
func (s *GameState) PlayerIndex(playerID string) int {
	for i, p := range s.Players {
		if p.ID == playerID {
			return i
		}
	}
	return -1
}

// TotalHandCards returns the number of cards currently held across all hands.
func (s *GameState) TotalHandCards() int {
	total := 0
	for _, hand := range s.PlayerHands {
		total += len(hand)
	}
	return total
}

// markCurrent flags exactly one seat as the current player.
func (s *GameState) markCurrent(index int) {
	s.CurrentPlayerIndex = index
	for i := range s.Players {
		s.Players[i].IsCurrentPlayer = i == index
	}
}

// CheckInvariants verifies that every one of the 52 cards lives in exactly
// one of deck, a hand, a stockpile or the discard pile, and that phase and
// currentAsk agree. A violation indicates a bug in a transition, not a bad
// move: production callers log it instead of crashing.
func (s *GameState) CheckInvariants() error {
	seen := make(map[Card]string, DeckSize)
	note := func(c Card, where string) error {
		if prev, dup := seen[c]; dup {
			return fmt.Errorf("card %s present in both %s and %s", c, prev, where)
		}
		seen[c] = where
		return nil
	}
	for _, c := range s.Deck {
		if err := note(c, "deck"); err != nil {
			return err
		}
	}
	for id, hand := range s.PlayerHands {
		for _, c := range hand {
			if err := note(c, "hand:"+id); err != nil {
				return err
			}
		}
	}
	for id, piles := range s.PlayerStockpiles {
		for _, set := range piles {
			if len(set) != SetSize {
				return fmt.Errorf("stockpile of %s holds a set of %d cards", id, len(set))
			}
			for _, c := range set {
				if err := note(c, "stockpile:"+id); err != nil {
					return err
				}
			}
		}
	}
	for _, c := range s.DiscardedCards {
		if err := note(c, "discarded"); err != nil {
			return err
		}
	}
	if len(seen) != DeckSize {
		return fmt.Errorf("card conservation violated: %d cards accounted for, want %d", len(seen), DeckSize)
	}
	if hasAsk := s.CurrentAsk != nil; hasAsk != (s.Phase == PhaseShowing || s.Phase == PhaseGuessing) {
		return fmt.Errorf("phase %q inconsistent with currentAsk presence %v", s.Phase, hasAsk)
	}
	if !s.GameOver {
		current := 0
		for _, p := range s.Players {
			if p.IsCurrentPlayer {
				current++
			}
		}
		if current != 1 {
			return fmt.Errorf("%d players flagged current, want exactly 1", current)
		}
	}
	for id, hand := range s.PlayerHands {
		if ranks := CompletedRanks(hand); len(ranks) > 0 {
			return fmt.Errorf("hand of %s still holds completed rank %s", id, ranks[0])
		}
	}
	return nil
}
