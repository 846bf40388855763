package game

import (
	"fmt"
	"time"
)

// DefaultCardsPerPlayer is the standard opening hand size.
const DefaultCardsPerPlayer = 5

// NewGame shuffles a fresh deck, deals every player their opening hand,
// extracts any sets already completed by the deal and picks a random
// starting player. The returned state is at version 1 and in the asking
// phase.
func NewGame(players []Player, cardsPerPlayer int, rng Rand) (*GameState, error) {
	if len(players) < 2 {
		return nil, fmt.Errorf("need at least 2 players, got %d", len(players))
	}
	if cardsPerPlayer <= 0 {
		cardsPerPlayer = DefaultCardsPerPlayer
	}
	if len(players)*cardsPerPlayer > DeckSize {
		return nil, fmt.Errorf("cannot deal %d cards to %d players from a %d-card deck",
			cardsPerPlayer, len(players), DeckSize)
	}

	deck := NewDeck()
	ShuffleDeck(deck, rng)

	seats := make([]Player, len(players))
	ids := make([]string, len(players))
	for i, p := range players {
		p.IsCurrentPlayer = false
		seats[i] = p
		ids[i] = p.ID
	}

	hands, rest, err := Deal(deck, ids, cardsPerPlayer)
	if err != nil {
		return nil, err
	}

	s := &GameState{
		Players:          seats,
		PlayerHands:      hands,
		PlayerScores:     make(map[string]int, len(players)),
		PlayerStockpiles: make(map[string][][]Card, len(players)),
		Deck:             rest,
		DiscardedCards:   []Card{},
		Phase:            PhaseAsking,
		Version:          1,
	}
	for _, id := range ids {
		s.PlayerScores[id] = 0
		s.PlayerStockpiles[id] = [][]Card{}
	}

	// A fresh deal rarely completes a set, but it must be handled.
	ExtractSets(s)

	s.markCurrent(rng.Intn(len(seats)))
	evaluateGameOver(s)
	return s, nil
}

// Ask resolves one ask transition: askerID (the current player) asks
// targetID for every card of the requested rank. Three outcomes:
//
//   - the target holds no matching card: the asker draws one card if the
//     deck allows, the move is recorded as a failed ask and the turn passes
//     to the next seat;
//   - the asker holds exactly three of the rank and the target exactly one:
//     the fourth card transfers automatically, the completed set is
//     extracted and the asker keeps the turn;
//   - otherwise the target's matching cards are revealed and the state moves
//     to the guessing phase, waiting for a Guess from the asker.
//
// The input state is never mutated; a new state at version+1 is returned.
func Ask(s *GameState, askerID, targetID string, rank Rank) (*GameState, error) {
	if s.GameOver {
		return nil, ErrGameOver
	}
	if s.Phase != PhaseAsking {
		return nil, fmt.Errorf("%w: ask during %s phase", ErrIllegalMove, s.Phase)
	}
	if s.CurrentPlayerID() != askerID {
		return nil, fmt.Errorf("%w: not %s's turn", ErrIllegalMove, askerID)
	}
	if askerID == targetID || s.PlayerIndex(targetID) < 0 {
		return nil, fmt.Errorf("%w: invalid target player", ErrIllegalMove)
	}
	if !ValidRank(rank) {
		return nil, fmt.Errorf("%w: unknown rank %q", ErrIllegalMove, rank)
	}
	if len(CardsOfRank(s.PlayerHands[askerID], rank)) == 0 {
		return nil, fmt.Errorf("%w: asker holds no %s", ErrIllegalMove, rank)
	}

	st := s.Clone()
	st.Version++
	st.markCurrent(st.PlayerIndex(askerID))

	matching := CardsOfRank(st.PlayerHands[targetID], rank)

	// Failed ask: go fish, then the turn passes by fixed rotation.
	if len(matching) == 0 {
		drawOne(st, askerID)
		ExtractSets(st)
		st.LastMove = &Move{
			PlayerID:          askerID,
			PlayerName:        st.playerName(askerID),
			TargetPlayerID:    targetID,
			Timestamp:         time.Now().UTC(),
			RequestedRank:     rank,
			TargetPlayerCards: []Card{},
			CardsExchanged:    []Card{},
		}
		advanceTurn(st)
		evaluateGameOver(st)
		return st, nil
	}

	// Forced reveal: the asker holds three of the rank and the target the
	// fourth. The card transfers without a guess and the asker keeps the
	// turn.
	if len(CardsOfRank(st.PlayerHands[askerID], rank)) == 3 && len(matching) == 1 {
		st.PlayerHands[targetID] = removeCards(st.PlayerHands[targetID], matching)
		st.PlayerHands[askerID] = append(st.PlayerHands[askerID], matching...)
		ExtractSets(st)
		correct := true
		st.LastMove = &Move{
			PlayerID:          askerID,
			PlayerName:        st.playerName(askerID),
			TargetPlayerID:    targetID,
			Timestamp:         time.Now().UTC(),
			RequestedRank:     rank,
			TargetPlayerCards: matching,
			GuessCorrect:      &correct,
			CardsExchanged:    matching,
		}
		refillIfEmpty(st, askerID)
		evaluateGameOver(st)
		return st, nil
	}

	// Partial match: reveal the target's matching cards and wait for the
	// asker's suit guess. The "showing" step is instantaneous; the state
	// lands directly in guessing.
	st.Phase = PhaseGuessing
	st.CurrentAsk = &PendingAsk{
		AskingPlayerID: askerID,
		TargetPlayerID: targetID,
		RequestedRank:  rank,
		ShownCards:     matching,
	}
	return st, nil
}

// Guess resolves the guessing phase: every shown card whose suit appears in
// guessedSuits transfers from the target to the asker. With at least one
// correct suit the asker keeps the turn; with none they draw a consolation
// card and the turn passes on.
func Guess(s *GameState, askerID string, guessedSuits []Suit) (*GameState, error) {
	if s.GameOver {
		return nil, ErrGameOver
	}
	if s.Phase != PhaseGuessing || s.CurrentAsk == nil {
		return nil, fmt.Errorf("%w: guess during %s phase", ErrIllegalMove, s.Phase)
	}
	if s.CurrentAsk.AskingPlayerID != askerID {
		return nil, fmt.Errorf("%w: guess by %s does not match pending ask", ErrIllegalMove, askerID)
	}
	suits := make([]Suit, 0, len(guessedSuits))
	for _, suit := range guessedSuits {
		if !ValidSuit(suit) {
			return nil, fmt.Errorf("%w: unknown suit %q", ErrIllegalMove, suit)
		}
		dup := false
		for _, seen := range suits {
			if seen == suit {
				dup = true
				break
			}
		}
		if !dup {
			suits = append(suits, suit)
		}
	}

	st := s.Clone()
	st.Version++

	ask := st.CurrentAsk
	shown := ask.ShownCards
	correct := make([]Card, 0, len(shown))
	for _, c := range shown {
		for _, suit := range suits {
			if c.Suit == suit {
				correct = append(correct, c)
				break
			}
		}
	}

	if len(correct) > 0 {
		st.PlayerHands[ask.TargetPlayerID] = removeCards(st.PlayerHands[ask.TargetPlayerID], correct)
		st.PlayerHands[askerID] = append(st.PlayerHands[askerID], correct...)
	} else {
		// Consolation draw when nothing was claimed.
		drawOne(st, askerID)
	}
	ExtractSets(st)

	guessCorrect := len(correct) > 0
	st.LastMove = &Move{
		PlayerID:          askerID,
		PlayerName:        st.playerName(askerID),
		TargetPlayerID:    ask.TargetPlayerID,
		Timestamp:         time.Now().UTC(),
		RequestedRank:     ask.RequestedRank,
		TargetPlayerCards: shown,
		GuessedSuits:      suits,
		GuessCorrect:      &guessCorrect,
		CardsExchanged:    correct,
	}

	st.CurrentAsk = nil
	st.Phase = PhaseAsking
	if guessCorrect {
		refillIfEmpty(st, askerID)
	} else {
		advanceTurn(st)
	}
	evaluateGameOver(st)
	return st, nil
}

// drawOne moves one card from the deck into the player's hand. An empty deck
// is an expected no-op, never an error at this level.
func drawOne(st *GameState, playerID string) {
	if IsDeckEmpty(st.Deck) {
		return
	}
	drawn, rest, err := Draw(st.Deck, 1)
	if err != nil {
		return
	}
	st.Deck = rest
	st.PlayerHands[playerID] = append(st.PlayerHands[playerID], drawn...)
}

// advanceTurn rotates to the next seat in fixed order.
func advanceTurn(st *GameState) {
	next := (st.CurrentPlayerIndex + 1) % len(st.Players)
	st.markCurrent(next)
	refillIfEmpty(st, st.Players[next].ID)
}

// refillIfEmpty tops up an empty hand from the deck so the player whose turn
// it is can still ask. With the deck also empty the game-over check ends the
// game instead.
func refillIfEmpty(st *GameState, playerID string) {
	if len(st.PlayerHands[playerID]) == 0 {
		drawOne(st, playerID)
	}
}

// evaluateGameOver runs after every transition. The primary terminal
// condition is every hand simultaneously empty. The game also ends when the
// deck is empty and any hand is empty: that player can never re-enter play,
// so strict rotation would deadlock waiting for an ask they cannot make.
func evaluateGameOver(st *GameState) {
	allEmpty := st.TotalHandCards() == 0
	deadlocked := false
	if IsDeckEmpty(st.Deck) {
		for _, p := range st.Players {
			if len(st.PlayerHands[p.ID]) == 0 {
				deadlocked = true
				break
			}
		}
	}
	if !allEmpty && !deadlocked {
		return
	}
	st.GameOver = true
	st.Winner = computeWinner(st)
}

// computeWinner returns the player with the strictly highest score, or nil
// on a tie (or no players).
func computeWinner(st *GameState) *string {
	if len(st.Players) == 0 {
		return nil
	}
	best := st.Players[0].ID
	bestScore := st.PlayerScores[best]
	tied := false
	for _, p := range st.Players[1:] {
		score := st.PlayerScores[p.ID]
		switch {
		case score > bestScore:
			best, bestScore, tied = p.ID, score, false
		case score == bestScore:
			tied = true
		}
	}
	if tied {
		return nil
	}
	return &best
}

func (s *GameState) playerName(playerID string) string {
	for _, p := range s.Players {
		if p.ID == playerID {
			return p.Name
		}
	}
	return "Unknown"
}
