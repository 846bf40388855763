package game

import "errors"

// Errors returned by transition functions. All of these are recoverable at
// the move-submission boundary; none should crash the process.
var (
	// ErrIllegalMove means the move violates phase/turn/actor rules.
	// The caller should re-fetch the latest state and re-render.
	ErrIllegalMove = errors.New("illegal move for current phase or player")

	// ErrInsufficientCards means a draw was attempted past the deck size.
	// Callers check IsDeckEmpty first; an empty deck is an expected state.
	ErrInsufficientCards = errors.New("not enough cards in deck")

	// ErrConcurrentModification means the move was computed against a stale
	// snapshot while another transition was in flight. Retry on latest.
	ErrConcurrentModification = errors.New("state changed, retry against latest snapshot")

	// ErrGameOver means a move was submitted after the game ended.
	ErrGameOver = errors.New("game is over")

	// ErrRoomNotFound means the room does not exist (or expired).
	ErrRoomNotFound = errors.New("room not found")
)
