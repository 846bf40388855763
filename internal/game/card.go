package game

// Suit represents a card suit, encoded as its short wire code.
type Suit string

const (
	Spades   Suit = "S"
	Hearts   Suit = "H"
	Diamonds Suit = "D"
	Clubs    Suit = "C"
)

// Rank represents a card rank
type Rank string

const (
	Ace   Rank = "A"
	Two   Rank = "2"
	Three Rank = "3"
	Four  Rank = "4"
	Five  Rank = "5"
	Six   Rank = "6"
	Seven Rank = "7"
	Eight Rank = "8"
	Nine  Rank = "9"
	Ten   Rank = "10"
	Jack  Rank = "J"
	Queen Rank = "Q"
	King  Rank = "K"
)

// Suits lists all four suits in a fixed order.
var Suits = []Suit{Spades, Hearts, Diamonds, Clubs}

// Ranks lists all thirteen ranks in a fixed order.
var Ranks = []Rank{Ace, Two, Three, Four, Five, Six, Seven, Eight, Nine, Ten, Jack, Queen, King}

// Card represents a playing card. Cards are value types; equality is
// structural on suit+rank.
type Card struct {
	Suit Suit `json:"suit"`
	Rank Rank `json:"rank"`
}

// String returns a short representation of the card (e.g., "AS" for Ace of Spades)
func (c Card) String() string {
	return string(c.Rank) + string(c.Suit)
}

// ValidSuit reports whether s is one of the four suit codes.
func ValidSuit(s Suit) bool {
	switch s {
	case Spades, Hearts, Diamonds, Clubs:
		return true
	}
	return false
}

// ValidRank reports whether r is one of the thirteen rank codes.
func ValidRank(r Rank) bool {
	for _, rank := range Ranks {
		if r == rank {
			return true
		}
	}
	return false
}

// DeckSize is the number of cards in a full deck.
const DeckSize = 52

// NewDeck creates a full 52-card deck, one card per (suit, rank) combination.
func NewDeck() []Card {
	cards := make([]Card, 0, DeckSize)
	for _, suit := range Suits {
		for _, rank := range Ranks {
			cards = append(cards, Card{Suit: suit, Rank: rank})
		}
	}
	return cards
}

// ShuffleDeck permutes the deck in place using the provided random source.
func ShuffleDeck(deck []Card, rng Rand) {
	rng.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
}

// Draw removes n cards from the top of the deck (the end of the slice) and
// returns them along with the remaining deck. Callers should check
// IsDeckEmpty first; drawing past the deck size fails with
// ErrInsufficientCards.
func Draw(deck []Card, n int) (drawn []Card, rest []Card, err error) {
	if n < 0 || n > len(deck) {
		return nil, deck, ErrInsufficientCards
	}
	cut := len(deck) - n
	drawn = make([]Card, n)
	copy(drawn, deck[cut:])
	rest = deck[:cut:cut]
	return drawn, rest, nil
}

// Deal draws perPlayer cards for each player id in order. Deterministic for a
// given shuffled deck and player order.
func Deal(deck []Card, playerIDs []string, perPlayer int) (hands map[string][]Card, rest []Card, err error) {
	hands = make(map[string][]Card, len(playerIDs))
	rest = deck
	for _, id := range playerIDs {
		var drawn []Card
		drawn, rest, err = Draw(rest, perPlayer)
		if err != nil {
			return nil, deck, err
		}
		hands[id] = drawn
	}
	return hands, rest, nil
}

// IsDeckEmpty reports whether the deck has no cards left.
func IsDeckEmpty(deck []Card) bool {
	return len(deck) == 0
}

// CardsOfRank returns the cards in hand matching the given rank.
func CardsOfRank(hand []Card, rank Rank) []Card {
	var matched []Card
	for _, c := range hand {
		if c.Rank == rank {
			matched = append(matched, c)
		}
	}
	return matched
}

// removeCards returns hand minus the given cards, matching by suit+rank.
// Each card removes at most one occurrence; duplicates cannot exist in a
// single-deck game.
func removeCards(hand []Card, cards []Card) []Card {
	out := make([]Card, 0, len(hand))
	for _, c := range hand {
		keep := true
		for _, r := range cards {
			if c == r {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, c)
		}
	}
	return out
}
