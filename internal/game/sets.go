package game

// SetSize is the number of cards that form a completed set (one per suit).
const SetSize = 4

// CompletedRanks returns every rank present exactly four times in the hand,
// in fixed rank order so results are deterministic.
func CompletedRanks(hand []Card) []Rank {
	counts := make(map[Rank]int, len(hand))
	for _, c := range hand {
		counts[c.Rank]++
	}
	var completed []Rank
	for _, rank := range Ranks {
		if counts[rank] == SetSize {
			completed = append(completed, rank)
		}
	}
	return completed
}

// ExtractSets removes every completed set from every player's hand, seals it
// into that player's stockpile and bumps their score by one per set. It runs
// after any hand mutation so no hand ever holds four of a rank across a
// published state. Returns the number of sets extracted.
func ExtractSets(s *GameState) int {
	extracted := 0
	for _, p := range s.Players {
		hand := s.PlayerHands[p.ID]
		for _, rank := range CompletedRanks(hand) {
			set := CardsOfRank(hand, rank)
			hand = removeCards(hand, set)
			s.PlayerStockpiles[p.ID] = append(s.PlayerStockpiles[p.ID], set)
			s.PlayerScores[p.ID]++
			extracted++
		}
		s.PlayerHands[p.ID] = hand
	}
	return extracted
}
