// Package reveal implements the round-gated visibility rules for clues,
// hints and case files. Everything here is pure: callers fetch the full
// candidate set and the current round, and get back what a viewer may see.
package reveal

import (
	"sort"

	"github.com/murder-mystery/internal/domain"
)

// ClueBucket groups the visible clues that share a stored round value
type ClueBucket struct {
	Round int           `json:"round"`
	Clues []domain.Clue `json:"clues"`
}

// Clues returns the clues viewer may see at currentRound, bucketed by each
// clue's own round field. Every round value present in clues yields a
// bucket, even when nothing in it is visible.
//
// A clue is included when either
//   - it is owned by the viewer and its round is 0, 1 or 3 and not after
//     currentRound, or its round is 2 and the viewer's game 2 word details
//     hold its word_id; or
//   - it belongs to game 3, currentRound is at least 2, and the viewer is
//     listed as an unlocked solver.
//
// The second branch ignores the clue's round for inclusion and only uses it
// for bucketing. A clue matching both branches appears twice.
func Clues(currentRound int, viewer *domain.Character, clues []domain.Clue) []ClueBucket {
	buckets := make(map[int][]domain.Clue)

	var words domain.ScoreDetails
	if entry, ok := viewer.Score(domain.GameSecrets); ok {
		words = entry.Details
	}

	for _, clue := range clues {
		if _, ok := buckets[clue.Round]; !ok {
			buckets[clue.Round] = []domain.Clue{}
		}

		if clue.CharacterID != "" && clue.CharacterID == viewer.ID {
			if clue.Round == 2 {
				if words.HasWord(clue.WordID) {
					buckets[clue.Round] = append(buckets[clue.Round], clue)
				}
			} else if OwnedClueVisible(currentRound, clue) {
				buckets[clue.Round] = append(buckets[clue.Round], clue)
			}
		}

		if clue.GameID == domain.GameQR && currentRound >= 2 && domain.UnlockedFor(clue.Solved, viewer.ID) {
			buckets[clue.Round] = append(buckets[clue.Round], clue)
		}
	}

	result := make([]ClueBucket, 0, len(buckets))
	for round, list := range buckets {
		result = append(result, ClueBucket{Round: round, Clues: list})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Round < result[j].Round })
	return result
}

// OwnedClueVisible is the round-only half of the clue rule: an owned clue
// of round 0, 1 or 3 is visible once currentRound reaches it.
func OwnedClueVisible(currentRound int, clue domain.Clue) bool {
	switch clue.Round {
	case 0, 1, 3:
		return clue.Round <= currentRound
	}
	return false
}
