// Package tally computes the read-only admin aggregates: ballot tallies,
// score rankings and cash rankings.
package tally

import (
	"sort"

	"github.com/murder-mystery/internal/domain"
)

const unknownUsername = "N/A"

// Directory indexes users and characters for resolution
type Directory struct {
	users      map[string]domain.User
	characters map[string]domain.Character
	order      []string
	usernames  map[string]string
	excluded   map[string]bool
}

// NewDirectory builds a Directory. excluded lists placeholder character ids
// that never appear in rankings or tallies.
func NewDirectory(users []domain.User, characters []domain.Character, excluded []string) *Directory {
	d := &Directory{
		users:      make(map[string]domain.User, len(users)),
		characters: make(map[string]domain.Character, len(characters)),
		order:      make([]string, 0, len(characters)),
		usernames:  make(map[string]string, len(users)),
		excluded:   make(map[string]bool, len(excluded)),
	}
	for _, u := range users {
		d.users[u.ID] = u
		if u.CharacterID != "" {
			d.usernames[u.CharacterID] = u.Username
		}
	}
	for _, c := range characters {
		d.characters[c.ID] = c
		d.order = append(d.order, c.ID)
	}
	for _, id := range excluded {
		d.excluded[id] = true
	}
	return d
}

// Excluded reports whether a character id is a placeholder
func (d *Directory) Excluded(characterID string) bool {
	return d.excluded[characterID]
}

// Username returns the username playing a character, or "N/A"
func (d *Directory) Username(characterID string) string {
	if name, ok := d.usernames[characterID]; ok {
		return name
	}
	return unknownUsername
}

// Votes tallies one ballot. Votes whose voter cannot be resolved to a
// character, whose voter or target is excluded, or (outside mini-game)
// whose target is not a character are discarded. The audit list is
// ordered by timestamp ascending and the counts by votes descending.
func (d *Directory) Votes(category domain.VoteCategory, votes []domain.Vote) domain.CategoryTally {
	result := domain.CategoryTally{
		Category: category,
		Votes:    []domain.VoteRecord{},
		Counts:   []domain.VoteCount{},
	}

	counts := make(map[string]int)
	var seen []string

	for _, vote := range votes {
		if vote.Category != category {
			continue
		}
		voter, ok := d.users[vote.VoterID]
		if !ok {
			continue
		}
		character, ok := d.characters[voter.CharacterID]
		if !ok || d.excluded[voter.CharacterID] || d.excluded[vote.VotedFor] {
			continue
		}

		record := domain.VoteRecord{
			Username:           voter.Username,
			CharacterFirstName: character.FirstName,
			CharacterLastName:  character.LastName,
			VotedFor:           vote.VotedFor,
			VotedForName:       vote.VotedFor,
			Timestamp:          vote.CreatedAt,
		}
		if category.TargetsCharacter() {
			target, ok := d.characters[vote.VotedFor]
			if !ok {
				continue
			}
			record.VotedForName = target.FullName()
		}

		result.Votes = append(result.Votes, record)
		if _, ok := counts[vote.VotedFor]; !ok {
			seen = append(seen, vote.VotedFor)
		}
		counts[vote.VotedFor]++
	}

	sort.SliceStable(result.Votes, func(i, j int) bool {
		return result.Votes[i].Timestamp.Before(result.Votes[j].Timestamp)
	})

	for _, key := range seen {
		name := key
		if category.TargetsCharacter() {
			name = "Unknown"
			if c, ok := d.characters[key]; ok {
				name = c.FullName()
			}
		}
		result.Counts = append(result.Counts, domain.VoteCount{
			TargetID:   key,
			TargetName: name,
			VoteCount:  counts[key],
		})
	}
	sort.SliceStable(result.Counts, func(i, j int) bool {
		return result.Counts[i].VoteCount > result.Counts[j].VoteCount
	})

	return result
}

// AllVotes tallies every ballot in display order
func (d *Directory) AllVotes(votes []domain.Vote) []domain.CategoryTally {
	tallies := make([]domain.CategoryTally, 0, len(domain.VoteCategories))
	for _, category := range domain.VoteCategories {
		tallies = append(tallies, d.Votes(category, votes))
	}
	return tallies
}

// ScoreRankings ranks the characters holding a score entry for gameID by
// total score, highest first
func (d *Directory) ScoreRankings(gameID int) []domain.ScoreRanking {
	rankings := []domain.ScoreRanking{}
	for _, id := range d.order {
		if d.excluded[id] {
			continue
		}
		c := d.characters[id]
		entry, ok := c.Score(gameID)
		if !ok {
			continue
		}
		rankings = append(rankings, domain.ScoreRanking{
			CharacterID:   id,
			CharacterName: c.FullName(),
			Username:      d.Username(id),
			TotalScore:    entry.TotalScore,
		})
	}
	sort.SliceStable(rankings, func(i, j int) bool {
		return rankings[i].TotalScore > rankings[j].TotalScore
	})
	return rankings
}

// CashRankings ranks every non-placeholder character by cash, richest first
func (d *Directory) CashRankings() []domain.CashRanking {
	rankings := []domain.CashRanking{}
	for _, id := range d.order {
		if d.excluded[id] {
			continue
		}
		c := d.characters[id]
		job := c.Job
		if job == "" {
			job = "Unknown"
		}
		rankings = append(rankings, domain.CashRanking{
			CharacterID:   id,
			CharacterName: c.FullName(),
			Username:      d.Username(id),
			Job:           job,
			Cash:          c.Cash,
		})
	}
	sort.SliceStable(rankings, func(i, j int) bool {
		return rankings[i].Cash > rankings[j].Cash
	})
	return rankings
}
