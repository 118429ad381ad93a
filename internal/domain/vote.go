package domain

import (
	"fmt"
	"time"
)

// VoteCategory is one of the end-of-game ballots
type VoteCategory string

const (
	VoteMurderer VoteCategory = "murderer"
	VoteCostume  VoteCategory = "costume"
	VoteActor    VoteCategory = "actor"
	VoteMiniGame VoteCategory = "mini-game"
)

// VoteCategories lists ballots in display order
var VoteCategories = []VoteCategory{VoteMurderer, VoteCostume, VoteActor, VoteMiniGame}

// Valid reports whether c is a known ballot
func (c VoteCategory) Valid() bool {
	for _, known := range VoteCategories {
		if c == known {
			return true
		}
	}
	return false
}

// TargetsCharacter reports whether votes in c name a character id
// rather than a free-form label
func (c VoteCategory) TargetsCharacter() bool {
	return c != VoteMiniGame
}

// Vote is one user's ballot in one category
type Vote struct {
	ID        string       `json:"id"`
	Category  VoteCategory `json:"category"`
	VoterID   string       `json:"char_id"`
	VotedFor  string       `json:"voted_for"`
	CreatedAt time.Time    `json:"created_at"`
}

// VoteID returns the deterministic document key "{userID}-{category}"
func VoteID(userID string, category VoteCategory) string {
	return fmt.Sprintf("%s-%s", userID, category)
}

// NewVote creates a vote keyed by voter and category
func NewVote(userID string, category VoteCategory, votedFor string) Vote {
	return Vote{
		ID:        VoteID(userID, category),
		Category:  category,
		VoterID:   userID,
		VotedFor:  votedFor,
		CreatedAt: time.Now(),
	}
}

// VoteRecord is a resolved vote row of the admin audit view
type VoteRecord struct {
	Username           string    `json:"username"`
	CharacterFirstName string    `json:"character_first_name"`
	CharacterLastName  string    `json:"character_last_name"`
	VotedFor           string    `json:"voted_for"`
	VotedForName       string    `json:"voted_for_name"`
	Timestamp          time.Time `json:"timestamp"`
}

// VoteCount is the tally of one target
type VoteCount struct {
	TargetID   string `json:"character_id"`
	TargetName string `json:"character_name"`
	VoteCount  int    `json:"vote_count"`
}

// CategoryTally is the admin view of one ballot
type CategoryTally struct {
	Category VoteCategory `json:"category"`
	Votes    []VoteRecord `json:"votes"`
	Counts   []VoteCount  `json:"counts"`
}
