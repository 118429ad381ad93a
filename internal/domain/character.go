package domain

import (
	"fmt"
	"time"
)

// Game ids used as keys of Character.Scores
const (
	GameSecrets = 2
	GameQR      = 3
)

// Character is the fictional persona assigned to a player
type Character struct {
	ID                     string               `json:"id" yaml:"id"`
	FirstName              string               `json:"first_name" yaml:"first_name"`
	LastName               string               `json:"last_name" yaml:"last_name"`
	Job                    string               `json:"job" yaml:"job"`
	RelationshipToDeceased string               `json:"relationship_to_deceased" yaml:"relationship_to_deceased"`
	Bio                    string               `json:"bio" yaml:"bio"`
	Cash                   int64                `json:"cash" yaml:"cash"`
	Scores                 map[int]ScoreEntry   `json:"scores,omitempty" yaml:"-"`
	UserNotes              map[string]UserNotes `json:"-" yaml:"-"`
	Objectives             []Objective          `json:"objectives,omitempty" yaml:"objectives"`
}

// FullName returns "first last"
func (c *Character) FullName() string {
	return fmt.Sprintf("%s %s", c.FirstName, c.LastName)
}

// TotalScore returns the character's total for a game, or 0 without an entry
func (c *Character) TotalScore(gameID int) int64 {
	if entry, ok := c.Scores[gameID]; ok {
		return entry.TotalScore
	}
	return 0
}

// Score returns the score entry for a game and whether one exists
func (c *Character) Score(gameID int) (ScoreEntry, bool) {
	entry, ok := c.Scores[gameID]
	return entry, ok
}

// ScoreEntry is the per-game scoring record of a character
type ScoreEntry struct {
	TotalScore int64        `json:"total_score"`
	Details    ScoreDetails `json:"details"`
}

// ScoreDetails holds every accepted answer of one game
type ScoreDetails struct {
	Secrets  map[string]SolvedAnswer `json:"secrets,omitempty"`
	Rumors   map[string]SolvedAnswer `json:"rumors,omitempty"`
	Word     []SolvedAnswer          `json:"word,omitempty"`
	Sentence []SolvedAnswer          `json:"sentence,omitempty"`
}

// SolvedAnswer is one accepted answer
type SolvedAnswer struct {
	Key        string    `json:"key,omitempty"`
	Value      string    `json:"value"`
	PointWorth int64     `json:"point_worth"`
	CreatedAt  time.Time `json:"created_at"`
}

// Solved returns the normalized values already accepted for a category
func (d ScoreDetails) Solved(category AnswerCategory) []string {
	var values []string
	switch category {
	case CategorySecret:
		for _, a := range d.Secrets {
			values = append(values, a.Value)
		}
	case CategoryRumor:
		for _, a := range d.Rumors {
			values = append(values, a.Value)
		}
	case CategoryQR:
		for _, a := range d.Word {
			values = append(values, a.Value)
		}
	case CategorySentence:
		for _, a := range d.Sentence {
			values = append(values, a.Value)
		}
	}
	return values
}

// HasWord reports whether a word detail equals the given value
func (d ScoreDetails) HasWord(word string) bool {
	for _, a := range d.Word {
		if a.Value == word {
			return true
		}
	}
	return false
}

// Add records an accepted answer under its category
func (d *ScoreDetails) Add(category AnswerCategory, answer SolvedAnswer) {
	switch category {
	case CategorySecret:
		if d.Secrets == nil {
			d.Secrets = make(map[string]SolvedAnswer)
		}
		d.Secrets[answer.Key] = answer
	case CategoryRumor:
		if d.Rumors == nil {
			d.Rumors = make(map[string]SolvedAnswer)
		}
		d.Rumors[answer.Key] = answer
	case CategoryQR:
		d.Word = append(d.Word, answer)
	case CategorySentence:
		d.Sentence = append(d.Sentence, answer)
	}
}

// HasKey reports whether a detail key is already used in a category
func (d ScoreDetails) HasKey(category AnswerCategory, key string) bool {
	var list []SolvedAnswer
	switch category {
	case CategorySecret:
		_, ok := d.Secrets[key]
		return ok
	case CategoryRumor:
		_, ok := d.Rumors[key]
		return ok
	case CategoryQR:
		list = d.Word
	case CategorySentence:
		list = d.Sentence
	}
	for _, a := range list {
		if a.Key == key {
			return true
		}
	}
	return false
}

// UserNotes is one player's private notes about a character
type UserNotes struct {
	IsSuspect bool   `json:"is_suspect"`
	Notes     []Note `json:"notes_list"`
}

// Note is a single guest-list note
type Note struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Objective is an HTML objective shown on the character sheet
type Objective struct {
	ID   string `json:"id" yaml:"id"`
	Body string `json:"objective" yaml:"objective"`
}
