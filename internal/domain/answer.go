package domain

import "time"

// AnswerCategory identifies the puzzle mechanic an answer belongs to
type AnswerCategory string

const (
	CategorySecret   AnswerCategory = "secret"
	CategoryRumor    AnswerCategory = "rumor"
	CategoryQR       AnswerCategory = "qr"
	CategorySentence AnswerCategory = "sentence"
)

// GameID returns the game whose score entry the category feeds
func (c AnswerCategory) GameID() int {
	switch c {
	case CategorySecret, CategoryRumor:
		return GameSecrets
	default:
		return GameQR
	}
}

// Valid reports whether c is a known category
func (c AnswerCategory) Valid() bool {
	switch c {
	case CategorySecret, CategoryRumor, CategoryQR, CategorySentence:
		return true
	}
	return false
}

// AnswerKey is immutable seed data defining a correct answer
type AnswerKey struct {
	ID          string         `json:"id" yaml:"id"`
	GameID      int            `json:"game_id" yaml:"game_id"`
	Category    AnswerCategory `json:"category" yaml:"category"`
	Answer      string         `json:"answer" yaml:"answer"`
	PointWorth  int64          `json:"point_worth" yaml:"point_worth"`
	CharacterID string         `json:"character_id,omitempty" yaml:"character_id"`
}

// Submission is a raw answer entered by a player
type Submission struct {
	CharacterID string         `json:"character_id"`
	Category    AnswerCategory `json:"category"`
	Index       int            `json:"index"`
	Answer      string         `json:"answer"`
}

// SubmitResult reports an accepted submission
type SubmitResult struct {
	Accepted      bool   `json:"accepted"`
	PointsAwarded int64  `json:"points_awarded"`
	TotalScore    int64  `json:"total_score"`
	ClueUnlocked  bool   `json:"clue_unlocked"`
	ClueID        string `json:"clue_id,omitempty"`
}

// Solve is an accepted answer to be recorded atomically by a store
type Solve struct {
	CharacterID string
	GameID      int
	Category    AnswerCategory
	DetailKey   string
	Value       string
	PointWorth  int64
	// UnlockWord names the word_id of the game 3 clue to unlock, if any
	UnlockWord string
	SolvedAt   time.Time
}

// SolveOutcome is the store-side result of recording a Solve
type SolveOutcome struct {
	TotalScore   int64
	ClueUnlocked bool
	ClueID       string
}
