package domain

import "time"

// RoundState is the versioned, admin-controlled round gate
type RoundState struct {
	Round     int       `json:"round"`
	Version   int64     `json:"version"`
	UpdatedBy string    `json:"updated_by,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ScoreRanking is one row of a per-game score ranking
type ScoreRanking struct {
	CharacterID   string `json:"character_id"`
	CharacterName string `json:"character_name"`
	Username      string `json:"username"`
	TotalScore    int64  `json:"total_score"`
}

// CashRanking is one row of the cash ranking
type CashRanking struct {
	CharacterID   string `json:"character_id"`
	CharacterName string `json:"character_name"`
	Username      string `json:"username"`
	Job           string `json:"job"`
	Cash          int64  `json:"cash"`
}

// StandingEntry is a live scoreboard row served from the realtime cache
type StandingEntry struct {
	Rank        int64  `json:"rank"`
	CharacterID string `json:"character_id"`
	Score       int64  `json:"score"`
}
