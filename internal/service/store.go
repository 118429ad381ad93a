package service

import (
	"context"

	"github.com/murder-mystery/internal/domain"
)

// Store is the durable source of truth. Multi-row mutations (RecordSolve,
// BuyHint, Transfer) must be atomic: either every write lands or none.
type Store interface {
	Ping(ctx context.Context) error

	GetUser(ctx context.Context, userID string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)

	// GetCharacter returns a character with scores and objectives
	GetCharacter(ctx context.Context, characterID string) (*domain.Character, error)
	// ListCharacters returns every character with scores, ordered by id
	ListCharacters(ctx context.Context) ([]domain.Character, error)

	// ListNotes returns userID's notes keyed by character id
	ListNotes(ctx context.Context, userID string) (map[string]domain.UserNotes, error)
	AddNote(ctx context.Context, characterID, userID string, note domain.Note) error
	DeleteNote(ctx context.Context, characterID, userID, noteID string) error
	SetSuspect(ctx context.Context, characterID, userID string, suspect bool) error

	GetRound(ctx context.Context) (*domain.RoundState, error)
	// SetRound stores round and bumps the version
	SetRound(ctx context.Context, round int, updatedBy string) (*domain.RoundState, error)

	ListClues(ctx context.Context) ([]domain.Clue, error)
	ListHints(ctx context.Context) ([]domain.Hint, error)
	ListCaseFiles(ctx context.Context) ([]domain.CaseFile, error)

	ListAnswerKeys(ctx context.Context, gameID int) ([]domain.AnswerKey, error)
	GetAnswerKey(ctx context.Context, keyID string) (*domain.AnswerKey, error)

	// RecordSolve stores an accepted answer, adds its points to the game
	// total and, for QR words, unlocks the matching game 3 clue.
	// A duplicate detail key or value yields domain.ErrAlreadySolved.
	RecordSolve(ctx context.Context, solve domain.Solve) (*domain.SolveOutcome, error)

	// BuyHint debits cost and records an unlocked purchase, returning
	// the remaining cash.
	BuyHint(ctx context.Context, hintID, characterID string, cost int64) (int64, error)

	// Transfer moves amount from one character to another, returning the
	// sender's remaining cash.
	Transfer(ctx context.Context, fromID, toID string, amount int64) (int64, error)

	// PutVote writes a vote under its composite id. Without overwrite an
	// existing vote yields domain.ErrAlreadyVoted.
	PutVote(ctx context.Context, vote domain.Vote, overwrite bool) error
	GetVote(ctx context.Context, voteID string) (*domain.Vote, error)
	ListVotes(ctx context.Context) ([]domain.Vote, error)
}

// RoundCache is a shared, read-through copy of the round state that also
// fans changes out to every server instance.
type RoundCache interface {
	GetRound(ctx context.Context) (*domain.RoundState, error)
	SetRound(ctx context.Context, state domain.RoundState) error
	PublishRound(ctx context.Context, state domain.RoundState) error
}

// Standings is the realtime scoreboard cache
type Standings interface {
	IncrementScore(ctx context.Context, board, characterID string, delta int64) (int64, error)
	SetScore(ctx context.Context, board, characterID string, score int64) error
	// ReplaceScores swaps a whole board for scores
	ReplaceScores(ctx context.Context, board string, scores map[string]int64) error
	GetTopN(ctx context.Context, board string, n int) ([]domain.StandingEntry, error)
}

// Notifier pushes live updates to connected clients
type Notifier interface {
	BroadcastRound(state domain.RoundState)
	BroadcastStandings(board string, entries []domain.StandingEntry)
}
