// Package memstore is an in-process implementation of the game store. It
// backs the "memory" driver for local play-testing and the service tests.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/murder-mystery/internal/domain"
	"github.com/murder-mystery/internal/seed"
)

// Store keeps every collection in maps guarded by a single RWMutex, so each
// mutation is atomic with respect to every other.
type Store struct {
	mu         sync.RWMutex
	users      map[string]domain.User
	characters map[string]*domain.Character
	// notes is keyed by character id, then user id
	notes      map[string]map[string]domain.UserNotes
	round      domain.RoundState
	clues      []domain.Clue
	hints      []domain.Hint
	caseFiles  []domain.CaseFile
	answerKeys []domain.AnswerKey
	votes      map[string]domain.Vote
}

// New creates an empty store at round 0
func New() *Store {
	return &Store{
		users:      make(map[string]domain.User),
		characters: make(map[string]*domain.Character),
		notes:      make(map[string]map[string]domain.UserNotes),
		votes:      make(map[string]domain.Vote),
		round:      domain.RoundState{UpdatedAt: time.Now()},
	}
}

// Ping always succeeds
func (s *Store) Ping(ctx context.Context) error {
	return nil
}

// PutUser inserts or replaces a user
func (s *Store) PutUser(user domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
}

// PutCharacter inserts or replaces a character
func (s *Store) PutCharacter(character domain.Character) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := cloneCharacter(&character)
	s.characters[c.ID] = c
}

// AddClue appends a clue
func (s *Store) AddClue(clue domain.Clue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clues = append(s.clues, clue)
}

// AddHint appends a hint
func (s *Store) AddHint(hint domain.Hint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hints = append(s.hints, hint)
}

// AddCaseFile appends a case file
func (s *Store) AddCaseFile(file domain.CaseFile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.caseFiles = append(s.caseFiles, file)
}

// AddAnswerKey appends an answer key
func (s *Store) AddAnswerKey(key domain.AnswerKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answerKeys = append(s.answerKeys, key)
}

func (s *Store) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &user, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (s *Store) GetCharacter(ctx context.Context, characterID string) (*domain.Character, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.characters[characterID]
	if !ok {
		return nil, domain.ErrCharacterNotFound
	}
	return cloneCharacter(c), nil
}

func (s *Store) ListCharacters(ctx context.Context) ([]domain.Character, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	characters := make([]domain.Character, 0, len(s.characters))
	for _, c := range s.characters {
		characters = append(characters, *cloneCharacter(c))
	}
	sort.Slice(characters, func(i, j int) bool { return characters[i].ID < characters[j].ID })
	return characters, nil
}

func (s *Store) ListNotes(ctx context.Context, userID string) (map[string]domain.UserNotes, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]domain.UserNotes)
	for characterID, byUser := range s.notes {
		if entry, ok := byUser[userID]; ok {
			entry.Notes = append([]domain.Note(nil), entry.Notes...)
			out[characterID] = entry
		}
	}
	return out, nil
}

func (s *Store) AddNote(ctx context.Context, characterID, userID string, note domain.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.characters[characterID]; !ok {
		return domain.ErrCharacterNotFound
	}
	entry := s.noteEntry(characterID, userID)
	entry.Notes = append(entry.Notes, note)
	s.notes[characterID][userID] = entry
	return nil
}

func (s *Store) DeleteNote(ctx context.Context, characterID, userID, noteID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.notes[characterID][userID]
	if !ok {
		return domain.ErrNoteNotFound
	}
	for i, n := range entry.Notes {
		if n.ID == noteID {
			entry.Notes = append(entry.Notes[:i:i], entry.Notes[i+1:]...)
			s.notes[characterID][userID] = entry
			return nil
		}
	}
	return domain.ErrNoteNotFound
}

func (s *Store) SetSuspect(ctx context.Context, characterID, userID string, suspect bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.characters[characterID]; !ok {
		return domain.ErrCharacterNotFound
	}
	entry := s.noteEntry(characterID, userID)
	entry.IsSuspect = suspect
	s.notes[characterID][userID] = entry
	return nil
}

// noteEntry must be called with the write lock held
func (s *Store) noteEntry(characterID, userID string) domain.UserNotes {
	byUser, ok := s.notes[characterID]
	if !ok {
		byUser = make(map[string]domain.UserNotes)
		s.notes[characterID] = byUser
	}
	return byUser[userID]
}

func (s *Store) GetRound(ctx context.Context) (*domain.RoundState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state := s.round
	return &state, nil
}

func (s *Store) SetRound(ctx context.Context, round int, updatedBy string) (*domain.RoundState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.round = domain.RoundState{
		Round:     round,
		Version:   s.round.Version + 1,
		UpdatedBy: updatedBy,
		UpdatedAt: time.Now(),
	}
	state := s.round
	return &state, nil
}

func (s *Store) ListClues(ctx context.Context) ([]domain.Clue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	clues := make([]domain.Clue, len(s.clues))
	for i, c := range s.clues {
		c.Solved = append([]domain.Unlock(nil), c.Solved...)
		clues[i] = c
	}
	return clues, nil
}

func (s *Store) ListHints(ctx context.Context) ([]domain.Hint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	hints := make([]domain.Hint, len(s.hints))
	for i, h := range s.hints {
		h.Bought = append([]domain.Unlock(nil), h.Bought...)
		hints[i] = h
	}
	return hints, nil
}

func (s *Store) ListCaseFiles(ctx context.Context) ([]domain.CaseFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.CaseFile(nil), s.caseFiles...), nil
}

func (s *Store) ListAnswerKeys(ctx context.Context, gameID int) ([]domain.AnswerKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var keys []domain.AnswerKey
	for _, k := range s.answerKeys {
		if k.GameID == gameID {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (s *Store) GetAnswerKey(ctx context.Context, keyID string) (*domain.AnswerKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, k := range s.answerKeys {
		if k.ID == keyID {
			key := k
			return &key, nil
		}
	}
	return nil, domain.ErrAnswerKeyNotFound
}

func (s *Store) RecordSolve(ctx context.Context, solve domain.Solve) (*domain.SolveOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.characters[solve.CharacterID]
	if !ok {
		return nil, domain.ErrCharacterNotFound
	}
	if c.Scores == nil {
		c.Scores = make(map[int]domain.ScoreEntry)
	}
	entry := c.Scores[solve.GameID]
	if entry.Details.HasKey(solve.Category, solve.DetailKey) {
		return nil, domain.ErrAlreadySolved
	}
	for _, v := range entry.Details.Solved(solve.Category) {
		if v == solve.Value {
			return nil, domain.ErrAlreadySolved
		}
	}

	entry.Details.Add(solve.Category, domain.SolvedAnswer{
		Key:        solve.DetailKey,
		Value:      solve.Value,
		PointWorth: solve.PointWorth,
		CreatedAt:  solve.SolvedAt,
	})
	entry.TotalScore += solve.PointWorth
	c.Scores[solve.GameID] = entry

	outcome := &domain.SolveOutcome{TotalScore: entry.TotalScore}
	if solve.UnlockWord == "" {
		return outcome, nil
	}
	for i := range s.clues {
		clue := &s.clues[i]
		if clue.GameID != domain.GameQR || clue.WordID != solve.UnlockWord {
			continue
		}
		if !domain.ListedIn(clue.Solved, solve.CharacterID) {
			clue.Solved = append(clue.Solved, domain.Unlock{
				CharacterID: solve.CharacterID,
				CreatedAt:   solve.SolvedAt,
			})
		}
		outcome.ClueUnlocked = domain.UnlockedFor(clue.Solved, solve.CharacterID)
		outcome.ClueID = clue.ID
		break
	}
	return outcome, nil
}

func (s *Store) BuyHint(ctx context.Context, hintID, characterID string, cost int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.characters[characterID]
	if !ok {
		return 0, domain.ErrCharacterNotFound
	}
	idx := -1
	for i := range s.hints {
		if s.hints[i].ID == hintID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return 0, domain.ErrHintNotFound
	}
	hint := &s.hints[idx]
	if domain.ListedIn(hint.Bought, characterID) {
		return 0, domain.ErrHintAlreadyBought
	}
	if c.Cash < cost {
		return 0, domain.ErrInsufficientFunds
	}

	c.Cash -= cost
	hint.Bought = append(hint.Bought, domain.Unlock{
		CharacterID: characterID,
		CreatedAt:   time.Now(),
	})
	return c.Cash, nil
}

func (s *Store) Transfer(ctx context.Context, fromID, toID string, amount int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	from, ok := s.characters[fromID]
	if !ok {
		return 0, fmt.Errorf("sender: %w", domain.ErrCharacterNotFound)
	}
	to, ok := s.characters[toID]
	if !ok {
		return 0, fmt.Errorf("recipient: %w", domain.ErrCharacterNotFound)
	}
	if from.Cash < amount {
		return 0, domain.ErrInsufficientFunds
	}

	from.Cash -= amount
	to.Cash += amount
	return from.Cash, nil
}

func (s *Store) PutVote(ctx context.Context, vote domain.Vote, overwrite bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.votes[vote.ID]; exists && !overwrite {
		return domain.ErrAlreadyVoted
	}
	s.votes[vote.ID] = vote
	return nil
}

func (s *Store) GetVote(ctx context.Context, voteID string) (*domain.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	vote, ok := s.votes[voteID]
	if !ok {
		return nil, domain.ErrVoteNotFound
	}
	return &vote, nil
}

func (s *Store) ListVotes(ctx context.Context) ([]domain.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	votes := make([]domain.Vote, 0, len(s.votes))
	for _, v := range s.votes {
		votes = append(votes, v)
	}
	sort.Slice(votes, func(i, j int) bool { return votes[i].ID < votes[j].ID })
	return votes, nil
}

func cloneCharacter(c *domain.Character) *domain.Character {
	out := *c
	out.UserNotes = nil
	out.Objectives = append([]domain.Objective(nil), c.Objectives...)
	if c.Scores != nil {
		out.Scores = make(map[int]domain.ScoreEntry, len(c.Scores))
		for gameID, entry := range c.Scores {
			out.Scores[gameID] = domain.ScoreEntry{
				TotalScore: entry.TotalScore,
				Details:    cloneDetails(entry.Details),
			}
		}
	}
	return &out
}

func cloneDetails(d domain.ScoreDetails) domain.ScoreDetails {
	out := domain.ScoreDetails{
		Word:     append([]domain.SolvedAnswer(nil), d.Word...),
		Sentence: append([]domain.SolvedAnswer(nil), d.Sentence...),
	}
	if d.Secrets != nil {
		out.Secrets = make(map[string]domain.SolvedAnswer, len(d.Secrets))
		for k, v := range d.Secrets {
			out.Secrets[k] = v
		}
	}
	if d.Rumors != nil {
		out.Rumors = make(map[string]domain.SolvedAnswer, len(d.Rumors))
		for k, v := range d.Rumors {
			out.Rumors[k] = v
		}
	}
	return out
}

// FromSeed creates a store holding the seed's records
func FromSeed(s *seed.Seed) *Store {
	store := New()
	store.round.Round = s.Round
	for _, u := range s.Users {
		store.PutUser(u)
	}
	for _, c := range s.Characters {
		store.PutCharacter(c)
	}
	for _, k := range s.AnswerKeys {
		store.AddAnswerKey(k)
	}
	for _, c := range s.Clues {
		store.AddClue(c)
	}
	for _, h := range s.Hints {
		store.AddHint(h)
	}
	for _, f := range s.CaseFiles {
		store.AddCaseFile(f)
	}
	return store
}
