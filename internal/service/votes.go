package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/murder-mystery/internal/domain"
)

// Candidate is a character that can receive votes
type Candidate struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// VoteCandidates lists every non placeholder character
func (s *GameService) VoteCandidates(ctx context.Context) ([]Candidate, error) {
	characters, err := s.store.ListCharacters(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing characters: %w", err)
	}

	candidates := make([]Candidate, 0, len(characters))
	for _, c := range characters {
		if s.excluded[c.ID] {
			continue
		}
		candidates = append(candidates, Candidate{ID: c.ID, FirstName: c.FirstName, LastName: c.LastName})
	}
	return candidates, nil
}

// CastVote records the viewer's ballot for a category. Unless votes are
// locked, a second ballot replaces the first; there is never more than one
// vote per user and category.
func (s *GameService) CastVote(ctx context.Context, user *domain.User, category domain.VoteCategory, votedFor string) (*domain.Vote, error) {
	if !category.Valid() {
		return nil, domain.ErrInvalidVoteCategory
	}
	votedFor = strings.TrimSpace(votedFor)
	if votedFor == "" {
		return nil, domain.ErrInvalidVoteTarget
	}
	if category.TargetsCharacter() {
		if s.excluded[votedFor] {
			return nil, domain.ErrInvalidVoteTarget
		}
		if _, err := s.store.GetCharacter(ctx, votedFor); err != nil {
			if errors.Is(err, domain.ErrCharacterNotFound) {
				return nil, domain.ErrInvalidVoteTarget
			}
			return nil, fmt.Errorf("loading vote target: %w", err)
		}
	}

	vote := domain.NewVote(user.ID, category, votedFor)
	if err := s.store.PutVote(ctx, vote, !s.config.LockVotes); err != nil {
		return nil, fmt.Errorf("storing vote: %w", err)
	}

	s.logger.Info("vote cast", "user_id", user.ID, "category", category)
	return &vote, nil
}

// GetVote returns the viewer's ballot for a category
func (s *GameService) GetVote(ctx context.Context, user *domain.User, category domain.VoteCategory) (*domain.Vote, error) {
	if !category.Valid() {
		return nil, domain.ErrInvalidVoteCategory
	}
	vote, err := s.store.GetVote(ctx, domain.VoteID(user.ID, category))
	if err != nil {
		return nil, fmt.Errorf("loading vote: %w", err)
	}
	return vote, nil
}
