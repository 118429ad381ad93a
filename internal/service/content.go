package service

import (
	"context"
	"fmt"

	"github.com/valyala/fastrand"

	"github.com/murder-mystery/internal/domain"
	"github.com/murder-mystery/internal/reveal"
	"github.com/murder-mystery/internal/sanitize"
)

// ClueBoard is the viewer's clue page
type ClueBoard struct {
	Round   int                 `json:"round"`
	Buckets []reveal.ClueBucket `json:"buckets"`
}

// Clues returns the clues visible to the viewer, bucketed by round
func (s *GameService) Clues(ctx context.Context, user *domain.User) (*ClueBoard, error) {
	state, err := s.CurrentRound(ctx)
	if err != nil {
		return nil, err
	}
	viewer, err := s.viewerCharacter(ctx, user)
	if err != nil {
		return nil, err
	}
	clues, err := s.store.ListClues(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing clues: %w", err)
	}
	return &ClueBoard{
		Round:   state.Round,
		Buckets: reveal.Clues(state.Round, viewer, clues),
	}, nil
}

// CaseFiles returns the case files released up to the current round
func (s *GameService) CaseFiles(ctx context.Context) ([]reveal.CaseFileBucket, error) {
	state, err := s.CurrentRound(ctx)
	if err != nil {
		return nil, err
	}
	files, err := s.store.ListCaseFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing case files: %w", err)
	}
	return reveal.CaseFiles(state.Round, files), nil
}

// HintBoard is the viewer's hint shop
type HintBoard struct {
	Round  int                `json:"round"`
	Cash   int64              `json:"cash"`
	Groups []reveal.HintGroup `json:"groups"`
}

// Hints returns the viewer's hints grouped by category. Bodies of
// purchased hints are sanitized.
func (s *GameService) Hints(ctx context.Context, user *domain.User) (*HintBoard, error) {
	state, err := s.CurrentRound(ctx)
	if err != nil {
		return nil, err
	}
	viewer, err := s.viewerCharacter(ctx, user)
	if err != nil {
		return nil, err
	}
	hints, err := s.store.ListHints(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing hints: %w", err)
	}

	groups := reveal.Hints(state.Round, viewer.ID, hints)
	for _, g := range groups {
		for i := range g.Hints {
			g.Hints[i].Body = sanitize.HTML(g.Hints[i].Body)
		}
	}
	return &HintBoard{Round: state.Round, Cash: viewer.Cash, Groups: groups}, nil
}

// HintPurchase is the result of buying a hint
type HintPurchase struct {
	Hint          reveal.HintView `json:"hint"`
	RemainingCash int64           `json:"remaining_cash"`
}

// BuyHint purchases a visible hint for the viewer
func (s *GameService) BuyHint(ctx context.Context, user *domain.User, hintID string) (*HintPurchase, error) {
	viewer, candidates, err := s.hintCandidates(ctx, user)
	if err != nil {
		return nil, err
	}

	for _, h := range candidates {
		if h.ID != hintID {
			continue
		}
		if domain.ListedIn(h.Bought, viewer.ID) {
			return nil, domain.ErrHintAlreadyBought
		}
		return s.buy(ctx, viewer, h)
	}
	return nil, domain.ErrHintNotFound
}

// BuyRandomHint purchases a uniformly random visible hint the viewer has
// not bought yet
func (s *GameService) BuyRandomHint(ctx context.Context, user *domain.User) (*HintPurchase, error) {
	viewer, candidates, err := s.hintCandidates(ctx, user)
	if err != nil {
		return nil, err
	}

	unbought := reveal.UnboughtHints(candidates, viewer.ID)
	if len(unbought) == 0 {
		return nil, domain.ErrNoHintsAvailable
	}
	pick := unbought[fastrand.Uint32n(uint32(len(unbought)))]
	return s.buy(ctx, viewer, pick)
}

func (s *GameService) hintCandidates(ctx context.Context, user *domain.User) (*domain.Character, []domain.Hint, error) {
	state, err := s.CurrentRound(ctx)
	if err != nil {
		return nil, nil, err
	}
	viewer, err := s.viewerCharacter(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	hints, err := s.store.ListHints(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("listing hints: %w", err)
	}
	return viewer, reveal.HintCandidates(state.Round, viewer.ID, hints), nil
}

func (s *GameService) buy(ctx context.Context, viewer *domain.Character, hint domain.Hint) (*HintPurchase, error) {
	if viewer.Cash < hint.Cost {
		return nil, domain.ErrInsufficientFunds
	}

	remaining, err := s.store.BuyHint(ctx, hint.ID, viewer.ID, hint.Cost)
	if err != nil {
		return nil, fmt.Errorf("buying hint: %w", err)
	}

	s.logger.Info("hint purchased", "character_id", viewer.ID, "hint_id", hint.ID, "cost", hint.Cost)
	s.refreshCash(ctx, viewer.ID, remaining)

	hint.Bought = append(hint.Bought, domain.Unlock{CharacterID: viewer.ID})
	view := reveal.ProjectHint(hint, viewer.ID)
	view.Body = sanitize.HTML(view.Body)
	return &HintPurchase{Hint: view, RemainingCash: remaining}, nil
}
