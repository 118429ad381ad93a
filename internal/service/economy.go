package service

import (
	"context"
	"fmt"

	"github.com/murder-mystery/internal/domain"
)

// Recipient is a character cash can be sent to
type Recipient struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Recipients lists transfer targets: everyone but the viewer and the
// hidden placeholder characters
func (s *GameService) Recipients(ctx context.Context, user *domain.User) ([]Recipient, error) {
	characters, err := s.store.ListCharacters(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing characters: %w", err)
	}

	recipients := make([]Recipient, 0, len(characters))
	for _, c := range characters {
		if s.hidden[c.ID] || c.ID == user.CharacterID {
			continue
		}
		recipients = append(recipients, Recipient{ID: c.ID, FirstName: c.FirstName, LastName: c.LastName})
	}
	return recipients, nil
}

// TransferResult reports the sender's balance after a transfer
type TransferResult struct {
	To            string `json:"to"`
	Amount        int64  `json:"amount"`
	RemainingCash int64  `json:"remaining_cash"`
}

// Transfer sends cash from the viewer's character to another character.
// Both balances change together or not at all.
func (s *GameService) Transfer(ctx context.Context, user *domain.User, toID string, amount int64) (*TransferResult, error) {
	if toID == "" || toID == user.CharacterID || s.hidden[toID] {
		return nil, domain.ErrInvalidRecipient
	}
	return s.move(ctx, user, toID, amount)
}

// Pot is the shared poker pot
type Pot struct {
	ID   string `json:"id"`
	Cash int64  `json:"cash"`
}

// Pot returns the pot balance
func (s *GameService) Pot(ctx context.Context) (*Pot, error) {
	c, err := s.store.GetCharacter(ctx, s.config.PotCharacterID)
	if err != nil {
		return nil, fmt.Errorf("loading pot: %w", err)
	}
	return &Pot{ID: c.ID, Cash: c.Cash}, nil
}

// ContributeToPot moves cash from the viewer into the pot
func (s *GameService) ContributeToPot(ctx context.Context, user *domain.User, amount int64) (*TransferResult, error) {
	if user.CharacterID == s.config.PotCharacterID {
		return nil, domain.ErrInvalidRecipient
	}
	return s.move(ctx, user, s.config.PotCharacterID, amount)
}

func (s *GameService) move(ctx context.Context, user *domain.User, toID string, amount int64) (*TransferResult, error) {
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	if user.CharacterID == "" {
		return nil, domain.ErrCharacterNotFound
	}

	remaining, err := s.store.Transfer(ctx, user.CharacterID, toID, amount)
	if err != nil {
		return nil, fmt.Errorf("transferring cash: %w", err)
	}

	s.logger.Info("cash transferred",
		"from", user.CharacterID,
		"to", toID,
		"amount", amount,
	)

	s.refreshCash(ctx, user.CharacterID, remaining)
	if s.standings != nil {
		if to, err := s.store.GetCharacter(ctx, toID); err == nil {
			s.refreshCash(ctx, toID, to.Cash)
		}
	}

	return &TransferResult{To: toID, Amount: amount, RemainingCash: remaining}, nil
}

// refreshCash mirrors a balance into the realtime cash board
func (s *GameService) refreshCash(ctx context.Context, characterID string, cash int64) {
	if s.standings == nil || s.excluded[characterID] {
		return
	}
	if err := s.standings.SetScore(ctx, BoardCash, characterID, cash); err != nil {
		s.logger.Warn("failed to update cash standings", "character_id", characterID, "error", err)
		return
	}
	s.pushStandings(ctx, BoardCash)
}
