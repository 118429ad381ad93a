package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/murder-mystery/internal/domain"
)

// Guest is one row of the guest list, carrying the viewer's private notes
type Guest struct {
	ID                     string        `json:"id"`
	FirstName              string        `json:"first_name"`
	LastName               string        `json:"last_name"`
	Job                    string        `json:"job"`
	RelationshipToDeceased string        `json:"relationship_to_deceased"`
	Bio                    string        `json:"bio"`
	Cash                   int64         `json:"cash"`
	SecretScore            int64         `json:"secret_score"`
	QRScore                int64         `json:"qr_score"`
	IsSuspect              bool          `json:"is_suspect"`
	Notes                  []domain.Note `json:"notes_list"`
}

// Guests lists every character except the pot
func (s *GameService) Guests(ctx context.Context, user *domain.User) ([]Guest, error) {
	characters, err := s.store.ListCharacters(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing characters: %w", err)
	}
	notes, err := s.store.ListNotes(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("listing notes: %w", err)
	}

	guests := make([]Guest, 0, len(characters))
	for _, c := range characters {
		if c.ID == s.config.PotCharacterID {
			continue
		}
		entry := notes[c.ID]
		list := entry.Notes
		if list == nil {
			list = []domain.Note{}
		}
		guests = append(guests, Guest{
			ID:                     c.ID,
			FirstName:              c.FirstName,
			LastName:               c.LastName,
			Job:                    c.Job,
			RelationshipToDeceased: c.RelationshipToDeceased,
			Bio:                    c.Bio,
			Cash:                   c.Cash,
			SecretScore:            c.TotalScore(domain.GameSecrets),
			QRScore:                c.TotalScore(domain.GameQR),
			IsSuspect:              entry.IsSuspect,
			Notes:                  list,
		})
	}
	return guests, nil
}

// AddNote stores a private note about a character
func (s *GameService) AddNote(ctx context.Context, user *domain.User, characterID, text string) (*domain.Note, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.ErrEmptyNote
	}

	note := domain.Note{
		ID:        uuid.New().String(),
		Text:      text,
		Timestamp: time.Now(),
	}
	if err := s.store.AddNote(ctx, characterID, user.ID, note); err != nil {
		return nil, fmt.Errorf("adding note: %w", err)
	}
	return &note, nil
}

// DeleteNote removes one of the viewer's notes
func (s *GameService) DeleteNote(ctx context.Context, user *domain.User, characterID, noteID string) error {
	if err := s.store.DeleteNote(ctx, characterID, user.ID, noteID); err != nil {
		return fmt.Errorf("deleting note: %w", err)
	}
	return nil
}

// SetSuspect flags or unflags a character as the viewer's suspect
func (s *GameService) SetSuspect(ctx context.Context, user *domain.User, characterID string, suspect bool) error {
	if err := s.store.SetSuspect(ctx, characterID, user.ID, suspect); err != nil {
		return fmt.Errorf("setting suspect: %w", err)
	}
	return nil
}
