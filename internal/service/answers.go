package service

import (
	"context"
	"fmt"
	"time"

	"github.com/murder-mystery/internal/domain"
	"github.com/murder-mystery/internal/scoring"
)

// Submit checks an answer for the submitting character and records it when
// correct. Already solved values are rejected before any key lookup so a
// repeated answer never scores twice.
func (s *GameService) Submit(ctx context.Context, sub domain.Submission) (*domain.SubmitResult, error) {
	if err := scoring.Validate(sub, s.slots()); err != nil {
		return nil, err
	}

	character, err := s.store.GetCharacter(ctx, sub.CharacterID)
	if err != nil {
		return nil, fmt.Errorf("loading character: %w", err)
	}

	gameID := sub.Category.GameID()
	value := scoring.Normalize(sub.Answer)
	detailKey := scoring.DetailKey(sub.Category, sub.Index, value)

	var details domain.ScoreDetails
	if entry, ok := character.Score(gameID); ok {
		details = entry.Details
	}
	if scoring.AlreadySolved(details, sub.Category, value) {
		return nil, domain.ErrAlreadySolved
	}
	if details.HasKey(sub.Category, detailKey) {
		return nil, fmt.Errorf("%w: slot %d is already filled", domain.ErrAlreadySolved, sub.Index)
	}

	keys, err := s.answerKeysFor(ctx, gameID)
	if err != nil {
		return nil, err
	}
	key, ok := scoring.Match(keys, sub.Category, value, character.ID)
	if !ok {
		return nil, domain.ErrIncorrectAnswer
	}

	solve := domain.Solve{
		CharacterID: character.ID,
		GameID:      gameID,
		Category:    sub.Category,
		DetailKey:   detailKey,
		Value:       value,
		PointWorth:  key.PointWorth,
		SolvedAt:    time.Now(),
	}
	if sub.Category == domain.CategoryQR {
		solve.UnlockWord = value
	}

	outcome, err := s.store.RecordSolve(ctx, solve)
	if err != nil {
		return nil, fmt.Errorf("recording solve: %w", err)
	}

	s.logger.Info("answer accepted",
		"character_id", character.ID,
		"category", sub.Category,
		"points", key.PointWorth,
		"total", outcome.TotalScore,
		"clue_unlocked", outcome.ClueUnlocked,
	)

	if s.standings != nil && !s.excluded[character.ID] {
		board := GameBoard(gameID)
		if _, err := s.standings.IncrementScore(ctx, board, character.ID, key.PointWorth); err != nil {
			s.logger.Warn("failed to update standings", "board", board, "error", err)
		} else {
			s.pushStandings(ctx, board)
		}
	}

	return &domain.SubmitResult{
		Accepted:      true,
		PointsAwarded: key.PointWorth,
		TotalScore:    outcome.TotalScore,
		ClueUnlocked:  outcome.ClueUnlocked,
		ClueID:        outcome.ClueID,
	}, nil
}

// SubmitBatch submits kiosk answers one by one, logging rejections, and
// returns how many were accepted
func (s *GameService) SubmitBatch(ctx context.Context, subs []domain.Submission) int {
	accepted := 0
	for _, sub := range subs {
		if _, err := s.Submit(ctx, sub); err != nil {
			s.logger.Warn("kiosk submission rejected",
				"character_id", sub.CharacterID,
				"category", sub.Category,
				"error", err,
			)
			// Continue processing other submissions
			continue
		}
		accepted++
	}
	return accepted
}

// AnswerSlot is one input box of the secrets page
type AnswerSlot struct {
	Index      int    `json:"index"`
	Key        string `json:"key"`
	Solved     bool   `json:"solved"`
	Value      string `json:"value,omitempty"`
	PointWorth int64  `json:"point_worth,omitempty"`
}

// SecretsBoard is the game 2 page of a character
type SecretsBoard struct {
	TotalScore int64        `json:"total_score"`
	Secrets    []AnswerSlot `json:"secrets"`
	Rumors     []AnswerSlot `json:"rumors"`
}

// Secrets returns the viewer's secret and rumor slots
func (s *GameService) Secrets(ctx context.Context, user *domain.User) (*SecretsBoard, error) {
	c, err := s.viewerCharacter(ctx, user)
	if err != nil {
		return nil, err
	}
	entry, _ := c.Score(domain.GameSecrets)

	return &SecretsBoard{
		TotalScore: entry.TotalScore,
		Secrets:    answerSlots(domain.CategorySecret, s.config.SecretSlots, entry.Details.Secrets),
		Rumors:     answerSlots(domain.CategoryRumor, s.config.RumorSlots, entry.Details.Rumors),
	}, nil
}

func answerSlots(category domain.AnswerCategory, n int, solved map[string]domain.SolvedAnswer) []AnswerSlot {
	slots := make([]AnswerSlot, n)
	for i := range slots {
		key := scoring.DetailKey(category, i, "")
		slots[i] = AnswerSlot{Index: i, Key: key}
		if answer, ok := solved[key]; ok {
			slots[i].Solved = true
			slots[i].Value = answer.Value
			slots[i].PointWorth = answer.PointWorth
		}
	}
	return slots
}

// QRBoard is the game 3 page of a character
type QRBoard struct {
	TotalScore     int64                 `json:"total_score"`
	WordSlots      int                   `json:"word_slots"`
	SentenceWords  int                   `json:"sentence_words"`
	Words          []domain.SolvedAnswer `json:"words"`
	SentenceSolved bool                  `json:"sentence_solved"`
}

// QR returns the viewer's solved words and sentence state
func (s *GameService) QR(ctx context.Context, user *domain.User) (*QRBoard, error) {
	c, err := s.viewerCharacter(ctx, user)
	if err != nil {
		return nil, err
	}
	entry, _ := c.Score(domain.GameQR)

	words := entry.Details.Word
	if words == nil {
		words = []domain.SolvedAnswer{}
	}
	return &QRBoard{
		TotalScore:     entry.TotalScore,
		WordSlots:      s.config.QRWordSlots,
		SentenceWords:  s.config.SentenceWords,
		Words:          words,
		SentenceSolved: len(entry.Details.Sentence) > 0,
	}, nil
}
