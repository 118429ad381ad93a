package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/skip2/go-qrcode"
	"golang.org/x/sync/errgroup"

	"github.com/murder-mystery/internal/domain"
	"github.com/murder-mystery/internal/tally"
)

// BoardCash names the cash standings board
const BoardCash = "cash"

// GameBoard names the standings board of a game
func GameBoard(gameID int) string {
	return strconv.Itoa(gameID)
}

// ValidBoard reports whether board is a known standings board
func ValidBoard(board string) bool {
	switch board {
	case BoardCash, GameBoard(domain.GameSecrets), GameBoard(domain.GameQR):
		return true
	}
	return false
}

const qrImageSize = 320

// Dashboard is the admin aggregation view
type Dashboard struct {
	Round         domain.RoundState      `json:"round"`
	Votes         []domain.CategoryTally `json:"votes"`
	SecretRanking []domain.ScoreRanking  `json:"secret_ranking"`
	QRRanking     []domain.ScoreRanking  `json:"qr_ranking"`
	CashRanking   []domain.CashRanking   `json:"cash_ranking"`
}

// Dashboard loads every vote, user and character and computes the tallies
// and rankings. It has no side effects.
func (s *GameService) Dashboard(ctx context.Context, admin *domain.User) (*Dashboard, error) {
	if !admin.IsAdmin() {
		return nil, domain.ErrForbidden
	}

	var (
		state      *domain.RoundState
		users      []domain.User
		characters []domain.Character
		votes      []domain.Vote
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		state, err = s.CurrentRound(gctx)
		return err
	})
	g.Go(func() (err error) {
		users, err = s.store.ListUsers(gctx)
		return err
	})
	g.Go(func() (err error) {
		characters, err = s.store.ListCharacters(gctx)
		return err
	})
	g.Go(func() (err error) {
		votes, err = s.store.ListVotes(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("loading dashboard: %w", err)
	}

	dir := tally.NewDirectory(users, characters, s.config.ExcludedCharacterIDs)
	return &Dashboard{
		Round:         *state,
		Votes:         dir.AllVotes(votes),
		SecretRanking: dir.ScoreRankings(domain.GameSecrets),
		QRRanking:     dir.ScoreRankings(domain.GameQR),
		CashRanking:   dir.CashRankings(),
	}, nil
}

// Scoreboard returns the top of a standings board, from the realtime cache
// when available and computed from the store otherwise
func (s *GameService) Scoreboard(ctx context.Context, board string) ([]domain.StandingEntry, error) {
	if !ValidBoard(board) {
		return nil, fmt.Errorf("%w: unknown board %q", domain.ErrInvalidRequest, board)
	}

	if s.standings != nil {
		entries, err := s.standings.GetTopN(ctx, board, s.config.ScoreboardSize)
		if err == nil {
			return entries, nil
		}
		s.logger.Warn("standings cache read failed", "board", board, "error", err)
	}

	scores, err := s.boardScores(ctx, board)
	if err != nil {
		return nil, err
	}
	return rank(scores, s.config.ScoreboardSize), nil
}

// RebuildStandings rewrites every standings board from the store
func (s *GameService) RebuildStandings(ctx context.Context) error {
	if s.standings == nil {
		return nil
	}

	for _, board := range []string{GameBoard(domain.GameSecrets), GameBoard(domain.GameQR), BoardCash} {
		scores, err := s.boardScores(ctx, board)
		if err != nil {
			return err
		}
		if err := s.standings.ReplaceScores(ctx, board, scores); err != nil {
			return fmt.Errorf("rebuilding board %s: %w", board, err)
		}
		s.pushStandings(ctx, board)
	}
	return nil
}

// RefreshRound reloads the round from the store into the cache
func (s *GameService) RefreshRound(ctx context.Context) error {
	if s.rounds == nil {
		return nil
	}
	state, err := s.store.GetRound(ctx)
	if err != nil {
		return fmt.Errorf("loading round: %w", err)
	}
	return s.rounds.SetRound(ctx, *state)
}

func (s *GameService) boardScores(ctx context.Context, board string) (map[string]int64, error) {
	characters, err := s.store.ListCharacters(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing characters: %w", err)
	}

	scores := make(map[string]int64, len(characters))
	for _, c := range characters {
		if s.excluded[c.ID] {
			continue
		}
		if board == BoardCash {
			scores[c.ID] = c.Cash
			continue
		}
		gameID, _ := strconv.Atoi(board)
		if entry, ok := c.Score(gameID); ok {
			scores[c.ID] = entry.TotalScore
		}
	}
	return scores, nil
}

func rank(scores map[string]int64, n int) []domain.StandingEntry {
	entries := make([]domain.StandingEntry, 0, len(scores))
	for id, score := range scores {
		entries = append(entries, domain.StandingEntry{CharacterID: id, Score: score})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].CharacterID < entries[j].CharacterID
	})
	if n > 0 && len(entries) > n {
		entries = entries[:n]
	}
	for i := range entries {
		entries[i].Rank = int64(i + 1)
	}
	return entries
}

func (s *GameService) pushStandings(ctx context.Context, board string) {
	if s.notifier == nil || s.standings == nil {
		return
	}
	entries, err := s.standings.GetTopN(ctx, board, s.config.ScoreboardSize)
	if err != nil {
		s.logger.Warn("failed to read standings for broadcast", "board", board, "error", err)
		return
	}
	s.notifier.BroadcastStandings(board, entries)
}

// AnswerKeyQRCode renders the printable QR code of a game's answer key
func (s *GameService) AnswerKeyQRCode(ctx context.Context, admin *domain.User, gameID int, keyID string) ([]byte, error) {
	if !admin.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	key, err := s.store.GetAnswerKey(ctx, keyID)
	if err != nil {
		return nil, fmt.Errorf("loading answer key: %w", err)
	}
	if key.GameID != gameID {
		return nil, domain.ErrAnswerKeyNotFound
	}

	png, err := qrcode.Encode(key.Answer, qrcode.Medium, qrImageSize)
	if err != nil {
		return nil, fmt.Errorf("encoding qr code: %w", err)
	}
	return png, nil
}
