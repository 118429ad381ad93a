package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/murder-mystery/internal/domain"
)

// GetRound returns the round gate
func (r *Repository) GetRound(ctx context.Context) (*domain.RoundState, error) {
	query := `SELECT round, version, updated_by, updated_at FROM admin_state WHERE id = 1`
	var s domain.RoundState
	err := r.pool.QueryRow(ctx, query).Scan(&s.Round, &s.Version, &s.UpdatedBy, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRoundStateNotFound
		}
		return nil, fmt.Errorf("getting round: %w", err)
	}
	return &s, nil
}

// SetRound stores a new round and bumps its version
func (r *Repository) SetRound(ctx context.Context, round int, updatedBy string) (*domain.RoundState, error) {
	query := `
		UPDATE admin_state
		SET round = $1, version = version + 1, updated_by = $2, updated_at = $3
		WHERE id = 1
		RETURNING round, version, updated_by, updated_at
	`
	var s domain.RoundState
	err := r.pool.QueryRow(ctx, query, round, updatedBy, time.Now()).Scan(&s.Round, &s.Version, &s.UpdatedBy, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRoundStateNotFound
		}
		return nil, fmt.Errorf("setting round: %w", err)
	}
	return &s, nil
}

// ListClues retrieves every clue with its solvers
func (r *Repository) ListClues(ctx context.Context) ([]domain.Clue, error) {
	query := `
		SELECT id, round, COALESCE(character_id, ''), game_id, word_id, clue, concealed_clue
		FROM clues
		ORDER BY round, id
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing clues: %w", err)
	}

	var clues []domain.Clue
	index := make(map[string]int)
	for rows.Next() {
		var c domain.Clue
		if err := rows.Scan(&c.ID, &c.Round, &c.CharacterID, &c.GameID, &c.WordID, &c.Text, &c.Concealed); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning clue: %w", err)
		}
		index[c.ID] = len(clues)
		clues = append(clues, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing clues: %w", err)
	}

	unlocks, err := r.listUnlocks(ctx, `SELECT clue_id, character_id, locked, created_at FROM clue_unlocks ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	for id, list := range unlocks {
		if i, ok := index[id]; ok {
			clues[i].Solved = list
		}
	}
	return clues, nil
}

// ListHints retrieves every hint with its buyers
func (r *Repository) ListHints(ctx context.Context) ([]domain.Hint, error) {
	query := `
		SELECT id, round, COALESCE(character_id, ''), cost, title, body
		FROM hints
		ORDER BY round, id
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing hints: %w", err)
	}

	var hints []domain.Hint
	index := make(map[string]int)
	for rows.Next() {
		var h domain.Hint
		if err := rows.Scan(&h.ID, &h.Round, &h.CharacterID, &h.Cost, &h.Title, &h.Body); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning hint: %w", err)
		}
		index[h.ID] = len(hints)
		hints = append(hints, h)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing hints: %w", err)
	}

	purchases, err := r.listUnlocks(ctx, `SELECT hint_id, character_id, locked, created_at FROM hint_purchases ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	for id, list := range purchases {
		if i, ok := index[id]; ok {
			hints[i].Bought = list
		}
	}
	return hints, nil
}

func (r *Repository) listUnlocks(ctx context.Context, query string) (map[string][]domain.Unlock, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing unlocks: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]domain.Unlock)
	for rows.Next() {
		var (
			id string
			u  domain.Unlock
		)
		if err := rows.Scan(&id, &u.CharacterID, &u.Locked, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning unlock: %w", err)
		}
		out[id] = append(out[id], u)
	}
	return out, rows.Err()
}

// ListCaseFiles retrieves every case file
func (r *Repository) ListCaseFiles(ctx context.Context) ([]domain.CaseFile, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, round, url, title FROM case_files ORDER BY round, id`)
	if err != nil {
		return nil, fmt.Errorf("listing case files: %w", err)
	}
	defer rows.Close()

	var files []domain.CaseFile
	for rows.Next() {
		var f domain.CaseFile
		if err := rows.Scan(&f.ID, &f.Round, &f.URL, &f.Title); err != nil {
			return nil, fmt.Errorf("scanning case file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

const answerKeyColumns = `id, game_id, category, answer, point_worth, COALESCE(character_id, '')`

func scanAnswerKey(row pgx.Row) (domain.AnswerKey, error) {
	var k domain.AnswerKey
	err := row.Scan(&k.ID, &k.GameID, &k.Category, &k.Answer, &k.PointWorth, &k.CharacterID)
	return k, err
}

// ListAnswerKeys retrieves the answer keys of a game
func (r *Repository) ListAnswerKeys(ctx context.Context, gameID int) ([]domain.AnswerKey, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+answerKeyColumns+` FROM answer_keys WHERE game_id = $1 ORDER BY id`, gameID)
	if err != nil {
		return nil, fmt.Errorf("listing answer keys: %w", err)
	}
	defer rows.Close()

	var keys []domain.AnswerKey
	for rows.Next() {
		k, err := scanAnswerKey(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning answer key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// GetAnswerKey retrieves one answer key
func (r *Repository) GetAnswerKey(ctx context.Context, keyID string) (*domain.AnswerKey, error) {
	k, err := scanAnswerKey(r.pool.QueryRow(ctx, `SELECT `+answerKeyColumns+` FROM answer_keys WHERE id = $1`, keyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAnswerKeyNotFound
		}
		return nil, fmt.Errorf("getting answer key: %w", err)
	}
	return &k, nil
}
