package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/murder-mystery/internal/domain"
)

// lockCharacter takes a row lock on a character and returns its cash
func lockCharacter(ctx context.Context, tx pgx.Tx, characterID string) (int64, error) {
	var cash int64
	err := tx.QueryRow(ctx, `SELECT cash FROM characters WHERE id = $1 FOR UPDATE`, characterID).Scan(&cash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrCharacterNotFound
		}
		return 0, fmt.Errorf("locking character: %w", err)
	}
	return cash, nil
}

// RecordSolve stores an accepted answer and adds its points in one
// transaction. QR words also unlock the game 3 clue carrying the word.
func (r *Repository) RecordSolve(ctx context.Context, solve domain.Solve) (*domain.SolveOutcome, error) {
	outcome := &domain.SolveOutcome{}
	solvedAt := solve.SolvedAt
	if solvedAt.IsZero() {
		solvedAt = time.Now()
	}

	err := r.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := lockCharacter(ctx, tx, solve.CharacterID); err != nil {
			return err
		}

		result, err := tx.Exec(ctx, `
			INSERT INTO score_details (character_id, game_id, category, detail_key, value, point_worth, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT DO NOTHING
		`, solve.CharacterID, solve.GameID, solve.Category, solve.DetailKey, solve.Value, solve.PointWorth, solvedAt)
		if err != nil {
			return fmt.Errorf("inserting score detail: %w", err)
		}
		if result.RowsAffected() == 0 {
			return domain.ErrAlreadySolved
		}

		err = tx.QueryRow(ctx, `
			INSERT INTO score_totals (character_id, game_id, total_score)
			VALUES ($1, $2, $3)
			ON CONFLICT (character_id, game_id)
			DO UPDATE SET total_score = score_totals.total_score + $3
			RETURNING total_score
		`, solve.CharacterID, solve.GameID, solve.PointWorth).Scan(&outcome.TotalScore)
		if err != nil {
			return fmt.Errorf("incrementing score total: %w", err)
		}

		if solve.UnlockWord == "" {
			return nil
		}
		return unlockClue(ctx, tx, solve, solvedAt, outcome)
	})
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

func unlockClue(ctx context.Context, tx pgx.Tx, solve domain.Solve, at time.Time, outcome *domain.SolveOutcome) error {
	var clueID string
	err := tx.QueryRow(ctx, `
		SELECT id FROM clues
		WHERE game_id = $1 AND word_id = $2
		ORDER BY id
		LIMIT 1
	`, domain.GameQR, solve.UnlockWord).Scan(&clueID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("finding clue for word: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO clue_unlocks (clue_id, character_id, locked, created_at)
		VALUES ($1, $2, FALSE, $3)
		ON CONFLICT (clue_id, character_id) DO NOTHING
	`, clueID, solve.CharacterID, at)
	if err != nil {
		return fmt.Errorf("unlocking clue: %w", err)
	}

	var locked bool
	err = tx.QueryRow(ctx, `
		SELECT locked FROM clue_unlocks WHERE clue_id = $1 AND character_id = $2
	`, clueID, solve.CharacterID).Scan(&locked)
	if err != nil {
		return fmt.Errorf("reading clue unlock: %w", err)
	}

	outcome.ClueID = clueID
	outcome.ClueUnlocked = !locked
	return nil
}

// BuyHint debits a character and records the purchase in one transaction
func (r *Repository) BuyHint(ctx context.Context, hintID, characterID string, cost int64) (int64, error) {
	var remaining int64

	err := r.inTx(ctx, func(tx pgx.Tx) error {
		cash, err := lockCharacter(ctx, tx, characterID)
		if err != nil {
			return err
		}
		if cash < cost {
			return domain.ErrInsufficientFunds
		}

		result, err := tx.Exec(ctx, `
			INSERT INTO hint_purchases (hint_id, character_id, locked, created_at)
			VALUES ($1, $2, FALSE, $3)
			ON CONFLICT (hint_id, character_id) DO NOTHING
		`, hintID, characterID, time.Now())
		if err != nil {
			if isForeignKeyViolation(err) {
				return domain.ErrHintNotFound
			}
			return fmt.Errorf("recording purchase: %w", err)
		}
		if result.RowsAffected() == 0 {
			return domain.ErrHintAlreadyBought
		}

		err = tx.QueryRow(ctx, `
			UPDATE characters SET cash = cash - $2 WHERE id = $1 RETURNING cash
		`, characterID, cost).Scan(&remaining)
		if err != nil {
			return fmt.Errorf("debiting character: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return remaining, nil
}

// Transfer moves cash between two characters in one transaction. Rows are
// locked in id order so concurrent opposite transfers cannot deadlock.
func (r *Repository) Transfer(ctx context.Context, fromID, toID string, amount int64) (int64, error) {
	var remaining int64

	err := r.inTx(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			SELECT id, cash FROM characters
			WHERE id = ANY($1)
			ORDER BY id
			FOR UPDATE
		`, []string{fromID, toID})
		if err != nil {
			return fmt.Errorf("locking characters: %w", err)
		}
		balances := make(map[string]int64, 2)
		for rows.Next() {
			var (
				id   string
				cash int64
			)
			if err := rows.Scan(&id, &cash); err != nil {
				rows.Close()
				return fmt.Errorf("scanning balance: %w", err)
			}
			balances[id] = cash
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("locking characters: %w", err)
		}

		fromCash, ok := balances[fromID]
		if !ok {
			return fmt.Errorf("sender: %w", domain.ErrCharacterNotFound)
		}
		if _, ok := balances[toID]; !ok {
			return fmt.Errorf("recipient: %w", domain.ErrCharacterNotFound)
		}
		if fromCash < amount {
			return domain.ErrInsufficientFunds
		}

		batch := &pgx.Batch{}
		batch.Queue(`UPDATE characters SET cash = cash - $2 WHERE id = $1 RETURNING cash`, fromID, amount).
			QueryRow(func(row pgx.Row) error {
				return row.Scan(&remaining)
			})
		batch.Queue(`UPDATE characters SET cash = cash + $2 WHERE id = $1`, toID, amount)
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("moving cash: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return remaining, nil
}

// PutVote writes a ballot under its composite id
func (r *Repository) PutVote(ctx context.Context, vote domain.Vote, overwrite bool) error {
	query := `
		INSERT INTO votes (id, category, voter_id, voted_for, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`
	if overwrite {
		query = `
			INSERT INTO votes (id, category, voter_id, voted_for, created_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id)
			DO UPDATE SET voted_for = $4, created_at = $5
		`
	}

	result, err := r.pool.Exec(ctx, query, vote.ID, vote.Category, vote.VoterID, vote.VotedFor, vote.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyVoted
		}
		return fmt.Errorf("storing vote: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrAlreadyVoted
	}
	return nil
}

// GetVote retrieves a ballot by composite id
func (r *Repository) GetVote(ctx context.Context, voteID string) (*domain.Vote, error) {
	query := `SELECT id, category, voter_id, voted_for, created_at FROM votes WHERE id = $1`
	var v domain.Vote
	err := r.pool.QueryRow(ctx, query, voteID).Scan(&v.ID, &v.Category, &v.VoterID, &v.VotedFor, &v.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrVoteNotFound
		}
		return nil, fmt.Errorf("getting vote: %w", err)
	}
	return &v, nil
}

// ListVotes retrieves every ballot
func (r *Repository) ListVotes(ctx context.Context) ([]domain.Vote, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, category, voter_id, voted_for, created_at FROM votes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing votes: %w", err)
	}
	defer rows.Close()

	var votes []domain.Vote
	for rows.Next() {
		var v domain.Vote
		if err := rows.Scan(&v.ID, &v.Category, &v.VoterID, &v.VotedFor, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning vote: %w", err)
		}
		votes = append(votes, v)
	}
	return votes, rows.Err()
}
