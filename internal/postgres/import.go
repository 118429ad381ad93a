package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/murder-mystery/internal/seed"
)

// Import upserts a seed document in a single transaction. Existing rows
// keep their play state: cash, scores, unlocks and votes are not reset.
func (r *Repository) Import(ctx context.Context, s *seed.Seed) error {
	now := time.Now()
	batch := &pgx.Batch{}

	for _, c := range s.Characters {
		batch.Queue(`
			INSERT INTO characters (id, first_name, last_name, job, relationship_to_deceased, bio, cash)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id)
			DO UPDATE SET first_name = $2, last_name = $3, job = $4, relationship_to_deceased = $5, bio = $6
		`, c.ID, c.FirstName, c.LastName, c.Job, c.RelationshipToDeceased, c.Bio, c.Cash)

		for i, o := range c.Objectives {
			batch.Queue(`
				INSERT INTO objectives (character_id, id, position, body)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (character_id, id)
				DO UPDATE SET position = $3, body = $4
			`, c.ID, o.ID, i, o.Body)
		}
	}

	for _, u := range s.Users {
		batch.Queue(`
			INSERT INTO users (id, username, permission, character_id)
			VALUES ($1, $2, COALESCE(NULLIF($3, ''), 'player'), $4)
			ON CONFLICT (id)
			DO UPDATE SET username = $2, permission = COALESCE(NULLIF($3, ''), 'player'), character_id = $4
		`, u.ID, u.Username, string(u.Permission), nullable(u.CharacterID))
	}

	for _, k := range s.AnswerKeys {
		batch.Queue(`
			INSERT INTO answer_keys (id, game_id, category, answer, point_worth, character_id)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id)
			DO UPDATE SET game_id = $2, category = $3, answer = $4, point_worth = $5, character_id = $6
		`, k.ID, k.GameID, string(k.Category), k.Answer, k.PointWorth, nullable(k.CharacterID))
	}

	for _, c := range s.Clues {
		batch.Queue(`
			INSERT INTO clues (id, round, character_id, game_id, word_id, clue, concealed_clue)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id)
			DO UPDATE SET round = $2, character_id = $3, game_id = $4, word_id = $5, clue = $6, concealed_clue = $7
		`, c.ID, c.Round, nullable(c.CharacterID), c.GameID, c.WordID, []string(c.Text), []string(c.Concealed))

		for _, u := range c.Solved {
			batch.Queue(`
				INSERT INTO clue_unlocks (clue_id, character_id, locked, created_at)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (clue_id, character_id) DO NOTHING
			`, c.ID, u.CharacterID, u.Locked, createdAt(u.CreatedAt, now))
		}
	}

	for _, h := range s.Hints {
		batch.Queue(`
			INSERT INTO hints (id, round, character_id, cost, title, body)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id)
			DO UPDATE SET round = $2, character_id = $3, cost = $4, title = $5, body = $6
		`, h.ID, h.Round, nullable(h.CharacterID), h.Cost, h.Title, h.Body)

		for _, u := range h.Bought {
			batch.Queue(`
				INSERT INTO hint_purchases (hint_id, character_id, locked, created_at)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (hint_id, character_id) DO NOTHING
			`, h.ID, u.CharacterID, u.Locked, createdAt(u.CreatedAt, now))
		}
	}

	for _, f := range s.CaseFiles {
		batch.Queue(`
			INSERT INTO case_files (id, round, url, title)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (id)
			DO UPDATE SET round = $2, url = $3, title = $4
		`, f.ID, f.Round, f.URL, f.Title)
	}

	batch.Queue(`
		UPDATE admin_state SET round = $1, updated_by = 'seed', updated_at = $2
		WHERE id = 1 AND version = 0
	`, s.Round, now)

	err := r.inTx(ctx, func(tx pgx.Tx) error {
		br := tx.SendBatch(ctx, batch)
		for i := 0; i < batch.Len(); i++ {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return fmt.Errorf("importing seed statement %d: %w", i, err)
			}
		}
		return br.Close()
	})
	if err != nil {
		return err
	}

	r.logger.Info("seed imported",
		"characters", len(s.Characters),
		"users", len(s.Users),
		"answer_keys", len(s.AnswerKeys),
		"clues", len(s.Clues),
		"hints", len(s.Hints),
		"case_files", len(s.CaseFiles),
	)
	return nil
}

func createdAt(t, fallback time.Time) time.Time {
	if t.IsZero() {
		return fallback
	}
	return t
}
