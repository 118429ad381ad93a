package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/murder-mystery/internal/domain"
)

// GetUser retrieves a user by id
func (r *Repository) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	query := `
		SELECT id, username, permission, COALESCE(character_id, '')
		FROM users
		WHERE id = $1
	`
	var u domain.User
	err := r.pool.QueryRow(ctx, query, userID).Scan(&u.ID, &u.Username, &u.Permission, &u.CharacterID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return &u, nil
}

// ListUsers retrieves every user
func (r *Repository) ListUsers(ctx context.Context) ([]domain.User, error) {
	query := `SELECT id, username, permission, COALESCE(character_id, '') FROM users ORDER BY id`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Permission, &u.CharacterID); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

const characterColumns = `id, first_name, last_name, job, relationship_to_deceased, bio, cash`

func scanCharacter(row pgx.Row) (domain.Character, error) {
	var c domain.Character
	err := row.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Job, &c.RelationshipToDeceased, &c.Bio, &c.Cash)
	return c, err
}

// GetCharacter retrieves a character with its scores and objectives
func (r *Repository) GetCharacter(ctx context.Context, characterID string) (*domain.Character, error) {
	query := `SELECT ` + characterColumns + ` FROM characters WHERE id = $1`
	c, err := scanCharacter(r.pool.QueryRow(ctx, query, characterID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCharacterNotFound
		}
		return nil, fmt.Errorf("getting character: %w", err)
	}

	scores, err := r.loadScores(ctx, characterID)
	if err != nil {
		return nil, err
	}
	c.Scores = scores[characterID]

	objectives, err := r.pool.Query(ctx, `
		SELECT id, body FROM objectives
		WHERE character_id = $1
		ORDER BY position, id
	`, characterID)
	if err != nil {
		return nil, fmt.Errorf("listing objectives: %w", err)
	}
	defer objectives.Close()

	for objectives.Next() {
		var o domain.Objective
		if err := objectives.Scan(&o.ID, &o.Body); err != nil {
			return nil, fmt.Errorf("scanning objective: %w", err)
		}
		c.Objectives = append(c.Objectives, o)
	}
	if err := objectives.Err(); err != nil {
		return nil, fmt.Errorf("listing objectives: %w", err)
	}
	return &c, nil
}

// ListCharacters retrieves every character with scores
func (r *Repository) ListCharacters(ctx context.Context) ([]domain.Character, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+characterColumns+` FROM characters ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing characters: %w", err)
	}
	defer rows.Close()

	var characters []domain.Character
	for rows.Next() {
		c, err := scanCharacter(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning character: %w", err)
		}
		characters = append(characters, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing characters: %w", err)
	}

	scores, err := r.loadScores(ctx, "")
	if err != nil {
		return nil, err
	}
	for i := range characters {
		characters[i].Scores = scores[characters[i].ID]
	}
	return characters, nil
}

// loadScores assembles score entries keyed by character and game id. An
// empty characterID loads every character.
func (r *Repository) loadScores(ctx context.Context, characterID string) (map[string]map[int]domain.ScoreEntry, error) {
	scores := make(map[string]map[int]domain.ScoreEntry)

	totals, err := r.pool.Query(ctx, `
		SELECT character_id, game_id, total_score
		FROM score_totals
		WHERE $1 = '' OR character_id = $1
	`, characterID)
	if err != nil {
		return nil, fmt.Errorf("listing score totals: %w", err)
	}
	for totals.Next() {
		var (
			id     string
			gameID int
			total  int64
		)
		if err := totals.Scan(&id, &gameID, &total); err != nil {
			totals.Close()
			return nil, fmt.Errorf("scanning score total: %w", err)
		}
		if scores[id] == nil {
			scores[id] = make(map[int]domain.ScoreEntry)
		}
		scores[id][gameID] = domain.ScoreEntry{TotalScore: total}
	}
	totals.Close()
	if err := totals.Err(); err != nil {
		return nil, fmt.Errorf("listing score totals: %w", err)
	}

	details, err := r.pool.Query(ctx, `
		SELECT character_id, game_id, category, detail_key, value, point_worth, created_at
		FROM score_details
		WHERE $1 = '' OR character_id = $1
		ORDER BY id
	`, characterID)
	if err != nil {
		return nil, fmt.Errorf("listing score details: %w", err)
	}
	defer details.Close()

	for details.Next() {
		var (
			id       string
			gameID   int
			category domain.AnswerCategory
			answer   domain.SolvedAnswer
		)
		if err := details.Scan(&id, &gameID, &category, &answer.Key, &answer.Value, &answer.PointWorth, &answer.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning score detail: %w", err)
		}
		if scores[id] == nil {
			scores[id] = make(map[int]domain.ScoreEntry)
		}
		entry := scores[id][gameID]
		entry.Details.Add(category, answer)
		scores[id][gameID] = entry
	}
	return scores, details.Err()
}

// ListNotes returns a user's notes and suspect flags keyed by character id
func (r *Repository) ListNotes(ctx context.Context, userID string) (map[string]domain.UserNotes, error) {
	out := make(map[string]domain.UserNotes)

	suspects, err := r.pool.Query(ctx, `
		SELECT character_id, is_suspect FROM character_suspects WHERE user_id = $1
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing suspects: %w", err)
	}
	for suspects.Next() {
		var (
			id      string
			suspect bool
		)
		if err := suspects.Scan(&id, &suspect); err != nil {
			suspects.Close()
			return nil, fmt.Errorf("scanning suspect: %w", err)
		}
		entry := out[id]
		entry.IsSuspect = suspect
		out[id] = entry
	}
	suspects.Close()
	if err := suspects.Err(); err != nil {
		return nil, fmt.Errorf("listing suspects: %w", err)
	}

	notes, err := r.pool.Query(ctx, `
		SELECT character_id, id, text, created_at
		FROM character_notes
		WHERE user_id = $1
		ORDER BY created_at, id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing notes: %w", err)
	}
	defer notes.Close()

	for notes.Next() {
		var (
			id   string
			note domain.Note
		)
		if err := notes.Scan(&id, &note.ID, &note.Text, &note.Timestamp); err != nil {
			return nil, fmt.Errorf("scanning note: %w", err)
		}
		entry := out[id]
		entry.Notes = append(entry.Notes, note)
		out[id] = entry
	}
	return out, notes.Err()
}

// AddNote stores a note a user keeps about a character
func (r *Repository) AddNote(ctx context.Context, characterID, userID string, note domain.Note) error {
	query := `
		INSERT INTO character_notes (id, character_id, user_id, text, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.pool.Exec(ctx, query, note.ID, characterID, userID, note.Text, note.Timestamp)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrCharacterNotFound
		}
		return fmt.Errorf("adding note: %w", err)
	}
	return nil
}

// DeleteNote removes one of a user's notes
func (r *Repository) DeleteNote(ctx context.Context, characterID, userID, noteID string) error {
	query := `DELETE FROM character_notes WHERE id = $1 AND character_id = $2 AND user_id = $3`
	result, err := r.pool.Exec(ctx, query, noteID, characterID, userID)
	if err != nil {
		return fmt.Errorf("deleting note: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNoteNotFound
	}
	return nil
}

// SetSuspect flags or unflags a character for a user
func (r *Repository) SetSuspect(ctx context.Context, characterID, userID string, suspect bool) error {
	query := `
		INSERT INTO character_suspects (character_id, user_id, is_suspect)
		VALUES ($1, $2, $3)
		ON CONFLICT (character_id, user_id)
		DO UPDATE SET is_suspect = $3
	`
	_, err := r.pool.Exec(ctx, query, characterID, userID, suspect)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrCharacterNotFound
		}
		return fmt.Errorf("setting suspect: %w", err)
	}
	return nil
}
