package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/murder-mystery/internal/config"
)

// PostgreSQL error codes the repository maps to domain errors
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// Repository provides PostgreSQL-based data access
type Repository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewRepository creates a new PostgreSQL repository
func NewRepository(cfg *config.PostgresConfig, logger *slog.Logger) (*Repository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConnections)
	poolConfig.MinConns = int32(cfg.MinConnections)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return &Repository{
		pool:   pool,
		logger: logger,
	}, nil
}

// Close closes the database connection pool
func (r *Repository) Close() {
	r.pool.Close()
}

// Ping checks the database connection
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// RunMigrations executes database migrations
func (r *Repository) RunMigrations(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS characters (
			id VARCHAR(64) PRIMARY KEY,
			first_name VARCHAR(255) NOT NULL DEFAULT '',
			last_name VARCHAR(255) NOT NULL DEFAULT '',
			job VARCHAR(255) NOT NULL DEFAULT '',
			relationship_to_deceased TEXT NOT NULL DEFAULT '',
			bio TEXT NOT NULL DEFAULT '',
			cash BIGINT NOT NULL DEFAULT 0 CHECK (cash >= 0)
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			id VARCHAR(128) PRIMARY KEY,
			username VARCHAR(255) NOT NULL,
			permission VARCHAR(16) NOT NULL DEFAULT 'player',
			character_id VARCHAR(64) REFERENCES characters(id)
		)`,
		`CREATE TABLE IF NOT EXISTS objectives (
			character_id VARCHAR(64) NOT NULL REFERENCES characters(id) ON DELETE CASCADE,
			id VARCHAR(64) NOT NULL,
			position INT NOT NULL DEFAULT 0,
			body TEXT NOT NULL,
			PRIMARY KEY (character_id, id)
		)`,
		`CREATE TABLE IF NOT EXISTS admin_state (
			id SMALLINT PRIMARY KEY CHECK (id = 1),
			round INT NOT NULL DEFAULT 0,
			version BIGINT NOT NULL DEFAULT 0,
			updated_by VARCHAR(255) NOT NULL DEFAULT '',
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`INSERT INTO admin_state (id) VALUES (1) ON CONFLICT (id) DO NOTHING`,
		`CREATE TABLE IF NOT EXISTS answer_keys (
			id VARCHAR(64) PRIMARY KEY,
			game_id INT NOT NULL,
			category VARCHAR(16) NOT NULL,
			answer TEXT NOT NULL,
			point_worth BIGINT NOT NULL,
			character_id VARCHAR(64) REFERENCES characters(id)
		)`,
		`CREATE TABLE IF NOT EXISTS clues (
			id VARCHAR(64) PRIMARY KEY,
			round INT NOT NULL,
			character_id VARCHAR(64),
			game_id INT NOT NULL DEFAULT 0,
			word_id VARCHAR(255) NOT NULL DEFAULT '',
			clue JSONB,
			concealed_clue JSONB
		)`,
		`CREATE TABLE IF NOT EXISTS clue_unlocks (
			clue_id VARCHAR(64) NOT NULL REFERENCES clues(id) ON DELETE CASCADE,
			character_id VARCHAR(64) NOT NULL REFERENCES characters(id),
			locked BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (clue_id, character_id)
		)`,
		`CREATE TABLE IF NOT EXISTS hints (
			id VARCHAR(64) PRIMARY KEY,
			round INT NOT NULL,
			character_id VARCHAR(64),
			cost BIGINT NOT NULL,
			title VARCHAR(255) NOT NULL,
			body TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS hint_purchases (
			hint_id VARCHAR(64) NOT NULL REFERENCES hints(id) ON DELETE CASCADE,
			character_id VARCHAR(64) NOT NULL REFERENCES characters(id),
			locked BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (hint_id, character_id)
		)`,
		`CREATE TABLE IF NOT EXISTS case_files (
			id VARCHAR(64) PRIMARY KEY,
			round INT NOT NULL,
			url TEXT NOT NULL,
			title VARCHAR(255) NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS votes (
			id VARCHAR(255) PRIMARY KEY,
			category VARCHAR(16) NOT NULL,
			voter_id VARCHAR(128) NOT NULL,
			voted_for VARCHAR(255) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS score_totals (
			character_id VARCHAR(64) NOT NULL REFERENCES characters(id),
			game_id INT NOT NULL,
			total_score BIGINT NOT NULL DEFAULT 0,
			PRIMARY KEY (character_id, game_id)
		)`,
		`CREATE TABLE IF NOT EXISTS score_details (
			id BIGSERIAL PRIMARY KEY,
			character_id VARCHAR(64) NOT NULL REFERENCES characters(id),
			game_id INT NOT NULL,
			category VARCHAR(16) NOT NULL,
			detail_key VARCHAR(255) NOT NULL,
			value TEXT NOT NULL,
			point_worth BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (character_id, game_id, category, detail_key),
			UNIQUE (character_id, game_id, category, value)
		)`,
		`CREATE TABLE IF NOT EXISTS character_notes (
			id VARCHAR(64) PRIMARY KEY,
			character_id VARCHAR(64) NOT NULL REFERENCES characters(id),
			user_id VARCHAR(128) NOT NULL,
			text TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS character_suspects (
			character_id VARCHAR(64) NOT NULL REFERENCES characters(id),
			user_id VARCHAR(128) NOT NULL,
			is_suspect BOOLEAN NOT NULL DEFAULT FALSE,
			PRIMARY KEY (character_id, user_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_answer_keys_game ON answer_keys(game_id, category)`,
		`CREATE INDEX IF NOT EXISTS idx_clues_word ON clues(game_id, word_id)`,
		`CREATE INDEX IF NOT EXISTS idx_score_details_character ON score_details(character_id, game_id)`,
		`CREATE INDEX IF NOT EXISTS idx_character_notes_user ON character_notes(user_id, created_at)`,
	}

	for _, migration := range migrations {
		_, err := r.pool.Exec(ctx, migration)
		if err != nil {
			return fmt.Errorf("executing migration: %w", err)
		}
	}

	r.logger.Info("database migrations completed")
	return nil
}

// inTx runs fn inside a transaction, committing on success
func (r *Repository) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return pgx.BeginFunc(ctx, r.pool, fn)
}

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

func isUniqueViolation(err error) bool {
	return hasCode(err, codeUniqueViolation)
}

func isForeignKeyViolation(err error) bool {
	return hasCode(err, codeForeignKeyViolation)
}

// nullable maps an empty id to SQL NULL
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
