package postgres

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/murder-mystery/internal/domain"
	"github.com/murder-mystery/internal/seed"
)

func TestErrorCodes(t *testing.T) {
	t.Parallel()

	unique := fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: codeUniqueViolation})
	foreign := &pgconn.PgError{Code: codeForeignKeyViolation}

	if !isUniqueViolation(unique) || isForeignKeyViolation(unique) {
		t.Errorf("expected unique violation only for %v", unique)
	}
	if !isForeignKeyViolation(foreign) || isUniqueViolation(foreign) {
		t.Errorf("expected foreign key violation only for %v", foreign)
	}
	if isUniqueViolation(errors.New("plain")) {
		t.Error("plain error reported as unique violation")
	}
}

func TestNullable(t *testing.T) {
	t.Parallel()

	if nullable("") != nil {
		t.Error("expected nil for empty id")
	}
	if got := nullable("c1"); got == nil || *got != "c1" {
		t.Errorf("expected c1 got %v", got)
	}
}

func TestCreatedAt(t *testing.T) {
	t.Parallel()

	fallback := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	set := fallback.Add(time.Hour)
	if got := createdAt(time.Time{}, fallback); !got.Equal(fallback) {
		t.Errorf("expected fallback got %v", got)
	}
	if got := createdAt(set, fallback); !got.Equal(set) {
		t.Errorf("expected %v got %v", set, got)
	}
}

// newTestRepository connects to MYSTERY_TEST_DATABASE_URL and resets the
// schema. Tests using it are skipped when the variable is unset.
func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	dsn := os.Getenv("MYSTERY_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("MYSTERY_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connecting: %v", err)
	}
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, `DROP SCHEMA public CASCADE; CREATE SCHEMA public`)
	if err != nil {
		t.Fatalf("resetting schema: %v", err)
	}

	repo := &Repository{pool: pool, logger: slog.New(slog.NewJSONHandler(io.Discard, nil))}
	if err := repo.RunMigrations(ctx); err != nil {
		t.Fatalf("migrating: %v", err)
	}
	return repo
}

func testSeed() *seed.Seed {
	return &seed.Seed{
		Round: 1,
		Users: []domain.User{
			{ID: "u1", Username: "vera", CharacterID: "c1"},
			{ID: "u9", Username: "host", Permission: domain.PermissionAdmin},
		},
		Characters: []domain.Character{
			{ID: "c1", FirstName: "Vera", LastName: "Vale", Cash: 100, Objectives: []domain.Objective{{ID: "o1", Body: "<p>Find the will</p>"}}},
			{ID: "c2", FirstName: "Otto", LastName: "Ash", Cash: 10},
		},
		AnswerKeys: []domain.AnswerKey{
			{ID: "k1", GameID: domain.GameQR, Category: domain.CategoryQR, Answer: "lantern", PointWorth: 3},
		},
		Clues: []domain.Clue{
			{ID: "clue-lantern", Round: 3, GameID: domain.GameQR, WordID: "lantern", Text: domain.Lines{"The lantern was lit"}},
		},
		Hints:     []domain.Hint{{ID: "h1", Round: 1, Cost: 30, Title: "Rumor 1", Body: "<b>psst</b>"}},
		CaseFiles: []domain.CaseFile{{ID: "f1", Round: 1, URL: "https://example.com/f1.png", Title: "Autopsy"}},
	}
}

func TestRepositoryRoundTrip(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	if err := repo.Import(ctx, testSeed()); err != nil {
		t.Fatalf("importing: %v", err)
	}

	round, err := repo.GetRound(ctx)
	if err != nil || round.Round != 1 {
		t.Fatalf("expected round 1 got %+v (%v)", round, err)
	}

	admin, err := repo.GetUser(ctx, "u9")
	if err != nil || !admin.IsAdmin() {
		t.Fatalf("expected admin user got %+v (%v)", admin, err)
	}

	c, err := repo.GetCharacter(ctx, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if c.Cash != 100 || len(c.Objectives) != 1 {
		t.Errorf("unexpected character %+v", c)
	}

	clues, err := repo.ListClues(ctx)
	if err != nil || len(clues) != 1 || len(clues[0].Text) != 1 {
		t.Fatalf("unexpected clues %+v (%v)", clues, err)
	}
}

func TestRepositoryRecordSolve(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	if err := repo.Import(ctx, testSeed()); err != nil {
		t.Fatal(err)
	}

	solve := domain.Solve{
		CharacterID: "c1", GameID: domain.GameQR, Category: domain.CategoryQR,
		DetailKey: "lantern", Value: "lantern", PointWorth: 3, UnlockWord: "lantern",
	}
	outcome, err := repo.RecordSolve(ctx, solve)
	if err != nil {
		t.Fatal(err)
	}
	if outcome.TotalScore != 3 || !outcome.ClueUnlocked || outcome.ClueID != "clue-lantern" {
		t.Errorf("unexpected outcome %+v", outcome)
	}

	if _, err := repo.RecordSolve(ctx, solve); !errors.Is(err, domain.ErrAlreadySolved) {
		t.Errorf("expected ErrAlreadySolved got %v", err)
	}

	c, _ := repo.GetCharacter(ctx, "c1")
	if c.TotalScore(domain.GameQR) != 3 || !c.Scores[domain.GameQR].Details.HasWord("lantern") {
		t.Errorf("unexpected scores %+v", c.Scores)
	}
}

func TestRepositoryCash(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	if err := repo.Import(ctx, testSeed()); err != nil {
		t.Fatal(err)
	}

	if _, err := repo.Transfer(ctx, "c2", "c1", 11); !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Errorf("expected ErrInsufficientFunds got %v", err)
	}
	remaining, err := repo.Transfer(ctx, "c1", "c2", 40)
	if err != nil || remaining != 60 {
		t.Fatalf("expected 60 got %d (%v)", remaining, err)
	}

	if _, err := repo.BuyHint(ctx, "h1", "c2", 30); err != nil {
		t.Fatalf("buying hint: %v", err)
	}
	if _, err := repo.BuyHint(ctx, "h1", "c2", 30); !errors.Is(err, domain.ErrInsufficientFunds) && !errors.Is(err, domain.ErrHintAlreadyBought) {
		t.Errorf("expected rejected repurchase got %v", err)
	}
	c2, _ := repo.GetCharacter(ctx, "c2")
	if c2.Cash != 20 {
		t.Errorf("expected 20 got %d", c2.Cash)
	}
}

func TestRepositoryVotes(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	if err := repo.PutVote(ctx, domain.NewVote("u1", domain.VoteMurderer, "c1"), true); err != nil {
		t.Fatal(err)
	}
	if err := repo.PutVote(ctx, domain.NewVote("u1", domain.VoteMurderer, "c2"), true); err != nil {
		t.Fatal(err)
	}
	if err := repo.PutVote(ctx, domain.NewVote("u1", domain.VoteMurderer, "c1"), false); !errors.Is(err, domain.ErrAlreadyVoted) {
		t.Errorf("expected ErrAlreadyVoted got %v", err)
	}
	v, err := repo.GetVote(ctx, domain.VoteID("u1", domain.VoteMurderer))
	if err != nil || v.VotedFor != "c2" {
		t.Errorf("expected vote for c2 got %+v (%v)", v, err)
	}
}
