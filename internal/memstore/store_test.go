package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/murder-mystery/internal/domain"
	"github.com/murder-mystery/internal/seed"
)

func newStore() *Store {
	s := New()
	s.PutCharacter(domain.Character{ID: "c1", FirstName: "Vera", LastName: "Vale", Cash: 100})
	s.PutCharacter(domain.Character{ID: "c2", FirstName: "Otto", LastName: "Ash", Cash: 10})
	s.AddClue(domain.Clue{ID: "clue-lantern", Round: 3, GameID: domain.GameQR, WordID: "lantern"})
	s.AddHint(domain.Hint{ID: "h1", Title: "Rumor 1", Cost: 30})
	return s
}

func TestRecordSolveAccumulates(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStore()

	first, err := s.RecordSolve(ctx, domain.Solve{
		CharacterID: "c1", GameID: domain.GameQR, Category: domain.CategoryQR,
		DetailKey: "lantern", Value: "lantern", PointWorth: 3, UnlockWord: "lantern", SolvedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.TotalScore != 3 || !first.ClueUnlocked || first.ClueID != "clue-lantern" {
		t.Errorf("unexpected outcome %+v", first)
	}

	second, err := s.RecordSolve(ctx, domain.Solve{
		CharacterID: "c1", GameID: domain.GameQR, Category: domain.CategoryQR,
		DetailKey: "rope", Value: "rope", PointWorth: 2, UnlockWord: "rope", SolvedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.TotalScore != 5 || second.ClueUnlocked {
		t.Errorf("unexpected outcome %+v", second)
	}

	_, err = s.RecordSolve(ctx, domain.Solve{
		CharacterID: "c1", GameID: domain.GameQR, Category: domain.CategoryQR,
		DetailKey: "rope", Value: "rope", PointWorth: 2,
	})
	if !errors.Is(err, domain.ErrAlreadySolved) {
		t.Errorf("expected ErrAlreadySolved got %v", err)
	}

	c, _ := s.GetCharacter(ctx, "c1")
	if c.TotalScore(domain.GameQR) != 5 {
		t.Errorf("expected total 5 got %d", c.TotalScore(domain.GameQR))
	}
	clues, _ := s.ListClues(ctx)
	if len(clues[0].Solved) != 1 {
		t.Errorf("expected one solver got %v", clues[0].Solved)
	}
}

func TestTransferIsAllOrNothing(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStore()

	if _, err := s.Transfer(ctx, "c2", "c1", 11); !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds got %v", err)
	}
	if _, err := s.Transfer(ctx, "c1", "missing", 5); !errors.Is(err, domain.ErrCharacterNotFound) {
		t.Fatalf("expected ErrCharacterNotFound got %v", err)
	}
	c1, _ := s.GetCharacter(ctx, "c1")
	c2, _ := s.GetCharacter(ctx, "c2")
	if c1.Cash != 100 || c2.Cash != 10 {
		t.Fatalf("balances changed: %d %d", c1.Cash, c2.Cash)
	}

	remaining, err := s.Transfer(ctx, "c1", "c2", 40)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c2, _ = s.GetCharacter(ctx, "c2")
	if remaining != 60 || c2.Cash != 50 {
		t.Errorf("expected 60/50 got %d/%d", remaining, c2.Cash)
	}
}

func TestBuyHint(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStore()

	if _, err := s.BuyHint(ctx, "h1", "c2", 30); !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds got %v", err)
	}
	cash, err := s.BuyHint(ctx, "h1", "c1", 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cash != 70 {
		t.Errorf("expected 70 got %d", cash)
	}
	if _, err := s.BuyHint(ctx, "h1", "c1", 30); !errors.Is(err, domain.ErrHintAlreadyBought) {
		t.Errorf("expected ErrHintAlreadyBought got %v", err)
	}
}

func TestPutVote(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStore()

	if err := s.PutVote(ctx, domain.NewVote("u1", domain.VoteMurderer, "c1"), true); err != nil {
		t.Fatal(err)
	}
	if err := s.PutVote(ctx, domain.NewVote("u1", domain.VoteMurderer, "c2"), true); err != nil {
		t.Fatal(err)
	}
	votes, _ := s.ListVotes(ctx)
	if len(votes) != 1 || votes[0].VotedFor != "c2" {
		t.Errorf("expected single overwritten vote got %+v", votes)
	}
	err := s.PutVote(ctx, domain.NewVote("u1", domain.VoteMurderer, "c1"), false)
	if !errors.Is(err, domain.ErrAlreadyVoted) {
		t.Errorf("expected ErrAlreadyVoted got %v", err)
	}
}

func TestNotes(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStore()

	note := domain.Note{ID: "n1", Text: "shifty", Timestamp: time.Now()}
	if err := s.AddNote(ctx, "c2", "u1", note); err != nil {
		t.Fatal(err)
	}
	if err := s.SetSuspect(ctx, "c2", "u1", true); err != nil {
		t.Fatal(err)
	}
	notes, _ := s.ListNotes(ctx, "u1")
	if !notes["c2"].IsSuspect || len(notes["c2"].Notes) != 1 {
		t.Errorf("unexpected notes %+v", notes)
	}
	if other, _ := s.ListNotes(ctx, "u2"); len(other) != 0 {
		t.Errorf("notes leaked to another user: %+v", other)
	}
	if err := s.DeleteNote(ctx, "c2", "u1", "n1"); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteNote(ctx, "c2", "u1", "n1"); !errors.Is(err, domain.ErrNoteNotFound) {
		t.Errorf("expected ErrNoteNotFound got %v", err)
	}
}

func TestSetRoundBumpsVersion(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStore()

	first, _ := s.SetRound(ctx, 2, "admin")
	second, _ := s.SetRound(ctx, 1, "admin")
	if second.Version != first.Version+1 || second.Round != 1 {
		t.Errorf("unexpected states %+v %+v", first, second)
	}
}

func TestFromSeed(t *testing.T) {
	t.Parallel()

	s := FromSeed(&seed.Seed{
		Round:      1,
		Users:      []domain.User{{ID: "u1", Username: "vera", CharacterID: "c1"}},
		Characters: []domain.Character{{ID: "c1", Cash: 100, Objectives: []domain.Objective{{ID: "o1"}}}},
		Clues:      []domain.Clue{{ID: "k1"}, {ID: "k2"}},
		Hints:      []domain.Hint{{ID: "h1"}},
		CaseFiles:  []domain.CaseFile{{ID: "f1"}},
		AnswerKeys: []domain.AnswerKey{{ID: "a1", GameID: domain.GameQR, Category: domain.CategoryQR}},
	})
	ctx := context.Background()

	round, _ := s.GetRound(ctx)
	if round.Round != 1 {
		t.Errorf("expected round 1 got %d", round.Round)
	}
	c, err := s.GetCharacter(ctx, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Objectives) != 1 || c.Cash != 100 {
		t.Errorf("unexpected character %+v", c)
	}
	clues, _ := s.ListClues(ctx)
	keys, _ := s.ListAnswerKeys(ctx, domain.GameQR)
	if len(clues) != 2 || len(keys) != 1 {
		t.Errorf("unexpected content %d clues %d keys", len(clues), len(keys))
	}
	if _, err := s.GetUser(ctx, "u1"); err != nil {
		t.Errorf("expected user u1: %v", err)
	}
}
