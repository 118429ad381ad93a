package seed

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/murder-mystery/internal/domain"
)

func write(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	t.Parallel()

	s, err := Load(write(t, `
round: 1
users:
  - {id: u1, username: vera, permission: player, character_id: c1}
characters:
  - id: c1
    first_name: Vera
    last_name: Vale
    cash: 100
    objectives:
      - {id: o1, objective: "<b>Find the will</b>"}
answer_keys:
  - {id: k1, game_id: 3, category: qr, answer: Lantern, point_worth: 3}
clues:
  - {id: k1, round: 0, character_id: c1, clue: "single line"}
  - {id: k2, round: 3, game_id: 3, word_id: lantern, clue: [a, b]}
hints:
  - {id: h1, round: 0, cost: 30, title: "Rumor 1", hint: "<i>x</i>"}
case_files:
  - {id: f1, round: 1, url: "https://example.com/a.png", title: Autopsy}
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Round != 1 || len(s.Users) != 1 || s.Users[0].Permission != domain.PermissionPlayer {
		t.Errorf("unexpected seed %+v", s)
	}
	if len(s.Characters[0].Objectives) != 1 {
		t.Errorf("expected objective got %+v", s.Characters[0])
	}
	if len(s.Clues[0].Text) != 1 || len(s.Clues[1].Text) != 2 {
		t.Errorf("unexpected clue text %+v", s.Clues)
	}
	if s.Hints[0].Body != "<i>x</i>" || s.CaseFiles[0].Title != "Autopsy" {
		t.Errorf("unexpected content %+v %+v", s.Hints, s.CaseFiles)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		seed Seed
	}{
		{"duplicate character", Seed{Characters: []domain.Character{{ID: "c1"}, {ID: "c1"}}}},
		{"negative cash", Seed{Characters: []domain.Character{{ID: "c1", Cash: -1}}}},
		{"dangling user", Seed{Users: []domain.User{{ID: "u1", CharacterID: "c9"}}}},
		{"bad category", Seed{AnswerKeys: []domain.AnswerKey{{ID: "k", GameID: 2, Category: "word"}}}},
		{"wrong game", Seed{AnswerKeys: []domain.AnswerKey{{ID: "k", GameID: 2, Category: domain.CategoryQR}}}},
		{"duplicate answer key", Seed{AnswerKeys: []domain.AnswerKey{
			{ID: "k", GameID: 3, Category: domain.CategoryQR},
			{ID: "k", GameID: 3, Category: domain.CategoryQR},
		}}},
		{"answer key for unknown character", Seed{AnswerKeys: []domain.AnswerKey{{ID: "k", GameID: 2, Category: domain.CategorySecret, CharacterID: "c9"}}}},
		{"duplicate clue", Seed{Clues: []domain.Clue{{ID: "x"}, {ID: "x"}}}},
		{"clue for unknown character", Seed{Clues: []domain.Clue{{ID: "x", CharacterID: "c9"}}}},
		{"clue solved by unknown character", Seed{
			Characters: []domain.Character{{ID: "c1"}},
			Clues:      []domain.Clue{{ID: "x", GameID: 3, Solved: []domain.Unlock{{CharacterID: "c9"}}}},
		}},
		{"duplicate hint", Seed{Hints: []domain.Hint{{ID: "h"}, {ID: "h"}}}},
		{"hint for unknown character", Seed{Hints: []domain.Hint{{ID: "h", CharacterID: "c9"}}}},
		{"hint bought by unknown character", Seed{Hints: []domain.Hint{{ID: "h", Bought: []domain.Unlock{{CharacterID: "c9"}}}}}},
		{"duplicate case file", Seed{CaseFiles: []domain.CaseFile{{ID: "f"}, {ID: "f"}}}},
	}
	for _, tt := range tests {
		if err := tt.seed.Validate(); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}

func TestCheckSentenceKeys(t *testing.T) {
	t.Parallel()

	s := Seed{AnswerKeys: []domain.AnswerKey{
		{ID: "w", GameID: 3, Category: domain.CategoryQR, Answer: "lantern"},
		{ID: "s", GameID: 3, Category: domain.CategorySentence, Answer: "the lantern hung from the rope"},
	}}
	if err := s.CheckSentenceKeys(6); err != nil {
		t.Errorf("expected six word sentence to pass got %v", err)
	}
	if err := s.CheckSentenceKeys(24); err == nil {
		t.Error("expected six word sentence to fail a 24 word game")
	}
}

func TestExampleSeedIsPlayable(t *testing.T) {
	t.Parallel()

	s, err := Load(filepath.Join("..", "..", "seed.example.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.CheckSentenceKeys(24); err != nil {
		t.Errorf("example seed sentence does not fit the default game: %v", err)
	}
}
