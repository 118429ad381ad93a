// Package seed reads the YAML document that provisions a party before play:
// accounts, characters, answer keys, clues, hints and case files.
package seed

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/murder-mystery/internal/domain"
	"github.com/murder-mystery/internal/scoring"
)

// Seed is the provisioning document
type Seed struct {
	Round      int                `yaml:"round"`
	Users      []domain.User      `yaml:"users"`
	Characters []domain.Character `yaml:"characters"`
	AnswerKeys []domain.AnswerKey `yaml:"answer_keys"`
	Clues      []domain.Clue      `yaml:"clues"`
	Hints      []domain.Hint      `yaml:"hints"`
	CaseFiles  []domain.CaseFile  `yaml:"case_files"`
}

// Load reads a seed file
func Load(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}

	var s Seed
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing seed file: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate rejects documents with duplicate ids or dangling references
func (s *Seed) Validate() error {
	characters := make(map[string]bool, len(s.Characters))
	for _, c := range s.Characters {
		if c.ID == "" {
			return fmt.Errorf("character without id")
		}
		if characters[c.ID] {
			return fmt.Errorf("duplicate character id %q", c.ID)
		}
		if c.Cash < 0 {
			return fmt.Errorf("character %q has negative cash", c.ID)
		}
		characters[c.ID] = true
	}

	users := make(map[string]bool, len(s.Users))
	for _, u := range s.Users {
		if users[u.ID] {
			return fmt.Errorf("duplicate user id %q", u.ID)
		}
		users[u.ID] = true
		if u.CharacterID != "" && !characters[u.CharacterID] {
			return fmt.Errorf("user %q plays unknown character %q", u.ID, u.CharacterID)
		}
	}

	owner := func(kind, id, characterID string) error {
		if characterID != "" && !characters[characterID] {
			return fmt.Errorf("%s %q belongs to unknown character %q", kind, id, characterID)
		}
		return nil
	}
	unlocks := func(kind, id string, list []domain.Unlock) error {
		for _, u := range list {
			if !characters[u.CharacterID] {
				return fmt.Errorf("%s %q unlocked for unknown character %q", kind, id, u.CharacterID)
			}
		}
		return nil
	}

	keys := make(map[string]bool, len(s.AnswerKeys))
	for _, k := range s.AnswerKeys {
		if keys[k.ID] {
			return fmt.Errorf("duplicate answer key id %q", k.ID)
		}
		keys[k.ID] = true
		if !k.Category.Valid() {
			return fmt.Errorf("answer key %q has invalid category %q", k.ID, k.Category)
		}
		if k.GameID != k.Category.GameID() {
			return fmt.Errorf("answer key %q: category %s belongs to game %d", k.ID, k.Category, k.Category.GameID())
		}
		if err := owner("answer key", k.ID, k.CharacterID); err != nil {
			return err
		}
	}

	clues := make(map[string]bool, len(s.Clues))
	for _, c := range s.Clues {
		if clues[c.ID] {
			return fmt.Errorf("duplicate clue id %q", c.ID)
		}
		clues[c.ID] = true
		if err := owner("clue", c.ID, c.CharacterID); err != nil {
			return err
		}
		if err := unlocks("clue", c.ID, c.Solved); err != nil {
			return err
		}
	}

	hints := make(map[string]bool, len(s.Hints))
	for _, h := range s.Hints {
		if hints[h.ID] {
			return fmt.Errorf("duplicate hint id %q", h.ID)
		}
		hints[h.ID] = true
		if err := owner("hint", h.ID, h.CharacterID); err != nil {
			return err
		}
		if err := unlocks("hint", h.ID, h.Bought); err != nil {
			return err
		}
	}

	files := make(map[string]bool, len(s.CaseFiles))
	for _, f := range s.CaseFiles {
		if files[f.ID] {
			return fmt.Errorf("duplicate case file id %q", f.ID)
		}
		files[f.ID] = true
	}
	return nil
}

// CheckSentenceKeys rejects sentence answers that could never be submitted
// because their word count differs from the configured one
func (s *Seed) CheckSentenceKeys(words int) error {
	for _, k := range s.AnswerKeys {
		if k.Category != domain.CategorySentence {
			continue
		}
		if n := scoring.WordCount(k.Answer); n != words {
			return fmt.Errorf("sentence key %q has %d words, expected %d", k.ID, n, words)
		}
	}
	return nil
}
