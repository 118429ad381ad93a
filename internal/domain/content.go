package domain

import (
	"encoding/json"
	"time"

	"gopkg.in/yaml.v3"
)

// Unlock marks a character as solver (clues) or buyer (hints) of an item
type Unlock struct {
	CharacterID string    `json:"character_id" yaml:"character_id"`
	Locked      bool      `json:"locked" yaml:"locked"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
}

// UnlockedFor reports whether unlocks holds an unlocked entry for characterID
func UnlockedFor(unlocks []Unlock, characterID string) bool {
	for _, u := range unlocks {
		if u.CharacterID == characterID && !u.Locked {
			return true
		}
	}
	return false
}

// ListedIn reports whether characterID appears in unlocks regardless of lock state
func ListedIn(unlocks []Unlock, characterID string) bool {
	for _, u := range unlocks {
		if u.CharacterID == characterID {
			return true
		}
	}
	return false
}

// Lines is clue text stored either as a single string or a list of strings
type Lines []string

// UnmarshalJSON accepts "text" or ["a", "b"]
func (l *Lines) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single == "" {
			*l = nil
		} else {
			*l = Lines{single}
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*l = many
	return nil
}

// UnmarshalYAML accepts a scalar or a sequence
func (l *Lines) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		if value.Value == "" {
			*l = nil
		} else {
			*l = Lines{value.Value}
		}
		return nil
	}
	var many []string
	if err := value.Decode(&many); err != nil {
		return err
	}
	*l = many
	return nil
}

// Clue is narrative content revealed by round or solve state
type Clue struct {
	ID          string `json:"id" yaml:"id"`
	Round       int    `json:"round" yaml:"round"`
	CharacterID string `json:"character_id,omitempty" yaml:"character_id"`
	GameID      int    `json:"game_id,omitempty" yaml:"game_id"`
	WordID      string `json:"word_id,omitempty" yaml:"word_id"`
	Text        Lines  `json:"clue,omitempty" yaml:"clue"`
	Concealed   Lines  `json:"concealed_clue,omitempty" yaml:"concealed_clue"`
	// Solved is never sent to clients
	Solved []Unlock `json:"-" yaml:"solved"`
}

// Hint is purchasable content gated by in-game cash
type Hint struct {
	ID          string   `json:"id" yaml:"id"`
	Round       int      `json:"round" yaml:"round"`
	CharacterID string   `json:"character_id,omitempty" yaml:"character_id"`
	Cost        int64    `json:"cost" yaml:"cost"`
	Title       string   `json:"title" yaml:"title"`
	Body        string   `json:"hint" yaml:"hint"`
	Bought      []Unlock `json:"-" yaml:"bought"`
}

// CaseFile is a media item revealed cumulatively by round
type CaseFile struct {
	ID    string `json:"id" yaml:"id"`
	Round int    `json:"round" yaml:"round"`
	URL   string `json:"url" yaml:"url"`
	Title string `json:"title" yaml:"title"`
}
