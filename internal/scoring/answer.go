// Package scoring holds the answer matching rules of the secrets, rumors
// and QR puzzles.
package scoring

import (
	"fmt"
	"strings"

	"github.com/murder-mystery/internal/domain"
)

// Slots bounds the answer inputs offered per category
type Slots struct {
	Secrets       int
	Rumors        int
	Words         int
	SentenceWords int
}

// Normalize trims and lower-cases raw input
func Normalize(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// WordCount returns the number of whitespace separated tokens in text
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// Validate checks the structural preconditions of a submission before any
// lookup: a known category, a slot index in range, a non-empty answer and,
// for sentences, the exact word count.
func Validate(sub domain.Submission, slots Slots) error {
	if !sub.Category.Valid() {
		return domain.ErrInvalidCategory
	}

	var limit int
	switch sub.Category {
	case domain.CategorySecret:
		limit = slots.Secrets
	case domain.CategoryRumor:
		limit = slots.Rumors
	case domain.CategoryQR:
		limit = slots.Words
	case domain.CategorySentence:
		if WordCount(sub.Answer) != slots.SentenceWords {
			return fmt.Errorf("%w: expected exactly %d words", domain.ErrWrongWordCount, slots.SentenceWords)
		}
		return nil
	}

	if sub.Index < 0 || sub.Index >= limit {
		return domain.ErrInvalidSlot
	}
	if Normalize(sub.Answer) == "" {
		return domain.ErrIncorrectAnswer
	}
	return nil
}

// DetailKey returns the key an accepted answer is stored under. Secrets
// and rumors are keyed by slot; words by value; the sentence is unique.
func DetailKey(category domain.AnswerCategory, index int, value string) string {
	switch category {
	case domain.CategorySecret:
		return fmt.Sprintf("secret_%d", index)
	case domain.CategoryRumor:
		return fmt.Sprintf("rumor_%d", index)
	case domain.CategorySentence:
		return "sentence"
	default:
		return value
	}
}

// AlreadySolved reports whether value was already accepted for category.
// The sentence can only be solved once, whatever its text.
func AlreadySolved(details domain.ScoreDetails, category domain.AnswerCategory, value string) bool {
	solved := details.Solved(category)
	if category == domain.CategorySentence {
		return len(solved) > 0
	}
	for _, s := range solved {
		if strings.EqualFold(s, value) {
			return true
		}
	}
	return false
}

// Match finds the answer key accepting a normalized value. Secrets only
// match keys owned by the solving character; rumors, words and sentences
// are shared.
func Match(keys []domain.AnswerKey, category domain.AnswerCategory, value, characterID string) (domain.AnswerKey, bool) {
	gameID := category.GameID()
	for _, key := range keys {
		if key.GameID != gameID || key.Category != category {
			continue
		}
		if Normalize(key.Answer) != value {
			continue
		}
		if category == domain.CategorySecret && key.CharacterID != characterID {
			continue
		}
		return key, true
	}
	return domain.AnswerKey{}, false
}
