package reveal

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/murder-mystery/internal/domain"
)

// HintCategory is the display group of a hint, derived from its title
type HintCategory string

const (
	HintRecommended HintCategory = "recommended"
	HintQR          HintCategory = "qr"
	HintSecret      HintCategory = "secret"
	HintRumor       HintCategory = "rumor"
)

// HintCategories lists hint groups in display order
var HintCategories = []HintCategory{HintRecommended, HintQR, HintSecret, HintRumor}

var trailingNumber = regexp.MustCompile(`(\d+)$`)

// CategorizeHint matches the lower-cased title against "recommended",
// "qr" and "secret" in that order, falling back to rumor.
func CategorizeHint(title string) HintCategory {
	lower := strings.ToLower(title)
	switch {
	case strings.Contains(lower, "recommended"):
		return HintRecommended
	case strings.Contains(lower, "qr"):
		return HintQR
	case strings.Contains(lower, "secret"):
		return HintSecret
	default:
		return HintRumor
	}
}

// TitleNumber returns the integer at the end of title, or 0 if there is none
func TitleNumber(title string) int {
	match := trailingNumber.FindString(title)
	if match == "" {
		return 0
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		return 0
	}
	return n
}

// SortTitles orders titles by their trailing number, keeping the input
// order for equal numbers
func SortTitles(titles []string) {
	sort.SliceStable(titles, func(i, j int) bool {
		return TitleNumber(titles[i]) < TitleNumber(titles[j])
	})
}

// HintCandidates returns the hints a viewer may browse at currentRound:
// unowned or owned by the viewer, and not from a later round.
func HintCandidates(currentRound int, viewerID string, hints []domain.Hint) []domain.Hint {
	var out []domain.Hint
	for _, h := range hints {
		if h.CharacterID != "" && h.CharacterID != viewerID {
			continue
		}
		if h.Round > currentRound {
			continue
		}
		out = append(out, h)
	}
	return out
}

// HintPurchased reports whether viewerID holds an unlocked purchase of h
func HintPurchased(h domain.Hint, viewerID string) bool {
	return domain.UnlockedFor(h.Bought, viewerID)
}

// HintView is what a viewer sees of a hint. Body is only set once the
// viewer has an unlocked purchase.
type HintView struct {
	ID        string       `json:"id"`
	Title     string       `json:"title"`
	Category  HintCategory `json:"category"`
	Round     int          `json:"round"`
	Cost      int64        `json:"cost"`
	Purchased bool         `json:"purchased"`
	Body      string       `json:"hint,omitempty"`
}

// ProjectHint builds the viewer-specific projection of h
func ProjectHint(h domain.Hint, viewerID string) HintView {
	view := HintView{
		ID:       h.ID,
		Title:    h.Title,
		Category: CategorizeHint(h.Title),
		Round:    h.Round,
		Cost:     h.Cost,
	}
	if HintPurchased(h, viewerID) {
		view.Purchased = true
		view.Body = h.Body
	}
	return view
}

// HintGroup is one display category of hints
type HintGroup struct {
	Category HintCategory `json:"category"`
	Hints    []HintView   `json:"hints"`
}

// Hints filters, categorizes, orders and projects hints for a viewer.
// All four categories are returned in display order, possibly empty.
func Hints(currentRound int, viewerID string, hints []domain.Hint) []HintGroup {
	grouped := make(map[HintCategory][]HintView, len(HintCategories))
	for _, h := range HintCandidates(currentRound, viewerID, hints) {
		view := ProjectHint(h, viewerID)
		grouped[view.Category] = append(grouped[view.Category], view)
	}

	groups := make([]HintGroup, 0, len(HintCategories))
	for _, category := range HintCategories {
		views := grouped[category]
		sort.SliceStable(views, func(i, j int) bool {
			return TitleNumber(views[i].Title) < TitleNumber(views[j].Title)
		})
		if views == nil {
			views = []HintView{}
		}
		groups = append(groups, HintGroup{Category: category, Hints: views})
	}
	return groups
}

// UnboughtHints returns the candidates viewerID has no purchase entry for
func UnboughtHints(candidates []domain.Hint, viewerID string) []domain.Hint {
	var out []domain.Hint
	for _, h := range candidates {
		if !domain.ListedIn(h.Bought, viewerID) {
			out = append(out, h)
		}
	}
	return out
}
