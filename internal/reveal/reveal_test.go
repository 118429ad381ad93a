package reveal

import (
	"reflect"
	"testing"

	"github.com/murder-mystery/internal/domain"
)

func clueIDs(buckets []ClueBucket, round int) []string {
	ids := []string{}
	for _, b := range buckets {
		if b.Round != round {
			continue
		}
		for _, c := range b.Clues {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

func TestOwnedClueRevealedByRound(t *testing.T) {
	t.Parallel()

	viewer := &domain.Character{ID: "alice"}
	clues := []domain.Clue{{ID: "c1", Round: 1, CharacterID: "alice"}}

	cases := []struct {
		round   int
		visible bool
	}{
		{0, false},
		{1, true},
		{2, true},
		{3, true},
	}
	for _, tc := range cases {
		got := clueIDs(Clues(tc.round, viewer, clues), 1)
		if tc.visible && !reflect.DeepEqual(got, []string{"c1"}) {
			t.Errorf("round %d: expected [c1] got %v", tc.round, got)
		}
		if !tc.visible && len(got) != 0 {
			t.Errorf("round %d: expected nothing got %v", tc.round, got)
		}
	}
}

func TestOwnedCluesAreMonotonicInRound(t *testing.T) {
	t.Parallel()

	viewer := &domain.Character{ID: "alice"}
	clues := []domain.Clue{
		{ID: "r0", Round: 0, CharacterID: "alice"},
		{ID: "r1", Round: 1, CharacterID: "alice"},
		{ID: "r3", Round: 3, CharacterID: "alice"},
		{ID: "other", Round: 0, CharacterID: "bob"},
	}

	count := func(round int) map[string]bool {
		seen := map[string]bool{}
		for _, b := range Clues(round, viewer, clues) {
			for _, c := range b.Clues {
				seen[c.ID] = true
			}
		}
		return seen
	}

	for r := 1; r <= 3; r++ {
		prev, cur := count(r-1), count(r)
		for id := range prev {
			if !cur[id] {
				t.Errorf("clue %s visible at round %d but hidden at %d", id, r-1, r)
			}
		}
	}
	if count(3)["other"] {
		t.Error("clue owned by another character must never be visible")
	}
}

func TestRoundTwoOwnedClueNeedsWord(t *testing.T) {
	t.Parallel()

	clue := domain.Clue{ID: "w", Round: 2, CharacterID: "alice", WordID: "lantern"}
	without := &domain.Character{ID: "alice"}
	with := &domain.Character{
		ID: "alice",
		Scores: map[int]domain.ScoreEntry{
			domain.GameSecrets: {Details: domain.ScoreDetails{Word: []domain.SolvedAnswer{{Value: "lantern"}}}},
		},
	}

	if got := clueIDs(Clues(3, without, []domain.Clue{clue}), 2); len(got) != 0 {
		t.Errorf("expected hidden without word, got %v", got)
	}
	if got := clueIDs(Clues(0, with, []domain.Clue{clue}), 2); !reflect.DeepEqual(got, []string{"w"}) {
		t.Errorf("expected [w] got %v", got)
	}
}

func TestSolvedGameThreeClue(t *testing.T) {
	t.Parallel()

	viewer := &domain.Character{ID: "alice"}
	clue := domain.Clue{
		ID:     "qr1",
		Round:  1,
		GameID: domain.GameQR,
		WordID: "lantern",
		Solved: []domain.Unlock{{CharacterID: "alice", Locked: false}},
	}
	locked := clue
	locked.ID = "qr2"
	locked.Solved = []domain.Unlock{{CharacterID: "alice", Locked: true}}

	buckets := Clues(1, viewer, []domain.Clue{clue, locked})
	if got := clueIDs(buckets, 1); len(got) != 0 {
		t.Errorf("expected nothing before round 2, got %v", got)
	}

	buckets = Clues(2, viewer, []domain.Clue{clue, locked})
	if got := clueIDs(buckets, 1); !reflect.DeepEqual(got, []string{"qr1"}) {
		t.Errorf("expected [qr1] bucketed under its own round, got %v", got)
	}
}

func TestClueMatchingBothBranchesAppearsTwice(t *testing.T) {
	t.Parallel()

	viewer := &domain.Character{ID: "alice"}
	clue := domain.Clue{
		ID:          "both",
		Round:       3,
		CharacterID: "alice",
		GameID:      domain.GameQR,
		Solved:      []domain.Unlock{{CharacterID: "alice"}},
	}

	got := clueIDs(Clues(3, viewer, []domain.Clue{clue}), 3)
	if !reflect.DeepEqual(got, []string{"both", "both"}) {
		t.Errorf("expected duplicate entry, got %v", got)
	}
}

func TestClueBucketsIncludeEmptyRounds(t *testing.T) {
	t.Parallel()

	viewer := &domain.Character{ID: "alice"}
	clues := []domain.Clue{
		{ID: "a", Round: 0, CharacterID: "alice"},
		{ID: "b", Round: 3, CharacterID: "bob"},
	}

	buckets := Clues(0, viewer, clues)
	if len(buckets) != 2 {
		t.Fatalf("expected 2 buckets got %d", len(buckets))
	}
	if buckets[0].Round != 0 || buckets[1].Round != 3 {
		t.Errorf("expected rounds [0 3] got [%d %d]", buckets[0].Round, buckets[1].Round)
	}
	if len(buckets[1].Clues) != 0 {
		t.Errorf("expected empty bucket for round 3, got %v", buckets[1].Clues)
	}
}

func TestSortTitles(t *testing.T) {
	t.Parallel()

	titles := []string{"Rumor 2", "Rumor 10", "Rumor 1"}
	SortTitles(titles)

	expected := []string{"Rumor 1", "Rumor 2", "Rumor 10"}
	if !reflect.DeepEqual(titles, expected) {
		t.Errorf("expected %v got %v", expected, titles)
	}
}

func TestTitleNumber(t *testing.T) {
	t.Parallel()

	cases := map[string]int{
		"Rumor 12":        12,
		"Recommended":     0,
		"QR 3 extra":      0,
		"Secret 007":      7,
		"":                0,
		"Hint for room 4": 4,
	}
	for title, want := range cases {
		if got := TitleNumber(title); got != want {
			t.Errorf("TitleNumber(%q): expected %d got %d", title, want, got)
		}
	}
}

func TestCategorizeHint(t *testing.T) {
	t.Parallel()

	cases := map[string]HintCategory{
		"Recommended 1":         HintRecommended,
		"RECOMMENDED QR hint":   HintRecommended,
		"QR Word 4":             HintQR,
		"Secret 2":              HintSecret,
		"Rumor 9":               HintRumor,
		"Something else":        HintRumor,
		"secret about the qr 1": HintQR,
	}
	for title, want := range cases {
		if got := CategorizeHint(title); got != want {
			t.Errorf("CategorizeHint(%q): expected %s got %s", title, want, got)
		}
	}
}

func TestHintsProjection(t *testing.T) {
	t.Parallel()

	hints := []domain.Hint{
		{ID: "h1", Round: 0, Title: "Rumor 10", Body: "<b>ten</b>", Cost: 5},
		{ID: "h2", Round: 0, Title: "Rumor 2", Body: "two", Cost: 5, Bought: []domain.Unlock{{CharacterID: "alice"}}},
		{ID: "h3", Round: 2, Title: "Rumor 1", Body: "future", Cost: 5},
		{ID: "h4", Round: 0, Title: "Secret 1", Body: "mine", CharacterID: "bob"},
		{ID: "h5", Round: 0, Title: "QR 1", Body: "locked", Bought: []domain.Unlock{{CharacterID: "alice", Locked: true}}},
	}

	groups := Hints(1, "alice", hints)
	if len(groups) != len(HintCategories) {
		t.Fatalf("expected %d groups got %d", len(HintCategories), len(groups))
	}

	var rumors, qr []HintView
	for _, g := range groups {
		switch g.Category {
		case HintRumor:
			rumors = g.Hints
		case HintQR:
			qr = g.Hints
		case HintSecret:
			if len(g.Hints) != 0 {
				t.Errorf("hint owned by another character leaked: %v", g.Hints)
			}
		}
	}

	if len(rumors) != 2 || rumors[0].ID != "h2" || rumors[1].ID != "h1" {
		t.Fatalf("expected rumors [h2 h1] got %v", rumors)
	}
	if !rumors[0].Purchased || rumors[0].Body != "two" {
		t.Errorf("expected purchased hint body, got %+v", rumors[0])
	}
	if rumors[1].Purchased || rumors[1].Body != "" {
		t.Errorf("expected title-only projection, got %+v", rumors[1])
	}
	if len(qr) != 1 || qr[0].Purchased || qr[0].Body != "" {
		t.Errorf("locked purchase must not reveal body, got %v", qr)
	}
}

func TestUnboughtHints(t *testing.T) {
	t.Parallel()

	hints := []domain.Hint{
		{ID: "a"},
		{ID: "b", Bought: []domain.Unlock{{CharacterID: "alice", Locked: true}}},
		{ID: "c", Bought: []domain.Unlock{{CharacterID: "bob"}}},
	}
	got := UnboughtHints(hints, "alice")
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "c" {
		t.Errorf("expected [a c] got %v", got)
	}
}

func TestCaseFiles(t *testing.T) {
	t.Parallel()

	files := []domain.CaseFile{
		{ID: "f2", Round: 2},
		{ID: "f0", Round: 0},
		{ID: "f1", Round: 1},
		{ID: "f0b", Round: 0},
	}

	buckets := CaseFiles(1, files)
	if len(buckets) != 2 {
		t.Fatalf("expected 2 buckets got %d", len(buckets))
	}
	if buckets[0].Round != 0 || len(buckets[0].Files) != 2 {
		t.Errorf("unexpected round 0 bucket %+v", buckets[0])
	}
	if buckets[1].Round != 1 || buckets[1].Files[0].ID != "f1" {
		t.Errorf("unexpected round 1 bucket %+v", buckets[1])
	}
}
