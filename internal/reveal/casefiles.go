package reveal

import (
	"sort"

	"github.com/murder-mystery/internal/domain"
)

// CaseFileBucket groups case files of one round
type CaseFileBucket struct {
	Round int               `json:"round"`
	Files []domain.CaseFile `json:"files"`
}

// CaseFiles returns every case file with round <= currentRound, grouped by
// round in ascending order
func CaseFiles(currentRound int, files []domain.CaseFile) []CaseFileBucket {
	grouped := make(map[int][]domain.CaseFile)
	for _, f := range files {
		if f.Round > currentRound {
			continue
		}
		grouped[f.Round] = append(grouped[f.Round], f)
	}

	buckets := make([]CaseFileBucket, 0, len(grouped))
	for round, list := range grouped {
		buckets = append(buckets, CaseFileBucket{Round: round, Files: list})
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Round < buckets[j].Round })
	return buckets
}
