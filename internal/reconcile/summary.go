package reconcile

import "github.com/cleared-dev/trustledger/internal/model"

// Summary counts results by status.
type Summary struct {
	Total        int
	Matched      int
	ManualReview int
	Unmatched    int
}

// MatchRate is the matched share in percent, 0 for an empty batch.
func (s Summary) MatchRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return 100 * float64(s.Matched) / float64(s.Total)
}

// Summarize tallies results.
func Summarize(results []model.ConciliationResult) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch r.Status {
		case model.StatusMatched:
			s.Matched++
		case model.StatusManualReview:
			s.ManualReview++
		default:
			s.Unmatched++
		}
	}
	return s
}
