package reconcile

import (
	"sort"
	"time"

	"github.com/cleared-dev/trustledger/internal/canonical"
	"github.com/cleared-dev/trustledger/internal/model"
)

// tolerance absorbs floating error in threshold comparisons so that a
// score of 0.8 + 0.2*0.25 still counts as 0.85.
const tolerance = 1e-9

const secondsPerDay = 24 * 60 * 60

// Matcher pairs extract records with ledger transactions.
type Matcher struct {
	cfg Config
}

// NewMatcher creates a Matcher with the given thresholds.
func NewMatcher(cfg Config) *Matcher {
	return &Matcher{cfg: cfg}
}

// Config returns the matcher thresholds.
func (m *Matcher) Config() Config {
	return m.cfg
}

// Match returns one result per extract record, in extract order. Each
// record is paired with the candidate ledger transaction of highest
// description similarity; the earliest ledger entry wins ties.
func (m *Matcher) Match(extract []model.ExtractRecord, ledger []model.LedgerTransaction) []model.ConciliationResult {
	idx := newDayIndex(ledger)
	results := make([]model.ConciliationResult, 0, len(extract))
	for _, rec := range extract {
		results = append(results, m.matchOne(rec, ledger, idx))
	}
	return results
}

func (m *Matcher) matchOne(rec model.ExtractRecord, ledger []model.LedgerTransaction, idx dayIndex) model.ConciliationResult {
	res := model.ConciliationResult{
		Date:         rec.Date,
		Amount:       rec.Amount,
		Counterparty: rec.Counterparty,
		Status:       model.StatusUnmatched,
	}

	recTokens := Tokenize(rec.Description)
	best, bestSim := -1, 0.0
	for _, i := range idx.window(dayNumber(rec.Date), m.cfg.DateWindowDays) {
		tx := ledger[i]
		if !m.amountMatches(rec, tx) {
			continue
		}
		sim := Jaccard(recTokens, Tokenize(tx.Description))
		if best < 0 || sim > bestSim {
			best, bestSim = i, sim
		}
	}
	if best < 0 {
		return res
	}

	res.LedgerTxID = ledger[best].TxID
	res.Score = m.score(bestSim)
	res.Status = m.classify(res.Score, bestSim)
	return res
}

func (m *Matcher) amountMatches(rec model.ExtractRecord, tx model.LedgerTransaction) bool {
	return rec.Amount.Sub(tx.Amount).Abs().LessThan(m.cfg.AmountEpsilon)
}

func (m *Matcher) score(sim float64) float64 {
	w := m.cfg.Weights
	return w.Amount*1.0 + w.Date*1.0 + w.Description*sim
}

func (m *Matcher) classify(score, sim float64) model.MatchStatus {
	switch {
	case score >= m.cfg.MatchScore-tolerance && sim >= m.cfg.DescThreshold-tolerance:
		return model.StatusMatched
	case score >= m.cfg.ReviewScore-tolerance:
		return model.StatusManualReview
	default:
		return model.StatusUnmatched
	}
}

// dayIndex maps a calendar day number to ledger positions on that day.
type dayIndex map[int64][]int

func newDayIndex(ledger []model.LedgerTransaction) dayIndex {
	idx := make(dayIndex)
	for i, tx := range ledger {
		d := dayNumber(tx.Date)
		idx[d] = append(idx[d], i)
	}
	return idx
}

// window returns the ledger positions within days of d, in ledger order.
// Wide windows walk the populated days instead of every calendar day.
func (idx dayIndex) window(d int64, days int) []int {
	if days < 0 {
		days = 0
	}
	w := int64(days)
	var out []int
	if 2*w+1 > int64(len(idx)) {
		for k, pos := range idx {
			if k >= d-w && k <= d+w {
				out = append(out, pos...)
			}
		}
	} else {
		for k := d - w; k <= d+w; k++ {
			out = append(out, idx[k]...)
		}
	}
	sort.Ints(out)
	return out
}

func dayNumber(t time.Time) int64 {
	return canonical.Day(t).Unix() / secondsPerDay
}
