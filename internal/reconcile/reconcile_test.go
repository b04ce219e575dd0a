package reconcile

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/trustledger/internal/ledger"
	"github.com/cleared-dev/trustledger/internal/model"
)

func day(n int) time.Time {
	return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func rec(d int, amount, desc string) model.ExtractRecord {
	return model.ExtractRecord{
		Date:         day(d),
		Description:  desc,
		Amount:       decimal.RequireFromString(amount),
		Balance:      decimal.NewFromInt(1000),
		Counterparty: "Doador Y",
	}
}

func tx(id string, d int, amount, desc string) model.LedgerTransaction {
	return model.LedgerTransaction{
		TxID:        id,
		Date:        day(d),
		Amount:      decimal.RequireFromString(amount),
		Description: desc,
	}
}

func TestTokenize(t *testing.T) {
	got := Tokenize("  Pagamento-Fornecedor/ABC  ref ")
	assert.Equal(t, map[string]struct{}{
		"pagamento": {}, "fornecedor": {}, "abc": {}, "ref": {},
	}, got)
	assert.Empty(t, Tokenize(" - / "))
	assert.Equal(t, map[string]struct{}{"payment": {}, "alpha": {}}, Tokenize("Payment\u00a0Alpha\u2003"))
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"Movimento 3", "Movimento 3", 1.0},
		{"Movimento 3", "movimento 3", 1.0},
		{"alpha", "beta", 0.0},
		{"", "", 1.0},
		{"  ", "-/", 1.0},
		{"", "alpha", 0.0},
		{"Payment Alpha", "Payment Beta", 1.0 / 3.0},
		{"Movimento 3", "Movimento 3 - ref", 2.0 / 3.0},
		{"a b", "a b c d e", 0.4},
		{"Payment\u00a0Alpha", "Payment Alpha", 1.0},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q vs %q", tt.a, tt.b), func(t *testing.T) {
			assert.InDelta(t, tt.want, Similarity(tt.a, tt.b), 1e-12)
			assert.InDelta(t, tt.want, Similarity(tt.b, tt.a), 1e-12)
		})
	}
}

func TestClassificationBoundaries(t *testing.T) {
	tests := []struct {
		name      string
		threshold float64
		extract   string
		ledger    string
		score     float64
		status    model.MatchStatus
	}{
		{"identical", 0.4, "Doacao mensal", "Doacao mensal", 1.0, model.StatusMatched},
		{"similarity at threshold", 0.4, "a b", "a b c d e", 0.88, model.StatusMatched},
		{"similarity below threshold", 0.4, "Payment Alpha", "Payment Beta", 0.8 + 0.2/3, model.StatusManualReview},
		{"score exactly at match score", 0.25, "a", "a b c d", 0.85, model.StatusMatched},
		{"score below match score", 0.2, "a", "a b c d e", 0.84, model.StatusManualReview},
		{"no shared tokens", 0.4, "alpha", "beta", 0.8, model.StatusManualReview},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.DescThreshold = tt.threshold
			m := NewMatcher(cfg)

			got := m.Match(
				[]model.ExtractRecord{rec(0, "50.00", tt.extract)},
				[]model.LedgerTransaction{tx("L1", 0, "50.00", tt.ledger)},
			)
			require.Len(t, got, 1)
			assert.Equal(t, "L1", got[0].LedgerTxID)
			assert.InDelta(t, tt.score, got[0].Score, 1e-9)
			assert.Equal(t, tt.status, got[0].Status)
		})
	}
}

func TestLowScoreCandidateIsUnmatchedWithReference(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Weights = Weights{Amount: 0.2, Date: 0.2, Description: 0.2}
	m := NewMatcher(cfg)

	got := m.Match(
		[]model.ExtractRecord{rec(0, "10.00", "alpha")},
		[]model.LedgerTransaction{tx("L1", 0, "10.00", "beta")},
	)
	require.Len(t, got, 1)
	assert.Equal(t, model.StatusUnmatched, got[0].Status)
	assert.Equal(t, "L1", got[0].LedgerTxID)
	assert.InDelta(t, 0.4, got[0].Score, 1e-9)
}

func TestCandidateGates(t *testing.T) {
	tests := []struct {
		name    string
		ledger  model.LedgerTransaction
		matches bool
	}{
		{"same day", tx("L1", 5, "20.00", "x"), true},
		{"day before", tx("L1", 4, "20.00", "x"), true},
		{"day after", tx("L1", 6, "20.00", "x"), true},
		{"two days after", tx("L1", 7, "20.00", "x"), false},
		{"two days before", tx("L1", 3, "20.00", "x"), false},
		{"amount off by a cent", tx("L1", 5, "20.01", "x"), false},
		{"opposite sign", tx("L1", 5, "-20.00", "x"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewMatcher(DefaultConfig()).Match(
				[]model.ExtractRecord{rec(5, "20.00", "x")},
				[]model.LedgerTransaction{tt.ledger},
			)
			require.Len(t, got, 1)
			if tt.matches {
				assert.Equal(t, "L1", got[0].LedgerTxID)
				assert.Equal(t, model.StatusMatched, got[0].Status)
			} else {
				assert.Empty(t, got[0].LedgerTxID)
				assert.Equal(t, model.StatusUnmatched, got[0].Status)
				assert.Zero(t, got[0].Score)
			}
		})
	}
}

func TestWiderDateWindow(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DateWindowDays = 3
	got := NewMatcher(cfg).Match(
		[]model.ExtractRecord{rec(5, "20.00", "x")},
		[]model.LedgerTransaction{tx("L1", 8, "20.00", "x")},
	)
	assert.Equal(t, "L1", got[0].LedgerTxID)
}

func TestBestCandidateSelection(t *testing.T) {
	m := NewMatcher(DefaultConfig())

	t.Run("highest similarity wins regardless of date", func(t *testing.T) {
		got := m.Match(
			[]model.ExtractRecord{rec(5, "20.00", "Compra material escritorio")},
			[]model.LedgerTransaction{
				tx("L1", 5, "20.00", "Compra"),
				tx("L2", 6, "20.00", "Compra material escritorio"),
			},
		)
		assert.Equal(t, "L2", got[0].LedgerTxID)
	})

	t.Run("first in ledger order wins ties", func(t *testing.T) {
		got := m.Match(
			[]model.ExtractRecord{rec(5, "20.00", "Compra")},
			[]model.LedgerTransaction{
				tx("L1", 6, "20.00", "Compra"),
				tx("L2", 4, "20.00", "Compra"),
				tx("L3", 5, "20.00", "Compra"),
			},
		)
		assert.Equal(t, "L1", got[0].LedgerTxID)
	})

	t.Run("ledger entries may be reused", func(t *testing.T) {
		got := m.Match(
			[]model.ExtractRecord{rec(5, "20.00", "Compra"), rec(5, "20.00", "Compra")},
			[]model.LedgerTransaction{tx("L1", 5, "20.00", "Compra")},
		)
		assert.Equal(t, "L1", got[0].LedgerTxID)
		assert.Equal(t, "L1", got[1].LedgerTxID)
	})
}

func TestMatchEmptyLedger(t *testing.T) {
	extract := []model.ExtractRecord{rec(0, "1.00", "a"), rec(1, "2.00", "b")}
	got := NewMatcher(DefaultConfig()).Match(extract, nil)
	require.Len(t, got, 2)
	for i, r := range got {
		assert.Equal(t, model.StatusUnmatched, r.Status)
		assert.False(t, r.HasLedgerRef())
		assert.True(t, extract[i].Amount.Equal(r.Amount))
	}
}

func TestMatchBuiltLedger(t *testing.T) {
	extract := make([]model.ExtractRecord, 14)
	for i := range extract {
		extract[i] = rec(i, fmt.Sprintf("%d.00", 100+i), fmt.Sprintf("Movimento %d", i+1))
	}
	txs, err := ledger.Build(extract, ledger.DefaultPolicy())
	require.NoError(t, err)
	require.Len(t, txs, 12)

	results := NewMatcher(DefaultConfig()).Match(extract, txs)
	require.Len(t, results, 14)

	linked := 0
	for i, r := range results {
		assert.True(t, extract[i].Date.Equal(r.Date), "result %d out of order", i)
		pos := i + 1
		if pos%7 == 0 {
			assert.Equal(t, model.StatusUnmatched, r.Status)
			assert.False(t, r.HasLedgerRef())
			continue
		}
		linked++
		assert.True(t, r.HasLedgerRef())
		assert.Contains(t, []model.MatchStatus{model.StatusMatched, model.StatusManualReview}, r.Status)
	}
	assert.Equal(t, 12, linked)

	s := Summarize(results)
	assert.Equal(t, Summary{Total: 14, Matched: 12, ManualReview: 0, Unmatched: 2}, s)
	assert.InDelta(t, 100*12.0/14.0, s.MatchRate(), 1e-9)
}

func TestSimilarDescriptionsNeedReview(t *testing.T) {
	extract := []model.ExtractRecord{
		rec(0, "75.00", "Payment Alpha"),
		rec(0, "75.00", "Payment Beta"),
	}
	txs := []model.LedgerTransaction{tx("L1", 0, "75.00", "Payment Beta")}

	results := NewMatcher(DefaultConfig()).Match(extract, txs)
	require.Len(t, results, 2)

	assert.Equal(t, model.StatusManualReview, results[0].Status)
	assert.Equal(t, "L1", results[0].LedgerTxID)
	assert.InDelta(t, 0.8667, results[0].Score, 1e-3)

	assert.Equal(t, model.StatusMatched, results[1].Status)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	assert.Zero(t, s.Total)
	assert.Zero(t, s.MatchRate())
}

func TestDayIndexWindow(t *testing.T) {
	ledger := []model.LedgerTransaction{
		{Date: day(3)}, {Date: day(0)}, {Date: day(1)}, {Date: day(3)}, {Date: day(40)},
	}
	idx := newDayIndex(ledger)
	d := dayNumber(day(2))

	tests := []struct {
		name string
		days int
		want []int
	}{
		{"same day only", 0, nil},
		{"one day", 1, []int{0, 2, 3}},
		{"two days", 2, []int{0, 1, 2, 3}},
		{"wider than populated days", 1 << 30, []int{0, 1, 2, 3, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, idx.window(d, tt.days))
		})
	}
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	bad := DefaultConfig()
	bad.DateWindowDays = -1
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.DateWindowDays = MaxDateWindowDays + 1
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.AmountEpsilon = decimal.Zero
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.ReviewScore = 0.9
	assert.Error(t, bad.Validate())
}

func TestResultsCSV(t *testing.T) {
	results := []model.ConciliationResult{
		{LedgerTxID: "0x00010001", Date: day(0), Amount: decimal.RequireFromString("-107.25"), Counterparty: "Parceiro X", Score: 0.8 + 0.2/3, Status: model.StatusManualReview},
		{Date: day(1), Amount: decimal.RequireFromString("114.5"), Counterparty: "Doador Y", Status: model.StatusUnmatched},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteResults(&buf, results))
	assert.Equal(t, Header+"\n"+
		"0x00010001,2025-01-01,-107.25,Parceiro X,0.87,manual_review\n"+
		",2025-01-02,114.50,Doador Y,0.00,unmatched\n", buf.String())

	got, err := ReadResults(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "0x00010001", got[0].LedgerTxID)
	assert.InDelta(t, 0.87, got[0].Score, 1e-9)
	assert.False(t, got[1].HasLedgerRef())
	assert.Equal(t, model.StatusUnmatched, got[1].Status)
}

func TestUnmarshalResultErrors(t *testing.T) {
	tests := []struct {
		name string
		row  []string
	}{
		{"short", []string{"x"}},
		{"bad date", []string{"", "x", "1.00", "c", "0.00", "unmatched"}},
		{"bad amount", []string{"", "2025-01-01", "x", "c", "0.00", "unmatched"}},
		{"bad score", []string{"", "2025-01-01", "1.00", "c", "x", "unmatched"}},
		{"bad status", []string{"", "2025-01-01", "1.00", "c", "0.00", "maybe"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalResult(tt.row)
			assert.Error(t, err)
		})
	}
}
