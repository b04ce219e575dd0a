package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cleared-dev/trustledger/internal/canonical"
	"github.com/cleared-dev/trustledger/internal/ledger"
	"github.com/cleared-dev/trustledger/internal/model"
	"github.com/cleared-dev/trustledger/internal/reconcile"
	"github.com/cleared-dev/trustledger/internal/workspace"
)

// ReconcileResult describes one reconciled canonical extract.
type ReconcileResult struct {
	Canonical    string
	Ledger       string
	Conciliation string
	LedgerSize   int
	Summary      reconcile.Summary
}

// Reconcile derives the ledger for canonical extracts and matches the two:
// the latest canonical file by name, or every one when all is set. Returns
// ErrNoCanonical when no canonical file exists.
func (p *Pipeline) Reconcile(ctx context.Context, all bool) ([]ReconcileResult, error) {
	names, err := p.canonicalFiles()
	if err != nil {
		return nil, p.fail(StepReconcile, err)
	}
	if len(names) == 0 {
		return nil, ErrNoCanonical
	}
	if !all {
		names = names[len(names)-1:]
	}

	matcher := reconcile.NewMatcher(p.Config.Reconcile)
	results := make([]ReconcileResult, 0, len(names))
	for _, name := range names {
		res, err := p.reconcileFile(ctx, matcher, name)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

func (p *Pipeline) canonicalFiles() ([]string, error) {
	entries, err := os.ReadDir(p.Layout.Processed())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading processed dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), workspace.CanonicalSuffix) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func (p *Pipeline) reconcileFile(ctx context.Context, matcher *reconcile.Matcher, name string) (ReconcileResult, error) {
	log := p.log(ctx, StepReconcile).With().Str("canonical", name).Logger()

	records, err := readCanonical(filepath.Join(p.Layout.Processed(), name))
	if err != nil {
		return ReconcileResult{}, p.fail(StepReconcile, err)
	}

	txs, err := ledger.Build(records, p.Config.Ledger.DriftPolicy())
	if errors.Is(err, ledger.ErrEmptyLedger) {
		log.Warn().Int("records", len(records)).Msg("ledger is empty, every record will be unmatched")
	} else if err != nil {
		return ReconcileResult{}, p.fail(StepLedger, err)
	}

	ledgerName := workspace.LedgerName(name)
	ledgerPath := filepath.Join(p.Layout.Ledger(), ledgerName)
	var lbuf bytes.Buffer
	if err := ledger.WriteTransactions(&lbuf, txs); err != nil {
		return ReconcileResult{}, p.fail(StepLedger, err)
	}
	if err := writeFile(ledgerPath, lbuf.Bytes()); err != nil {
		return ReconcileResult{}, p.fail(StepLedger, err)
	}
	details := fmt.Sprintf("%d of %d records in ledger", len(txs), len(records))
	if err := p.Audit.Record(StepLedger, details, p.Layout.Rel(ledgerPath), canonical.Digest(lbuf.Bytes())); err != nil {
		return ReconcileResult{}, p.fail(StepLedger, err)
	}

	results := matcher.Match(records, txs)
	summary := reconcile.Summarize(results)

	concName := workspace.ConciliationName(name)
	concPath := filepath.Join(p.Layout.Conciliation(), concName)
	var cbuf bytes.Buffer
	if err := reconcile.WriteResults(&cbuf, results); err != nil {
		return ReconcileResult{}, p.fail(StepReconcile, err)
	}
	if err := writeFile(concPath, cbuf.Bytes()); err != nil {
		return ReconcileResult{}, p.fail(StepReconcile, err)
	}

	details = fmt.Sprintf("%d matched, %d manual_review, %d unmatched", summary.Matched, summary.ManualReview, summary.Unmatched)
	if err := p.Audit.Record(StepReconcile, details, p.Layout.Rel(concPath), canonical.Digest(cbuf.Bytes())); err != nil {
		return ReconcileResult{}, p.fail(StepReconcile, err)
	}

	p.Metrics.ConciliationResults.WithLabelValues(string(model.StatusMatched)).Add(float64(summary.Matched))
	p.Metrics.ConciliationResults.WithLabelValues(string(model.StatusManualReview)).Add(float64(summary.ManualReview))
	p.Metrics.ConciliationResults.WithLabelValues(string(model.StatusUnmatched)).Add(float64(summary.Unmatched))

	log.Info().
		Int("ledger", len(txs)).
		Int("matched", summary.Matched).
		Int("manual_review", summary.ManualReview).
		Int("unmatched", summary.Unmatched).
		Float64("match_rate", summary.MatchRate()).
		Msg("extract reconciled")

	return ReconcileResult{
		Canonical:    name,
		Ledger:       ledgerName,
		Conciliation: concName,
		LedgerSize:   len(txs),
		Summary:      summary,
	}, nil
}

func readCanonical(path string) ([]model.ExtractRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening canonical file: %w", err)
	}
	defer f.Close()

	records, err := canonical.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	if !canonical.IsCanonical(records) {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), ErrNotCanonical)
	}
	return records, nil
}
