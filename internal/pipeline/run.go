package pipeline

import (
	"context"
	"errors"

	"github.com/cleared-dev/trustledger/internal/anchor"
	"github.com/cleared-dev/trustledger/internal/canonical"
	"github.com/cleared-dev/trustledger/internal/chain"
	"github.com/cleared-dev/trustledger/internal/importer"
	"github.com/cleared-dev/trustledger/internal/model"
)

// RunSummary collects what one RunAll did. Block is nil when there was
// nothing to anchor.
type RunSummary struct {
	Ingested   []IngestResult
	Reconciled []ReconcileResult
	Block      *model.Block
}

// RunAll ingests every inbox file, reconciles every canonical extract and
// anchors the pending queue. Benign no-ops do not stop the run.
func (p *Pipeline) RunAll(ctx context.Context) (RunSummary, error) {
	var sum RunSummary

	ingested, err := p.Ingest(ctx, true)
	switch {
	case errors.Is(err, ErrNoInbox), errors.Is(err, canonical.ErrEmptySource):
	case err != nil:
		return sum, err
	}
	sum.Ingested = ingested

	reconciled, err := p.Reconcile(ctx, true)
	switch {
	case errors.Is(err, ErrNoCanonical):
	case err != nil:
		return sum, err
	}
	sum.Reconciled = reconciled

	b, err := p.Anchor(ctx)
	switch {
	case errors.Is(err, chain.ErrNoPendingAnchors):
	case err != nil:
		return sum, err
	default:
		sum.Block = &b
	}
	return sum, nil
}

// Status is a snapshot of the workspace.
type Status struct {
	InboxFiles      int
	CanonicalFiles  int
	PendingAnchors  int
	ArchivedAnchors int
	Height          int64 // -1 for an empty chain
	LastHash        string
}

// Status reports queue sizes and the chain tip without verifying it.
func (p *Pipeline) Status(ctx context.Context) (Status, error) {
	var st Status

	inbox, err := importer.Scan(p.Layout.Inbox())
	if err != nil {
		return st, err
	}
	st.InboxFiles = len(inbox)

	names, err := p.canonicalFiles()
	if err != nil {
		return st, err
	}
	st.CanonicalFiles = len(names)

	pending, err := p.Anchors.Pending()
	if err != nil {
		return st, err
	}
	st.PendingAnchors = len(pending)

	archived, err := p.Anchors.Archived()
	if err != nil {
		return st, err
	}
	st.ArchivedAnchors = len(archived)

	l, err := p.openChain()
	if err != nil {
		return st, err
	}
	defer l.Close()

	tip, ok, err := l.Last()
	if err != nil {
		return st, err
	}
	st.Height = -1
	if ok {
		st.Height = tip.Height
		st.LastHash = tip.BlockHash
	}
	return st, nil
}

var _ chain.AnchorQueue = (*anchor.Store)(nil)
