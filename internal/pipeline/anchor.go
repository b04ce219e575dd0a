package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/cleared-dev/trustledger/internal/chain"
	"github.com/cleared-dev/trustledger/internal/gitops"
	"github.com/cleared-dev/trustledger/internal/model"
)

// Committed paths, relative to the workspace root.
var evidencePaths = []string{"data", "chain", "logs"}

func (p *Pipeline) openChain() (chain.LogCloser, error) {
	return chain.Open(p.Config.Chain.Backend, p.Layout.Chain())
}

func (p *Pipeline) chainFile() string {
	name := chain.JSONLFile
	if p.Config.Chain.Backend == chain.BackendSQLite {
		name = chain.SQLiteFile
	}
	return filepath.Join(p.Layout.Chain(), name)
}

// Anchor verifies the chain, then appends one block with every pending
// anchor and archives them. Returns chain.ErrNoPendingAnchors without
// writing when the queue is empty, and never extends a corrupt chain.
func (p *Pipeline) Anchor(ctx context.Context) (model.Block, error) {
	log := p.log(ctx, StepAnchor)

	l, err := p.openChain()
	if err != nil {
		return model.Block{}, p.fail(StepAnchor, err)
	}
	defer l.Close()

	if _, err := chain.Verify(l); err != nil {
		return model.Block{}, p.fail(StepVerify, err)
	}

	producer := chain.NewProducer(l, p.Anchors)
	producer.Now = p.Now
	b, err := producer.Produce()
	if errors.Is(err, chain.ErrNoPendingAnchors) {
		return model.Block{}, err
	}
	if err != nil {
		return model.Block{}, p.fail(StepAnchor, err)
	}

	p.Metrics.BlocksAppended.Inc()
	p.Metrics.AnchorsArchived.Add(float64(b.TxCount))
	log.Info().
		Int64("height", b.Height).
		Str("block_hash", b.BlockHash).
		Str("merkle_root", b.MerkleRoot).
		Int("tx_count", b.TxCount).
		Msg("block appended")

	details := fmt.Sprintf("block %d with %d anchors", b.Height, b.TxCount)
	if err := p.Audit.Record(StepAnchor, details, p.Layout.Rel(p.chainFile()), b.BlockHash); err != nil {
		return b, p.fail(StepAnchor, err)
	}

	p.commitEvidence(ctx, b)
	return b, nil
}

// commitEvidence commits the workspace when git auto-commit is on. The
// block is already durable, so failures are only logged.
func (p *Pipeline) commitEvidence(ctx context.Context, b model.Block) {
	g := p.Config.Git
	if !g.AutoCommit || !gitops.IsRepo(p.Layout.Root) {
		return
	}
	log := p.log(ctx, StepAnchor)

	msg := fmt.Sprintf("anchor: block %d (%s)", b.Height, b.BlockHash[:8])
	author := gitops.Author{Name: g.AuthorName, Email: g.AuthorEmail}
	hash, err := gitops.Commit(p.Layout.Root, msg, author, evidencePaths...)
	if errors.Is(err, gitops.ErrNothingToCommit) {
		return
	}
	if err != nil {
		p.Metrics.PipelineErrors.WithLabelValues(StepAnchor).Inc()
		log.Error().Err(err).Msg("git commit failed")
		return
	}
	log.Info().Str("commit", hash).Msg("evidence committed")
}

// Verify checks the whole chain and returns the number of valid blocks.
func (p *Pipeline) Verify(ctx context.Context) (int, error) {
	l, err := p.openChain()
	if err != nil {
		return 0, p.fail(StepVerify, err)
	}
	defer l.Close()

	log := p.log(ctx, StepVerify)
	n, err := chain.Verify(l)
	if err != nil {
		log.Error().Err(err).Int("valid_blocks", n).Msg("chain verification failed")
		return n, p.fail(StepVerify, err)
	}
	log.Info().Int("blocks", n).Msg("chain verified")
	return n, nil
}
