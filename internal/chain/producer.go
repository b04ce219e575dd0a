package chain

import (
	"fmt"
	"sync"
	"time"

	"github.com/cleared-dev/trustledger/internal/model"
)

// Producer turns all pending anchors into one block.
type Producer struct {
	Log   Log
	Queue AnchorQueue
	// Now stamps new blocks; defaults to time.Now.
	Now func() time.Time

	mu sync.Mutex
}

// NewProducer creates a Producer stamping blocks with the wall clock.
func NewProducer(log Log, queue AnchorQueue) *Producer {
	return &Producer{Log: log, Queue: queue, Now: time.Now}
}

// Produce appends one block containing every pending anchor and archives
// them. It returns ErrNoPendingAnchors without writing when the queue is
// empty. Anchors stay pending if the append fails. Pending anchors already
// sealed in the tip block, left behind by a failed archive, are archived
// without being included again.
func (p *Producer) Produce() (model.Block, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pending, err := p.Queue.Pending()
	if err != nil {
		return model.Block{}, fmt.Errorf("listing pending anchors: %w", err)
	}
	if len(pending) == 0 {
		return model.Block{}, ErrNoPendingAnchors
	}

	tip, ok, err := p.Log.Last()
	if err != nil {
		return model.Block{}, fmt.Errorf("reading chain tip: %w", err)
	}

	if ok {
		var sealed []model.Anchor
		sealed, pending = splitSealed(tip, pending)
		if len(sealed) > 0 {
			if err := p.Queue.Archive(sealed); err != nil {
				return model.Block{}, fmt.Errorf("archiving anchors of block %d: %w", tip.Height, err)
			}
		}
		if len(pending) == 0 {
			return model.Block{}, ErrNoPendingAnchors
		}
	}

	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	b := NewBlock(tip, ok, now(), pending)

	if err := p.Log.Append(b); err != nil {
		return model.Block{}, fmt.Errorf("appending block %d: %w", b.Height, err)
	}
	if err := p.Queue.Archive(pending); err != nil {
		return b, fmt.Errorf("archiving anchors of block %d: %w", b.Height, err)
	}
	return b, nil
}

// splitSealed separates anchors already present in b from the rest.
func splitSealed(b model.Block, anchors []model.Anchor) (sealed, rest []model.Anchor) {
	inBlock := make(map[string]bool, len(b.Txs))
	for _, a := range b.Txs {
		inBlock[anchorKey(a)] = true
	}
	for _, a := range anchors {
		if inBlock[anchorKey(a)] {
			sealed = append(sealed, a)
		} else {
			rest = append(rest, a)
		}
	}
	return sealed, rest
}

func anchorKey(a model.Anchor) string {
	return a.SHA256 + "|" + a.CanonicalFile
}
