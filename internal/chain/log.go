package chain

import "github.com/cleared-dev/trustledger/internal/model"

//go:generate mockgen -destination=mocks/mock_chain.go -source=log.go

// Log is an append-only sequence of blocks. Implementations never edit or
// remove a stored block.
type Log interface {
	// Append stores b after the current tip.
	Append(b model.Block) error
	// Iterate calls fn for every block in height order, stopping at the
	// first error.
	Iterate(fn func(model.Block) error) error
	// Last returns the tip, or false when the log is empty.
	Last() (model.Block, bool, error)
}

// AnchorQueue supplies pending anchors and archives them once included.
type AnchorQueue interface {
	Pending() ([]model.Anchor, error)
	Archive(anchors []model.Anchor) error
}
