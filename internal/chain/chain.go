// Package chain maintains the append-only, hash-linked block log.
package chain

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/cleared-dev/trustledger/internal/anchor"
	"github.com/cleared-dev/trustledger/internal/merkle"
	"github.com/cleared-dev/trustledger/internal/model"
)

var (
	// ErrNoPendingAnchors signals that there is nothing to anchor. No block
	// is written.
	ErrNoPendingAnchors = errors.New("nothing to anchor")

	// ErrChainCorrupt matches any *CorruptError.
	ErrChainCorrupt = errors.New("chain corrupt")

	// ErrNotContiguous is returned by Append when a block does not extend
	// the current tip.
	ErrNotContiguous = errors.New("block does not extend chain tip")
)

// CorruptError describes the first integrity violation found in a chain.
type CorruptError struct {
	Height int64
	Reason string
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("chain corrupt at height %d: %s", e.Height, e.Reason)
}

// Is reports whether target is ErrChainCorrupt.
func (e *CorruptError) Is(target error) bool {
	return target == ErrChainCorrupt
}

// LogCloser is a Log holding resources that must be released.
type LogCloser interface {
	Log
	io.Closer
}

// Storage backends.
const (
	BackendJSONL  = "jsonl"
	BackendSQLite = "sqlite"
)

// File names inside the chain directory.
const (
	JSONLFile  = "chain.jsonl"
	SQLiteFile = "chain.db"
)

// Open opens the log for backend inside dir.
func Open(backend, dir string) (LogCloser, error) {
	switch backend {
	case "", BackendJSONL:
		return NewFileLog(filepath.Join(dir, JSONLFile)), nil
	case BackendSQLite:
		return OpenSQLite(filepath.Join(dir, SQLiteFile))
	default:
		return nil, fmt.Errorf("unknown chain backend %q", backend)
	}
}

// LastHeight returns the tip height, or -1 for an empty log.
func LastHeight(l Log) (int64, error) {
	b, ok, err := l.Last()
	if err != nil {
		return 0, err
	}
	if !ok {
		return -1, nil
	}
	return b.Height, nil
}

// HashHeader returns the hex SHA-256 of the compact JSON header.
func HashHeader(h model.BlockHeader) string {
	data, err := marshalCompact(h)
	if err != nil {
		panic(fmt.Sprintf("marshaling block header: %v", err))
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// MerkleRoot returns the root over the serialized anchors.
func MerkleRoot(txs []model.Anchor) string {
	leaves := make([][]byte, len(txs))
	for i, a := range txs {
		leaves[i] = anchor.Marshal(a)
	}
	return merkle.Root(leaves)
}

// NewBlock builds the block following tip. With ok false the block is
// the genesis block.
func NewBlock(tip model.Block, ok bool, at time.Time, txs []model.Anchor) model.Block {
	h := model.BlockHeader{
		Timestamp:  model.NewTimestamp(at),
		MerkleRoot: MerkleRoot(txs),
		TxCount:    len(txs),
	}
	if ok {
		prev := tip.BlockHash
		h.Height = tip.Height + 1
		h.PrevHash = &prev
	}
	return model.Block{
		BlockHeader: h,
		BlockHash:   HashHeader(h),
		Txs:         txs,
	}
}

// checkExtends verifies that b is the block directly after tip.
func checkExtends(tip model.Block, ok bool, b model.Block) error {
	if !ok {
		if b.Height != 0 || b.PrevHash != nil {
			return fmt.Errorf("%w: expected genesis, got height %d", ErrNotContiguous, b.Height)
		}
		return nil
	}
	if b.Height != tip.Height+1 {
		return fmt.Errorf("%w: expected height %d, got %d", ErrNotContiguous, tip.Height+1, b.Height)
	}
	if b.PrevHashString() != tip.BlockHash {
		return fmt.Errorf("%w: prev_hash does not match block %d", ErrNotContiguous, tip.Height)
	}
	return nil
}

func marshalCompact(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// MarshalBlock returns the one-line JSON form of b.
func MarshalBlock(b model.Block) ([]byte, error) {
	data, err := marshalCompact(b)
	if err != nil {
		return nil, fmt.Errorf("marshaling block %d: %w", b.Height, err)
	}
	return data, nil
}

// UnmarshalBlock parses one chain line.
func UnmarshalBlock(data []byte) (model.Block, error) {
	var b model.Block
	if err := json.Unmarshal(data, &b); err != nil {
		return model.Block{}, err
	}
	return b, nil
}
