package chain

import (
	"fmt"

	"github.com/cleared-dev/trustledger/internal/model"
)

// Verify walks the log and re-checks every block: contiguous heights from 0,
// null prev_hash at genesis, prev_hash linkage, block hash, merkle root and
// tx_count, and that no anchor appears in two blocks. It returns the number
// of valid blocks and a *CorruptError for the first violation. Nothing is
// repaired.
func Verify(l Log) (int, error) {
	var (
		n    int
		prev model.Block
	)
	seen := make(map[string]int64) // anchor key -> sealing height
	err := l.Iterate(func(b model.Block) error {
		if err := verifyBlock(b, prev, n); err != nil {
			return err
		}
		for _, a := range b.Txs {
			if h, dup := seen[anchorKey(a)]; dup {
				return &CorruptError{Height: b.Height, Reason: fmt.Sprintf("anchor %s already sealed in block %d", a.CanonicalFile, h)}
			}
			seen[anchorKey(a)] = b.Height
		}
		prev = b
		n++
		return nil
	})
	if err != nil {
		return n, err
	}
	return n, nil
}

func verifyBlock(b, prev model.Block, pos int) error {
	corrupt := func(reason string) error {
		return &CorruptError{Height: int64(pos), Reason: reason}
	}

	if b.Height != int64(pos) {
		return corrupt("height out of sequence")
	}
	if pos == 0 {
		if b.PrevHash != nil {
			return corrupt("genesis block has prev_hash")
		}
	} else {
		if b.PrevHash == nil {
			return corrupt("missing prev_hash")
		}
		if *b.PrevHash != prev.BlockHash {
			return corrupt("prev_hash does not match previous block")
		}
	}
	if HashHeader(b.BlockHeader) != b.BlockHash {
		return corrupt("block_hash does not match header")
	}
	if b.TxCount != len(b.Txs) {
		return corrupt("tx_count does not match txs")
	}
	if MerkleRoot(b.Txs) != b.MerkleRoot {
		return corrupt("merkle_root does not match txs")
	}
	return nil
}
