package model

// BlockHeader holds the fields committed to by the block hash.
type BlockHeader struct {
	Height     int64     `json:"height"`
	Timestamp  Timestamp `json:"timestamp"`
	PrevHash   *string   `json:"prev_hash"` // nil only at height 0
	MerkleRoot string    `json:"merkle_root"`
	TxCount    int       `json:"tx_count"`
}

// Block is one line of the chain log.
type Block struct {
	BlockHeader
	BlockHash string   `json:"block_hash"`
	Txs       []Anchor `json:"txs"`
}

// PrevHashString returns the previous block hash, or "" for genesis.
func (h BlockHeader) PrevHashString() string {
	if h.PrevHash == nil {
		return ""
	}
	return *h.PrevHash
}
