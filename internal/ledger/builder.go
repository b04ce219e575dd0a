package ledger

import (
	"errors"
	"fmt"

	"github.com/cleared-dev/trustledger/internal/id"
	"github.com/cleared-dev/trustledger/internal/model"
)

// ErrEmptyLedger is returned when no record survives the policy. Callers
// should reconcile against an empty ledger rather than abort.
var ErrEmptyLedger = errors.New("empty ledger")

// Build derives ledger transactions from canonical records using policy.
// The returned slice is never nil.
func Build(records []model.ExtractRecord, policy Policy) ([]model.LedgerTransaction, error) {
	txs := make([]model.LedgerTransaction, 0, len(records))
	for i, rec := range records {
		pos := i + 1
		if !id.ValidPosition(pos) {
			return nil, fmt.Errorf("position %d exceeds tx ID range", pos)
		}
		tx, ok := policy.Derive(pos, rec)
		if !ok {
			continue
		}
		txs = append(txs, tx)
	}
	if len(txs) == 0 {
		return txs, ErrEmptyLedger
	}
	return txs, nil
}
