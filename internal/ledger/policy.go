package ledger

import (
	"github.com/cleared-dev/trustledger/internal/id"
	"github.com/cleared-dev/trustledger/internal/model"
)

// Policy derives the internal-books view of one canonical extract record.
// pos is the 1-based position in the canonical sequence. Returning false
// means the record has no ledger counterpart.
type Policy interface {
	Derive(pos int, rec model.ExtractRecord) (model.LedgerTransaction, bool)
}

// Defaults for ModuloPolicy.
const (
	DefaultDropEvery = 7
	DefaultTagEvery  = 3
	DefaultMarker    = " - ref"
)

// ModuloPolicy simulates drift between a bank statement and the books:
// every DropEvery-th record is missing from the books and every TagEvery-th
// record carries Marker appended to its description. A zero modulus
// disables that rule.
type ModuloPolicy struct {
	DropEvery int
	TagEvery  int
	Marker    string
}

// DefaultPolicy returns the standard drift policy.
func DefaultPolicy() ModuloPolicy {
	return ModuloPolicy{DropEvery: DefaultDropEvery, TagEvery: DefaultTagEvery, Marker: DefaultMarker}
}

// Drops reports whether the record at pos is left out of the books.
func (p ModuloPolicy) Drops(pos int) bool {
	return p.DropEvery > 0 && pos%p.DropEvery == 0
}

// Tags reports whether the record at pos gets the reference marker.
func (p ModuloPolicy) Tags(pos int) bool {
	return p.TagEvery > 0 && pos%p.TagEvery == 0
}

// Derive implements Policy.
func (p ModuloPolicy) Derive(pos int, rec model.ExtractRecord) (model.LedgerTransaction, bool) {
	if p.Drops(pos) {
		return model.LedgerTransaction{}, false
	}
	desc := rec.Description
	if p.Tags(pos) {
		desc += p.Marker
	}
	return model.LedgerTransaction{
		TxID:         id.FormatTxID(pos),
		Date:         rec.Date,
		Amount:       rec.Amount,
		Description:  desc,
		Counterparty: rec.Counterparty,
	}, true
}

// Policy names accepted in configuration.
const (
	PolicyModulo = "modulo"
	PolicyMirror = "mirror"
)

// MirrorPolicy copies every record unchanged.
type MirrorPolicy struct{}

// Derive implements Policy.
func (MirrorPolicy) Derive(pos int, rec model.ExtractRecord) (model.LedgerTransaction, bool) {
	return ModuloPolicy{}.Derive(pos, rec)
}
