package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExtractRecord is one row of a bank statement extract after normalization.
type ExtractRecord struct {
	Date         time.Time       // calendar day, UTC midnight
	Description  string          //nolint:revive
	Amount       decimal.Decimal // negative = outflow, positive = inflow
	Balance      decimal.Decimal
	Category     string
	Counterparty string
}

// LedgerTransaction is a row of the internal books derived from an extract.
type LedgerTransaction struct {
	TxID         string
	Date         time.Time
	Amount       decimal.Decimal
	Description  string
	Counterparty string
}

// MatchStatus classifies a conciliation result.
type MatchStatus string

const (
	StatusMatched      MatchStatus = "matched"
	StatusManualReview MatchStatus = "manual_review"
	StatusUnmatched    MatchStatus = "unmatched"
)

// ConciliationResult pairs one extract record with its best ledger candidate.
type ConciliationResult struct {
	LedgerTxID   string // empty when no candidate exists
	Date         time.Time
	Amount       decimal.Decimal
	Counterparty string
	Score        float64
	Status       MatchStatus
}

// HasLedgerRef reports whether the result references a ledger transaction.
func (r ConciliationResult) HasLedgerRef() bool {
	return r.LedgerTxID != ""
}
