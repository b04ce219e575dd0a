package reconcile

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/trustledger/internal/model"
)

// Header is the CSV header for conciliation files.
const Header = "tx_id_ledger,date,amount,counterparty,match_score,status"

const (
	numFields  = 6
	dateFormat = "2006-01-02"
	colTxID    = 0
	colDate    = 1
	colAmount  = 2
	colCparty  = 3
	colScore   = 4
	colStatus  = 5
)

// WriteResults writes a conciliation CSV including header. Scores are
// written with two decimals.
func WriteResults(w io.Writer, results []model.ConciliationResult) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, r := range results {
		if err := cw.Write(MarshalResult(r)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// ReadResults reads all results from a conciliation CSV.
func ReadResults(r io.Reader) ([]model.ConciliationResult, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading conciliation CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	results := make([]model.ConciliationResult, 0, len(records)-1)
	for i, rec := range records[1:] {
		res, err := UnmarshalResult(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		results = append(results, res)
	}
	return results, nil
}

// MarshalResult converts a result to a CSV row. A missing ledger reference
// is written as an empty field.
func MarshalResult(r model.ConciliationResult) []string {
	row := make([]string, numFields)
	row[colTxID] = r.LedgerTxID
	row[colDate] = r.Date.Format(dateFormat)
	row[colAmount] = r.Amount.StringFixed(2)
	row[colCparty] = r.Counterparty
	row[colScore] = strconv.FormatFloat(r.Score, 'f', 2, 64)
	row[colStatus] = string(r.Status)
	return row
}

// UnmarshalResult converts a CSV row to a result.
func UnmarshalResult(record []string) (model.ConciliationResult, error) {
	if len(record) != numFields {
		return model.ConciliationResult{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	date, err := time.Parse(dateFormat, record[colDate])
	if err != nil {
		return model.ConciliationResult{}, fmt.Errorf("parsing date %q: %w", record[colDate], err)
	}

	amount, err := decimal.NewFromString(record[colAmount])
	if err != nil {
		return model.ConciliationResult{}, fmt.Errorf("parsing amount %q: %w", record[colAmount], err)
	}

	score, err := strconv.ParseFloat(record[colScore], 64)
	if err != nil {
		return model.ConciliationResult{}, fmt.Errorf("parsing match score %q: %w", record[colScore], err)
	}

	status := model.MatchStatus(record[colStatus])
	switch status {
	case model.StatusMatched, model.StatusManualReview, model.StatusUnmatched:
	default:
		return model.ConciliationResult{}, fmt.Errorf("unknown status %q", record[colStatus])
	}

	return model.ConciliationResult{
		LedgerTxID:   record[colTxID],
		Date:         date,
		Amount:       amount,
		Counterparty: record[colCparty],
		Score:        score,
		Status:       status,
	}, nil
}
