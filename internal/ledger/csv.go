package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/trustledger/internal/id"
	"github.com/cleared-dev/trustledger/internal/model"
)

// Header is the CSV header for ledger files.
const Header = "tx_id,date,amount,description,counterparty"

const (
	numFields  = 5
	dateFormat = "2006-01-02"
	colTxID    = 0
	colDate    = 1
	colAmount  = 2
	colDesc    = 3
	colCparty  = 4
)

// ReadTransactions reads all transactions from a ledger CSV.
func ReadTransactions(r io.Reader) ([]model.LedgerTransaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading ledger CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	txs := make([]model.LedgerTransaction, 0, len(records)-1)
	for i, rec := range records[1:] {
		tx, err := UnmarshalTransaction(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

// WriteTransactions writes a ledger CSV including header. An empty ledger
// still gets its header.
func WriteTransactions(w io.Writer, txs []model.LedgerTransaction) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, tx := range txs {
		if err := cw.Write(MarshalTransaction(tx)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// MarshalTransaction converts a transaction to a CSV row.
func MarshalTransaction(tx model.LedgerTransaction) []string {
	row := make([]string, numFields)
	row[colTxID] = tx.TxID
	row[colDate] = tx.Date.Format(dateFormat)
	row[colAmount] = tx.Amount.StringFixed(2)
	row[colDesc] = tx.Description
	row[colCparty] = tx.Counterparty
	return row
}

// UnmarshalTransaction converts a CSV row to a transaction.
func UnmarshalTransaction(record []string) (model.LedgerTransaction, error) {
	if len(record) != numFields {
		return model.LedgerTransaction{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}
	if _, err := id.ParseTxID(record[colTxID]); err != nil {
		return model.LedgerTransaction{}, err
	}

	date, err := time.Parse(dateFormat, record[colDate])
	if err != nil {
		return model.LedgerTransaction{}, fmt.Errorf("parsing date %q: %w", record[colDate], err)
	}

	amount, err := decimal.NewFromString(record[colAmount])
	if err != nil {
		return model.LedgerTransaction{}, fmt.Errorf("parsing amount %q: %w", record[colAmount], err)
	}

	return model.LedgerTransaction{
		TxID:         record[colTxID],
		Date:         date,
		Amount:       amount,
		Description:  record[colDesc],
		Counterparty: record[colCparty],
	}, nil
}
