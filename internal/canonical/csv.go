package canonical

import (
	"bytes"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/trustledger/internal/model"
)

// FormatVersion identifies the canonical serialization below. Changing the
// header, column order, or number formatting requires a new version and
// invalidates every existing anchor.
const FormatVersion = "v1"

// Header is the CSV header of a canonical extract.
const Header = "date,description,amount,balance,category,counterparty"

// DateFormat is the ISO calendar date used in canonical files.
const DateFormat = "2006-01-02"

const (
	numFields   = 6
	colDate     = 0
	colDesc     = 1
	colAmount   = 2
	colBalance  = 3
	colCategory = 4
	colCparty   = 5
)

// Columns returns the canonical column names in order.
func Columns() []string {
	return strings.Split(Header, ",")
}

// MarshalRecord converts a record to a canonical CSV row.
func MarshalRecord(r model.ExtractRecord) []string {
	row := make([]string, numFields)
	row[colDate] = r.Date.Format(DateFormat)
	row[colDesc] = r.Description
	row[colAmount] = r.Amount.StringFixed(Scale)
	row[colBalance] = r.Balance.StringFixed(Scale)
	row[colCategory] = r.Category
	row[colCparty] = r.Counterparty
	return row
}

// UnmarshalRecord parses a canonical CSV row. row is used for error messages.
func UnmarshalRecord(row int, record []string) (model.ExtractRecord, error) {
	if len(record) != numFields {
		return model.ExtractRecord{}, Malformed(row, "row", "", fmt.Errorf("expected %d fields, got %d", numFields, len(record)))
	}

	date, err := time.Parse(DateFormat, record[colDate])
	if err != nil {
		return model.ExtractRecord{}, Malformed(row, "date", record[colDate], err)
	}

	amount, err := decimal.NewFromString(record[colAmount])
	if err != nil {
		return model.ExtractRecord{}, Malformed(row, "amount", record[colAmount], err)
	}

	balance, err := decimal.NewFromString(record[colBalance])
	if err != nil {
		return model.ExtractRecord{}, Malformed(row, "balance", record[colBalance], err)
	}

	return model.ExtractRecord{
		Date:         date,
		Description:  record[colDesc],
		Amount:       amount,
		Balance:      balance,
		Category:     record[colCategory],
		Counterparty: record[colCparty],
	}, nil
}

// Write serializes records (including header) in canonical format v1.
func Write(w io.Writer, records []model.ExtractRecord) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(Columns()); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, r := range records {
		if err := cw.Write(MarshalRecord(r)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// Read parses a canonical extract written by Write.
func Read(r io.Reader) ([]model.ExtractRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading canonical CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}
	if strings.Join(records[0], ",") != Header {
		return nil, Malformed(1, "header", strings.Join(records[0], ","), fmt.Errorf("expected %q", Header))
	}

	var out []model.ExtractRecord
	for i, rec := range records[1:] {
		er, err := UnmarshalRecord(i+2, rec)
		if err != nil {
			return nil, err
		}
		out = append(out, er)
	}
	return out, nil
}

// Bytes returns the canonical serialization of records.
func Bytes(records []model.ExtractRecord) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Digest returns the hex SHA-256 of data.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Hash normalizes records and returns the canonical records, their exact
// serialized bytes, and the hex SHA-256 of those bytes.
func Hash(records []model.ExtractRecord) ([]model.ExtractRecord, []byte, string, error) {
	canon, err := Normalize(records)
	if err != nil {
		return nil, nil, "", err
	}
	data, err := Bytes(canon)
	if err != nil {
		return nil, nil, "", fmt.Errorf("serializing canonical records: %w", err)
	}
	return canon, data, Digest(data), nil
}
