package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/trustledger/internal/canonical"
	"github.com/cleared-dev/trustledger/internal/model"
)

// ExtractParser parses statement extracts with the six canonical columns in
// any order. Column names are matched case-insensitively.
type ExtractParser struct{}

// Format returns the parser name.
func (p *ExtractParser) Format() string { return "extract" }

// Parse reads a raw extract CSV and returns un-normalized ExtractRecords.
func (p *ExtractParser) Parse(r io.Reader) ([]model.ExtractRecord, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	// Short rows are reported per field by parseExtractRow.
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading extract header: %w", err)
	}

	cols, err := headerMap(header, canonical.Columns())
	if err != nil {
		return nil, err
	}

	var recs []model.ExtractRecord
	for row := 2; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var pErr *csv.ParseError
		if errors.As(err, &pErr) {
			return nil, canonical.Malformed(row, "row", "", pErr.Err)
		}
		if err != nil {
			return nil, fmt.Errorf("reading extract CSV: %w", err)
		}
		if blankRow(rec) {
			continue
		}

		er, err := parseExtractRow(row, rec, cols)
		if err != nil {
			return nil, err
		}
		recs = append(recs, er)
	}
	return recs, nil
}

func parseExtractRow(row int, rec []string, cols map[string]int) (model.ExtractRecord, error) {
	field := func(name string) string {
		i := cols[name]
		if i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	rawDate := strings.TrimSpace(field("date"))
	if rawDate == "" {
		return model.ExtractRecord{}, canonical.Malformed(row, "date", "", errors.New("missing value"))
	}
	date, err := canonical.ParseDate(rawDate)
	if err != nil {
		return model.ExtractRecord{}, canonical.Malformed(row, "date", rawDate, err)
	}

	amount, err := parseMoney(row, "amount", field("amount"))
	if err != nil {
		return model.ExtractRecord{}, err
	}
	balance, err := parseMoney(row, "balance", field("balance"))
	if err != nil {
		return model.ExtractRecord{}, err
	}

	return model.ExtractRecord{
		Date:         date,
		Description:  field("description"),
		Amount:       amount,
		Balance:      balance,
		Category:     field("category"),
		Counterparty: field("counterparty"),
	}, nil
}

func parseMoney(row int, name, raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, canonical.Malformed(row, name, "", errors.New("missing value"))
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, canonical.Malformed(row, name, raw, errors.New("not numeric"))
	}
	return d, nil
}

// headerMap maps each required column to its index in header.
func headerMap(header, required []string) (map[string]int, error) {
	cols := make(map[string]int, len(required))
	for _, name := range required {
		found := false
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")), name) {
				cols[name] = i
				found = true
				break
			}
		}
		if !found {
			return nil, canonical.Malformed(1, name, "", errors.New("required column not found in header"))
		}
	}
	return cols, nil
}

func blankRow(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
