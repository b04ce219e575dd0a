package canonical

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/trustledger/internal/model"
)

// Scale is the fixed number of decimal places for money fields.
const Scale = 2

// inputDateFormats are the date layouts accepted from raw extracts, tried in order.
var inputDateFormats = []string{
	DateFormat,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
}

// ParseDate parses a raw date and truncates it to the calendar day.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range inputDateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return Day(t), nil
		}
	}
	return time.Time{}, errors.New("unrecognized date format")
}

// Day returns the calendar day of t as UTC midnight. The wall-clock date in
// t's own location is kept; no timezone shift is applied.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// RoundMoney rounds to Scale places, half away from zero.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(Scale)
}

// Normalize returns the canonical form of records: trimmed text, calendar
// dates, 2-place money, sorted by (date, amount, description). Remaining ties
// are broken by the full serialized row so the output does not depend on
// input order. The input slice is not modified.
func Normalize(records []model.ExtractRecord) ([]model.ExtractRecord, error) {
	if len(records) == 0 {
		return nil, ErrEmptySource
	}

	out := make([]model.ExtractRecord, len(records))
	for i, r := range records {
		out[i] = model.ExtractRecord{
			Date:         Day(r.Date),
			Description:  strings.TrimSpace(r.Description),
			Amount:       RoundMoney(r.Amount),
			Balance:      RoundMoney(r.Balance),
			Category:     strings.TrimSpace(r.Category),
			Counterparty: strings.TrimSpace(r.Counterparty),
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return Less(out[i], out[j])
	})
	return out, nil
}

// Less is the canonical ordering.
func Less(a, b model.ExtractRecord) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.Before(b.Date)
	}
	if c := a.Amount.Cmp(b.Amount); c != 0 {
		return c < 0
	}
	if a.Description != b.Description {
		return a.Description < b.Description
	}
	return rowKey(a) < rowKey(b)
}

func rowKey(r model.ExtractRecord) string {
	return strings.Join(MarshalRecord(r), "\x1f")
}

// IsCanonical reports whether records are already in canonical form.
func IsCanonical(records []model.ExtractRecord) bool {
	norm, err := Normalize(records)
	if err != nil {
		return false
	}
	for i := range records {
		if !equalRecord(records[i], norm[i]) {
			return false
		}
	}
	return true
}

func equalRecord(a, b model.ExtractRecord) bool {
	return a.Date.Equal(b.Date) &&
		a.Description == b.Description &&
		a.Amount.Equal(b.Amount) &&
		a.Balance.Equal(b.Balance) &&
		a.Category == b.Category &&
		a.Counterparty == b.Counterparty
}
