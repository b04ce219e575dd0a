package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// KindBankExtract is the anchor kind for canonicalized bank extracts.
const KindBankExtract = "bank_extract"

// TimestampFormat is the wire format for anchor and block timestamps.
// Microsecond precision keeps values stable across a JSON round-trip.
const TimestampFormat = "2006-01-02T15:04:05.000000Z"

// Timestamp is a UTC instant serialized with TimestampFormat.
type Timestamp struct {
	time.Time
}

// NewTimestamp truncates t to microseconds and converts it to UTC.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC().Truncate(time.Microsecond)}
}

// String formats the timestamp with TimestampFormat.
func (t Timestamp) String() string {
	return t.UTC().Format(TimestampFormat)
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	parsed, err := time.Parse(TimestampFormat, s)
	if err != nil {
		// Tolerate RFC3339 values written by other tools.
		parsed, err = time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("parsing timestamp %q: %w", s, err)
		}
	}
	*t = NewTimestamp(parsed)
	return nil
}

// Anchor binds a content hash to a canonical artifact. Field order is part of
// the serialized form and must not change.
type Anchor struct {
	Kind          string    `json:"kind"`
	SourceFile    string    `json:"source_file"`
	CanonicalFile string    `json:"canonical_file"`
	SHA256        string    `json:"sha256"`
	Timestamp     Timestamp `json:"timestamp"`
}
