package id

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	txPrefix = "0x"
	txHexLen = 4
	maxPos   = 0xFFFF
)

// FormatTxID returns a ledger transaction ID like "0x000C000C" for the
// 1-based position of the source row in the canonical extract.
func FormatTxID(pos int) string {
	return fmt.Sprintf("%s%04X%04X", txPrefix, pos, pos)
}

// ParseTxID parses "0x000C000C" back into its position.
func ParseTxID(id string) (int, error) {
	if !strings.HasPrefix(id, txPrefix) {
		return 0, fmt.Errorf("invalid tx ID format: %q", id)
	}
	body := id[len(txPrefix):]
	if len(body) != 2*txHexLen {
		return 0, fmt.Errorf("invalid tx ID length: %q", id)
	}

	hi, err := strconv.ParseUint(body[:txHexLen], 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid position in tx ID %q: %w", id, err)
	}
	lo, err := strconv.ParseUint(body[txHexLen:], 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid position in tx ID %q: %w", id, err)
	}
	if hi != lo {
		return 0, fmt.Errorf("tx ID %q halves disagree", id)
	}
	return int(hi), nil
}

// ValidPosition reports whether pos fits the fixed-width tx ID format.
func ValidPosition(pos int) bool {
	return pos >= 1 && pos <= maxPos
}
