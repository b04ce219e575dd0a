// Package anchor persists integrity anchors and moves them from the pending
// queue to the archive once a block includes them.
package anchor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cleared-dev/trustledger/internal/model"
)

// FileSuffix is appended to the canonical stem to name an anchor file.
const FileSuffix = ".anchor.json"

// New builds a bank-extract anchor for a canonical artifact.
func New(sourceFile, canonicalFile, sha string, at time.Time) model.Anchor {
	return model.Anchor{
		Kind:          model.KindBankExtract,
		SourceFile:    sourceFile,
		CanonicalFile: canonicalFile,
		SHA256:        sha,
		Timestamp:     model.NewTimestamp(at),
	}
}

// Marshal returns the compact JSON form of a. The same bytes are written to
// disk and hashed as a Merkle leaf.
func Marshal(a model.Anchor) []byte {
	data, err := marshalCompact(a)
	if err != nil {
		// Anchor holds only strings and a Timestamp.
		panic(fmt.Sprintf("marshaling anchor: %v", err))
	}
	return data
}

// Unmarshal parses an anchor document.
func Unmarshal(data []byte) (model.Anchor, error) {
	var a model.Anchor
	if err := json.Unmarshal(data, &a); err != nil {
		return model.Anchor{}, fmt.Errorf("parsing anchor: %w", err)
	}
	if a.SHA256 == "" {
		return model.Anchor{}, fmt.Errorf("parsing anchor: missing sha256")
	}
	return a, nil
}

// FileName returns the anchor file name for a canonical file name, e.g.
// "extract.canonical.csv" becomes "extract.canonical.anchor.json".
func FileName(canonicalFile string) string {
	return strings.TrimSuffix(canonicalFile, ".csv") + FileSuffix
}

func marshalCompact(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
