// Package workspace knows where every pipeline artifact lives under a root
// directory.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// File name suffixes for derived artifacts.
const (
	CanonicalSuffix    = ".canonical.csv"
	LedgerSuffix       = ".ledger.csv"
	ConciliationSuffix = ".conciliation.csv"
)

// Layout resolves artifact directories relative to Root.
type Layout struct {
	Root string
}

// New returns the layout for root.
func New(root string) Layout {
	return Layout{Root: root}
}

func (l Layout) Data() string         { return filepath.Join(l.Root, "data") }
func (l Layout) Inbox() string        { return filepath.Join(l.Data(), "inbox") }
func (l Layout) Processed() string    { return filepath.Join(l.Data(), "processed") }
func (l Layout) Anchors() string      { return filepath.Join(l.Data(), "anchors") }
func (l Layout) Ledger() string       { return filepath.Join(l.Data(), "ledger") }
func (l Layout) Conciliation() string { return filepath.Join(l.Data(), "conciliation") }
func (l Layout) Chain() string        { return filepath.Join(l.Root, "chain") }
func (l Layout) Logs() string         { return filepath.Join(l.Root, "logs") }
func (l Layout) Out() string          { return filepath.Join(l.Root, "out") }

// Dirs lists every directory Ensure creates.
func (l Layout) Dirs() []string {
	return []string{
		l.Inbox(),
		l.Processed(),
		l.Anchors(),
		filepath.Join(l.Anchors(), "archived"),
		l.Ledger(),
		l.Conciliation(),
		l.Chain(),
		l.Logs(),
		l.Out(),
	}
}

// Ensure creates all workspace directories.
func (l Layout) Ensure() error {
	for _, dir := range l.Dirs() {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return nil
}

// Rel returns path relative to Root with forward slashes, for logs and
// audit entries. Paths outside Root are returned unchanged.
func (l Layout) Rel(path string) string {
	rel, err := filepath.Rel(l.Root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.ToSlash(rel)
}

// CanonicalName returns the canonical file name for a raw extract stem.
func CanonicalName(stem string) string {
	return stem + CanonicalSuffix
}

// CanonicalStem strips ".csv" from a canonical file name, e.g.
// "x.canonical.csv" becomes "x.canonical".
func CanonicalStem(canonicalFile string) string {
	return strings.TrimSuffix(canonicalFile, ".csv")
}

// LedgerName returns the ledger file name derived from a canonical file.
func LedgerName(canonicalFile string) string {
	return CanonicalStem(canonicalFile) + LedgerSuffix
}

// ConciliationName returns the conciliation file name derived from a
// canonical file.
func ConciliationName(canonicalFile string) string {
	return CanonicalStem(canonicalFile) + ConciliationSuffix
}
