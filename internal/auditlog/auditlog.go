// Package auditlog records pipeline steps in an append-only CSV next to the
// artifacts they produced.
package auditlog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Entry is one row in the audit log.
type Entry struct {
	Timestamp time.Time
	RunID     string
	Step      string
	Details   string
	Artifact  string
	SHA256    string
}

// Header is the CSV header for audit-log.csv.
const Header = "timestamp,run_id,step,details,artifact,sha256"

// File is the log path relative to the workspace root.
const File = "logs/audit-log.csv"

const (
	numFields    = 6
	colTimestamp = 0
	colRunID     = 1
	colStep      = 2
	colDetails   = 3
	colArtifact  = 4
	colSHA256    = 5
)

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.UTC().Format(time.RFC3339)
	row[colRunID] = e.RunID
	row[colStep] = e.Step
	row[colDetails] = e.Details
	row[colArtifact] = e.Artifact
	row[colSHA256] = e.SHA256
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}

	return Entry{
		Timestamp: ts,
		RunID:     record[colRunID],
		Step:      record[colStep],
		Details:   record[colDetails],
		Artifact:  record[colArtifact],
		SHA256:    record[colSHA256],
	}, nil
}

// Append writes entries to <root>/logs/audit-log.csv, creating the file and
// header if needed.
func Append(root string, entries []Entry) error {
	path := filepath.Join(root, File)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	needsHeader := false
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening audit log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}

	return cw.Error()
}

// Read returns all entries from <root>/logs/audit-log.csv.
// Returns an empty slice if the file does not exist.
func Read(root string) ([]Entry, error) {
	f, err := os.Open(filepath.Join(root, File))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening audit log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading audit log CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Recorder stamps entries with one run id and appends them to a workspace.
type Recorder struct {
	root  string
	runID string
	now   func() time.Time
}

// NewRecorder creates a Recorder for one pipeline run.
func NewRecorder(root, runID string) *Recorder {
	return &Recorder{root: root, runID: runID, now: time.Now}
}

// RunID returns the run id stamped on every entry.
func (r *Recorder) RunID() string {
	return r.runID
}

// Record appends a single entry for step.
func (r *Recorder) Record(step, details, artifact, sha string) error {
	return Append(r.root, []Entry{{
		Timestamp: r.now(),
		RunID:     r.runID,
		Step:      step,
		Details:   details,
		Artifact:  artifact,
		SHA256:    sha,
	}})
}
