// Package pipeline runs the ingest, reconcile and anchor steps over a
// workspace, recording each step in the audit log and metrics.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/cleared-dev/trustledger/internal/anchor"
	"github.com/cleared-dev/trustledger/internal/auditlog"
	"github.com/cleared-dev/trustledger/internal/config"
	"github.com/cleared-dev/trustledger/internal/importer"
	"github.com/cleared-dev/trustledger/internal/logger"
	"github.com/cleared-dev/trustledger/internal/metrics"
	"github.com/cleared-dev/trustledger/internal/workspace"
)

var (
	// ErrNoInbox signals that the inbox holds no raw extract.
	ErrNoInbox = errors.New("nothing to ingest")
	// ErrNoCanonical signals that no canonical extract exists yet.
	ErrNoCanonical = errors.New("nothing to reconcile")
	// ErrNotCanonical marks a processed extract edited after ingest.
	ErrNotCanonical = errors.New("file is not in canonical form")
)

// Step names used in logs, audit entries and error metrics.
const (
	StepIngest    = "ingest"
	StepLedger    = "ledger"
	StepReconcile = "reconcile"
	StepAnchor    = "anchor"
	StepVerify    = "verify"
)

// ExtractFormat is the parser used for inbox files.
const ExtractFormat = "extract"

// Pipeline runs steps against one workspace.
type Pipeline struct {
	Layout  workspace.Layout
	Config  *config.Config
	Parsers *importer.Registry
	Anchors *anchor.Store
	Metrics *metrics.Metrics
	Audit   *auditlog.Recorder
	Now     func() time.Time
}

// New creates a Pipeline for root. runID tags every audit entry.
func New(root string, cfg *config.Config, runID string) *Pipeline {
	layout := workspace.New(root)
	return &Pipeline{
		Layout:  layout,
		Config:  cfg,
		Parsers: importer.DefaultRegistry(),
		Anchors: anchor.NewStore(layout.Anchors()),
		Metrics: metrics.New(),
		Audit:   auditlog.NewRecorder(root, runID),
		Now:     time.Now,
	}
}

func (p *Pipeline) log(ctx context.Context, step string) zerolog.Logger {
	return logger.FromContext(ctx).With().Str("run_id", p.Audit.RunID()).Str("step", step).Logger()
}

// fail counts err against step and returns it.
func (p *Pipeline) fail(step string, err error) error {
	p.Metrics.PipelineErrors.WithLabelValues(step).Inc()
	return err
}

// writeFile writes data to path through a temporary file.
func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return nil
}
