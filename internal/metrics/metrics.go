// Package metrics counts pipeline work and writes it in the Prometheus text
// format for the node exporter textfile collector.
package metrics

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

const namespace = "trustledger"

// Metrics holds the pipeline counters and the registry they belong to.
type Metrics struct {
	Registry *prometheus.Registry

	RecordsCanonicalized prometheus.Counter
	ConciliationResults  *prometheus.CounterVec
	BlocksAppended       prometheus.Counter
	AnchorsArchived      prometheus.Counter
	PipelineErrors       *prometheus.CounterVec
}

// New creates and registers a fresh set of counters.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		RecordsCanonicalized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_canonicalized_total",
			Help:      "Extract records written to canonical files.",
		}),
		ConciliationResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conciliation_results_total",
			Help:      "Conciliation results by status.",
		}, []string{"status"}), // matched | manual_review | unmatched
		BlocksAppended: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blocks_appended_total",
			Help:      "Blocks appended to the chain log.",
		}),
		AnchorsArchived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "anchors_archived_total",
			Help:      "Anchors included in a block and archived.",
		}),
		PipelineErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_errors_total",
			Help:      "Pipeline step failures.",
		}, []string{"step"}),
	}
	m.Registry.MustRegister(
		m.RecordsCanonicalized,
		m.ConciliationResults,
		m.BlocksAppended,
		m.AnchorsArchived,
		m.PipelineErrors,
	)
	return m
}

// Write encodes all metrics in the text exposition format.
func (m *Metrics) Write(w io.Writer) error {
	families, err := m.Registry.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}
	enc := expfmt.NewEncoder(w, expfmt.FmtText)
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("encoding %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// WriteTextFile writes the metrics to path through a temporary file so a
// collector never reads a partial file.
func (m *Metrics) WriteTextFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating metrics dir: %w", err)
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating metrics file: %w", err)
	}
	if err := m.Write(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing metrics file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("renaming metrics file: %w", err)
	}
	return nil
}
