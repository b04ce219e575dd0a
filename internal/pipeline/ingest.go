package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/cleared-dev/trustledger/internal/anchor"
	"github.com/cleared-dev/trustledger/internal/canonical"
	"github.com/cleared-dev/trustledger/internal/importer"
	"github.com/cleared-dev/trustledger/internal/workspace"
)

// IngestResult describes one canonicalized extract.
type IngestResult struct {
	Source    string
	Canonical string
	Anchor    string
	SHA256    string
	Records   int
}

// Ingest canonicalizes inbox extracts: the latest file by name, or every
// file when all is set. Each file yields a canonical CSV and a pending
// anchor, then moves to the inbox's processed/ directory. Empty extracts
// are moved aside without an anchor. Returns ErrNoInbox when there is
// nothing to read.
func (p *Pipeline) Ingest(ctx context.Context, all bool) ([]IngestResult, error) {
	log := p.log(ctx, StepIngest)

	files, err := importer.Scan(p.Layout.Inbox())
	if err != nil {
		return nil, p.fail(StepIngest, err)
	}
	if len(files) == 0 {
		return nil, ErrNoInbox
	}
	if !all {
		files = files[len(files)-1:]
	}

	parser := p.Parsers.Get(ExtractFormat)
	if parser == nil {
		return nil, p.fail(StepIngest, fmt.Errorf("no parser for format %q", ExtractFormat))
	}

	var results []IngestResult
	empty := 0
	for _, f := range files {
		res, err := p.ingestFile(parser, f)
		if errors.Is(err, canonical.ErrEmptySource) {
			log.Warn().Str("file", f.Name).Msg("extract has no records, skipped")
			if err := importer.MarkProcessed(p.Layout.Inbox(), f.Name); err != nil {
				return results, p.fail(StepIngest, err)
			}
			if err := p.Audit.Record(StepIngest, "empty extract skipped", p.Layout.Rel(f.Path), ""); err != nil {
				return results, p.fail(StepIngest, err)
			}
			empty++
			continue
		}
		if err != nil {
			return results, p.fail(StepIngest, err)
		}
		log.Info().
			Str("file", f.Name).
			Str("canonical", res.Canonical).
			Int("records", res.Records).
			Str("sha256", res.SHA256).
			Msg("extract canonicalized")
		results = append(results, res)
	}

	if len(results) == 0 && empty > 0 {
		return nil, fmt.Errorf("%s: %w", files[len(files)-1].Name, canonical.ErrEmptySource)
	}
	return results, nil
}

func (p *Pipeline) ingestFile(parser importer.Parser, f importer.FileInfo) (IngestResult, error) {
	canonicalName := workspace.CanonicalName(f.Stem())
	anchorName := anchor.FileName(canonicalName)

	archived, err := p.Anchors.IsArchived(anchorName)
	if err != nil {
		return IngestResult{}, err
	}
	if archived {
		return IngestResult{}, fmt.Errorf("%s: %w", f.Name, anchor.ErrAlreadyArchived)
	}

	records, err := importer.ParseFile(parser, f.Path)
	if err != nil {
		return IngestResult{}, err
	}
	canon, data, sha, err := canonical.Hash(records)
	if err != nil {
		return IngestResult{}, fmt.Errorf("canonicalizing %s: %w", f.Name, err)
	}

	canonicalPath := filepath.Join(p.Layout.Processed(), canonicalName)
	if err := writeFile(canonicalPath, data); err != nil {
		return IngestResult{}, err
	}

	a := anchor.New(f.Name, canonicalName, sha, p.Now())
	if err := p.Anchors.Save(anchorName, a); err != nil {
		return IngestResult{}, err
	}

	if err := importer.MarkProcessed(p.Layout.Inbox(), f.Name); err != nil {
		return IngestResult{}, err
	}

	details := fmt.Sprintf("%d records from %s", len(canon), f.Name)
	if err := p.Audit.Record(StepIngest, details, p.Layout.Rel(canonicalPath), sha); err != nil {
		return IngestResult{}, err
	}
	p.Metrics.RecordsCanonicalized.Add(float64(len(canon)))

	return IngestResult{
		Source:    f.Name,
		Canonical: canonicalName,
		Anchor:    anchorName,
		SHA256:    sha,
		Records:   len(canon),
	}, nil
}
