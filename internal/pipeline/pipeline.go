// Package pipeline runs the full photo ingestion: traversal, EXIF
// extraction, country resolution, previews and catalog grouping.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/bstardust/photo-atlas/internal/catalog"
	"github.com/bstardust/photo-atlas/internal/exif"
	"github.com/bstardust/photo-atlas/internal/fshelper"
	"github.com/bstardust/photo-atlas/internal/geo"
	"github.com/bstardust/photo-atlas/internal/logger"
	"github.com/bstardust/photo-atlas/internal/metadata"
	"github.com/bstardust/photo-atlas/internal/preview"
	"github.com/bstardust/photo-atlas/internal/progress"
	"github.com/bstardust/photo-atlas/internal/scanner"
	"github.com/bstardust/photo-atlas/internal/worker"
	"github.com/bstardust/photo-atlas/pkg/common"
	"github.com/bstardust/photo-atlas/pkg/models"
)

// Options tunes a pipeline run
type Options struct {
	// Concurrency is the number of files processed at once
	Concurrency int
	// FileTimeout bounds the time spent on one file; zero disables it
	FileTimeout time.Duration
}

// Pipeline turns photo sources into a catalog
type Pipeline struct {
	extractor *metadata.Extractor
	resolver  *geo.Resolver
	previews  *preview.Generator
	opts      Options
}

// Failure records a file that could not be processed
type Failure struct {
	ID  string
	Err error
}

// Result is the outcome of one run
type Result struct {
	Catalog catalog.Catalog
	// Records holds every extracted record in discovery order, including
	// those left out of the catalog.
	Records  []models.PhotoRecord
	Failures []Failure
	Skipped  int
	Duration time.Duration
}

// New creates a pipeline. previews may be nil to disable preview generation.
func New(extractor *metadata.Extractor, resolver *geo.Resolver, previews *preview.Generator, opts Options) *Pipeline {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Pipeline{
		extractor: extractor,
		resolver:  resolver,
		previews:  previews,
		opts:      opts,
	}
}

// BuildCatalog opens the given paths (directories, zip archives or globs)
// and runs the pipeline over them
func (p *Pipeline) BuildCatalog(ctx context.Context, paths []string) (*Result, error) {
	if len(paths) == 0 {
		return nil, common.NewConfigError("no photo sources configured", nil)
	}

	sources, err := fshelper.ParsePath(paths)
	if err != nil {
		return nil, fmt.Errorf("failed to open photo sources: %w", err)
	}
	defer fshelper.CloseAll(sources)

	return p.Run(ctx, sources)
}

type outcome struct {
	record models.PhotoRecord
	err    error
}

// Run processes every image in sources. A failing file is logged and left
// out; only cancellation of ctx aborts the run.
func (p *Pipeline) Run(ctx context.Context, sources []fshelper.NameFS) (*Result, error) {
	start := time.Now()

	files, err := scanner.Scan(ctx, sources)
	if err != nil {
		return nil, fmt.Errorf("failed to scan photo sources: %w", err)
	}

	// Each task owns one slot, so results keep discovery order
	outcomes := make([]outcome, len(files))
	pool := worker.NewPool(p.opts.Concurrency)
	reporter := progress.New("photos")
	reporter.Start(len(files))

	for i := range files {
		if ctx.Err() != nil {
			break
		}

		i := i
		pool.Submit(func() {
			rec, err := p.processWithTimeout(ctx, files[i])
			outcomes[i] = outcome{record: rec, err: err}
			if err != nil {
				reporter.Error(files[i].ID, err)
			} else {
				reporter.Complete(files[i].ID)
			}
		})
	}
	pool.Wait()
	reporter.Finish()

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	result := &Result{}
	builder := catalog.NewBuilder()
	for i, o := range outcomes {
		if o.err != nil {
			logger.Warn("Skipping %s: %v", files[i].ID, o.err)
			result.Failures = append(result.Failures, Failure{ID: files[i].ID, Err: o.err})
			continue
		}

		result.Records = append(result.Records, o.record)
		if !builder.Add(o.record) {
			logger.Debug("Not cataloging %s: no resolved country or capture date", files[i].ID)
		}
	}

	result.Catalog = builder.Catalog()
	result.Skipped = builder.Skipped()
	result.Duration = time.Since(start)

	logger.Info("Cataloged %d photos in %d groups (%d without country or date, %d failed)",
		result.Catalog.Len(), len(result.Catalog), result.Skipped, len(result.Failures))

	return result, nil
}

// processWithTimeout runs ProcessFile under the per-file timeout. The
// decoder cannot be interrupted, so a timed-out file keeps its goroutine
// until the decoder returns.
func (p *Pipeline) processWithTimeout(ctx context.Context, f scanner.PhotoFile) (models.PhotoRecord, error) {
	if p.opts.FileTimeout <= 0 {
		return p.ProcessFile(f)
	}

	ctx, cancel := context.WithTimeout(ctx, p.opts.FileTimeout)
	defer cancel()

	done := make(chan outcome, 1)
	go func() {
		rec, err := p.ProcessFile(f)
		done <- outcome{record: rec, err: err}
	}()

	select {
	case o := <-done:
		return o.record, o.err
	case <-ctx.Done():
		return models.PhotoRecord{}, fmt.Errorf("processing %s: %w", f.ID, ctx.Err())
	}
}

// ProcessFile extracts, resolves and previews a single file
func (p *Pipeline) ProcessFile(f scanner.PhotoFile) (models.PhotoRecord, error) {
	rc, err := f.Open()
	if err != nil {
		return models.PhotoRecord{}, common.NewIOError("open", f.ID, err)
	}
	fields, err := exif.Decode(rc, f.ID)
	rc.Close()
	if err != nil {
		return models.PhotoRecord{}, err
	}

	rec, err := p.extractor.Extract(f.ID, fields)
	if err != nil {
		return models.PhotoRecord{}, fmt.Errorf("%s: %w", f.ID, err)
	}

	if rec.Location != nil {
		rec = rec.WithCountry(p.resolver.Resolve(*rec.Location))
	}

	if p.previews != nil {
		rec = p.attachPreview(f, rec)
	}

	return rec, nil
}

// attachPreview generates the preview; a failure only costs the preview
func (p *Pipeline) attachPreview(f scanner.PhotoFile, rec models.PhotoRecord) models.PhotoRecord {
	rc, err := f.Open()
	if err != nil {
		logger.Warn("Failed to reopen %s for preview: %v", f.ID, err)
		return rec
	}
	defer rc.Close()

	name, err := p.previews.Generate(rc, f.ID)
	if err != nil {
		logger.Warn("Failed to generate preview for %s: %v", f.ID, err)
		return rec
	}

	return rec.WithPreview(name)
}
