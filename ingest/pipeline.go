package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/viant/conformance/linemap"
	"github.com/viant/conformance/store"
	"golang.org/x/sync/errgroup"
)

// Option configures a Pipeline
type Option func(*Pipeline)

// WithSelector sets the scanner selector
func WithSelector(selector Selector) Option {
	return func(p *Pipeline) {
		p.selector = selector
	}
}

// WithScanners uses the same scanners for every location
func WithScanners(scanners ...Scanner) Option {
	return func(p *Pipeline) {
		p.selector = func(string) []Scanner { return scanners }
	}
}

// WithLinkers appends cross-source linkers
func WithLinkers(linkers ...Linker) Option {
	return func(p *Pipeline) {
		p.linkers = append(p.linkers, linkers...)
	}
}

// WithWorkers sets the number of sources scanned concurrently
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// Pipeline ingests sources into a database
type Pipeline struct {
	db       *store.Database
	selector Selector
	linkers  []Linker
	workers  int
	logger   *slog.Logger
}

// New creates a pipeline writing into db
func New(db *store.Database, opts ...Option) *Pipeline {
	p := &Pipeline{
		db:       db,
		selector: func(string) []Scanner { return nil },
		workers:  runtime.GOMAXPROCS(0),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run ingests every input, links across sources and freezes the database.
// Per-source and linker failures are collected in the report; only cancellation is returned as error.
func (p *Pipeline) Run(ctx context.Context, inputs []Input) (*store.Snapshot, *Report, error) {
	report := &Report{}
	p.logger.Info("ingest started", "sources", len(inputs), "workers", p.workers)
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for _, input := range inputs {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			p.ingest(gCtx, input, report)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, report, fmt.Errorf("ingest: %w", err)
	}

	if err := p.db.BeginLink(); err != nil {
		return nil, report, err
	}
	for _, linker := range p.linkers {
		if err := ctx.Err(); err != nil {
			return nil, report, fmt.Errorf("link: %w", err)
		}
		err := p.db.Update(func(tx *store.Tx) error {
			return linker.Link(ctx, tx)
		})
		if err != nil {
			name := fmt.Sprintf("%T", linker)
			p.logger.Error("link failed", "linker", name, "error", err)
			report.fail(name, StageLink, err)
		}
	}
	report.sort()
	snapshot := p.db.Freeze()
	stats := p.db.Stats()
	p.logger.Info("ingest finished",
		"ingested", len(report.Ingested),
		"failed", len(report.Failures),
		"annotations", stats.Annotations,
		"relations", stats.Relations)
	return snapshot, report, nil
}

func (p *Pipeline) ingest(ctx context.Context, input Input, report *Report) {
	doc := &Document{Input: input, Lines: linemap.New(input.Content)}
	var writers []Writer
	for _, scanner := range p.selector(input.Location) {
		writer, err := scanner.Scan(ctx, doc)
		if err != nil {
			p.logger.Warn("source skipped", "location", input.Location, "stage", StageScan, "error", err)
			report.fail(input.Location, StageScan, err)
			return
		}
		if writer != nil {
			writers = append(writers, writer)
		}
	}
	err := p.db.Update(func(tx *store.Tx) error {
		sourceID, err := tx.RegisterSource(input.Content)
		if err != nil {
			return err
		}
		location, err := tx.BindLocation(input.Location, input.Title, sourceID)
		if err != nil {
			return err
		}
		for _, writer := range writers {
			if err = writer.Write(tx, location); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		p.logger.Warn("source rolled back", "location", input.Location, "stage", StageWrite, "error", err)
		report.fail(input.Location, StageWrite, err)
		return
	}
	report.ingested(input.Location)
}
