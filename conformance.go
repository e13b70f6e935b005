// Package conformance discovers specifications and source code under a root URL, links citations to
// requirements and computes a compliance status for every annotation.
package conformance

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/viant/afs"
	"github.com/viant/conformance/config"
	"github.com/viant/conformance/ingest"
	"github.com/viant/conformance/inspector"
	"github.com/viant/conformance/status"
	"github.com/viant/conformance/store"
	"github.com/viant/conformance/store/sqlite"
)

// Option configures a Service
type Option func(*Service)

// WithDatabasePath persists every computed snapshot into a SQLite database
func WithDatabasePath(path string) Option {
	return func(s *Service) {
		s.databasePath = path
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithFS sets the file system used for discovery
func WithFS(fs afs.Service) Option {
	return func(s *Service) {
		if fs != nil {
			s.fs = fs
		}
	}
}

// Outcome represents the result of one run
type Outcome struct {
	Snapshot *store.Snapshot
	Report   *ingest.Report
	Result   *status.Result
	// Unmatched lists coverage profile files without an ingested source
	Unmatched []string
}

// Service runs discovery, ingestion and status computation
type Service struct {
	config       *config.Config
	fs           afs.Service
	logger       *slog.Logger
	databasePath string
}

// New creates a service, nil cfg uses config.DefaultConfig
func New(cfg *config.Config, opts ...Option) *Service {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	s := &Service{config: cfg, fs: afs.New(), logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run ingests everything under rootURL and computes statuses on the frozen snapshot
func (s *Service) Run(ctx context.Context, rootURL string) (*Outcome, error) {
	types := s.config.Registry()
	inputs, err := ingest.Discover(ctx, s.fs, rootURL, s.config.Ingest.Include)
	if err != nil {
		return nil, err
	}
	factory := inspector.NewFactory(types, inspector.WithCommentPrefixes(s.config.Ingest.MetaPrefix, s.config.Ingest.ContentPrefix))
	pipeline := ingest.New(store.New(types),
		ingest.WithSelector(factory.Scanners),
		ingest.WithLinkers(factory.Linkers()...),
		ingest.WithWorkers(s.config.Ingest.Workers),
		ingest.WithLogger(s.logger))
	snapshot, report, err := pipeline.Run(ctx, inputs)
	if err != nil {
		return nil, err
	}
	table, err := status.DefaultTable(types)
	if err != nil {
		return nil, err
	}
	engine := status.New(table,
		status.WithMaxIterations(s.config.Engine.MaxIterations),
		status.WithWorkers(s.config.Engine.Workers),
		status.WithLogger(s.logger),
		status.WithPartitioner(factory.Partition))
	result, err := engine.Compute(ctx, snapshot)
	if err != nil {
		return nil, err
	}
	if s.databasePath != "" {
		if err = s.save(ctx, snapshot); err != nil {
			return nil, err
		}
	}
	return &Outcome{Snapshot: snapshot, Report: report, Result: result, Unmatched: factory.Coverage().Unmatched()}, nil
}

func (s *Service) save(ctx context.Context, snapshot *store.Snapshot) (err error) {
	db, err := sqlite.Open(s.databasePath)
	if err != nil {
		return err
	}
	defer func() {
		if cErr := db.Close(); cErr != nil && err == nil {
			err = cErr
		}
	}()
	if err = db.Save(ctx, snapshot); err != nil {
		return fmt.Errorf("failed to persist snapshot to %v: %w", s.databasePath, err)
	}
	s.logger.Info("snapshot persisted", "path", s.databasePath)
	return nil
}
