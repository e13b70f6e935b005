// Package sqlite persists a frozen snapshot in the relational layout shared with parsers and report generators.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/viant/conformance/kind"
	"github.com/viant/conformance/schema"
	"github.com/viant/conformance/store"
)

const ddl = `
CREATE TABLE IF NOT EXISTS sources (
	id INTEGER PRIMARY KEY,
	hash TEXT NOT NULL UNIQUE,
	content BLOB NOT NULL
);
CREATE TABLE IF NOT EXISTS source_locations (
	id INTEGER PRIMARY KEY,
	location TEXT NOT NULL UNIQUE,
	source_id INTEGER NOT NULL REFERENCES sources(id),
	title TEXT
);
CREATE TABLE IF NOT EXISTS source_lines (
	source_id INTEGER NOT NULL REFERENCES sources(id),
	line INTEGER NOT NULL,
	byte_offset INTEGER NOT NULL,
	column_count INTEGER NOT NULL,
	PRIMARY KEY (source_id, line)
);
CREATE TABLE IF NOT EXISTS instances (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	location_id INTEGER NOT NULL REFERENCES source_locations(id),
	start_offset INTEGER NOT NULL,
	end_offset INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS annotations (
	id INTEGER PRIMARY KEY,
	type_id INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS annotation_labels (
	annotation_id INTEGER NOT NULL REFERENCES annotations(id),
	label TEXT NOT NULL,
	PRIMARY KEY (annotation_id, label)
);
CREATE TABLE IF NOT EXISTS annotation_source_regions (
	annotation_id INTEGER NOT NULL REFERENCES annotations(id),
	start_offset INTEGER NOT NULL,
	end_offset INTEGER NOT NULL,
	location_id INTEGER NOT NULL REFERENCES source_locations(id),
	PRIMARY KEY (annotation_id, location_id, start_offset, end_offset)
);
CREATE TABLE IF NOT EXISTS annotation_instance_regions (
	annotation_id INTEGER NOT NULL REFERENCES annotations(id),
	start_offset INTEGER NOT NULL,
	end_offset INTEGER NOT NULL,
	instance_id INTEGER NOT NULL REFERENCES instances(id),
	PRIMARY KEY (annotation_id, instance_id, start_offset, end_offset)
);
CREATE TABLE IF NOT EXISTS annotation_relations (
	id INTEGER PRIMARY KEY,
	source_annotation_id INTEGER NOT NULL REFERENCES annotations(id),
	target_annotation_id INTEGER NOT NULL REFERENCES annotations(id),
	type_id INTEGER NOT NULL,
	UNIQUE (source_annotation_id, target_annotation_id, type_id)
);
CREATE TABLE IF NOT EXISTS annotation_metrics (
	annotation_id INTEGER NOT NULL REFERENCES annotations(id),
	name TEXT NOT NULL,
	value INTEGER NOT NULL,
	PRIMARY KEY (annotation_id, name)
);
`

// tables in dependency order
var tables = []string{
	"sources",
	"source_locations",
	"source_lines",
	"instances",
	"annotations",
	"annotation_labels",
	"annotation_source_regions",
	"annotation_instance_regions",
	"annotation_relations",
	"annotation_metrics",
}

// Store persists snapshots in a SQLite database
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path; foreign keys are enforced on every pooled connection
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open %v: %w", path, err)
	}
	if _, err = db.Exec(ddl); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &Store{db: db}, nil
}

func dsn(path string) string {
	separator := "?"
	if strings.Contains(path, "?") {
		separator = "&"
	}
	return path + separator + "_foreign_keys=on"
}

// Close releases the underlying database handle
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save replaces the stored graph with snapshot in one transaction
func (s *Store) Save(ctx context.Context, snapshot *store.Snapshot) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin save: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	for i := len(tables) - 1; i >= 0; i-- {
		if _, err = tx.ExecContext(ctx, "DELETE FROM "+tables[i]); err != nil {
			return fmt.Errorf("failed to clear %v: %w", tables[i], err)
		}
	}
	w := &writer{ctx: ctx, tx: tx}
	for _, src := range snapshot.Sources() {
		w.exec("INSERT INTO sources(id, hash, content) VALUES (?, ?, ?)", src.ID, src.Hash, src.Content)
		for _, line := range src.Lines.Rows(src.ID) {
			w.exec("INSERT INTO source_lines(source_id, line, byte_offset, column_count) VALUES (?, ?, ?, ?)",
				line.SourceID, line.Line, line.Offset, line.Columns)
		}
	}
	for _, location := range snapshot.Locations() {
		w.exec("INSERT INTO source_locations(id, location, source_id, title) VALUES (?, ?, ?, ?)",
			location.ID, location.Location, location.SourceID, location.Title)
	}
	for _, item := range snapshot.AllInstances() {
		w.exec("INSERT INTO instances(id, name, location_id, start_offset, end_offset) VALUES (?, ?, ?, ?, ?)",
			item.ID, item.Name, item.LocationID, item.Start, item.End)
	}
	ids := snapshot.Annotations()
	for _, id := range ids {
		row, _ := snapshot.Annotation(id)
		w.exec("INSERT INTO annotations(id, type_id) VALUES (?, ?)", row.ID, row.TypeID)
	}
	for _, id := range ids {
		for _, label := range snapshot.Labels(id) {
			w.exec("INSERT INTO annotation_labels(annotation_id, label) VALUES (?, ?)", id, label)
		}
		for _, region := range snapshot.SourceRegions(id) {
			w.exec("INSERT INTO annotation_source_regions(annotation_id, start_offset, end_offset, location_id) VALUES (?, ?, ?, ?)",
				id, region.Start, region.End, region.LocationID)
		}
		for _, region := range snapshot.InstanceRegions(id) {
			w.exec("INSERT INTO annotation_instance_regions(annotation_id, start_offset, end_offset, instance_id) VALUES (?, ?, ?, ?)",
				id, region.Start, region.End, region.InstanceID)
		}
		for _, metric := range snapshot.MetricRows(id) {
			w.exec("INSERT INTO annotation_metrics(annotation_id, name, value) VALUES (?, ?, ?)", id, metric.Name, metric.Value)
		}
	}
	for _, edge := range snapshot.Relations() {
		w.exec("INSERT INTO annotation_relations(id, source_annotation_id, target_annotation_id, type_id) VALUES (?, ?, ?, ?)",
			edge.ID, edge.Source, edge.Target, edge.TypeID)
	}
	if err = w.err; err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit save: %w", err)
	}
	return nil
}

type writer struct {
	ctx context.Context
	tx  *sql.Tx
	err error
}

func (w *writer) exec(query string, args ...interface{}) {
	if w.err != nil {
		return
	}
	if _, err := w.tx.ExecContext(w.ctx, query, args...); err != nil {
		w.err = fmt.Errorf("failed to exec %q: %w", query, err)
	}
}

// Load rebuilds a database from stored rows through the validated write path; types must be the registry the rows were saved with
func (s *Store) Load(ctx context.Context, types *kind.Registry) (*store.Database, error) {
	db := store.New(types)
	err := db.Update(func(tx *store.Tx) error {
		steps := []func(context.Context, *store.Tx) error{
			s.loadSources, s.loadLocations, s.loadInstances, s.loadAnnotations,
			s.loadLabels, s.loadSourceRegions, s.loadInstanceRegions, s.loadMetrics, s.loadRelations,
		}
		for _, step := range steps {
			if err := step(ctx, tx); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return db, nil
}

func (s *Store) query(ctx context.Context, query string, scan func(rows *sql.Rows) error) error {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to query %q: %w", query, err)
	}
	defer rows.Close()
	for rows.Next() {
		if err = scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

var errIDMismatch = errors.New("stored id does not match replayed id")

func expectID[T ~int64](table string, stored, replayed T) error {
	if stored != replayed {
		return fmt.Errorf("%v: stored %d, replayed %d: %w: %w", table, stored, replayed, errIDMismatch, schema.ErrIntegrityViolation)
	}
	return nil
}

func (s *Store) loadSources(ctx context.Context, tx *store.Tx) error {
	return s.query(ctx, "SELECT id, content FROM sources ORDER BY id", func(rows *sql.Rows) error {
		var id schema.SourceID
		var content []byte
		if err := rows.Scan(&id, &content); err != nil {
			return err
		}
		replayed, err := tx.RegisterSource(content)
		if err != nil {
			return err
		}
		return expectID("sources", id, replayed)
	})
}

func (s *Store) loadLocations(ctx context.Context, tx *store.Tx) error {
	return s.query(ctx, "SELECT id, location, source_id, COALESCE(title, '') FROM source_locations ORDER BY id", func(rows *sql.Rows) error {
		var row schema.SourceLocation
		if err := rows.Scan(&row.ID, &row.Location, &row.SourceID, &row.Title); err != nil {
			return err
		}
		replayed, err := tx.BindLocation(row.Location, row.Title, row.SourceID)
		if err != nil {
			return err
		}
		return expectID("source_locations", row.ID, replayed)
	})
}

func (s *Store) loadInstances(ctx context.Context, tx *store.Tx) error {
	return s.query(ctx, "SELECT id, name, location_id, start_offset, end_offset FROM instances ORDER BY id", func(rows *sql.Rows) error {
		var row schema.Instance
		if err := rows.Scan(&row.ID, &row.Name, &row.LocationID, &row.Start, &row.End); err != nil {
			return err
		}
		replayed, err := tx.InsertInstance(row.Name, row.LocationID, row.Range)
		if err != nil {
			return err
		}
		return expectID("instances", row.ID, replayed)
	})
}

func (s *Store) loadAnnotations(ctx context.Context, tx *store.Tx) error {
	return s.query(ctx, "SELECT id, type_id FROM annotations ORDER BY id", func(rows *sql.Rows) error {
		var row schema.Annotation
		if err := rows.Scan(&row.ID, &row.TypeID); err != nil {
			return err
		}
		replayed, err := tx.CreateAnnotation(row.TypeID)
		if err != nil {
			return err
		}
		return expectID("annotations", row.ID, replayed)
	})
}

func (s *Store) loadLabels(ctx context.Context, tx *store.Tx) error {
	return s.query(ctx, "SELECT annotation_id, label FROM annotation_labels ORDER BY rowid", func(rows *sql.Rows) error {
		var row schema.AnnotationLabel
		if err := rows.Scan(&row.AnnotationID, &row.Label); err != nil {
			return err
		}
		return tx.AttachLabel(row.AnnotationID, row.Label)
	})
}

func (s *Store) loadSourceRegions(ctx context.Context, tx *store.Tx) error {
	return s.query(ctx, "SELECT annotation_id, start_offset, end_offset, location_id FROM annotation_source_regions ORDER BY rowid", func(rows *sql.Rows) error {
		var row schema.AnnotationSourceRegion
		if err := rows.Scan(&row.AnnotationID, &row.Start, &row.End, &row.LocationID); err != nil {
			return err
		}
		return tx.AttachSourceRegion(row.AnnotationID, row.LocationID, row.Range)
	})
}

func (s *Store) loadInstanceRegions(ctx context.Context, tx *store.Tx) error {
	return s.query(ctx, "SELECT annotation_id, start_offset, end_offset, instance_id FROM annotation_instance_regions ORDER BY rowid", func(rows *sql.Rows) error {
		var row schema.AnnotationInstanceRegion
		if err := rows.Scan(&row.AnnotationID, &row.Start, &row.End, &row.InstanceID); err != nil {
			return err
		}
		return tx.AttachInstanceRegion(row.AnnotationID, row.InstanceID, row.Range)
	})
}

func (s *Store) loadMetrics(ctx context.Context, tx *store.Tx) error {
	return s.query(ctx, "SELECT annotation_id, name, value FROM annotation_metrics", func(rows *sql.Rows) error {
		var row schema.AnnotationMetric
		if err := rows.Scan(&row.AnnotationID, &row.Name, &row.Value); err != nil {
			return err
		}
		return tx.AttachMetric(row.AnnotationID, row.Name, row.Value)
	})
}

func (s *Store) loadRelations(ctx context.Context, tx *store.Tx) error {
	return s.query(ctx, "SELECT id, source_annotation_id, target_annotation_id, type_id FROM annotation_relations ORDER BY id", func(rows *sql.Rows) error {
		var row schema.AnnotationRelation
		if err := rows.Scan(&row.ID, &row.Source, &row.Target, &row.TypeID); err != nil {
			return err
		}
		replayed, err := tx.AddRelation(row.Source, row.Target, row.TypeID)
		if err != nil {
			return err
		}
		return expectID("annotation_relations", row.ID, replayed)
	})
}
