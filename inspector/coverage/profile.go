// Package coverage turns Go coverage profiles into code-region and coverage-hit annotations.
package coverage

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/viant/conformance/ingest"
	"github.com/viant/conformance/kind"
	"github.com/viant/conformance/linemap"
	"github.com/viant/conformance/schema"
	"github.com/viant/conformance/store"
	"golang.org/x/tools/cover"
)

// Metric names
const (
	MetricStatements = "statements"
	MetricCount      = "count"
)

// Block represents a profile block resolved to a byte range of its file
type Block struct {
	Location   string
	Statements int
	Count      int
	schema.Range
}

// Parse decodes a coverage profile; blocks of the same position are merged
func Parse(content []byte) ([]*cover.Profile, error) {
	profiles, err := cover.ParseProfilesFromReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse coverage profile: %w", err)
	}
	return profiles, nil
}

// Blocks resolves profile blocks against the line index of the profiled file.
// Profile columns are 1-based byte columns and block ends are exclusive.
func Blocks(profile *cover.Profile, lines *linemap.Index) ([]Block, error) {
	var result []Block
	for _, block := range profile.Blocks {
		start, err := offset(lines, block.StartLine, block.StartCol)
		if err != nil {
			return nil, fmt.Errorf("invalid block start %v:%d.%d: %w", profile.FileName, block.StartLine, block.StartCol, err)
		}
		end, err := offset(lines, block.EndLine, block.EndCol)
		if err != nil {
			return nil, fmt.Errorf("invalid block end %v:%d.%d: %w", profile.FileName, block.EndLine, block.EndCol, err)
		}
		if end < start {
			return nil, fmt.Errorf("invalid block %v:%d.%d,%d.%d: %w", profile.FileName, block.StartLine, block.StartCol, block.EndLine, block.EndCol, schema.ErrOffsetOutOfRange)
		}
		result = append(result, Block{
			Location:   profile.FileName,
			Statements: block.NumStmt,
			Count:      block.Count,
			Range:      schema.Range{Start: start, End: end},
		})
	}
	return result, nil
}

func offset(lines *linemap.Index, line, column int) (int, error) {
	start, _, ok := lines.Line(line)
	if !ok || column < 1 {
		return 0, schema.ErrOffsetOutOfRange
	}
	result := start + column - 1
	if result > lines.Size() {
		return 0, schema.ErrOffsetOutOfRange
	}
	return result, nil
}

// Collector gathers profiles while scanning and annotates the profiled files when linking
type Collector struct {
	types     *kind.Registry
	mu        sync.Mutex
	profiles  []*cover.Profile
	unmatched []string
}

// Scan parses a coverage profile document
func (c *Collector) Scan(ctx context.Context, doc *ingest.Document) (ingest.Writer, error) {
	profiles, err := Parse(doc.Content)
	if err != nil {
		return nil, err
	}
	return ingest.WriterFunc(func(tx *store.Tx, location schema.LocationID) error {
		c.mu.Lock()
		c.profiles = append(c.profiles, profiles...)
		c.mu.Unlock()
		return nil
	}), nil
}

// Link creates a code-region annotation per block, and a coverage-hit covering it when the block executed
func (c *Collector) Link(ctx context.Context, tx *store.Tx) error {
	codeRegion, err := c.types.MustLookup(kind.CodeRegion)
	if err != nil {
		return err
	}
	coverageHit, err := c.types.MustLookup(kind.CoverageHit)
	if err != nil {
		return err
	}
	covers, err := c.types.MustLookup(kind.Covers)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	sort.SliceStable(c.profiles, func(i, j int) bool { return c.profiles[i].FileName < c.profiles[j].FileName })
	c.unmatched = nil
	for _, profile := range c.profiles {
		locationID, ok := tx.LookupLocation(profile.FileName)
		if !ok {
			c.unmatched = append(c.unmatched, profile.FileName)
			continue
		}
		src, err := tx.Source(locationID)
		if err != nil {
			return err
		}
		blocks, err := Blocks(profile, src.Lines)
		if err != nil {
			return err
		}
		for _, block := range blocks {
			if err := c.annotate(tx, locationID, profile.Mode, block, codeRegion, coverageHit, covers); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Collector) annotate(tx *store.Tx, locationID schema.LocationID, mode string, block Block, codeRegion, coverageHit, covers schema.TypeID) error {
	regionID, err := tx.CreateAnnotation(codeRegion)
	if err != nil {
		return err
	}
	if err = tx.AttachSourceRegion(regionID, locationID, block.Range); err != nil {
		return err
	}
	if err = tx.AttachMetric(regionID, MetricStatements, int64(block.Statements)); err != nil {
		return err
	}
	if block.Count == 0 {
		return nil
	}
	hitID, err := tx.CreateAnnotation(coverageHit)
	if err != nil {
		return err
	}
	if err = tx.AttachSourceRegion(hitID, locationID, block.Range); err != nil {
		return err
	}
	if err = tx.AttachMetric(hitID, MetricCount, int64(block.Count)); err != nil {
		return err
	}
	if mode != "" {
		if err = tx.AttachLabel(hitID, "mode="+mode); err != nil {
			return err
		}
	}
	_, err = tx.AddRelation(hitID, regionID, covers)
	return err
}

// Unmatched returns profiled file names without an ingested location, as of the last link
func (c *Collector) Unmatched() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.unmatched...)
}

// NewCollector creates a collector resolving kinds from types
func NewCollector(types *kind.Registry) *Collector {
	return &Collector{types: types}
}
