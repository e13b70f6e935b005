package inspector

import (
	"context"
	"fmt"

	"github.com/viant/conformance/ingest"
	"github.com/viant/conformance/inspector/code"
	"github.com/viant/conformance/inspector/comment"
	"github.com/viant/conformance/inspector/text"
	"github.com/viant/conformance/kind"
	"github.com/viant/conformance/schema"
	"github.com/viant/conformance/store"
)

// Label prefixes written by scanners
const (
	LabelTitle     = "title="
	LabelSection   = "section="
	LabelTarget    = "target="
	LabelQuote     = "quote="
	LabelUnmatched = "unmatched"
)

// RequirementScanner annotates requirement sentences and their markdown sections
type RequirementScanner struct {
	types *kind.Registry
}

// Scan extracts requirements from a specification document
func (s *RequirementScanner) Scan(ctx context.Context, doc *ingest.Document) (ingest.Writer, error) {
	extracted := text.Extract(doc.Content)
	return ingest.WriterFunc(func(tx *store.Tx, location schema.LocationID) error {
		section, err := s.types.MustLookup(kind.Section)
		if err != nil {
			return err
		}
		contains, err := s.types.MustLookup(kind.Contains)
		if err != nil {
			return err
		}
		sections := make([]schema.AnnotationID, len(extracted.Sections))
		for i, item := range extracted.Sections {
			if sections[i], err = s.annotate(tx, section, location, item.Range, LabelTitle+item.Title); err != nil {
				return err
			}
			if item.Parent >= 0 {
				if _, err = tx.AddRelation(sections[item.Parent], sections[i], contains); err != nil {
					return err
				}
			}
		}
		for _, requirement := range extracted.Requirements {
			typeID, err := s.types.MustLookup(requirement.Level)
			if err != nil {
				return err
			}
			var labels []string
			if requirement.Section >= 0 {
				labels = append(labels, LabelSection+extracted.Sections[requirement.Section].Title)
			}
			id, err := s.annotate(tx, typeID, location, requirement.Range, labels...)
			if err != nil {
				return err
			}
			if requirement.Section >= 0 {
				if _, err = tx.AddRelation(sections[requirement.Section], id, contains); err != nil {
					return err
				}
			}
		}
		return nil
	}), nil
}

func (s *RequirementScanner) annotate(tx *store.Tx, typeID schema.TypeID, location schema.LocationID, r schema.Range, labels ...string) (schema.AnnotationID, error) {
	id, err := tx.CreateAnnotation(typeID)
	if err != nil {
		return 0, err
	}
	if err = tx.AttachSourceRegion(id, location, r); err != nil {
		return 0, err
	}
	for _, label := range labels {
		if err = tx.AttachLabel(id, label); err != nil {
			return 0, err
		}
	}
	return id, nil
}

// InstanceScanner inserts the code entities of one language as instances
type InstanceScanner struct {
	parse code.Parser
}

// Scan parses program source
func (s *InstanceScanner) Scan(ctx context.Context, doc *ingest.Document) (ingest.Writer, error) {
	aFile, err := s.parse(ctx, doc.Location, doc.Content)
	if err != nil {
		return nil, err
	}
	return ingest.WriterFunc(func(tx *store.Tx, location schema.LocationID) error {
		for _, entity := range aFile.Entities {
			if _, err := tx.InsertInstance(entity.Name, location, entity.Range); err != nil {
				return fmt.Errorf("failed to insert %v %v: %w", entity.Kind, entity.Name, err)
			}
		}
		return nil
	}), nil
}

// CitationScanner annotates citation comment blocks
type CitationScanner struct {
	types     *kind.Registry
	tokenizer *comment.Tokenizer
}

// Scan groups citation comments of a source file
func (s *CitationScanner) Scan(ctx context.Context, doc *ingest.Document) (ingest.Writer, error) {
	citations := comment.Group(s.tokenizer.Tokenize(doc.Content))
	if len(citations) == 0 {
		return nil, nil
	}
	return ingest.WriterFunc(func(tx *store.Tx, location schema.LocationID) error {
		for _, citation := range citations {
			typeID, err := s.types.MustLookup(citation.Type(kind.Citation))
			if err != nil {
				return fmt.Errorf("citation at line %d: %w", citation.Line, err)
			}
			id, err := tx.CreateAnnotation(typeID)
			if err != nil {
				return err
			}
			if err = tx.AttachSourceRegion(id, location, citation.Range); err != nil {
				return err
			}
			labels := append(citation.Labels(), LabelTarget+citation.Target, LabelQuote+comment.Normalize(citation.Quote))
			for _, label := range labels {
				if err = tx.AttachLabel(id, label); err != nil {
					return err
				}
			}
		}
		return nil
	}), nil
}
