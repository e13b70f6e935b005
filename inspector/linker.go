package inspector

import (
	"context"
	"path"
	"strings"
	"unicode"

	"github.com/viant/conformance/inspector/comment"
	"github.com/viant/conformance/kind"
	"github.com/viant/conformance/schema"
	"github.com/viant/conformance/store"
)

// CitationLinker references requirements from the citations quoting them
type CitationLinker struct {
	types *kind.Registry
}

type candidate struct {
	id      schema.AnnotationID
	section string
	schema.Range
}

// target holds the requirements and sections of one cited location
type target struct {
	text         string
	requirements []candidate
	sections     []candidate
}

// Link anchors each citation quote to its first occurrence in the target text, narrowed to the #fragment section
// when it occurs there, and references the requirements overlapping that occurrence.
// Citations matching nothing are labeled unmatched.
func (l *CitationLinker) Link(ctx context.Context, tx *store.Tx) error {
	reference, err := l.types.MustLookup(kind.Reference)
	if err != nil {
		return err
	}
	cache := map[schema.LocationID]*target{}
	for _, id := range tx.Annotations() {
		if err := ctx.Err(); err != nil {
			return err
		}
		row, _ := tx.Annotation(id)
		if !l.types.In(row.TypeID, kind.GroupCitation) {
			continue
		}
		labels := tx.Labels(id)
		quote := labelValue(labels, LabelQuote)
		matched := 0
		if locationID, fragment, ok := l.resolve(tx, id, labelValue(labels, LabelTarget)); ok {
			cited, ok := cache[locationID]
			if !ok {
				if cited, err = l.target(tx, locationID); err != nil {
					return err
				}
				cache[locationID] = cited
			}
			if occurrence, ok := cited.locate(quote, fragment); ok {
				for _, item := range cited.requirements {
					if !item.Overlaps(occurrence) {
						continue
					}
					if _, err = tx.AddRelation(id, item.id, reference); err != nil {
						return err
					}
					matched++
				}
			}
		}
		if matched == 0 {
			if err = tx.AttachLabel(id, LabelUnmatched); err != nil {
				return err
			}
		}
	}
	return nil
}

// locate finds quote inside the fragment's section first, then anywhere in the text
func (t *target) locate(quote, fragment string) (schema.Range, bool) {
	if fragment != "" {
		fragment = slug(fragment)
		for _, section := range t.sections {
			if section.section != fragment {
				continue
			}
			if occurrence, ok := comment.Locate(t.text[section.Start:section.End], quote); ok {
				return occurrence.Shift(section.Start), true
			}
		}
	}
	return comment.Locate(t.text, quote)
}

// resolve finds the target location: exact, then relative to the citing file, then by unique suffix
func (l *CitationLinker) resolve(tx *store.Tx, id schema.AnnotationID, target string) (schema.LocationID, string, bool) {
	target, fragment, _ := strings.Cut(target, "#")
	if target == "" {
		return 0, "", false
	}
	if locationID, ok := tx.LookupLocation(target); ok {
		return locationID, fragment, true
	}
	for _, region := range tx.SourceRegions(id) {
		if citing, ok := tx.Location(region.LocationID); ok {
			if locationID, ok := tx.LookupLocation(path.Join(path.Dir(citing.Location), target)); ok {
				return locationID, fragment, true
			}
		}
	}
	var found []schema.LocationID
	for _, location := range tx.Locations() {
		if strings.HasSuffix(location.Location, "/"+target) {
			found = append(found, location.ID)
		}
	}
	if len(found) == 1 {
		return found[0], fragment, true
	}
	return 0, "", false
}

func (l *CitationLinker) target(tx *store.Tx, locationID schema.LocationID) (*target, error) {
	src, err := tx.Source(locationID)
	if err != nil {
		return nil, err
	}
	result := &target{text: string(src.Content)}
	invariant, _ := l.types.Lookup(kind.Invariant)
	section, _ := l.types.Lookup(kind.Section)
	for _, id := range tx.AnnotationsIn(locationID) {
		row, _ := tx.Annotation(id)
		isSection := section != 0 && row.TypeID == section
		if !isSection && !l.types.In(row.TypeID, kind.GroupRequirement) && (invariant == 0 || row.TypeID != invariant) {
			continue
		}
		for _, region := range tx.SourceRegions(id) {
			if region.LocationID != locationID {
				continue
			}
			if isSection {
				title := labelValue(tx.Labels(id), LabelTitle)
				result.sections = append(result.sections, candidate{id: id, section: slug(title), Range: region.Range})
			} else {
				result.requirements = append(result.requirements, candidate{id: id, Range: region.Range})
			}
		}
	}
	return result, nil
}

func labelValue(labels []string, prefix string) string {
	for _, label := range labels {
		if strings.HasPrefix(label, prefix) {
			return label[len(prefix):]
		}
	}
	return ""
}

// slug lowercases a title, replaces spaces with dashes and drops punctuation
func slug(title string) string {
	var builder strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_':
			builder.WriteRune(r)
		case unicode.IsSpace(r):
			builder.WriteRune('-')
		}
	}
	return builder.String()
}
