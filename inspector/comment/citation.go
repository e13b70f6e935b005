package comment

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/viant/conformance/schema"
)

// Meta keys with a dedicated meaning
const (
	KeySource = "source"
	KeyType   = "type"
)

// Citation represents a grouped block of citation comments
type Citation struct {
	Target string
	Meta   map[string]string
	Quote  string
	Line   int
	schema.Range
}

// Type returns the declared citation type, or fallback
func (c *Citation) Type(fallback string) string {
	if value := c.Meta[KeyType]; value != "" {
		return value
	}
	return fallback
}

// Labels returns meta entries as sorted key=value labels
func (c *Citation) Labels() []string {
	var result []string
	for key, value := range c.Meta {
		result = append(result, key+"="+value)
	}
	sort.Strings(result)
	return result
}

// Group folds tokens into citations; a block ends at a non-adjacent line or at a new target after quoted content.
// Blocks without a target or without quoted content are dropped.
func Group(tokens []Token) []*Citation {
	var result []*Citation
	var current *Citation
	var quote []string
	lastLine := 0
	flush := func() {
		if current != nil && current.Target != "" && len(quote) > 0 {
			current.Quote = strings.Join(quote, " ")
			result = append(result, current)
		}
		current, quote = nil, nil
	}
	for _, token := range tokens {
		if current != nil && token.Line != lastLine+1 {
			flush()
		}
		lastLine = token.Line
		isTarget := token.Kind == UnnamedMeta || token.Kind == Meta && token.Key == KeySource
		if current != nil && isTarget && len(quote) > 0 {
			flush()
		}
		if current == nil {
			current = &Citation{Meta: map[string]string{}, Line: token.Line, Range: token.Range}
		}
		current.End = token.End
		switch {
		case isTarget:
			current.Target = token.Value
		case token.Kind == Meta:
			current.Meta[token.Key] = token.Value
		default:
			if token.Value != "" {
				quote = append(quote, token.Value)
			}
		}
	}
	flush()
	return result
}

// Normalize collapses whitespace runs to single spaces
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Locate returns the byte range of the first occurrence of quote in text, comparing both with whitespace collapsed
func Locate(text, quote string) (schema.Range, bool) {
	quote = Normalize(quote)
	if quote == "" {
		return schema.Range{}, false
	}
	var normalized strings.Builder
	var offsets []int // byte offset in text of each normalized byte
	pending := -1
	for offset := 0; offset < len(text); {
		r, size := utf8.DecodeRuneInString(text[offset:])
		if unicode.IsSpace(r) {
			if pending < 0 && normalized.Len() > 0 {
				pending = offset
			}
			offset += size
			continue
		}
		if pending >= 0 {
			normalized.WriteByte(' ')
			offsets = append(offsets, pending)
			pending = -1
		}
		normalized.WriteString(text[offset : offset+size])
		for i := 0; i < size; i++ {
			offsets = append(offsets, offset+i)
		}
		offset += size
	}
	index := strings.Index(normalized.String(), quote)
	if index < 0 {
		return schema.Range{}, false
	}
	return schema.Range{Start: offsets[index], End: offsets[index+len(quote)-1] + 1}, true
}
