// Package text extracts normative requirements and their sections from plain text and markdown specifications.
package text

import (
	"regexp"
	"strings"

	"github.com/viant/conformance/schema"
)

// Requirement levels
const (
	LevelMust      = "MUST"
	LevelShould    = "SHOULD"
	LevelMay       = "MAY"
	// LevelInvariant marks sentences introduced by "Invariant:", which need both test and library citations
	LevelInvariant = "invariant"
)

const invariantPrefix = "invariant:"

var keywords = regexp.MustCompile(`\b(MUST|SHALL|REQUIRED|SHOULD|RECOMMENDED|MAY|OPTIONAL)\b`)

// Section represents a markdown heading and the text up to the next heading of the same or higher level
type Section struct {
	Title  string
	Depth  int
	Parent int // index of the enclosing section, -1 at top level
	schema.Range
}

// Requirement represents a sentence carrying a requirement keyword
type Requirement struct {
	Level   string
	Text    string
	Section int // index of the innermost section, -1 when outside any section
	schema.Range
}

// Document holds the extraction result
type Document struct {
	Sections     []Section
	Requirements []Requirement
}

// Extract scans content for headings and requirement sentences; fenced code blocks are ignored
func Extract(content []byte) *Document {
	doc := &Document{}
	text := string(content)
	var stack []int
	paragraph := -1
	fenced := false
	closeParagraph := func(end int) {
		if paragraph >= 0 {
			doc.sentences(text, paragraph, end, current(stack))
			paragraph = -1
		}
	}
	for offset := 0; offset < len(text); {
		end := strings.IndexByte(text[offset:], '\n')
		next := len(text)
		if end >= 0 {
			end += offset
			next = end + 1
		} else {
			end = len(text)
		}
		line := strings.TrimSpace(text[offset:end])
		switch {
		case strings.HasPrefix(line, "```"):
			closeParagraph(offset)
			fenced = !fenced
		case fenced:
		case line == "":
			closeParagraph(offset)
		case heading(line) > 0:
			closeParagraph(offset)
			depth := heading(line)
			for len(stack) > 0 && doc.Sections[stack[len(stack)-1]].Depth >= depth {
				doc.Sections[stack[len(stack)-1]].End = offset
				stack = stack[:len(stack)-1]
			}
			doc.Sections = append(doc.Sections, Section{
				Title:  strings.TrimSpace(strings.TrimLeft(line, "#")),
				Depth:  depth,
				Parent: current(stack),
				Range:  schema.Range{Start: offset, End: len(text)},
			})
			stack = append(stack, len(doc.Sections)-1)
		default:
			if paragraph < 0 {
				paragraph = offset
			}
		}
		offset = next
	}
	closeParagraph(len(text))
	return doc
}

func current(stack []int) int {
	if len(stack) == 0 {
		return -1
	}
	return stack[len(stack)-1]
}

func heading(line string) int {
	depth := 0
	for depth < len(line) && line[depth] == '#' {
		depth++
	}
	if depth == 0 || depth > 6 || depth == len(line) || line[depth] != ' ' {
		return 0
	}
	return depth
}

// sentences splits text[start:end] at sentence terminators followed by whitespace
func (d *Document) sentences(text string, start, end, section int) {
	begin := start
	for i := start; i < end; i++ {
		switch text[i] {
		case '.', '!', '?':
			if i+1 == end || isSpace(text[i+1]) {
				d.sentence(text, begin, i+1, section)
				begin = i + 1
			}
		}
	}
	d.sentence(text, begin, end, section)
}

func (d *Document) sentence(text string, start, end, section int) {
	for start < end && isSpace(text[start]) {
		start++
	}
	for end > start && isSpace(text[end-1]) {
		end--
	}
	if start == end {
		return
	}
	level := Level(text[start:end])
	if len(text[start:end]) > len(invariantPrefix) && strings.EqualFold(text[start:start+len(invariantPrefix)], invariantPrefix) {
		level = LevelInvariant
	}
	if level == "" {
		return
	}
	d.Requirements = append(d.Requirements, Requirement{
		Level:   level,
		Text:    text[start:end],
		Section: section,
		Range:   schema.Range{Start: start, End: end},
	})
}

// Level returns the strongest requirement level named in sentence, empty when there is none
func Level(sentence string) string {
	result := ""
	for _, keyword := range keywords.FindAllString(sentence, -1) {
		switch keyword {
		case "MUST", "SHALL", "REQUIRED":
			return LevelMust
		case "SHOULD", "RECOMMENDED":
			result = LevelShould
		case "MAY", "OPTIONAL":
			if result == "" {
				result = LevelMay
			}
		}
	}
	return result
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
