// Package linemap maps byte offsets of a source to 1-based lines and 0-based code point columns.
package linemap

import (
	"bytes"
	"fmt"
	"sort"
	"unicode/utf8"

	"github.com/viant/conformance/schema"
)

// Index represents the derived line index of one source
type Index struct {
	content []byte
	offsets []int // start offset of each line
	columns []int // code points per line, terminator included
}

// New builds an index from content; a line keeps its trailing '\n'
func New(content []byte) *Index {
	idx := &Index{content: content}
	for offset := 0; offset < len(content); {
		end := len(content)
		if i := bytes.IndexByte(content[offset:], '\n'); i != -1 {
			end = offset + i + 1
		}
		idx.offsets = append(idx.offsets, offset)
		idx.columns = append(idx.columns, utf8.RuneCount(content[offset:end]))
		offset = end
	}
	return idx
}

// Size returns the content length in bytes
func (x *Index) Size() int {
	return len(x.content)
}

// LineCount returns number of lines
func (x *Index) LineCount() int {
	return len(x.offsets)
}

// Line returns the start offset and column count of a 1-based line
func (x *Index) Line(line int) (offset int, columns int, ok bool) {
	if line < 1 || line > len(x.offsets) {
		return 0, 0, false
	}
	return x.offsets[line-1], x.columns[line-1], true
}

// OffsetToLine returns the line and column holding offset; an offset at a line boundary belongs to the line it starts.
// Offsets inside a multi-byte code point are rejected.
func (x *Index) OffsetToLine(offset int) (line int, column int, err error) {
	if offset < 0 || offset > len(x.content) {
		return 0, 0, fmt.Errorf("offset %d outside [0, %d]: %w", offset, len(x.content), schema.ErrOffsetOutOfRange)
	}
	if offset < len(x.content) && !utf8.RuneStart(x.content[offset]) {
		return 0, 0, fmt.Errorf("offset %d inside a code point: %w", offset, schema.ErrOffsetOutOfRange)
	}
	if len(x.offsets) == 0 {
		return 1, 0, nil
	}
	i := sort.Search(len(x.offsets), func(i int) bool { return x.offsets[i] > offset }) - 1
	start := x.offsets[i]
	return i + 1, utf8.RuneCount(x.content[start:offset]), nil
}

// LineToOffset returns the byte offset of a line and column
func (x *Index) LineToOffset(line int, column int) (int, error) {
	start, columns, ok := x.Line(line)
	if !ok {
		return 0, fmt.Errorf("line %d outside [1, %d]: %w", line, len(x.offsets), schema.ErrOffsetOutOfRange)
	}
	if column < 0 || column >= columns {
		return 0, fmt.Errorf("column %d outside line %d [0, %d): %w", column, line, columns, schema.ErrOffsetOutOfRange)
	}
	offset := start
	for i := 0; i < column; i++ {
		_, size := utf8.DecodeRune(x.content[offset:])
		offset += size
	}
	return offset, nil
}

// Rows returns the persisted representation of the index
func (x *Index) Rows(sourceID schema.SourceID) []schema.SourceLine {
	rows := make([]schema.SourceLine, len(x.offsets))
	for i, offset := range x.offsets {
		rows[i] = schema.SourceLine{SourceID: sourceID, Line: i + 1, Offset: offset, Columns: x.columns[i]}
	}
	return rows
}
