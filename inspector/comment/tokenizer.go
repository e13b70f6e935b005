// Package comment tokenizes citation comments embedded in program source.
//
// A citation is a block of consecutive comment lines:
//
//	//= spec.md#caching
//	//= type=test
//	//# The cache MUST evict the least recently used entry
//	//# when full.
package comment

import (
	"strings"

	"github.com/viant/conformance/schema"
)

// Default prefixes
const (
	DefaultMetaPrefix    = "//="
	DefaultContentPrefix = "//#"
)

// Kind represents a token kind
type Kind int

const (
	// Meta is a key=value line
	Meta Kind = iota
	// UnnamedMeta is a bare meta line naming the cited target
	UnnamedMeta
	// Content is a quoted line of the cited text
	Content
)

// Token represents one recognized comment line
type Token struct {
	Kind   Kind
	Line   int // 1-based
	Indent int
	Key    string
	Value  string
	schema.Range
}

// Tokenizer recognizes meta and content comment lines
type Tokenizer struct {
	MetaPrefix    string
	ContentPrefix string
}

// NewTokenizer creates a tokenizer, empty prefixes fall back to defaults
func NewTokenizer(metaPrefix, contentPrefix string) *Tokenizer {
	if metaPrefix == "" {
		metaPrefix = DefaultMetaPrefix
	}
	if contentPrefix == "" {
		contentPrefix = DefaultContentPrefix
	}
	return &Tokenizer{MetaPrefix: metaPrefix, ContentPrefix: contentPrefix}
}

// Tokenize returns tokens in line order; the range of a token spans its trimmed line without terminator
func (t *Tokenizer) Tokenize(content []byte) []Token {
	var tokens []Token
	offset := 0
	text := string(content)
	for lineNo := 1; offset < len(text); lineNo++ {
		end := strings.IndexByte(text[offset:], '\n')
		next := len(text)
		if end >= 0 {
			next = offset + end + 1
			end = offset + end
		} else {
			end = len(text)
		}
		line := strings.TrimSuffix(text[offset:end], "\r")
		if token, ok := t.token(line, lineNo, offset); ok {
			tokens = append(tokens, token)
		}
		offset = next
	}
	return tokens
}

func (t *Tokenizer) token(line string, lineNo, offset int) (Token, bool) {
	trimmed := strings.TrimLeft(line, " \t")
	if trimmed == "" {
		return Token{}, false
	}
	indent := len(line) - len(trimmed)
	token := Token{Line: lineNo, Indent: indent, Range: schema.Range{Start: offset + indent, End: offset + len(line)}}
	switch {
	case strings.HasPrefix(trimmed, t.MetaPrefix):
		meta := strings.TrimLeft(trimmed[len(t.MetaPrefix):], " \t")
		if key, value, ok := strings.Cut(meta, "="); ok {
			token.Kind = Meta
			token.Key = strings.TrimRight(key, " \t")
			token.Value = strings.TrimSpace(value)
			return token, true
		}
		token.Kind = UnnamedMeta
		token.Value = strings.TrimSpace(meta)
		return token, true
	case strings.HasPrefix(trimmed, t.ContentPrefix):
		token.Kind = Content
		token.Value = strings.TrimSpace(trimmed[len(t.ContentPrefix):])
		return token, true
	}
	return Token{}, false
}
