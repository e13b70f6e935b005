// Package jsx extracts functions, classes, methods and test blocks from JavaScript and JSX source.
package jsx

import (
	"context"
	"fmt"
	"path"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/viant/conformance/inspector/code"
	"github.com/viant/conformance/schema"
)

var extensions = []string{".js", ".jsx", ".mjs", ".cjs"}

var testCalls = map[string]bool{"describe": true, "it": true, "test": true}

// ParseEntities parses JavaScript source; the module entity spans the whole file and is named after the file.
// describe/it/test blocks are recognized in test files.
func ParseEntities(ctx context.Context, location string, src []byte) (*code.File, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(javascript.GetLanguage())
	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %v: %w", location, err)
	}
	root := tree.RootNode()
	if root.HasError() {
		return nil, fmt.Errorf("failed to parse %v: syntax error", location)
	}
	module := moduleName(location)
	w := &walker{src: src, isTest: Partition(location) == code.PartitionTest}
	w.entities = append(w.entities, code.Entity{Name: module, Kind: code.KindModule, Range: schema.Range{Start: 0, End: len(src)}})
	w.statements(root, module)
	return &code.File{Package: module, Entities: w.entities}, nil
}

// Partition classifies *.test.js, *.spec.js and __tests__ sources as test code
func Partition(location string) string {
	ext := path.Ext(location)
	if !isSupported(ext) {
		return ""
	}
	base := strings.TrimSuffix(path.Base(location), ext)
	if strings.HasSuffix(base, ".test") || strings.HasSuffix(base, ".spec") || strings.Contains(location, "__tests__/") {
		return code.PartitionTest
	}
	return code.PartitionLibrary
}

func isSupported(ext string) bool {
	for _, candidate := range extensions {
		if ext == candidate {
			return true
		}
	}
	return false
}

func moduleName(location string) string {
	base := path.Base(location)
	if index := strings.IndexByte(base, '.'); index > 0 {
		return base[:index]
	}
	return base
}

type walker struct {
	src      []byte
	isTest   bool
	entities []code.Entity
}

func (w *walker) statements(parent *sitter.Node, scope string) {
	for i := 0; i < int(parent.NamedChildCount()); i++ {
		w.statement(parent.NamedChild(i), scope)
	}
}

func (w *walker) statement(node *sitter.Node, scope string) {
	switch node.Type() {
	case "export_statement":
		if declaration := node.ChildByFieldName("declaration"); declaration != nil {
			w.statement(declaration, scope)
		}
	case "function_declaration", "generator_function_declaration":
		if name := node.ChildByFieldName("name"); name != nil {
			w.add(scope+"."+name.Content(w.src), code.KindFunction, node)
		}
	case "class_declaration":
		w.class(node, scope)
	case "lexical_declaration", "variable_declaration":
		for i := 0; i < int(node.NamedChildCount()); i++ {
			declarator := node.NamedChild(i)
			if declarator.Type() != "variable_declarator" {
				continue
			}
			name, value := declarator.ChildByFieldName("name"), declarator.ChildByFieldName("value")
			if name == nil || value == nil || name.Type() != "identifier" {
				continue
			}
			switch value.Type() {
			case "arrow_function", "function", "function_expression":
				w.add(scope+"."+name.Content(w.src), code.KindFunction, declarator)
			case "class":
				w.add(scope+"."+name.Content(w.src), code.KindType, declarator)
			}
		}
	case "expression_statement":
		if w.isTest {
			for i := 0; i < int(node.NamedChildCount()); i++ {
				if call := node.NamedChild(i); call.Type() == "call_expression" {
					w.testBlock(call, node, scope)
				}
			}
		}
	}
}

func (w *walker) class(node *sitter.Node, scope string) {
	name := node.ChildByFieldName("name")
	if name == nil {
		return
	}
	className := scope + "." + name.Content(w.src)
	w.add(className, code.KindType, node)
	body := node.ChildByFieldName("body")
	if body == nil {
		return
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		if member.Type() != "method_definition" {
			continue
		}
		if methodName := member.ChildByFieldName("name"); methodName != nil {
			w.add(className+"."+methodName.Content(w.src), code.KindMethod, member)
		}
	}
}

// testBlock records describe/it/test calls named by a string literal and walks their callback bodies
func (w *walker) testBlock(call, statement *sitter.Node, scope string) {
	function, arguments := call.ChildByFieldName("function"), call.ChildByFieldName("arguments")
	if function == nil || arguments == nil || !testCalls[function.Content(w.src)] || arguments.NamedChildCount() == 0 {
		return
	}
	title := arguments.NamedChild(0)
	if title.Type() != "string" && title.Type() != "template_string" {
		return
	}
	name := scope + "." + strings.Trim(title.Content(w.src), "\"'`")
	w.add(name, code.KindTest, statement)
	for i := 1; i < int(arguments.NamedChildCount()); i++ {
		callback := arguments.NamedChild(i)
		switch callback.Type() {
		case "arrow_function", "function", "function_expression":
			if body := callback.ChildByFieldName("body"); body != nil && body.Type() == "statement_block" {
				w.statements(body, name)
			}
		}
	}
}

func (w *walker) add(name, kind string, node *sitter.Node) {
	w.entities = append(w.entities, code.Entity{Name: name, Kind: kind, Range: schema.Range{Start: int(node.StartByte()), End: int(node.EndByte())}})
}
