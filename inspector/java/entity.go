// Package java extracts classes, interfaces, enums, methods and constructors from Java source.
package java

import (
	"context"
	"fmt"
	"path"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/viant/conformance/inspector/code"
	"github.com/viant/conformance/schema"
)

var typeDeclarations = map[string]bool{
	"class_declaration":           true,
	"interface_declaration":       true,
	"enum_declaration":            true,
	"record_declaration":          true,
	"annotation_type_declaration": true,
}

// ParseEntities parses Java source; the package entity spans the whole file and is named after the
// package declaration, or the file when there is none. Methods annotated @Test in test files are tests.
func ParseEntities(ctx context.Context, location string, src []byte) (*code.File, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(java.GetLanguage())
	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %v: %w", location, err)
	}
	root := tree.RootNode()
	if root.HasError() {
		return nil, fmt.Errorf("failed to parse %v: syntax error", location)
	}
	w := &walker{src: src, isTest: Partition(location) == code.PartitionTest}
	for i := 0; i < int(root.NamedChildCount()); i++ {
		node := root.NamedChild(i)
		switch {
		case node.Type() == "package_declaration":
			for j := 0; j < int(node.NamedChildCount()); j++ {
				if child := node.NamedChild(j); child.Type() == "scoped_identifier" || child.Type() == "identifier" {
					w.pkg = child.Content(src)
				}
			}
		case typeDeclarations[node.Type()]:
			w.declaration(node, "")
		}
	}
	aFile := &code.File{Package: w.pkg}
	name := w.pkg
	if name == "" {
		name = strings.TrimSuffix(path.Base(location), ".java")
	}
	aFile.Entities = append(aFile.Entities, code.Entity{Name: name, Kind: code.KindPackage, Range: schema.Range{Start: 0, End: len(src)}})
	for _, entity := range w.entities {
		if w.pkg != "" {
			entity.Name = w.pkg + "." + entity.Name
		}
		aFile.Entities = append(aFile.Entities, entity)
	}
	return aFile, nil
}

// Partition classifies Maven/Gradle test sources and *Test classes as test code
func Partition(location string) string {
	if !strings.HasSuffix(location, ".java") {
		return ""
	}
	base := path.Base(location)
	if strings.Contains(location, "src/test/") || strings.HasSuffix(base, "Test.java") || strings.HasSuffix(base, "Tests.java") {
		return code.PartitionTest
	}
	return code.PartitionLibrary
}

type walker struct {
	src      []byte
	pkg      string
	isTest   bool
	entities []code.Entity
}

// declaration records a type and walks its members, nested types are qualified by their outer type
func (w *walker) declaration(node *sitter.Node, outer string) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := outer + nameNode.Content(w.src)
	w.entities = append(w.entities, entity(name, code.KindType, node))
	if body := node.ChildByFieldName("body"); body != nil {
		w.members(body, name)
	}
}

func (w *walker) members(body *sitter.Node, owner string) {
	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		switch {
		case member.Type() == "method_declaration" || member.Type() == "constructor_declaration":
			nameNode := member.ChildByFieldName("name")
			if nameNode == nil {
				continue
			}
			kind := code.KindMethod
			if w.isTest && w.annotated(member, "@Test") {
				kind = code.KindTest
			}
			w.entities = append(w.entities, entity(owner+"."+nameNode.Content(w.src), kind, member))
		case member.Type() == "enum_body_declarations":
			w.members(member, owner)
		case typeDeclarations[member.Type()]:
			w.declaration(member, owner+".")
		}
	}
}

func (w *walker) annotated(node *sitter.Node, annotation string) bool {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		if child := node.NamedChild(i); child.Type() == "modifiers" {
			for _, field := range strings.Fields(child.Content(w.src)) {
				if field == annotation || strings.HasPrefix(field, annotation+"(") {
					return true
				}
			}
		}
	}
	return false
}

func entity(name, kind string, node *sitter.Node) code.Entity {
	return code.Entity{Name: name, Kind: kind, Range: schema.Range{Start: int(node.StartByte()), End: int(node.EndByte())}}
}
