package golang

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/viant/conformance/inspector/code"
	"github.com/viant/conformance/schema"
)

// ParseEntities parses Go source and returns its package, types, functions and methods.
// The package entity spans the whole file; test functions are only recognized in _test.go files.
func ParseEntities(ctx context.Context, location string, src []byte) (*code.File, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(golang.GetLanguage())
	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %v: %w", location, err)
	}
	root := tree.RootNode()
	if root.HasError() {
		return nil, fmt.Errorf("failed to parse %v: syntax error", location)
	}
	isTestFile := strings.HasSuffix(location, "_test.go")
	aFile := &code.File{}
	var entities []code.Entity
	for i := 0; i < int(root.NamedChildCount()); i++ {
		node := root.NamedChild(i)
		switch node.Type() {
		case "package_clause":
			for j := 0; j < int(node.NamedChildCount()); j++ {
				if child := node.NamedChild(j); child.Type() == "package_identifier" {
					aFile.Package = child.Content(src)
				}
			}
		case "function_declaration":
			nameNode := node.ChildByFieldName("name")
			if nameNode == nil {
				continue
			}
			name := nameNode.Content(src)
			kind := code.KindFunction
			if isTestFile && isTestName(name) {
				kind = code.KindTest
			}
			entities = append(entities, newEntity(name, kind, node))
		case "method_declaration":
			nameNode := node.ChildByFieldName("name")
			if nameNode == nil {
				continue
			}
			name := nameNode.Content(src)
			if receiver := receiverType(node, src); receiver != "" {
				name = receiver + "." + name
			}
			entities = append(entities, newEntity(name, code.KindMethod, node))
		case "type_declaration":
			for j := 0; j < int(node.NamedChildCount()); j++ {
				child := node.NamedChild(j)
				if child.Type() != "type_spec" && child.Type() != "type_alias" {
					continue
				}
				if nameNode := child.ChildByFieldName("name"); nameNode != nil {
					entities = append(entities, newEntity(nameNode.Content(src), code.KindType, child))
				}
			}
		}
	}
	if aFile.Package == "" {
		return nil, fmt.Errorf("failed to parse %v: missing package clause", location)
	}
	aFile.Entities = append(aFile.Entities, code.Entity{Name: aFile.Package, Kind: code.KindPackage, Range: schema.Range{Start: 0, End: len(src)}})
	for _, entity := range entities {
		entity.Name = aFile.Package + "." + entity.Name
		aFile.Entities = append(aFile.Entities, entity)
	}
	return aFile, nil
}

// Partition classifies a code location as test or library code
func Partition(location string) string {
	switch {
	case strings.HasSuffix(location, "_test.go"):
		return code.PartitionTest
	case strings.HasSuffix(location, ".go"):
		return code.PartitionLibrary
	}
	return ""
}

func newEntity(name, kind string, node *sitter.Node) code.Entity {
	return code.Entity{Name: name, Kind: kind, Range: schema.Range{Start: int(node.StartByte()), End: int(node.EndByte())}}
}

// receiverType returns the receiver base type name without pointer or type parameters
func receiverType(node *sitter.Node, src []byte) string {
	receiver := node.ChildByFieldName("receiver")
	if receiver == nil {
		return ""
	}
	for i := 0; i < int(receiver.NamedChildCount()); i++ {
		param := receiver.NamedChild(i)
		if param.Type() != "parameter_declaration" {
			continue
		}
		typeNode := param.ChildByFieldName("type")
		if typeNode == nil {
			return ""
		}
		name := strings.TrimLeft(typeNode.Content(src), "*")
		if index := strings.IndexByte(name, '['); index != -1 {
			name = name[:index]
		}
		return strings.TrimSpace(name)
	}
	return ""
}

func isTestName(name string) bool {
	for _, prefix := range []string{"Test", "Benchmark", "Fuzz", "Example"} {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}
