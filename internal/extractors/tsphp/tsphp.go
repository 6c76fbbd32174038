// Package tsphp extracts PHP symbols from a tree-sitter syntax tree. It yields
// the same extractors.Symbols as the lexical extractor but is not fooled by
// declarations that do not start a line.
package tsphp

import (
	"fmt"
	"strings"

	"github.com/dejo1307/modmap/internal/extractors"

	sitter "github.com/tree-sitter/go-tree-sitter"
	php "github.com/tree-sitter/tree-sitter-php/bindings/go"
)

// TSExtractor extracts symbols from PHP source code using tree-sitter.
type TSExtractor struct{}

// New creates a new TSExtractor.
func New() *TSExtractor {
	return &TSExtractor{}
}

func (e *TSExtractor) Name() string {
	return "treesitter"
}

// Extract parses src and walks the syntax tree.
func (e *TSExtractor) Extract(path string, src []byte) (extractors.Symbols, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(sitter.NewLanguage(php.LanguagePHP())); err != nil {
		return extractors.Symbols{}, fmt.Errorf("setting php language: %w", err)
	}

	tree := parser.Parse(src, nil)
	if tree == nil {
		return extractors.Symbols{}, fmt.Errorf("parsing %s: no tree", path)
	}
	defer tree.Close()

	root := tree.RootNode()
	var s extractors.Symbols
	s.Namespace = findNamespace(root, src)

	w := walker{src: src, syms: &s}
	w.walk(root)
	return s, nil
}

type walker struct {
	src  []byte
	syms *extractors.Symbols
}

func (w *walker) walk(node *sitter.Node) {
	switch node.Kind() {
	case "class_declaration":
		if findChildByKind(node, "abstract_modifier") != nil {
			w.syms.Abstracts++
		} else {
			w.syms.Classes++
		}
		w.collectParents(node)

	case "interface_declaration":
		w.syms.Interfaces++
		w.collectParents(node)

	case "namespace_use_declaration":
		w.syms.Imports = append(w.syms.Imports, useTargets(node, w.src)...)
		return
	}

	for i := range node.ChildCount() {
		w.walk(node.Child(i))
	}
}

// collectParents records base_clause and class_interface_clause names.
func (w *walker) collectParents(decl *sitter.Node) {
	for i := range decl.ChildCount() {
		clause := decl.Child(i)
		if clause.Kind() != "base_clause" && clause.Kind() != "class_interface_clause" {
			continue
		}
		for j := range clause.NamedChildCount() {
			n := clause.NamedChild(j)
			if n.Kind() != "name" && n.Kind() != "qualified_name" {
				continue
			}
			w.syms.Parents = append(w.syms.Parents, extractors.Qualify(w.syms.Namespace, nodeText(n, w.src)))
		}
	}
}

func findNamespace(root *sitter.Node, src []byte) string {
	for i := range root.ChildCount() {
		child := root.Child(i)
		if child.Kind() != "namespace_definition" {
			continue
		}
		if name := findChildByKind(child, "namespace_name"); name != nil {
			return strings.TrimLeft(nodeText(name, src), extractors.NamespaceSep)
		}
	}
	return ""
}

// useTargets returns the imported identifiers of a namespace_use_declaration,
// expanding grouped clauses against their shared prefix.
func useTargets(decl *sitter.Node, src []byte) []string {
	prefix := ""
	var clauses []*sitter.Node
	for i := range decl.NamedChildCount() {
		child := decl.NamedChild(i)
		switch child.Kind() {
		case "namespace_name":
			prefix = strings.Trim(nodeText(child, src), extractors.NamespaceSep)
		case "namespace_use_clause":
			clauses = append(clauses, child)
		case "namespace_use_group":
			for j := range child.NamedChildCount() {
				c := child.NamedChild(j)
				if c.Kind() == "namespace_use_clause" || c.Kind() == "namespace_use_group_clause" {
					clauses = append(clauses, c)
				}
			}
		}
	}

	var out []string
	for _, clause := range clauses {
		target := clauseTarget(clause, src)
		if target == "" {
			continue
		}
		if prefix != "" {
			target = prefix + extractors.NamespaceSep + target
		}
		out = append(out, target)
	}
	return out
}

// clauseTarget returns the imported name of a use clause, ignoring any alias.
func clauseTarget(clause *sitter.Node, src []byte) string {
	for i := range clause.NamedChildCount() {
		n := clause.NamedChild(i)
		switch n.Kind() {
		case "qualified_name", "namespace_name", "name":
			return strings.TrimLeft(nodeText(n, src), extractors.NamespaceSep)
		}
	}
	return ""
}

func findChildByKind(node *sitter.Node, kind string) *sitter.Node {
	for i := range node.ChildCount() {
		child := node.Child(i)
		if child.Kind() == kind {
			return child
		}
	}
	return nil
}

func nodeText(node *sitter.Node, src []byte) string {
	return string(src[node.StartByte():node.EndByte()])
}
