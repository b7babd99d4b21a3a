// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package structure

import (
	"context"
	"fmt"
	"sort"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/AleutianAI/vata/services/vata/datatypes"
)

// maxTreeDepth bounds recursion on pathological inputs.
const maxTreeDepth = 1000

// treeView is a View backed by a tree-sitter parse.
type treeView struct {
	src          datatypes.SourceText
	valid        bool
	declarations []Declaration
	identifiers  []Identifier
	bindings     []string
	comments     []Span
	points       []InsertionPoint
	bodies       []Body
	nodeTypes    map[string]int
}

func (v *treeView) Source() datatypes.SourceText      { return v.src }
func (v *treeView) Parsed() bool                      { return true }
func (v *treeView) Valid() bool                       { return v.valid }
func (v *treeView) Declarations() []Declaration       { return v.declarations }
func (v *treeView) Identifiers() []Identifier         { return v.identifiers }
func (v *treeView) Bindings() []string                { return v.bindings }
func (v *treeView) Comments() []Span                  { return v.comments }
func (v *treeView) InsertionPoints() []InsertionPoint { return v.points }
func (v *treeView) Bodies() []Body                    { return v.bodies }
func (v *treeView) NodeTypes() map[string]int         { return v.nodeTypes }

// parseTree runs a fresh parser over content. The caller closes the tree.
func parseTree(ctx context.Context, spec *grammarSpec, content []byte) (*sitter.Tree, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(spec.language())

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrParseFailed, spec.name, err)
	}
	if tree == nil || tree.RootNode() == nil {
		if tree != nil {
			tree.Close()
		}
		return nil, fmt.Errorf("%w: %s: no tree", ErrParseFailed, spec.name)
	}
	return tree, nil
}

func buildTreeView(ctx context.Context, src datatypes.SourceText) (View, error) {
	spec, ok := grammars[src.Language()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, src.Language())
	}
	content := src.Bytes()
	tree, err := parseTree(ctx, spec, content)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	root := tree.RootNode()
	w := &treeWalker{
		spec:      spec,
		content:   content,
		lines:     newLineIndex(src.Text()),
		keywords:  keywordsFor(src.Language()),
		declared:  make(map[string]bool),
		blocked:   make(map[string]bool),
		seen:      make(map[int]bool),
		nodeTypes: make(map[string]int),
	}
	w.walk(root, nil, 0)

	bindings := make(map[string]bool, len(w.declared))
	for name := range w.declared {
		if name == "" || w.blocked[name] || isReserved(name) || w.keywords[name] {
			continue
		}
		bindings[name] = true
	}
	sort.SliceStable(w.points, func(i, j int) bool { return w.points[i].Offset < w.points[j].Offset })

	return &treeView{
		src:          src,
		valid:        !root.HasError(),
		declarations: w.declarations,
		identifiers:  w.identifiers,
		bindings:     sortedKeys(bindings),
		comments:     w.comments,
		points:       w.points,
		bodies:       w.bodies,
		nodeTypes:    w.nodeTypes,
	}, nil
}

func validateTree(ctx context.Context, spec *grammarSpec, src datatypes.SourceText) error {
	content := src.Bytes()
	tree, err := parseTree(ctx, spec, content)
	if err != nil {
		return err
	}
	defer tree.Close()

	root := tree.RootNode()
	if !root.HasError() {
		return nil
	}
	bad := firstErrorNode(root, 0)
	if bad == nil {
		return &SyntaxError{Language: spec.name, Line: 1, Message: "unparseable input"}
	}
	point := bad.StartPoint()
	msg := "Unexpected: " + truncate(nodeText(bad, content), 40)
	if bad.IsMissing() {
		msg = "Missing " + bad.Type()
	}
	return &SyntaxError{
		Language: spec.name,
		Line:     int(point.Row) + 1,
		Column:   int(point.Column),
		Message:  msg,
	}
}

// firstErrorNode returns the first ERROR or MISSING node in document order.
func firstErrorNode(node *sitter.Node, depth int) *sitter.Node {
	if node == nil || depth > maxTreeDepth {
		return nil
	}
	if node.IsError() || node.IsMissing() {
		return node
	}
	if !node.HasError() {
		return nil
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		if found := firstErrorNode(node.Child(i), depth+1); found != nil {
			return found
		}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// treeWalker collects view data in one pre-order pass.
type treeWalker struct {
	spec     *grammarSpec
	content  []byte
	lines    lineIndex
	keywords map[string]bool

	declared map[string]bool
	blocked  map[string]bool
	seen     map[int]bool // insertion offsets already emitted

	declarations []Declaration
	identifiers  []Identifier
	comments     []Span
	points       []InsertionPoint
	bodies       []Body
	nodeTypes    map[string]int
}

func (w *treeWalker) span(node *sitter.Node) Span {
	return Span{
		Start: int(node.StartByte()),
		End:   int(node.EndByte()),
		Line:  int(node.StartPoint().Row) + 1,
	}
}

func (w *treeWalker) walk(node, parent *sitter.Node, depth int) {
	if node == nil || depth > maxTreeDepth {
		return
	}
	nodeType := node.Type()
	if node.IsNamed() && !node.IsError() {
		w.nodeTypes[nodeType]++
	}

	switch {
	case nodeType == "comment":
		w.comments = append(w.comments, w.span(node))
	case w.spec.nameTypes[nodeType]:
		w.visitName(node, parent)
	case w.spec.blockingWords && nodeType == "word":
		w.blocked[nodeText(node, w.content)] = true
	}

	// Keyword tokens share type names with some grammar nodes ("function",
	// "class"), so only named nodes count.
	if node.IsNamed() {
		if w.spec.functions[nodeType] {
			w.visitDeclaration(node, DeclarationFunction)
			w.visitBody(node)
		} else if w.spec.classes[nodeType] {
			w.visitDeclaration(node, DeclarationClass)
		}
		if w.spec.containers[nodeType] {
			w.visitContainer(node)
		}
	}
	w.spec.bindings(node, w.content,
		func(name string) { w.declared[name] = true },
		func(name string) { w.blocked[name] = true })

	for i := 0; i < int(node.ChildCount()); i++ {
		w.walk(node.Child(i), node, depth+1)
	}
}

func (w *treeWalker) visitName(node, parent *sitter.Node) {
	name := nodeText(node, w.content)
	if name == "" || w.keywords[name] {
		return
	}
	class := w.spec.classify(node, parent)
	if class == nameBlocked {
		w.blocked[name] = true
	}
	w.identifiers = append(w.identifiers, Identifier{
		Name:       name,
		Span:       w.span(node),
		Renameable: class == nameLocal,
	})
}

func (w *treeWalker) visitDeclaration(node *sitter.Node, kind DeclarationKind) {
	name := ""
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		if w.spec.nameTypes[child.Type()] || child.Type() == "word" {
			name = nodeText(child, w.content)
			break
		}
	}
	w.declarations = append(w.declarations, Declaration{
		Kind: kind,
		Name: name,
		Line: int(node.StartPoint().Row) + 1,
	})
}

func (w *treeWalker) visitBody(fn *sitter.Node) {
	var body *sitter.Node
	for i := 0; i < int(fn.ChildCount()); i++ {
		child := fn.Child(i)
		if child != nil && w.spec.bodyTypes[child.Type()] {
			body = child
			break
		}
	}
	if body == nil || body.HasError() {
		return
	}
	header := int(fn.StartPoint().Row) + 1

	if w.spec.inlineBody {
		start := int(body.StartByte())
		if start >= len(w.content) || w.content[start] != '{' {
			return
		}
		// A no-op ahead of a directive prologue ("use strict") would end
		// the prologue, so it goes after the last directive.
		offset := start + 1
		stmts := namedStatements(body)
		n := 0
		for n < len(stmts) && isDocstring(stmts[n]) {
			n++
		}
		if n > 0 {
			end := int(stmts[n-1].EndByte())
			if end <= 0 || end > len(w.content) || w.content[end-1] != ';' {
				return
			}
			offset = end
		}
		w.bodies = append(w.bodies, Body{Line: header, Offset: offset, Inline: true})
		return
	}

	// Indented body: place the statement on its own line before the first
	// statement, or after a leading docstring.
	stmts := namedStatements(body)
	if len(stmts) == 0 {
		return
	}
	first := stmts[0]
	firstLine := int(first.StartPoint().Row) + 1
	if firstLine <= header {
		return
	}
	if isDocstring(first) {
		endLine := w.lines.lineOf(int(first.EndByte()) - 1)
		if len(stmts) > 1 && int(stmts[1].StartPoint().Row)+1 <= endLine {
			return
		}
		w.bodies = append(w.bodies, Body{
			Line:   header,
			Offset: w.lines.nextLineStart(endLine),
			Indent: w.lines.indentOf(firstLine),
		})
		return
	}
	w.bodies = append(w.bodies, Body{
		Line:   header,
		Offset: w.lines.starts[firstLine-1],
		Indent: w.lines.indentOf(firstLine),
	})
}

// visitContainer records a point after every statement that ends its line.
func (w *treeWalker) visitContainer(node *sitter.Node) {
	if node.HasError() {
		return
	}
	stmts := namedStatements(node)
	for i, stmt := range stmts {
		if int(stmt.EndByte()) <= int(stmt.StartByte()) {
			continue
		}
		endLine := w.lines.lineOf(int(stmt.EndByte()) - 1)
		if i+1 < len(stmts) && int(stmts[i+1].StartPoint().Row)+1 <= endLine {
			continue
		}
		offset := w.lines.nextLineStart(endLine)
		if w.seen[offset] {
			continue
		}
		w.seen[offset] = true
		w.points = append(w.points, InsertionPoint{
			Line:   endLine,
			Offset: offset,
			Indent: w.lines.indentOf(int(stmt.StartPoint().Row) + 1),
		})
	}
}

// namedStatements returns the named, non-comment children of node.
func namedStatements(node *sitter.Node) []*sitter.Node {
	out := make([]*sitter.Node, 0, node.NamedChildCount())
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child == nil || child.Type() == "comment" {
			continue
		}
		out = append(out, child)
	}
	return out
}

// isDocstring reports a statement that is a bare string literal: a Python
// docstring or a JavaScript directive.
func isDocstring(stmt *sitter.Node) bool {
	if stmt.Type() != "expression_statement" || stmt.NamedChildCount() != 1 {
		return false
	}
	inner := stmt.NamedChild(0)
	return inner != nil && inner.Type() == "string"
}
