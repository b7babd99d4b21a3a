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
	"sort"
	"strings"

	"github.com/AleutianAI/vata/services/vata/datatypes"
)

// =============================================================================
// Types
// =============================================================================

// DeclarationKind distinguishes function-like from class-like constructs.
type DeclarationKind string

const (
	DeclarationFunction DeclarationKind = "function"
	DeclarationClass    DeclarationKind = "class"
)

// Declaration is a function-like or class-like construct.
type Declaration struct {
	Kind DeclarationKind
	Name string
	Line int
}

// Span is a byte range in the source. Line is the 1-indexed line of Start.
type Span struct {
	Start int
	End   int
	Line  int
}

// Identifier is one occurrence of a name.
type Identifier struct {
	Name string
	Span

	// Renameable is false for occurrences that refer to something outside
	// the text, such as attribute fields, keyword argument names, import
	// paths or object shorthand keys.
	Renameable bool
}

// InsertionPoint is a position where a whole new line may be inserted
// without changing the meaning of the surrounding statements.
type InsertionPoint struct {
	// Line is the 1-indexed line the new line follows.
	Line int

	// Offset is the byte offset of the start of the following line, or the
	// text length when Line is the last line.
	Offset int

	// Indent is the leading whitespace of the statement that ends on Line.
	Indent string
}

// Body is the start of a function-like body where a no-op statement may be
// inserted.
type Body struct {
	// Line is the 1-indexed line of the function header.
	Line int

	// Offset is where the statement is inserted.
	Offset int

	// Indent is the indentation for a statement placed on its own line.
	Indent string

	// Inline means the statement is inserted on the same line right after
	// an opening brace instead of on a new line.
	Inline bool
}

// View is a read-only structural snapshot of a SourceText.
type View interface {
	// Source returns the text the view was built from.
	Source() datatypes.SourceText

	// Parsed reports whether a real grammar produced the view.
	Parsed() bool

	// Valid reports whether the text is syntactically valid. Line views
	// are always valid.
	Valid() bool

	// Declarations returns function-like and class-like constructs in
	// source order.
	Declarations() []Declaration

	// Identifiers returns every name occurrence in source order. Keywords
	// are never included.
	Identifiers() []Identifier

	// Bindings returns names declared in the text that can be renamed
	// consistently, sorted alphabetically.
	Bindings() []string

	// Comments returns comment spans in source order.
	Comments() []Span

	// InsertionPoints returns the lines after which a comment line may be
	// inserted, in source order.
	InsertionPoints() []InsertionPoint

	// Bodies returns function bodies that accept a leading no-op statement.
	Bodies() []Body

	// NodeTypes counts structural node kinds. Parse-tree views count
	// grammar node types; line views count token classes.
	NodeTypes() map[string]int
}

// =============================================================================
// Construction
// =============================================================================

// HasParser reports whether a grammar is available for the language.
func HasParser(lang datatypes.Language) bool {
	_, ok := grammars[lang]
	return ok
}

// Build returns the best available View for the source.
//
// Description:
//
//	Uses the tree-sitter view when a grammar exists for the declared
//	language, otherwise the line view. A tree-sitter view is returned even
//	when the text has syntax errors; check Valid before relying on it for
//	transformation.
//
// Inputs:
//
//	ctx - Context for cancellation of the parse.
//	src - The source text.
//
// Outputs:
//
//	View - The structural view. Never nil when err is nil.
//	error - Non-nil only if the parser failed outright or ctx was cancelled.
//
// Thread Safety: Safe for concurrent use.
func Build(ctx context.Context, src datatypes.SourceText) (View, error) {
	if HasParser(src.Language()) {
		return buildTreeView(ctx, src)
	}
	return NewLineView(src), nil
}

// Validate checks that the source is syntactically valid.
//
// Description:
//
//	Returns nil for languages without a grammar. For parsed languages a
//	*SyntaxError describing the first ERROR or MISSING node is returned.
//
// Thread Safety: Safe for concurrent use.
func Validate(ctx context.Context, src datatypes.SourceText) error {
	spec, ok := grammars[src.Language()]
	if !ok {
		return nil
	}
	return validateTree(ctx, spec, src)
}

// =============================================================================
// Helpers shared by both views
// =============================================================================

// lineIndex maps byte offsets to lines.
type lineIndex struct {
	text   string
	starts []int
}

func newLineIndex(text string) lineIndex {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' && i+1 < len(text) {
			starts = append(starts, i+1)
		}
	}
	return lineIndex{text: text, starts: starts}
}

// lineCount returns the number of lines.
func (li lineIndex) lineCount() int {
	if li.text == "" {
		return 0
	}
	return len(li.starts)
}

// lineOf returns the 1-indexed line containing offset.
func (li lineIndex) lineOf(offset int) int {
	return sort.Search(len(li.starts), func(i int) bool { return li.starts[i] > offset })
}

// line returns the text of a 1-indexed line without its newline.
func (li lineIndex) line(n int) string {
	if n < 1 || n > len(li.starts) {
		return ""
	}
	start := li.starts[n-1]
	end := len(li.text)
	if n < len(li.starts) {
		end = li.starts[n] - 1
	}
	return strings.TrimSuffix(li.text[start:end], "\r")
}

// nextLineStart returns the offset of the line after n, or the text length.
func (li lineIndex) nextLineStart(n int) int {
	if n < len(li.starts) {
		return li.starts[n]
	}
	return len(li.text)
}

// indentOf returns the leading whitespace of a 1-indexed line.
func (li lineIndex) indentOf(n int) string {
	l := li.line(n)
	return l[:len(l)-len(strings.TrimLeft(l, " \t"))]
}

// sortedKeys returns the keys of a set in alphabetical order.
func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k, ok := range set {
		if ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
