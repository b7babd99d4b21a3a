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
	"regexp"
	"strings"

	"github.com/AleutianAI/vata/services/vata/datatypes"
)

var (
	pyDefPattern     = regexp.MustCompile(`^\s*(?:async\s+)?def\s+([A-Za-z_]\w*)\s*\(([^)]*)`)
	pyClassPattern   = regexp.MustCompile(`^\s*class\s+([A-Za-z_]\w*)`)
	jsFuncPattern    = regexp.MustCompile(`^\s*(?:export\s+)?(?:async\s+)?function\s*\*?\s*([A-Za-z_$][\w$]*)?\s*\(([^)]*)`)
	jsClassPattern   = regexp.MustCompile(`^\s*(?:export\s+)?class\s+([A-Za-z_$][\w$]*)`)
	jsArrowPattern   = regexp.MustCompile(`^\s*(?:const|let|var)\s+([A-Za-z_$][\w$]*)\s*=\s*(?:async\s+)?(?:\(([^)]*)\)|([A-Za-z_$][\w$]*))\s*=>`)
	shFuncPattern    = regexp.MustCompile(`^\s*(?:function\s+)?([A-Za-z_][\w-]*)\s*\(\s*\)\s*\{?`)
	assignPattern    = regexp.MustCompile(`^\s*(?:(?:const|let|var|local)\s+)?([A-Za-z_]\w*)\s*=[^=]`)
	tokenPattern     = regexp.MustCompile("\"[^\"]*\"|'[^']*'|`[^`]*`|[A-Za-z_$][\\w$]*|\\d+(?:\\.\\d+)?|\\S")
	paramNamePattern = regexp.MustCompile(`^\s*\*{0,2}([A-Za-z_$][\w$]*)`)
)

// lineView is a View built from regular expressions over lines. It is used
// for generic text and whenever no grammar is available.
type lineView struct {
	src          datatypes.SourceText
	declarations []Declaration
	identifiers  []Identifier
	bindings     []string
	comments     []Span
	points       []InsertionPoint
	bodies       []Body
	nodeTypes    map[string]int
}

func (v *lineView) Source() datatypes.SourceText      { return v.src }
func (v *lineView) Parsed() bool                      { return false }
func (v *lineView) Valid() bool                       { return true }
func (v *lineView) Declarations() []Declaration       { return v.declarations }
func (v *lineView) Identifiers() []Identifier         { return v.identifiers }
func (v *lineView) Bindings() []string                { return v.bindings }
func (v *lineView) Comments() []Span                  { return v.comments }
func (v *lineView) InsertionPoints() []InsertionPoint { return v.points }
func (v *lineView) Bodies() []Body                    { return v.bodies }
func (v *lineView) NodeTypes() map[string]int         { return v.nodeTypes }

// NewLineView builds a line-oriented View.
//
// Description:
//
//	Declarations come from python and javascript definition patterns (and
//	shell function headers for shell text). Comments are whole lines that
//	start with the language's comment prefix, plus /* */ blocks for
//	javascript. Identifiers are word tokens outside strings and comments,
//	minus keywords. Every non-blank line accepts an insertion after it.
//
// Thread Safety: Safe for concurrent use.
func NewLineView(src datatypes.SourceText) View {
	lang := src.Language()
	text := src.Text()
	li := newLineIndex(text)
	keywords := keywordsFor(lang)
	prefixes := commentPrefixes(lang)

	v := &lineView{src: src, nodeTypes: make(map[string]int)}
	declared := make(map[string]bool)
	blocked := make(map[string]bool)
	inBlock := false

	for n := 1; n <= li.lineCount(); n++ {
		line := li.line(n)
		start := li.starts[n-1]
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if inBlock || (lang == datatypes.LanguageJavaScript && strings.HasPrefix(trimmed, "/*")) {
			v.comments = append(v.comments, Span{Start: start, End: start + len(line), Line: n})
			v.nodeTypes["comment"]++
			inBlock = !strings.Contains(trimmed, "*/")
			v.addPoint(li, n)
			continue
		}
		if hasAnyPrefix(trimmed, prefixes) {
			v.comments = append(v.comments, Span{Start: start, End: start + len(line), Line: n})
			v.nodeTypes["comment"]++
			v.addPoint(li, n)
			continue
		}

		v.scanDeclarations(lang, li, n, declared)
		if m := assignPattern.FindStringSubmatch(line); m != nil {
			declared[m[1]] = true
		}
		v.scanTokens(line, start, n, keywords, blocked)
		v.addPoint(li, n)
	}

	bindings := make(map[string]bool, len(declared))
	for name := range declared {
		if blocked[name] || isReserved(name) || keywords[name] {
			continue
		}
		bindings[name] = true
	}
	v.bindings = sortedKeys(bindings)
	return v
}

func (v *lineView) addPoint(li lineIndex, n int) {
	v.points = append(v.points, InsertionPoint{
		Line:   n,
		Offset: li.nextLineStart(n),
		Indent: li.indentOf(n),
	})
}

func (v *lineView) scanDeclarations(lang datatypes.Language, li lineIndex, n int, declared map[string]bool) {
	line := li.line(n)
	addParams := func(params string) {
		for _, p := range strings.Split(params, ",") {
			if m := paramNamePattern.FindStringSubmatch(p); m != nil {
				declared[m[1]] = true
			}
		}
	}

	if lang == datatypes.LanguageShell {
		if m := shFuncPattern.FindStringSubmatch(line); m != nil && !shellKeywords[m[1]] {
			v.declarations = append(v.declarations, Declaration{Kind: DeclarationFunction, Name: m[1], Line: n})
			v.addBraceBody(li, n)
		}
		return
	}

	if lang != datatypes.LanguageJavaScript {
		if m := pyDefPattern.FindStringSubmatch(line); m != nil {
			v.declarations = append(v.declarations, Declaration{Kind: DeclarationFunction, Name: m[1], Line: n})
			declared[m[1]] = true
			addParams(m[2])
			v.addIndentedBody(li, n)
			return
		}
		if m := pyClassPattern.FindStringSubmatch(line); m != nil {
			v.declarations = append(v.declarations, Declaration{Kind: DeclarationClass, Name: m[1], Line: n})
			return
		}
	}
	if lang != datatypes.LanguagePython {
		if m := jsFuncPattern.FindStringSubmatch(line); m != nil {
			v.declarations = append(v.declarations, Declaration{Kind: DeclarationFunction, Name: m[1], Line: n})
			if m[1] != "" {
				declared[m[1]] = true
			}
			addParams(m[2])
			v.addBraceBody(li, n)
			return
		}
		if m := jsArrowPattern.FindStringSubmatch(line); m != nil {
			v.declarations = append(v.declarations, Declaration{Kind: DeclarationFunction, Name: m[1], Line: n})
			addParams(m[2] + "," + m[3])
			v.addBraceBody(li, n)
			return
		}
		if m := jsClassPattern.FindStringSubmatch(line); m != nil {
			v.declarations = append(v.declarations, Declaration{Kind: DeclarationClass, Name: m[1], Line: n})
		}
	}
}

// addIndentedBody accepts a body when the next non-blank line is indented
// deeper than the header.
func (v *lineView) addIndentedBody(li lineIndex, header int) {
	if !strings.HasSuffix(strings.TrimSpace(li.line(header)), ":") {
		return
	}
	headerIndent := len(li.indentOf(header))
	for n := header + 1; n <= li.lineCount(); n++ {
		if strings.TrimSpace(li.line(n)) == "" {
			continue
		}
		indent := li.indentOf(n)
		if len(indent) <= headerIndent {
			return
		}
		v.bodies = append(v.bodies, Body{Line: header, Offset: li.starts[n-1], Indent: indent})
		return
	}
}

// addBraceBody accepts a body when the header line ends with an opening
// brace.
func (v *lineView) addBraceBody(li lineIndex, header int) {
	line := strings.TrimRight(li.line(header), " \t")
	if !strings.HasSuffix(line, "{") {
		return
	}
	v.bodies = append(v.bodies, Body{Line: header, Offset: li.starts[header-1] + len(line), Inline: true})
}

// scanTokens classifies tokens on a code line, skipping string literals and
// trailing comments.
func (v *lineView) scanTokens(line string, start, n int, keywords, blocked map[string]bool) {
	code := maskStrings(line)
	if cut := trailingCommentIndex(code, v.src.Language()); cut >= 0 {
		code = code[:cut]
	}
	for _, loc := range tokenPattern.FindAllStringIndex(code, -1) {
		tok := code[loc[0]:loc[1]]
		switch c := tok[0]; {
		case c == '"' || c == '\'' || c == '`':
			v.nodeTypes["string"]++
		case c >= '0' && c <= '9':
			v.nodeTypes["number"]++
		case c == '_' || c == '$' || (c|0x20 >= 'a' && c|0x20 <= 'z'):
			if keywords[tok] {
				v.nodeTypes["keyword"]++
				continue
			}
			v.nodeTypes["identifier"]++
			renameable := loc[0] == 0 || code[loc[0]-1] != '.'
			if !renameable {
				blocked[tok] = true
			}
			v.identifiers = append(v.identifiers, Identifier{
				Name:       tok,
				Span:       Span{Start: start + loc[0], End: start + loc[1], Line: n},
				Renameable: renameable,
			})
		default:
			v.nodeTypes["operator"]++
		}
	}
}

// maskStrings blanks the body of quoted literals so tokenization skips
// their contents. Delimiters and offsets are preserved.
func maskStrings(line string) string {
	b := []byte(line)
	var quote byte
	for i := 0; i < len(b); i++ {
		c := b[i]
		switch {
		case quote == 0 && (c == '"' || c == '\'' || c == '`'):
			quote = c
		case quote != 0 && c == '\\' && i+1 < len(b):
			b[i], b[i+1] = ' ', ' '
			i++
		case quote != 0 && c == quote:
			quote = 0
		case quote != 0:
			b[i] = ' '
		}
	}
	return string(b)
}

// trailingCommentIndex returns where a trailing comment starts in a line
// whose strings have been masked, or -1.
func trailingCommentIndex(code string, lang datatypes.Language) int {
	switch lang {
	case datatypes.LanguageJavaScript:
		return strings.Index(code, "//")
	case datatypes.LanguagePython, datatypes.LanguageShell:
		return strings.Index(code, "#")
	default:
		i := strings.Index(code, "#")
		if j := strings.Index(code, "//"); j >= 0 && (i < 0 || j < i) {
			i = j
		}
		return i
	}
}

func commentPrefixes(lang datatypes.Language) []string {
	switch lang {
	case datatypes.LanguageJavaScript:
		return []string{"//"}
	case datatypes.LanguagePython, datatypes.LanguageShell:
		return []string{"#"}
	default:
		return []string{"#", "//"}
	}
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
