// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package features turns a SourceText into a SignalSet.
//
// Extraction is deterministic and never evaluates the code. Structural
// signals (declarations, identifiers, comments) come from a structure.View,
// so a tree-sitter parse is used when the language has a grammar and the
// line view otherwise. Textual signals (line lengths, repetition, numeric
// literals) are computed from the raw text.
//
// Every signal is capped so a single pathological input cannot dominate a
// rule table written for typical snippets.
package features

import (
	"context"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/AleutianAI/vata/services/vata/datatypes"
	"github.com/AleutianAI/vata/services/vata/structure"
)

// Caps applied to raw counts.
const (
	MaxCommentRatio     = 0.5
	MaxMarkers          = 20
	MaxUniqueIdentifier = 200
	MaxMagicNumbers     = 50
	MaxDeclarations     = 50
	MaxLineLength       = 1000
	MaxRepeatedLines    = 20
	MaxCharLength       = 100000

	// RepeatThreshold is how often a stripped line must occur to count as
	// repeated.
	RepeatThreshold = 3
)

var (
	markerPattern = regexp.MustCompile(`\b(?:TODO|FIXME|HACK|NOTE|XXX)\b`)
	numberPattern = regexp.MustCompile(`\b\d+(?:\.\d+)?\b`)
)

// Extract computes the SignalSet of a source text.
//
// Description:
//
//	Builds a structure.View for the text and delegates to ExtractWithView.
//	A parser failure falls back to the line view, so Extract never fails.
//
// Thread Safety: Safe for concurrent use.
func Extract(src datatypes.SourceText) datatypes.SignalSet {
	if src.IsBlank() {
		return emptySignals()
	}
	view, err := structure.Build(context.Background(), src)
	if err != nil {
		view = structure.NewLineView(src)
	}
	return ExtractWithView(src, view)
}

// ExtractWithView computes signals from an already-built view.
//
// Inputs:
//
//	src - The source text the view was built from.
//	view - Structural view of src.
//
// Outputs:
//
//	datatypes.SignalSet - Every vocabulary signal present.
func ExtractWithView(src datatypes.SourceText, view structure.View) datatypes.SignalSet {
	if src.IsBlank() {
		return emptySignals()
	}
	s := datatypes.NewSignalSet()
	text := src.Text()
	lines := src.Lines()

	commentLines := commentLineSet(text, view.Comments())
	codeLines := 0
	for i, l := range lines {
		if strings.TrimSpace(l) != "" && !commentLines[i+1] {
			codeLines++
		}
	}
	s[datatypes.SignalCommentLines] = float64(len(commentLines))
	s[datatypes.SignalCodeLines] = float64(codeLines)
	if len(lines) > 0 {
		s[datatypes.SignalCommentRatio] = math.Min(float64(len(commentLines))/float64(len(lines)), MaxCommentRatio)
	}
	s[datatypes.SignalMarkerCount] = capped(len(markerPattern.FindAllStringIndex(text, -1)), MaxMarkers)

	identifierSignals(s, view.Identifiers())

	s[datatypes.SignalMagicNumbers] = capped(len(numberPattern.FindAllStringIndex(stripComments(text, view.Comments()), -1)), MaxMagicNumbers)
	s[datatypes.SignalDeclarations] = capped(len(view.Declarations()), MaxDeclarations)

	lineSignals(s, lines)
	s[datatypes.SignalRepeatedLines] = capped(repeatedLines(lines, commentLines), MaxRepeatedLines)
	s[datatypes.SignalCharLength] = capped(utf8.RuneCountInString(strings.TrimSpace(text)), MaxCharLength)

	if view.Parsed() && view.Valid() {
		s[datatypes.SignalParseValid] = 1
	}
	return s
}

func emptySignals() datatypes.SignalSet {
	s := datatypes.NewSignalSet()
	s[datatypes.SignalIsEmpty] = 1
	return s
}

func capped(n, limit int) float64 {
	if n > limit {
		n = limit
	}
	return float64(n)
}

// commentLineSet returns the 1-indexed lines that hold only comment text.
// A line counts when a comment starts at its first non-blank character, or
// when it is a continuation line of a multi-line comment.
func commentLineSet(text string, comments []structure.Span) map[int]bool {
	set := make(map[int]bool)
	for _, c := range comments {
		if c.Start >= len(text) || c.End <= c.Start {
			continue
		}
		lineStart := strings.LastIndexByte(text[:c.Start], '\n') + 1
		if strings.TrimSpace(text[lineStart:c.Start]) == "" {
			set[c.Line] = true
		}
		end := c.End
		if end > len(text) {
			end = len(text)
		}
		extra := strings.Count(text[c.Start:end], "\n")
		if end > c.Start && text[end-1] == '\n' {
			extra--
		}
		for i := 1; i <= extra; i++ {
			set[c.Line+i] = true
		}
	}
	return set
}

// stripComments blanks comment spans so numbers inside them are ignored.
func stripComments(text string, comments []structure.Span) string {
	if len(comments) == 0 {
		return text
	}
	b := []byte(text)
	for _, c := range comments {
		for i := c.Start; i < c.End && i < len(b); i++ {
			if b[i] != '\n' {
				b[i] = ' '
			}
		}
	}
	return string(b)
}

func identifierSignals(s datatypes.SignalSet, ids []structure.Identifier) {
	if len(ids) == 0 {
		return
	}
	freq := make(map[string]int)
	for _, id := range ids {
		freq[id.Name]++
	}
	s[datatypes.SignalIdentifierCount] = float64(len(ids))
	s[datatypes.SignalUniqueIdentifiers] = capped(len(freq), MaxUniqueIdentifier)

	var sum float64
	for name := range freq {
		sum += float64(utf8.RuneCountInString(name))
	}
	mean := sum / float64(len(freq))
	var variance float64
	for name := range freq {
		d := float64(utf8.RuneCountInString(name)) - mean
		variance += d * d
	}
	s[datatypes.SignalIdentifierMeanLen] = mean
	s[datatypes.SignalIdentifierLenVar] = variance / float64(len(freq))
	s[datatypes.SignalIdentifierEntropy] = entropy(freq, len(ids))
}

// entropy is the Shannon entropy in bits of a frequency table.
func entropy(freq map[string]int, total int) float64 {
	var h float64
	for _, n := range freq {
		p := float64(n) / float64(total)
		h -= p * math.Log2(p)
	}
	return h
}

func lineSignals(s datatypes.SignalSet, lines []string) {
	var lengths []float64
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		lengths = append(lengths, math.Min(float64(utf8.RuneCountInString(l)), MaxLineLength))
	}
	if len(lengths) == 0 {
		return
	}
	var sum, maxLen float64
	for _, n := range lengths {
		sum += n
		maxLen = math.Max(maxLen, n)
	}
	mean := sum / float64(len(lengths))
	var sq float64
	for _, n := range lengths {
		sq += (n - mean) * (n - mean)
	}
	s[datatypes.SignalLineMeanLength] = mean
	s[datatypes.SignalLineMaxLength] = maxLen
	s[datatypes.SignalLineLengthStdDev] = math.Sqrt(sq / float64(len(lengths)))
}

// repeatedLines counts distinct stripped code lines that occur
// RepeatThreshold times or more. Comment lines are not counted, so adding a
// comment never reads as boilerplate.
func repeatedLines(lines []string, commentLines map[int]bool) int {
	counts := make(map[string]int)
	for i, l := range lines {
		if commentLines[i+1] {
			continue
		}
		if t := strings.TrimSpace(l); t != "" {
			counts[t]++
		}
	}
	n := 0
	for _, c := range counts {
		if c >= RepeatThreshold {
			n++
		}
	}
	return n
}
