// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package chaos perturbs source text toward a more human-looking shape.
//
// The Transformer draws from a seeded random source and applies three kinds
// of edits on a structure.View:
//
//	rename     every occurrence of a local binding gets a name from the
//	           profile pool
//	comment    a phrase from the pool is inserted as a new comment line
//	           after a statement
//	dead_code  a no-op statement is placed at the start of a function body
//
// Edits are applied back to front by byte offset so earlier offsets stay
// valid. The candidate is re-parsed and re-checked by the Guardian; if either
// check fails the input is returned unchanged with a TransformFailure.
package chaos

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"strings"
	"sync"

	"github.com/AleutianAI/vata/services/vata/datatypes"
	"github.com/AleutianAI/vata/services/vata/structure"
)

// DefaultSeed seeds a Transformer created without WithRand.
const DefaultSeed int64 = 1

// Checker is the Guardian contract the transformer depends on.
type Checker interface {
	Check(text string) []datatypes.Violation
}

// Option configures a Transformer.
type Option func(*Transformer)

// WithRand injects the random source. The Transformer takes ownership and
// serializes access to it.
func WithRand(rng *rand.Rand) Option {
	return func(t *Transformer) {
		if rng != nil {
			t.rng = rng
		}
	}
}

// WithSeed is shorthand for WithRand(rand.New(rand.NewSource(seed))).
func WithSeed(seed int64) Option {
	return WithRand(rand.New(rand.NewSource(seed)))
}

// WithLogger sets the logger for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Transformer) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// Transformer applies profile-driven edits.
//
// Thread Safety: Safe for concurrent use. Draws from the random source are
// serialized, so concurrent callers get a deterministic sequence only in
// aggregate; use one Transformer per goroutine for reproducible output.
type Transformer struct {
	guard  Checker
	rng    *rand.Rand
	mu     sync.Mutex
	logger *slog.Logger
}

// NewTransformer creates a Transformer.
//
// Inputs:
//
//	guard - Guardian used to gate input and candidates. Required.
//	opts - WithRand, WithSeed, WithLogger.
func NewTransformer(guard Checker, opts ...Option) *Transformer {
	t := &Transformer{
		guard:  guard,
		rng:    rand.New(rand.NewSource(DefaultSeed)),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// textEdit is a pending byte-range replacement.
type textEdit struct {
	start int
	end   int
	text  string
	seq   int
}

// Transform perturbs src according to profile.
//
// Description:
//
//	Rejects input with Guardian violations. Builds a view, draws edits,
//	applies them back to front and validates the candidate. A candidate
//	that does not parse, or that the Guardian flags, is discarded.
//
// Inputs:
//
//	ctx - Cancellation for parsing.
//	src - Text to perturb.
//	profile - Probabilities and pools. Must be valid.
//
// Outputs:
//
//	datatypes.SourceText - The candidate, or src on failure.
//	[]datatypes.Edit - Edits applied, in draw order. Empty when none.
//	error - *datatypes.RejectedInputError, *datatypes.TransformFailure,
//	        *datatypes.ConfigurationError, or a context error.
func (t *Transformer) Transform(ctx context.Context, src datatypes.SourceText, profile Profile) (datatypes.SourceText, []datatypes.Edit, error) {
	if violations := t.guard.Check(src.Text()); len(violations) > 0 {
		return src, nil, datatypes.NewRejectedInputError(violations)
	}
	if err := profile.Validate(); err != nil {
		return src, nil, err
	}

	view, err := structure.Build(ctx, src)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return src, nil, err
		}
		return src, nil, datatypes.NewTransformFailure("input could not be parsed", err)
	}
	if view.Parsed() && !view.Valid() {
		return src, nil, datatypes.NewTransformFailure("input has syntax errors", structure.Validate(ctx, src))
	}

	pending, edits := t.draw(view, profile)
	if len(pending) == 0 {
		return src, []datatypes.Edit{}, nil
	}
	candidate := src.WithText(apply(src.Text(), pending))

	if view.Parsed() {
		if err := structure.Validate(ctx, candidate); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return src, nil, err
			}
			t.logger.Debug("chaos candidate rejected", slog.String("reason", "syntax"), slog.String("error", err.Error()))
			return src, nil, datatypes.NewTransformFailure("candidate does not parse", err)
		}
	}
	if violations := t.guard.Check(candidate.Text()); len(violations) > 0 {
		t.logger.Debug("chaos candidate rejected", slog.String("reason", "guardian"), slog.Int("violations", len(violations)))
		failure := datatypes.NewTransformFailure("candidate introduced disallowed content", nil)
		failure.Violations = violations
		return src, nil, failure
	}
	return candidate, edits, nil
}

// draw decides every edit. Draw order is fixed (renames by binding name,
// then insertion points, then bodies) so a given seed is reproducible.
func (t *Transformer) draw(view structure.View, profile Profile) ([]textEdit, []datatypes.Edit) {
	t.mu.Lock()
	defer t.mu.Unlock()

	src := view.Source()
	li := newLines(src.Text())
	var pending []textEdit
	var edits []datatypes.Edit
	push := func(e textEdit) {
		e.seq = len(pending)
		pending = append(pending, e)
	}

	// Renames.
	taken := make(map[string]bool)
	for _, id := range view.Identifiers() {
		taken[id.Name] = true
	}
	for _, binding := range view.Bindings() {
		if t.rng.Float64() >= profile.RenameProb {
			continue
		}
		name := uniqueName(profile.Names[t.rng.Intn(len(profile.Names))], taken, src.Language())
		taken[name] = true
		first := 0
		for _, id := range view.Identifiers() {
			if id.Name != binding || !id.Renameable {
				continue
			}
			if first == 0 {
				first = id.Line
			}
			push(textEdit{start: id.Start, end: id.End, text: name})
		}
		if first > 0 {
			edits = append(edits, datatypes.Edit{Kind: datatypes.EditRename, Line: first, Detail: binding + " -> " + name})
		}
	}

	// Comments.
	prefix := src.Language().CommentPrefix()
	for _, p := range view.InsertionPoints() {
		if t.rng.Float64() >= profile.CommentProb {
			continue
		}
		phrase := profile.Phrases[t.rng.Intn(len(profile.Phrases))]
		if len(profile.Decorations) > 0 && t.rng.Float64() < profile.DecorationProb {
			phrase += profile.Decorations[t.rng.Intn(len(profile.Decorations))]
		}
		line := p.Indent + prefix + " " + phrase
		push(textEdit{start: p.Offset, end: p.Offset, text: li.lineInsert(p.Offset, line)})
		edits = append(edits, datatypes.Edit{Kind: datatypes.EditComment, Line: p.Line, Detail: phrase})
	}

	// Dead statements.
	stmt, ok := deadStatements[src.Language()]
	if ok {
		for _, b := range view.Bodies() {
			if t.rng.Float64() >= profile.DeadCodeProb {
				continue
			}
			text := stmt.inline
			if !b.Inline {
				text = li.lineInsert(b.Offset, b.Indent+stmt.line)
			}
			if strings.TrimSpace(text) == "" {
				continue
			}
			push(textEdit{start: b.Offset, end: b.Offset, text: text})
			edits = append(edits, datatypes.Edit{Kind: datatypes.EditDeadCode, Line: b.Line, Detail: strings.TrimSpace(text)})
		}
	}

	if edits == nil {
		edits = []datatypes.Edit{}
	}
	return pending, edits
}

// deadStatement is the no-op for a language, in own-line and inline form.
type deadStatement struct {
	line   string
	inline string
}

// Generic text has no entry and never receives dead code.
var deadStatements = map[datatypes.Language]deadStatement{
	datatypes.LanguagePython:     {line: "pass"},
	datatypes.LanguageJavaScript: {line: "void 0;", inline: " void 0;"},
	datatypes.LanguageShell:      {line: ":", inline: " :;"},
}

// uniqueName returns base, or base with a numeric suffix when base is
// already taken or is a keyword.
func uniqueName(base string, taken map[string]bool, lang datatypes.Language) string {
	name := base
	for i := 2; taken[name] || structure.IsKeyword(lang, name); i++ {
		name = fmt.Sprintf("%s_%d", base, i)
	}
	return name
}

// apply performs edits from the end of the text backwards. At equal
// offsets replacements run before insertions, and insertions run in
// reverse draw order so they appear in draw order in the output.
func apply(text string, pending []textEdit) string {
	sorted := append([]textEdit(nil), pending...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.start != b.start {
			return a.start > b.start
		}
		aReplace, bReplace := a.end > a.start, b.end > b.start
		if aReplace != bReplace {
			return aReplace
		}
		return a.seq > b.seq
	})
	out := text
	for _, e := range sorted {
		out = out[:e.start] + e.text + out[e.end:]
	}
	return out
}

// lines answers where an inserted line must add its own newline.
type lines struct {
	text string
}

func newLines(text string) lines {
	return lines{text: text}
}

// lineInsert formats a whole line for insertion at offset. At the end of a
// text without a trailing newline the line is prefixed with one instead.
func (l lines) lineInsert(offset int, line string) string {
	if offset >= len(l.text) && !strings.HasSuffix(l.text, "\n") {
		return "\n" + line
	}
	return line + "\n"
}
