// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package converge runs the humanize loop: perturb, re-score, keep the best.
//
//	START ──guardian──▶ ITERATING ──best ≥ target or cap──▶ DONE
//	  │                    │  ▲
//	  │ violations         └──┘ transform current, score candidate,
//	  ▼                         keep best, advance current
//	RejectedInputError
//
// A failed transform is recorded as a skipped iteration and leaves the
// current text in place. Cancellation is observed between iterations and
// returns the best result found so far.
package converge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/AleutianAI/vata/services/vata/audit"
	"github.com/AleutianAI/vata/services/vata/chaos"
	"github.com/AleutianAI/vata/services/vata/datatypes"
	"github.com/AleutianAI/vata/services/vata/guardian"
	"github.com/AleutianAI/vata/services/vata/scoring"
)

const (
	// DefaultTarget is the overall score the loop aims for.
	DefaultTarget = 70

	// DefaultMaxIterations caps the loop when the caller does not.
	DefaultMaxIterations = 5
)

// State is a convergence loop phase.
type State int

const (
	StateStart State = iota
	StateIterating
	StateDone
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateIterating:
		return "iterating"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Checker is the Guardian contract the loop depends on.
type Checker interface {
	Check(text string) []datatypes.Violation
}

// Perturber produces a candidate from the current text.
//
// *chaos.Transformer is the production implementation.
type Perturber interface {
	Transform(ctx context.Context, src datatypes.SourceText, profile chaos.Profile) (datatypes.SourceText, []datatypes.Edit, error)
}

// Option configures a Loop.
type Option func(*Loop)

// WithPerturber replaces the default chaos transformer.
func WithPerturber(p Perturber) Option {
	return func(l *Loop) {
		if p != nil {
			l.perturber = p
		}
	}
}

// WithSeed seeds the default chaos transformer.
func WithSeed(seed int64) Option {
	return func(l *Loop) {
		l.seed = &seed
	}
}

// WithThresholds sets the category cut-offs used when scoring.
func WithThresholds(t scoring.Thresholds) Option {
	return func(l *Loop) {
		l.thresholds = t
	}
}

// WithPatchName sets the file name shown in the rendered patch.
func WithPatchName(name string) Option {
	return func(l *Loop) {
		l.patchName = name
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// Loop runs the convergence state machine.
//
// Thread Safety: A Loop shares its Perturber across calls. With the default
// chaos transformer concurrent calls are safe but not reproducible; use one
// Loop per goroutine when output must be deterministic.
type Loop struct {
	guard      Checker
	perturber  Perturber
	thresholds scoring.Thresholds
	patchName  string
	seed       *int64
	logger     *slog.Logger
}

// New creates a Loop.
//
// Inputs:
//
//	guard - Guardian for the START gate and scoring. Nil uses guardian.Default().
//	opts - WithPerturber, WithSeed, WithThresholds, WithPatchName, WithLogger.
func New(guard Checker, opts ...Option) *Loop {
	l := &Loop{
		guard:      guard,
		thresholds: scoring.DefaultThresholds(),
		patchName:  "input",
		logger:     slog.Default(),
	}
	if l.guard == nil {
		l.guard = guardian.Default()
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.perturber == nil {
		topts := []chaos.Option{chaos.WithLogger(l.logger)}
		if l.seed != nil {
			topts = append(topts, chaos.WithSeed(*l.seed))
		}
		l.perturber = chaos.NewTransformer(l.guard, topts...)
	}
	return l
}

// Humanize runs the loop with a default Loop.
func Humanize(ctx context.Context, src datatypes.SourceText, profile chaos.Profile, target, maxIterations int) (datatypes.TransformResult, error) {
	return New(nil).Humanize(ctx, src, profile, target, maxIterations)
}

// run carries per-call state.
type run struct {
	state   State
	src     datatypes.SourceText
	current datatypes.SourceText
	best    datatypes.SourceText
	report  datatypes.AuthenticityReport
	bestIdx int
	tried   int
	trail   []datatypes.IterationRecord
}

// Humanize perturbs src until its overall score reaches target or
// maxIterations attempts have been made.
//
// Description:
//
//	The Guardian gates the input first. The original is scored and kept as
//	the best result. Each iteration transforms the current text; a
//	TransformFailure is recorded as skipped and the current text is kept.
//	Otherwise the candidate is scored, replaces the best result only if
//	strictly better, and always becomes the current text.
//
// Inputs:
//
//	ctx - Checked between iterations.
//	src - Text to humanize.
//	profile - Chaos profile.
//	target - Overall score in [0, 100] that ends the loop early.
//	maxIterations - Hard cap, >= 0. Zero returns the original.
//
// Outputs:
//
//	datatypes.TransformResult - The best result. Iterations is the index of
//	    the iteration that produced it, 0 for the original.
//	error - ConfigurationError, RejectedInputError, or ctx.Err() alongside
//	    the best result so far.
func (l *Loop) Humanize(ctx context.Context, src datatypes.SourceText, profile chaos.Profile, target, maxIterations int) (datatypes.TransformResult, error) {
	if maxIterations < 0 {
		return datatypes.TransformResult{}, datatypes.NewConfigurationError("max_iterations", strconv.Itoa(maxIterations), "must be >= 0")
	}
	if target < 0 || target > 100 {
		return datatypes.TransformResult{}, datatypes.NewConfigurationError("target", strconv.Itoa(target), "must be within [0, 100]")
	}
	if err := profile.Validate(); err != nil {
		return datatypes.TransformResult{}, err
	}

	original, err := scoring.Analyze(src, l.guard, l.thresholds)
	if err != nil {
		return datatypes.TransformResult{}, err
	}

	r := &run{
		state:   StateStart,
		src:     src,
		current: src,
		best:    src,
		report:  original,
		trail:   []datatypes.IterationRecord{},
	}
	if original.Rejected() {
		l.logger.Info("humanize rejected",
			slog.String("state", r.state.String()),
			slog.Int("violations", len(original.Violations)))
		return l.result(r), datatypes.NewRejectedInputError(original.Violations)
	}

	r.state = StateIterating
	for r.report.Overall < target && r.tried < maxIterations {
		if err := ctx.Err(); err != nil {
			return l.finish(r), err
		}
		if err := l.step(ctx, r, profile); err != nil {
			return l.finish(r), err
		}
	}
	return l.finish(r), nil
}

// step runs one iteration.
func (l *Loop) step(ctx context.Context, r *run, profile chaos.Profile) error {
	r.tried++
	index := r.tried

	candidate, edits, err := l.perturber.Transform(ctx, r.current, profile)
	if err != nil {
		var failure *datatypes.TransformFailure
		if errors.As(err, &failure) {
			failure.Iteration = index
			r.trail = append(r.trail, datatypes.IterationRecord{
				Index:   index,
				Overall: r.report.Overall,
				Skipped: true,
				Reason:  failure.Error(),
			})
			l.logger.Debug("humanize iteration skipped",
				slog.Int("iteration", index),
				slog.String("reason", failure.Reason))
			return nil
		}
		return fmt.Errorf("iteration %d: %w", index, err)
	}

	report, err := scoring.Analyze(candidate, l.guard, l.thresholds)
	if err != nil {
		return fmt.Errorf("iteration %d: %w", index, err)
	}

	improved := report.Overall > r.report.Overall
	if improved {
		r.best = candidate
		r.report = report
		r.bestIdx = index
	}
	r.current = candidate
	r.trail = append(r.trail, datatypes.IterationRecord{
		Index:    index,
		Overall:  report.Overall,
		Improved: improved,
		Edits:    edits,
	})
	l.logger.Debug("humanize iteration",
		slog.Int("iteration", index),
		slog.Int("overall", report.Overall),
		slog.Bool("improved", improved),
		slog.Int("edits", len(edits)))
	return nil
}

func (l *Loop) finish(r *run) datatypes.TransformResult {
	r.state = StateDone
	l.logger.Info("humanize done",
		slog.String("state", r.state.String()),
		slog.Int("overall", r.report.Overall),
		slog.Int("best_iteration", r.bestIdx),
		slog.Int("attempted", r.tried))
	return l.result(r)
}

func (l *Loop) result(r *run) datatypes.TransformResult {
	res := datatypes.TransformResult{
		Text:       r.best.Text(),
		Language:   r.best.Language(),
		Report:     r.report,
		Iterations: r.bestIdx,
		Attempted:  r.tried,
		Audit:      r.trail,
	}
	if r.bestIdx > 0 {
		patch, err := audit.RenderPatch(r.src.Text(), r.best.Text(), l.patchName)
		if err != nil {
			l.logger.Warn("rendering humanize patch", slog.String("error", err.Error()))
		}
		// The patch must reproduce Text from the original.
		if applied, err := audit.ApplyPatch(r.src.Text(), patch); err != nil || !samePatchTarget(applied, res.Text) {
			l.logger.Warn("humanize patch does not reproduce result, dropping it")
			patch = ""
		}
		res.Patch = patch
	}
	return res
}

// samePatchTarget compares texts the way patches do, ignoring a difference
// confined to the final newline.
func samePatchTarget(a, b string) bool {
	return strings.TrimSuffix(a, "\n") == strings.TrimSuffix(b, "\n")
}
