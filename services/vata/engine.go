// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package vata is the entry point to the authenticity analyzer.
//
// An Engine holds only immutable tables (guardian rules, chaos profiles).
// Every call takes an explicit AnalysisContext, so there is no process-wide
// mutable configuration. The Engine opens one span per call and records
// Prometheus metrics; the analysis packages underneath never touch
// telemetry.
//
//	text ─▶ Guardian ─▶ features ─▶ scoring ─▶ AuthenticityReport
//	                                   ▲
//	          converge ── chaos ───────┘  (Humanize only)
package vata

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/vata/services/vata/audit"
	"github.com/AleutianAI/vata/services/vata/chaos"
	"github.com/AleutianAI/vata/services/vata/converge"
	"github.com/AleutianAI/vata/services/vata/datatypes"
	"github.com/AleutianAI/vata/services/vata/guardian"
	"github.com/AleutianAI/vata/services/vata/scoring"
	"github.com/AleutianAI/vata/services/vata/structure"
	"github.com/AleutianAI/vata/services/vata/telemetry"
)

const tracerName = "vata.engine"

var (
	analyzeTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vata_analyze_total",
		Help: "Analyses run, by language and category.",
	}, []string{"language", "category"})

	humanizeIterations = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "vata_humanize_iterations",
		Help:    "Iterations attempted per humanize call.",
		Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 21},
	})

	overallScore = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vata_overall_score",
		Help:    "Overall authenticity score of returned reports.",
		Buckets: prometheus.LinearBuckets(0, 10, 11),
	}, []string{"operation"})
)

// AnalysisContext carries per-call settings.
type AnalysisContext struct {
	// Profile names the chaos profile used by Humanize.
	Profile string `json:"profile"`

	// Language of the text. Empty detects it from Path and content.
	Language datatypes.Language `json:"language,omitempty"`

	// Path is an optional file name used for detection and patch headers.
	Path string `json:"path,omitempty"`

	MaxIterations int                `json:"max_iterations"`
	TargetScore   int                `json:"target_score"`
	Seed          int64              `json:"seed"`
	Thresholds    scoring.Thresholds `json:"thresholds"`
}

// DefaultAnalysisContext returns the settings used when a caller has none.
func DefaultAnalysisContext() AnalysisContext {
	return AnalysisContext{
		Profile:       "default",
		MaxIterations: converge.DefaultMaxIterations,
		TargetScore:   converge.DefaultTarget,
		Seed:          chaos.DefaultSeed,
		Thresholds:    scoring.DefaultThresholds(),
	}
}

// withDefaults fills the fields whose zero value is not a usable setting:
// zero Thresholds and an empty Profile.
func (a AnalysisContext) withDefaults() AnalysisContext {
	if a.Thresholds == (scoring.Thresholds{}) {
		a.Thresholds = scoring.DefaultThresholds()
	}
	if a.Profile == "" {
		a.Profile = "default"
	}
	return a
}

// Validate checks the fields that do not depend on the Engine's tables.
// Zero Thresholds stand for the defaults.
func (a AnalysisContext) Validate() error {
	if a.Language != "" && !slices.Contains(datatypes.Languages(), a.Language) {
		return datatypes.NewConfigurationError("language", string(a.Language), "unknown language")
	}
	if a.MaxIterations < 0 {
		return datatypes.NewConfigurationError("max_iterations", strconv.Itoa(a.MaxIterations), "must be >= 0")
	}
	if a.TargetScore < 0 || a.TargetScore > 100 {
		return datatypes.NewConfigurationError("target_score", strconv.Itoa(a.TargetScore), "must be within [0, 100]")
	}
	return a.withDefaults().Thresholds.Validate()
}

// Source builds the SourceText for text under this context.
func (a AnalysisContext) Source(text string) datatypes.SourceText {
	if a.Language != "" {
		return datatypes.NewSourceText(text, a.Language)
	}
	return datatypes.DetectSourceText(a.Path, text)
}

// Option configures an Engine.
type Option func(*Engine)

// WithGuardian replaces the built-in rule table.
func WithGuardian(g *guardian.Guardian) Option {
	return func(e *Engine) {
		if g != nil {
			e.guard = g
		}
	}
}

// WithProfiles replaces the built-in chaos profiles.
func WithProfiles(p *chaos.ProfileSet) Option {
	return func(e *Engine) {
		if p != nil {
			e.profiles = p
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// Engine runs analyses.
//
// Thread Safety: Safe for concurrent use. Each Humanize call gets its own
// seeded random source.
type Engine struct {
	guard    *guardian.Guardian
	profiles *chaos.ProfileSet
	logger   *slog.Logger
}

// NewEngine loads the built-in tables.
func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	if e.guard == nil {
		g, err := guardian.New()
		if err != nil {
			return nil, fmt.Errorf("loading guardian rules: %w", err)
		}
		e.guard = g
	}
	if e.profiles == nil {
		p, err := chaos.LoadProfiles()
		if err != nil {
			return nil, fmt.Errorf("loading chaos profiles: %w", err)
		}
		e.profiles = p
	}
	return e, nil
}

// Guardian returns the rule table in use.
func (e *Engine) Guardian() *guardian.Guardian {
	return e.guard
}

// Profiles returns the chaos profiles in declaration order.
func (e *Engine) Profiles() []chaos.Profile {
	return e.profiles.All()
}

// Analyze scores text.
//
// Inputs:
//
//	ctx - Carries the parent span.
//	text - Raw source text.
//	actx - Language, Path and Thresholds are used.
//
// Outputs:
//
//	datatypes.AuthenticityReport - The report. Violations force the
//	    rejected category but are not an error.
//	error - ConfigurationError for an invalid context.
func (e *Engine) Analyze(ctx context.Context, text string, actx AnalysisContext) (datatypes.AuthenticityReport, error) {
	ctx, span := telemetry.StartSpan(ctx, tracerName, "Engine.Analyze")
	defer span.End()

	actx = actx.withDefaults()
	if err := actx.Validate(); err != nil {
		telemetry.RecordError(span, err)
		return datatypes.AuthenticityReport{}, err
	}

	src := actx.Source(text)
	report, err := scoring.Analyze(src, e.guard, actx.Thresholds)
	if err != nil {
		telemetry.RecordError(span, err)
		return datatypes.AuthenticityReport{}, err
	}

	e.observe(span, "analyze", src, report)
	analyzeTotal.WithLabelValues(string(src.Language()), string(report.Category)).Inc()
	telemetry.LoggerWithTrace(ctx, e.logger).Debug("analysis complete",
		slog.String("language", string(src.Language())),
		slog.Int("overall", report.Overall),
		slog.String("category", string(report.Category)))
	return report, nil
}

// Humanize perturbs text toward actx.TargetScore.
//
// Outputs:
//
//	datatypes.TransformResult - Best result found.
//	error - ConfigurationError, RejectedInputError, or a context error
//	    alongside the best result so far.
func (e *Engine) Humanize(ctx context.Context, text string, actx AnalysisContext) (datatypes.TransformResult, error) {
	ctx, span := telemetry.StartSpan(ctx, tracerName, "Engine.Humanize")
	defer span.End()

	actx = actx.withDefaults()
	if err := actx.Validate(); err != nil {
		telemetry.RecordError(span, err)
		return datatypes.TransformResult{}, err
	}
	profile, err := e.profiles.Get(actx.Profile)
	if err != nil {
		telemetry.RecordError(span, err)
		return datatypes.TransformResult{}, err
	}

	src := actx.Source(text)
	patchName := "input"
	if actx.Path != "" {
		patchName = filepath.Base(actx.Path)
	}
	loop := converge.New(e.guard,
		converge.WithSeed(actx.Seed),
		converge.WithThresholds(actx.Thresholds),
		converge.WithPatchName(patchName),
		converge.WithLogger(telemetry.LoggerWithTrace(ctx, e.logger)),
	)

	res, err := loop.Humanize(ctx, src, profile, actx.TargetScore, actx.MaxIterations)
	humanizeIterations.Observe(float64(res.Attempted))
	span.SetAttributes(
		attribute.String("vata.profile", profile.Name),
		attribute.Int("vata.attempted", res.Attempted),
		attribute.Int("vata.best_iteration", res.Iterations),
	)
	if err != nil {
		telemetry.RecordError(span, err)
		return res, err
	}
	e.observe(span, "humanize", src, res.Report)
	return res, nil
}

// Fingerprint summarizes the node types and top identifiers of text.
func (e *Engine) Fingerprint(ctx context.Context, text string, actx AnalysisContext, top int) (structure.FingerprintResult, error) {
	ctx, span := telemetry.StartSpan(ctx, tracerName, "Engine.Fingerprint")
	defer span.End()

	actx = actx.withDefaults()
	if err := actx.Validate(); err != nil {
		telemetry.RecordError(span, err)
		return structure.FingerprintResult{}, err
	}
	view, err := structure.Build(ctx, actx.Source(text))
	if err != nil {
		telemetry.RecordError(span, err)
		return structure.FingerprintResult{}, err
	}
	return structure.Fingerprint(view, top), nil
}

// Attestation bundles a report with its placeholder attestation and the
// swarm votes.
type Attestation struct {
	Report      datatypes.AuthenticityReport `json:"report"`
	Attestation audit.Attestation            `json:"attestation"`
	Votes       []audit.Vote                 `json:"votes"`
}

// Attest analyzes text and attaches an attestation and swarm votes.
func (e *Engine) Attest(ctx context.Context, text string, actx AnalysisContext) (Attestation, error) {
	report, err := e.Analyze(ctx, text, actx)
	if err != nil {
		return Attestation{}, err
	}
	att, err := audit.Attest(actx.Source(text), report)
	if err != nil {
		return Attestation{}, err
	}
	return Attestation{Report: report, Attestation: att, Votes: audit.SwarmVotes(report)}, nil
}

func (e *Engine) observe(span trace.Span, operation string, src datatypes.SourceText, report datatypes.AuthenticityReport) {
	overallScore.WithLabelValues(operation).Observe(float64(report.Overall))
	span.SetAttributes(
		attribute.String("vata.language", string(src.Language())),
		attribute.Int("vata.overall", report.Overall),
		attribute.String("vata.category", string(report.Category)),
		attribute.Int("vata.violations", len(report.Violations)),
	)
	telemetry.SetSpanOK(span)
}
