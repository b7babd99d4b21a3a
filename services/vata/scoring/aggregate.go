// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package scoring

import (
	"math"
	"strconv"

	"github.com/AleutianAI/vata/services/vata/datatypes"
	"github.com/AleutianAI/vata/services/vata/features"
)

// Dimension weights for the overall score. They sum to 1.
const (
	WeightStructure = 0.30
	WeightStyle     = 0.25
	WeightSemantics = 0.30
	WeightRisk      = 0.15
)

// Thresholds map the overall score to a category.
//
// Overall >= HumanLeaning is human-leaning, >= Mixed is mixed, anything
// lower is machine-leaning.
type Thresholds struct {
	HumanLeaning int `json:"human_leaning" yaml:"human_leaning"`
	Mixed        int `json:"mixed" yaml:"mixed"`
}

// DefaultThresholds returns 70 / 40.
func DefaultThresholds() Thresholds {
	return Thresholds{HumanLeaning: 70, Mixed: 40}
}

// Validate checks 0 <= Mixed < HumanLeaning <= 100.
func (t Thresholds) Validate() error {
	if t.Mixed < 0 || t.Mixed > 100 {
		return datatypes.NewConfigurationError("thresholds.mixed", strconv.Itoa(t.Mixed), "must be within [0, 100]")
	}
	if t.HumanLeaning < 0 || t.HumanLeaning > 100 {
		return datatypes.NewConfigurationError("thresholds.human_leaning", strconv.Itoa(t.HumanLeaning), "must be within [0, 100]")
	}
	if t.Mixed >= t.HumanLeaning {
		return datatypes.NewConfigurationError("thresholds.mixed", strconv.Itoa(t.Mixed), "must be below thresholds.human_leaning")
	}
	return nil
}

// Categorize returns the tier of an overall score.
func (t Thresholds) Categorize(overall int) datatypes.Category {
	switch {
	case overall >= t.HumanLeaning:
		return datatypes.CategoryHumanLeaning
	case overall >= t.Mixed:
		return datatypes.CategoryMixed
	default:
		return datatypes.CategoryMachineLeaning
	}
}

// Overall computes the weighted, rounded, clamped overall score.
func Overall(dims datatypes.Dimensions) int {
	v := WeightStructure*float64(dims.Structure.Value) +
		WeightStyle*float64(dims.Style.Value) +
		WeightSemantics*float64(dims.Semantics.Value) +
		WeightRisk*float64(dims.Risk.Value)
	return clamp(int(math.Round(v)))
}

// Aggregate combines dimension scores and Guardian violations into a
// report.
//
// Description:
//
//	Reasons are the dimension reasons in structure, style, semantics, risk
//	order. Any violation forces the rejected category; the numeric overall
//	is still reported.
//
// Inputs:
//
//	dims - Output of Score.
//	violations - Guardian result, attached verbatim.
//	thresholds - Category cut-offs. Must be valid.
func Aggregate(dims datatypes.Dimensions, violations []datatypes.Violation, thresholds Thresholds) datatypes.AuthenticityReport {
	overall := Overall(dims)
	category := thresholds.Categorize(overall)
	if len(violations) > 0 {
		category = datatypes.CategoryRejected
	}
	reasons := dims.Reasons()
	if reasons == nil {
		reasons = []string{}
	}
	vs := make([]datatypes.Violation, len(violations))
	copy(vs, violations)
	return datatypes.AuthenticityReport{
		Overall:    overall,
		Category:   category,
		Dimensions: dims,
		Reasons:    reasons,
		Violations: vs,
	}
}

// Checker is the Guardian contract needed by Analyze.
type Checker interface {
	Check(text string) []datatypes.Violation
}

// Analyze runs Guardian, extraction, scoring and aggregation.
//
// Description:
//
//	This is the pure scoring core. Violations do not stop scoring; they
//	only force the rejected category. Raw signals are attached to the
//	report.
//
// Inputs:
//
//	src - Text to score.
//	guard - Guardian, usually guardian.Default().
//	thresholds - Category cut-offs.
//
// Outputs:
//
//	datatypes.AuthenticityReport - Overall in [0, 100].
//	error - ConfigurationError for invalid thresholds.
func Analyze(src datatypes.SourceText, guard Checker, thresholds Thresholds) (datatypes.AuthenticityReport, error) {
	if err := thresholds.Validate(); err != nil {
		return datatypes.AuthenticityReport{}, err
	}
	return analyze(src, guard, thresholds, features.Extract(src)), nil
}

func analyze(src datatypes.SourceText, guard Checker, thresholds Thresholds, signals datatypes.SignalSet) datatypes.AuthenticityReport {
	var violations []datatypes.Violation
	if guard != nil {
		violations = guard.Check(src.Text())
	}
	report := Aggregate(Score(signals), violations, thresholds)
	report.Signals = signals
	return report
}
