// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package scoring turns signals into dimension scores and an overall
// authenticity report.
//
// The rule table in rules.go is the single source of scoring behavior. Each
// dimension starts at Baseline, every applied rule adds its delta and one
// reason line, and the result is clamped to [0, 100]. Aggregate combines the
// four dimensions with fixed weights and assigns a category.
//
//	signals ──► Score ──► Dimensions ──► Aggregate ──► AuthenticityReport
//	                                        ▲
//	                          violations ───┘
//
// Everything here is pure and safe for concurrent use.
package scoring

import (
	"github.com/AleutianAI/vata/services/vata/datatypes"
)

// Scorer evaluates a rule table.
//
// Thread Safety: Safe for concurrent use. The table is not modified.
type Scorer struct {
	rules []Rule
}

// NewScorer creates a Scorer over a rule table. A nil table uses
// DefaultRules.
func NewScorer(rules []Rule) *Scorer {
	if rules == nil {
		rules = DefaultRules
	}
	return &Scorer{rules: rules}
}

var defaultScorer = NewScorer(nil)

// Score evaluates DefaultRules.
func Score(signals datatypes.SignalSet) datatypes.Dimensions {
	return defaultScorer.Score(signals)
}

// Score computes the four dimension scores.
//
// Description:
//
//	Empty input (is_empty set) bypasses the table: every dimension is 0
//	and the structure dimension carries the single reason "empty input".
//	Otherwise every dimension starts at Baseline and each applicable rule
//	adds its delta and appends its reason. Rules in the same group are
//	first-match. Values are clamped to [0, 100].
//
// Inputs:
//
//	signals - Output of the feature extractor.
//
// Outputs:
//
//	datatypes.Dimensions - Reasons are non-nil for every dimension.
func (s *Scorer) Score(signals datatypes.SignalSet) datatypes.Dimensions {
	if signals.Bool(datatypes.SignalIsEmpty) {
		return emptyDimensions()
	}

	values := make(map[datatypes.Dimension]int, 4)
	reasons := make(map[datatypes.Dimension][]string, 4)
	for _, dim := range datatypes.AllDimensions() {
		values[dim] = Baseline
		reasons[dim] = []string{}
	}

	applied := make(map[string]bool)
	for _, rule := range s.rules {
		key := string(rule.Dimension) + "/" + rule.Group
		if rule.Group != "" && applied[key] {
			continue
		}
		if !rule.Matches(signals) {
			continue
		}
		applied[key] = true
		if rule.Delta == 0 {
			continue
		}
		values[rule.Dimension] += rule.Delta
		reasons[rule.Dimension] = append(reasons[rule.Dimension], rule.FormatReason(signals))
	}

	var dims datatypes.Dimensions
	for _, dim := range datatypes.AllDimensions() {
		dims = dims.Set(datatypes.DimensionScore{
			Dimension: dim,
			Value:     clamp(values[dim]),
			Reasons:   reasons[dim],
		})
	}
	return dims
}

// Rules returns a copy of the table.
func (s *Scorer) Rules() []Rule {
	out := make([]Rule, len(s.rules))
	copy(out, s.rules)
	return out
}

func emptyDimensions() datatypes.Dimensions {
	var dims datatypes.Dimensions
	for _, dim := range datatypes.AllDimensions() {
		dims = dims.Set(datatypes.DimensionScore{Dimension: dim, Value: 0, Reasons: []string{}})
	}
	dims.Structure.Reasons = []string{datatypes.ReasonEmptyInput}
	return dims
}

func clamp(v int) int {
	return min(max(v, 0), 100)
}
