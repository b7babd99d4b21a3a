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
	"fmt"
	"strconv"
	"strings"

	"github.com/AleutianAI/vata/services/vata/datatypes"
)

// Baseline is the starting value of every dimension.
const Baseline = 50

// Op compares a signal value against a Condition.
type Op int

const (
	OpAlways  Op = iota // matches unconditionally
	OpEqual             // x == Value
	OpAtLeast           // x >= Value
	OpAbove             // x > Value
	OpBelow             // x < Value
	OpAtMost            // x <= Value
	OpBetween           // Value <= x <= Upper
)

// Condition tests one signal.
type Condition struct {
	Signal datatypes.Signal
	Op     Op
	Value  float64
	Upper  float64
}

// Holds reports whether the condition is satisfied by the signal set.
func (c Condition) Holds(s datatypes.SignalSet) bool {
	x := s.Get(c.Signal)
	switch c.Op {
	case OpAlways:
		return true
	case OpEqual:
		return x == c.Value
	case OpAtLeast:
		return x >= c.Value
	case OpAbove:
		return x > c.Value
	case OpBelow:
		return x < c.Value
	case OpAtMost:
		return x <= c.Value
	case OpBetween:
		return x >= c.Value && x <= c.Upper
	default:
		return false
	}
}

// Rule is one row of the scoring table.
//
// Rules sharing a Group are alternatives: the first one whose conditions
// hold is applied and the rest of the group is skipped. A rule applies
// Delta to its Dimension and records exactly one reason.
type Rule struct {
	ID        string
	Dimension datatypes.Dimension
	Group     string
	When      Condition
	Also      []Condition
	Delta     int

	// Reason may contain {value}, replaced by the value of When.Signal.
	Reason string
}

// Matches reports whether every condition of the rule holds.
func (r Rule) Matches(s datatypes.SignalSet) bool {
	if !r.When.Holds(s) {
		return false
	}
	for _, c := range r.Also {
		if !c.Holds(s) {
			return false
		}
	}
	return true
}

// FormatReason renders the reason line, e.g.
// "+15 style: healthy comment density".
func (r Rule) FormatReason(s datatypes.SignalSet) string {
	reason := r.Reason
	if strings.Contains(reason, "{value}") {
		reason = strings.ReplaceAll(reason, "{value}", strconv.FormatFloat(s.Get(r.When.Signal), 'f', -1, 64))
	}
	return fmt.Sprintf("%+d %s: %s", r.Delta, r.Dimension, reason)
}

func when(sig datatypes.Signal, op Op, v float64) Condition {
	return Condition{Signal: sig, Op: op, Value: v}
}

func always() Condition {
	return Condition{Op: OpAlways}
}

// DefaultRules is the scoring table. Order matters within a group.
var DefaultRules = []Rule{
	// STRUCTURE
	{ID: "STRUCT_NONE", Dimension: datatypes.DimensionStructure, Group: "declarations",
		When: when(datatypes.SignalDeclarations, OpEqual, 0), Delta: -20,
		Reason: "no functions or classes detected"},
	{ID: "STRUCT_MODERATE", Dimension: datatypes.DimensionStructure, Group: "declarations",
		When: when(datatypes.SignalDeclarations, OpAtMost, 3), Delta: 10,
		Reason: "moderate structured design"},
	{ID: "STRUCT_RICH", Dimension: datatypes.DimensionStructure, Group: "declarations",
		When: always(), Delta: 20,
		Reason: "rich structured design"},

	// STYLE
	{ID: "STYLE_COMMENTS_HEALTHY", Dimension: datatypes.DimensionStyle, Group: "comments",
		When: when(datatypes.SignalCommentRatio, OpAtLeast, 0.15), Delta: 15,
		Reason: "healthy comment density"},
	{ID: "STYLE_COMMENTS_SOME", Dimension: datatypes.DimensionStyle, Group: "comments",
		When: when(datatypes.SignalCommentRatio, OpAtLeast, 0.05), Delta: 5,
		Reason: "some comments present"},
	{ID: "STYLE_COMMENTS_LOW", Dimension: datatypes.DimensionStyle, Group: "comments",
		When: when(datatypes.SignalCommentRatio, OpAbove, 0), Delta: -5,
		Reason: "very low comment density"},
	{ID: "STYLE_COMMENTS_NONE", Dimension: datatypes.DimensionStyle, Group: "comments",
		When: always(), Delta: -10,
		Reason: "no comments"},
	{ID: "STYLE_LINES_MEAN_LONG", Dimension: datatypes.DimensionStyle, Group: "line_length",
		When: when(datatypes.SignalLineMeanLength, OpAbove, 110), Delta: -10,
		Reason: "very long lines"},
	{ID: "STYLE_LINES_MAX_LONG", Dimension: datatypes.DimensionStyle, Group: "line_length",
		When: when(datatypes.SignalLineMaxLength, OpAbove, 220), Delta: -10,
		Reason: "very long lines"},
	{ID: "STYLE_LINES_TYPICAL", Dimension: datatypes.DimensionStyle, Group: "line_length",
		When: always(), Delta: 5,
		Reason: "line lengths within a human-typical range"},
	{ID: "STYLE_REPETITION", Dimension: datatypes.DimensionStyle, Group: "repetition",
		When: when(datatypes.SignalRepeatedLines, OpAtLeast, 1), Delta: -10,
		Reason: "heavy repetition ({value} repeated lines)"},
	{ID: "STYLE_MARKERS", Dimension: datatypes.DimensionStyle, Group: "markers",
		When: when(datatypes.SignalMarkerCount, OpAtLeast, 1), Delta: 5,
		Reason: "work-in-progress markers present"},

	// SEMANTICS
	{ID: "SEM_VOCAB_RICH", Dimension: datatypes.DimensionSemantics, Group: "vocabulary",
		When: when(datatypes.SignalUniqueIdentifiers, OpAtLeast, 20),
		Also: []Condition{when(datatypes.SignalIdentifierMeanLen, OpAtLeast, 6)},
		Delta: 20, Reason: "rich descriptive vocabulary"},
	{ID: "SEM_VOCAB_MODERATE", Dimension: datatypes.DimensionSemantics, Group: "vocabulary",
		When: when(datatypes.SignalUniqueIdentifiers, OpAtLeast, 10), Delta: 10,
		Reason: "moderate vocabulary"},
	{ID: "SEM_VOCAB_SPARSE", Dimension: datatypes.DimensionSemantics, Group: "vocabulary",
		When: always(), Delta: -5,
		Reason: "sparse vocabulary"},
	{ID: "SEM_LENGTH_TINY", Dimension: datatypes.DimensionSemantics, Group: "length",
		When: when(datatypes.SignalCharLength, OpBelow, 80), Delta: -15,
		Reason: "very short snippet"},
	{ID: "SEM_LENGTH_SHORT", Dimension: datatypes.DimensionSemantics, Group: "length",
		When: when(datatypes.SignalCharLength, OpBelow, 200), Delta: -5,
		Reason: "short snippet"},
	{ID: "SEM_LENGTH_SUBSTANTIAL", Dimension: datatypes.DimensionSemantics, Group: "length",
		When: always(), Delta: 5,
		Reason: "substantial snippet"},

	// RISK
	{ID: "RISK_MAGIC_HEAVY", Dimension: datatypes.DimensionRisk, Group: "magic_numbers",
		When: when(datatypes.SignalMagicNumbers, OpAbove, 15), Delta: -15,
		Reason: "heavy magic-number usage"},
	{ID: "RISK_MAGIC_LIGHT", Dimension: datatypes.DimensionRisk, Group: "magic_numbers",
		When: Condition{Signal: datatypes.SignalMagicNumbers, Op: OpBetween, Value: 1, Upper: 5}, Delta: 5,
		Reason: "light numeric usage"},
}
