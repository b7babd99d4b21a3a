// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

import (
	"encoding/json"
	"fmt"
)

// =============================================================================
// Dimensions
// =============================================================================

// Dimension names one of the four sub-scores.
type Dimension string

const (
	DimensionStructure Dimension = "structure"
	DimensionStyle     Dimension = "style"
	DimensionSemantics Dimension = "semantics"
	DimensionRisk      Dimension = "risk"
)

// AllDimensions returns the dimensions in report order.
func AllDimensions() []Dimension {
	return []Dimension{DimensionStructure, DimensionStyle, DimensionSemantics, DimensionRisk}
}

// ReasonEmptyInput is the single reason recorded for empty input.
const ReasonEmptyInput = "empty input"

// DimensionScore is one sub-score and the reasons that produced it.
//
// Every point added to or subtracted from the baseline has exactly one
// reason, e.g. "+15 style: healthy comment density".
type DimensionScore struct {
	Dimension Dimension `json:"dimension"`
	Value     int       `json:"value"`
	Reasons   []string  `json:"reasons"`
}

// Dimensions groups the four sub-scores of a report.
type Dimensions struct {
	Structure DimensionScore
	Style     DimensionScore
	Semantics DimensionScore
	Risk      DimensionScore
}

// Get returns the score for a dimension. Unknown dimensions return the zero
// value.
func (d Dimensions) Get(dim Dimension) DimensionScore {
	switch dim {
	case DimensionStructure:
		return d.Structure
	case DimensionStyle:
		return d.Style
	case DimensionSemantics:
		return d.Semantics
	case DimensionRisk:
		return d.Risk
	default:
		return DimensionScore{}
	}
}

// Set returns a copy with one dimension replaced.
func (d Dimensions) Set(score DimensionScore) Dimensions {
	switch score.Dimension {
	case DimensionStructure:
		d.Structure = score
	case DimensionStyle:
		d.Style = score
	case DimensionSemantics:
		d.Semantics = score
	case DimensionRisk:
		d.Risk = score
	}
	return d
}

// All returns the scores in report order.
func (d Dimensions) All() []DimensionScore {
	return []DimensionScore{d.Structure, d.Style, d.Semantics, d.Risk}
}

// Reasons concatenates the per-dimension reasons in report order.
func (d Dimensions) Reasons() []string {
	var out []string
	for _, s := range d.All() {
		out = append(out, s.Reasons...)
	}
	return out
}

// =============================================================================
// Categories
// =============================================================================

// Category is the qualitative tier derived from the overall score.
type Category string

const (
	CategoryHumanLeaning   Category = "human-leaning"
	CategoryMixed          Category = "mixed"
	CategoryMachineLeaning Category = "machine-leaning"

	// CategoryRejected overrides the numeric tier whenever the Guardian
	// reported violations.
	CategoryRejected Category = "rejected"
)

// =============================================================================
// Report
// =============================================================================

// AuthenticityReport is the immutable result of one scoring call.
//
// Thread Safety: Reports are never mutated after construction and may be
// shared between goroutines. Accessors return copies.
type AuthenticityReport struct {
	Overall    int
	Category   Category
	Dimensions Dimensions
	Reasons    []string
	Violations []Violation
	Signals    SignalSet
}

// Rejected reports whether the Guardian flagged the input.
func (r AuthenticityReport) Rejected() bool {
	return len(r.Violations) > 0
}

// IsEmptyInput reports whether the report is the defined zero result for
// empty input. Empty input is not an error.
func IsEmptyInput(r AuthenticityReport) bool {
	return r.Overall == 0 && len(r.Reasons) == 1 && r.Reasons[0] == ReasonEmptyInput
}

// Summary is a one-line description, e.g. "62/100 (mixed)".
func (r AuthenticityReport) Summary() string {
	return fmt.Sprintf("%d/100 (%s)", r.Overall, r.Category)
}

type dimensionsJSON struct {
	Structure int `json:"structure"`
	Style     int `json:"style"`
	Semantics int `json:"semantics"`
	Risk      int `json:"risk"`
}

type reportJSON struct {
	Overall          int                 `json:"overall"`
	Category         Category            `json:"category"`
	Dimensions       dimensionsJSON      `json:"dimensions"`
	Reasons          []string            `json:"reasons"`
	Violations       []string            `json:"violations"`
	ViolationDetails []Violation         `json:"violation_details,omitempty"`
	DimensionReasons map[string][]string `json:"dimension_reasons,omitempty"`
	Signals          map[Signal]float64  `json:"signals,omitempty"`
}

// MarshalJSON renders the report in the public wire shape:
//
//	{"overall":62,"category":"mixed","dimensions":{"structure":60,...},
//	 "reasons":[...],"violations":[...]}
//
// Violation details, per-dimension reasons and raw signals are included as
// additional fields for tooling.
func (r AuthenticityReport) MarshalJSON() ([]byte, error) {
	out := reportJSON{
		Overall:  r.Overall,
		Category: r.Category,
		Dimensions: dimensionsJSON{
			Structure: r.Dimensions.Structure.Value,
			Style:     r.Dimensions.Style.Value,
			Semantics: r.Dimensions.Semantics.Value,
			Risk:      r.Dimensions.Risk.Value,
		},
		Reasons:          nonNilStrings(r.Reasons),
		Violations:       ViolationStrings(r.Violations),
		ViolationDetails: r.Violations,
		DimensionReasons: make(map[string][]string, 4),
	}
	for _, s := range r.Dimensions.All() {
		if s.Dimension != "" {
			out.DimensionReasons[string(s.Dimension)] = nonNilStrings(s.Reasons)
		}
	}
	if len(r.Signals) > 0 {
		out.Signals = r.Signals
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores a report written by MarshalJSON.
func (r *AuthenticityReport) UnmarshalJSON(data []byte) error {
	var in reportJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	dims := Dimensions{
		Structure: DimensionScore{Dimension: DimensionStructure, Value: in.Dimensions.Structure},
		Style:     DimensionScore{Dimension: DimensionStyle, Value: in.Dimensions.Style},
		Semantics: DimensionScore{Dimension: DimensionSemantics, Value: in.Dimensions.Semantics},
		Risk:      DimensionScore{Dimension: DimensionRisk, Value: in.Dimensions.Risk},
	}
	for _, dim := range AllDimensions() {
		if reasons, ok := in.DimensionReasons[string(dim)]; ok {
			score := dims.Get(dim)
			score.Reasons = reasons
			dims = dims.Set(score)
		}
	}
	*r = AuthenticityReport{
		Overall:    in.Overall,
		Category:   in.Category,
		Dimensions: dims,
		Reasons:    in.Reasons,
		Violations: in.ViolationDetails,
	}
	if len(in.Signals) > 0 {
		r.Signals = SignalSet(in.Signals)
	}
	return nil
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
