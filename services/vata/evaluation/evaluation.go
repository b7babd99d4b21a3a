// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package evaluation measures detector quality against labelled samples.
//
// Labels are binary: Human (0) and Machine (1). Machine is the positive
// class, so precision answers "of the texts flagged as machine-written, how
// many were".
package evaluation

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/vata/services/vata/datatypes"
)

// DefaultCutoff is the overall score below which a text is predicted to be
// machine-written.
const DefaultCutoff = 50

var (
	// ErrLengthMismatch is returned when truth and prediction differ in length.
	ErrLengthMismatch = errors.New("true and predicted labels must be the same length")

	// ErrNonBinaryLabel is returned for a label other than 0 or 1.
	ErrNonBinaryLabel = errors.New("labels must be binary (0 or 1)")
)

// Label is a ground truth or predicted class.
type Label int

const (
	Human   Label = 0
	Machine Label = 1
)

// String implements fmt.Stringer.
func (l Label) String() string {
	switch l {
	case Human:
		return "human"
	case Machine:
		return "machine"
	default:
		return fmt.Sprintf("Label(%d)", int(l))
	}
}

// UnmarshalYAML accepts 0, 1, "human", "machine" and "ai".
func (l *Label) UnmarshalYAML(value *yaml.Node) error {
	switch strings.ToLower(strings.TrimSpace(value.Value)) {
	case "0", "human":
		*l = Human
	case "1", "machine", "ai":
		*l = Machine
	default:
		return fmt.Errorf("line %d: %w: %q", value.Line, ErrNonBinaryLabel, value.Value)
	}
	return nil
}

// ConfusionMatrix counts outcomes with Machine as the positive class.
type ConfusionMatrix struct {
	TP int `json:"tp"`
	TN int `json:"tn"`
	FP int `json:"fp"`
	FN int `json:"fn"`
}

// Total is the number of samples.
func (m ConfusionMatrix) Total() int {
	return m.TP + m.TN + m.FP + m.FN
}

// Metrics summarizes an evaluation run. Ratios with a zero denominator are 0.
type Metrics struct {
	Matrix    ConfusionMatrix `json:"confusion_matrix"`
	Accuracy  float64         `json:"accuracy"`
	Precision float64         `json:"precision"`
	Recall    float64         `json:"recall"`
	F1        float64         `json:"f1"`
}

// Evaluate compares predictions with ground truth.
//
// Inputs:
//
//	truth - Ground truth labels.
//	predicted - Detector output, same length as truth.
//
// Outputs:
//
//	Metrics - Confusion matrix and derived ratios.
//	error - ErrLengthMismatch or ErrNonBinaryLabel.
func Evaluate(truth, predicted []Label) (Metrics, error) {
	if len(truth) != len(predicted) {
		return Metrics{}, fmt.Errorf("%w: %d != %d", ErrLengthMismatch, len(truth), len(predicted))
	}

	var m ConfusionMatrix
	for i := range truth {
		t, p := truth[i], predicted[i]
		if !binary(t) || !binary(p) {
			return Metrics{}, fmt.Errorf("sample %d: %w", i, ErrNonBinaryLabel)
		}
		switch {
		case t == Machine && p == Machine:
			m.TP++
		case t == Human && p == Human:
			m.TN++
		case t == Human && p == Machine:
			m.FP++
		default:
			m.FN++
		}
	}
	return FromMatrix(m), nil
}

// FromMatrix derives the ratios for m.
func FromMatrix(m ConfusionMatrix) Metrics {
	out := Metrics{
		Matrix:    m,
		Accuracy:  ratio(m.TP+m.TN, m.Total()),
		Precision: ratio(m.TP, m.TP+m.FP),
		Recall:    ratio(m.TP, m.TP+m.FN),
	}
	if out.Precision+out.Recall > 0 {
		out.F1 = 2 * out.Precision * out.Recall / (out.Precision + out.Recall)
	}
	return out
}

// Predict maps a report to a label: Machine when the overall score is below
// cutoff.
func Predict(report datatypes.AuthenticityReport, cutoff int) Label {
	if report.Overall < cutoff {
		return Machine
	}
	return Human
}

// Format renders m as a short text report.
func (m Metrics) Format() string {
	var b strings.Builder
	b.WriteString("Confusion Matrix:\n")
	fmt.Fprintf(&b, "  TP: %d  FP: %d\n", m.Matrix.TP, m.Matrix.FP)
	fmt.Fprintf(&b, "  FN: %d  TN: %d\n", m.Matrix.FN, m.Matrix.TN)
	fmt.Fprintf(&b, "Accuracy: %.4f\n", m.Accuracy)
	fmt.Fprintf(&b, "Precision: %.4f\n", m.Precision)
	fmt.Fprintf(&b, "Recall: %.4f\n", m.Recall)
	fmt.Fprintf(&b, "F1 Score: %.4f\n", m.F1)
	return b.String()
}

func binary(l Label) bool {
	return l == Human || l == Machine
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
