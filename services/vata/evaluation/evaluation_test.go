// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package evaluation

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/vata/services/vata/datatypes"
)

func labels(ints ...int) []Label {
	out := make([]Label, len(ints))
	for i, v := range ints {
		out[i] = Label(v)
	}
	return out
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name      string
		truth     []Label
		predicted []Label
		matrix    ConfusionMatrix
		accuracy  float64
		precision float64
		recall    float64
		f1        float64
	}{
		{
			name:      "mixed outcomes",
			truth:     labels(0, 1, 0, 1, 0, 1),
			predicted: labels(0, 1, 1, 1, 0, 0),
			matrix:    ConfusionMatrix{TP: 2, TN: 2, FP: 1, FN: 1},
			accuracy:  4.0 / 6.0,
			precision: 2.0 / 3.0,
			recall:    2.0 / 3.0,
			f1:        2.0 / 3.0,
		},
		{
			name:      "perfect",
			truth:     labels(1, 0),
			predicted: labels(1, 0),
			matrix:    ConfusionMatrix{TP: 1, TN: 1},
			accuracy:  1,
			precision: 1,
			recall:    1,
			f1:        1,
		},
		{
			name:      "no positives predicted",
			truth:     labels(1, 1, 0),
			predicted: labels(0, 0, 0),
			matrix:    ConfusionMatrix{TN: 1, FN: 2},
			accuracy:  1.0 / 3.0,
		},
		{
			name:   "empty",
			matrix: ConfusionMatrix{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Evaluate(tt.truth, tt.predicted)
			require.NoError(t, err)
			assert.Equal(t, tt.matrix, m.Matrix)
			assert.InDelta(t, tt.accuracy, m.Accuracy, 1e-9)
			assert.InDelta(t, tt.precision, m.Precision, 1e-9)
			assert.InDelta(t, tt.recall, m.Recall, 1e-9)
			assert.InDelta(t, tt.f1, m.F1, 1e-9)
			assert.False(t, math.IsNaN(m.F1))
		})
	}
}

func TestEvaluate_InvalidInput(t *testing.T) {
	_, err := Evaluate(labels(0, 1), labels(0))
	assert.True(t, errors.Is(err, ErrLengthMismatch))

	_, err = Evaluate(labels(0, 2), labels(0, 1))
	assert.True(t, errors.Is(err, ErrNonBinaryLabel))

	_, err = Evaluate(labels(0), labels(-1))
	assert.True(t, errors.Is(err, ErrNonBinaryLabel))
}

func TestMetrics_Format(t *testing.T) {
	m, err := Evaluate(labels(0, 1, 0, 1, 0, 1), labels(0, 1, 1, 1, 0, 0))
	require.NoError(t, err)
	want := "Confusion Matrix:\n" +
		"  TP: 2  FP: 1\n" +
		"  FN: 1  TN: 2\n" +
		"Accuracy: 0.6667\n" +
		"Precision: 0.6667\n" +
		"Recall: 0.6667\n" +
		"F1 Score: 0.6667\n"
	assert.Equal(t, want, m.Format())
}

func TestPredict(t *testing.T) {
	assert.Equal(t, Machine, Predict(datatypes.AuthenticityReport{Overall: 49}, DefaultCutoff))
	assert.Equal(t, Human, Predict(datatypes.AuthenticityReport{Overall: 50}, DefaultCutoff))
}

func TestParseLabels(t *testing.T) {
	doc := []byte(`
samples:
  - path: a.py
    label: human
  - path: b.py
    label: 1
  - path: c.js
    label: AI
`)
	samples, err := ParseLabels(doc)
	require.NoError(t, err)
	require.Len(t, samples, 3)
	assert.Equal(t, "a.py", samples[0].Path)
	assert.Equal(t, []Label{Human, Machine, Machine}, Truth(samples))
}

func TestParseLabels_Errors(t *testing.T) {
	tests := map[string]string{
		"bad label":     "samples:\n  - path: a.py\n    label: maybe\n",
		"missing path":  "samples:\n  - label: human\n",
		"missing label": "samples:\n  - path: a.py\n",
		"not yaml":      "samples: [",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseLabels([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLabel_String(t *testing.T) {
	assert.Equal(t, "human", Human.String())
	assert.Equal(t, "machine", Machine.String())
	assert.Equal(t, "Label(7)", Label(7).String())
}
