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
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/vata/services/vata/datatypes"
	"github.com/AleutianAI/vata/services/vata/guardian"
)

func analyzeText(t *testing.T, text string, lang datatypes.Language) datatypes.AuthenticityReport {
	t.Helper()
	report, err := Analyze(datatypes.NewSourceText(text, lang), guardian.Default(), DefaultThresholds())
	require.NoError(t, err)
	return report
}

func TestAnalyze_SmallPythonFunction(t *testing.T) {
	report := analyzeText(t, "def f(x):\n    return x", datatypes.LanguagePython)

	assert.Equal(t, 60, report.Dimensions.Structure.Value)
	assert.Equal(t, 45, report.Dimensions.Style.Value)
	assert.Equal(t, 30, report.Dimensions.Semantics.Value)
	assert.Equal(t, 50, report.Dimensions.Risk.Value)
	assert.Equal(t, 46, report.Overall)
	assert.Equal(t, datatypes.CategoryMixed, report.Category)
	assert.Empty(t, report.Violations)

	assert.Equal(t, []string{
		"+10 structure: moderate structured design",
		"-10 style: no comments",
		"+5 style: line lengths within a human-typical range",
		"-5 semantics: sparse vocabulary",
		"-15 semantics: very short snippet",
	}, report.Reasons)
}

func TestAnalyze_EmptyInput(t *testing.T) {
	for _, text := range []string{"", "   \n"} {
		report := analyzeText(t, text, datatypes.LanguageGeneric)
		assert.Equal(t, 0, report.Overall)
		assert.Equal(t, datatypes.CategoryMachineLeaning, report.Category)
		assert.Equal(t, []string{datatypes.ReasonEmptyInput}, report.Reasons)
		assert.True(t, datatypes.IsEmptyInput(report))
		for _, d := range report.Dimensions.All() {
			assert.Equal(t, 0, d.Value)
		}
	}
}

func TestAnalyze_HardcodedPassword(t *testing.T) {
	report := analyzeText(t, "password = 'abc123'", datatypes.LanguagePython)
	assert.NotEmpty(t, report.Violations)
	assert.Equal(t, datatypes.CategoryRejected, report.Category)
	assert.True(t, report.Rejected())
}

func TestAnalyze_OverallAlwaysInRange(t *testing.T) {
	fixed := []string{
		strings.Repeat("x = 1\n", 500),
		strings.Repeat("a", 5000),
		strings.Repeat("# comment\n", 300),
		"def " + strings.Repeat("very_long_identifier_", 40) + "():\n    pass\n",
		"12 34 56 78 90 11 22 33 44 55 66 77 88 99 10 20 30 40",
	}
	rng := rand.New(rand.NewSource(7))
	alphabet := []byte("abcdefXYZ_ 0123456789#/\n\t(){}:=.,'\"")
	for i := 0; i < 50; i++ {
		b := make([]byte, rng.Intn(400))
		for j := range b {
			b[j] = alphabet[rng.Intn(len(alphabet))]
		}
		fixed = append(fixed, string(b))
	}

	for _, text := range fixed {
		for _, lang := range datatypes.Languages() {
			report := analyzeText(t, text, lang)
			if report.Overall < 0 || report.Overall > 100 {
				t.Fatalf("overall %d out of range for %q (%s)", report.Overall, text, lang)
			}
			for _, d := range report.Dimensions.All() {
				if d.Value < 0 || d.Value > 100 {
					t.Fatalf("%s = %d out of range", d.Dimension, d.Value)
				}
			}
		}
	}
}

func TestAnalyze_CommentNeverLowersStyle(t *testing.T) {
	base := []string{
		"def f(x):",
		"    y = x * 2",
		"    z = y + 1",
		"    w = z - 3",
		"    return w",
	}
	prev := -1
	for n := 0; n <= 5; n++ {
		lines := append([]string{}, base...)
		for i := 0; i < n; i++ {
			lines = append(lines, "# note")
		}
		report := analyzeText(t, strings.Join(lines, "\n"), datatypes.LanguagePython)
		style := report.Dimensions.Style.Value
		if style < prev {
			t.Fatalf("adding comment %d lowered style from %d to %d", n, prev, style)
		}
		prev = style
	}
}

func TestScore_ReasonPerAdjustment(t *testing.T) {
	signals := datatypes.NewSignalSet()
	signals[datatypes.SignalDeclarations] = 5
	signals[datatypes.SignalCommentRatio] = 0.2
	signals[datatypes.SignalLineMeanLength] = 40
	signals[datatypes.SignalLineMaxLength] = 300
	signals[datatypes.SignalRepeatedLines] = 2
	signals[datatypes.SignalMarkerCount] = 1
	signals[datatypes.SignalUniqueIdentifiers] = 25
	signals[datatypes.SignalIdentifierMeanLen] = 7
	signals[datatypes.SignalCharLength] = 900
	signals[datatypes.SignalMagicNumbers] = 20

	dims := Score(signals)

	assert.Equal(t, 70, dims.Structure.Value)
	assert.Equal(t, []string{"+20 structure: rich structured design"}, dims.Structure.Reasons)

	assert.Equal(t, 50, dims.Style.Value)
	assert.Equal(t, []string{
		"+15 style: healthy comment density",
		"-10 style: very long lines",
		"-10 style: heavy repetition (2 repeated lines)",
		"+5 style: work-in-progress markers present",
	}, dims.Style.Reasons)

	assert.Equal(t, 75, dims.Semantics.Value)
	assert.Equal(t, 35, dims.Risk.Value)
	assert.Equal(t, []string{"-15 risk: heavy magic-number usage"}, dims.Risk.Reasons)
}

func TestScore_VocabularyNeedsLength(t *testing.T) {
	signals := datatypes.NewSignalSet()
	signals[datatypes.SignalUniqueIdentifiers] = 30
	signals[datatypes.SignalIdentifierMeanLen] = 3
	signals[datatypes.SignalCharLength] = 500

	dims := Score(signals)
	assert.Contains(t, dims.Semantics.Reasons, "+10 semantics: moderate vocabulary")
}

func TestScore_Clamped(t *testing.T) {
	rules := []Rule{
		{ID: "A", Dimension: datatypes.DimensionRisk, When: always(), Delta: 80, Reason: "a"},
		{ID: "B", Dimension: datatypes.DimensionStyle, When: always(), Delta: -80, Reason: "b"},
	}
	dims := NewScorer(rules).Score(datatypes.NewSignalSet())
	assert.Equal(t, 100, dims.Risk.Value)
	assert.Equal(t, 0, dims.Style.Value)
	assert.Equal(t, []string{"+80 risk: a"}, dims.Risk.Reasons)
}

func TestThresholds(t *testing.T) {
	tests := []struct {
		name    string
		th      Thresholds
		wantErr bool
	}{
		{"default", DefaultThresholds(), false},
		{"tight", Thresholds{HumanLeaning: 51, Mixed: 50}, false},
		{"inverted", Thresholds{HumanLeaning: 40, Mixed: 70}, true},
		{"equal", Thresholds{HumanLeaning: 50, Mixed: 50}, true},
		{"negative", Thresholds{HumanLeaning: 70, Mixed: -1}, true},
		{"too high", Thresholds{HumanLeaning: 101, Mixed: 40}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.th.Validate()
			if tt.wantErr {
				assert.True(t, datatypes.IsConfiguration(err), "expected configuration error, got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	th := DefaultThresholds()
	assert.Equal(t, datatypes.CategoryHumanLeaning, th.Categorize(70))
	assert.Equal(t, datatypes.CategoryMixed, th.Categorize(69))
	assert.Equal(t, datatypes.CategoryMixed, th.Categorize(40))
	assert.Equal(t, datatypes.CategoryMachineLeaning, th.Categorize(39))
}

func TestAnalyze_InvalidThresholds(t *testing.T) {
	_, err := Analyze(datatypes.NewSourceText("x = 1", datatypes.LanguagePython), guardian.Default(), Thresholds{HumanLeaning: 10, Mixed: 20})
	assert.True(t, datatypes.IsConfiguration(err))
}

func TestOverall_Weights(t *testing.T) {
	var dims datatypes.Dimensions
	dims.Structure.Value = 100
	dims.Style.Value = 100
	dims.Semantics.Value = 100
	dims.Risk.Value = 100
	assert.Equal(t, 100, Overall(dims))

	dims.Risk.Value = 0
	assert.Equal(t, 85, Overall(dims))
}
