// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ux

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/vata/services/vata/datatypes"
)

func plainPrinter() (*Printer, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewPrinter(&buf, ModePlain), &buf
}

func TestDetectMode(t *testing.T) {
	assert.Equal(t, ModePlain, DetectMode(nil))

	f, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, ModePlain, DetectMode(f))

	t.Setenv("NO_COLOR", "1")
	assert.Equal(t, ModePlain, DetectMode(os.Stdout))
}

func TestPrinter_PlainStatus(t *testing.T) {
	p, buf := plainPrinter()
	p.Success("done")
	p.Warning("slow")
	p.Error("failed")
	p.Field("profile", "mild")
	p.Bullets([]string{"a", "b"})

	assert.Equal(t, "OK: done\nWARN: slow\nERROR: failed\nprofile: mild\n  - a\n  - b\n", buf.String())
}

func TestPrinter_Box(t *testing.T) {
	p, buf := plainPrinter()
	p.Box("Patch", "--- a/x\n+++ b/x\n")
	assert.Equal(t, "== Patch ==\n--- a/x\n+++ b/x\n", buf.String())

	var rich bytes.Buffer
	NewPrinter(&rich, ModeRich).Box("Patch", "body")
	assert.Contains(t, rich.String(), "body")
	assert.Contains(t, rich.String(), "Patch")
}

func TestPrinter_Table(t *testing.T) {
	p, buf := plainPrinter()
	p.Table([]string{"FILE", "SCORE"}, [][]string{
		{"a.py", "46"},
		{"long_name.sh", "7"},
	})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "FILE          SCORE", lines[0])
	assert.Equal(t, "a.py          46", lines[1])
	assert.Equal(t, "long_name.sh  7", lines[2])
}

func TestScoreBar(t *testing.T) {
	tests := []struct {
		score int
		width int
		want  string
	}{
		{0, 10, "[..........]"},
		{46, 10, "[####......]"},
		{100, 10, "[##########]"},
		{150, 4, "[####]"},
		{-5, 4, "[....]"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ScoreBar(tt.score, tt.width))
	}
	assert.Len(t, ScoreBar(50, 0), BarWidth+2)
}

func TestPrinter_Report(t *testing.T) {
	dims := datatypes.Dimensions{}.
		Set(datatypes.DimensionScore{Dimension: datatypes.DimensionStructure, Value: 50}).
		Set(datatypes.DimensionScore{Dimension: datatypes.DimensionRisk, Value: 100})

	p, buf := plainPrinter()
	p.Report("a.py", datatypes.AuthenticityReport{
		Overall:    46,
		Category:   datatypes.CategoryMixed,
		Dimensions: dims,
		Reasons:    []string{"few comments"},
	})

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "a.py  Soul score 46/100  mixed\n"))
	assert.Contains(t, out, "structure")
	assert.Contains(t, out, "[##########..........]")
	assert.Contains(t, out, "  - few comments")
}

func TestPrinter_ReportRejected(t *testing.T) {
	p, buf := plainPrinter()
	p.Report("", datatypes.AuthenticityReport{
		Category: datatypes.CategoryRejected,
		Violations: []datatypes.Violation{{
			Class:       datatypes.ClassDestructiveCommand,
			Description: "recursive delete of root",
			Line:        1,
		}},
	})

	out := buf.String()
	assert.Contains(t, out, "Soul score 0/100  rejected")
	assert.Contains(t, out, "ERROR: input rejected: 1 violation(s)")
	assert.Contains(t, out, "destructive_command: recursive delete of root (line 1)")
	assert.NotContains(t, out, "structure")
}
