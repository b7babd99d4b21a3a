// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package audit

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderPatch_Equal(t *testing.T) {
	patch, err := RenderPatch("a\nb\n", "a\nb\n", "x.py")
	require.NoError(t, err)
	assert.Empty(t, patch)

	stats, err := Stats(patch)
	require.NoError(t, err)
	assert.Equal(t, PatchStats{}, stats)
}

func TestRenderPatch_SingleChange(t *testing.T) {
	original := "a\nb\nc\n"
	updated := "a\nB\nc\n"

	patch, err := RenderPatch(original, updated, "x.py")
	require.NoError(t, err)

	assert.Contains(t, patch, "--- a/x.py")
	assert.Contains(t, patch, "+++ b/x.py")
	assert.Contains(t, patch, "@@ -1,3 +1,3 @@")
	assert.Contains(t, patch, " a\n-b\n+B\n c\n")

	stats, err := Stats(patch)
	require.NoError(t, err)
	assert.Equal(t, PatchStats{Hunks: 1, LinesAdded: 1, LinesRemoved: 1}, stats)

	applied, err := ApplyPatch(original, patch)
	require.NoError(t, err)
	assert.Equal(t, updated, applied)
}

func TestRenderPatch_DefaultName(t *testing.T) {
	patch, err := RenderPatch("a\n", "b\n", "")
	require.NoError(t, err)
	assert.Contains(t, patch, "--- a/input")
}

func TestRenderPatch_RoundTrip(t *testing.T) {
	numbered := func(n int, edit func(i int) string) string {
		var b strings.Builder
		for i := 1; i <= n; i++ {
			b.WriteString(edit(i))
		}
		return b.String()
	}
	plain := func(i int) string { return fmt.Sprintf("line %d\n", i) }

	tests := []struct {
		name     string
		original string
		updated  string
		hunks    int
		added    int
		removed  int
	}{
		{
			name:     "insert at top",
			original: "b\nc\n",
			updated:  "a\nb\nc\n",
			hunks:    1,
			added:    1,
		},
		{
			name:     "delete at end",
			original: "a\nb\nc\n",
			updated:  "a\nb\n",
			hunks:    1,
			removed:  1,
		},
		{
			name:     "no trailing newline",
			original: "x\ny",
			updated:  "x\nz",
			hunks:    1,
			added:    1,
			removed:  1,
		},
		{
			name:     "distant changes split hunks",
			original: numbered(20, plain),
			updated: numbered(20, func(i int) string {
				if i == 2 || i == 18 {
					return fmt.Sprintf("changed %d\n", i)
				}
				return plain(i)
			}),
			hunks:   2,
			added:   2,
			removed: 2,
		},
		{
			name:     "close changes share a hunk",
			original: numbered(10, plain),
			updated: numbered(10, func(i int) string {
				if i == 2 || i == 6 {
					return fmt.Sprintf("changed %d\n", i)
				}
				return plain(i)
			}),
			hunks:   1,
			added:   2,
			removed: 2,
		},
		{
			name:     "humanized python",
			original: "def f(x):\n    return x\n",
			updated:  "def blorp(x):\n    pass\n    # note to self\n    return x\n",
			hunks:    1,
			added:    3,
			removed:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			patch, err := RenderPatch(tt.original, tt.updated, "f")
			require.NoError(t, err)
			require.NotEmpty(t, patch)

			stats, err := Stats(patch)
			require.NoError(t, err)
			assert.Equal(t, tt.hunks, stats.Hunks, "hunks")
			assert.Equal(t, tt.added, stats.LinesAdded, "added")
			assert.Equal(t, tt.removed, stats.LinesRemoved, "removed")

			applied, err := ApplyPatch(tt.original, patch)
			require.NoError(t, err)
			assert.Equal(t, tt.updated, applied)
		})
	}
}

func TestRenderPatch_FromEmpty(t *testing.T) {
	patch, err := RenderPatch("", "a\nb\n", "new.sh")
	require.NoError(t, err)
	assert.Contains(t, patch, "@@ -0,0 +1,2 @@")

	applied, err := ApplyPatch("", patch)
	require.NoError(t, err)
	assert.Equal(t, "a\nb", applied)
}

func TestApplyPatch_Mismatch(t *testing.T) {
	patch, err := RenderPatch("a\nb\nc\n", "a\nB\nc\n", "x")
	require.NoError(t, err)

	_, err = ApplyPatch("a\nzzz\nc\n", patch)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPatchMismatch)
}

func TestApplyPatch_Empty(t *testing.T) {
	got, err := ApplyPatch("keep\n", "")
	require.NoError(t, err)
	assert.Equal(t, "keep\n", got)
}

func TestRenderPatch_MinimalEditScript(t *testing.T) {
	patch, err := RenderPatch("a\nb\nc\nd\n", "a\nc\nd\ne\n", "x")
	require.NoError(t, err)
	assert.Contains(t, patch, "@@ -1,4 +1,4 @@\n a\n-b\n c\n d\n+e\n")
}
