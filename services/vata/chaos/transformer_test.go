// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package chaos

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/vata/services/vata/datatypes"
	"github.com/AleutianAI/vata/services/vata/guardian"
	"github.com/AleutianAI/vata/services/vata/structure"
)

// everything applies every edit kind at every opportunity.
var everything = Profile{
	Name:         "everything",
	RenameProb:   1,
	CommentProb:  1,
	DeadCodeProb: 1,
	Phrases:      []string{"note to self"},
	Names:        []string{"thing"},
}

func editKinds(edits []datatypes.Edit) map[datatypes.EditKind]int {
	kinds := make(map[datatypes.EditKind]int)
	for _, e := range edits {
		kinds[e.Kind]++
	}
	return kinds
}

func TestTransform_AllEditsKeepValidity(t *testing.T) {
	tests := []struct {
		name     string
		lang     datatypes.Language
		text     string
		deadCode string
	}{
		{
			name:     "python",
			lang:     datatypes.LanguagePython,
			text:     "def add(a, b):\n    total = a + b\n    return total\n",
			deadCode: "    pass\n",
		},
		{
			name:     "javascript",
			lang:     datatypes.LanguageJavaScript,
			text:     "function add(a, b) {\n  const total = a + b;\n  return total;\n}\n",
			deadCode: "{ void 0;",
		},
		{
			name:     "shell",
			lang:     datatypes.LanguageShell,
			text:     "greet() {\n  name=world\n  echo \"$name\"\n}\n",
			deadCode: "{ :;",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			tr := NewTransformer(guardian.Default(), WithSeed(1))
			src := datatypes.NewSourceText(tt.text, tt.lang)

			out, edits, err := tr.Transform(ctx, src, everything)
			require.NoError(t, err)
			require.NoError(t, structure.Validate(ctx, out))

			assert.NotEqual(t, tt.text, out.Text())
			assert.Contains(t, out.Text(), tt.deadCode)
			assert.Contains(t, out.Text(), "note to self")
			assert.Contains(t, out.Text(), "thing")

			kinds := editKinds(edits)
			assert.Positive(t, kinds[datatypes.EditRename])
			assert.Positive(t, kinds[datatypes.EditComment])
			assert.Equal(t, 1, kinds[datatypes.EditDeadCode])
		})
	}
}

func TestTransform_PythonExactOutput(t *testing.T) {
	src := datatypes.NewSourceText("def add(a, b):\n    total = a + b\n    return total\n", datatypes.LanguagePython)
	out, _, err := NewTransformer(guardian.Default()).Transform(context.Background(), src, everything)
	require.NoError(t, err)

	want := "def thing_2(thing, thing_3):\n" +
		"    pass\n" +
		"    thing_4 = thing + thing_3\n" +
		"    # note to self\n" +
		"    return thing_4\n" +
		"# note to self\n"
	assert.Equal(t, want, out.Text())
}

func TestTransform_RejectsGuardianViolations(t *testing.T) {
	src := datatypes.NewSourceText("rm -rf /", datatypes.LanguageShell)
	out, edits, err := NewTransformer(guardian.Default()).Transform(context.Background(), src, everything)

	require.Error(t, err)
	assert.True(t, errors.Is(err, datatypes.ErrRejectedInput))
	var rejected *datatypes.RejectedInputError
	require.True(t, errors.As(err, &rejected))
	assert.NotEmpty(t, rejected.Violations)
	assert.Empty(t, edits)
	assert.Equal(t, src.Text(), out.Text())
}

func TestTransform_BrokenInputFails(t *testing.T) {
	src := datatypes.NewSourceText("def f(:\n    return", datatypes.LanguagePython)
	out, _, err := NewTransformer(guardian.Default()).Transform(context.Background(), src, everything)

	require.Error(t, err)
	assert.True(t, errors.Is(err, datatypes.ErrTransformFailed))
	assert.Equal(t, src.Text(), out.Text())
}

func TestTransform_GenericGetsNoDeadCode(t *testing.T) {
	src := datatypes.NewSourceText("def f(x):\n    return x\n", datatypes.LanguageGeneric)
	_, edits, err := NewTransformer(guardian.Default()).Transform(context.Background(), src, everything)
	require.NoError(t, err)

	kinds := editKinds(edits)
	assert.Zero(t, kinds[datatypes.EditDeadCode])
	assert.Positive(t, kinds[datatypes.EditComment])
}

func TestTransform_Deterministic(t *testing.T) {
	set, err := LoadProfiles()
	require.NoError(t, err)
	profile, err := set.Get("aggressive")
	require.NoError(t, err)

	text := strings.Join([]string{
		"import math",
		"",
		"def area(radius):",
		"    squared = radius * radius",
		"    return math.pi * squared",
		"",
		"def perimeter(radius):",
		"    return 2 * math.pi * radius",
		"",
	}, "\n")
	src := datatypes.NewSourceText(text, datatypes.LanguagePython)

	run := func() (string, []datatypes.Edit) {
		out, edits, err := NewTransformer(guardian.Default(), WithSeed(42)).Transform(context.Background(), src, profile)
		require.NoError(t, err)
		return out.Text(), edits
	}
	text1, edits1 := run()
	text2, edits2 := run()
	assert.Equal(t, text1, text2)
	assert.Equal(t, edits1, edits2)
	assert.NotContains(t, text1, "import thing", "imported names are never renamed")
}

func TestTransform_KeepsPythonClassMembers(t *testing.T) {
	set, err := LoadProfiles()
	require.NoError(t, err)

	text := strings.Join([]string{
		"class Greeter:",
		"    prefix = 'hi'",
		"",
		"    def __str__(self):",
		"        return self.prefix",
		"",
		"    def go(self, n):",
		"        return self.prefix * n",
		"",
	}, "\n")
	src := datatypes.NewSourceText(text, datatypes.LanguagePython)

	for _, name := range []string{"mild", "aggressive"} {
		profile, err := set.Get(name)
		require.NoError(t, err)
		for seed := int64(0); seed < 40; seed++ {
			out, _, err := NewTransformer(guardian.Default(), WithSeed(seed)).Transform(context.Background(), src, profile)
			if err != nil {
				require.ErrorIs(t, err, datatypes.ErrTransformFailed, "%s seed %d", name, seed)
				continue
			}
			got := out.Text()
			assert.Contains(t, got, "def __str__(self):", "%s seed %d", name, seed)
			assert.Contains(t, got, "def go(self, ", "%s seed %d", name, seed)
			assert.Contains(t, got, "    prefix = 'hi'", "%s seed %d", name, seed)
		}
	}
}

func TestTransform_DeadCodeAfterDirectives(t *testing.T) {
	noop := Profile{Name: "noop", DeadCodeProb: 1, Phrases: []string{"x"}, Names: []string{"x"}}
	src := datatypes.NewSourceText("function f(a) {\n  \"use strict\";\n  return a;\n}\n", datatypes.LanguageJavaScript)

	out, edits, err := NewTransformer(guardian.Default()).Transform(context.Background(), src, noop)
	require.NoError(t, err)
	assert.Equal(t, "function f(a) {\n  \"use strict\"; void 0;\n  return a;\n}\n", out.Text())
	assert.Equal(t, 1, editKinds(edits)[datatypes.EditDeadCode])
}

func TestTransform_ZeroProbabilitiesChangeNothing(t *testing.T) {
	quiet := everything
	quiet.RenameProb, quiet.CommentProb, quiet.DeadCodeProb = 0, 0, 0

	src := datatypes.NewSourceText("x = 1\n", datatypes.LanguagePython)
	out, edits, err := NewTransformer(guardian.Default()).Transform(context.Background(), src, quiet)
	require.NoError(t, err)
	assert.Equal(t, src.Text(), out.Text())
	assert.Empty(t, edits)
}

func TestTransform_InvalidProfile(t *testing.T) {
	bad := everything
	bad.CommentProb = 2
	_, _, err := NewTransformer(guardian.Default()).Transform(context.Background(), datatypes.NewSourceText("x = 1\n", datatypes.LanguagePython), bad)
	assert.True(t, datatypes.IsConfiguration(err))
}

func TestApply_Ordering(t *testing.T) {
	text := "ab\ncd"
	got := apply(text, []textEdit{
		{start: 3, end: 3, text: "X\n", seq: 0},
		{start: 3, end: 4, text: "C", seq: 1},
		{start: 3, end: 3, text: "Y\n", seq: 2},
		{start: 0, end: 1, text: "A", seq: 3},
	})
	assert.Equal(t, "Ab\nX\nY\nCd", got)
}

func TestLineInsert_NoTrailingNewline(t *testing.T) {
	l := newLines("x = 1")
	assert.Equal(t, "\n# hi", l.lineInsert(5, "# hi"))
	l = newLines("x = 1\n")
	assert.Equal(t, "# hi\n", l.lineInsert(6, "# hi"))
}
