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
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/vata/services/vata/datatypes"
)

func TestHashHex(t *testing.T) {
	assert.Equal(t,
		"ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
		HashHex([]byte("abc")))
}

func TestAttest(t *testing.T) {
	src := datatypes.NewSourceText("abc", datatypes.LanguageGeneric)
	report := datatypes.AuthenticityReport{
		Overall:  46,
		Category: datatypes.CategoryMixed,
	}

	first, err := Attest(src, report)
	require.NoError(t, err)
	second, err := Attest(src, report)
	require.NoError(t, err)

	assert.Equal(t, PlaceholderProof, first.Proof)
	assert.Equal(t, HashHex([]byte("abc")), first.InputSHA256)
	assert.Equal(t, first.ReportSHA256, second.ReportSHA256)
	assert.Len(t, first.ReportSHA256, 64)
	assert.Equal(t, "Soul score = 46/100 under VATA-Ethics-v1.", first.Statement)
	assert.False(t, first.CreatedAt.IsZero())

	_, err = uuid.Parse(first.RunID)
	require.NoError(t, err)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestAttest_ReportHashTracksReport(t *testing.T) {
	src := datatypes.NewSourceText("x = 1", datatypes.LanguagePython)
	a, err := Attest(src, datatypes.AuthenticityReport{Overall: 10, Category: datatypes.CategoryMachineLeaning})
	require.NoError(t, err)
	b, err := Attest(src, datatypes.AuthenticityReport{Overall: 90, Category: datatypes.CategoryHumanLeaning})
	require.NoError(t, err)
	assert.NotEqual(t, a.ReportSHA256, b.ReportSHA256)
	assert.Equal(t, a.InputSHA256, b.InputSHA256)
}

func TestStatement_Rejected(t *testing.T) {
	report := datatypes.AuthenticityReport{
		Category: datatypes.CategoryRejected,
		Violations: []datatypes.Violation{
			{Class: datatypes.ClassHardcodedSecret},
		},
	}
	assert.Equal(t, "Input rejected under VATA-Ethics-v1 (1 violations).", Statement(report))
}
