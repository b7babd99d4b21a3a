// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package history

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/vata/services/vata/datatypes"
	"github.com/AleutianAI/vata/services/vata/provenance"
	"github.com/AleutianAI/vata/services/vata/scan"
	vstore "github.com/AleutianAI/vata/services/vata/storage/badger"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	db, err := vstore.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(db)
}

func TestStore_SaveGet(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	saved, err := s.Save(ctx, FromReport("a.py", datatypes.AuthenticityReport{Overall: 46, Category: datatypes.CategoryMixed}))
	require.NoError(t, err)
	_, err = uuid.Parse(saved.ID)
	require.NoError(t, err)
	assert.False(t, saved.CreatedAt.IsZero())

	got, err := s.Get(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, got.ID)
	assert.Equal(t, KindAnalyze, got.Kind)
	assert.Equal(t, 46.0, got.HumanityIndex)
	require.Len(t, got.Files, 1)
	assert.Equal(t, datatypes.CategoryMixed, got.Files[0].Category)
}

func TestStore_GetMissing(t *testing.T) {
	s := newStore(t)
	_, err := s.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_ListNewestFirst(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, target := range []string{"first", "second", "third"} {
		_, err := s.Save(ctx, Record{Kind: KindScan, Target: target, CreatedAt: base.Add(time.Duration(i) * time.Minute)})
		require.NoError(t, err)
	}

	all, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"third", "second", "first"}, []string{all[0].Target, all[1].Target, all[2].Target})

	limited, err := s.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestStore_Clear(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := s.Save(ctx, Record{Kind: KindScan})
		require.NoError(t, err)
	}
	n, err := s.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	all, err := s.List(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestFromSummary(t *testing.T) {
	sum := scan.Summarize([]scan.FileResult{
		{Path: "a.py", Report: &datatypes.AuthenticityReport{Overall: 40, Category: datatypes.CategoryMixed}},
		{Path: "b.py", Skipped: true},
		{Path: "c.py", Report: &datatypes.AuthenticityReport{
			Overall:    20,
			Category:   datatypes.CategoryRejected,
			Violations: []datatypes.Violation{{Class: datatypes.ClassHardcodedSecret}},
		}},
	})

	rec := FromSummary("repo", sum)
	assert.Equal(t, KindScan, rec.Kind)
	assert.Equal(t, "repo", rec.Target)
	assert.Equal(t, 2, rec.Scanned)
	assert.Equal(t, 1, rec.Skipped)
	assert.Equal(t, 1, rec.Rejected)
	assert.Equal(t, 30.0, rec.HumanityIndex)
	assert.Len(t, rec.Files, 2)
}

func TestFromProvenance(t *testing.T) {
	rep := provenance.Report{
		Repo:    "/src/repo",
		Branch:  "main",
		Commits: 2,
		Entries: []provenance.Entry{
			{Commit: "0123abcd", FileResult: scan.FileResult{Path: "a.py", Report: &datatypes.AuthenticityReport{Overall: 70, Category: datatypes.CategoryMixed}}},
			{Commit: "89abcdef", FileResult: scan.FileResult{Path: "big.py", Skipped: true}},
		},
		Scanned:       1,
		Skipped:       1,
		HumanityIndex: 70,
	}

	rec := FromProvenance(rep)
	assert.Equal(t, KindProvenance, rec.Kind)
	assert.Equal(t, "/src/repo@main", rec.Target)
	assert.Equal(t, 1, rec.Scanned)
	assert.Equal(t, 1, rec.Skipped)
	assert.Equal(t, 70.0, rec.HumanityIndex)
	require.Len(t, rec.Files, 1)
	assert.Equal(t, "0123abcd:a.py", rec.Files[0].Path)
}
