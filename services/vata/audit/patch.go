// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package audit produces the artifacts that accompany an analysis: unified
// diffs of humanized output, placeholder attestations, and swarm votes.
//
// Nothing in this package is cryptographic evidence. An Attestation binds a
// report to its input by hash and carries a fixed placeholder proof.
package audit

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/sourcegraph/go-diff/diff"
)

// DefaultContext is the number of unchanged lines kept around each change.
const DefaultContext = 3

// ErrPatchMismatch is returned by ApplyPatch when a hunk does not match the
// text it is applied to.
var ErrPatchMismatch = errors.New("patch does not apply")

// PatchStats contains statistics about a patch.
type PatchStats struct {
	Hunks        int `json:"hunks"`
	LinesAdded   int `json:"lines_added"`
	LinesRemoved int `json:"lines_removed"`
}

// RenderPatch returns a unified diff turning original into updated.
//
// Description:
//
//	Lines are compared exactly. Names are written as a/<name> and b/<name>.
//	The result is empty when the two texts have the same lines; a change
//	confined to the final newline is not rendered.
//
// Inputs:
//
//	original, updated - full texts.
//	name - the file name shown in the headers. Empty becomes "input".
//
// Outputs:
//
//	string - the unified diff.
//	error - non-nil only if the diff could not be printed.
func RenderPatch(original, updated, name string) (string, error) {
	if name == "" {
		name = "input"
	}
	hunks := buildHunks(splitLines(original), splitLines(updated), DefaultContext)
	if len(hunks) == 0 {
		return "", nil
	}

	fd := &diff.FileDiff{
		OrigName: "a/" + name,
		NewName:  "b/" + name,
		Hunks:    hunks,
	}
	out, err := diff.PrintFileDiff(fd)
	if err != nil {
		return "", fmt.Errorf("printing patch for %s: %w", name, err)
	}
	return string(out), nil
}

// Stats parses a unified diff and counts its hunks and changed lines.
func Stats(patch string) (PatchStats, error) {
	var stats PatchStats
	if strings.TrimSpace(patch) == "" {
		return stats, nil
	}
	fileDiffs, err := diff.NewMultiFileDiffReader(strings.NewReader(patch)).ReadAllFiles()
	if err != nil {
		return stats, fmt.Errorf("parsing patch: %w", err)
	}
	for _, fd := range fileDiffs {
		stats.Hunks += len(fd.Hunks)
		for _, hunk := range fd.Hunks {
			for _, line := range hunkLines(hunk) {
				switch {
				case strings.HasPrefix(line, "+"):
					stats.LinesAdded++
				case strings.HasPrefix(line, "-"):
					stats.LinesRemoved++
				}
			}
		}
	}
	return stats, nil
}

// ApplyPatch applies a single-file unified diff to original.
//
// Context and removed lines must match original exactly, otherwise
// ErrPatchMismatch is returned. A trailing newline on original is kept.
func ApplyPatch(original, patch string) (string, error) {
	if strings.TrimSpace(patch) == "" {
		return original, nil
	}
	fd, err := diff.ParseFileDiff([]byte(patch))
	if err != nil {
		return "", fmt.Errorf("parsing patch: %w", err)
	}

	origLines := splitLines(original)
	out := make([]string, 0, len(origLines))
	idx := 0
	for _, hunk := range fd.Hunks {
		start := int(hunk.OrigStartLine) - 1
		if hunk.OrigLines == 0 {
			start = int(hunk.OrigStartLine)
		}
		if start < idx || start > len(origLines) {
			return "", fmt.Errorf("%w: hunk at line %d out of order", ErrPatchMismatch, hunk.OrigStartLine)
		}
		out = append(out, origLines[idx:start]...)
		idx = start

		for _, line := range hunkLines(hunk) {
			if line == "" {
				continue
			}
			kind, text := line[0], line[1:]
			switch kind {
			case '+':
				out = append(out, text)
			case '-', ' ':
				if idx >= len(origLines) || origLines[idx] != text {
					return "", fmt.Errorf("%w: line %d differs", ErrPatchMismatch, idx+1)
				}
				if kind == ' ' {
					out = append(out, text)
				}
				idx++
			}
		}
	}
	out = append(out, origLines[idx:]...)

	result := strings.Join(out, "\n")
	if strings.HasSuffix(original, "\n") && len(out) > 0 {
		result += "\n"
	}
	return result, nil
}

// splitLines splits text into lines without their terminators. A single
// trailing newline does not produce an empty final line.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}

func hunkLines(hunk *diff.Hunk) []string {
	body := strings.TrimSuffix(string(hunk.Body), "\n")
	if body == "" {
		return nil
	}
	return strings.Split(body, "\n")
}

// buildHunks turns the grouped opcodes of a line matcher into go-diff
// hunks. Changes separated by at most 2*context unchanged lines share a
// hunk.
func buildHunks(a, b []string, context int) []*diff.Hunk {
	matcher := difflib.NewMatcher(a, b)
	groups := matcher.GetGroupedOpCodes(context)
	hunks := make([]*diff.Hunk, 0, len(groups))
	for _, group := range groups {
		first, last := group[0], group[len(group)-1]

		var body strings.Builder
		write := func(kind byte, lines []string) {
			for _, line := range lines {
				body.WriteByte(kind)
				body.WriteString(line)
				body.WriteByte('\n')
			}
		}
		for _, op := range group {
			switch op.Tag {
			case 'e':
				write(' ', a[op.I1:op.I2])
			case 'd':
				write('-', a[op.I1:op.I2])
			case 'i':
				write('+', b[op.J1:op.J2])
			case 'r':
				write('-', a[op.I1:op.I2])
				write('+', b[op.J1:op.J2])
			}
		}

		hunks = append(hunks, &diff.Hunk{
			OrigStartLine: int32(hunkStart(first.I1, last.I2)),
			OrigLines:     int32(last.I2 - first.I1),
			NewStartLine:  int32(hunkStart(first.J1, last.J2)),
			NewLines:      int32(last.J2 - first.J1),
			Body:          []byte(body.String()),
		})
	}
	return hunks
}

// hunkStart is the 1-indexed start line of a range, or the line before it
// when the range is empty.
func hunkStart(lo, hi int) int {
	if hi == lo {
		return lo
	}
	return lo + 1
}
