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

// EditKind identifies the chaos operation that produced an Edit.
type EditKind string

const (
	EditRename   EditKind = "rename"
	EditComment  EditKind = "comment"
	EditDeadCode EditKind = "dead_code"
)

// Edit records one change applied by the chaos transformer.
type Edit struct {
	Kind EditKind `json:"kind"`

	// Line is the 1-indexed line in the input text the edit is anchored to.
	Line int `json:"line"`

	// Detail is a short human readable description, e.g. "x -> blorp".
	Detail string `json:"detail"`
}

// IterationRecord is one entry of the convergence loop's audit trail.
type IterationRecord struct {
	Index    int    `json:"index"`
	Overall  int    `json:"overall"`
	Improved bool   `json:"improved"`
	Skipped  bool   `json:"skipped"`
	Reason   string `json:"reason,omitempty"`
	Edits    []Edit `json:"edits,omitempty"`
}

// TransformResult is the output of the convergence loop.
//
// Only the best result seen is retained. Iterations is the index of the
// iteration that produced it, 0 when the original text is still the best.
type TransformResult struct {
	Text       string             `json:"text"`
	Language   Language           `json:"language"`
	Report     AuthenticityReport `json:"report"`
	Iterations int                `json:"iterations"`

	// Attempted counts every iteration run, including skipped ones.
	Attempted int `json:"attempted"`

	// Audit is the short per-iteration trail.
	Audit []IterationRecord `json:"audit,omitempty"`

	// Patch is a unified diff from the original text to Text. Empty when
	// nothing changed.
	Patch string `json:"patch,omitempty"`
}
