// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package api

import (
	"github.com/AleutianAI/vata/services/vata/audit"
	"github.com/AleutianAI/vata/services/vata/datatypes"
	"github.com/AleutianAI/vata/services/vata/scoring"
)

// MaxTextBytes bounds request text.
const MaxTextBytes = 1 << 20

// AnalyzeRequest is the body of POST /v1/analyze.
type AnalyzeRequest struct {
	// Text is the source to score. Empty text is valid and scores 0.
	Text string `json:"text" binding:"max=1048576"`

	// Language is optional; it is detected from Path and content when empty.
	Language string `json:"language,omitempty" binding:"omitempty,max=32"`

	// Path is an optional file name used for language detection.
	Path string `json:"path,omitempty" binding:"omitempty,max=4096"`

	// Thresholds overrides the category cut-offs.
	Thresholds *scoring.Thresholds `json:"thresholds,omitempty"`

	// Attest adds a placeholder attestation and swarm votes to the response.
	Attest bool `json:"attest,omitempty"`
}

// AnalyzeResponse is the body returned by POST /v1/analyze.
type AnalyzeResponse struct {
	Report      datatypes.AuthenticityReport `json:"report"`
	Attestation *audit.Attestation           `json:"attestation,omitempty"`
	Votes       []audit.Vote                 `json:"votes,omitempty"`
	RecordID    string                       `json:"record_id,omitempty"`
}

// HumanizeRequest is the body of POST /v1/humanize.
type HumanizeRequest struct {
	Text          string              `json:"text" binding:"max=1048576"`
	Language      string              `json:"language,omitempty" binding:"omitempty,max=32"`
	Path          string              `json:"path,omitempty" binding:"omitempty,max=4096"`
	Profile       string              `json:"profile,omitempty" binding:"omitempty,max=64"`
	TargetScore   *int                `json:"target_score,omitempty" binding:"omitempty,min=0,max=100"`
	MaxIterations *int                `json:"max_iterations,omitempty" binding:"omitempty,min=0,max=50"`
	Seed          *int64              `json:"seed,omitempty"`
	Thresholds    *scoring.Thresholds `json:"thresholds,omitempty"`
}

// ProfileInfo describes one chaos profile.
type ProfileInfo struct {
	Name           string  `json:"name"`
	Description    string  `json:"description"`
	RenameProb     float64 `json:"rename_prob"`
	CommentProb    float64 `json:"comment_prob"`
	DeadCodeProb   float64 `json:"dead_code_prob"`
	DecorationProb float64 `json:"decoration_prob"`
}

// ProfilesResponse is the body returned by GET /v1/profiles.
type ProfilesResponse struct {
	Profiles []ProfileInfo `json:"profiles"`
}

// HealthResponse is the body returned by GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ErrorResponse is the standard error body.
type ErrorResponse struct {
	Error      string   `json:"error"`
	Code       string   `json:"code,omitempty"`
	Violations []string `json:"violations,omitempty"`
}
