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
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/AleutianAI/vata/services/vata/datatypes"
)

// PlaceholderProof is the proof value carried by every Attestation.
const PlaceholderProof = "placeholder-not-a-proof"

// Ruleset names the scoring rules an attestation statement refers to.
const Ruleset = "VATA-Ethics-v1"

// Attestation binds a report to the input it was computed from.
//
// It is an audit artifact only. Proof is always PlaceholderProof.
type Attestation struct {
	Statement    string    `json:"statement"`
	InputSHA256  string    `json:"input_sha256"`
	ReportSHA256 string    `json:"report_sha256"`
	RunID        string    `json:"run_id"`
	Proof        string    `json:"proof"`
	CreatedAt    time.Time `json:"created_at"`
}

// Attest builds an Attestation for report computed over src.
//
// Description:
//
//	The input hash covers the raw text. The report hash covers the report's
//	JSON encoding, so two equal reports hash the same. Each call gets a new
//	random run id.
//
// Outputs:
//
//	Attestation - the attestation.
//	error - non-nil if the report cannot be encoded.
func Attest(src datatypes.SourceText, report datatypes.AuthenticityReport) (Attestation, error) {
	encoded, err := json.Marshal(report)
	if err != nil {
		return Attestation{}, fmt.Errorf("encoding report: %w", err)
	}
	return Attestation{
		Statement:    Statement(report),
		InputSHA256:  HashHex(src.Bytes()),
		ReportSHA256: HashHex(encoded),
		RunID:        uuid.NewString(),
		Proof:        PlaceholderProof,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// Statement is the human readable claim an attestation makes.
func Statement(report datatypes.AuthenticityReport) string {
	if report.Rejected() {
		return fmt.Sprintf("Input rejected under %s (%d violations).", Ruleset, len(report.Violations))
	}
	return fmt.Sprintf("Soul score = %d/100 under %s.", report.Overall, Ruleset)
}

// HashHex returns the lowercase hex sha256 of data.
func HashHex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
