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

import "fmt"

// ViolationClass is one of the disallowed pattern classes checked by the
// Guardian.
type ViolationClass string

const (
	ClassDynamicExecution   ViolationClass = "dynamic_execution"
	ClassDestructiveCommand ViolationClass = "destructive_command"
	ClassHardcodedSecret    ViolationClass = "hardcoded_secret"
	ClassHighRiskAPI        ViolationClass = "high_risk_api"
)

// Violation is a single Guardian match.
//
// Match holds the masked matched text, never the raw secret.
type Violation struct {
	Class       ViolationClass `json:"class"`
	RuleID      string         `json:"rule_id"`
	Line        int            `json:"line"`
	Description string         `json:"description"`
	Match       string         `json:"match,omitempty"`
}

// String renders the violation for reports, e.g.
// "hardcoded_secret: password assigned a literal (line 3)".
func (v Violation) String() string {
	if v.Line > 0 {
		return fmt.Sprintf("%s: %s (line %d)", v.Class, v.Description, v.Line)
	}
	return fmt.Sprintf("%s: %s", v.Class, v.Description)
}

// ViolationStrings renders a list of violations.
func ViolationStrings(vs []Violation) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.String()
	}
	return out
}
