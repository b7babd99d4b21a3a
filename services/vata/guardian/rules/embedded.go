// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

/*
Package rules embeds the Guardian pattern table into the binary so the
disallowed-pattern classes cannot drift from the code that enforces them.
*/
package rules

import (
	_ "embed"
)

// GuardianPatterns holds the raw bytes of guardian_patterns.yaml.
//
// Usage:
//
//	err := yaml.Unmarshal(rules.GuardianPatterns, &table)
//
//go:embed guardian_patterns.yaml
var GuardianPatterns []byte

// FairnessPatterns holds the raw bytes of fairness_patterns.yaml.
//
//go:embed fairness_patterns.yaml
var FairnessPatterns []byte
