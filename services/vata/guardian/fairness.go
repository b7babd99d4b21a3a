// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package guardian

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/vata/services/vata/guardian/rules"
)

// Finding is one PII hit.
type Finding struct {
	RuleID      string `json:"rule_id"`
	Description string `json:"description"`
	Line        int    `json:"line"`
	Match       string `json:"match"`
}

// FairnessReport lists PII and bias keyword hits. It is informational and
// never rejects input.
type FairnessReport struct {
	PII       []Finding `json:"pii"`
	BiasTerms []string  `json:"bias_terms"`
	Notes     []string  `json:"notes"`
}

// Flagged reports whether anything was found.
func (r FairnessReport) Flagged() bool {
	return len(r.PII) > 0 || len(r.BiasTerms) > 0
}

type fairnessTable struct {
	PII          []Rule   `yaml:"pii"`
	BiasKeywords []string `yaml:"bias_keywords"`

	bias []*regexp.Regexp
}

var (
	fairnessOnce  sync.Once
	fairnessRules *fairnessTable
	fairnessErr   error
)

func loadFairness() (*fairnessTable, error) {
	fairnessOnce.Do(func() {
		var t fairnessTable
		if err := yaml.Unmarshal(rules.FairnessPatterns, &t); err != nil {
			fairnessErr = fmt.Errorf("failed to unmarshal the fairness table: %w", err)
			return
		}
		for i := range t.PII {
			re, err := regexp.Compile(t.PII[i].Regex)
			if err != nil {
				fairnessErr = fmt.Errorf("failed to compile the regex for %s: %w", t.PII[i].ID, err)
				return
			}
			t.PII[i].compiled = re
		}
		for _, kw := range t.BiasKeywords {
			t.bias = append(t.bias, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(kw)+`\b`))
		}
		fairnessRules = &t
	})
	return fairnessRules, fairnessErr
}

// CheckFairness scans text for PII and bias-related keywords.
//
// Description:
//
//	PII hits are reported per line and rule with masked content. Bias
//	keywords match whole words, case-insensitively, and are listed once
//	each in table order. Notes summarize the result in plain sentences.
//
// Outputs:
//
//	FairnessReport - Slices are empty, never nil.
//	error - Non-nil only if the embedded table is malformed.
func CheckFairness(text string) (FairnessReport, error) {
	t, err := loadFairness()
	if err != nil {
		return FairnessReport{}, err
	}
	report := FairnessReport{PII: []Finding{}, BiasTerms: []string{}, Notes: []string{}}

	for lineNum, line := range strings.Split(text, "\n") {
		for _, rule := range t.PII {
			match := rule.compiled.FindString(line)
			if match == "" {
				continue
			}
			report.PII = append(report.PII, Finding{
				RuleID:      rule.ID,
				Description: rule.Description,
				Line:        lineNum + 1,
				Match:       Mask(match),
			})
		}
	}
	for i, re := range t.bias {
		if re.MatchString(text) {
			report.BiasTerms = append(report.BiasTerms, t.BiasKeywords[i])
		}
	}

	if len(report.PII) == 0 {
		report.Notes = append(report.Notes, "No PII detected.")
	} else {
		report.Notes = append(report.Notes, fmt.Sprintf("%d possible PII value(s) found.", len(report.PII)))
	}
	if len(report.BiasTerms) == 0 {
		report.Notes = append(report.Notes, "No bias-related keywords detected.")
	} else {
		report.Notes = append(report.Notes, "Bias-related keywords: "+strings.Join(report.BiasTerms, ", ")+".")
	}
	return report, nil
}
