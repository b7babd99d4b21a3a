// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package guardian is the static gate that runs before scoring and before
// any transformation.
//
// The Guardian scans text line by line against an embedded table of
// disallowed pattern classes (dynamic execution, destructive commands,
// hard-coded secrets, high-risk APIs). A non-empty result rejects the input
// for transformation; scoring still runs and reports the violations.
//
// The table is immutable after loading, so one Guardian can be shared by
// any number of goroutines. Default returns a process-wide instance.
package guardian

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/vata/services/vata/datatypes"
	"github.com/AleutianAI/vata/services/vata/guardian/rules"
)

// Guardian checks text against the disallowed-pattern table.
//
// Thread Safety: Safe for concurrent use. All state is read-only after New.
type Guardian struct {
	table RuleTable
}

// New loads the embedded rule table.
//
// Description:
//
//	Unmarshals the embedded YAML, compiles every regex, and sorts classes
//	by priority.
//
// Outputs:
//
//	*Guardian - Ready to use.
//	error - Non-nil if the embedded table is malformed.
func New() (*Guardian, error) {
	return NewFromYAML(rules.GuardianPatterns)
}

// NewFromYAML builds a Guardian from an alternate rule table.
func NewFromYAML(data []byte) (*Guardian, error) {
	var table RuleTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to unmarshal the guardian rule table: %w", err)
	}
	if err := table.Compile(); err != nil {
		return nil, fmt.Errorf("failed to compile the guardian rule table: %w", err)
	}
	table.SortByPriority()
	return &Guardian{table: table}, nil
}

var (
	defaultOnce     sync.Once
	defaultGuardian *Guardian
)

// Default returns the shared Guardian built from the embedded table.
//
// Panics if the embedded table is malformed, which is a build defect.
func Default() *Guardian {
	defaultOnce.Do(func() {
		g, err := New()
		if err != nil {
			panic(fmt.Sprintf("guardian: embedded rule table: %v", err))
		}
		defaultGuardian = g
	})
	return defaultGuardian
}

// Check scans text and returns every violation.
//
// Description:
//
//	Each line is matched against every rule. At most one violation is
//	reported per (line, rule). The result is sorted by line, then class,
//	then rule id, so identical input always yields an identical list.
//	Matched text is masked before it is stored.
//
// Inputs:
//
//	text - Raw source text. Never evaluated.
//
// Outputs:
//
//	[]datatypes.Violation - Empty (never nil) when the text is clean.
func (g *Guardian) Check(text string) []datatypes.Violation {
	violations := make([]datatypes.Violation, 0)
	if strings.TrimSpace(text) == "" {
		return violations
	}
	for lineNum, line := range strings.Split(text, "\n") {
		for _, class := range g.table.Classes {
			for _, rule := range class.Rules {
				match := rule.compiled.FindString(line)
				if match == "" {
					continue
				}
				violations = append(violations, datatypes.Violation{
					Class:       class.Name,
					RuleID:      rule.ID,
					Line:        lineNum + 1,
					Description: rule.Description,
					Match:       Mask(strings.TrimSpace(match)),
				})
			}
		}
	}
	sortViolations(violations)
	return violations
}

// Classes returns the class names in priority order.
func (g *Guardian) Classes() []datatypes.ViolationClass {
	out := make([]datatypes.ViolationClass, len(g.table.Classes))
	for i, c := range g.table.Classes {
		out[i] = c.Name
	}
	return out
}

// RuleCount returns the number of loaded rules.
func (g *Guardian) RuleCount() int {
	return g.table.RuleCount()
}

func sortViolations(vs []datatypes.Violation) {
	sort.Slice(vs, func(i, j int) bool {
		if vs[i].Line != vs[j].Line {
			return vs[i].Line < vs[j].Line
		}
		if vs[i].Class != vs[j].Class {
			return vs[i].Class < vs[j].Class
		}
		return vs[i].RuleID < vs[j].RuleID
	})
}

// Mask hides matched content.
//
// Up to 8 characters become "****". Longer values keep the first two and
// last two characters with at least one asterisk between.
func Mask(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	if len(r) <= 8 {
		return "****"
	}
	return string(r[:2]) + strings.Repeat("*", len(r)-4) + string(r[len(r)-2:])
}
