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
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/vata/services/vata/datatypes"
)

// Confidence grades how specific a rule is.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// UnmarshalYAML rejects unknown confidence values.
func (c *Confidence) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	switch incoming := Confidence(s); incoming {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		*c = incoming
		return nil
	default:
		return fmt.Errorf("invalid value for confidence: %q", s)
	}
}

// RuleTable is the on-disk shape of guardian_patterns.yaml.
type RuleTable struct {
	Classes []RuleClass `yaml:"classes"`
}

// RuleClass groups rules under one violation class.
type RuleClass struct {
	Name        datatypes.ViolationClass `yaml:"name"`
	Description string                   `yaml:"description"`
	Priority    int                      `yaml:"priority"`
	Rules       []Rule                   `yaml:"rules"`
}

// Rule is a single disallowed pattern.
type Rule struct {
	ID          string     `yaml:"id"`
	Description string     `yaml:"description"`
	Regex       string     `yaml:"regex"`
	Confidence  Confidence `yaml:"confidence"`

	compiled *regexp.Regexp
}

var knownClasses = map[datatypes.ViolationClass]bool{
	datatypes.ClassDynamicExecution:   true,
	datatypes.ClassDestructiveCommand: true,
	datatypes.ClassHardcodedSecret:    true,
	datatypes.ClassHighRiskAPI:        true,
}

// Compile validates class names and rule ids and compiles every regex.
func (t *RuleTable) Compile() error {
	seen := make(map[string]bool)
	for i := range t.Classes {
		class := &t.Classes[i]
		if !knownClasses[class.Name] {
			return fmt.Errorf("unknown violation class %q", class.Name)
		}
		for j := range class.Rules {
			rule := &class.Rules[j]
			if rule.ID == "" {
				return fmt.Errorf("class %s: rule %d has no id", class.Name, j)
			}
			if seen[rule.ID] {
				return fmt.Errorf("duplicate rule id %s", rule.ID)
			}
			seen[rule.ID] = true
			re, err := regexp.Compile(rule.Regex)
			if err != nil {
				return fmt.Errorf("failed to compile the regex for %s: %w", rule.ID, err)
			}
			rule.compiled = re
		}
	}
	return nil
}

// SortByPriority orders classes from highest to lowest priority.
func (t *RuleTable) SortByPriority() {
	sort.SliceStable(t.Classes, func(i, j int) bool {
		return t.Classes[i].Priority > t.Classes[j].Priority
	})
}

// RuleCount returns the number of rules across all classes.
func (t *RuleTable) RuleCount() int {
	n := 0
	for _, c := range t.Classes {
		n += len(c.Rules)
	}
	return n
}
