// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package evaluation

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Sample is one labelled file.
type Sample struct {
	Path  string `yaml:"path"`
	Label Label  `yaml:"label"`
}

type labelFile struct {
	Samples []struct {
		Path  string `yaml:"path"`
		Label *Label `yaml:"label"`
	} `yaml:"samples"`
}

// ParseLabels reads a labels document:
//
//	samples:
//	  - path: src/a.py
//	    label: human
//	  - path: gen/b.py
//	    label: machine
func ParseLabels(data []byte) ([]Sample, error) {
	var f labelFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing labels: %w", err)
	}
	samples := make([]Sample, 0, len(f.Samples))
	for i, s := range f.Samples {
		if s.Path == "" {
			return nil, fmt.Errorf("sample %d: path is required", i)
		}
		if s.Label == nil {
			return nil, fmt.Errorf("sample %d (%s): label is required", i, s.Path)
		}
		samples = append(samples, Sample{Path: s.Path, Label: *s.Label})
	}
	return samples, nil
}

// Truth returns the labels of samples in order.
func Truth(samples []Sample) []Label {
	out := make([]Label, len(samples))
	for i, s := range samples {
		out[i] = s.Label
	}
	return out
}
