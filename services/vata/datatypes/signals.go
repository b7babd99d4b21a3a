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

import "sort"

// Signal names one entry of a SignalSet. The vocabulary is fixed.
type Signal string

// Signal vocabulary produced by the feature extractor.
const (
	SignalCommentLines      Signal = "comment_lines"
	SignalCodeLines         Signal = "code_lines"
	SignalCommentRatio      Signal = "comment_ratio"
	SignalMarkerCount       Signal = "marker_count"
	SignalIdentifierCount   Signal = "identifier_count"
	SignalUniqueIdentifiers Signal = "unique_identifiers"
	SignalIdentifierMeanLen Signal = "identifier_mean_length"
	SignalIdentifierLenVar  Signal = "identifier_length_variance"
	SignalIdentifierEntropy Signal = "identifier_entropy"
	SignalMagicNumbers      Signal = "magic_numbers"
	SignalDeclarations      Signal = "declarations"
	SignalLineMeanLength    Signal = "line_mean_length"
	SignalLineMaxLength     Signal = "line_max_length"
	SignalLineLengthStdDev  Signal = "line_length_stddev"
	SignalRepeatedLines     Signal = "repeated_lines"
	SignalCharLength        Signal = "char_length"
	SignalParseValid        Signal = "parse_valid"
	SignalIsEmpty           Signal = "is_empty"
)

// AllSignals lists the vocabulary in a stable order.
func AllSignals() []Signal {
	return []Signal{
		SignalCommentLines, SignalCodeLines, SignalCommentRatio, SignalMarkerCount,
		SignalIdentifierCount, SignalUniqueIdentifiers, SignalIdentifierMeanLen,
		SignalIdentifierLenVar, SignalIdentifierEntropy, SignalMagicNumbers,
		SignalDeclarations, SignalLineMeanLength, SignalLineMaxLength,
		SignalLineLengthStdDev, SignalRepeatedLines, SignalCharLength,
		SignalParseValid, SignalIsEmpty,
	}
}

// SignalSet maps signal names to numeric values. Booleans are 0 or 1.
//
// A SignalSet is built fresh for every scoring pass and is not shared
// between requests.
type SignalSet map[Signal]float64

// NewSignalSet returns a set with every vocabulary entry present and zero.
func NewSignalSet() SignalSet {
	s := make(SignalSet, len(AllSignals()))
	for _, name := range AllSignals() {
		s[name] = 0
	}
	return s
}

// Get returns the value of a signal, or 0 if absent.
func (s SignalSet) Get(name Signal) float64 {
	return s[name]
}

// Bool reports whether a boolean signal is set.
func (s SignalSet) Bool(name Signal) bool {
	return s[name] != 0
}

// Clone returns an independent copy.
func (s SignalSet) Clone() SignalSet {
	out := make(SignalSet, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Names returns the present signal names sorted alphabetically.
func (s SignalSet) Names() []Signal {
	names := make([]Signal, 0, len(s))
	for k := range s {
		names = append(names, k)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}
