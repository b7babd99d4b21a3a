// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package structure

import (
	"sort"
)

// DefaultTopIdentifiers is the number of identifiers a fingerprint keeps.
const DefaultTopIdentifiers = 10

// Count pairs a name with its frequency.
type Count struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// FingerprintResult summarizes the shape of a text.
type FingerprintResult struct {
	Language    string         `json:"language"`
	Parsed      bool           `json:"parsed"`
	NodeTypes   map[string]int `json:"node_types"`
	Identifiers []Count        `json:"top_identifiers"`
}

// Fingerprint returns the node-type distribution and the most frequent
// identifiers of a view.
//
// Description:
//
//	Identifiers are ranked by count, then by name, and truncated to top.
//	A non-positive top keeps DefaultTopIdentifiers.
//
// Thread Safety: Safe for concurrent use.
func Fingerprint(view View, top int) FingerprintResult {
	if top <= 0 {
		top = DefaultTopIdentifiers
	}
	counts := make(map[string]int)
	for _, id := range view.Identifiers() {
		counts[id.Name]++
	}
	ranked := make([]Count, 0, len(counts))
	for name, n := range counts {
		ranked = append(ranked, Count{Name: name, Count: n})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Name < ranked[j].Name
	})
	if len(ranked) > top {
		ranked = ranked[:top]
	}

	nodeTypes := make(map[string]int, len(view.NodeTypes()))
	for k, v := range view.NodeTypes() {
		nodeTypes[k] = v
	}
	return FingerprintResult{
		Language:    view.Source().Language().String(),
		Parsed:      view.Parsed(),
		NodeTypes:   nodeTypes,
		Identifiers: ranked,
	}
}
