// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ux

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/AleutianAI/vata/services/vata/datatypes"
)

// BarWidth is the number of cells in a score bar.
const BarWidth = 20

// ScoreBar draws a 0..100 score as a fixed-width bar, e.g.
// "[#########...........]". Out-of-range scores are clamped.
func ScoreBar(score, width int) string {
	if width <= 0 {
		width = BarWidth
	}
	score = min(max(score, 0), 100)
	filled := score * width / 100
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", width-filled) + "]"
}

// CategoryStyle picks the colour for a category.
func CategoryStyle(c datatypes.Category) lipgloss.Style {
	switch c {
	case datatypes.CategoryHumanLeaning:
		return Styles.Human
	case datatypes.CategoryMixed:
		return Styles.Mixed
	case datatypes.CategoryMachineLeaning:
		return Styles.Machine
	default:
		return Styles.Error
	}
}

// Category renders a category label.
func (p *Printer) Category(c datatypes.Category) string {
	if p.rich() {
		return CategoryStyle(c).Bold(true).Render(string(c))
	}
	return string(c)
}

// Report prints one authenticity report. name is a path or label and may
// be empty.
func (p *Printer) Report(name string, r datatypes.AuthenticityReport) {
	head := fmt.Sprintf("Soul score %d/100  %s", r.Overall, p.Category(r.Category))
	if name != "" {
		head = name + "  " + head
	}
	p.Title(head)

	if r.Rejected() {
		p.Error(fmt.Sprintf("input rejected: %d violation(s)", len(r.Violations)))
		p.Bullets(datatypes.ViolationStrings(r.Violations))
		return
	}

	for _, d := range r.Dimensions.All() {
		bar := ScoreBar(d.Value, BarWidth)
		if p.rich() {
			bar = CategoryStyle(categoryOf(d.Value)).Render(bar)
		}
		p.println(fmt.Sprintf("  %-10s %s %3d", d.Dimension, bar, d.Value))
	}
	if len(r.Reasons) > 0 {
		p.Muted("Reasons:")
		p.Bullets(r.Reasons)
	}
}

// categoryOf colours dimension bars with the default cut-offs.
func categoryOf(v int) datatypes.Category {
	switch {
	case v >= 70:
		return datatypes.CategoryHumanLeaning
	case v >= 40:
		return datatypes.CategoryMixed
	default:
		return datatypes.CategoryMachineLeaning
	}
}
