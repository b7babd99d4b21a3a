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
	"fmt"
	"strings"

	"github.com/AleutianAI/vata/services/vata/datatypes"
)

// Verdict is a coarse reading of an overall score.
type Verdict string

const (
	VerdictStronglyHuman     Verdict = "strongly human-leaning"
	VerdictMixedHuman        Verdict = "mixed leaning human"
	VerdictMixedSynthetic    Verdict = "mixed leaning synthetic"
	VerdictStronglySynthetic Verdict = "strongly synthetic-leaning"
)

// Agents are the swarm members, in reporting order.
var Agents = []string{"ethics", "style", "risk", "meta"}

// Vote is one agent's verdict.
type Vote struct {
	Agent   string  `json:"agent"`
	Verdict Verdict `json:"verdict"`
}

// VerdictFor maps an overall score to its verdict band.
func VerdictFor(overall int) Verdict {
	switch {
	case overall >= 80:
		return VerdictStronglyHuman
	case overall >= 50:
		return VerdictMixedHuman
	case overall >= 30:
		return VerdictMixedSynthetic
	default:
		return VerdictStronglySynthetic
	}
}

// SwarmVotes returns one vote per agent for report.
//
// Every agent currently reads the same overall score, so the votes agree.
func SwarmVotes(report datatypes.AuthenticityReport) []Vote {
	verdict := VerdictFor(report.Overall)
	votes := make([]Vote, 0, len(Agents))
	for _, agent := range Agents {
		votes = append(votes, Vote{Agent: agent, Verdict: verdict})
	}
	return votes
}

// FormatVotes renders votes one per line as "agent: verdict".
func FormatVotes(votes []Vote) string {
	var b strings.Builder
	for i, v := range votes {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s: %s", v.Agent, v.Verdict)
	}
	return b.String()
}
