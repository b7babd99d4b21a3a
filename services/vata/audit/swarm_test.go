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
	"testing"

	"github.com/AleutianAI/vata/services/vata/datatypes"
)

func TestVerdictFor(t *testing.T) {
	tests := []struct {
		overall int
		want    Verdict
	}{
		{100, VerdictStronglyHuman},
		{80, VerdictStronglyHuman},
		{79, VerdictMixedHuman},
		{50, VerdictMixedHuman},
		{49, VerdictMixedSynthetic},
		{30, VerdictMixedSynthetic},
		{29, VerdictStronglySynthetic},
		{0, VerdictStronglySynthetic},
	}
	for _, tt := range tests {
		if got := VerdictFor(tt.overall); got != tt.want {
			t.Errorf("VerdictFor(%d) = %q, want %q", tt.overall, got, tt.want)
		}
	}
}

func TestSwarmVotes(t *testing.T) {
	votes := SwarmVotes(datatypes.AuthenticityReport{Overall: 46})
	if len(votes) != len(Agents) {
		t.Fatalf("got %d votes, want %d", len(votes), len(Agents))
	}
	for i, v := range votes {
		if v.Agent != Agents[i] {
			t.Errorf("vote %d agent = %q, want %q", i, v.Agent, Agents[i])
		}
		if v.Verdict != VerdictMixedSynthetic {
			t.Errorf("vote %d verdict = %q", i, v.Verdict)
		}
	}

	want := "ethics: mixed leaning synthetic\nstyle: mixed leaning synthetic\n" +
		"risk: mixed leaning synthetic\nmeta: mixed leaning synthetic"
	if got := FormatVotes(votes); got != want {
		t.Errorf("FormatVotes() = %q, want %q", got, want)
	}
}
