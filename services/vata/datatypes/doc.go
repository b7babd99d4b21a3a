// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes holds the shared data model of the VATA analyzer.
//
// Every stage of the pipeline reads and produces these types:
//
//	┌────────────┐   ┌──────────┐   ┌───────────┐   ┌─────────┐   ┌────────────────────┐
//	│ SourceText │──▶│ Guardian │──▶│ SignalSet │──▶│ Scorer  │──▶│ AuthenticityReport │
//	└────────────┘   └──────────┘   └───────────┘   └─────────┘   └────────────────────┘
//	       │              │ []Violation                                   ▲
//	       ▼              ▼                                               │
//	┌────────────────────────────────────────────┐                        │
//	│ Convergence loop (chaos transformer)       │────────────────────────┘
//	│   produces TransformResult                 │
//	└────────────────────────────────────────────┘
//
// All values are created once per request and never mutated afterwards.
// Slices and maps handed out by accessors are copies, so callers may keep
// them without affecting the originals.
//
// # Errors
//
// The error taxonomy lives in errors.go:
//
//   - RejectedInputError: Guardian violations prior to transformation
//   - TransformFailure: a single chaos iteration broke syntax validity
//   - ConfigurationError: unknown profile or language, out-of-range settings
//
// Empty input is not an error. It produces a zero report whose only reason
// is ReasonEmptyInput.
package datatypes
