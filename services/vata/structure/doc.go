// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package structure provides a language-agnostic structural view of source
// code for the feature extractor and the chaos transformer.
//
// Two implementations sit behind the View interface:
//
//	┌──────────────────────────────┐
//	│           View               │
//	│  Declarations  Identifiers   │
//	│  Bindings      Comments      │
//	│  InsertionPoints  Bodies     │
//	└──────────────┬───────────────┘
//	       ┌───────┴────────┐
//	       ▼                ▼
//	┌─────────────┐  ┌─────────────┐
//	│ treeView    │  │ lineView    │
//	│ tree-sitter │  │ regex/lines │
//	│ py, js, sh  │  │ any text    │
//	└─────────────┘  └─────────────┘
//
// Build picks the tree-sitter view when a grammar exists for the declared
// language and falls back to the line view otherwise. The line view never
// reports syntax errors because it has no grammar to check against.
//
// Views are immutable snapshots. Offsets are byte offsets into the text the
// view was built from, lines are 1-indexed.
//
// # Thread Safety
//
// A View is safe for concurrent reads. Build creates a fresh tree-sitter
// parser per call, so concurrent builds do not share parser state.
package structure
