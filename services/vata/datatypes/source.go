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

import "strings"

// SourceText is an immutable block of source code plus its language.
//
// Constructed once per request with NewSourceText and never mutated; all
// pipeline stages hold it by value.
type SourceText struct {
	text     string
	language Language
}

// NewSourceText creates a SourceText with an explicit language.
//
// An empty language is treated as LanguageGeneric. Callers that accept
// free-form tags should run them through ParseLanguage first.
func NewSourceText(text string, language Language) SourceText {
	if language == "" {
		language = LanguageGeneric
	}
	return SourceText{text: text, language: language}
}

// DetectSourceText creates a SourceText whose language is inferred from
// the path and content.
func DetectSourceText(path, text string) SourceText {
	return NewSourceText(text, DetectLanguage(path, text))
}

// Text returns the raw text.
func (s SourceText) Text() string { return s.text }

// Language returns the declared or detected language.
func (s SourceText) Language() Language { return s.language }

// Bytes returns a fresh copy of the text as bytes.
func (s SourceText) Bytes() []byte { return []byte(s.text) }

// Lines splits the text on newlines. The returned slice is a copy.
//
// A trailing newline does not produce a trailing empty line.
func (s SourceText) Lines() []string {
	if s.text == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s.text, "\n"), "\n")
}

// IsBlank reports whether the text is empty or whitespace only.
func (s SourceText) IsBlank() bool {
	return strings.TrimSpace(s.text) == ""
}

// WithText returns a new SourceText with the same language and new text.
func (s SourceText) WithText(text string) SourceText {
	return SourceText{text: text, language: s.language}
}
