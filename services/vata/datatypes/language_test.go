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

import (
	"errors"
	"testing"
)

func TestParseLanguage(t *testing.T) {
	tests := []struct {
		tag     string
		want    Language
		wantErr bool
	}{
		{"", LanguageGeneric, false},
		{"python", LanguagePython, false},
		{"PY", LanguagePython, false},
		{" js ", LanguageJavaScript, false},
		{"bash", LanguageShell, false},
		{"sh", LanguageShell, false},
		{"cobol", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			got, err := ParseLanguage(tt.tag)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseLanguage(%q) expected error", tt.tag)
				}
				if !errors.Is(err, ErrConfiguration) {
					t.Errorf("error should wrap ErrConfiguration, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseLanguage(%q) error = %v", tt.tag, err)
			}
			if got != tt.want {
				t.Errorf("ParseLanguage(%q) = %q, want %q", tt.tag, got, tt.want)
			}
		})
	}
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		name string
		path string
		text string
		want Language
	}{
		{"python extension", "main.py", "", LanguagePython},
		{"javascript extension", "app.mjs", "", LanguageJavaScript},
		{"shell extension", "deploy.sh", "", LanguageShell},
		{"python shebang", "", "#!/usr/bin/env python3\nprint(1)\n", LanguagePython},
		{"node shebang", "", "#!/usr/bin/env node\n", LanguageJavaScript},
		{"bash shebang", "", "#!/bin/bash\necho hi\n", LanguageShell},
		{"python content", "", "def handler(event):\n    return event\n", LanguagePython},
		{"javascript content", "", "const total = items.length;\n", LanguageJavaScript},
		{"shell content", "", "if [ -f x ]; then\n  echo yes\nfi\n", LanguageShell},
		{"plain prose", "notes.txt", "just some words here\n", LanguageGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectLanguage(tt.path, tt.text); got != tt.want {
				t.Errorf("DetectLanguage(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestLanguage_CommentPrefix(t *testing.T) {
	if got := LanguageJavaScript.CommentPrefix(); got != "//" {
		t.Errorf("javascript prefix = %q, want //", got)
	}
	for _, lang := range []Language{LanguageGeneric, LanguagePython, LanguageShell} {
		if got := lang.CommentPrefix(); got != "#" {
			t.Errorf("%s prefix = %q, want #", lang, got)
		}
	}
}

func TestSourceText(t *testing.T) {
	src := NewSourceText("a\nb\n", "")
	if src.Language() != LanguageGeneric {
		t.Errorf("empty language should default to generic, got %q", src.Language())
	}
	lines := src.Lines()
	if len(lines) != 2 || lines[0] != "a" || lines[1] != "b" {
		t.Errorf("Lines() = %q", lines)
	}
	lines[0] = "mutated"
	if src.Lines()[0] != "a" {
		t.Error("Lines() must return a copy")
	}
	if !NewSourceText(" \n\t", LanguagePython).IsBlank() {
		t.Error("whitespace text should be blank")
	}
	next := src.WithText("c")
	if next.Text() != "c" || src.Text() != "a\nb\n" {
		t.Error("WithText must not modify the receiver")
	}
}
