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
	"path/filepath"
	"regexp"
	"strings"
)

// Language is the declared or detected language of a SourceText.
//
// The set is closed. Anything outside it is rejected by ParseLanguage with
// a ConfigurationError.
type Language string

const (
	// LanguageGeneric is used when no better language is known.
	// Only the line-based structural view is available for it.
	LanguageGeneric Language = "generic"

	// LanguagePython covers Python 3 source.
	LanguagePython Language = "python"

	// LanguageJavaScript covers JavaScript (ES2015+) source.
	LanguageJavaScript Language = "javascript"

	// LanguageShell covers POSIX shell and bash scripts.
	LanguageShell Language = "shell"
)

// Languages returns every supported language in a stable order.
func Languages() []Language {
	return []Language{LanguageGeneric, LanguagePython, LanguageJavaScript, LanguageShell}
}

// languageAliases maps accepted tags to canonical languages.
var languageAliases = map[string]Language{
	"":           LanguageGeneric,
	"generic":    LanguageGeneric,
	"text":       LanguageGeneric,
	"plain":      LanguageGeneric,
	"python":     LanguagePython,
	"py":         LanguagePython,
	"python3":    LanguagePython,
	"javascript": LanguageJavaScript,
	"js":         LanguageJavaScript,
	"node":       LanguageJavaScript,
	"shell":      LanguageShell,
	"sh":         LanguageShell,
	"bash":       LanguageShell,
	"zsh":        LanguageShell,
}

// ParseLanguage converts a user supplied tag to a Language.
//
// Description:
//
//	Tags are matched case-insensitively against canonical names and common
//	aliases ("py", "js", "sh", "bash"). An empty tag means generic.
//
// Inputs:
//
//	tag - The language tag, e.g. from a CLI flag or API request.
//
// Outputs:
//
//	Language - The canonical language.
//	error - A *ConfigurationError if the tag is not recognised.
//
// Thread Safety: Safe for concurrent use.
func ParseLanguage(tag string) (Language, error) {
	lang, ok := languageAliases[strings.ToLower(strings.TrimSpace(tag))]
	if !ok {
		return "", NewConfigurationError("language", tag, "unsupported language tag")
	}
	return lang, nil
}

// CommentPrefix returns the single-line comment marker for the language.
func (l Language) CommentPrefix() string {
	if l == LanguageJavaScript {
		return "//"
	}
	return "#"
}

// String implements fmt.Stringer.
func (l Language) String() string {
	return string(l)
}

var extensionLanguages = map[string]Language{
	".py":   LanguagePython,
	".pyw":  LanguagePython,
	".js":   LanguageJavaScript,
	".mjs":  LanguageJavaScript,
	".cjs":  LanguageJavaScript,
	".jsx":  LanguageJavaScript,
	".sh":   LanguageShell,
	".bash": LanguageShell,
	".zsh":  LanguageShell,
}

var (
	pythonHint     = regexp.MustCompile(`(?m)^\s*(def\s+\w+\s*\(|class\s+\w+\s*[:(]|from\s+\w+\s+import\s|import\s+\w+\s*$)`)
	javascriptHint = regexp.MustCompile(`(?m)(^\s*(const|let|var)\s+\w+\s*=|^\s*function\s+\w+\s*\(|=>\s*[{(]|require\(['"]|console\.log\()`)
	shellHint      = regexp.MustCompile(`(?m)^\s*(if\s+\[|fi\s*$|then\s*$|echo\s|export\s+\w+=|\w+\(\)\s*\{)`)
)

// DetectLanguage infers the language of a file from its path and content.
//
// Description:
//
//	The file extension wins when it is known. Otherwise a shebang line is
//	inspected, and finally a few content heuristics are tried. Ambiguous
//	content falls back to LanguageGeneric, which is always safe because the
//	generic pipeline uses only the line-based view.
//
// Inputs:
//
//	path - File path (may be empty for stdin or API input).
//	text - The file content.
//
// Outputs:
//
//	Language - The detected language, never empty.
//
// Thread Safety: Safe for concurrent use.
func DetectLanguage(path, text string) Language {
	if path != "" {
		if lang, ok := extensionLanguages[strings.ToLower(filepath.Ext(path))]; ok {
			return lang
		}
	}

	if strings.HasPrefix(text, "#!") {
		firstLine, _, _ := strings.Cut(text, "\n")
		switch {
		case strings.Contains(firstLine, "python"):
			return LanguagePython
		case strings.Contains(firstLine, "node"):
			return LanguageJavaScript
		case strings.Contains(firstLine, "sh"):
			return LanguageShell
		}
	}

	switch {
	case pythonHint.MatchString(text):
		return LanguagePython
	case javascriptHint.MatchString(text):
		return LanguageJavaScript
	case shellHint.MatchString(text):
		return LanguageShell
	default:
		return LanguageGeneric
	}
}
