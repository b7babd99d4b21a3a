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
	"strings"

	"github.com/AleutianAI/vata/services/vata/datatypes"
)

func wordSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

var pythonKeywords = wordSet(
	"False", "None", "True", "and", "as", "assert", "async", "await", "break",
	"class", "continue", "def", "del", "elif", "else", "except", "finally",
	"for", "from", "global", "if", "import", "in", "is", "lambda", "nonlocal",
	"not", "or", "pass", "raise", "return", "try", "while", "with", "yield",
	"match", "case",
)

var javascriptKeywords = wordSet(
	"await", "break", "case", "catch", "class", "const", "continue", "debugger",
	"default", "delete", "do", "else", "export", "extends", "false", "finally",
	"for", "function", "if", "import", "in", "instanceof", "let", "new", "null",
	"return", "super", "switch", "this", "throw", "true", "try", "typeof",
	"undefined", "var", "void", "while", "with", "yield", "async", "of", "static",
	"get", "set",
)

var shellKeywords = wordSet(
	"if", "then", "else", "elif", "fi", "case", "esac", "for", "select", "while",
	"until", "do", "done", "in", "function", "time", "return", "local", "export",
	"declare", "readonly", "echo", "exit", "shift", "set", "unset", "source",
)

// reservedNames are never offered as rename bindings even when declared,
// because renaming them reads as vandalism or shadows runtime conventions.
var reservedNames = wordSet(
	"self", "cls", "this", "arguments", "_", "__init__", "__name__", "__main__",
	"main", "module", "exports", "require", "print", "len", "range", "console",
	"window", "document", "process",
)

// isReserved reports whether name must keep its spelling. Dunder names are
// protocol hooks the runtime looks up by name.
func isReserved(name string) bool {
	if reservedNames[name] {
		return true
	}
	return len(name) > 4 && strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__")
}

// keywordsFor returns the keyword set of a language. Generic text uses the
// union so that no keyword of any supported language is treated as a name.
func keywordsFor(lang datatypes.Language) map[string]bool {
	switch lang {
	case datatypes.LanguagePython:
		return pythonKeywords
	case datatypes.LanguageJavaScript:
		return javascriptKeywords
	case datatypes.LanguageShell:
		return shellKeywords
	default:
		return genericKeywords
	}
}

var genericKeywords = func() map[string]bool {
	set := make(map[string]bool)
	for _, src := range []map[string]bool{pythonKeywords, javascriptKeywords, shellKeywords} {
		for k := range src {
			set[k] = true
		}
	}
	return set
}()

// IsKeyword reports whether word is a keyword of the language.
func IsKeyword(lang datatypes.Language, word string) bool {
	return keywordsFor(lang)[word]
}
