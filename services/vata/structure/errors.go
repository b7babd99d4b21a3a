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
	"errors"
	"fmt"
)

// Sentinel errors for structural analysis.
var (
	// ErrUnsupportedLanguage indicates no grammar exists for the language.
	ErrUnsupportedLanguage = errors.New("unsupported language")

	// ErrParseFailed indicates the parser could not produce a tree at all.
	ErrParseFailed = errors.New("parse failed")

	// ErrSyntax indicates the text parsed but contains syntax errors.
	ErrSyntax = errors.New("syntax error")
)

// SyntaxError locates the first ERROR or MISSING node in a parse tree.
//
// Example:
//
//	if err := structure.Validate(ctx, src); err != nil {
//	    var syntaxErr *structure.SyntaxError
//	    if errors.As(err, &syntaxErr) {
//	        fmt.Printf("line %d: %s\n", syntaxErr.Line, syntaxErr.Message)
//	    }
//	}
type SyntaxError struct {
	// Language is the grammar that rejected the text.
	Language string

	// Line is 1-indexed.
	Line int

	// Column is 0-indexed.
	Column int

	// Message describes the problem, e.g. "missing ')'".
	Message string
}

// Error implements error.
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s %s at %d:%d: %s", e.Language, ErrSyntax, e.Line, e.Column, e.Message)
}

// Unwrap returns ErrSyntax.
func (e *SyntaxError) Unwrap() error {
	return ErrSyntax
}
