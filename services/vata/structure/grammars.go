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
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/bash"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/AleutianAI/vata/services/vata/datatypes"
)

// nameClass classifies a name occurrence for renaming.
type nameClass int

const (
	// nameLocal refers to a binding in the text and may be renamed.
	nameLocal nameClass = iota

	// nameForeign lives in another namespace (attribute or property
	// names). It is left alone and does not affect bindings.
	nameForeign

	// nameBlocked ties the name to something outside the text (import,
	// keyword argument, shorthand key). A binding with the same name must
	// not be renamed.
	nameBlocked
)

// grammarSpec describes how to read one tree-sitter grammar.
type grammarSpec struct {
	name     string
	language func() *sitter.Language

	// nameTypes are node types holding names.
	nameTypes map[string]bool

	// containers hold statement lists.
	containers map[string]bool

	functions map[string]bool
	classes   map[string]bool

	// bodyTypes are the body node types of functions.
	bodyTypes map[string]bool

	// inlineBody inserts no-op statements right after the opening brace.
	inlineBody bool

	// blockingWords marks plain word nodes as blocked names (shell
	// commands can refer to variables by bare name, e.g. `read x`).
	blockingWords bool

	classify func(node, parent *sitter.Node) nameClass

	// bindings reports names the node declares. add offers a name for
	// renaming; block pins a name reachable from outside its scope.
	bindings func(node *sitter.Node, content []byte, add, block func(string))
}

var grammars = map[datatypes.Language]*grammarSpec{
	datatypes.LanguagePython: {
		name:       "python",
		language:   python.GetLanguage,
		nameTypes:  wordSet("identifier"),
		containers: wordSet("module", "block"),
		functions:  wordSet("function_definition"),
		classes:    wordSet("class_definition"),
		bodyTypes:  wordSet("block"),
		classify:   classifyPythonName,
		bindings:   pythonBindings,
	},
	datatypes.LanguageJavaScript: {
		name:     "javascript",
		language: javascript.GetLanguage,
		nameTypes: wordSet("identifier", "property_identifier",
			"shorthand_property_identifier", "shorthand_property_identifier_pattern"),
		containers: wordSet("program", "statement_block", "class_body"),
		functions: wordSet("function_declaration", "function", "function_expression",
			"generator_function_declaration", "arrow_function", "method_definition"),
		classes:    wordSet("class_declaration", "class"),
		bodyTypes:  wordSet("statement_block"),
		inlineBody: true,
		classify:   classifyJavaScriptName,
		bindings:   javascriptBindings,
	},
	datatypes.LanguageShell: {
		name:          "bash",
		language:      bash.GetLanguage,
		nameTypes:     wordSet("variable_name"),
		containers:    wordSet("program", "compound_statement", "do_group"),
		functions:     wordSet("function_definition"),
		classes:       wordSet(),
		bodyTypes:     wordSet("compound_statement"),
		inlineBody:    true,
		blockingWords: true,
		classify:      func(_, _ *sitter.Node) nameClass { return nameLocal },
		bindings:      shellBindings,
	},
}

// ----- python -----

func classifyPythonName(node, parent *sitter.Node) nameClass {
	if parent == nil {
		return nameLocal
	}
	switch parent.Type() {
	case "attribute":
		if !isFirstNamedChild(parent, node) {
			return nameForeign
		}
	case "keyword_argument":
		if isFirstNamedChild(parent, node) {
			return nameBlocked
		}
	case "dotted_name", "aliased_import", "import_statement", "import_from_statement", "relative_import":
		return nameBlocked
	}
	return nameLocal
}

func pythonBindings(node *sitter.Node, content []byte, add, block func(string)) {
	switch node.Type() {
	case "function_definition", "class_definition":
		if name := firstChildOfType(node, "identifier"); name != nil {
			// Methods and nested classes are looked up as attributes.
			if inPythonClassBody(node) {
				block(nodeText(name, content))
			} else {
				add(nodeText(name, content))
			}
		}
	case "parameters", "lambda_parameters":
		for i := 0; i < int(node.NamedChildCount()); i++ {
			param := node.NamedChild(i)
			switch param.Type() {
			case "identifier":
				add(nodeText(param, content))
			case "default_parameter", "typed_parameter", "typed_default_parameter":
				if name := firstChildOfType(param, "identifier"); name != nil {
					add(nodeText(name, content))
				}
			}
		}
	case "assignment", "augmented_assignment":
		if left := node.NamedChild(0); left != nil && left.Type() == "identifier" {
			if inPythonClassBody(node) {
				block(nodeText(left, content))
			} else {
				add(nodeText(left, content))
			}
		}
	case "for_statement":
		if left := node.NamedChild(0); left != nil && left.Type() == "identifier" {
			add(nodeText(left, content))
		}
	}
}

// inPythonClassBody reports whether the statement holding node sits directly
// in a class body, where names become class attributes.
func inPythonClassBody(node *sitter.Node) bool {
	p := node.Parent()
	for p != nil && (p.Type() == "decorated_definition" || p.Type() == "expression_statement") {
		p = p.Parent()
	}
	if p == nil || p.Type() != "block" {
		return false
	}
	owner := p.Parent()
	return owner != nil && owner.Type() == "class_definition"
}

// ----- javascript -----

func classifyJavaScriptName(node, parent *sitter.Node) nameClass {
	switch node.Type() {
	case "property_identifier":
		return nameForeign
	case "shorthand_property_identifier", "shorthand_property_identifier_pattern":
		return nameBlocked
	}
	if parent == nil {
		return nameLocal
	}
	switch parent.Type() {
	case "import_specifier", "import_clause", "namespace_import", "export_specifier":
		return nameBlocked
	}
	return nameLocal
}

func javascriptBindings(node *sitter.Node, content []byte, add, _ func(string)) {
	switch node.Type() {
	case "function_declaration", "generator_function_declaration", "class_declaration":
		if name := firstChildOfType(node, "identifier"); name != nil {
			add(nodeText(name, content))
		}
	case "formal_parameters":
		for i := 0; i < int(node.NamedChildCount()); i++ {
			param := node.NamedChild(i)
			switch param.Type() {
			case "identifier":
				add(nodeText(param, content))
			case "assignment_pattern":
				if left := param.NamedChild(0); left != nil && left.Type() == "identifier" {
					add(nodeText(left, content))
				}
			}
		}
	case "variable_declarator", "arrow_function":
		if first := node.NamedChild(0); first != nil && first.Type() == "identifier" {
			add(nodeText(first, content))
		}
	}
}

// ----- shell -----

func shellBindings(node *sitter.Node, content []byte, add, _ func(string)) {
	switch node.Type() {
	case "variable_assignment", "for_statement":
		if name := firstChildOfType(node, "variable_name"); name != nil {
			add(nodeText(name, content))
		}
	}
}

// ----- node helpers -----

func nodeText(node *sitter.Node, content []byte) string {
	start, end := int(node.StartByte()), int(node.EndByte())
	if end > len(content) {
		end = len(content)
	}
	if start >= end {
		return ""
	}
	return string(content[start:end])
}

func firstChildOfType(node *sitter.Node, nodeType string) *sitter.Node {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child != nil && child.Type() == nodeType {
			return child
		}
	}
	return nil
}

func isFirstNamedChild(parent, node *sitter.Node) bool {
	first := parent.NamedChild(0)
	return first != nil && first.StartByte() == node.StartByte() && first.EndByte() == node.EndByte()
}
