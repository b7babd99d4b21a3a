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
	"fmt"
	"strings"
)

// Sentinel errors for the analyzer error taxonomy.
//
// Typed errors below wrap these so callers can use errors.Is without
// inspecting messages.
var (
	// ErrRejectedInput indicates the Guardian found disallowed content and
	// the requested transformation was refused.
	ErrRejectedInput = errors.New("input rejected by guardian")

	// ErrTransformFailed indicates a chaos iteration could not preserve
	// syntactic validity. It is recovered locally by the convergence loop.
	ErrTransformFailed = errors.New("transform failed")

	// ErrConfiguration indicates an unknown profile or language, or an
	// out-of-range setting.
	ErrConfiguration = errors.New("invalid configuration")
)

// RejectedInputError carries the violations that caused a rejection.
//
// Example:
//
//	_, err := converge.Humanize(ctx, src, profile, 70, 5)
//	var rejected *datatypes.RejectedInputError
//	if errors.As(err, &rejected) {
//	    for _, v := range rejected.Violations {
//	        fmt.Println(v)
//	    }
//	}
type RejectedInputError struct {
	Violations []Violation
}

// NewRejectedInputError creates a RejectedInputError.
func NewRejectedInputError(violations []Violation) *RejectedInputError {
	return &RejectedInputError{Violations: violations}
}

// Error lists the violation classes.
func (e *RejectedInputError) Error() string {
	classes := make([]string, 0, len(e.Violations))
	seen := make(map[ViolationClass]bool)
	for _, v := range e.Violations {
		if !seen[v.Class] {
			seen[v.Class] = true
			classes = append(classes, string(v.Class))
		}
	}
	return fmt.Sprintf("%s: %d violation(s) [%s]", ErrRejectedInput, len(e.Violations), strings.Join(classes, ", "))
}

// Unwrap returns ErrRejectedInput.
func (e *RejectedInputError) Unwrap() error {
	return ErrRejectedInput
}

// TransformFailure describes a single failed chaos iteration.
type TransformFailure struct {
	// Iteration is the 1-indexed loop iteration, 0 outside the loop.
	Iteration int

	// Reason describes what broke.
	Reason string

	// Cause is the underlying error, if any.
	Cause error

	// Violations lists what the Guardian found in a discarded candidate.
	// The input itself was clean, so this is not a rejection.
	Violations []Violation
}

// NewTransformFailure creates a TransformFailure.
func NewTransformFailure(reason string, cause error) *TransformFailure {
	return &TransformFailure{Reason: reason, Cause: cause}
}

// Error implements error.
func (e *TransformFailure) Error() string {
	msg := ErrTransformFailed.Error()
	if e.Iteration > 0 {
		msg = fmt.Sprintf("%s at iteration %d", msg, e.Iteration)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	if len(e.Violations) > 0 {
		msg += fmt.Sprintf(" (%d violation(s))", len(e.Violations))
	}
	return msg
}

// Is matches ErrTransformFailed.
func (e *TransformFailure) Is(target error) bool {
	return target == ErrTransformFailed
}

// Unwrap returns the underlying cause.
func (e *TransformFailure) Unwrap() error {
	return e.Cause
}

// ConfigurationError describes an invalid setting.
type ConfigurationError struct {
	// Field names the setting, e.g. "profile" or "thresholds.mixed".
	Field string

	// Value is the rejected value, rendered as text.
	Value string

	// Reason explains the constraint that was violated.
	Reason string
}

// NewConfigurationError creates a ConfigurationError.
func NewConfigurationError(field, value, reason string) *ConfigurationError {
	return &ConfigurationError{Field: field, Value: value, Reason: reason}
}

// Error implements error.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s %q: %s", ErrConfiguration, e.Field, e.Value, e.Reason)
}

// Unwrap returns ErrConfiguration.
func (e *ConfigurationError) Unwrap() error {
	return ErrConfiguration
}

// IsRejected reports whether err is or wraps a RejectedInputError. A
// TransformFailure is never a rejection, whatever its cause.
func IsRejected(err error) bool {
	var failure *TransformFailure
	if errors.As(err, &failure) {
		return false
	}
	return errors.Is(err, ErrRejectedInput)
}

// IsConfiguration reports whether err is or wraps a ConfigurationError.
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}
