// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"errors"
	"fmt"
	"io"
)

// Process exit codes.
const (
	ExitOK      = 0
	ExitFlagged = 1 // rejected input, violation, or below threshold
	ExitError   = 2
)

// errFlagged reports a finding without an error message; the command has
// already printed why.
var errFlagged = errors.New("flagged")

// flagged returns errFlagged when cond holds.
func flagged(cond bool) error {
	if cond {
		return errFlagged
	}
	return nil
}

// exitCode maps a command error to a process exit code, printing real
// errors to stderr.
func exitCode(err error, stderr io.Writer) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, errFlagged):
		return ExitFlagged
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitError
	}
}
