// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package scan

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Filter selects the files a folder scan visits.
type Filter struct {
	// Recursive descends into subdirectories.
	Recursive bool

	// Includes are glob patterns; when non-empty a file must match one.
	Includes []string

	// Excludes are glob patterns for files and directories to skip.
	Excludes []string
}

// DefaultFilter scans recursively and skips VCS and dependency directories.
func DefaultFilter() Filter {
	return Filter{
		Recursive: true,
		Excludes:  []string{".git", "node_modules", "vendor", "__pycache__", ".venv"},
	}
}

var binaryExts = map[string]bool{
	".exe": true, ".dll": true, ".so": true, ".dylib": true,
	".bin": true, ".obj": true, ".o": true, ".a": true,
	".zip": true, ".tar": true, ".gz": true, ".rar": true,
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".pdf": true, ".doc": true, ".docx": true,
	".wasm": true, ".pyc": true, ".class": true,
}

// CollectFiles walks root and returns the text files that pass filter, in
// lexical walk order. Unreadable entries are skipped.
func CollectFiles(root string, filter Filter) ([]string, error) {
	var files []string

	walkFn := func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != root && !filter.Recursive {
				return fs.SkipDir
			}
			if path != root && matchesPatterns(path, filter.Excludes) {
				return fs.SkipDir
			}
			return nil
		}
		if !Accepts(path, filter) {
			return nil
		}
		files = append(files, path)
		return nil
	}

	if err := filepath.WalkDir(root, walkFn); err != nil {
		return nil, err
	}
	return files, nil
}

// Excluded reports whether path matches one of filter's exclude patterns.
func Excluded(path string, filter Filter) bool {
	return matchesPatterns(path, filter.Excludes)
}

// Accepts reports whether a file at path would be scanned: not excluded,
// matching an include pattern when there are any, and not binary.
func Accepts(path string, filter Filter) bool {
	if matchesPatterns(path, filter.Excludes) {
		return false
	}
	if len(filter.Includes) > 0 && !matchesPatterns(path, filter.Includes) {
		return false
	}
	return !IsBinaryFile(path)
}

func matchesPatterns(path string, patterns []string) bool {
	for _, pattern := range patterns {
		if strings.Contains(pattern, "**") {
			if strings.HasSuffix(filepath.ToSlash(path), strings.TrimPrefix(pattern, "**/")) {
				return true
			}
			continue
		}
		if matched, _ := filepath.Match(pattern, filepath.Base(path)); matched {
			return true
		}
	}
	return false
}

// IsBinaryFile reports whether path looks binary, by extension or by a NUL
// byte in its first 512 bytes.
func IsBinaryFile(path string) bool {
	if binaryExts[strings.ToLower(filepath.Ext(path))] {
		return true
	}

	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, err := f.Read(buf)
	if err != nil || n == 0 {
		return false
	}
	return bytes.IndexByte(buf[:n], 0) >= 0
}
