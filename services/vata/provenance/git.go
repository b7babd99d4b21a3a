// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package provenance

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// DefaultGitTimeout bounds each git invocation.
const DefaultGitTimeout = 30 * time.Second

// ErrNotRepository is returned when the path is not inside a git work tree.
var ErrNotRepository = errors.New("not a git repository")

// Commit is one entry of a branch's history.
type Commit struct {
	Hash string
	Date time.Time
}

// GitClient runs read-only git commands in one repository.
//
// Thread Safety: Safe for concurrent use.
type GitClient struct {
	repoPath string
	timeout  time.Duration
}

// NewGitClient creates a client for the repository at repoPath.
//
// Inputs:
//
//	repoPath - Repository directory. Relative paths are made absolute.
//	timeout - Limit per command. Zero uses DefaultGitTimeout.
//
// Outputs:
//
//	*GitClient - Ready to use.
//	error - ErrNotRepository when git does not recognise the path.
func NewGitClient(ctx context.Context, repoPath string, timeout time.Duration) (*GitClient, error) {
	abs, err := filepath.Abs(repoPath)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", repoPath, err)
	}
	if timeout <= 0 {
		timeout = DefaultGitTimeout
	}
	g := &GitClient{repoPath: abs, timeout: timeout}
	if _, err := g.run(ctx, "rev-parse", "--git-dir"); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %s", ErrNotRepository, abs)
	}
	return g, nil
}

// Path returns the absolute repository path.
func (g *GitClient) Path() string {
	return g.repoPath
}

// run executes git with explicit arguments and returns stdout unmodified.
func (g *GitClient) run(ctx context.Context, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.repoPath

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("git %s: timeout after %v", args[0], g.timeout)
		}
		return nil, fmt.Errorf("git %s: %w: %s", args[0], err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// Commits lists the commits reachable from branch, newest first. limit <= 0
// lists all of them.
func (g *GitClient) Commits(ctx context.Context, branch string, limit int) ([]Commit, error) {
	args := []string{"log", "--format=%H%x09%cI"}
	if limit > 0 {
		args = append(args, "-n", strconv.Itoa(limit))
	}
	args = append(args, branch, "--")

	out, err := g.run(ctx, args...)
	if err != nil {
		return nil, err
	}

	var commits []Commit
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		if line == "" {
			continue
		}
		hash, date, ok := strings.Cut(line, "\t")
		if !ok {
			return nil, fmt.Errorf("unexpected git log line %q", line)
		}
		when, err := time.Parse(time.RFC3339, date)
		if err != nil {
			return nil, fmt.Errorf("parsing date of %s: %w", hash, err)
		}
		commits = append(commits, Commit{Hash: hash, Date: when})
	}
	return commits, nil
}

// ChangedFiles lists the paths a commit added or modified, relative to the
// repository root. Deleted paths are left out.
func (g *GitClient) ChangedFiles(ctx context.Context, hash string) ([]string, error) {
	out, err := g.run(ctx, "diff-tree", "--no-commit-id", "--name-only", "-r", "--root",
		"--diff-filter=ACMRT", "-z", hash)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, name := range strings.Split(string(out), "\x00") {
		if name != "" {
			files = append(files, name)
		}
	}
	return files, nil
}

// Blob returns the content of path as of commit hash.
func (g *GitClient) Blob(ctx context.Context, hash, path string) ([]byte, error) {
	return g.run(ctx, "cat-file", "blob", hash+":"+path)
}
