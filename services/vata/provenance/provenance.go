// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package provenance scores the code files touched by each commit of a git
// branch and reports a repository humanity index.
//
// Every added or modified python, javascript or shell file is read as of
// the commit that changed it and scored through a scan.Scanner, so an
// unchanged blob seen again is served from the scanner's cache.
package provenance

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/vata/services/vata/datatypes"
	"github.com/AleutianAI/vata/services/vata/scan"
)

// DefaultBranch is walked when no branch is given.
const DefaultBranch = "main"

// ErrNoCodeFiles is returned when the walked history touches no code file.
var ErrNoCodeFiles = errors.New("no code files found in history")

// Analyzer scores one text. *scan.Scanner implements it.
type Analyzer interface {
	Analyze(src datatypes.SourceText) (datatypes.AuthenticityReport, string, bool)
}

// Entry is one code file as of one commit.
type Entry struct {
	Commit string    `json:"commit"`
	Date   time.Time `json:"date"`
	scan.FileResult
}

// Report is the result of walking a branch.
type Report struct {
	Repo          string  `json:"repo"`
	Branch        string  `json:"branch"`
	Commits       int     `json:"commits"`
	Entries       []Entry `json:"entries"`
	Scanned       int     `json:"files_scanned"`
	Skipped       int     `json:"files_skipped"`
	Rejected      int     `json:"files_rejected"`
	HumanityIndex float64 `json:"humanity_index"`
}

// Option configures a Walker.
type Option func(*Walker)

// WithWorkers bounds the number of blobs read and scored at once.
func WithWorkers(n int) Option {
	return func(w *Walker) {
		w.workers = n
	}
}

// WithMaxCommits stops after the n newest commits. Zero walks everything.
func WithMaxCommits(n int) Option {
	return func(w *Walker) {
		w.maxCommits = n
	}
}

// WithMaxFileSize skips blobs larger than n bytes.
func WithMaxFileSize(n int64) Option {
	return func(w *Walker) {
		if n > 0 {
			w.maxSize = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Walker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// Walker scores a repository's history.
//
// Thread Safety: Safe for concurrent use if the Analyzer is.
type Walker struct {
	git        *GitClient
	analyzer   Analyzer
	workers    int
	maxCommits int
	maxSize    int64
	logger     *slog.Logger
}

// NewWalker creates a Walker over the repository client git.
func NewWalker(git *GitClient, analyzer Analyzer, opts ...Option) *Walker {
	w := &Walker{
		git:      git,
		analyzer: analyzer,
		maxSize:  scan.DefaultMaxFileSize,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.workers < 1 {
		w.workers = runtime.GOMAXPROCS(0)
	}
	return w
}

type task struct {
	commit Commit
	path   string
}

// Walk scores every code file each commit of branch added or modified.
//
// Description:
//
//	Commits are visited newest first, files in the order git lists them.
//	Files whose extension is not a supported language are ignored.
//	Binary or oversized blobs are kept as skipped entries.
//
// Inputs:
//
//	ctx - Cancellation for git and scoring.
//	branch - Branch or revision. Empty uses DefaultBranch.
//
// Outputs:
//
//	Report - Entries and the humanity index over scored entries.
//	error - ConfigurationError for a branch that looks like an option,
//	    ErrNoCodeFiles, a git error, or ctx.Err().
func (w *Walker) Walk(ctx context.Context, branch string) (Report, error) {
	if branch == "" {
		branch = DefaultBranch
	}
	if strings.HasPrefix(branch, "-") {
		return Report{}, datatypes.NewConfigurationError("branch", branch, "must not start with '-'")
	}

	commits, err := w.git.Commits(ctx, branch, w.maxCommits)
	if err != nil {
		return Report{}, fmt.Errorf("listing commits of %s: %w", branch, err)
	}

	var tasks []task
	for _, c := range commits {
		files, err := w.git.ChangedFiles(ctx, c.Hash)
		if err != nil {
			return Report{}, fmt.Errorf("listing files of %s: %w", shortHash(c.Hash), err)
		}
		for _, f := range files {
			if datatypes.DetectLanguage(f, "") == datatypes.LanguageGeneric {
				continue
			}
			tasks = append(tasks, task{commit: c, path: f})
		}
	}
	w.logger.Debug("provenance collected files",
		slog.String("branch", branch),
		slog.Int("commits", len(commits)),
		slog.Int("files", len(tasks)))
	if len(tasks) == 0 {
		return Report{}, fmt.Errorf("%w on %s", ErrNoCodeFiles, branch)
	}

	entries := make([]Entry, len(tasks))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(w.workers)
	for i, t := range tasks {
		g.Go(func() error {
			entry, err := w.score(gCtx, t)
			if err != nil {
				return err
			}
			entries[i] = entry
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	results := make([]scan.FileResult, len(entries))
	for i, e := range entries {
		results[i] = e.FileResult
	}
	sum := scan.Summarize(results)
	return Report{
		Repo:          w.git.Path(),
		Branch:        branch,
		Commits:       len(commits),
		Entries:       entries,
		Scanned:       sum.Scanned,
		Skipped:       sum.Skipped,
		Rejected:      sum.Rejected,
		HumanityIndex: sum.HumanityIndex,
	}, nil
}

func (w *Walker) score(ctx context.Context, t task) (Entry, error) {
	entry := Entry{
		Commit:     shortHash(t.commit.Hash),
		Date:       t.commit.Date,
		FileResult: scan.FileResult{Path: t.path},
	}
	blob, err := w.git.Blob(ctx, t.commit.Hash, t.path)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Entry{}, ctxErr
		}
		entry.Skipped, entry.Reason = true, fmt.Sprintf("cannot read blob: %v", err)
		return entry, nil
	}
	switch {
	case int64(len(blob)) > w.maxSize:
		entry.Skipped, entry.Reason = true, fmt.Sprintf("larger than %d bytes", w.maxSize)
		return entry, nil
	case bytes.IndexByte(blob, 0) >= 0:
		entry.Skipped, entry.Reason = true, "binary content"
		return entry, nil
	}

	src := datatypes.DetectSourceText(t.path, string(blob))
	report, key, cached := w.analyzer.Analyze(src)
	entry.Language = src.Language()
	entry.SHA256 = key
	entry.Report = &report
	entry.Cached = cached
	return entry, nil
}

func shortHash(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}

