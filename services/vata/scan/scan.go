// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package scan scores many files at once.
//
// Files are read and scored by a bounded errgroup. Results keep the input
// order. Reports are memoized by content hash in an LRU cache, and
// concurrent requests for the same content are collapsed with singleflight,
// so identical files are scored once.
package scan

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"math"
	"os"
	"runtime"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/AleutianAI/vata/services/vata/datatypes"
	"github.com/AleutianAI/vata/services/vata/scoring"
)

const (
	// DefaultCacheSize is the number of reports kept in memory.
	DefaultCacheSize = 1024

	// DefaultMaxFileSize skips files larger than 1 MiB.
	DefaultMaxFileSize int64 = 1 << 20
)

// Checker is the Guardian contract needed for scoring.
type Checker interface {
	Check(text string) []datatypes.Violation
}

// FileResult is the outcome for one path.
type FileResult struct {
	Path     string                        `json:"path"`
	Language datatypes.Language            `json:"language,omitempty"`
	SHA256   string                        `json:"sha256,omitempty"`
	Report   *datatypes.AuthenticityReport `json:"report,omitempty"`
	Cached   bool                          `json:"cached,omitempty"`
	Skipped  bool                          `json:"skipped,omitempty"`
	Reason   string                        `json:"reason,omitempty"`
}

// Summary aggregates a scan.
type Summary struct {
	Files         []FileResult `json:"files"`
	Scanned       int          `json:"files_scanned"`
	Skipped       int          `json:"files_skipped"`
	Rejected      int          `json:"files_rejected"`
	HumanityIndex float64      `json:"humanity_index"`
}

// Below returns the scanned files whose overall score is under threshold.
func (s Summary) Below(threshold int) []FileResult {
	var out []FileResult
	for _, f := range s.Files {
		if f.Report != nil && f.Report.Overall < threshold {
			out = append(out, f)
		}
	}
	return out
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithWorkers bounds concurrent file scoring. Values below 1 use GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(s *Scanner) {
		s.workers = n
	}
}

// WithThresholds sets the category cut-offs.
func WithThresholds(t scoring.Thresholds) Option {
	return func(s *Scanner) {
		s.thresholds = t
	}
}

// WithMaxFileSize skips files larger than n bytes.
func WithMaxFileSize(n int64) Option {
	return func(s *Scanner) {
		s.maxSize = n
	}
}

// WithCacheSize sets the report cache capacity.
func WithCacheSize(n int) Option {
	return func(s *Scanner) {
		s.cacheSize = n
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scanner) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Scanner scores files in parallel with a shared report cache.
//
// Thread Safety: Safe for concurrent use.
type Scanner struct {
	guard      Checker
	thresholds scoring.Thresholds
	workers    int
	maxSize    int64
	cacheSize  int
	cache      *lru.Cache[string, datatypes.AuthenticityReport]
	group      singleflight.Group
	logger     *slog.Logger
}

// NewScanner creates a Scanner.
//
// Outputs:
//
//	*Scanner - Ready to use.
//	error - ConfigurationError for invalid thresholds or cache size.
func NewScanner(guard Checker, opts ...Option) (*Scanner, error) {
	s := &Scanner{
		guard:      guard,
		thresholds: scoring.DefaultThresholds(),
		maxSize:    DefaultMaxFileSize,
		cacheSize:  DefaultCacheSize,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.workers < 1 {
		s.workers = runtime.GOMAXPROCS(0)
	}
	if err := s.thresholds.Validate(); err != nil {
		return nil, err
	}
	if s.cacheSize < 1 {
		return nil, datatypes.NewConfigurationError("cache_size", fmt.Sprint(s.cacheSize), "must be >= 1")
	}
	cache, err := lru.New[string, datatypes.AuthenticityReport](s.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating report cache: %w", err)
	}
	s.cache = cache
	return s, nil
}

// ScanDir collects the files under root and scans them.
func (s *Scanner) ScanDir(ctx context.Context, root string, filter Filter) (Summary, error) {
	files, err := CollectFiles(root, filter)
	if err != nil {
		return Summary{}, fmt.Errorf("collecting files under %s: %w", root, err)
	}
	s.logger.Debug("scan collected files", slog.String("root", root), slog.Int("files", len(files)))
	return s.ScanPaths(ctx, files)
}

// ScanPaths scores each path.
//
// Description:
//
//	Per-file problems (unreadable, too large) are reported as skipped
//	results, not errors. Results are in the order of paths.
//
// Outputs:
//
//	Summary - Per-file results and the humanity index.
//	error - ctx.Err() if the scan was cancelled.
func (s *Scanner) ScanPaths(ctx context.Context, paths []string) (Summary, error) {
	results := make([]FileResult, len(paths))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, path := range paths {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			results[i] = s.scanFile(path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}
	return Summarize(results), nil
}

func (s *Scanner) scanFile(path string) FileResult {
	res := FileResult{Path: path}

	info, err := os.Stat(path)
	if err != nil {
		res.Skipped, res.Reason = true, fmt.Sprintf("cannot stat: %v", err)
		return res
	}
	if info.Size() > s.maxSize {
		res.Skipped, res.Reason = true, fmt.Sprintf("larger than %d bytes", s.maxSize)
		return res
	}
	content, err := os.ReadFile(path)
	if err != nil {
		res.Skipped, res.Reason = true, fmt.Sprintf("cannot read: %v", err)
		return res
	}

	src := datatypes.DetectSourceText(path, string(content))
	report, key, cached := s.Analyze(src)
	res.Language = src.Language()
	res.SHA256 = key
	res.Report = &report
	res.Cached = cached
	return res
}

// Analyze scores src, consulting the cache first.
//
// Outputs:
//
//	datatypes.AuthenticityReport - The report.
//	string - The cache key: hex sha256 over language and text.
//	bool - True when the report came from the cache or a concurrent call.
func (s *Scanner) Analyze(src datatypes.SourceText) (datatypes.AuthenticityReport, string, bool) {
	key := contentKey(src)
	if report, ok := s.cache.Get(key); ok {
		return report, key, true
	}

	v, _, shared := s.group.Do(key, func() (any, error) {
		if report, ok := s.cache.Get(key); ok {
			return report, nil
		}
		report, err := scoring.Analyze(src, s.guard, s.thresholds)
		if err != nil {
			return nil, err
		}
		s.cache.Add(key, report)
		return report, nil
	})
	// Thresholds are validated in NewScanner.
	report, _ := v.(datatypes.AuthenticityReport)
	return report, key, shared
}

// Summarize counts results and computes the humanity index: the mean
// overall score of scanned files, rounded to one decimal.
func Summarize(results []FileResult) Summary {
	sum := Summary{Files: results}
	total := 0
	for _, r := range results {
		if r.Report == nil {
			sum.Skipped++
			continue
		}
		sum.Scanned++
		total += r.Report.Overall
		if r.Report.Rejected() {
			sum.Rejected++
		}
	}
	if sum.Scanned > 0 {
		sum.HumanityIndex = math.Round(float64(total)/float64(sum.Scanned)*10) / 10
	}
	return sum
}

func contentKey(src datatypes.SourceText) string {
	h := sha256.New()
	h.Write([]byte(src.Language()))
	h.Write([]byte{0})
	h.Write(src.Bytes())
	return hex.EncodeToString(h.Sum(nil))
}
