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
	"context"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/vata/pkg/ux"
	"github.com/AleutianAI/vata/services/vata/history"
	"github.com/AleutianAI/vata/services/vata/scan"
)

// scanOptions are the flags shared by scan and watch.
type scanOptions struct {
	workers   int
	include   []string
	exclude   []string
	noRecurse bool
}

func (o *scanOptions) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&o.workers, "workers", 0, "Parallel workers (0 = config, then 2 * NumCPU)")
	cmd.Flags().StringSliceVar(&o.include, "include", nil, "Only scan files matching these patterns (e.g. '*.py,*.sh')")
	cmd.Flags().StringSliceVar(&o.exclude, "exclude", nil, "Skip files and directories matching these patterns")
	cmd.Flags().BoolVar(&o.noRecurse, "no-recursive", false, "Do not descend into subdirectories")
}

func (o *scanOptions) filter(a *app) scan.Filter {
	f := scan.DefaultFilter()
	f.Recursive = !o.noRecurse
	f.Includes = o.include
	f.Excludes = append(f.Excludes, a.cfg.Scan.Exclude...)
	f.Excludes = append(f.Excludes, o.exclude...)
	return f
}

func (o *scanOptions) scanner(a *app) (*scan.Scanner, error) {
	workers := o.workers
	if workers == 0 {
		workers = a.cfg.Scan.Workers
	}
	return scan.NewScanner(a.engine.Guardian(),
		scan.WithWorkers(workers),
		scan.WithThresholds(a.cfg.Analysis.Context().Thresholds),
		scan.WithMaxFileSize(a.cfg.Scan.MaxFileSize),
		scan.WithCacheSize(a.cfg.Scan.CacheSize),
		scan.WithLogger(a.logger.Slog()),
	)
}

func newScanCmd(a *app) *cobra.Command {
	var (
		opts      scanOptions
		threshold int
		noHistory bool
	)
	cmd := &cobra.Command{
		Use:   "scan [dir]",
		Short: "Score every text file under a directory",
		Long: `Walk a directory, score every text file, and report the humanity
index: the mean soul score of the files scanned.

Examples:
  vata scan
  vata scan ./src --include '*.py'
  vata scan . --exclude 'testdata' --threshold 60 --json

Exit Codes:
  0 = Humanity index at or above the threshold and no file rejected
  1 = Index below the threshold, or a file was rejected
  2 = Error`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) > 0 {
				root = args[0]
			}
			if _, err := os.Stat(root); err != nil {
				return fmt.Errorf("path not found: %w", err)
			}
			if !cmd.Flags().Changed("threshold") {
				threshold = a.cfg.Scan.Threshold
			}

			scanner, err := opts.scanner(a)
			if err != nil {
				return err
			}
			start := time.Now()
			sum, err := scanner.ScanDir(cmd.Context(), root, opts.filter(a))
			if err != nil {
				return err
			}
			a.logger.Info("scan complete",
				"root", root,
				"files", sum.Scanned,
				"duration_ms", time.Since(start).Milliseconds())

			if !noHistory {
				a.record(cmd.Context(), history.FromSummary(root, sum))
			}

			below := sum.Scanned > 0 && sum.HumanityIndex < float64(threshold)
			if a.jsonOut {
				if err := writeJSON(cmd.OutOrStdout(), sum); err != nil {
					return err
				}
				return flagged(below || sum.Rejected > 0)
			}

			p := a.printer(cmd)
			printSummary(p, sum)
			if below {
				p.Warning(fmt.Sprintf("humanity index %.1f is below the threshold %d", sum.HumanityIndex, threshold))
				low := sum.Below(threshold)
				paths := make([]string, 0, len(low))
				for _, f := range low {
					paths = append(paths, fmt.Sprintf("%s (%d)", f.Path, f.Report.Overall))
				}
				p.Bullets(paths)
			}
			return flagged(below || sum.Rejected > 0)
		},
	}
	opts.register(cmd)
	cmd.Flags().IntVar(&threshold, "threshold", 0, "Minimum humanity index for exit 0 (default from config)")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "Do not record the scan in history")
	return cmd
}

func printSummary(p *ux.Printer, sum scan.Summary) {
	rows := make([][]string, 0, len(sum.Files))
	for _, f := range sum.Files {
		rows = append(rows, fileRow(p, f))
	}
	p.Table([]string{"FILE", "LANGUAGE", "SCORE", "CATEGORY"}, rows)
	p.Field("scanned", strconv.Itoa(sum.Scanned))
	p.Field("skipped", strconv.Itoa(sum.Skipped))
	p.Field("rejected", strconv.Itoa(sum.Rejected))
	p.Field("humanity index", fmt.Sprintf("%.1f", sum.HumanityIndex))
}

func fileRow(p *ux.Printer, f scan.FileResult) []string {
	if f.Skipped || f.Report == nil {
		return []string{f.Path, "-", "-", "skipped: " + f.Reason}
	}
	return []string{f.Path, string(f.Language), strconv.Itoa(f.Report.Overall), p.Category(f.Report.Category)}
}

// watchDebounce coalesces the burst of events one save produces.
const watchDebounce = 200 * time.Millisecond

func newWatchCmd(a *app) *cobra.Command {
	var opts scanOptions
	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Re-score files as they change",
		Long: `Watch a directory and print a new score each time a text file is
written. Runs until interrupted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) > 0 {
				root = args[0]
			}
			scanner, err := opts.scanner(a)
			if err != nil {
				return err
			}
			fw, err := fsnotify.NewWatcher()
			if err != nil {
				return fmt.Errorf("creating watcher: %w", err)
			}
			defer fw.Close()

			w := &watcher{scanner: scanner, filter: opts.filter(a), printer: a.printer(cmd), app: a}
			if err := w.add(fw, root); err != nil {
				return err
			}
			a.printer(cmd).Muted("watching " + root + " (Ctrl-C to stop)")
			return w.run(cmd.Context(), fw)
		},
	}
	opts.register(cmd)
	return cmd
}

// watcher re-scores files reported by fsnotify.
type watcher struct {
	scanner *scan.Scanner
	filter  scan.Filter
	printer *ux.Printer
	app     *app
}

// add watches root and, when recursive, every directory below it that the
// filter does not exclude.
func (w *watcher) add(fw *fsnotify.Watcher, root string) error {
	if !w.filter.Recursive {
		return fw.Add(root)
	}
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != root && w.excluded(path) {
			return filepath.SkipDir
		}
		if err := fw.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

func (w *watcher) excluded(path string) bool {
	return scan.Excluded(path, w.filter)
}

// run processes events until ctx ends. A nil return means ctx was
// cancelled.
func (w *watcher) run(ctx context.Context, fw *fsnotify.Watcher) error {
	pending := make(map[string]bool)
	timer := time.NewTimer(time.Hour)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
				if ev.Op&fsnotify.Create != 0 && w.filter.Recursive {
					_ = w.add(fw, ev.Name)
				}
				continue
			}
			if !scan.Accepts(ev.Name, w.filter) {
				continue
			}
			pending[ev.Name] = true
			timer.Reset(watchDebounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.app.logger.Warn("watch error", "error", err)

		case <-timer.C:
			paths := slices.Sorted(maps.Keys(pending))
			clear(pending)
			w.rescore(ctx, paths)
		}
	}
}

func (w *watcher) rescore(ctx context.Context, paths []string) {
	sum, err := w.scanner.ScanPaths(ctx, paths)
	if err != nil {
		return
	}
	for _, f := range sum.Files {
		row := fileRow(w.printer, f)
		w.printer.Status(statusIcon(f), fmt.Sprintf("%s  %s  %s", row[0], row[2], row[3]))
	}
}

func statusIcon(f scan.FileResult) ux.Icon {
	switch {
	case f.Skipped || f.Report == nil:
		return ux.IconArrow
	case f.Report.Rejected():
		return ux.IconError
	case f.Report.Overall < 40:
		return ux.IconWarning
	default:
		return ux.IconSuccess
	}
}
