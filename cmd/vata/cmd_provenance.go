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
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/vata/services/vata/history"
	"github.com/AleutianAI/vata/services/vata/provenance"
)

func newProvenanceCmd(a *app) *cobra.Command {
	var (
		branch     string
		maxCommits int
		workers    int
		threshold  int
		noHistory  bool
	)
	cmd := &cobra.Command{
		Use:   "provenance [repo]",
		Short: "Score the code files each commit of a branch touched",
		Long: `Walk the history of a git branch, newest commit first, and score every
python, javascript or shell file a commit added or changed, as it was at
that commit. The humanity index is the mean score over those files.

Examples:
  vata provenance
  vata provenance ../service --branch develop --max-commits 50
  vata provenance . --json

Exit Codes:
  0 = Humanity index at or above the threshold and no file rejected
  1 = Index below the threshold, or a file was rejected
  2 = Error (not a repository, unknown branch, no code files)`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo := "."
			if len(args) > 0 {
				repo = args[0]
			}
			if !cmd.Flags().Changed("threshold") {
				threshold = a.cfg.Scan.Threshold
			}
			if workers == 0 {
				workers = a.cfg.Scan.Workers
			}

			scanner, err := (&scanOptions{workers: workers}).scanner(a)
			if err != nil {
				return err
			}
			git, err := provenance.NewGitClient(cmd.Context(), repo, 0)
			if err != nil {
				return err
			}
			walker := provenance.NewWalker(git, scanner,
				provenance.WithWorkers(workers),
				provenance.WithMaxCommits(maxCommits),
				provenance.WithMaxFileSize(a.cfg.Scan.MaxFileSize),
				provenance.WithLogger(a.logger.Slog()),
			)

			start := time.Now()
			rep, err := walker.Walk(cmd.Context(), branch)
			if err != nil {
				return err
			}
			a.logger.Info("provenance complete",
				"repo", rep.Repo,
				"branch", rep.Branch,
				"commits", rep.Commits,
				"files", rep.Scanned,
				"duration_ms", time.Since(start).Milliseconds())

			if !noHistory {
				a.record(cmd.Context(), history.FromProvenance(rep))
			}

			below := rep.Scanned > 0 && rep.HumanityIndex < float64(threshold)
			if a.jsonOut {
				if err := writeJSON(cmd.OutOrStdout(), rep); err != nil {
					return err
				}
				return flagged(below || rep.Rejected > 0)
			}

			p := a.printer(cmd)
			rows := make([][]string, 0, len(rep.Entries))
			for _, e := range rep.Entries {
				row := fileRow(p, e.FileResult)
				rows = append(rows, []string{e.Commit, e.Date.Format(time.DateOnly), row[0], row[2], row[3]})
			}
			p.Table([]string{"COMMIT", "DATE", "FILE", "SCORE", "CATEGORY"}, rows)
			p.Field("commits", strconv.Itoa(rep.Commits))
			p.Field("scanned", strconv.Itoa(rep.Scanned))
			p.Field("skipped", strconv.Itoa(rep.Skipped))
			p.Field("rejected", strconv.Itoa(rep.Rejected))
			p.Field("humanity index", fmt.Sprintf("%.1f", rep.HumanityIndex))
			if below {
				p.Warning(fmt.Sprintf("humanity index %.1f is below the threshold %d", rep.HumanityIndex, threshold))
			}
			return flagged(below || rep.Rejected > 0)
		},
	}
	cmd.Flags().StringVar(&branch, "branch", provenance.DefaultBranch, "Branch or revision to walk")
	cmd.Flags().IntVar(&maxCommits, "max-commits", 0, "Walk only the newest N commits (0 = all)")
	cmd.Flags().IntVar(&workers, "workers", 0, "Parallel workers (0 = config, then 2 * NumCPU)")
	cmd.Flags().IntVar(&threshold, "threshold", 0, "Minimum humanity index for exit 0 (default from config)")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "Do not record the walk in history")
	return cmd
}
