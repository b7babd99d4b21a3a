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
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/vata/services/vata/audit"
	"github.com/AleutianAI/vata/services/vata/datatypes"
)

func newHumanizeCmd(a *app) *cobra.Command {
	var (
		language string
		profile  string
		target   int
		maxIter  int
		seed     int64
		showDiff bool
		outPath  string
	)
	cmd := &cobra.Command{
		Use:   "humanize [file|-]",
		Short: "Perturb code toward a target soul score",
		Long: `Apply random, syntax-preserving edits drawn from a chaos profile
until the soul score reaches the target or the iteration budget runs out.
The best version seen is printed; it never scores below the input.

Examples:
  vata humanize script.py --profile mild
  vata humanize script.py --target 80 --max-iter 10 --diff
  vata humanize script.py --out script.human.py

Exit Codes:
  0 = Result printed
  1 = Input rejected by the guardian
  2 = Error`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, path, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			actx, err := a.analysisContext(path, language)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("profile") {
				actx.Profile = profile
			}
			if flags.Changed("target") {
				actx.TargetScore = target
			}
			if flags.Changed("max-iter") {
				actx.MaxIterations = maxIter
			}
			if flags.Changed("seed") {
				actx.Seed = seed
			}

			res, err := a.engine.Humanize(cmd.Context(), text, actx)
			var rejected *datatypes.RejectedInputError
			if errors.As(err, &rejected) {
				ep := a.errPrinter(cmd)
				ep.Error(fmt.Sprintf("input rejected: %d violation(s)", len(rejected.Violations)))
				ep.Bullets(datatypes.ViolationStrings(rejected.Violations))
				return errFlagged
			}
			if err != nil {
				return err
			}

			if a.jsonOut {
				return writeJSON(cmd.OutOrStdout(), res)
			}

			switch {
			case outPath != "":
				if err := os.WriteFile(outPath, []byte(res.Text), 0o644); err != nil {
					return fmt.Errorf("writing %s: %w", outPath, err)
				}
			case showDiff:
				if res.Patch != "" {
					fmt.Fprint(cmd.OutOrStdout(), res.Patch)
				}
			default:
				fmt.Fprint(cmd.OutOrStdout(), res.Text)
			}

			ep := a.errPrinter(cmd)
			summary := fmt.Sprintf("soul score %s after %d of %d iteration(s), best at %d",
				res.Report.Summary(), res.Attempted, actx.MaxIterations, res.Iterations)
			if res.Report.Overall >= actx.TargetScore {
				ep.Success(summary)
			} else {
				ep.Warning(summary + fmt.Sprintf("; target %d not reached", actx.TargetScore))
			}
			if res.Patch != "" {
				if st, err := audit.Stats(res.Patch); err == nil {
					ep.Muted(fmt.Sprintf("%d hunk(s), +%d -%d lines", st.Hunks, st.LinesAdded, st.LinesRemoved))
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&language, "language", "", "Language (default: detect)")
	cmd.Flags().StringVar(&profile, "profile", "", "Chaos profile (see `vata profiles`)")
	cmd.Flags().IntVar(&target, "target", 0, "Target soul score 0-100 (default from config)")
	cmd.Flags().IntVar(&maxIter, "max-iter", 0, "Maximum iterations (default from config)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Random seed (default from config)")
	cmd.Flags().BoolVar(&showDiff, "diff", false, "Print a unified diff instead of the full text")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the result to a file")
	return cmd
}
