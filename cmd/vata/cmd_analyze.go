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

	"github.com/spf13/cobra"

	"github.com/AleutianAI/vata/services/vata/audit"
	"github.com/AleutianAI/vata/services/vata/guardian"
	"github.com/AleutianAI/vata/services/vata/history"
)

func newAnalyzeCmd(a *app) *cobra.Command {
	var (
		language  string
		noHistory bool
	)
	cmd := &cobra.Command{
		Use:   "analyze [file|-]",
		Short: "Score one file or stdin",
		Long: `Score a file, or stdin when no file is given.

Examples:
  vata analyze script.py
  cat deploy.sh | vata analyze --language shell
  vata analyze app.js --json

Exit Codes:
  0 = Scored
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
			report, err := a.engine.Analyze(cmd.Context(), text, actx)
			if err != nil {
				return err
			}
			if !noHistory {
				a.record(cmd.Context(), history.FromReport(displayName(path), report))
			}

			if a.jsonOut {
				if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
					return err
				}
			} else {
				a.printer(cmd).Report(displayName(path), report)
			}
			return flagged(report.Rejected())
		},
	}
	cmd.Flags().StringVar(&language, "language", "", "Language: python, javascript, shell, generic (default: detect)")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "Do not record the result in history")
	return cmd
}

func newFingerprintCmd(a *app) *cobra.Command {
	var (
		language string
		top      int
	)
	cmd := &cobra.Command{
		Use:   "fingerprint [file|-]",
		Short: "Show the parse-tree node types and most frequent identifiers",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, path, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			actx, err := a.analysisContext(path, language)
			if err != nil {
				return err
			}
			fp, err := a.engine.Fingerprint(cmd.Context(), text, actx, top)
			if err != nil {
				return err
			}
			if a.jsonOut {
				return writeJSON(cmd.OutOrStdout(), fp)
			}

			p := a.printer(cmd)
			p.Title("Fingerprint " + displayName(path))
			p.Field("language", fp.Language)
			p.Field("parsed", strconv.FormatBool(fp.Parsed))
			rows := make([][]string, 0, len(fp.Identifiers))
			for _, id := range fp.Identifiers {
				rows = append(rows, []string{id.Name, strconv.Itoa(id.Count)})
			}
			p.Table([]string{"IDENTIFIER", "COUNT"}, rows)
			return nil
		},
	}
	cmd.Flags().StringVar(&language, "language", "", "Language (default: detect)")
	cmd.Flags().IntVar(&top, "top", 10, "Number of identifiers to list")
	return cmd
}

func newAttestCmd(a *app) *cobra.Command {
	var language string
	cmd := &cobra.Command{
		Use:   "attest [file|-]",
		Short: "Print a placeholder attestation and swarm votes for a file",
		Long: `Score a file and print an audit statement with input and report
hashes, a run id, and the votes of the ethics, style, risk and meta agents.

The proof field is a placeholder; nothing is cryptographically proven.`,
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
			att, err := a.engine.Attest(cmd.Context(), text, actx)
			if err != nil {
				return err
			}
			if a.jsonOut {
				if err := writeJSON(cmd.OutOrStdout(), att); err != nil {
					return err
				}
				return flagged(att.Report.Rejected())
			}

			p := a.printer(cmd)
			p.Title(att.Attestation.Statement)
			p.Field("input_sha256", att.Attestation.InputSHA256)
			p.Field("report_sha256", att.Attestation.ReportSHA256)
			p.Field("run_id", att.Attestation.RunID)
			p.Field("proof", att.Attestation.Proof)
			p.Box("Swarm votes", audit.FormatVotes(att.Votes))
			return flagged(att.Report.Rejected())
		},
	}
	cmd.Flags().StringVar(&language, "language", "", "Language (default: detect)")
	return cmd
}

func newFairnessCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fairness [file|-]",
		Short: "Check text for personal data and biased terms",
		Long: `Report personal data (emails, phone numbers, SSNs) and biased or
exclusionary terms. Findings do not change the soul score.

Exit Codes:
  0 = Nothing flagged
  1 = Personal data or biased terms found
  2 = Error`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, path, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			report, err := guardian.CheckFairness(text)
			if err != nil {
				return err
			}
			if a.jsonOut {
				if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
					return err
				}
				return flagged(report.Flagged())
			}

			p := a.printer(cmd)
			p.Title("Fairness " + displayName(path))
			if !report.Flagged() {
				p.Success("no personal data or biased terms found")
				return nil
			}
			for _, f := range report.PII {
				p.Warning(fmt.Sprintf("%s (line %d): %s", f.Description, f.Line, f.Match))
			}
			for _, term := range report.BiasTerms {
				p.Warning("biased term: " + term)
			}
			p.Bullets(report.Notes)
			return errFlagged
		},
	}
	return cmd
}

