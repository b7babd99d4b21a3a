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
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/vata/services/vata/evaluation"
)

// evalResult is the JSON form of `vata eval`.
type evalResult struct {
	Cutoff  int                `json:"cutoff"`
	Samples []evalSample       `json:"samples"`
	Metrics evaluation.Metrics `json:"metrics"`
}

type evalSample struct {
	Path      string           `json:"path"`
	Label     evaluation.Label `json:"label"`
	Predicted evaluation.Label `json:"predicted"`
	Overall   int              `json:"overall"`
}

func newEvalCmd(a *app) *cobra.Command {
	var (
		labelsPath string
		cutoff     int
	)
	cmd := &cobra.Command{
		Use:   "eval --labels labels.yaml",
		Short: "Measure detection accuracy against labelled files",
		Long: `Score every file listed in a labels file and compare the predictions
with the labels. A file is predicted machine-written when its soul score is
below the cutoff. Machine is the positive class.

Paths in the labels file are relative to the labels file.

  samples:
    - path: human/a.py
      label: human
    - path: generated/b.py
      label: machine`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := os.ReadFile(labelsPath)
			if err != nil {
				return fmt.Errorf("reading labels: %w", err)
			}
			samples, err := evaluation.ParseLabels(data)
			if err != nil {
				return err
			}
			base := filepath.Dir(labelsPath)

			res := evalResult{Cutoff: cutoff, Samples: make([]evalSample, 0, len(samples))}
			predicted := make([]evaluation.Label, 0, len(samples))
			for _, s := range samples {
				path := s.Path
				if !filepath.IsAbs(path) {
					path = filepath.Join(base, path)
				}
				text, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("reading sample: %w", err)
				}
				actx, err := a.analysisContext(path, "")
				if err != nil {
					return err
				}
				report, err := a.engine.Analyze(cmd.Context(), string(text), actx)
				if err != nil {
					return fmt.Errorf("analyzing %s: %w", s.Path, err)
				}
				pred := evaluation.Predict(report, cutoff)
				predicted = append(predicted, pred)
				res.Samples = append(res.Samples, evalSample{
					Path: s.Path, Label: s.Label, Predicted: pred, Overall: report.Overall,
				})
			}

			res.Metrics, err = evaluation.Evaluate(evaluation.Truth(samples), predicted)
			if err != nil {
				return err
			}
			if a.jsonOut {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			p := a.printer(cmd)
			p.Title(fmt.Sprintf("Evaluation of %d sample(s), cutoff %d", len(samples), cutoff))
			fmt.Fprint(cmd.OutOrStdout(), res.Metrics.Format())
			return nil
		},
	}
	cmd.Flags().StringVar(&labelsPath, "labels", "", "YAML labels file (required)")
	cmd.Flags().IntVar(&cutoff, "cutoff", evaluation.DefaultCutoff, "Scores below this are predicted machine-written")
	_ = cmd.MarkFlagRequired("labels")
	return cmd
}
