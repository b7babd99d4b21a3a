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

	"github.com/AleutianAI/vata/services/vata/history"
)

func newHistoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect recorded analyses and scans",
	}
	cmd.AddCommand(newHistoryListCmd(a), newHistoryShowCmd(a), newHistoryClearCmd(a))
	return cmd
}

func (a *app) requireHistory() (*history.Store, error) {
	store, err := a.openHistory()
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, fmt.Errorf("history is disabled (storage.disabled in config)")
	}
	return store, nil
}

func newHistoryListCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List records, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.requireHistory()
			if err != nil {
				return err
			}
			records, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if a.jsonOut {
				return writeJSON(cmd.OutOrStdout(), records)
			}

			p := a.printer(cmd)
			if len(records) == 0 {
				p.Muted("no records")
				return nil
			}
			rows := make([][]string, 0, len(records))
			for _, r := range records {
				rows = append(rows, []string{
					r.ID,
					r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
					string(r.Kind),
					r.Target,
					strconv.Itoa(r.Scanned),
					fmt.Sprintf("%.1f", r.HumanityIndex),
				})
			}
			p.Table([]string{"ID", "TIME", "KIND", "TARGET", "FILES", "INDEX"}, rows)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum records to list (0 = all)")
	return cmd
}

func newHistoryShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.requireHistory()
			if err != nil {
				return err
			}
			rec, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if a.jsonOut {
				return writeJSON(cmd.OutOrStdout(), rec)
			}

			p := a.printer(cmd)
			p.Title(fmt.Sprintf("%s %s", rec.Kind, rec.Target))
			p.Field("id", rec.ID)
			p.Field("time", rec.CreatedAt.Local().Format("2006-01-02 15:04:05"))
			p.Field("humanity index", fmt.Sprintf("%.1f", rec.HumanityIndex))
			rows := make([][]string, 0, len(rec.Files))
			for _, f := range rec.Files {
				rows = append(rows, []string{f.Path, strconv.Itoa(f.Overall), p.Category(f.Category)})
			}
			p.Table([]string{"FILE", "SCORE", "CATEGORY"}, rows)
			return nil
		},
	}
}

func newHistoryClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.requireHistory()
			if err != nil {
				return err
			}
			n, err := store.Clear(cmd.Context())
			if err != nil {
				return err
			}
			a.printer(cmd).Success(fmt.Sprintf("deleted %d record(s)", n))
			return nil
		},
	}
}
