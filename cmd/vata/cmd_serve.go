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
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/AleutianAI/vata/services/vata/api"
	"github.com/AleutianAI/vata/services/vata/telemetry"
)

const shutdownTimeout = 10 * time.Second

func newProfilesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List the chaos profiles used by humanize",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			profiles := a.engine.Profiles()
			if a.jsonOut {
				return writeJSON(cmd.OutOrStdout(), profiles)
			}
			rows := make([][]string, 0, len(profiles))
			for _, p := range profiles {
				rows = append(rows, []string{
					p.Name,
					fmt.Sprintf("%.2f", p.RenameProb),
					fmt.Sprintf("%.2f", p.CommentProb),
					fmt.Sprintf("%.2f", p.DeadCodeProb),
					fmt.Sprintf("%.2f", p.DecorationProb),
					p.Description,
				})
			}
			a.printer(cmd).Table([]string{"NAME", "RENAME", "COMMENT", "DEAD CODE", "DECORATION", "DESCRIPTION"}, rows)
			return nil
		},
	}
}

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analyzer over HTTP",
		Long: `Start the HTTP API:

  POST /v1/analyze    score a text
  POST /v1/humanize   run humanize
  GET  /v1/profiles   list chaos profiles
  GET  /health        liveness
  GET  /metrics       Prometheus metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			router, err := a.router()
			if err != nil {
				return err
			}
			srv := &http.Server{
				Addr:              addr,
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}
			return a.serve(cmd.Context(), srv)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	return cmd
}

// router builds the API with history recording when storage is enabled.
func (a *app) router() (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)

	metrics, err := telemetry.NewMetrics(otel.Meter(api.ServiceName))
	if err != nil {
		return nil, err
	}
	handlers := api.NewHandlers(a.engine, a.cfg.Analysis.Context(), version).WithLogger(a.logger.Slog())
	store, err := a.openHistory()
	if err != nil {
		a.logger.Warn("history unavailable, serving without it", "error", err)
	} else if store != nil {
		handlers.WithHistory(store)
	}
	return api.NewRouter(handlers, metrics), nil
}

// serve runs srv until ctx ends, then shuts it down gracefully.
func (a *app) serve(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving on %s: %w", srv.Addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	a.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}
