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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/vata/cmd/vata/config"
	"github.com/AleutianAI/vata/pkg/logging"
	"github.com/AleutianAI/vata/pkg/ux"
	"github.com/AleutianAI/vata/services/vata"
	"github.com/AleutianAI/vata/services/vata/datatypes"
	"github.com/AleutianAI/vata/services/vata/history"
	vstore "github.com/AleutianAI/vata/services/vata/storage/badger"
	"github.com/AleutianAI/vata/services/vata/telemetry"
)

// app is the state shared by every command of one invocation.
type app struct {
	configPath string
	logLevel   string
	jsonOut    bool

	cfg       config.VataConfig
	logger    *logging.Logger
	engine    *vata.Engine
	telemetry func(context.Context) error
	db        *vstore.DB
	history   *history.Store
}

// run executes one CLI invocation and returns the exit code.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := &app{}
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := root.ExecuteContext(ctx)
	if cerr := a.close(); cerr != nil && err == nil {
		err = cerr
	}
	return exitCode(err, stderr)
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "vata",
		Short: "Score how human-written source code looks",
		Long: `vata analyzes Python, JavaScript, shell and plain text for signs of
human authorship and reports a 0-100 "soul score" across four dimensions:
structure, style, semantics and risk.

Inputs that contain dangerous code or hardcoded secrets are rejected.

Exit Codes:
  0 = OK
  1 = Rejected input, violation, or score below threshold
  2 = Error`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file (default: ~/.vata/vata.yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	root.PersistentFlags().BoolVar(&a.jsonOut, "json", false, "Output as JSON")

	root.AddCommand(
		newAnalyzeCmd(a),
		newHumanizeCmd(a),
		newScanCmd(a),
		newWatchCmd(a),
		newProvenanceCmd(a),
		newHistoryCmd(a),
		newEvalCmd(a),
		newProfilesCmd(a),
		newFingerprintCmd(a),
		newAttestCmd(a),
		newFairnessCmd(a),
		newServeCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	a.cfg = cfg

	levelName := cfg.Logging.Level
	if a.logLevel != "" {
		levelName = a.logLevel
	}
	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return err
	}
	a.logger = logging.New(logging.Config{
		Level:  level,
		LogDir: cfg.Logging.Dir,
		JSON:   cfg.Logging.JSON,
		Output: cmd.ErrOrStderr(),
	})
	slog.SetDefault(a.logger.Slog())

	// Only the server exports metrics; one-shot commands trace when asked.
	tcfg := cfg.Telemetry.Telemetry(version)
	if cmd.Name() != "serve" {
		tcfg.MetricExporter = "none"
	}
	if tcfg.TraceExporter != "none" || tcfg.MetricExporter != "none" {
		if a.telemetry, err = telemetry.Init(cmd.Context(), tcfg); err != nil {
			return err
		}
	}

	a.engine, err = vata.NewEngine(vata.WithLogger(a.logger.Slog()))
	return err
}

// openHistory opens the history store on first use. It returns nil when
// storage is disabled.
func (a *app) openHistory() (*history.Store, error) {
	if a.history != nil || a.cfg.Storage.Disabled {
		return a.history, nil
	}
	db, err := vstore.Open(vstore.DefaultConfig(config.ExpandHome(a.cfg.Storage.Path)))
	if err != nil {
		return nil, fmt.Errorf("opening history store: %w", err)
	}
	a.db = db
	a.history = history.NewStore(db)
	return a.history, nil
}

// record saves rec unless storage is disabled. Failures are logged, not
// returned; history is best effort.
func (a *app) record(ctx context.Context, rec history.Record) string {
	store, err := a.openHistory()
	if err != nil {
		a.logger.Warn("history unavailable", "error", err)
		return ""
	}
	if store == nil {
		return ""
	}
	saved, err := store.Save(ctx, rec)
	if err != nil {
		a.logger.Warn("saving history record", "error", err)
		return ""
	}
	return saved.ID
}

func (a *app) close() error {
	var errs []error
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	if a.telemetry != nil {
		errs = append(errs, a.telemetry(context.Background()))
	}
	if a.logger != nil {
		errs = append(errs, a.logger.Close())
	}
	return errors.Join(errs...)
}

// printer writes to the command's stdout.
func (a *app) printer(cmd *cobra.Command) *ux.Printer {
	return newPrinter(cmd.OutOrStdout())
}

// errPrinter writes to the command's stderr.
func (a *app) errPrinter(cmd *cobra.Command) *ux.Printer {
	return newPrinter(cmd.ErrOrStderr())
}

func newPrinter(w io.Writer) *ux.Printer {
	mode := ux.ModePlain
	if f, ok := w.(*os.File); ok {
		mode = ux.DetectMode(f)
	}
	return ux.NewPrinter(w, mode)
}

// analysisContext starts from the config defaults.
func (a *app) analysisContext(path, language string) (vata.AnalysisContext, error) {
	actx := a.cfg.Analysis.Context()
	actx.Path = path
	if language != "" {
		lang, err := datatypes.ParseLanguage(language)
		if err != nil {
			return actx, err
		}
		actx.Language = lang
	}
	return actx, nil
}

// readInput reads args[0], or stdin when there is no argument or it is "-".
// The returned path is "" for stdin.
func readInput(cmd *cobra.Command, args []string) (text, path string, err error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), "", nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", "", fmt.Errorf("reading input: %w", err)
	}
	return string(data), args[0], nil
}

func displayName(path string) string {
	if path == "" {
		return "<stdin>"
	}
	return filepath.Clean(path)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
