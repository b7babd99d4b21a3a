// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// DefaultPath returns ~/.vata/vata.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not find the user's home directory: %w", err)
	}
	return filepath.Join(home, ".vata", "vata.yaml"), nil
}

// Load reads the config at path, creating it with defaults on first run.
// An empty path means DefaultPath.
//
// Values from a .env file in the working directory and VATA_* environment
// variables override the file. The result is validated.
func Load(path string) (VataConfig, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return VataConfig{}, err
		}
		path = p
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := createDefault(path); err != nil {
			return VataConfig{}, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return VataConfig{}, fmt.Errorf("failed to read the config file: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return VataConfig{}, fmt.Errorf("%s: %w", path, err)
	}

	_ = godotenv.Load()
	if err := applyEnv(&cfg); err != nil {
		return VataConfig{}, err
	}
	if err := Validate(cfg); err != nil {
		return VataConfig{}, err
	}
	return cfg, nil
}

// Parse decodes data over DefaultConfig, so omitted keys keep defaults.
func Parse(data []byte) (VataConfig, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return VataConfig{}, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// Validate checks field ranges and enumerations.
func Validate(cfg VataConfig) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func createDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create the config directory: %w", err)
	}
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// applyEnv overlays VATA_* variables.
func applyEnv(cfg *VataConfig) error {
	strs := []struct {
		key string
		dst *string
	}{
		{"VATA_PROFILE", &cfg.Analysis.Profile},
		{"VATA_STORAGE_PATH", &cfg.Storage.Path},
		{"VATA_LOG_LEVEL", &cfg.Logging.Level},
		{"VATA_LOG_DIR", &cfg.Logging.Dir},
		{"VATA_ADDR", &cfg.Server.Addr},
		{"VATA_TRACES", &cfg.Telemetry.Traces},
		{"VATA_METRICS", &cfg.Telemetry.Metrics},
		{"VATA_OTLP_ENDPOINT", &cfg.Telemetry.OTLPEndpoint},
	}
	for _, s := range strs {
		if v := os.Getenv(s.key); v != "" {
			*s.dst = v
		}
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"VATA_MAX_ITERATIONS", &cfg.Analysis.MaxIterations},
		{"VATA_TARGET_SCORE", &cfg.Analysis.TargetScore},
		{"VATA_WORKERS", &cfg.Scan.Workers},
		{"VATA_SCAN_THRESHOLD", &cfg.Scan.Threshold},
	}
	for _, i := range ints {
		v := os.Getenv(i.key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", i.key, err)
		}
		*i.dst = n
	}

	if v := os.Getenv("VATA_SEED"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("VATA_SEED: %w", err)
		}
		cfg.Analysis.Seed = n
	}
	return nil
}

// ExpandHome replaces a leading ~ with the home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
