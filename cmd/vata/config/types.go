// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config holds the vata CLI configuration stored at
// ~/.vata/vata.yaml.
package config

import (
	"github.com/AleutianAI/vata/services/vata"
	"github.com/AleutianAI/vata/services/vata/scan"
	"github.com/AleutianAI/vata/services/vata/scoring"
	"github.com/AleutianAI/vata/services/vata/telemetry"
)

// CurrentConfigVersion is written into new config files.
const CurrentConfigVersion = "1"

// VataConfig is the root of vata.yaml.
type VataConfig struct {
	Version   string          `yaml:"version"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Scan      ScanConfig      `yaml:"scan"`
	Storage   StorageConfig   `yaml:"storage"`
	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Server    ServerConfig    `yaml:"server"`
}

// AnalysisConfig holds the defaults for analyze and humanize.
type AnalysisConfig struct {
	Profile       string `yaml:"profile" validate:"required"`
	MaxIterations int    `yaml:"max_iterations" validate:"min=0,max=50"`
	TargetScore   int    `yaml:"target_score" validate:"min=0,max=100"`
	Seed          int64  `yaml:"seed"`

	// HumanLeaning and Mixed are the category cut-offs.
	HumanLeaning int `yaml:"human_leaning" validate:"min=0,max=100"`
	Mixed        int `yaml:"mixed" validate:"min=0,max=100,ltfield=HumanLeaning"`
}

// Context converts the section into per-call engine settings.
func (a AnalysisConfig) Context() vata.AnalysisContext {
	return vata.AnalysisContext{
		Profile:       a.Profile,
		MaxIterations: a.MaxIterations,
		TargetScore:   a.TargetScore,
		Seed:          a.Seed,
		Thresholds:    scoring.Thresholds{HumanLeaning: a.HumanLeaning, Mixed: a.Mixed},
	}
}

// ScanConfig configures folder scans.
type ScanConfig struct {
	// Workers is the number of files analysed at once; 0 means 2 * NumCPU.
	Workers     int      `yaml:"workers" validate:"min=0"`
	MaxFileSize int64    `yaml:"max_file_size" validate:"min=1"`
	CacheSize   int      `yaml:"cache_size" validate:"min=1"`
	Exclude     []string `yaml:"exclude"`

	// Threshold is the humanity index below which scan exits 1.
	Threshold int `yaml:"threshold" validate:"min=0,max=100"`
}

// StorageConfig locates the scan history database.
type StorageConfig struct {
	// Path is the badger directory. A leading ~ expands to the home dir.
	Path string `yaml:"path"`

	// Disabled skips history recording.
	Disabled bool `yaml:"disabled"`
}

// LoggingConfig configures pkg/logging.
type LoggingConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn warning error"`
	Dir   string `yaml:"dir"`
	JSON  bool   `yaml:"json"`
}

// TelemetryConfig selects OpenTelemetry exporters.
type TelemetryConfig struct {
	Traces       string `yaml:"traces" validate:"oneof=none stdout otlp"`
	Metrics      string `yaml:"metrics" validate:"oneof=none stdout prometheus"`
	OTLPEndpoint string `yaml:"otlp_endpoint" validate:"required_if=Traces otlp"`
	OTLPInsecure bool   `yaml:"otlp_insecure"`
}

// Telemetry converts the section for telemetry.Init.
func (t TelemetryConfig) Telemetry(version string) telemetry.Config {
	cfg := telemetry.DefaultConfig(version)
	cfg.TraceExporter = t.Traces
	cfg.MetricExporter = t.Metrics
	if t.OTLPEndpoint != "" {
		cfg.OTLPEndpoint = t.OTLPEndpoint
	}
	cfg.OTLPInsecure = t.OTLPInsecure
	return cfg
}

// ServerConfig configures `vata serve`.
type ServerConfig struct {
	Addr string `yaml:"addr" validate:"required,hostname_port"`
}

// DefaultConfig returns the values written on first run.
func DefaultConfig() VataConfig {
	actx := vata.DefaultAnalysisContext()
	return VataConfig{
		Version: CurrentConfigVersion,
		Analysis: AnalysisConfig{
			Profile:       actx.Profile,
			MaxIterations: actx.MaxIterations,
			TargetScore:   actx.TargetScore,
			Seed:          actx.Seed,
			HumanLeaning:  actx.Thresholds.HumanLeaning,
			Mixed:         actx.Thresholds.Mixed,
		},
		Scan: ScanConfig{
			MaxFileSize: scan.DefaultMaxFileSize,
			CacheSize:   scan.DefaultCacheSize,
			Threshold:   50,
		},
		Storage: StorageConfig{Path: "~/.vata/history"},
		Logging: LoggingConfig{Level: "info"},
		Telemetry: TelemetryConfig{
			Traces:       "none",
			Metrics:      "prometheus",
			OTLPEndpoint: "localhost:4317",
			OTLPInsecure: true,
		},
		Server: ServerConfig{Addr: "127.0.0.1:8089"},
	}
}
