// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package api serves the analyzer over HTTP.
//
// Routes:
//
//	POST /v1/analyze    score a text
//	POST /v1/humanize   run the convergence loop
//	GET  /v1/profiles   list chaos profiles
//	GET  /health        liveness
//	GET  /metrics       Prometheus exposition
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AleutianAI/vata/services/vata"
	"github.com/AleutianAI/vata/services/vata/audit"
	"github.com/AleutianAI/vata/services/vata/datatypes"
	"github.com/AleutianAI/vata/services/vata/history"
)

// Handlers holds the HTTP handlers.
type Handlers struct {
	engine   *vata.Engine
	defaults vata.AnalysisContext
	history  *history.Store
	version  string
	logger   *slog.Logger
}

// NewHandlers creates handlers over engine. defaults fills fields a
// request leaves unset.
func NewHandlers(engine *vata.Engine, defaults vata.AnalysisContext, version string) *Handlers {
	return &Handlers{engine: engine, defaults: defaults, version: version, logger: slog.Default()}
}

// WithHistory records every analysis in store.
func (h *Handlers) WithHistory(store *history.Store) *Handlers {
	h.history = store
	return h
}

// WithLogger sets the logger.
func (h *Handlers) WithLogger(logger *slog.Logger) *Handlers {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// HandleAnalyze handles POST /v1/analyze.
//
// Response:
//
//	200 OK: AnalyzeResponse. A rejected input is a 200 with category
//	        "rejected"; analysis itself succeeded.
//	400 Bad Request: malformed body or invalid settings.
func (h *Handlers) HandleAnalyze(c *gin.Context) {
	logger := h.requestLogger(c, "HandleAnalyze")

	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: "INVALID_REQUEST"})
		return
	}

	actx := h.defaults
	actx.Path = req.Path
	if req.Thresholds != nil {
		actx.Thresholds = *req.Thresholds
	}
	if err := setLanguage(&actx, req.Language); err != nil {
		h.writeError(c, logger, err)
		return
	}

	ctx := c.Request.Context()
	var resp AnalyzeResponse
	if req.Attest {
		att, err := h.engine.Attest(ctx, req.Text, actx)
		if err != nil {
			h.writeError(c, logger, err)
			return
		}
		resp.Report, resp.Attestation, resp.Votes = att.Report, &att.Attestation, att.Votes
	} else {
		report, err := h.engine.Analyze(ctx, req.Text, actx)
		if err != nil {
			h.writeError(c, logger, err)
			return
		}
		resp.Report = report
	}

	if h.history != nil {
		target := req.Path
		if target == "" {
			target = "request:" + audit.HashHex([]byte(req.Text))[:12]
		}
		rec, err := h.history.Save(ctx, history.FromReport(target, resp.Report))
		if err != nil {
			logger.Warn("saving history record", slog.String("error", err.Error()))
		} else {
			resp.RecordID = rec.ID
		}
	}

	logger.Info("analysis served",
		slog.Int("overall", resp.Report.Overall),
		slog.String("category", string(resp.Report.Category)))
	c.JSON(http.StatusOK, resp)
}

// HandleHumanize handles POST /v1/humanize.
//
// Response:
//
//	200 OK: datatypes.TransformResult
//	400 Bad Request: malformed body or invalid settings
//	422 Unprocessable Entity: input rejected by the guardian
//	504 Gateway Timeout: the request context ended first
func (h *Handlers) HandleHumanize(c *gin.Context) {
	logger := h.requestLogger(c, "HandleHumanize")

	var req HumanizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: "INVALID_REQUEST"})
		return
	}

	actx := h.defaults
	actx.Path = req.Path
	if req.Profile != "" {
		actx.Profile = req.Profile
	}
	if req.TargetScore != nil {
		actx.TargetScore = *req.TargetScore
	}
	if req.MaxIterations != nil {
		actx.MaxIterations = *req.MaxIterations
	}
	if req.Seed != nil {
		actx.Seed = *req.Seed
	}
	if req.Thresholds != nil {
		actx.Thresholds = *req.Thresholds
	}
	if err := setLanguage(&actx, req.Language); err != nil {
		h.writeError(c, logger, err)
		return
	}

	res, err := h.engine.Humanize(c.Request.Context(), req.Text, actx)
	if err != nil {
		h.writeError(c, logger, err)
		return
	}
	logger.Info("humanize served",
		slog.Int("overall", res.Report.Overall),
		slog.Int("attempted", res.Attempted))
	c.JSON(http.StatusOK, res)
}

// HandleProfiles handles GET /v1/profiles.
func (h *Handlers) HandleProfiles(c *gin.Context) {
	profiles := h.engine.Profiles()
	resp := ProfilesResponse{Profiles: make([]ProfileInfo, 0, len(profiles))}
	for _, p := range profiles {
		resp.Profiles = append(resp.Profiles, ProfileInfo{
			Name:           p.Name,
			Description:    p.Description,
			RenameProb:     p.RenameProb,
			CommentProb:    p.CommentProb,
			DeadCodeProb:   p.DeadCodeProb,
			DecorationProb: p.DecorationProb,
		})
	}
	c.JSON(http.StatusOK, resp)
}

// HandleHealth handles GET /health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "healthy", Version: h.version})
}

func setLanguage(actx *vata.AnalysisContext, tag string) error {
	if tag == "" {
		return nil
	}
	lang, err := datatypes.ParseLanguage(tag)
	if err != nil {
		return err
	}
	actx.Language = lang
	return nil
}

func (h *Handlers) writeError(c *gin.Context, logger *slog.Logger, err error) {
	var rejected *datatypes.RejectedInputError
	switch {
	case errors.As(err, &rejected):
		logger.Info("input rejected", slog.Int("violations", len(rejected.Violations)))
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:      err.Error(),
			Code:       "REJECTED_INPUT",
			Violations: datatypes.ViolationStrings(rejected.Violations),
		})
	case datatypes.IsConfiguration(err):
		logger.Warn("invalid configuration", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_CONFIGURATION"})
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		logger.Warn("request context ended", slog.String("error", err.Error()))
		c.JSON(http.StatusGatewayTimeout, ErrorResponse{Error: err.Error(), Code: "TIMEOUT"})
	default:
		logger.Error("request failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Code: "INTERNAL"})
	}
}

func (h *Handlers) requestLogger(c *gin.Context, handler string) *slog.Logger {
	return h.logger.With(slog.String("request_id", getOrCreateRequestID(c)), slog.String("handler", handler))
}

func getOrCreateRequestID(c *gin.Context) string {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Header("X-Request-ID", requestID)
	return requestID
}
