// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package api

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/AleutianAI/vata/services/vata/telemetry"
)

// ServiceName names the API in traces.
const ServiceName = "vata-api"

// NewRouter builds the gin engine with tracing, metrics and all routes.
// metrics may be nil.
func NewRouter(handlers *Handlers, metrics *telemetry.Metrics) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(ServiceName))
	if metrics != nil {
		router.Use(metricsMiddleware(metrics))
	}

	router.GET("/health", handlers.HandleHealth)
	router.GET("/metrics", gin.WrapH(telemetry.MetricsHandler()))

	v1 := router.Group("/v1")
	RegisterRoutes(v1, handlers)
	return router
}

// RegisterRoutes mounts the versioned routes on rg.
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	rg.POST("/analyze", handlers.HandleAnalyze)
	rg.POST("/humanize", handlers.HandleHumanize)
	rg.GET("/profiles", handlers.HandleProfiles)
}

func metricsMiddleware(m *telemetry.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		start := time.Now()

		m.HTTPActiveRequests.Add(ctx, 1)
		defer m.HTTPActiveRequests.Add(ctx, -1)

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		attrs := metric.WithAttributes(
			attribute.String("method", c.Request.Method),
			attribute.String("route", route),
			attribute.String("status", strconv.Itoa(c.Writer.Status())),
		)
		m.HTTPRequestsTotal.Add(ctx, 1, attrs)
		m.HTTPRequestDuration.Record(ctx, time.Since(start).Seconds(), attrs)
		if c.Writer.Status() >= 500 {
			m.ErrorsTotal.Add(ctx, 1, metric.WithAttributes(
				attribute.String("kind", "http"),
				attribute.String("component", "api"),
			))
		}
	}
}
