// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package apply

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for patch application.
var (
	tracer = otel.Tracer("devflow.apply")
	meter  = otel.Meter("devflow.apply")
)

// Metrics for patch application.
var (
	applyLatency metric.Float64Histogram
	applyTotal   metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		applyLatency, err = meter.Float64Histogram(
			"patch_apply_duration_seconds",
			metric.WithDescription("Duration of patch application attempts"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		applyTotal, err = meter.Int64Counter(
			"patch_apply_total",
			metric.WithDescription("Total number of patch application attempts by outcome"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// startApplySpan creates a span for one apply attempt.
func startApplySpan(ctx context.Context) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Applier.Apply")
}

// recordApply records latency and outcome for one apply attempt.
// Outcomes: applied, failed, stage_error, run_error.
func recordApply(ctx context.Context, elapsed time.Duration, outcome string) {
	if initMetrics() != nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	applyLatency.Record(ctx, elapsed.Seconds(), attrs)
	applyTotal.Add(ctx, 1, attrs)
}
