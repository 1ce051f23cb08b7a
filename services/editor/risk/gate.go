// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package risk

import (
	"fmt"
	"log/slog"
	"strings"
)

// OverrideToken is the literal marker that, embedded anywhere in a patch
// buffer, disables rewrite rejection for that entire buffer. It is the
// intentional escape hatch for genuine full rewrites.
const OverrideToken = "[ALLOW_FULL_REWRITE]"

// Config holds the gate's policy thresholds.
//
// The values encode a policy judgment, not a law; they are configurable
// with defaults matching long-standing practice.
type Config struct {
	// TouchRatioLimit rejects blocks touching at least this fraction of
	// an existing file's lines.
	TouchRatioLimit float64 `json:"touch_ratio_limit" yaml:"touch_ratio_limit"`

	// TopHunkRatio rejects single top-anchored hunks touching at least
	// this fraction of an existing file's lines.
	TopHunkRatio float64 `json:"top_hunk_ratio" yaml:"top_hunk_ratio"`

	// TopAnchorLine is the new-side starting line at or above which a
	// hunk counts as anchored at the top of the file.
	TopAnchorLine int `json:"top_anchor_line" yaml:"top_anchor_line"`
}

// DefaultConfig returns the default gate thresholds.
func DefaultConfig() Config {
	return Config{
		TouchRatioLimit: 0.5,
		TopHunkRatio:    0.3,
		TopAnchorLine:   3,
	}
}

// Validate checks the thresholds for internal consistency.
func (c Config) Validate() error {
	if c.TouchRatioLimit <= 0 || c.TouchRatioLimit > 1 {
		return fmt.Errorf("touch_ratio_limit must be in (0, 1], got %v", c.TouchRatioLimit)
	}
	if c.TopHunkRatio <= 0 || c.TopHunkRatio > 1 {
		return fmt.Errorf("top_hunk_ratio must be in (0, 1], got %v", c.TopHunkRatio)
	}
	if c.TopAnchorLine < 1 {
		return fmt.Errorf("top_anchor_line must be >= 1, got %d", c.TopAnchorLine)
	}
	return nil
}

// Verdict is the gate's decision for an entire patch buffer.
type Verdict struct {
	// Allowed reports whether the buffer may proceed to the applier.
	Allowed bool

	// Override reports whether the override token suppressed the checks.
	Override bool

	// Path is the offending file for a rejection.
	Path string

	// Metrics are the offending block's measurements for a rejection.
	Metrics Metrics

	// Reason is a short human-readable cause for a rejection.
	Reason string

	// Guidance is remediation text for the caller.
	Guidance string
}

// Message renders the verdict the way tool callers expect: a refusal
// message for rejections, "" for allowed buffers.
func (v Verdict) Message() string {
	if v.Allowed {
		return ""
	}
	return fmt.Sprintf(
		"ERROR: Patch is too large for an existing file and looks like a rewrite.\n"+
			"File: %s (%d lines, +%d -%d, ratio %.0f%%, hunks %d)\n%s",
		v.Path, v.Metrics.TotalLines, v.Metrics.Adds, v.Metrics.Dels,
		v.Metrics.TouchRatio*100, v.Metrics.Hunks, v.Guidance,
	)
}

// Gate applies the rewrite-rejection policy to analyzed patch buffers.
type Gate struct {
	cfg    Config
	logger *slog.Logger
}

// NewGate creates a gate with the given thresholds.
func NewGate(cfg Config, logger *slog.Logger) (*Gate, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid gate config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{cfg: cfg, logger: logger}, nil
}

// Check decides whether a buffer may be applied.
//
// # Description
//
// Scans the raw buffer for the override token, then evaluates every
// block's metrics. Only blocks whose target exists on disk are gated:
// a rejection fires when the block touches at least TouchRatioLimit of
// the file, or consists of a single top-anchored hunk touching at least
// TopHunkRatio of it. The first offending block rejects the whole buffer.
//
// # Inputs
//
//   - buffer: The raw patch text (scanned for the override token only).
//   - metrics: Analyzer output for every block in the buffer.
//
// # Outputs
//
//   - Verdict: Allow/reject with the offending path, metrics, and
//     remediation guidance on rejection. No filesystem state is touched.
func (g *Gate) Check(buffer string, metrics []Metrics) Verdict {
	if strings.Contains(buffer, OverrideToken) {
		g.logger.Info("rewrite guard overridden", slog.String("token", OverrideToken))
		return Verdict{Allowed: true, Override: true}
	}

	for _, m := range metrics {
		if !m.Exists {
			continue
		}

		switch {
		case m.TouchRatio >= g.cfg.TouchRatioLimit:
			return g.reject(m, fmt.Sprintf("touches %.0f%% of the file (limit %.0f%%)",
				m.TouchRatio*100, g.cfg.TouchRatioLimit*100))
		case m.AnchoredAtTop && m.Hunks == 1 &&
			float64(m.Touched()) >= g.cfg.TopHunkRatio*float64(m.TotalLines):
			return g.reject(m, fmt.Sprintf("single hunk anchored at the top covers %.0f%% of the file (limit %.0f%%)",
				m.TouchRatio*100, g.cfg.TopHunkRatio*100))
		}
	}

	return Verdict{Allowed: true}
}

func (g *Gate) reject(m Metrics, reason string) Verdict {
	g.logger.Warn("patch rejected as near-rewrite",
		slog.String("file", m.Path),
		slog.String("reason", reason),
	)
	return Verdict{
		Path:    m.Path,
		Metrics: m,
		Reason:  reason,
		Guidance: "Guidance: generate a smaller, context-rich unified diff (change only necessary lines, " +
			"keep original spacing), or use the substitution editor for small exact replacements.\n" +
			"If a full rewrite is truly intended, include the literal token " + OverrideToken + " in the patch.",
	}
}
