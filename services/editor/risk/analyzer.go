// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package risk computes change-volume metrics for patch blocks and decides
// whether a patch is a legitimate surgical edit or a disguised rewrite.
//
// # Description
//
// The analyzer measures each file block against the file's current on-disk
// size; the gate turns those measurements into a single allow/reject
// verdict for the whole buffer. Risk is evaluated for every block before
// any filesystem mutation, and one rejected block rejects the entire
// buffer.
//
// # Thread Safety
//
// Analyzer and Gate hold no mutable state and are safe for concurrent use.
package risk

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/AleutianAI/devflow/services/editor/diffscan"
)

// Metrics captures the change volume of one file block relative to the
// file's current contents.
type Metrics struct {
	// Path is the resolved target path relative to the repository root,
	// or "" when the block names no file.
	Path string

	// Exists reports whether the target file is currently on disk.
	// Blocks for absent targets (file creation) are exempt from gating.
	Exists bool

	// TotalLines is the target file's current line count (0 when absent).
	TotalLines int

	// Adds is the number of inserted lines in the block.
	Adds int

	// Dels is the number of removed lines in the block.
	Dels int

	// Hunks is the number of hunks in the block.
	Hunks int

	// TouchRatio is (Adds+Dels) / max(TotalLines, 1). For absent targets
	// it is reported as 1.0 but carries no policy weight.
	TouchRatio float64

	// AnchoredAtTop reports whether any hunk starts at or above the
	// configured anchor line on the new side.
	AnchoredAtTop bool
}

// Touched returns the total number of added and removed lines.
func (m Metrics) Touched() int {
	return m.Adds + m.Dels
}

// Analyzer resolves patch blocks against the working tree.
type Analyzer struct {
	root       string
	anchorLine int
	logger     *slog.Logger
}

// NewAnalyzer creates an analyzer rooted at the given directory.
//
// # Inputs
//
//   - root: Directory against which block paths are resolved.
//   - anchorLine: Hunks starting at or above this new-side line count as
//     anchored at the top of the file.
//   - logger: Destination for per-block analysis lines. Nil uses the
//     default logger.
func NewAnalyzer(root string, anchorLine int, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{root: root, anchorLine: anchorLine, logger: logger}
}

// Analyze computes metrics for a single block.
func (a *Analyzer) Analyze(block diffscan.FileChangeBlock) Metrics {
	m := Metrics{
		Path:          block.TargetPath(),
		Adds:          block.Adds,
		Dels:          block.Dels,
		Hunks:         block.HunkCount,
		AnchoredAtTop: block.AnchoredAt(a.anchorLine),
	}

	if m.Path != "" {
		if total, ok := countFileLines(filepath.Join(a.root, m.Path)); ok {
			m.Exists = true
			m.TotalLines = total
		}
	}

	if m.Exists {
		m.TouchRatio = float64(m.Touched()) / float64(max(m.TotalLines, 1))
	} else {
		// No existing target: a creation is inherently a full write.
		m.TouchRatio = 1.0
	}

	display := m.Path
	if display == "" {
		display = "<new-file>"
	}
	a.logger.Debug("patch block analyzed",
		slog.String("file", display),
		slog.Int("lines", m.TotalLines),
		slog.Int("adds", m.Adds),
		slog.Int("dels", m.Dels),
		slog.Float64("ratio", m.TouchRatio),
		slog.Bool("starts_at_top", m.AnchoredAtTop),
		slog.Int("hunks", m.Hunks),
	)

	return m
}

// AnalyzeAll computes metrics for every block, in order.
func (a *Analyzer) AnalyzeAll(blocks []diffscan.FileChangeBlock) []Metrics {
	metrics := make([]Metrics, 0, len(blocks))
	for _, b := range blocks {
		metrics = append(metrics, a.Analyze(b))
	}
	return metrics
}

// countFileLines counts lines in the file at path. A trailing fragment
// without a newline counts as a line. Returns ok=false when the file does
// not exist or cannot be read.
func countFileLines(path string) (int, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	s := string(data)
	lines := strings.Count(s, "\n")
	if len(s) > 0 && !strings.HasSuffix(s, "\n") {
		lines++
	}
	return lines, true
}
