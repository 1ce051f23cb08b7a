// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package edit provides the bounded substitution editor and the write
// guard: the two non-patch editing entry points.
//
// # Description
//
// The substitution editor replaces exactly one occurrence of an exact old
// text with a new text inside one existing file, under hard size caps that
// keep it from becoming a disguised block rewrite. The write guard creates
// new files but never overwrites existing content. Both refuse with
// guidance rather than failing the process, and neither shares any state
// with the patch path.
//
// # Thread Safety
//
// Editor and WriteGuard hold no mutable state; callers must serialize
// edits to the same file.
package edit

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/AleutianAI/devflow/services/editor/eol"
)

// Limits caps the size of a substitution. Edits over either cap belong in
// a unified diff instead.
type Limits struct {
	// MaxChars caps old and new text length in characters.
	MaxChars int `json:"max_chars" yaml:"max_chars"`

	// MaxLines caps old and new text length in lines.
	MaxLines int `json:"max_lines" yaml:"max_lines"`
}

// DefaultLimits returns the default substitution caps.
func DefaultLimits() Limits {
	return Limits{MaxChars: 300, MaxLines: 6}
}

// Validate checks the caps for internal consistency.
func (l Limits) Validate() error {
	if l.MaxChars < 1 {
		return fmt.Errorf("max_chars must be >= 1, got %d", l.MaxChars)
	}
	if l.MaxLines < 1 {
		return fmt.Errorf("max_lines must be >= 1, got %d", l.MaxLines)
	}
	return nil
}

// Editor performs bounded exact-text substitutions.
type Editor struct {
	root   string
	limits Limits
	logger *slog.Logger
}

// NewEditor creates a substitution editor rooted at the given directory.
//
// # Inputs
//
//   - root: Directory against which relative paths are resolved.
//   - limits: Substitution size caps.
//   - logger: Destination for edit telemetry. Nil uses the default.
func NewEditor(root string, limits Limits, logger *slog.Logger) (*Editor, error) {
	if err := limits.Validate(); err != nil {
		return nil, fmt.Errorf("invalid edit limits: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Editor{root: root, limits: limits, logger: logger}, nil
}

// Replace substitutes the first occurrence of oldText with newText in the
// file at path.
//
// # Description
//
// Preconditions are checked before any disk access: both texts must fit
// the configured caps. Matching tries the exact bytes first, then retries
// with all three buffers normalized to LF; on a normalized match the
// result is re-expanded to the file's dominant line-ending style before
// writing, so every untouched byte of the file stays untouched. A
// replacement that resolves to identical content is reported as a no-op
// and the file is not rewritten.
//
// # Inputs
//
//   - path: Target file, absolute or relative to the editor root.
//   - oldText: Exact text to replace. First occurrence only.
//   - newText: Replacement text.
//
// # Outputs
//
//   - string: Human-readable result message.
//   - error: One of the package sentinels (wrapped) on refusal.
func (e *Editor) Replace(path, oldText, newText string) (string, error) {
	display := displayPath(path)

	if over, what := e.overLimit(oldText, newText); over {
		msg := fmt.Sprintf(
			"Refusing large edit (%s): limits are %d chars / %d lines. "+
				"Use the patch applier with a small, context-rich hunk instead.",
			what, e.limits.MaxChars, e.limits.MaxLines)
		return msg, fmt.Errorf("%s: %w", display, ErrSizeLimitExceeded)
	}

	full := e.resolve(path)
	data, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Sprintf("Error: File does not exist: %s", display),
				fmt.Errorf("%s: %w", display, ErrPathNotFound)
		}
		return "", fmt.Errorf("reading %s: %w", display, err)
	}
	original := string(data)

	updated, found := substitute(original, oldText, newText)
	if !found {
		return fmt.Sprintf("Error: Pattern not found in %s", display),
			fmt.Errorf("%s: %w", display, ErrPatternNotFound)
	}

	if updated == original {
		return fmt.Sprintf("Warning: No changes applied to %s", display),
			fmt.Errorf("%s: %w", display, ErrNoOpChange)
	}

	mode := os.FileMode(0644)
	if info, statErr := os.Stat(full); statErr == nil {
		mode = info.Mode().Perm()
	}
	if err := os.WriteFile(full, []byte(updated), mode); err != nil {
		return "", fmt.Errorf("writing %s: %w", display, err)
	}

	e.logger.Info("substitution applied",
		slog.String("file", display),
		slog.Int("old_len", len(oldText)),
		slog.Int("new_len", len(newText)),
	)
	return fmt.Sprintf("Successfully edited %s", display), nil
}

// substitute replaces the first occurrence of oldText, falling back to a
// newline-tolerant match. Returns found=false when neither matches.
func substitute(original, oldText, newText string) (string, bool) {
	if strings.Contains(original, oldText) {
		return strings.Replace(original, oldText, newText, 1), true
	}

	style := eol.Detect(original)
	normOriginal := eol.ToLF(original)
	normOld := eol.ToLF(oldText)
	normNew := eol.ToLF(newText)

	if !strings.Contains(normOriginal, normOld) {
		return "", false
	}

	normUpdated := strings.Replace(normOriginal, normOld, normNew, 1)
	return eol.Apply(normUpdated, style), true
}

// overLimit reports whether either text breaches the caps, naming the
// offending measurement.
func (e *Editor) overLimit(oldText, newText string) (bool, string) {
	switch {
	case len(oldText) > e.limits.MaxChars:
		return true, fmt.Sprintf("old text is %d chars", len(oldText))
	case len(newText) > e.limits.MaxChars:
		return true, fmt.Sprintf("new text is %d chars", len(newText))
	case lineCount(oldText) > e.limits.MaxLines:
		return true, fmt.Sprintf("old text is %d lines", lineCount(oldText))
	case lineCount(newText) > e.limits.MaxLines:
		return true, fmt.Sprintf("new text is %d lines", lineCount(newText))
	}
	return false, ""
}

func (e *Editor) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(e.root, path)
}

// lineCount counts lines the way the caps are defined: empty text has
// zero lines, otherwise newlines + 1.
func lineCount(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(s, "\n") + 1
}

// displayPath renders a path with forward slashes regardless of host
// convention.
func displayPath(path string) string {
	return filepath.ToSlash(path)
}
