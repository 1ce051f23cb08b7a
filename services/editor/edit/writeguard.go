// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package edit

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// WriteGuard creates new files but refuses to clobber existing content.
type WriteGuard struct {
	root   string
	logger *slog.Logger
}

// NewWriteGuard creates a write guard rooted at the given directory.
func NewWriteGuard(root string, logger *slog.Logger) *WriteGuard {
	if logger == nil {
		logger = slog.Default()
	}
	return &WriteGuard{root: root, logger: logger}
}

// Create writes content to a path that must not already exist.
//
// # Description
//
// If a file is present at the path, the call refuses with guidance and
// makes no disk change, regardless of the supplied content. Intermediate
// directories are created only on the permitted path.
//
// # Inputs
//
//   - path: Target file, absolute or relative to the guard root.
//   - content: Full content for the new file.
//
// # Outputs
//
//   - string: Human-readable result message.
//   - error: ErrOverwriteRefused (wrapped) when the path already exists.
func (g *WriteGuard) Create(path, content string) (string, error) {
	display := displayPath(path)

	full := path
	if !filepath.IsAbs(full) {
		full = filepath.Join(g.root, full)
	}

	if _, err := os.Stat(full); err == nil {
		msg := fmt.Sprintf(
			"Refusing to overwrite existing file: %s. "+
				"Use the patch applier or the substitution editor instead.", display)
		g.logger.Warn("overwrite refused", slog.String("file", display))
		return msg, fmt.Errorf("%s: %w", display, ErrOverwriteRefused)
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("checking %s: %w", display, err)
	}

	if dir := filepath.Dir(full); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("creating directories for %s: %w", display, err)
		}
	}

	if err := os.WriteFile(full, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("writing %s: %w", display, err)
	}

	g.logger.Info("file created",
		slog.String("file", display),
		slog.Int("bytes", len(content)),
	)
	return fmt.Sprintf("Wrote %d chars to %s", len(content), display), nil
}
