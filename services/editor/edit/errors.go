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

import "errors"

// Sentinel errors for the substitution and write-guard paths. None of
// these are fatal: callers report them and keep operating.
var (
	// ErrSizeLimitExceeded is returned when old or new text exceeds the
	// substitution caps. Recoverable by switching to the patch applier.
	ErrSizeLimitExceeded = errors.New("edit exceeds substitution size limits")

	// ErrPathNotFound is returned when the target file does not exist.
	ErrPathNotFound = errors.New("file does not exist")

	// ErrPatternNotFound is returned when the old text is absent from the
	// file, including after line-ending normalization.
	ErrPatternNotFound = errors.New("pattern not found in file")

	// ErrNoOpChange is returned when the replacement resolves to content
	// identical to the original; the file is left untouched.
	ErrNoOpChange = errors.New("no changes applied")

	// ErrOverwriteRefused is returned when file creation targets a path
	// that already holds content.
	ErrOverwriteRefused = errors.New("refusing to overwrite existing file")
)
