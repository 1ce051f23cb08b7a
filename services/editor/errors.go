// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package editor

import (
	"errors"

	"github.com/AleutianAI/devflow/services/editor/edit"
)

// Sentinel errors for the editing tool surface. None are fatal: every
// refusal comes with a human-readable message so the calling control loop
// can adapt its next action instead of aborting.
var (
	// ErrRewriteRejected is returned when the guard gate vetoes a patch
	// as a disguised rewrite. Recoverable with a smaller diff or the
	// override marker.
	ErrRewriteRejected = errors.New("patch rejected as a near-rewrite")

	// ErrApplyFailed is returned when the external apply primitive exits
	// nonzero. Its diagnostics are forwarded verbatim in the message.
	ErrApplyFailed = errors.New("patch application failed")

	// ErrSizeLimitExceeded mirrors the substitution editor's cap veto.
	ErrSizeLimitExceeded = edit.ErrSizeLimitExceeded

	// ErrPathNotFound mirrors the substitution editor's missing target.
	ErrPathNotFound = edit.ErrPathNotFound

	// ErrPatternNotFound mirrors the substitution editor's failed match.
	ErrPatternNotFound = edit.ErrPatternNotFound

	// ErrNoOpChange mirrors the substitution editor's identical-content
	// warning.
	ErrNoOpChange = edit.ErrNoOpChange

	// ErrOverwriteRefused mirrors the write guard's veto.
	ErrOverwriteRefused = edit.ErrOverwriteRefused
)
