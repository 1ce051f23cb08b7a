// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package diffscan splits a unified-diff buffer into per-file change blocks.
//
// # Description
//
// The scanner is the first stage of the patch pipeline. It parses a raw
// patch buffer and produces one FileChangeBlock per file, carrying the
// change-volume counts the risk analyzer needs. Parsing is deliberately
// forgiving: an empty or malformed buffer yields zero blocks, not an error,
// because the external apply primitive downstream is the authority on
// whether a buffer is usable.
//
// # Thread Safety
//
// All functions are stateless and safe for concurrent use.
package diffscan

import (
	"strings"

	"github.com/sourcegraph/go-diff/diff"

	"github.com/AleutianAI/devflow/services/editor/eol"
)

// NoFile is the path sentinel marking the absent side of a file creation
// or deletion in a unified diff.
const NoFile = "/dev/null"

// FileChangeBlock describes one file's portion of a patch buffer.
//
// # Description
//
// Counts are derived from hunk bodies: Adds and Dels exclude the +++/---
// header lines. TopHunkStart is the smallest new-side starting line across
// all hunks, used to detect changes anchored at the top of a file.
type FileChangeBlock struct {
	// OrigPath is the old-side path as written in the diff, including any
	// a/ prefix, or NoFile for a created file.
	OrigPath string

	// NewPath is the new-side path as written in the diff, including any
	// b/ prefix, or NoFile for a deleted file.
	NewPath string

	// Adds is the number of inserted lines.
	Adds int

	// Dels is the number of removed lines.
	Dels int

	// HunkCount is the number of hunks in this block.
	HunkCount int

	// TopHunkStart is the minimum new-side starting line across hunks,
	// or 0 when the block has no hunks.
	TopHunkStart int
}

// AnchoredAt reports whether any hunk's new-side starting line is at or
// above the given anchor line.
func (b FileChangeBlock) AnchoredAt(line int) bool {
	return b.TopHunkStart > 0 && b.TopHunkStart <= line
}

// TargetPath resolves the path this block ultimately touches.
//
// # Description
//
// Prefers the new-side path, falling back to the old side, treating NoFile
// as absent. The a/ and b/ prefixes git places in headers are stripped.
// Returns "" when neither side names a file.
func (b FileChangeBlock) TargetPath() string {
	if p := stripDiffPrefix(b.NewPath); p != "" {
		return p
	}
	return stripDiffPrefix(b.OrigPath)
}

// IsCreation reports whether the block creates a file.
func (b FileChangeBlock) IsCreation() bool {
	return stripDiffPrefix(b.OrigPath) == ""
}

// IsDeletion reports whether the block deletes a file.
func (b FileChangeBlock) IsDeletion() bool {
	return stripDiffPrefix(b.NewPath) == ""
}

// stripDiffPrefix removes the a/ or b/ header prefix and maps the NoFile
// sentinel to "".
func stripDiffPrefix(p string) string {
	if p == "" || p == NoFile {
		return ""
	}
	if strings.HasPrefix(p, "a/") || strings.HasPrefix(p, "b/") {
		return p[2:]
	}
	return p
}

// Parse splits a patch buffer into per-file change blocks.
//
// # Description
//
// The buffer is normalized to LF in a working copy before parsing; the
// input is never mutated. Every parse failure collapses to an empty result
// so callers see a uniform "nothing to analyze" outcome for empty,
// truncated, or non-diff input.
//
// # Inputs
//
//   - buffer: Raw unified-diff text.
//
// # Outputs
//
//   - []FileChangeBlock: One block per file, in buffer order. Empty for
//     empty or malformed input.
func Parse(buffer string) []FileChangeBlock {
	normalized := eol.ToLF(buffer)
	if strings.TrimSpace(normalized) == "" {
		return nil
	}

	fileDiffs, err := diff.NewMultiFileDiffReader(strings.NewReader(normalized)).ReadAllFiles()
	if err != nil {
		return nil
	}

	blocks := make([]FileChangeBlock, 0, len(fileDiffs))
	for _, fd := range fileDiffs {
		blocks = append(blocks, blockFromFileDiff(fd))
	}
	return blocks
}

// blockFromFileDiff reduces a parsed file diff to its change-volume counts.
func blockFromFileDiff(fd *diff.FileDiff) FileChangeBlock {
	block := FileChangeBlock{
		OrigPath:  fd.OrigName,
		NewPath:   fd.NewName,
		HunkCount: len(fd.Hunks),
	}

	for _, hunk := range fd.Hunks {
		start := int(hunk.NewStartLine)
		if block.TopHunkStart == 0 || (start > 0 && start < block.TopHunkStart) {
			block.TopHunkStart = start
		}

		for _, line := range strings.Split(string(hunk.Body), "\n") {
			switch {
			case strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++"):
				block.Adds++
			case strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "---"):
				block.Dels++
			}
		}
	}

	return block
}
