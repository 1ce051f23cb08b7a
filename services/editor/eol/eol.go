// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package eol provides line-ending detection and normalization.
//
// # Description
//
// Both the patch path and the substitution path must agree on what counts
// as "unchanged" when the only difference between two buffers is CRLF vs
// LF. This package is the single definition of that agreement: buffers are
// normalized to LF for comparison and analysis, and results are re-expanded
// to the file's dominant style before writing.
//
// # Thread Safety
//
// All functions are pure and safe for concurrent use.
package eol

import "strings"

// Style identifies a line-ending convention.
type Style string

const (
	// LF is the Unix convention ("\n").
	LF Style = "\n"

	// CRLF is the Windows convention ("\r\n").
	CRLF Style = "\r\n"
)

// String returns a printable name for the style.
func (s Style) String() string {
	if s == CRLF {
		return "CRLF"
	}
	return "LF"
}

// ToLF normalizes all CRLF sequences in s to LF.
//
// The input is never modified; a normalized copy is returned. Lone CR
// characters are left alone so that binary-ish content round-trips.
func ToLF(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}

// Detect returns the dominant line-ending style of s.
//
// # Description
//
// Counts CRLF and bare-LF terminators. CRLF wins only when it accounts for
// more than half of all newlines (majority rule); ties and newline-free
// content resolve to LF.
//
// # Inputs
//
//   - s: Content to inspect.
//
// # Outputs
//
//   - Style: LF or CRLF.
func Detect(s string) Style {
	total := strings.Count(s, "\n")
	if total == 0 {
		return LF
	}
	crlf := strings.Count(s, "\r\n")
	if crlf*2 > total {
		return CRLF
	}
	return LF
}

// Apply re-expands LF-normalized content to the given style.
//
// Content is normalized first, so Apply is safe to call on mixed input.
func Apply(s string, style Style) string {
	s = ToLF(s)
	if style == CRLF {
		return strings.ReplaceAll(s, "\n", "\r\n")
	}
	return s
}
