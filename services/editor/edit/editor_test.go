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
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestEditor(t *testing.T) (*Editor, string) {
	t.Helper()
	dir := t.TempDir()
	e, err := NewEditor(dir, DefaultLimits(), nil)
	if err != nil {
		t.Fatalf("NewEditor() error = %v", err)
	}
	return e, dir
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestEditor_SimpleReplace(t *testing.T) {
	e, dir := newTestEditor(t)
	path := writeFile(t, dir, "f.go", "alpha\nbeta\ngamma\n")

	msg, err := e.Replace("f.go", "beta", "BETA")
	if err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	if !strings.Contains(msg, "Successfully edited") {
		t.Errorf("msg = %q", msg)
	}
	if got := readFile(t, path); got != "alpha\nBETA\ngamma\n" {
		t.Errorf("file = %q", got)
	}
}

func TestEditor_FirstOccurrenceOnly(t *testing.T) {
	e, dir := newTestEditor(t)
	path := writeFile(t, dir, "f.txt", "x x x")

	if _, err := e.Replace("f.txt", "x", "y"); err != nil {
		t.Fatal(err)
	}
	if got := readFile(t, path); got != "y x x" {
		t.Errorf("file = %q, want first occurrence only", got)
	}
}

func TestEditor_SizeLimits(t *testing.T) {
	e, dir := newTestEditor(t)
	original := "short content\n"
	path := writeFile(t, dir, "f.txt", original)

	t.Run("old_too_many_chars", func(t *testing.T) {
		_, err := e.Replace("f.txt", strings.Repeat("a", 301), "b")
		if !errors.Is(err, ErrSizeLimitExceeded) {
			t.Fatalf("err = %v, want ErrSizeLimitExceeded", err)
		}
	})

	t.Run("new_too_many_lines", func(t *testing.T) {
		_, err := e.Replace("f.txt", "short", strings.Repeat("line\n", 6)+"line")
		if !errors.Is(err, ErrSizeLimitExceeded) {
			t.Fatalf("err = %v, want ErrSizeLimitExceeded", err)
		}
	})

	t.Run("six_lines_allowed", func(t *testing.T) {
		six := "1\n2\n3\n4\n5\n6"
		if over, _ := e.overLimit(six, "x"); over {
			t.Error("6 lines should be within the cap")
		}
	})

	t.Run("file_untouched", func(t *testing.T) {
		if got := readFile(t, path); got != original {
			t.Errorf("file changed on refusal: %q", got)
		}
	})

	t.Run("refusal_points_at_patch_applier", func(t *testing.T) {
		msg, _ := e.Replace("f.txt", strings.Repeat("a", 301), "b")
		if !strings.Contains(msg, "patch applier") {
			t.Errorf("msg = %q", msg)
		}
	})
}

func TestEditor_PathNotFound(t *testing.T) {
	e, _ := newTestEditor(t)

	msg, err := e.Replace("missing.txt", "a", "b")
	if !errors.Is(err, ErrPathNotFound) {
		t.Fatalf("err = %v, want ErrPathNotFound", err)
	}
	if !strings.Contains(msg, "does not exist") {
		t.Errorf("msg = %q", msg)
	}
}

func TestEditor_PatternNotFound(t *testing.T) {
	e, dir := newTestEditor(t)
	original := "alpha\nbeta\n"
	path := writeFile(t, dir, "f.txt", original)

	msg, err := e.Replace("f.txt", "delta", "DELTA")
	if !errors.Is(err, ErrPatternNotFound) {
		t.Fatalf("err = %v, want ErrPatternNotFound", err)
	}
	if !strings.Contains(msg, "Pattern not found") {
		t.Errorf("msg = %q", msg)
	}
	if got := readFile(t, path); got != original {
		t.Errorf("file changed on refusal: %q", got)
	}
}

func TestEditor_NoOpChange(t *testing.T) {
	e, dir := newTestEditor(t)
	original := "alpha\nbeta\n"
	path := writeFile(t, dir, "f.txt", original)

	msg, err := e.Replace("f.txt", "beta", "beta")
	if !errors.Is(err, ErrNoOpChange) {
		t.Fatalf("err = %v, want ErrNoOpChange", err)
	}
	if !strings.Contains(msg, "No changes applied") {
		t.Errorf("msg = %q", msg)
	}
	if got := readFile(t, path); got != original {
		t.Errorf("file changed on no-op: %q", got)
	}
}

func TestEditor_CRLFPreserved(t *testing.T) {
	e, dir := newTestEditor(t)
	path := writeFile(t, dir, "f.txt", "one\r\ntwo\r\nthree\r\n")

	// Old text specified with LF: only the normalized fallback matches.
	if _, err := e.Replace("f.txt", "two\nthree", "TWO\nTHREE"); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}

	if got := readFile(t, path); got != "one\r\nTWO\r\nTHREE\r\n" {
		t.Errorf("file = %q, want CRLF preserved", got)
	}
}

func TestEditor_LFFileStaysLF(t *testing.T) {
	e, dir := newTestEditor(t)
	path := writeFile(t, dir, "f.txt", "one\ntwo\n")

	if _, err := e.Replace("f.txt", "two\r\n", "2\r\n"); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	if got := readFile(t, path); got != "one\n2\n" {
		t.Errorf("file = %q", got)
	}
}

func TestEditor_UntouchedBytesIdentical(t *testing.T) {
	e, dir := newTestEditor(t)
	original := "a\nb\nc\nd\ne\n"
	path := writeFile(t, dir, "f.txt", original)

	if _, err := e.Replace("f.txt", "c\n", "C\n"); err != nil {
		t.Fatal(err)
	}
	if got := readFile(t, path); got != "a\nb\nC\nd\ne\n" {
		t.Errorf("file = %q", got)
	}
}

func TestNewEditor_InvalidLimits(t *testing.T) {
	if _, err := NewEditor(t.TempDir(), Limits{MaxChars: 0, MaxLines: 6}, nil); err == nil {
		t.Fatal("NewEditor accepted zero max_chars")
	}
}
