// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package diffscan

import (
	"strings"
	"testing"
)

const singleFilePatch = `diff --git a/pkg/app/config.go b/pkg/app/config.go
--- a/pkg/app/config.go
+++ b/pkg/app/config.go
@@ -10,6 +10,7 @@ func Load() Config {
 	cfg := Config{}
 	cfg.Timeout = defaultTimeout
 	cfg.Retries = defaultRetries
+	cfg.Verbose = false
 	return cfg
 }

`

const multiFilePatch = `diff --git a/a.txt b/a.txt
--- a/a.txt
+++ b/a.txt
@@ -1,3 +1,3 @@
 one
-two
+TWO
 three
diff --git a/b.txt b/b.txt
--- a/b.txt
+++ b/b.txt
@@ -5,3 +5,4 @@
 five
 six
+six-and-a-half
 seven
`

const creationPatch = `diff --git a/newfile.txt b/newfile.txt
--- /dev/null
+++ b/newfile.txt
@@ -0,0 +1,2 @@
+hello
+world
`

const deletionPatch = `diff --git a/gone.txt b/gone.txt
--- a/gone.txt
+++ /dev/null
@@ -1,2 +0,0 @@
-hello
-world
`

func TestParse_Empty(t *testing.T) {
	for _, in := range []string{"", "   \n\n", "not a diff at all\njust text\n"} {
		if blocks := Parse(in); len(blocks) != 0 {
			t.Errorf("Parse(%q) = %d blocks, want 0", in, len(blocks))
		}
	}
}

func TestParse_SingleFile(t *testing.T) {
	blocks := Parse(singleFilePatch)
	if len(blocks) != 1 {
		t.Fatalf("Parse() = %d blocks, want 1", len(blocks))
	}

	b := blocks[0]
	if b.OrigPath != "a/pkg/app/config.go" || b.NewPath != "b/pkg/app/config.go" {
		t.Errorf("paths = %q -> %q", b.OrigPath, b.NewPath)
	}
	if b.Adds != 1 || b.Dels != 0 {
		t.Errorf("counts = +%d -%d, want +1 -0", b.Adds, b.Dels)
	}
	if b.HunkCount != 1 {
		t.Errorf("HunkCount = %d, want 1", b.HunkCount)
	}
	if b.TopHunkStart != 10 {
		t.Errorf("TopHunkStart = %d, want 10", b.TopHunkStart)
	}
	if b.AnchoredAt(3) {
		t.Error("AnchoredAt(3) = true for hunk starting at line 10")
	}
	if got := b.TargetPath(); got != "pkg/app/config.go" {
		t.Errorf("TargetPath() = %q", got)
	}
}

func TestParse_MultiFile(t *testing.T) {
	blocks := Parse(multiFilePatch)
	if len(blocks) != 2 {
		t.Fatalf("Parse() = %d blocks, want 2", len(blocks))
	}

	if got := blocks[0].TargetPath(); got != "a.txt" {
		t.Errorf("blocks[0].TargetPath() = %q", got)
	}
	if blocks[0].Adds != 1 || blocks[0].Dels != 1 {
		t.Errorf("blocks[0] counts = +%d -%d, want +1 -1", blocks[0].Adds, blocks[0].Dels)
	}
	if !blocks[0].AnchoredAt(3) {
		t.Error("blocks[0] should be anchored at top (hunk starts at line 1)")
	}

	if got := blocks[1].TargetPath(); got != "b.txt" {
		t.Errorf("blocks[1].TargetPath() = %q", got)
	}
	if blocks[1].AnchoredAt(3) {
		t.Error("blocks[1] should not be anchored at top (hunk starts at line 5)")
	}
}

func TestParse_Creation(t *testing.T) {
	blocks := Parse(creationPatch)
	if len(blocks) != 1 {
		t.Fatalf("Parse() = %d blocks, want 1", len(blocks))
	}

	b := blocks[0]
	if !b.IsCreation() {
		t.Error("IsCreation() = false")
	}
	if b.IsDeletion() {
		t.Error("IsDeletion() = true")
	}
	if got := b.TargetPath(); got != "newfile.txt" {
		t.Errorf("TargetPath() = %q", got)
	}
	if b.Adds != 2 || b.Dels != 0 {
		t.Errorf("counts = +%d -%d, want +2 -0", b.Adds, b.Dels)
	}
}

func TestParse_Deletion(t *testing.T) {
	blocks := Parse(deletionPatch)
	if len(blocks) != 1 {
		t.Fatalf("Parse() = %d blocks, want 1", len(blocks))
	}

	b := blocks[0]
	if !b.IsDeletion() {
		t.Error("IsDeletion() = false")
	}
	if got := b.TargetPath(); got != "gone.txt" {
		t.Errorf("TargetPath() = %q (deletion falls back to old side)", got)
	}
	if b.Dels != 2 {
		t.Errorf("Dels = %d, want 2", b.Dels)
	}
}

func TestParse_CRLFBuffer(t *testing.T) {
	crlf := strings.ReplaceAll(singleFilePatch, "\n", "\r\n")
	blocks := Parse(crlf)
	if len(blocks) != 1 {
		t.Fatalf("Parse(CRLF) = %d blocks, want 1", len(blocks))
	}
	if blocks[0].Adds != 1 {
		t.Errorf("Adds = %d, want 1", blocks[0].Adds)
	}
}

func TestParse_DoesNotMutateInput(t *testing.T) {
	in := strings.ReplaceAll(singleFilePatch, "\n", "\r\n")
	before := in
	_ = Parse(in)
	if in != before {
		t.Error("Parse mutated its input")
	}
}
