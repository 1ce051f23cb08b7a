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
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/AleutianAI/devflow/services/editor/risk"
)

// fakeRunner records invocations and returns a scripted result for the
// apply call. Config invocations always succeed.
type fakeRunner struct {
	calls    [][]string
	exitCode int
	stdout   string
	stderr   string
	runErr   error
}

func (f *fakeRunner) Run(_ context.Context, args ...string) (int, string, string, error) {
	f.calls = append(f.calls, args)
	if len(args) > 0 && args[0] == "config" {
		return 0, "", "", nil
	}
	return f.exitCode, f.stdout, f.stderr, f.runErr
}

func newTestTools(t *testing.T, runner *fakeRunner) (*Tools, string) {
	t.Helper()
	root := t.TempDir()
	tools, err := NewWithRunner(root, DefaultConfig(), runner, nil)
	if err != nil {
		t.Fatalf("NewWithRunner() error = %v", err)
	}
	return tools, root
}

func seedFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

// manyLines builds a file body of n numbered lines.
func manyLines(n int) string {
	var sb strings.Builder
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&sb, "line %d\n", i)
	}
	return sb.String()
}

func TestApplyPatch_SmallPatchApplied(t *testing.T) {
	runner := &fakeRunner{}
	tools, root := newTestTools(t, runner)
	seedFile(t, root, "app.go", manyLines(100))

	patch := `diff --git a/app.go b/app.go
--- a/app.go
+++ b/app.go
@@ -50,3 +50,4 @@
 line 50
-line 51
+line fifty-one
+line fifty-one-b
 line 52
`

	msg, err := tools.ApplyPatch(context.Background(), patch)
	if err != nil {
		t.Fatalf("ApplyPatch() error = %v", err)
	}
	if !strings.HasPrefix(msg, "OK: patch applied") {
		t.Errorf("message = %q", msg)
	}

	// config pin first, then the single apply invocation.
	if len(runner.calls) != 2 {
		t.Fatalf("git calls = %d, want 2", len(runner.calls))
	}
	if runner.calls[1][0] != "apply" {
		t.Errorf("second call = %v, want apply", runner.calls[1])
	}
}

func TestApplyPatch_RewriteRejectedBeforeGit(t *testing.T) {
	runner := &fakeRunner{}
	tools, root := newTestTools(t, runner)
	seedFile(t, root, "app.go", manyLines(20))

	// Touches 19 of 20 lines: well past the rewrite threshold.
	var sb strings.Builder
	sb.WriteString("diff --git a/app.go b/app.go\n--- a/app.go\n+++ b/app.go\n@@ -1,20 +1,20 @@\n")
	for i := 1; i <= 19; i++ {
		fmt.Fprintf(&sb, "-line %d\n", i)
	}
	for i := 1; i <= 19; i++ {
		fmt.Fprintf(&sb, "+replaced %d\n", i)
	}
	sb.WriteString(" line 20\n")

	msg, err := tools.ApplyPatch(context.Background(), sb.String())
	if !errors.Is(err, ErrRewriteRejected) {
		t.Fatalf("error = %v, want ErrRewriteRejected", err)
	}
	if !strings.Contains(msg, "looks like a rewrite") {
		t.Errorf("message = %q", msg)
	}
	if !strings.Contains(msg, "app.go") {
		t.Errorf("message should name the offending file: %q", msg)
	}
	if len(runner.calls) != 0 {
		t.Errorf("git was invoked %d times on a rejected buffer", len(runner.calls))
	}
}

func TestApplyPatch_OverrideTokenAllowsRewrite(t *testing.T) {
	runner := &fakeRunner{}
	tools, root := newTestTools(t, runner)
	seedFile(t, root, "app.go", manyLines(20))

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n", risk.OverrideToken)
	sb.WriteString("diff --git a/app.go b/app.go\n--- a/app.go\n+++ b/app.go\n@@ -1,20 +1,20 @@\n")
	for i := 1; i <= 19; i++ {
		fmt.Fprintf(&sb, "-line %d\n", i)
	}
	for i := 1; i <= 19; i++ {
		fmt.Fprintf(&sb, "+replaced %d\n", i)
	}
	sb.WriteString(" line 20\n")

	msg, err := tools.ApplyPatch(context.Background(), sb.String())
	if err != nil {
		t.Fatalf("ApplyPatch() error = %v", err)
	}
	if !strings.HasPrefix(msg, "OK: patch applied") {
		t.Errorf("message = %q", msg)
	}
}

func TestApplyPatch_NewFileNotGated(t *testing.T) {
	runner := &fakeRunner{}
	tools, _ := newTestTools(t, runner)

	// A brand-new 50-line file: exempt from the rewrite checks.
	var sb strings.Builder
	sb.WriteString("diff --git a/fresh.go b/fresh.go\n--- /dev/null\n+++ b/fresh.go\n@@ -0,0 +1,50 @@\n")
	for i := 1; i <= 50; i++ {
		fmt.Fprintf(&sb, "+new line %d\n", i)
	}

	if _, err := tools.ApplyPatch(context.Background(), sb.String()); err != nil {
		t.Fatalf("ApplyPatch() error = %v", err)
	}
}

func TestApplyPatch_GitFailureForwardsDiagnostics(t *testing.T) {
	runner := &fakeRunner{exitCode: 1, stderr: "error: patch does not apply"}
	tools, root := newTestTools(t, runner)
	seedFile(t, root, "app.go", manyLines(100))

	patch := `diff --git a/app.go b/app.go
--- a/app.go
+++ b/app.go
@@ -50,2 +50,2 @@
 line 50
-line 51
+line fifty-one
`

	msg, err := tools.ApplyPatch(context.Background(), patch)
	if !errors.Is(err, ErrApplyFailed) {
		t.Fatalf("error = %v, want ErrApplyFailed", err)
	}
	if !strings.Contains(msg, "patch does not apply") {
		t.Errorf("message should carry git stderr: %q", msg)
	}
	if !strings.Contains(msg, "change.patch") {
		t.Errorf("message should carry the patch artifact path: %q", msg)
	}
}

func TestApplyPatch_MalformedBufferStillForwarded(t *testing.T) {
	// No parseable file blocks means nothing to gate; git gets the buffer
	// and produces its own diagnosis.
	runner := &fakeRunner{exitCode: 128, stderr: "fatal: unrecognized input"}
	tools, _ := newTestTools(t, runner)

	msg, err := tools.ApplyPatch(context.Background(), "not a diff at all")
	if !errors.Is(err, ErrApplyFailed) {
		t.Fatalf("error = %v, want ErrApplyFailed", err)
	}
	if !strings.Contains(msg, "unrecognized input") {
		t.Errorf("message = %q", msg)
	}
}

func TestApplyPatch_SyntaxWarningsAppended(t *testing.T) {
	runner := &fakeRunner{}
	root := t.TempDir()
	cfg := DefaultConfig()
	cfg.SyntaxCheck = true
	tools, err := NewWithRunner(root, cfg, runner, nil)
	if err != nil {
		t.Fatalf("NewWithRunner() error = %v", err)
	}

	patch := `diff --git a/main.go b/main.go
--- /dev/null
+++ b/main.go
@@ -0,0 +1,3 @@
+package main
+
+func main() {
`

	msg, applyErr := tools.ApplyPatch(context.Background(), patch)
	if applyErr != nil {
		t.Fatalf("ApplyPatch() error = %v", applyErr)
	}
	if !strings.Contains(msg, "syntax error") {
		t.Errorf("message should carry the advisory warning: %q", msg)
	}
	if !strings.HasPrefix(msg, "OK: patch applied") {
		t.Errorf("warnings must not block application: %q", msg)
	}
}

func TestApplyPatchDetailed_StructuredOutcome(t *testing.T) {
	runner := &fakeRunner{}
	tools, root := newTestTools(t, runner)
	seedFile(t, root, "app.go", manyLines(100))

	patch := `diff --git a/app.go b/app.go
--- a/app.go
+++ b/app.go
@@ -50,3 +50,3 @@
 line 50
-line 51
+line fifty-one
 line 52
`

	outcome, err := tools.ApplyPatchDetailed(context.Background(), patch)
	if err != nil {
		t.Fatalf("ApplyPatchDetailed() error = %v", err)
	}
	if !outcome.Verdict.Allowed {
		t.Error("verdict not allowed")
	}
	if outcome.Result == nil || !outcome.Result.Success {
		t.Errorf("result = %+v", outcome.Result)
	}
	if outcome.Result.PatchPath == "" {
		t.Error("missing patch artifact path")
	}
}

func TestApplyPatchDetailed_RejectionCarriesMetrics(t *testing.T) {
	runner := &fakeRunner{}
	tools, root := newTestTools(t, runner)
	seedFile(t, root, "app.go", manyLines(20))

	var sb strings.Builder
	sb.WriteString("diff --git a/app.go b/app.go\n--- a/app.go\n+++ b/app.go\n@@ -1,20 +1,20 @@\n")
	for i := 1; i <= 19; i++ {
		fmt.Fprintf(&sb, "-line %d\n", i)
	}
	for i := 1; i <= 19; i++ {
		fmt.Fprintf(&sb, "+replaced %d\n", i)
	}
	sb.WriteString(" line 20\n")

	outcome, err := tools.ApplyPatchDetailed(context.Background(), sb.String())
	if !errors.Is(err, ErrRewriteRejected) {
		t.Fatalf("error = %v, want ErrRewriteRejected", err)
	}
	if outcome.Result != nil {
		t.Error("rejected buffer should carry no apply result")
	}
	if outcome.Verdict.Metrics.TotalLines != 20 {
		t.Errorf("metrics = %+v", outcome.Verdict.Metrics)
	}
}

func TestReplaceText_Delegates(t *testing.T) {
	tools, root := newTestTools(t, &fakeRunner{})
	seedFile(t, root, "cfg.txt", "alpha\nbeta\ngamma\n")

	msg, err := tools.ReplaceText("cfg.txt", "beta", "BETA")
	if err != nil {
		t.Fatalf("ReplaceText() error = %v", err)
	}
	if !strings.Contains(msg, "cfg.txt") {
		t.Errorf("message = %q", msg)
	}

	got, err := os.ReadFile(filepath.Join(root, "cfg.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "alpha\nBETA\ngamma\n" {
		t.Errorf("file = %q", got)
	}
}

func TestReplaceText_SizeRefusalSurfaces(t *testing.T) {
	tools, root := newTestTools(t, &fakeRunner{})
	seedFile(t, root, "cfg.txt", "alpha\n")

	_, err := tools.ReplaceText("cfg.txt", strings.Repeat("x", 301), "y")
	if !errors.Is(err, ErrSizeLimitExceeded) {
		t.Fatalf("error = %v, want ErrSizeLimitExceeded", err)
	}
}

func TestCreateFile_Delegates(t *testing.T) {
	tools, root := newTestTools(t, &fakeRunner{})

	if _, err := tools.CreateFile("pkg/new.txt", "hello\n"); err != nil {
		t.Fatalf("CreateFile() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "pkg", "new.txt")); err != nil {
		t.Errorf("file not created: %v", err)
	}

	_, err := tools.CreateFile("pkg/new.txt", "other\n")
	if !errors.Is(err, ErrOverwriteRefused) {
		t.Fatalf("error = %v, want ErrOverwriteRefused", err)
	}
}

func TestNewWithRunner_Validation(t *testing.T) {
	if _, err := NewWithRunner("relative/path", DefaultConfig(), &fakeRunner{}, nil); err == nil {
		t.Error("relative root accepted")
	}

	bad := DefaultConfig()
	bad.Guard.TouchRatioLimit = -1
	if _, err := NewWithRunner(t.TempDir(), bad, &fakeRunner{}, nil); err == nil {
		t.Error("invalid config accepted")
	}
}

func TestToolRegistry_ContainsAllTools(t *testing.T) {
	reg := NewToolRegistry()
	if got := len(reg.GetTools()); got != 3 {
		t.Fatalf("tool count = %d, want 3", got)
	}

	for _, name := range []string{"apply_unified_patch", "replace_text", "create_file"} {
		def, ok := reg.GetTool(name)
		if !ok {
			t.Errorf("missing tool %q", name)
			continue
		}
		if def.Description == "" || len(def.Parameters) == 0 {
			t.Errorf("tool %q underspecified: %+v", name, def)
		}
	}

	if _, ok := reg.GetTool("delete_file"); ok {
		t.Error("unknown tool resolved")
	}
}
