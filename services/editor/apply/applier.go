// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package apply invokes the external git patch-application primitive with
// tolerant flags and reports the outcome.
//
// # Description
//
// The applier writes a normalized copy of the patch to a per-call temp
// location, pins line-ending translation off for the invocation scope, and
// runs `git apply` once with the configured flag set. Failures are
// surfaced with the tool's verbatim diagnostics; there are no silent
// retries with relaxed flags.
//
// # Thread Safety
//
// Applier is safe for concurrent use, but callers must serialize patch
// applications against the same working tree; the applier provides no
// locking of its own.
package apply

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/AleutianAI/devflow/services/editor/eol"
)

// Options configures the flags passed to the external apply primitive.
// Each flag is independently toggle-able; three-way merge is the default
// fallback for drifted context.
type Options struct {
	// UpdateIndex stages applied changes (--index).
	UpdateIndex bool `json:"update_index" yaml:"update_index"`

	// Recount tolerates stale hunk line counts (--recount).
	Recount bool `json:"recount" yaml:"recount"`

	// IgnoreWhitespace matches context despite whitespace drift
	// (--ignore-space-change --ignore-whitespace).
	IgnoreWhitespace bool `json:"ignore_whitespace" yaml:"ignore_whitespace"`

	// ThreeWay falls back to a three-way merge when a hunk's context has
	// drifted from the buffer's expectations (--3way).
	ThreeWay bool `json:"three_way" yaml:"three_way"`

	// Timeout bounds each git invocation. Zero disables the bound.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// DefaultOptions returns the tolerant flag set used by default.
func DefaultOptions() Options {
	return Options{
		UpdateIndex:      true,
		Recount:          true,
		IgnoreWhitespace: true,
		ThreeWay:         true,
		Timeout:          60 * time.Second,
	}
}

// Result is the structured outcome of one apply attempt.
type Result struct {
	// Success reports a zero exit status from the apply primitive.
	Success bool `json:"success"`

	// ExitCode is the primitive's exit status.
	ExitCode int `json:"exit_code"`

	// Stdout is the primitive's standard output, verbatim.
	Stdout string `json:"stdout,omitempty"`

	// Stderr is the primitive's standard error, verbatim.
	Stderr string `json:"stderr,omitempty"`

	// PatchPath is the normalized patch artifact used for the attempt,
	// kept for diagnosis on failure.
	PatchPath string `json:"patch_path,omitempty"`
}

// Message renders the result the way tool callers expect.
func (r *Result) Message() string {
	if r.Success {
		return strings.TrimRight("OK: patch applied\n"+r.Stdout, "\n")
	}
	return fmt.Sprintf(
		"ERROR applying patch\n\n--- normalized patch path ---\n%s\n\n--- git stdout ---\n%s\n--- git stderr ---\n%s",
		r.PatchPath, r.Stdout, r.Stderr,
	)
}

// Applier applies vetted patch buffers through a Runner.
type Applier struct {
	runner Runner
	opts   Options
	logger *slog.Logger
}

// NewApplier creates an applier over the given runner.
//
// # Inputs
//
//   - runner: The external apply primitive. Must be non-nil.
//   - opts: Flag configuration for every attempt.
//   - logger: Destination for apply telemetry. Nil uses the default.
func NewApplier(runner Runner, opts Options, logger *slog.Logger) (*Applier, error) {
	if runner == nil {
		return nil, fmt.Errorf("runner must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Applier{runner: runner, opts: opts, logger: logger}, nil
}

// Apply attempts to apply a patch buffer to the working tree.
//
// # Description
//
// The buffer is normalized to LF in a working copy (no file on disk is
// touched by normalization), written to a freshly created uniquely named
// temp directory, and handed to `git apply` with the configured flags.
// Line-ending translation is disabled for the invocation scope so the
// tool's own normalization is authoritative. A nonzero exit is reported
// in the Result, not as an error; errors are reserved for failures to
// stage the attempt at all.
//
// # Inputs
//
//   - ctx: Context for cancellation.
//   - patchText: The raw patch buffer that passed the guard gate.
//
// # Outputs
//
//   - *Result: Exit status and verbatim diagnostics of the attempt.
//   - error: Non-nil when the attempt could not be staged or run.
func (a *Applier) Apply(ctx context.Context, patchText string) (*Result, error) {
	ctx, span := startApplySpan(ctx)
	defer span.End()
	start := time.Now()

	normalized := eol.ToLF(patchText)

	patchPath, err := a.writePatchArtifact(normalized)
	if err != nil {
		recordApply(ctx, time.Since(start), "stage_error")
		return nil, fmt.Errorf("staging patch artifact: %w", err)
	}

	// Pin autocrlf off for this tree so apply sees the bytes we wrote.
	// Best effort: outside a git repository the command fails and apply
	// will produce its own diagnosis.
	if code, _, stderr, cfgErr := a.runner.Run(ctx, "config", "--local", "core.autocrlf", "false"); cfgErr != nil || code != 0 {
		a.logger.Debug("could not pin core.autocrlf",
			slog.Int("exit_code", code),
			slog.String("stderr", strings.TrimSpace(stderr)),
		)
	}

	args := a.buildArgs(patchPath)
	a.logger.Info("applying patch",
		slog.String("patch_path", patchPath),
		slog.String("args", strings.Join(args, " ")),
	)

	code, stdout, stderr, err := a.runner.Run(ctx, args...)
	if err != nil {
		recordApply(ctx, time.Since(start), "run_error")
		return nil, fmt.Errorf("running apply primitive: %w", err)
	}

	result := &Result{
		Success:   code == 0,
		ExitCode:  code,
		Stdout:    stdout,
		Stderr:    stderr,
		PatchPath: patchPath,
	}

	if result.Success {
		recordApply(ctx, time.Since(start), "applied")
		a.logger.Info("patch applied", slog.String("patch_path", patchPath))
	} else {
		recordApply(ctx, time.Since(start), "failed")
		a.logger.Warn("patch apply failed",
			slog.Int("exit_code", code),
			slog.String("stderr", strings.TrimSpace(stderr)),
		)
	}

	return result, nil
}

// buildArgs assembles the git apply invocation from the configured flags.
func (a *Applier) buildArgs(patchPath string) []string {
	args := []string{"apply"}
	if a.opts.UpdateIndex {
		args = append(args, "--index")
	}
	if a.opts.Recount {
		args = append(args, "--recount")
	}
	if a.opts.IgnoreWhitespace {
		args = append(args, "--ignore-space-change", "--ignore-whitespace")
	}
	if a.opts.ThreeWay {
		args = append(args, "--3way")
	}
	return append(args, patchPath)
}

// writePatchArtifact writes the normalized buffer to a per-call temp
// location. Each call gets its own directory; artifacts are never shared
// across calls.
func (a *Applier) writePatchArtifact(normalized string) (string, error) {
	dir := filepath.Join(os.TempDir(), "devflow_patch_"+uuid.NewString())
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("creating temp dir: %w", err)
	}

	path := filepath.Join(dir, "change.patch")
	if err := os.WriteFile(path, []byte(normalized), 0600); err != nil {
		return "", fmt.Errorf("writing patch file: %w", err)
	}
	return path, nil
}
