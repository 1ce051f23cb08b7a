// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package editor exposes the three editing tool entry points behind one
// refusal-reporting convention.
//
// # Description
//
// An automated change-making process edits a code tree through exactly
// three operations: applying a vetted unified diff, substituting a small
// exact text, or creating a new file. The entry points share one safety
// philosophy — no silent clobbering of large swaths of existing code —
// and one result shape: a human-readable message plus a sentinel error
// the caller can branch on. Refusals are outcomes, never process
// failures; the calling control loop is expected to keep operating.
//
// Control flow for the patch path: buffer -> diffscan.Parse ->
// risk.Analyzer -> risk.Gate (reject early, no disk mutation) ->
// apply.Applier -> result. The substitution editor and write guard are
// independent paths that never read risk state.
//
// # Thread Safety
//
// Tools is safe for concurrent use, but callers must serialize edits to
// a given working tree; the subsystem provides no locking of its own.
package editor

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/AleutianAI/devflow/services/editor/apply"
	"github.com/AleutianAI/devflow/services/editor/diffscan"
	"github.com/AleutianAI/devflow/services/editor/edit"
	"github.com/AleutianAI/devflow/services/editor/risk"
	"github.com/AleutianAI/devflow/services/editor/validate"
)

// Tools bundles the three editing entry points over one working tree.
type Tools struct {
	root   string
	cfg    Config
	logger *slog.Logger

	analyzer *risk.Analyzer
	gate     *risk.Gate
	applier  *apply.Applier
	editor   *edit.Editor
	guard    *edit.WriteGuard
	syntax   *validate.SyntaxChecker
}

// New creates the tool set for a working tree, running git directly.
//
// # Inputs
//
//   - root: Absolute path to the working tree.
//   - cfg: Tool configuration (see DefaultConfig).
//   - logger: Destination for telemetry. Nil uses the default logger.
//
// # Outputs
//
//   - *Tools: Ready-to-use tool set.
//   - error: Non-nil if root is not absolute or cfg is invalid.
func New(root string, cfg Config, logger *slog.Logger) (*Tools, error) {
	runner, err := apply.NewExecRunner(root, cfg.Apply.Timeout)
	if err != nil {
		return nil, err
	}
	return NewWithRunner(root, cfg, runner, logger)
}

// NewWithRunner creates the tool set over a caller-supplied apply
// primitive. Tests substitute a fake runner here.
func NewWithRunner(root string, cfg Config, runner apply.Runner, logger *slog.Logger) (*Tools, error) {
	if !filepath.IsAbs(root) {
		return nil, fmt.Errorf("root must be absolute: %s", root)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	gate, err := risk.NewGate(cfg.Guard, logger)
	if err != nil {
		return nil, err
	}
	applier, err := apply.NewApplier(runner, cfg.Apply, logger)
	if err != nil {
		return nil, err
	}
	subEditor, err := edit.NewEditor(root, cfg.Edit, logger)
	if err != nil {
		return nil, err
	}

	return &Tools{
		root:     root,
		cfg:      cfg,
		logger:   logger,
		analyzer: risk.NewAnalyzer(root, cfg.Guard.TopAnchorLine, logger),
		gate:     gate,
		applier:  applier,
		editor:   subEditor,
		guard:    edit.NewWriteGuard(root, logger),
		syntax:   validate.NewSyntaxChecker(logger),
	}, nil
}

// ApplyOutcome is the structured result of one patch attempt, for
// callers that branch on more than the message text.
type ApplyOutcome struct {
	// Verdict is the guard gate's decision, including the offending
	// block's metrics on rejection.
	Verdict risk.Verdict

	// Result is the apply primitive's outcome. Nil when the gate
	// rejected the buffer before any invocation.
	Result *apply.Result

	// Warnings are advisory syntax findings, when the check is enabled.
	Warnings []validate.Warning
}

// Message renders the outcome the way the tool entry points report it.
func (o *ApplyOutcome) Message() string {
	if !o.Verdict.Allowed {
		return o.Verdict.Message()
	}

	var sb strings.Builder
	sb.WriteString(o.Result.Message())
	for _, w := range o.Warnings {
		sb.WriteString("\n")
		sb.WriteString(w.String())
	}
	return sb.String()
}

// ApplyPatch applies a unified-diff buffer to the working tree.
//
// # Description
//
// Every file block in the buffer is measured against the tree before any
// disk mutation; one block that looks like a disguised rewrite rejects
// the whole buffer (no partial application of a multi-file patch). The
// literal token risk.OverrideToken anywhere in the buffer disables the
// rewrite checks for that buffer. Buffers that pass are handed once to
// the external apply primitive; its verdict and diagnostics come back
// verbatim.
//
// # Inputs
//
//   - ctx: Context for cancellation.
//   - patchText: Raw unified-diff text.
//
// # Outputs
//
//   - string: Human-readable result for the calling control loop.
//   - error: ErrRewriteRejected, ErrApplyFailed, or an internal error.
//     Nil on success.
func (t *Tools) ApplyPatch(ctx context.Context, patchText string) (string, error) {
	outcome, err := t.ApplyPatchDetailed(ctx, patchText)
	if outcome == nil {
		return fmt.Sprintf("ERROR applying patch\n%v", err), err
	}
	return outcome.Message(), err
}

// ApplyPatchDetailed is the structured counterpart of ApplyPatch.
//
// # Outputs
//
//   - *ApplyOutcome: Verdict, apply result, and warnings. Nil only when
//     the attempt could not be staged or run at all.
//   - error: Same taxonomy as ApplyPatch.
func (t *Tools) ApplyPatchDetailed(ctx context.Context, patchText string) (*ApplyOutcome, error) {
	blocks := diffscan.Parse(patchText)
	metrics := t.analyzer.AnalyzeAll(blocks)

	verdict := t.gate.Check(patchText, metrics)
	if !verdict.Allowed {
		return &ApplyOutcome{Verdict: verdict}, fmt.Errorf("%s: %w", verdict.Path, ErrRewriteRejected)
	}

	var warnings []validate.Warning
	if t.cfg.SyntaxCheck {
		var err error
		warnings, err = t.syntax.Check(ctx, patchText, t.root)
		if err != nil {
			return nil, fmt.Errorf("syntax check: %w", err)
		}
	}

	result, err := t.applier.Apply(ctx, patchText)
	if err != nil {
		return nil, err
	}

	outcome := &ApplyOutcome{Verdict: verdict, Result: result, Warnings: warnings}
	if !result.Success {
		return outcome, fmt.Errorf("exit status %d: %w", result.ExitCode, ErrApplyFailed)
	}
	return outcome, nil
}

// ReplaceText substitutes one exact occurrence of oldText with newText
// in an existing file. See edit.Editor.Replace for the contract.
func (t *Tools) ReplaceText(path, oldText, newText string) (string, error) {
	return t.editor.Replace(path, oldText, newText)
}

// CreateFile writes a new file, refusing to overwrite existing content.
// See edit.WriteGuard.Create for the contract.
func (t *Tools) CreateFile(path, content string) (string, error) {
	return t.guard.Create(path, content)
}
