// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package apply

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Runner abstracts the external git binary.
//
// # Description
//
// The applier never reimplements patch application; it delegates to a
// foreign capability modeled as this single interface. Tests substitute a
// fake that simulates success, conflict, and failure paths.
type Runner interface {
	// Run executes one git invocation and returns its exit code plus
	// captured stdout and stderr. A non-nil error means the command
	// could not be run at all (binary missing, context cancelled);
	// a nonzero exit code with nil error is a normal tool failure.
	Run(ctx context.Context, args ...string) (exitCode int, stdout, stderr string, err error)
}

// ExecRunner runs git as a blocking subprocess in a fixed working tree.
//
// # Thread Safety
//
// All methods are safe for concurrent use; the runner holds no mutable
// state. Callers still must serialize mutations of one working tree.
type ExecRunner struct {
	repoPath string
	timeout  time.Duration
}

// NewExecRunner creates a runner executing git in the given repository.
//
// # Inputs
//
//   - repoPath: Absolute path to the working tree.
//   - timeout: Maximum duration per invocation. Zero disables the bound,
//     in which case a hang in git is a hang for the caller.
//
// # Outputs
//
//   - *ExecRunner: Ready-to-use runner.
//   - error: Non-nil if repoPath is not absolute.
func NewExecRunner(repoPath string, timeout time.Duration) (*ExecRunner, error) {
	if !filepath.IsAbs(repoPath) {
		return nil, fmt.Errorf("repoPath must be absolute: %s", repoPath)
	}
	return &ExecRunner{repoPath: repoPath, timeout: timeout}, nil
}

// Run executes git with the given arguments.
func (r *ExecRunner) Run(ctx context.Context, args ...string) (int, string, string, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.repoPath

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return -1, stdout.String(), stderr.String(),
				fmt.Errorf("git %s: timeout after %v", firstArg(args), r.timeout)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), stdout.String(), stderr.String(), nil
		}
		return -1, stdout.String(), stderr.String(),
			fmt.Errorf("git %s: %w", firstArg(args), err)
	}

	return 0, stdout.String(), stderr.String(), nil
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return strings.Join(args[:1], "")
}
