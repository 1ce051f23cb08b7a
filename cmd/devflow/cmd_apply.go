// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/devflow/services/editor"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	applyPatchFile  string // Patch file path ("-" or empty reads stdin)
	applyJSONOutput bool   // Output as JSON
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// applyCmd applies a unified diff to the working tree.
//
// # Description
//
// Reads a patch buffer from a file or stdin, runs the rewrite guard over
// every file block, and hands passing buffers to git apply with tolerant
// matching flags. A rejection or apply failure exits with code 2 and the
// refusal message; nothing on disk changes for rejections.
//
// # Examples
//
//	git diff | devflow apply
//	devflow apply -f change.patch
//	devflow apply -f change.patch --json
var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply a unified diff with rewrite protection",
	Long: `Applies a unified diff to the working tree.

Each file block is measured before any disk mutation. Blocks that would
rewrite half or more of an existing file, or whose single top-anchored
hunk covers most of it, reject the whole buffer. Include the literal
token [ALLOW_FULL_REWRITE] in the patch to override for genuine rewrites.

Examples:
  git diff | devflow apply       # Read the patch from stdin
  devflow apply -f change.patch  # Read the patch from a file
  devflow apply --json           # Machine-readable result`,
	Run: runApplyCommand,
}

func init() {
	applyCmd.Flags().StringVarP(&applyPatchFile, "file", "f", "",
		"Patch file to apply (default: stdin)")
	applyCmd.Flags().BoolVar(&applyJSONOutput, "json", false,
		"Output as JSON for scripting")
	rootCmd.AddCommand(applyCmd)
}

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

func runApplyCommand(cmd *cobra.Command, args []string) {
	patchText, err := readPatchInput()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}

	tools, err := newTools()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}

	msg, applyErr := tools.ApplyPatch(cmd.Context(), patchText)
	emitResult(msg, applyErr)

	switch {
	case applyErr == nil:
		return
	case errors.Is(applyErr, editor.ErrRewriteRejected),
		errors.Is(applyErr, editor.ErrApplyFailed):
		os.Exit(2)
	default:
		os.Exit(1)
	}
}

// readPatchInput reads the patch buffer from the flag file or stdin.
func readPatchInput() (string, error) {
	if applyPatchFile != "" && applyPatchFile != "-" {
		data, err := os.ReadFile(applyPatchFile)
		if err != nil {
			return "", fmt.Errorf("reading patch file: %w", err)
		}
		return string(data), nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("reading patch from stdin: %w", err)
	}
	return string(data), nil
}

// emitResult prints the operation outcome in the selected format.
func emitResult(msg string, opErr error) {
	if !applyJSONOutput {
		fmt.Println(msg)
		return
	}
	out := struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		Error   string `json:"error,omitempty"`
	}{
		Success: opErr == nil,
		Message: msg,
	}
	if opErr != nil {
		out.Error = opErr.Error()
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(out)
}
