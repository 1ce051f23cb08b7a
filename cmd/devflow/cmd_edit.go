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
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/devflow/services/editor"
)

// editCmd replaces one small exact text in one file.
//
// # Examples
//
//	devflow edit main.go 'timeout = 30' 'timeout = 60'
var editCmd = &cobra.Command{
	Use:   "edit <path> <old-text> <new-text>",
	Short: "Replace one exact occurrence of a small text",
	Long: `Replaces the first exact occurrence of old-text with new-text in the
given file. Both texts are size-capped (300 chars, 6 lines by default);
larger changes must go through 'devflow apply'. The file's line-ending
style is preserved even when the arguments use different endings.`,
	Args: cobra.ExactArgs(3),
	Run:  runEditCommand,
}

func init() {
	rootCmd.AddCommand(editCmd)
}

func runEditCommand(cmd *cobra.Command, args []string) {
	tools, err := newTools()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}

	msg, editErr := tools.ReplaceText(args[0], args[1], args[2])
	fmt.Println(msg)

	switch {
	case editErr == nil:
		return
	case errors.Is(editErr, editor.ErrNoOpChange):
		// A warning, not a failure: the file holds the desired content.
		return
	case errors.Is(editErr, editor.ErrSizeLimitExceeded),
		errors.Is(editErr, editor.ErrPathNotFound),
		errors.Is(editErr, editor.ErrPatternNotFound):
		os.Exit(2)
	default:
		os.Exit(1)
	}
}
