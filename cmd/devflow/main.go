// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command devflow exposes the safe editing tools on the command line.
//
// The binary wraps the three editing entry points (patch application,
// bounded text substitution, guarded file creation) for scripting and
// for agent harnesses that shell out instead of linking the library.
//
// Exit codes:
//
//	0  operation succeeded
//	1  internal error (bad configuration, staging failure)
//	2  operation refused (rewrite guard, size cap, overwrite guard) or
//	   the patch did not apply
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/devflow/pkg/logging"
	"github.com/AleutianAI/devflow/services/editor"
)

// =============================================================================
// GLOBAL FLAGS
// =============================================================================

var (
	flagRepo       string // Working tree root (default: current directory)
	flagConfigPath string // Optional config file path
	flagLogLevel   string // Log verbosity
	flagQuiet      bool   // Suppress log output entirely
)

var (
	toolConfig editor.Config
	logger     *slog.Logger
	closeLog   func() error
)

// =============================================================================
// ROOT COMMAND
// =============================================================================

var rootCmd = &cobra.Command{
	Use:   "devflow",
	Short: "Safe editing tools for automated code changes",
	Long: `devflow applies code changes through three guarded operations:

  apply    Apply a unified diff (rewrites of existing files are rejected)
  edit     Replace one small exact text in one file
  write    Create a new file (never overwrites)

Refusals print the reason and remediation guidance and exit with code 2;
the working tree is left untouched.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagRepo, "repo", "C", ".",
		"Working tree root")
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "",
		"Config file (YAML or JSON); env vars override it")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "warn",
		"Log verbosity: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false,
		"Suppress log output")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		var err error
		toolConfig, err = editor.LoadConfig(flagConfigPath)
		if err != nil {
			return err
		}
		logger, closeLog = logging.New(logging.Config{
			Level:   logging.ParseLevel(flagLogLevel),
			Service: "devflow",
			Quiet:   flagQuiet,
		})
		return nil
	}
	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		if closeLog != nil {
			_ = closeLog()
		}
	}
}

// newTools builds the tool set for the configured working tree.
func newTools() (*editor.Tools, error) {
	root, err := filepath.Abs(flagRepo)
	if err != nil {
		return nil, fmt.Errorf("resolving repo path: %w", err)
	}
	return editor.New(root, toolConfig, logger)
}
