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
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/devflow/services/editor"
)

var writeContentFile string // Content file ("-" or empty reads stdin)

// writeCmd creates a new file, refusing to overwrite.
//
// # Examples
//
//	devflow write pkg/new.go -f content.txt
//	echo 'hello' | devflow write notes.txt
var writeCmd = &cobra.Command{
	Use:   "write <path>",
	Short: "Create a new file (never overwrites)",
	Long: `Creates a new file at the given path with content read from a file or
stdin. Refuses with exit code 2 if a file already exists there; existing
content is never overwritten. Modify existing files with 'devflow edit'
or 'devflow apply'. Parent directories are created as needed.`,
	Args: cobra.ExactArgs(1),
	Run:  runWriteCommand,
}

func init() {
	writeCmd.Flags().StringVarP(&writeContentFile, "file", "f", "",
		"File holding the new content (default: stdin)")
	rootCmd.AddCommand(writeCmd)
}

func runWriteCommand(cmd *cobra.Command, args []string) {
	content, err := readWriteContent()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}

	tools, err := newTools()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}

	msg, writeErr := tools.CreateFile(args[0], content)
	fmt.Println(msg)

	switch {
	case writeErr == nil:
		return
	case errors.Is(writeErr, editor.ErrOverwriteRefused):
		os.Exit(2)
	default:
		os.Exit(1)
	}
}

func readWriteContent() (string, error) {
	if writeContentFile != "" && writeContentFile != "-" {
		data, err := os.ReadFile(writeContentFile)
		if err != nil {
			return "", fmt.Errorf("reading content file: %w", err)
		}
		return string(data), nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("reading content from stdin: %w", err)
	}
	return string(data), nil
}
