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
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/devflow/services/editor"
)

var toolsJSONOutput bool

// toolsCmd lists the editing tool definitions for agent discovery.
var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the editing tool definitions",
	Long: `Prints the editing tool definitions, including parameters and return
conventions. Agent harnesses use the JSON form to register the tools.`,
	Run: runToolsCommand,
}

func init() {
	toolsCmd.Flags().BoolVar(&toolsJSONOutput, "json", false,
		"Output as JSON for harness registration")
	rootCmd.AddCommand(toolsCmd)
}

func runToolsCommand(cmd *cobra.Command, args []string) {
	registry := editor.NewToolRegistry()

	if toolsJSONOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(registry.GetTools()); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
			os.Exit(1)
		}
		return
	}

	for _, tool := range registry.GetTools() {
		fmt.Printf("%s\n  %s\n", tool.Name, tool.Description)
		for _, p := range tool.Parameters {
			req := "optional"
			if p.Required {
				req = "required"
			}
			fmt.Printf("    %-12s %s, %s: %s\n", p.Name, p.Type, req, p.Description)
		}
		fmt.Println()
	}
}
