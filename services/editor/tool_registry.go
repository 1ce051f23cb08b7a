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

import "github.com/AleutianAI/devflow/services/editor/risk"

// ToolParam represents a parameter in a tool definition.
type ToolParam struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
	Default     string `json:"default,omitempty"`
}

// ToolDefinition represents an editing tool available to the agent.
type ToolDefinition struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Category    string      `json:"category"`
	Parameters  []ToolParam `json:"parameters"`
	Returns     string      `json:"returns"`
}

// ToolRegistry provides tool definitions for agent discovery.
//
// Thread Safety:
//
//	ToolRegistry is immutable after initialization and safe for
//	concurrent use.
type ToolRegistry struct {
	tools []ToolDefinition
}

// NewToolRegistry creates a registry with all editing tools.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{tools: allToolDefinitions()}
}

// GetTools returns all available tool definitions.
func (r *ToolRegistry) GetTools() []ToolDefinition {
	return r.tools
}

// GetTool returns the definition with the given name, if present.
func (r *ToolRegistry) GetTool(name string) (ToolDefinition, bool) {
	for _, t := range r.tools {
		if t.Name == name {
			return t, true
		}
	}
	return ToolDefinition{}, false
}

// allToolDefinitions returns the three editing tool definitions.
func allToolDefinitions() []ToolDefinition {
	return []ToolDefinition{
		{
			Name: "apply_unified_patch",
			Description: "Apply a unified diff to the working tree with tolerant matching and " +
				"three-way-merge fallback. Patches rewriting half or more of an existing file " +
				"are rejected unless the literal token " + risk.OverrideToken + " is included.",
			Category: "edit",
			Parameters: []ToolParam{
				{Name: "patch_text", Type: "string", Description: "Unified diff with per-file headers and hunk headers", Required: true},
				{Name: "three_way", Type: "boolean", Description: "Fall back to a three-way merge when hunk context has drifted", Required: false, Default: "true"},
			},
			Returns: "Result message with the apply primitive's output, or a rejection with per-file metrics and remediation guidance",
		},
		{
			Name: "replace_text",
			Description: "Replace exactly one occurrence of an exact old text with a new text in one " +
				"existing file. Both texts are capped (300 chars, 6 lines by default); larger edits " +
				"must go through apply_unified_patch. Line-ending style is preserved.",
			Category: "edit",
			Parameters: []ToolParam{
				{Name: "path", Type: "string", Description: "Target file path", Required: true},
				{Name: "old_text", Type: "string", Description: "Exact text to replace (first occurrence only)", Required: true},
				{Name: "new_text", Type: "string", Description: "Replacement text", Required: true},
			},
			Returns: "Success or refusal message; the file is untouched on refusal",
		},
		{
			Name: "create_file",
			Description: "Create a new file with the given content. Refuses if a file already exists " +
				"at the path; existing content is never overwritten. Parent directories are created " +
				"as needed.",
			Category: "edit",
			Parameters: []ToolParam{
				{Name: "path", Type: "string", Description: "Path for the new file", Required: true},
				{Name: "content", Type: "string", Description: "Full file content", Required: true},
			},
			Returns: "Success or refusal message",
		},
	}
}
