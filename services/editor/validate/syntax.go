// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validate performs an advisory syntax check of patched files.
//
// # Description
//
// Before a patch reaches the external apply primitive, each affected file
// can be reconstructed in memory and parsed with tree-sitter. A syntax
// error in the would-be result is a strong signal the patch is malformed,
// but the check is advisory: warnings accompany the result message and
// never block application on their own.
//
// # Thread Safety
//
// SyntaxChecker is safe for concurrent use. Parsers are created per call.
package validate

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
	"github.com/sourcegraph/go-diff/diff"

	"github.com/AleutianAI/devflow/services/editor/eol"
)

// Warning flags a syntax problem in a file as it would look after the
// patch is applied.
type Warning struct {
	// File is the affected path, relative to the project root.
	File string `json:"file"`

	// Line is the 1-based line of the first syntax error, 0 if unknown.
	Line int `json:"line,omitempty"`

	// Message describes the problem.
	Message string `json:"message"`
}

// String renders the warning for inclusion in a result message.
func (w Warning) String() string {
	if w.Line > 0 {
		return fmt.Sprintf("WARNING: %s:%d: %s", w.File, w.Line, w.Message)
	}
	return fmt.Sprintf("WARNING: %s: %s", w.File, w.Message)
}

// SyntaxChecker reconstructs patched files in memory and parses them.
type SyntaxChecker struct {
	logger *slog.Logger
}

// NewSyntaxChecker creates a syntax checker.
func NewSyntaxChecker(logger *slog.Logger) *SyntaxChecker {
	if logger == nil {
		logger = slog.Default()
	}
	return &SyntaxChecker{logger: logger}
}

// Check parses every patched file that has a supported language.
//
// # Inputs
//
//   - ctx: Context for cancellation.
//   - patchText: The unified-diff buffer.
//   - projectRoot: Directory for resolving original file contents.
//
// # Outputs
//
//   - []Warning: One warning per file whose patched form fails to parse.
//     Files in unsupported languages are skipped silently.
//   - error: Non-nil only when the check itself cannot run.
func (c *SyntaxChecker) Check(ctx context.Context, patchText, projectRoot string) ([]Warning, error) {
	fileDiffs, err := diff.NewMultiFileDiffReader(strings.NewReader(eol.ToLF(patchText))).ReadAllFiles()
	if err != nil {
		// Malformed buffers are the applier's problem, not ours.
		return nil, nil
	}

	var warnings []Warning
	for _, fd := range fileDiffs {
		if ctx.Err() != nil {
			return warnings, ctx.Err()
		}

		relPath := targetName(fd)
		language := detectLanguage(relPath)
		if relPath == "" || language == nil {
			continue
		}

		patched, ok := patchedContent(filepath.Join(projectRoot, relPath), fd)
		if !ok || len(patched) == 0 {
			continue
		}

		warning, err := c.parseOne(ctx, relPath, language, patched)
		if err != nil {
			return warnings, fmt.Errorf("parsing %s: %w", relPath, err)
		}
		if warning != nil {
			warnings = append(warnings, *warning)
		}
	}
	return warnings, nil
}

// parseOne parses a single reconstructed file and reports its first
// syntax error, if any.
func (c *SyntaxChecker) parseOne(ctx context.Context, relPath string, language *sitter.Language, content []byte) (*Warning, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(language)

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	root := tree.RootNode()
	errNode := firstErrorNode(root)
	if errNode == nil {
		return nil, nil
	}

	line := int(errNode.StartPoint().Row) + 1
	c.logger.Warn("patched file would have a syntax error",
		slog.String("file", relPath),
		slog.Int("line", line),
	)
	return &Warning{
		File:    relPath,
		Line:    line,
		Message: "patched file would have a syntax error",
	}, nil
}

// targetName resolves the file a diff ultimately touches, stripping the
// a/ and b/ header prefixes. Returns "" for deletions.
func targetName(fd *diff.FileDiff) string {
	name := fd.NewName
	if name == "" || name == "/dev/null" {
		return ""
	}
	name = strings.TrimPrefix(name, "a/")
	return strings.TrimPrefix(name, "b/")
}

// patchedContent reconstructs the file as it would look after the diff.
// Returns ok=false when the original cannot be read for an existing file.
func patchedContent(absPath string, fd *diff.FileDiff) ([]byte, bool) {
	var original []byte
	if _, err := os.Stat(absPath); err == nil {
		original, err = os.ReadFile(absPath)
		if err != nil {
			return nil, false
		}
	}

	if fd.OrigName == "/dev/null" || len(original) == 0 {
		// New file: the content is the added lines.
		var lines []string
		for _, hunk := range fd.Hunks {
			for _, line := range strings.Split(string(hunk.Body), "\n") {
				if strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++") {
					lines = append(lines, strings.TrimPrefix(line, "+"))
				}
			}
		}
		return []byte(strings.Join(lines, "\n")), true
	}

	origLines := strings.Split(eol.ToLF(string(original)), "\n")
	newLines := make([]string, 0, len(origLines))

	origIdx := 0
	for _, hunk := range fd.Hunks {
		hunkStart := int(hunk.OrigStartLine) - 1
		for origIdx < hunkStart && origIdx < len(origLines) {
			newLines = append(newLines, origLines[origIdx])
			origIdx++
		}

		for _, line := range strings.Split(string(hunk.Body), "\n") {
			switch {
			case strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++"):
				newLines = append(newLines, strings.TrimPrefix(line, "+"))
			case strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "---"):
				origIdx++
			case strings.HasPrefix(line, " ") || line == "":
				if origIdx < len(origLines) {
					newLines = append(newLines, origLines[origIdx])
					origIdx++
				}
			}
		}
	}

	for origIdx < len(origLines) {
		newLines = append(newLines, origLines[origIdx])
		origIdx++
	}

	return []byte(strings.Join(newLines, "\n")), true
}

// firstErrorNode finds the first error or missing node in the AST.
func firstErrorNode(node *sitter.Node) *sitter.Node {
	if node == nil {
		return nil
	}
	if node.IsError() || node.IsMissing() {
		return node
	}
	for i := uint32(0); i < node.ChildCount(); i++ {
		if errNode := firstErrorNode(node.Child(int(i))); errNode != nil {
			return errNode
		}
	}
	return nil
}

// detectLanguage maps a file extension to its tree-sitter grammar.
// Returns nil for unsupported languages.
func detectLanguage(filePath string) *sitter.Language {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".go":
		return golang.GetLanguage()
	case ".py", ".pyi":
		return python.GetLanguage()
	case ".js", ".jsx", ".mjs", ".cjs":
		return javascript.GetLanguage()
	case ".ts", ".tsx", ".mts", ".cts":
		return typescript.GetLanguage()
	default:
		return nil
	}
}
