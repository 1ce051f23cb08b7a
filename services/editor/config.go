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

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/devflow/services/editor/apply"
	"github.com/AleutianAI/devflow/services/editor/edit"
	"github.com/AleutianAI/devflow/services/editor/risk"
)

// Config contains all editing tool configuration.
//
// The thresholds encode policy judgments, not laws; defaults match
// long-standing practice but every value can be tuned via file or
// environment.
//
// Thread Safety: Safe to read concurrently. Not safe to modify after
// creation.
type Config struct {
	// Guard contains the rewrite-rejection thresholds.
	Guard risk.Config `json:"guard" yaml:"guard"`

	// Edit contains the substitution editor's size caps.
	Edit edit.Limits `json:"edit" yaml:"edit"`

	// Apply contains the external apply primitive's flag set.
	Apply apply.Options `json:"apply" yaml:"apply"`

	// SyntaxCheck enables the advisory tree-sitter check of patched
	// files before application.
	SyntaxCheck bool `json:"syntax_check" yaml:"syntax_check"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Guard:       risk.DefaultConfig(),
		Edit:        edit.DefaultLimits(),
		Apply:       apply.DefaultOptions(),
		SyntaxCheck: false,
	}
}

// Validate checks all sections for internal consistency.
func (c Config) Validate() error {
	if err := c.Guard.Validate(); err != nil {
		return err
	}
	return c.Edit.Validate()
}

// LoadConfig loads configuration with priority: env > file > defaults.
//
// # Inputs
//
//   - configPath: Path to a YAML or JSON config file (optional, can be
//     empty; a missing file is not an error).
//
// # Outputs
//
//   - Config: Merged configuration.
//   - error: Non-nil if the file exists but is invalid, or the merged
//     result fails validation.
func LoadConfig(configPath string) (Config, error) {
	config := DefaultConfig()

	if configPath != "" {
		if err := loadConfigFile(configPath, &config); err != nil {
			return config, fmt.Errorf("load config file: %w", err)
		}
	}

	loadConfigFromEnv(&config)

	if err := config.Validate(); err != nil {
		return config, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

func loadConfigFile(path string, config *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	// Try YAML first, then JSON.
	if err := yaml.Unmarshal(data, config); err != nil {
		if jsonErr := json.Unmarshal(data, config); jsonErr != nil {
			return fmt.Errorf("parse config (tried YAML and JSON): YAML error: %v, JSON error: %w", err, jsonErr)
		}
	}

	return nil
}

func loadConfigFromEnv(config *Config) {
	if v := os.Getenv("DEVFLOW_TOUCH_RATIO_LIMIT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			config.Guard.TouchRatioLimit = f
		}
	}
	if v := os.Getenv("DEVFLOW_TOP_HUNK_RATIO"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			config.Guard.TopHunkRatio = f
		}
	}
	if v := os.Getenv("DEVFLOW_TOP_ANCHOR_LINE"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			config.Guard.TopAnchorLine = i
		}
	}
	if v := os.Getenv("DEVFLOW_EDIT_MAX_CHARS"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			config.Edit.MaxChars = i
		}
	}
	if v := os.Getenv("DEVFLOW_EDIT_MAX_LINES"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			config.Edit.MaxLines = i
		}
	}
	if v := os.Getenv("DEVFLOW_APPLY_THREE_WAY"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.Apply.ThreeWay = b
		}
	}
	if v := os.Getenv("DEVFLOW_APPLY_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.Apply.Timeout = d
		}
	}
	if v := os.Getenv("DEVFLOW_SYNTAX_CHECK"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.SyntaxCheck = b
		}
	}
}
