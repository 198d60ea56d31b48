// Package config loads cueview settings from a JSON file with defaults.
package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Config holds application configuration.
type Config struct {
	// DatasetPath is the SQLite transcript dataset file.
	DatasetPath string `json:"dataset_path,omitempty"`

	// AnnotationsDir is the root directory for saved annotation records.
	// Defaults to <baseDir>/annotations.
	AnnotationsDir string `json:"annotations_dir,omitempty"`

	// Bind and Port control the web UI listen address.
	Bind string `json:"bind,omitempty"`
	Port int    `json:"port,omitempty"`

	// ModelOrder fixes the display order of discovered model columns.
	// Columns not listed here sort alphabetically after the listed ones.
	ModelOrder []string `json:"model_order,omitempty"`

	// FallbackColumns is the ordered preference list used when a row has no
	// text for the selected model: each entry is tried in turn (model
	// columns first, then plain-text columns), ending with the empty string.
	FallbackColumns []string `json:"fallback_columns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Bind: "127.0.0.1",
		Port: 8765,
		ModelOrder: []string{
			"gpt4o_annotations",
			"gpt4_annotations",
			"gpt41_annotations",
			"gpt5_annotations",
		},
		FallbackColumns: []string{
			"gpt4o_annotations",
			"english_translation",
		},
	}
}

// Load loads configuration from baseDir/config.json, falling back to
// defaults for anything unset. The baseDir parameter allows tests to use
// t.TempDir() instead of ~/.cueview.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFileRaw(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	merged := Merge(DefaultConfig(), cfg)
	if merged.AnnotationsDir == "" {
		merged.AnnotationsDir = filepath.Join(baseDir, "annotations")
	}
	return merged, nil
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Merge combines base and overlay configs. Overlay wins for scalars and for
// the ordered lists (ModelOrder, FallbackColumns) when set; DisabledTools is
// merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.DatasetPath = overlay.DatasetPath
	if result.DatasetPath == "" {
		result.DatasetPath = base.DatasetPath
	}

	result.AnnotationsDir = overlay.AnnotationsDir
	if result.AnnotationsDir == "" {
		result.AnnotationsDir = base.AnnotationsDir
	}

	result.Bind = overlay.Bind
	if result.Bind == "" {
		result.Bind = base.Bind
	}

	result.Port = overlay.Port
	if result.Port == 0 {
		result.Port = base.Port
	}

	// Ordered lists: overlay replaces wholesale, order is meaningful.
	result.ModelOrder = overlay.ModelOrder
	if len(result.ModelOrder) == 0 {
		result.ModelOrder = base.ModelOrder
	}

	result.FallbackColumns = overlay.FallbackColumns
	if len(result.FallbackColumns) == 0 {
		result.FallbackColumns = base.FallbackColumns
	}

	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range append(append([]string{}, a...), b...) {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
