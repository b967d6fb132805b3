package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nconklindev/sheetmerge/internal/workbook"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file picked up from the working directory
// when --config is not given.
const DefaultPath = "sheetmerge.yaml"

// Config holds all sheetmerge configuration.
type Config struct {
	Merge   MergeConfig   `yaml:"merge"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// MergeConfig controls how source files are discovered and combined.
type MergeConfig struct {
	// Header of the column that records each row's source file.
	ProvenanceColumn string `yaml:"provenance_column"`
	// File extensions treated as spreadsheets, including the dot.
	Extensions []string `yaml:"extensions"`
	// Name of the single sheet in the merged workbook.
	OutputSheet string `yaml:"output_sheet"`
	// Report unreadable files as skipped instead of aborting the merge.
	SkipUnreadable   bool `yaml:"skip_unreadable"`
	DefaultHeaderRow int  `yaml:"default_header_row"`
}

// OutputConfig controls the suggested output path.
type OutputConfig struct {
	// Appended to the source folder name to build the default output file.
	Suffix string `yaml:"suffix"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level       string `yaml:"level"` // debug, info, warn, error
	Development bool   `yaml:"development"`
	File        string `yaml:"file"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Merge: MergeConfig{
			ProvenanceColumn: "Source",
			Extensions:       []string{".xlsx", ".xls"},
			OutputSheet:      "Sheet1",
			SkipUnreadable:   false,
			DefaultHeaderRow: 1,
		},
		Output: OutputConfig{
			Suffix: "_merged.xlsx",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from a YAML file. A missing file yields the
// defaults. Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Validate checks the configuration for values the merger cannot use.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Merge.ProvenanceColumn) == "" {
		return fmt.Errorf("merge.provenance_column must not be empty")
	}
	if len(c.Merge.Extensions) == 0 {
		return fmt.Errorf("merge.extensions must list at least one extension")
	}
	for _, ext := range c.Merge.Extensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			return fmt.Errorf("merge.extensions: %q must start with a dot", ext)
		}
		if !workbook.IsSupported(ext) {
			return fmt.Errorf("merge.extensions: %q is not a supported spreadsheet type (supported: %s)",
				ext, strings.Join(workbook.SupportedExtensions, ", "))
		}
	}
	// Excel caps sheet names at 31 characters.
	if name := c.Merge.OutputSheet; name == "" || len([]rune(name)) > 31 {
		return fmt.Errorf("merge.output_sheet must be 1-31 characters, got %q", name)
	}
	if c.Merge.DefaultHeaderRow < 1 {
		return fmt.Errorf("merge.default_header_row must be >= 1, got %d", c.Merge.DefaultHeaderRow)
	}
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() error {
	if level := os.Getenv("SHEETMERGE_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if column := os.Getenv("SHEETMERGE_PROVENANCE_COLUMN"); column != "" {
		c.Merge.ProvenanceColumn = column
	}
	if skip := os.Getenv("SHEETMERGE_SKIP_UNREADABLE"); skip != "" {
		v, err := strconv.ParseBool(skip)
		if err != nil {
			return fmt.Errorf("SHEETMERGE_SKIP_UNREADABLE: %w", err)
		}
		c.Merge.SkipUnreadable = v
	}
	return nil
}
