package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileName is the name of the project configuration file.
const FileName = "regsheet.json"

// Output formats.
const (
	FormatJSON   = "json"
	FormatYAML   = "yaml"
	FormatIPXACT = "ipxact"
)

// Rule severities. SeverityOff disables a rule.
const (
	SeverityOff     = "off"
	SeverityInfo    = "info"
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// Config is the top-level configuration for regsheet
type Config struct {
	// Inputs is a list of glob patterns for register workbooks (** allowed)
	Inputs []string `json:"inputs,omitempty"`

	// Exclude is a list of glob patterns removed from Inputs
	Exclude []string `json:"exclude,omitempty"`

	// Output controls how register maps are written
	Output OutputConfig `json:"output,omitempty"`

	// Lint contains linting rule configuration
	Lint LintConfig `json:"lint,omitempty"`

	// Analysis contains batch processing options
	Analysis AnalysisConfig `json:"analysis,omitempty"`
}

// OutputConfig selects the output document format
type OutputConfig struct {
	// Format is one of "json", "yaml", "ipxact"
	Format string `json:"format,omitempty"`

	// Indent is the number of spaces per nesting level (0 = compact JSON)
	Indent *int `json:"indent,omitempty"`

	// Dir receives one output file per workbook; empty writes to stdout
	Dir string `json:"dir,omitempty"`
}

// LintConfig contains linting configuration
type LintConfig struct {
	// Rules maps rule names to severity: "off", "info", "warning", "error"
	Rules map[string]string `json:"rules,omitempty"`

	// PolicyDir holds extra .rego modules merged with the built-in rules
	PolicyDir string `json:"policyDir,omitempty"`
}

// CacheConfig controls the parse cache
type CacheConfig struct {
	// Enabled turns on cache usage
	Enabled *bool `json:"enabled,omitempty"`

	// Dir is the cache directory (relative to project root if not absolute)
	Dir string `json:"dir,omitempty"`
}

// AnalysisConfig contains batch processing options
type AnalysisConfig struct {
	// MaxParallelFiles limits concurrent workbook parsing (0 = auto)
	MaxParallelFiles int `json:"maxParallelFiles,omitempty"`

	// Validate checks every model against the output schema
	Validate *bool `json:"validate,omitempty"`

	// Cache controls the parse cache
	Cache CacheConfig `json:"cache,omitempty"`

	// Timing writes per-stage timing events (JSONL) to this path
	Timing string `json:"timing,omitempty"`

	// MetricsFile writes Prometheus text-format metrics to this path
	MetricsFile string `json:"metricsFile,omitempty"`
}

// DefaultConfig returns a sensible default configuration
func DefaultConfig() *Config {
	return &Config{
		Inputs:  []string{"*.xlsx", "*.xlsm", "**/*.xlsx", "**/*.xlsm"},
		Exclude: []string{},
		Output: OutputConfig{
			Format: FormatJSON,
			Indent: intPtr(2),
		},
		Lint: LintConfig{
			Rules: map[string]string{},
		},
		Analysis: AnalysisConfig{
			MaxParallelFiles: 0, // auto
			Validate:         boolPtr(true),
			Cache: CacheConfig{
				Enabled: boolPtr(true),
				Dir:     ".regsheet_cache",
			},
		},
	}
}

func boolPtr(v bool) *bool {
	return &v
}

func intPtr(v int) *int {
	return &v
}

// Load returns the first configuration file found for rootPath, or
// DefaultConfig when there is none. Candidates, in order: regsheet.json and
// .regsheet.json in the working directory, the same two names in rootPath,
// then ~/.config/regsheet/config.json.
func Load(rootPath string) (*Config, error) {
	for _, path := range candidates(rootPath) {
		info, err := os.Stat(path)
		if err == nil && !info.IsDir() {
			return LoadFile(path)
		}
	}
	return DefaultConfig(), nil
}

func candidates(rootPath string) []string {
	var dirs []string
	if cwd, err := os.Getwd(); err == nil {
		dirs = append(dirs, cwd)
	}
	if info, err := os.Stat(rootPath); err == nil && info.IsDir() {
		if abs, err := filepath.Abs(rootPath); err == nil && (len(dirs) == 0 || abs != dirs[0]) {
			dirs = append(dirs, abs)
		}
	}

	var paths []string
	for _, dir := range dirs {
		paths = append(paths, filepath.Join(dir, FileName), filepath.Join(dir, "."+FileName))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "regsheet", "config.json"))
	}
	return paths
}

// LoadFile reads path, fills unset fields from DefaultConfig and checks the
// result.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.Check(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	def := DefaultConfig()

	if c.Inputs == nil {
		c.Inputs = def.Inputs
	}
	if c.Output.Format == "" {
		c.Output.Format = def.Output.Format
	}
	if c.Output.Indent == nil {
		c.Output.Indent = def.Output.Indent
	}
	if c.Lint.Rules == nil {
		c.Lint.Rules = make(map[string]string)
	}
	if c.Analysis.Validate == nil {
		c.Analysis.Validate = def.Analysis.Validate
	}
	if c.Analysis.Cache.Dir == "" {
		c.Analysis.Cache.Dir = def.Analysis.Cache.Dir
	}
	if c.Analysis.Cache.Enabled == nil {
		c.Analysis.Cache.Enabled = def.Analysis.Cache.Enabled
	}
}

// Check reports values that cannot be used.
func (c *Config) Check() error {
	switch c.Output.Format {
	case FormatJSON, FormatYAML, FormatIPXACT:
	default:
		return fmt.Errorf("unknown output format %q", c.Output.Format)
	}
	for rule, sev := range c.Lint.Rules {
		switch sev {
		case SeverityOff, SeverityInfo, SeverityWarning, SeverityError:
		default:
			return fmt.Errorf("rule %s: unknown severity %q", rule, sev)
		}
	}
	if c.Analysis.MaxParallelFiles < 0 {
		return fmt.Errorf("maxParallelFiles must not be negative")
	}
	return nil
}

// Save writes c to path as indented JSON.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// GetRuleSeverity returns the configured severity of rule, or def.
func (c *Config) GetRuleSeverity(rule string, def string) string {
	if sev := c.Lint.Rules[rule]; sev != "" {
		return sev
	}
	return def
}

// IsRuleEnabled reports whether rule is not configured "off". Rules are on
// unless configured otherwise.
func (c *Config) IsRuleEnabled(rule string) bool {
	return c.Lint.Rules[rule] != SeverityOff
}

// IndentString returns the configured indent as spaces.
func (c *Config) IndentString() string {
	if c.Output.Indent == nil || *c.Output.Indent <= 0 {
		return ""
	}
	return strings.Repeat(" ", *c.Output.Indent)
}

// ValidateEnabled reports whether schema validation is on.
func (c *Config) ValidateEnabled() bool {
	return c.Analysis.Validate == nil || *c.Analysis.Validate
}

// CacheEnabled reports whether the parse cache is on.
func (c *Config) CacheEnabled() bool {
	return c.Analysis.Cache.Enabled == nil || *c.Analysis.Cache.Enabled
}

// CacheDir returns the cache directory resolved against rootPath.
func (c *Config) CacheDir(rootPath string) string {
	dir := c.Analysis.Cache.Dir
	if dir == "" {
		dir = DefaultConfig().Analysis.Cache.Dir
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(rootPath, dir)
}
