package config

import (
	"fmt"
	"go/token"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where the CLI looks for configuration.
const DefaultPath = "footnote.yaml"

// Config holds all footnote configuration.
type Config struct {
	// Engine is the name used in the annotation marker (@<Engine>.inject).
	Engine string `yaml:"engine"`

	// Canonical is the function name every rewritten header is normalized to.
	Canonical string `yaml:"canonical"`

	Formatter FormatterConfig `yaml:"formatter"`
	Codegen   CodegenConfig   `yaml:"codegen"`
	Watch     WatchConfig     `yaml:"watch"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// CodegenConfig configures build-stage rewriting.
type CodegenConfig struct {
	// OutDir, when set, receives rewritten files instead of stdout.
	OutDir string `yaml:"out_dir"`
}

// WatchConfig configures the file watcher.
type WatchConfig struct {
	Debounce string `yaml:"debounce"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Engine:    "Footnote",
		Canonical: "patchedFn",
		Formatter: FormatterConfig{
			Kind:      "printf",
			Prefixes:  []string{"log", "debug", "info", "warn", "error"},
			WriterVar: "footnoteOut",
			LoggerVar: "footnoteLog",
		},
		Watch: WatchConfig{
			Debounce: "300ms",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return defaults if config file doesn't exist
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
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

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("FOOTNOTE_ENGINE"); v != "" {
		c.Engine = v
	}
	if v := os.Getenv("FOOTNOTE_FORMATTER"); v != "" {
		c.Formatter.Kind = v
	}
	if v := os.Getenv("FOOTNOTE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
		c.Logging.DebugMode = true
	}
}

// GetWatchDebounce returns the watcher debounce as a duration.
func (c *Config) GetWatchDebounce() time.Duration {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil {
		return 300 * time.Millisecond
	}
	return d
}

func isIdent(s string) bool {
	return s != "_" && token.IsIdentifier(s)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if !isIdent(c.Engine) {
		return fmt.Errorf("invalid engine name %q: must be an identifier", c.Engine)
	}
	if !isIdent(c.Canonical) {
		return fmt.Errorf("invalid canonical name %q: must be an identifier", c.Canonical)
	}
	return c.Formatter.Validate()
}
