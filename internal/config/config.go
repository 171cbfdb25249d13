package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	// EnvDir overrides the library root directory
	EnvDir = "POCKET_COMPOSE_DIR"
	// EnvLogMode overrides log_mode
	EnvLogMode = "POCKET_COMPOSE_LOG"

	defaultSampleSize  = 30
	defaultExportLimit = 1000
)

// Config holds user settings read from <root>/config.yaml
type Config struct {
	DefaultWindow int    `yaml:"default_window"` // Window cap for wildcards that set none
	ExtWindow     int    `yaml:"ext_window"`     // Window cap for ext_text when no block sets one
	SampleSize    int    `yaml:"sample_size"`
	ExportLimit   int    `yaml:"export_limit"`
	LogMode       string `yaml:"log_mode"`     // "dev" or "prod"
	RenderStyle   string `yaml:"render_style"` // glamour style name; empty means auto

	RootDir    string `yaml:"-"`
	configPath string
}

// Default returns the built-in settings for rootDir
func Default(rootDir string) *Config {
	return &Config{
		SampleSize:  defaultSampleSize,
		ExportLimit: defaultExportLimit,
		LogMode:     "dev",
		RootDir:     rootDir,
		configPath:  filepath.Join(rootDir, "config.yaml"),
	}
}

// Load reads the configuration for baseDir. An empty baseDir falls back to
// $POCKET_COMPOSE_DIR, then ~/.pocket-compose. A missing config file is not
// an error.
func Load(baseDir string) (*Config, error) {
	if baseDir == "" {
		baseDir = os.Getenv(EnvDir)
	}
	if baseDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		baseDir = filepath.Join(homeDir, ".pocket-compose")
	}

	cfg := Default(baseDir)
	data, err := os.ReadFile(cfg.configPath)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", cfg.configPath, err)
		}
	}

	cfg.applyEnv()
	cfg.normalize()
	return cfg, nil
}

// Save writes the configuration back to <root>/config.yaml
func (c *Config) Save() error {
	if err := os.MkdirAll(c.RootDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(c.configPath, data, 0644)
}

// Path returns the config file location
func (c *Config) Path() string {
	return c.configPath
}

func (c *Config) applyEnv() {
	if mode := os.Getenv(EnvLogMode); mode != "" {
		c.LogMode = mode
	}
	if v := os.Getenv("POCKET_COMPOSE_SAMPLE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.SampleSize = n
		}
	}
}

func (c *Config) normalize() {
	if c.SampleSize <= 0 {
		c.SampleSize = defaultSampleSize
	}
	if c.ExportLimit <= 0 {
		c.ExportLimit = defaultExportLimit
	}
	if c.DefaultWindow < 0 {
		c.DefaultWindow = 0
	}
	if c.ExtWindow < 0 {
		c.ExtWindow = 0
	}
}
