package config

import (
	"fmt"
	"os"
	"path/filepath"

	"culld/internal/errors"

	"github.com/gobwas/glob"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration structure. It covers folder
// scanning, preview generation, save encoding, the state-mirror server, and
// logging.
type Config struct {
	Scan    ScanSettings    `yaml:"scan"`
	Preview PreviewSettings `yaml:"preview"`
	Save    SaveSettings    `yaml:"save"`
	Server  ServerSettings  `yaml:"server"`
	Log     LogSettings     `yaml:"log"`
}

// ScanSettings controls which files a folder scan picks up
type ScanSettings struct {
	Excludes   []string `yaml:"excludes"`    // Glob patterns pruned from scans
	SkipHidden bool     `yaml:"skip_hidden"` // Skip dot-files and dot-directories
}

// PreviewSettings bounds the preview images the codec produces
type PreviewSettings struct {
	MaxWidth  int `yaml:"max_width"`  // Preview width bound in pixels
	MaxHeight int `yaml:"max_height"` // Preview height bound in pixels
	Quality   int `yaml:"quality"`    // Preview JPEG quality (1-100)
}

// SaveSettings controls re-encoding when transforms are committed
type SaveSettings struct {
	JPEGQuality int `yaml:"jpeg_quality"` // JPEG quality for committed saves (1-100)
}

// ServerSettings configures the HTTP state mirror
type ServerSettings struct {
	Address string `yaml:"address"` // Listen address, loopback by default
}

// LogSettings configures log output
type LogSettings struct {
	Level string `yaml:"level"` // debug, info, warn, or error
	File  string `yaml:"file"`  // Optional log file, duplicated with stdout
}

// DefaultPath returns the default configuration file location
// (~/.config/culld/config.yaml).
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "culld", "config.yaml"), nil
}

// LoadConfig loads configuration from the default location.
func LoadConfig() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return LoadConfigFile(path)
}

// LoadConfigFile loads configuration from a specific file path.
// If the file doesn't exist, returns default configuration.
func LoadConfigFile(path string) (*Config, error) {
	// Start with default configuration
	cfg := defaultConfig()

	// Try to read the config file
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if file doesn't exist
		}
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Unmarshal into a temporary config to preserve defaults for unset fields
	var tempCfg Config
	if err := yaml.Unmarshal(data, &tempCfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	// Merge the loaded config with defaults
	if len(tempCfg.Scan.Excludes) > 0 {
		cfg.Scan.Excludes = tempCfg.Scan.Excludes
	}
	cfg.Scan.SkipHidden = tempCfg.Scan.SkipHidden

	if tempCfg.Preview.MaxWidth > 0 {
		cfg.Preview.MaxWidth = tempCfg.Preview.MaxWidth
	}
	if tempCfg.Preview.MaxHeight > 0 {
		cfg.Preview.MaxHeight = tempCfg.Preview.MaxHeight
	}
	if tempCfg.Preview.Quality > 0 {
		cfg.Preview.Quality = tempCfg.Preview.Quality
	}

	if tempCfg.Save.JPEGQuality > 0 {
		cfg.Save.JPEGQuality = tempCfg.Save.JPEGQuality
	}

	if tempCfg.Server.Address != "" {
		cfg.Server.Address = tempCfg.Server.Address
	}

	if tempCfg.Log.Level != "" {
		cfg.Log.Level = tempCfg.Log.Level
	}
	cfg.Log.File = tempCfg.Log.File

	// Validate the final configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns the default configuration with safe defaults.
func defaultConfig() *Config {
	cfg := &Config{}

	cfg.Scan.Excludes = []string{}
	cfg.Scan.SkipHidden = false

	cfg.Preview.MaxWidth = 1600
	cfg.Preview.MaxHeight = 1600
	cfg.Preview.Quality = 85

	cfg.Save.JPEGQuality = 95

	cfg.Server.Address = "127.0.0.1:8421"

	cfg.Log.Level = "info"
	cfg.Log.File = ""

	return cfg
}

// SaveConfig saves the configuration to the specified file.
// It creates parent directories if they don't exist.
func SaveConfig(cfg *Config, path string) error {
	// Create parent directories if they don't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Marshal the config to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write the data to the file
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid.
// Returns error if any settings are invalid.
func (c *Config) Validate() error {
	if c == nil {
		return errors.NewConfigError("nil config", "", errors.InvalidConfig, nil)
	}

	// Exclude patterns must compile
	for _, pattern := range c.Scan.Excludes {
		if _, err := glob.Compile(pattern); err != nil {
			return errors.NewConfigError("invalid exclude pattern", "scan.excludes", errors.InvalidConfig, err)
		}
	}

	if c.Preview.MaxWidth < 16 || c.Preview.MaxHeight < 16 {
		return errors.NewConfigError("preview bounds must be at least 16 pixels", "preview.max_width", errors.InvalidConfig, nil)
	}
	if c.Preview.Quality < 1 || c.Preview.Quality > 100 {
		return errors.NewConfigError("preview quality must be in 1-100", "preview.quality", errors.InvalidConfig, nil)
	}

	if c.Save.JPEGQuality < 1 || c.Save.JPEGQuality > 100 {
		return errors.NewConfigError("jpeg quality must be in 1-100", "save.jpeg_quality", errors.InvalidConfig, nil)
	}

	if c.Server.Address == "" {
		return errors.NewConfigError("server address cannot be empty", "server.address", errors.InvalidConfig, nil)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return errors.NewConfigError("unknown log level", "log.level", errors.InvalidConfig, nil)
	}

	return nil
}

// New creates a new configuration instance with default values.
func New() *Config {
	return defaultConfig()
}
