package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"ntdiff/internal/typediff"
)

// CurrentVersion is the config schema version written by Save.
const CurrentVersion = 1

// DefaultDir is where the config file and registry live unless overridden.
const DefaultDir = ".ntdiff"

// EnvPrefix prefixes environment overrides, e.g. NTDIFF_POLICY_MAXSEVERITY.
const EnvPrefix = "NTDIFF"

// Config represents the complete ntdiff configuration
type Config struct {
	Version int `json:"version" mapstructure:"version"`

	Registry RegistryConfig `json:"registry" mapstructure:"registry"`
	Policy   PolicyConfig   `json:"policy" mapstructure:"policy"`
	Logging  LoggingConfig  `json:"logging" mapstructure:"logging"`
	Output   OutputConfig   `json:"output" mapstructure:"output"`
}

// RegistryConfig contains registry database configuration
type RegistryConfig struct {
	// Path is the database file. A relative path is relative to the config
	// directory, not the working directory.
	Path     string `json:"path" mapstructure:"path"`
	Compress bool   `json:"compress" mapstructure:"compress"`
}

// PolicyConfig contains the registration policy
type PolicyConfig struct {
	// MaxSeverity is the highest change severity accepted without --force.
	MaxSeverity string `json:"maxSeverity" mapstructure:"maxSeverity"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
	// File enables logging to a rotated file in addition to stderr.
	File       string `json:"file,omitempty" mapstructure:"file"`
	MaxSizeMB  int    `json:"maxSizeMB" mapstructure:"maxSizeMB"`
	MaxBackups int    `json:"maxBackups" mapstructure:"maxBackups"`
	Compress   bool   `json:"compress" mapstructure:"compress"`
}

// OutputConfig contains CLI output defaults
type OutputConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Color  bool   `json:"color" mapstructure:"color"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentVersion,
		Registry: RegistryConfig{
			Path:     "registry.db",
			Compress: true,
		},
		Policy: PolicyConfig{
			MaxSeverity: typediff.SeverityTrivial.String(),
		},
		Logging: LoggingConfig{
			Format:     "human",
			Level:      "warn",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		Output: OutputConfig{
			Format: "human",
			Color:  true,
		},
	}
}

// setDefaults registers every key with viper so that environment overrides
// apply even when the config file omits the key.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("version", d.Version)
	v.SetDefault("registry.path", d.Registry.Path)
	v.SetDefault("registry.compress", d.Registry.Compress)
	v.SetDefault("policy.maxSeverity", d.Policy.MaxSeverity)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("logging.maxSizeMB", d.Logging.MaxSizeMB)
	v.SetDefault("logging.maxBackups", d.Logging.MaxBackups)
	v.SetDefault("logging.compress", d.Logging.Compress)
	v.SetDefault("output.format", d.Output.Format)
	v.SetDefault("output.color", d.Output.Color)
}

// LoadConfig loads configuration from <dir>/config.json and NTDIFF_*
// environment variables. A missing file is not an error.
func LoadConfig(dir string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(dir)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// RegistryPath resolves Registry.Path against the config directory dir.
func (c *Config) RegistryPath(dir string) string {
	if filepath.IsAbs(c.Registry.Path) {
		return c.Registry.Path
	}
	return filepath.Join(dir, c.Registry.Path)
}

// Save writes the configuration to <dir>/config.json
func (c *Config) Save(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(dir, "config.json"), append(data, '\n'), 0644)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return &ConfigError{Field: "version", Message: "unsupported config version"}
	}
	if strings.TrimSpace(c.Registry.Path) == "" {
		return &ConfigError{Field: "registry.path", Message: "must not be empty"}
	}
	if _, err := typediff.ParseSeverity(c.Policy.MaxSeverity); err != nil {
		return &ConfigError{Field: "policy.maxSeverity", Message: err.Error()}
	}
	if !oneOf(c.Logging.Format, "human", "json") {
		return &ConfigError{Field: "logging.format", Message: "must be human or json"}
	}
	if !oneOf(strings.ToLower(c.Logging.Level), "debug", "info", "warn", "warning", "error") {
		return &ConfigError{Field: "logging.level", Message: "must be debug, info, warn or error"}
	}
	if c.Logging.MaxSizeMB < 0 || c.Logging.MaxBackups < 0 {
		return &ConfigError{Field: "logging", Message: "rotation limits must not be negative"}
	}
	if !oneOf(c.Output.Format, "human", "json") {
		return &ConfigError{Field: "output.format", Message: "must be human or json"}
	}
	return nil
}

func oneOf(s string, allowed ...string) bool {
	for _, a := range allowed {
		if s == a {
			return true
		}
	}
	return false
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
