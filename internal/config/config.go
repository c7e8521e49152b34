// Package config handles configuration loading from YAML files and environment variables.
// Configuration precedence: CLI flags > environment variables > config file > embedded > defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Bridge modes.
const (
	BridgeExec  = "exec"
	BridgeLocal = "local"
)

// Duration is a wrapper around time.Duration that supports YAML unmarshaling
// from human-readable strings like "1s", "500ms", "1m".
type Duration struct {
	time.Duration
}

// UnmarshalYAML implements the yaml.Unmarshaler interface for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		parsed, err := time.ParseDuration(value.Value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value.Value, err)
		}
		d.Duration = parsed
		return nil
	default:
		return fmt.Errorf("unsupported duration format: %v", value.Kind)
	}
}

// MarshalYAML implements the yaml.Marshaler interface for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// Config holds all backend configuration.
type Config struct {
	Poll     PollConfig     `yaml:"poll"`
	Bridge   BridgeConfig   `yaml:"bridge"`
	Procs    ProcsConfig    `yaml:"procs"`
	Settings SettingsConfig `yaml:"settings"`
	RPC      RPCConfig      `yaml:"rpc"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// PollConfig holds background sampling settings.
type PollConfig struct {
	Interval Duration `yaml:"interval"`
}

// BridgeConfig selects how expensive metrics are fetched.
// Mode "exec" runs Command (default: this binary) as a subprocess;
// mode "local" samples in-process.
type BridgeConfig struct {
	Mode    string   `yaml:"mode"`
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
	Timeout Duration `yaml:"timeout"`
}

// ProcsConfig holds defaults for the top-k process ranking.
type ProcsConfig struct {
	DefaultK int `yaml:"default_k"`
}

// SettingsConfig locates the persisted key-value settings.
type SettingsConfig struct {
	Path         string   `yaml:"path"`
	LegacyPaths  []string `yaml:"legacy_paths"`
	DebugDefault bool     `yaml:"debug_default"`
}

// RPCConfig holds host transport settings. Workers <= 0 means unbounded.
type RPCConfig struct {
	Workers int `yaml:"workers"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Poll: PollConfig{
			Interval: Duration{1 * time.Second},
		},
		Bridge: BridgeConfig{
			Mode:    BridgeExec,
			Timeout: Duration{10 * time.Second},
		},
		Procs: ProcsConfig{
			DefaultK: 10,
		},
		Settings: SettingsConfig{
			Path:         defaultSettingsPath(),
			DebugDefault: false,
		},
		RPC: RPCConfig{
			Workers: 0,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// CLIOverrides holds values from command-line flags.
// Empty strings are treated as "not set" and skipped.
type CLIOverrides struct {
	LogLevel     string
	BridgeMode   string
	SettingsPath string
}

// Locate searches standard config file paths and returns the first one found.
// Returns empty string if no config file exists.
func Locate() string {
	for _, p := range configSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// DefaultPath is where a new config file is written: the first path
// Locate searches.
func DefaultPath() string {
	return configSearchPaths()[0]
}

// LoadLayered loads configuration with the full precedence chain:
// CLI flags > env vars > external YAML file > embedded bytes > defaults.
//
// An optional configPath argument controls external-file discovery:
//   - omitted        → auto-discover via Locate()
//   - explicit value → use that path ("" means no external file)
func LoadLayered(cli CLIOverrides, embedded []byte, configPath ...string) (*Config, error) {
	cfg := DefaultConfig()

	if len(embedded) > 0 {
		if err := yaml.Unmarshal(embedded, cfg); err != nil {
			return nil, fmt.Errorf("parsing embedded config: %w", err)
		}
	}

	var filePath string
	if len(configPath) > 0 {
		filePath = configPath[0]
	} else {
		filePath = Locate()
	}
	if filePath != "" {
		data, err := os.ReadFile(filePath)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", filePath, err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if cli.LogLevel != "" {
		cfg.Logging.Level = cli.LogLevel
	}
	if cli.BridgeMode != "" {
		cfg.Bridge.Mode = cli.BridgeMode
	}
	if cli.SettingsPath != "" {
		cfg.Settings.Path = cli.SettingsPath
	}

	return cfg, nil
}

// WriteConfig serializes the config to a YAML file at the given path.
// Creates parent directories if needed.
func WriteConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0640)
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// The host runtime's DECKY_PLUGIN_* directories are honoured when set.
func applyEnvOverrides(cfg *Config) error {
	if dir := os.Getenv("DECKY_PLUGIN_SETTINGS_DIR"); dir != "" {
		cfg.Settings.Path = filepath.Join(dir, settingsFileName)
	}
	if dir := os.Getenv("DECKY_PLUGIN_LOG_DIR"); dir != "" {
		cfg.Logging.File = filepath.Join(dir, "vitalis-spy.log")
	}
	if level := os.Getenv("VITALIS_SPY_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if mode := os.Getenv("VITALIS_SPY_BRIDGE_MODE"); mode != "" {
		cfg.Bridge.Mode = mode
	}
	if path := os.Getenv("VITALIS_SPY_SETTINGS_PATH"); path != "" {
		cfg.Settings.Path = path
	}
	if v := os.Getenv("VITALIS_SPY_POLL_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("VITALIS_SPY_POLL_INTERVAL: %w", err)
		}
		cfg.Poll.Interval = Duration{d}
	}
	if v := os.Getenv("VITALIS_SPY_DEFAULT_K"); v != "" {
		k, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("VITALIS_SPY_DEFAULT_K: %w", err)
		}
		cfg.Procs.DefaultK = k
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Poll.Interval.Duration <= 0 {
		return fmt.Errorf("poll interval must be positive (got: %s)", c.Poll.Interval.Duration)
	}
	switch c.Bridge.Mode {
	case BridgeExec, BridgeLocal:
	default:
		return fmt.Errorf("bridge mode must be %q or %q (got: %q)", BridgeExec, BridgeLocal, c.Bridge.Mode)
	}
	if c.Bridge.Timeout.Duration < 0 {
		return fmt.Errorf("bridge timeout must not be negative")
	}
	if c.Procs.DefaultK <= 0 {
		return fmt.Errorf("procs default_k must be positive (got: %d)", c.Procs.DefaultK)
	}
	if c.Settings.Path == "" {
		return fmt.Errorf("settings path is required")
	}
	return nil
}
