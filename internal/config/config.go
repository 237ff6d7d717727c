// Package config provides application configuration management with support for environment variables, command-line flags, and a YAML config file.
package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vigilapp/vigil/internal/validation"
)

// Config holds the application configuration.
type Config struct {
	App      AppConfig      `yaml:"app"`
	Logger   LoggerConfig   `yaml:"logger"`
	Watch    WatchConfig    `yaml:"watch"`
	Throttle ThrottleConfig `yaml:"throttle"`
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string `yaml:"environment" validate:"required,oneof=development staging production"`
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string `yaml:"level" validate:"required,oneof=debug info warn error"`
	// Format forces "json" or "pretty" output; empty picks by environment.
	Format string `yaml:"format" validate:"omitempty,oneof=json pretty"`
}

// WatchConfig holds the directory trees to observe.
type WatchConfig struct {
	Roots []string `yaml:"roots" validate:"required,min=1,dive,required"`
	// IgnorePatterns are doublestar globs. Nil keeps the watcher's
	// defaults; an explicit empty list disables filtering.
	IgnorePatterns []string `yaml:"ignore_patterns"`
	IgnoreHidden   bool     `yaml:"ignore_hidden"`
}

// ThrottleConfig limits per-path event logging in the daemon.
type ThrottleConfig struct {
	Enabled         bool    `yaml:"enabled"`
	EventsPerSecond float64 `yaml:"events_per_second" validate:"gt=0"`
	Burst           int     `yaml:"burst" validate:"gte=1"`
}

// fileConfig mirrors Config for the YAML file, with pointers where
// absence must be distinguishable from the zero value.
type fileConfig struct {
	App struct {
		Environment string `yaml:"environment"`
	} `yaml:"app"`
	Logger struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logger"`
	Watch struct {
		Roots          []string `yaml:"roots"`
		IgnorePatterns []string `yaml:"ignore_patterns"`
		IgnoreHidden   *bool    `yaml:"ignore_hidden"`
	} `yaml:"watch"`
	Throttle struct {
		Enabled         *bool   `yaml:"enabled"`
		EventsPerSecond float64 `yaml:"events_per_second"`
		Burst           int     `yaml:"burst"`
	} `yaml:"throttle"`
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. YAML config file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	// Define command-line flags.
	env := flag.String("env", "", "Environment (development, staging, production)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	logFormat := flag.String("log-format", "", "Log format (json, pretty)")
	roots := flag.String("roots", "", "Comma-separated directory trees to watch")
	ignorePatterns := flag.String("ignore", "", "Comma-separated ignore patterns")
	ignoreHidden := flag.String("ignore-hidden", "", "Skip hidden files and directories (default: true)")

	// Throttle flags
	throttleEnabled := flag.String("throttle", "", "Throttle per-path change logging (default: true)")
	throttleRate := flag.String("throttle-rate", "", "Throttled events per second per path (default: 10)")
	throttleBurst := flag.String("throttle-burst", "", "Throttle burst per path (default: 20)")

	configFile := flag.String("config", "vigil.yaml", "Path to YAML config file")

	// Parse flags but don't exit on error - we want to handle it gracefully.
	flag.Parse()

	return buildConfig(*configFile, flagValues{
		env:             *env,
		logLevel:        *logLevel,
		logFormat:       *logFormat,
		roots:           *roots,
		ignorePatterns:  *ignorePatterns,
		ignoreHidden:    *ignoreHidden,
		throttleEnabled: *throttleEnabled,
		throttleRate:    *throttleRate,
		throttleBurst:   *throttleBurst,
	})
}

// flagValues carries parsed flag strings so the resolution logic stays
// testable without touching the global flag set.
type flagValues struct {
	env             string
	logLevel        string
	logFormat       string
	roots           string
	ignorePatterns  string
	ignoreHidden    string
	throttleEnabled string
	throttleRate    string
	throttleBurst   string
}

func buildConfig(configFile string, flags flagValues) (*Config, error) {
	// Load the YAML file if it exists (silently ignore if not found).
	file, err := loadConfigFile(configFile)
	if err != nil {
		return nil, err
	}

	// Build config with proper precedence.
	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(flags.env, "ENV", file.App.Environment, "development"),
		},
		Logger: LoggerConfig{
			Level:  strings.ToLower(getConfigValue(flags.logLevel, "LOG_LEVEL", file.Logger.Level, "info")),
			Format: getConfigValue(flags.logFormat, "LOG_FORMAT", file.Logger.Format, ""),
		},
		Watch: WatchConfig{
			Roots:          getListConfigValue(flags.roots, "WATCH_ROOTS", file.Watch.Roots),
			IgnorePatterns: getListConfigValue(flags.ignorePatterns, "WATCH_IGNORE", file.Watch.IgnorePatterns),
			IgnoreHidden:   getBoolConfigValue(flags.ignoreHidden, "WATCH_IGNORE_HIDDEN", file.Watch.IgnoreHidden, true),
		},
		Throttle: ThrottleConfig{
			Enabled:         getBoolConfigValue(flags.throttleEnabled, "THROTTLE_ENABLED", file.Throttle.Enabled, true),
			EventsPerSecond: getFloatConfigValue(flags.throttleRate, "THROTTLE_RATE", file.Throttle.EventsPerSecond, 10),
			Burst:           getIntConfigValue(flags.throttleBurst, "THROTTLE_BURST", file.Throttle.Burst, 20),
		},
	}

	// Expand and absolutize watch roots.
	if err := cfg.expandRoots(); err != nil {
		return nil, fmt.Errorf("invalid watch root: %w", err)
	}

	// Validate configuration.
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	return validation.New().Validate(c)
}

// expandRoots expands ~ and makes every watch root absolute.
func (c *Config) expandRoots() error {
	for i, root := range c.Watch.Roots {
		expanded, err := expandPath(root)
		if err != nil {
			return err
		}
		c.Watch.Roots[i] = expanded
	}
	return nil
}

// expandPath expands ~ and makes the path absolute.
func expandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}

	// Expand tilde.
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	// Make absolute if needed.
	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// loadConfigFile reads and parses the YAML config file. A missing file
// yields an empty config; a malformed one is an error.
func loadConfigFile(path string) (*fileConfig, error) {
	var fc fileConfig

	data, err := os.ReadFile(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		if os.IsNotExist(err) {
			return &fc, nil
		}
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return &fc, nil
}

// getConfigValue returns the first non-empty value from flag, env var,
// config file, or default.
func getConfigValue(flagValue, envKey, fileValue, defaultValue string) string {
	// Priority 1: Command-line flag.
	if flagValue != "" {
		return flagValue
	}

	// Priority 2: Environment variable.
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}

	// Priority 3: Config file.
	if fileValue != "" {
		return fileValue
	}

	// Priority 4: Default value.
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, config file, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, fileValue *bool, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "", "")
	if strValue != "" {
		strValue = strings.ToLower(strValue)
		return strValue == "true" || strValue == "1" || strValue == "yes"
	}
	if fileValue != nil {
		return *fileValue
	}
	return defaultValue
}

// getIntConfigValue returns an int from flag, env var, config file, or default.
// Zero in the file counts as unset.
func getIntConfigValue(flagValue, envKey string, fileValue, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "", "")
	if strValue != "" {
		if result, err := strconv.Atoi(strValue); err == nil {
			return result
		}
		return defaultValue
	}
	if fileValue != 0 {
		return fileValue
	}
	return defaultValue
}

// getFloatConfigValue returns a float from flag, env var, config file, or default.
// Zero in the file counts as unset.
func getFloatConfigValue(flagValue, envKey string, fileValue, defaultValue float64) float64 {
	strValue := getConfigValue(flagValue, envKey, "", "")
	if strValue != "" {
		if result, err := strconv.ParseFloat(strValue, 64); err == nil {
			return result
		}
		return defaultValue
	}
	if fileValue != 0 {
		return fileValue
	}
	return defaultValue
}

// getListConfigValue returns a list from a comma-separated flag, a
// comma-separated env var, or the config file. Nil means unset.
func getListConfigValue(flagValue, envKey string, fileValue []string) []string {
	if flagValue != "" {
		return splitList(flagValue)
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return splitList(envValue)
	}
	return fileValue
}

// splitList parses a comma-separated list, trimming whitespace and
// dropping empty entries.
func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
