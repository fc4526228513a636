package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"github.com/wlfogle/mediafetch/internal/domain"
)

// LoadConfig loads configuration from file and environment. Unknown
// keys in the config file are rejected rather than silently ignored.
func LoadConfig(configPath string) (*domain.Config, error) {
	// Start with default config
	config := domain.DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Look for config in standard locations
		v.SetConfigName("config")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.mediafetch")
		v.AddConfigPath("/etc/mediafetch")
	}

	v.SetEnvPrefix("MEDIAFETCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults
	}

	if err := v.Unmarshal(config, func(dc *mapstructure.DecoderConfig) {
		dc.ErrorUnused = true
	}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config = expandPaths(config)

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// expandPaths expands environment variables in path configurations
func expandPaths(config *domain.Config) *domain.Config {
	config.Destination.Dir = expandPath(config.Destination.Dir)
	config.History.DatabasePath = expandPath(config.History.DatabasePath)
	config.Logging.FetchLogs = expandPath(config.Logging.FetchLogs)

	if config.Logging.OutputPath != "stdout" && config.Logging.OutputPath != "stderr" {
		config.Logging.OutputPath = expandPath(config.Logging.OutputPath)
	}

	return config
}

// expandPath expands environment variables and ~ in paths
func expandPath(path string) string {
	path = os.ExpandEnv(path)

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	if strings.Contains(path, "$HOME") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = strings.ReplaceAll(path, "$HOME", home)
		}
	}

	return path
}

// validateConfig validates the configuration
func validateConfig(config *domain.Config) error {
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Destination.Dir == "" {
		return fmt.Errorf("destination directory not configured")
	}

	if config.Fetch.MaxAttempts < 1 {
		return fmt.Errorf("fetch max attempts must be at least 1")
	}

	if config.Fetch.BaseTimeout <= 0 {
		return fmt.Errorf("fetch base timeout must be positive")
	}

	if config.Fetch.BackoffBase <= 0 || config.Discovery.BackoffBase <= 0 {
		return fmt.Errorf("backoff base must be positive")
	}

	if config.Probe.Timeout <= 0 {
		return fmt.Errorf("probe timeout must be positive")
	}

	if config.Discovery.MaxRetries < 1 {
		return fmt.Errorf("discovery max retries must be at least 1")
	}

	if config.Discovery.AccumulateCap < 1 || config.Discovery.ResultCap < 1 {
		return fmt.Errorf("discovery caps must be at least 1")
	}

	if config.Discovery.ProbeLimit < 1 {
		return fmt.Errorf("discovery probe limit must be at least 1")
	}

	if config.History.Enabled && config.History.DatabasePath == "" {
		return fmt.Errorf("history database path not configured")
	}

	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}

	return nil
}
