package domain

import "time"

// Config represents the application configuration
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Destination DestinationConfig `mapstructure:"destination"`
	Fetch       FetchConfig       `mapstructure:"fetch"`
	Probe       ProbeConfig       `mapstructure:"probe"`
	Discovery   DiscoveryConfig   `mapstructure:"discovery"`
	Pacing      PacingConfig      `mapstructure:"pacing"`
	History     HistoryConfig     `mapstructure:"history"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// ServerConfig contains the HTTP status server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DestinationConfig describes where acquired media lands. The directory
// is shared across items and created once before the run.
type DestinationConfig struct {
	Dir string `mapstructure:"dir"`
}

// FetchConfig drives the fetch executor
type FetchConfig struct {
	Binary           string        `mapstructure:"binary"`
	Format           string        `mapstructure:"format"`
	ArchiveFormat    string        `mapstructure:"archive_format"`
	OutputTemplate   string        `mapstructure:"output_template"`
	MaxAttempts      int           `mapstructure:"max_attempts"`
	BaseTimeout      time.Duration `mapstructure:"base_timeout"`
	TimeoutIncrement time.Duration `mapstructure:"timeout_increment"`
	BackoffBase      float64       `mapstructure:"backoff_base"`
}

// ProbeConfig drives the source prober
type ProbeConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// DiscoveryConfig drives the source discoverer
type DiscoveryConfig struct {
	ArchiveSearchURL string        `mapstructure:"archive_search_url"`
	VideoSearchURL   string        `mapstructure:"video_search_url"`
	MaxRetries       int           `mapstructure:"max_retries"`
	BackoffBase      float64       `mapstructure:"backoff_base"`
	RequestTimeout   time.Duration `mapstructure:"request_timeout"`
	RowsPerQuery     int           `mapstructure:"rows_per_query"`
	AccumulateCap    int           `mapstructure:"accumulate_cap"`
	ResultCap        int           `mapstructure:"result_cap"`
	ProbeLimit       int           `mapstructure:"probe_limit"`
}

// PacingConfig sets the delays between distinct-source attempts within
// one item. Discovered sources are lower-confidence, so they get a
// longer delay.
type PacingConfig struct {
	KnownSourceDelay      time.Duration `mapstructure:"known_source_delay"`
	DiscoveredSourceDelay time.Duration `mapstructure:"discovered_source_delay"`
}

// HistoryConfig controls optional sqlite persistence of outcomes
type HistoryConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	DatabasePath string `mapstructure:"database_path"`
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, or file path
	FetchLogs  string `mapstructure:"fetch_logs"`  // directory for per-day fetch logs
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8080,
		},
		Destination: DestinationConfig{
			Dir: "$HOME/Videos/mediafetch",
		},
		Fetch: FetchConfig{
			Binary:           "yt-dlp",
			Format:           "best",
			ArchiveFormat:    "best[height<=720]/best",
			OutputTemplate:   "%(title)s_%(id)s.%(ext)s",
			MaxAttempts:      3,
			BaseTimeout:      30 * time.Second,
			TimeoutIncrement: 15 * time.Second,
			BackoffBase:      2.0,
		},
		Probe: ProbeConfig{
			Timeout: 10 * time.Second,
		},
		Discovery: DiscoveryConfig{
			ArchiveSearchURL: "https://archive.org/advancedsearch.php",
			VideoSearchURL:   "https://yewtu.be",
			MaxRetries:       3,
			BackoffBase:      1.0,
			RequestTimeout:   15 * time.Second,
			RowsPerQuery:     15,
			AccumulateCap:    8,
			ResultCap:        10,
			ProbeLimit:       5,
		},
		Pacing: PacingConfig{
			KnownSourceDelay:      1 * time.Second,
			DiscoveredSourceDelay: 2 * time.Second,
		},
		History: HistoryConfig{
			Enabled:      false,
			DatabasePath: "$HOME/Videos/mediafetch/history.db",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stdout",
			FetchLogs:  "$HOME/Videos/mediafetch/logs",
		},
	}
}
