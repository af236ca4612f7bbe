package config

import "time"

// Defaults used when the configuration omits a value.
const (
	DefaultOutputDir = "./site"
	DefaultDebounce  = 300 * time.Millisecond
	DefaultLogLevel  = "info"
)

func applyDefaults(cfg *Config) {
	if cfg.Version == "" {
		cfg.Version = CurrentVersion
	}
	if cfg.Output.Directory == "" {
		cfg.Output.Directory = DefaultOutputDir
	}
	if cfg.Watch.Debounce <= 0 {
		cfg.Watch.Debounce = Duration(DefaultDebounce)
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
}
