// Package config loads the YAML site configuration.
//
// Relative paths in the file are resolved against the directory of the configuration
// file, so a site can be built from any working directory. ${VAR} references are
// expanded from the environment after .env.local and .env next to the configuration
// file have been loaded.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/pomosite/internal/foundation/errors"
)

// CurrentVersion is the configuration format version written by Init.
const CurrentVersion = "1.0"

// Config is the site configuration file.
type Config struct {
	Version   string           `yaml:"version"`
	Site      SiteConfig       `yaml:"site"`
	Items     map[string]Item  `yaml:"items,omitempty"`
	Languages []LanguageConfig `yaml:"languages,omitempty"`
	Output    OutputConfig     `yaml:"output"`
	Build     BuildConfig      `yaml:"build,omitempty"`
	Watch     WatchConfig      `yaml:"watch,omitempty"`
	Logging   LoggingConfig    `yaml:"logging,omitempty"`

	// baseDir is the directory relative paths are resolved against.
	baseDir string
}

// SiteConfig locates the site inputs.
type SiteConfig struct {
	// TemplateDir holds the default-language page templates. Templates with a
	// page-config header become pages.
	TemplateDir string `yaml:"template_dir"`
	// ResourcesDir is scanned recursively for static files.
	ResourcesDir string `yaml:"resources_dir,omitempty"`
	// DefaultLanguage is the tag of the untagged pass, exposed to templates as "language".
	DefaultLanguage string `yaml:"default_language,omitempty"`
}

// Item is an explicitly configured item: any page-config field is allowed.
type Item map[string]any

// LanguageConfig adds a translated language pass. Exactly one of Catalog and
// TemplateDir must be set.
type LanguageConfig struct {
	Tag         string `yaml:"tag"`
	Catalog     string `yaml:"catalog,omitempty"`
	TemplateDir string `yaml:"template_dir,omitempty"`
}

// OutputConfig controls where and how the site is written.
type OutputConfig struct {
	Directory string `yaml:"directory"`
	// Clean removes the output directory before generating.
	Clean bool `yaml:"clean"`
	// Manifest is the path of the manifest file; empty disables it.
	Manifest string `yaml:"manifest,omitempty"`
	// VerifyLinks checks relative links in generated HTML after a build.
	VerifyLinks bool `yaml:"verify_links"`
}

// BuildConfig holds generation settings.
type BuildConfig struct {
	// WorkDir keeps translated templates in a fixed directory instead of a temporary one.
	WorkDir string `yaml:"work_dir,omitempty"`
	// History is the SQLite database recording runs; empty disables it.
	History string `yaml:"history,omitempty"`
	// MetricsFile receives Prometheus metrics in textfile format after each run.
	MetricsFile string `yaml:"metrics_file,omitempty"`
}

// WatchConfig tunes watch mode.
type WatchConfig struct {
	Debounce Duration `yaml:"debounce,omitempty"`
	// MetricsAddr serves Prometheus metrics while watching, e.g. ":9464".
	MetricsAddr string `yaml:"metrics_addr,omitempty"`
}

// LoggingConfig sets the default log level; the command line and
// POMOSITE_LOG_LEVEL take precedence.
type LoggingConfig struct {
	Level string `yaml:"level,omitempty"`
}

// Duration is a time.Duration written as a Go duration string in YAML.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Load reads, expands, defaults and validates the configuration at configPath.
func Load(configPath string) (*Config, error) {
	baseDir, err := filepath.Abs(filepath.Dir(configPath))
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "resolve configuration directory").
			Fatal().
			WithContext("path", configPath).
			Build()
	}
	if err := loadEnvFiles(baseDir); err != nil {
		return nil, err
	}

	// #nosec G304 -- the configuration path is chosen by the user.
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapError(err, errors.CategoryConfig, "configuration file not found").
				Fatal().
				UserAction().
				WithContext("path", configPath).
				Build()
		}
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "read configuration file").
			Fatal().
			WithContext("path", configPath).
			Build()
	}

	cfg, err := Parse([]byte(os.ExpandEnv(string(data))), baseDir)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "invalid configuration").
			Fatal().
			UserAction().
			WithContext("path", configPath).
			Build()
	}
	return cfg, nil
}

// Parse decodes configuration YAML. Relative paths are resolved against baseDir.
func Parse(data []byte, baseDir string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.Version != "" && cfg.Version != CurrentVersion {
		return nil, fmt.Errorf("unsupported configuration version: %s (expected %s)", cfg.Version, CurrentVersion)
	}
	cfg.baseDir = baseDir

	applyDefaults(&cfg)
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	cfg.resolvePaths()
	return &cfg, nil
}

// BaseDir returns the directory relative paths were resolved against.
func (c *Config) BaseDir() string { return c.baseDir }

func (c *Config) resolvePaths() {
	for _, p := range []*string{
		&c.Site.TemplateDir,
		&c.Site.ResourcesDir,
		&c.Output.Directory,
		&c.Output.Manifest,
		&c.Build.WorkDir,
		&c.Build.History,
		&c.Build.MetricsFile,
	} {
		*p = c.resolve(*p)
	}
	for i := range c.Languages {
		c.Languages[i].Catalog = c.resolve(c.Languages[i].Catalog)
		c.Languages[i].TemplateDir = c.resolve(c.Languages[i].TemplateDir)
	}
	for id, item := range c.Items {
		if src, ok := item["source"].(string); ok && src != "" {
			item["source"] = c.resolve(src)
			c.Items[id] = item
		}
	}
}

func (c *Config) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || c.baseDir == "" {
		return p
	}
	return filepath.Join(c.baseDir, p)
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.ConfigError(fmt.Sprintf("configuration file already exists: %s (use --force to overwrite)", configPath)).
			WithContext("path", configPath).
			Build()
	}

	example := Config{
		Version: CurrentVersion,
		Site: SiteConfig{
			TemplateDir:     "templates",
			ResourcesDir:    "resources",
			DefaultLanguage: "sv",
		},
		Items: map[string]Item{
			"FEED": {"endpoint": "/feed/"},
		},
		Languages: []LanguageConfig{
			{Tag: "en", Catalog: "translations/en.po"},
		},
		Output: OutputConfig{
			Directory:   "./site",
			Clean:       true,
			Manifest:    "./site.manifest",
			VerifyLinks: true,
		},
		Build: BuildConfig{
			History: "./.pomosite/history.db",
		},
		Watch: WatchConfig{
			Debounce: Duration(DefaultDebounce),
		},
		Logging: LoggingConfig{Level: "info"},
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "marshal example configuration").Build()
	}
	if dir := filepath.Dir(configPath); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "create configuration directory").
				Fatal().
				WithContext("path", dir).
				Build()
		}
	}
	// #nosec G306 -- the configuration holds no secrets; use ${VAR} references for those.
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "write configuration file").
			Fatal().
			WithContext("path", configPath).
			Build()
	}
	return nil
}
