package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment override, e.g. PROMPTGENIE_DATA_DIR
const EnvPrefix = "PROMPTGENIE"

// DefaultConfigName is the config file looked up in the data directory
const DefaultConfigName = "config.yaml"

// Config holds the application settings
type Config struct {
	DataDir       string `mapstructure:"data_dir" yaml:"data_dir"`
	ThemesFile    string `mapstructure:"themes_file" yaml:"themes_file"`
	KeywordsFile  string `mapstructure:"keywords_file" yaml:"keywords_file"`
	LogLevel      string `mapstructure:"log_level" yaml:"log_level"`
	LogFile       string `mapstructure:"log_file" yaml:"log_file"`
	WatchKeywords bool   `mapstructure:"watch_keywords" yaml:"watch_keywords"`

	// ConfigFile is the file the settings were read from, empty when none was found
	ConfigFile string `mapstructure:"-" yaml:"-"`
}

// DefaultDataDir returns ~/.prompt-genie, or .prompt-genie when the home
// directory is unknown
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".prompt-genie"
	}
	return filepath.Join(home, ".prompt-genie")
}

// Default returns the built-in settings
func Default() *Config {
	return &Config{
		DataDir:       DefaultDataDir(),
		ThemesFile:    "theme_prompts.json",
		KeywordsFile:  "keyword_library.json",
		LogLevel:      "info",
		LogFile:       "prompt_genie.log",
		WatchKeywords: true,
	}
}

func newViper() *viper.Viper {
	v := viper.New()
	defaults := Default()
	v.SetDefault("data_dir", defaults.DataDir)
	v.SetDefault("themes_file", defaults.ThemesFile)
	v.SetDefault("keywords_file", defaults.KeywordsFile)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("log_file", defaults.LogFile)
	v.SetDefault("watch_keywords", defaults.WatchKeywords)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	return v
}

// Load reads settings from defaults, an optional YAML config file and
// PROMPTGENIE_* environment variables, later sources winning. With an empty
// cfgFile, config.yaml is looked up in the data directory; a missing file
// there is not an error.
func Load(cfgFile string) (*Config, error) {
	v := newViper()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(strings.TrimSuffix(DefaultConfigName, filepath.Ext(DefaultConfigName)))
		v.SetConfigType("yaml")
		v.AddConfigPath(expandHome(v.GetString("data_dir")))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.ConfigFile = v.ConfigFileUsed()
	cfg.DataDir = expandHome(cfg.DataDir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the settings are usable
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	if strings.TrimSpace(c.ThemesFile) == "" {
		return fmt.Errorf("themes_file must not be empty")
	}
	if strings.TrimSpace(c.KeywordsFile) == "" {
		return fmt.Errorf("keywords_file must not be empty")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error", "disabled":
	default:
		return fmt.Errorf("invalid log_level %q (use debug, info, warn, error or disabled)", c.LogLevel)
	}
	return nil
}

// ThemesPath returns the absolute-or-data-dir-relative template library path
func (c *Config) ThemesPath() string {
	return c.ResolvePath(c.ThemesFile)
}

// KeywordsPath returns the keyword catalog path
func (c *Config) KeywordsPath() string {
	return c.ResolvePath(c.KeywordsFile)
}

// LogPath returns the log file path, empty when file logging is off
func (c *Config) LogPath() string {
	if strings.TrimSpace(c.LogFile) == "" {
		return ""
	}
	return c.ResolvePath(c.LogFile)
}

// ResolvePath expands ~ and joins relative paths onto the data directory
func (c *Config) ResolvePath(path string) string {
	path = expandHome(path)
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.DataDir, path)
}

// EnsureDataDir creates the data directory if needed
func (c *Config) EnsureDataDir() error {
	if err := os.MkdirAll(c.DataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	return nil
}

// WriteDefault writes the built-in settings as YAML to path. An existing file
// is only replaced when overwrite is set.
func WriteDefault(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists: %s", path)
		}
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	header := []byte("# PromptGenie settings. Environment variables " + EnvPrefix + "_<KEY> take precedence.\n")
	if err := os.WriteFile(path, append(header, data...), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
