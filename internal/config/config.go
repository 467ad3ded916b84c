package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Mode selects how the guard runs.
type Mode string

const (
	// ModeOneShot runs a single update and exits.
	ModeOneShot Mode = "one-shot"
)

// Modes lists every mode the guard knows how to run.
var Modes = []Mode{ModeOneShot}

// Compare selects the change-detection policy.
type Compare string

const (
	// CompareSet treats two source sets with the same members as equal.
	CompareSet Compare = "set"
	// CompareOrdered requires the same entries in the same order.
	CompareOrdered Compare = "ordered"
)

const (
	DefaultStateFile     = ".nginxguard"
	DefaultFetchTimeout  = 10 * time.Second
	DefaultReloadTimeout = 30 * time.Second
)

var (
	ErrReadConfig      = errors.New("cannot read config file")
	ErrParseConfig     = errors.New("cannot parse config file")
	ErrUnsupportedMode = errors.New("unsupported mode")
	ErrMissingField    = errors.New("missing required field")
	ErrInvalidCompare  = errors.New("invalid compare policy")
	ErrInvalidTimeout  = errors.New("timeout must not be negative")
)

// Config captures one run's configuration, sourced from a YAML file with env overrides.
type Config struct {
	Mode          Mode          `yaml:"mode"`
	AllowStatic   []string      `yaml:"allow_static"`
	WhitelistFile string        `yaml:"whitelist_file"`
	NginxBin      string        `yaml:"nginx_bin"`
	StateFile     string        `yaml:"state_file"`
	LockFile      string        `yaml:"lock_file"`
	Compare       Compare       `yaml:"compare"`
	FetchTimeout  time.Duration `yaml:"fetch_timeout"`
	ReloadTimeout time.Duration `yaml:"reload_timeout"`
	Debug         *bool         `yaml:"debug"`
	LogFile       string        `yaml:"log_file"`
	HistoryDB     string        `yaml:"history_db"`
	MetricsFile   string        `yaml:"metrics_file"`
	NotifyURLs    []string      `yaml:"notify_urls"`
}

// Load reads the config file at path, applies defaults and env overrides, and validates it.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrReadConfig, err)
	}
	return Parse(data)
}

// Parse decodes a YAML document into a validated Config.
func Parse(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrParseConfig, err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	c.StateFile = getEnv("NGINXGUARD_STATE_FILE", c.StateFile, DefaultStateFile)
	c.LogFile = getEnv("NGINXGUARD_LOG_FILE", c.LogFile, "")
	if c.LockFile == "" && c.WhitelistFile != "" {
		// the whitelist directory has to be writable for a run to succeed at all
		c.LockFile = c.WhitelistFile + ".lock"
	}
	if c.Compare == "" {
		c.Compare = CompareSet
	}
	// zero means "not set"
	if c.FetchTimeout == 0 {
		c.FetchTimeout = DefaultFetchTimeout
	}
	if c.ReloadTimeout == 0 {
		c.ReloadTimeout = DefaultReloadTimeout
	}
}

// Validate checks the fields a run cannot proceed without.
func (c Config) Validate() error {
	if !c.Mode.Supported() {
		return fmt.Errorf("%w: %q is not a supported mode", ErrUnsupportedMode, c.Mode)
	}
	if c.WhitelistFile == "" {
		return fmt.Errorf("%w: whitelist_file", ErrMissingField)
	}
	if c.NginxBin == "" {
		return fmt.Errorf("%w: nginx_bin", ErrMissingField)
	}
	if c.Compare != CompareSet && c.Compare != CompareOrdered {
		return fmt.Errorf("%w: %q", ErrInvalidCompare, c.Compare)
	}
	if c.FetchTimeout < 0 || c.ReloadTimeout < 0 {
		return ErrInvalidTimeout
	}
	return nil
}

// DebugEnabled reports whether debug logging is on. It defaults to true.
func (c Config) DebugEnabled() bool {
	if c.Debug == nil {
		return true
	}
	return *c.Debug
}

// Supported reports whether m is one of Modes.
func (m Mode) Supported() bool {
	for _, known := range Modes {
		if m == known {
			return true
		}
	}
	return false
}

// getEnv prefers the environment, then the file value, then the fallback.
func getEnv(key, value, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if value != "" {
		return value
	}
	return fallback
}
