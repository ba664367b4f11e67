package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mcuadros/go-defaults"
	"github.com/sirupsen/logrus"
	"github.com/srg/hrmwatch/internal/hrm"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"
)

const (
	MinMaxRate = 30
	MaxMaxRate = 250
)

// Config holds application configuration and user settings
type Config struct {
	// LogLevel is empty by default, which keeps logging silent.
	LogLevel   string           `yaml:"log_level,omitempty"`
	MaxRate    int              `yaml:"max_rate" default:"120"`
	Vibration  bool             `yaml:"vibration" default:"false"`
	Scan       ScanConfig       `yaml:"scan"`
	Connection ConnectionConfig `yaml:"connection"`
	Alarm      AlarmConfig      `yaml:"alarm"`
}

type ScanConfig struct {
	Timeout time.Duration `yaml:"timeout" default:"20s"`
}

type ConnectionConfig struct {
	ConnectTimeout       time.Duration `yaml:"connect_timeout" default:"30s"`
	DiscoveryTimeout     time.Duration `yaml:"discovery_timeout" default:"10s"`
	SettleDelay          time.Duration `yaml:"settle_delay" default:"100ms"`
	ReconnectDelay       time.Duration `yaml:"reconnect_delay" default:"3s"`
	MaxReconnectAttempts int           `yaml:"max_reconnect_attempts" default:"0"`
}

type AlarmConfig struct {
	Interval time.Duration `yaml:"interval" default:"2500ms"`
}

// ErrUnknownKey is returned by Get and Set for keys outside Keys().
var ErrUnknownKey = errors.New("unknown setting")

// DefaultConfig returns default configuration values
func DefaultConfig() *Config {
	cfg := &Config{}
	defaults.SetDefaults(cfg)
	return cfg
}

// DefaultPath returns the per-user settings file location.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user config directory: %w", err)
	}
	return filepath.Join(dir, "hrmwatch", "config.yaml"), nil
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path, creating parent directories.
func Save(path string, cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}
	return nil
}

// Validate checks ranges and formats.
func (c *Config) Validate() error {
	var errs []error
	if c.LogLevel != "" {
		if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
			errs = append(errs, fmt.Errorf("log_level: %w", err))
		}
	}
	if c.MaxRate < MinMaxRate || c.MaxRate > MaxMaxRate {
		errs = append(errs, fmt.Errorf("max_rate: %d is outside %d..%d", c.MaxRate, MinMaxRate, MaxMaxRate))
	}
	positive := []struct {
		key string
		val time.Duration
	}{
		{"scan.timeout", c.Scan.Timeout},
		{"connection.connect_timeout", c.Connection.ConnectTimeout},
		{"connection.discovery_timeout", c.Connection.DiscoveryTimeout},
		{"connection.reconnect_delay", c.Connection.ReconnectDelay},
		{"alarm.interval", c.Alarm.Interval},
	}
	for _, p := range positive {
		if p.val <= 0 {
			errs = append(errs, fmt.Errorf("%s: must be positive", p.key))
		}
	}
	if c.Connection.SettleDelay < 0 {
		errs = append(errs, errors.New("connection.settle_delay: must not be negative"))
	}
	if c.Connection.MaxReconnectAttempts < 0 {
		errs = append(errs, errors.New("connection.max_reconnect_attempts: must not be negative"))
	}
	return errors.Join(errs...)
}

// Level returns the parsed log level. An empty or invalid level is silent.
func (c *Config) Level() logrus.Level {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.PanicLevel
	}
	return level
}

// NewLogger creates a configured logger instance
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(c.Level())
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
	return logger
}

// ManagerOptions maps the settings onto heart-rate manager options.
func (c *Config) ManagerOptions() *hrm.Options {
	opts := hrm.DefaultOptions()
	opts.ScanTimeout = c.Scan.Timeout
	opts.ConnectTimeout = c.Connection.ConnectTimeout
	opts.DiscoveryTimeout = c.Connection.DiscoveryTimeout
	opts.SettleDelay = c.Connection.SettleDelay
	opts.ReconnectDelay = c.Connection.ReconnectDelay
	opts.MaxReconnectAttempts = c.Connection.MaxReconnectAttempts
	return opts
}

type setting struct {
	get func(*Config) string
	set func(*Config, string) error
}

func durationSetting(field func(*Config) *time.Duration) setting {
	return setting{
		get: func(c *Config) string { return field(c).String() },
		set: func(c *Config, v string) error {
			d, err := time.ParseDuration(v)
			if err != nil {
				return err
			}
			*field(c) = d
			return nil
		},
	}
}

func intSetting(field func(*Config) *int) setting {
	return setting{
		get: func(c *Config) string { return strconv.Itoa(*field(c)) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return err
			}
			*field(c) = n
			return nil
		},
	}
}

var settings = func() *orderedmap.OrderedMap[string, setting] {
	m := orderedmap.New[string, setting]()
	m.Set("log_level", setting{
		get: func(c *Config) string { return c.LogLevel },
		set: func(c *Config, v string) error { c.LogLevel = strings.ToLower(v); return nil },
	})
	m.Set("max_rate", intSetting(func(c *Config) *int { return &c.MaxRate }))
	m.Set("vibration", setting{
		get: func(c *Config) string { return strconv.FormatBool(c.Vibration) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return err
			}
			c.Vibration = b
			return nil
		},
	})
	m.Set("scan.timeout", durationSetting(func(c *Config) *time.Duration { return &c.Scan.Timeout }))
	m.Set("connection.connect_timeout", durationSetting(func(c *Config) *time.Duration { return &c.Connection.ConnectTimeout }))
	m.Set("connection.discovery_timeout", durationSetting(func(c *Config) *time.Duration { return &c.Connection.DiscoveryTimeout }))
	m.Set("connection.settle_delay", durationSetting(func(c *Config) *time.Duration { return &c.Connection.SettleDelay }))
	m.Set("connection.reconnect_delay", durationSetting(func(c *Config) *time.Duration { return &c.Connection.ReconnectDelay }))
	m.Set("connection.max_reconnect_attempts", intSetting(func(c *Config) *int { return &c.Connection.MaxReconnectAttempts }))
	m.Set("alarm.interval", durationSetting(func(c *Config) *time.Duration { return &c.Alarm.Interval }))
	return m
}()

// Keys lists every settable key in display order.
func Keys() []string {
	keys := make([]string, 0, settings.Len())
	for pair := settings.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Get returns the value of key as text.
func (c *Config) Get(key string) (string, error) {
	s, ok := settings.Get(key)
	if !ok {
		return "", fmt.Errorf("%w %q", ErrUnknownKey, key)
	}
	return s.get(c), nil
}

// Set parses value into key. The config is left unchanged if the result is invalid.
func (c *Config) Set(key, value string) error {
	s, ok := settings.Get(key)
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownKey, key)
	}

	next := *c
	if err := s.set(&next, strings.TrimSpace(value)); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}
