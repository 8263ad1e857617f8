// Package config loads application settings from flags, EASYPRESENTER_*
// environment variables and an optional config.yaml in the data directory.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/Arbasante/proyecto-easyworship/internal/db"
)

// Config keys. Flags, environment variables and config.yaml all use them.
const (
	KeyAddr         = "addr"
	KeyDataDir      = "data_dir"
	KeyResourceDir  = "resource_dir"
	KeyLogLevel     = "log_level"
	KeyLogFormat    = "log_format"
	KeyDebug        = "debug"
	KeyNoBrowser    = "no_browser"
	KeyDecodePolicy = "decode_policy"
	KeyDisplays     = "displays"
)

const (
	// EnvPrefix namespaces every environment variable.
	EnvPrefix = "EASYPRESENTER"

	// FileName is the config file looked up in the data directory.
	FileName = "config.yaml"

	DefaultAddr = "127.0.0.1:8090"
)

// Config holds all application configuration.
type Config struct {
	Addr         string
	DataDir      string
	ResourceDir  string
	LogLevel     string
	LogFormat    string
	Debug        bool
	NoBrowser    bool
	DecodePolicy string
	Displays     int
}

// fileConfig is the shape written to a fresh config.yaml.
type fileConfig struct {
	Addr         string `yaml:"addr"`
	LogLevel     string `yaml:"log_level"`
	LogFormat    string `yaml:"log_format"`
	NoBrowser    bool   `yaml:"no_browser"`
	DecodePolicy string `yaml:"decode_policy"`
	Displays     int    `yaml:"displays"`
}

// New returns a viper instance with defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyAddr, DefaultAddr)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeyDebug, false)
	v.SetDefault(KeyNoBrowser, false)
	v.SetDefault(KeyDecodePolicy, db.DecodeSkip.String())
	v.SetDefault(KeyDisplays, 1)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// ReadFile merges config.yaml from dir into v. A missing file is not an
// error.
func ReadFile(v *viper.Viper, dir string) error {
	v.SetConfigFile(filepath.Join(dir, FileName))
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	slog.Debug("config file loaded", "path", v.ConfigFileUsed())
	return nil
}

// WriteDefaultFile creates dir/config.yaml with default values unless it
// already exists. It reports whether a file was written.
func WriteDefaultFile(dir string) (bool, error) {
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("stat config file: %w", err)
	}

	data, err := yaml.Marshal(&fileConfig{
		Addr:         DefaultAddr,
		LogLevel:     "info",
		LogFormat:    "text",
		DecodePolicy: db.DecodeSkip.String(),
		Displays:     1,
	})
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}

	header := "# EasyPresenter configuration. Every key can be overridden by a\n" +
		"# command-line flag or an EASYPRESENTER_<KEY> environment variable.\n"
	if err := os.WriteFile(path, append([]byte(header), data...), 0o644); err != nil {
		return false, err
	}
	return true, nil
}

// FromViper builds a Config from v.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Addr:         v.GetString(KeyAddr),
		DataDir:      v.GetString(KeyDataDir),
		ResourceDir:  v.GetString(KeyResourceDir),
		LogLevel:     strings.ToLower(v.GetString(KeyLogLevel)),
		LogFormat:    strings.ToLower(v.GetString(KeyLogFormat)),
		Debug:        v.GetBool(KeyDebug),
		NoBrowser:    v.GetBool(KeyNoBrowser),
		DecodePolicy: strings.ToLower(v.GetString(KeyDecodePolicy)),
		Displays:     v.GetInt(KeyDisplays),
	}
}

// Validate validates the configuration and returns detailed errors.
func (c *Config) Validate() error {
	var problems []string

	if c.Addr == "" {
		problems = append(problems, "addr cannot be empty")
	} else if _, _, err := net.SplitHostPort(c.Addr); err != nil {
		problems = append(problems, fmt.Sprintf("addr must be host:port, got: %s", c.Addr))
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.LogLevel] {
		problems = append(problems, fmt.Sprintf("log_level must be one of: debug, info, warn, error, got: %s", c.LogLevel))
	}

	validLogFormats := map[string]bool{"text": true, "json": true}
	if !validLogFormats[c.LogFormat] {
		problems = append(problems, fmt.Sprintf("log_format must be one of: text, json, got: %s", c.LogFormat))
	}

	if _, err := db.ParseDecodePolicy(c.DecodePolicy); err != nil {
		problems = append(problems, fmt.Sprintf("decode_policy must be one of: skip, strict, got: %s", c.DecodePolicy))
	}

	if c.Displays < 1 {
		problems = append(problems, fmt.Sprintf("displays must be at least 1, got: %d", c.Displays))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}

// Policy returns the parsed decode policy. Call after Validate.
func (c *Config) Policy() db.DecodePolicy {
	p, _ := db.ParseDecodePolicy(c.DecodePolicy)
	return p
}

// Level returns the slog level; Debug forces debug.
func (c *Config) Level() slog.Level {
	if c.Debug {
		return slog.LevelDebug
	}
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// NewLogger builds the process logger writing to stdout.
func (c *Config) NewLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.Level()}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
