package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"
)

type cliConfig struct {
	Server          string
	ClientName      string
	Timeout         time.Duration
	CacheSize       int
	CacheTTL        time.Duration
	LogLevel        zerolog.Level
	BreakerFailures uint32 // 0 disables the circuit breaker
	BreakerTimeout  time.Duration
	Database        string
	Strategy        string
	MetricsAddr     string // empty disables the Prometheus endpoint
}

func defaultCLIConfig() cliConfig {
	return cliConfig{
		Server:          "dict.org",
		Timeout:         10 * time.Second,
		CacheSize:       128,
		CacheTTL:        10 * time.Minute,
		LogLevel:        zerolog.WarnLevel,
		BreakerFailures: 0,
		BreakerTimeout:  30 * time.Second,
		Database:        "!",
		Strategy:        ".",
	}
}

type fileConfig struct {
	Server          string `toml:"server"`
	ClientName      string `toml:"client_name"`
	Timeout         string `toml:"timeout"`
	CacheSize       int    `toml:"cache_size"`
	CacheTTL        string `toml:"cache_ttl"`
	LogLevel        string `toml:"log_level"`
	BreakerFailures uint32 `toml:"breaker_failures"`
	BreakerTimeout  string `toml:"breaker_timeout"`
	Database        string `toml:"database"`
	Strategy        string `toml:"strategy"`
	MetricsAddr     string `toml:"metrics_addr"`
}

// loadCLIConfig reads path over the defaults. A missing file is not an
// error when the path was not chosen explicitly.
func loadCLIConfig(path string, explicit bool) (cliConfig, error) {
	cfg := defaultCLIConfig()
	if path == "" {
		return cfg, nil
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cliConfig{}, fmt.Errorf("load dict config: %w", err)
	}

	if meta.IsDefined("server") {
		if v := strings.TrimSpace(raw.Server); v != "" {
			cfg.Server = v
		}
	}

	if meta.IsDefined("client_name") {
		cfg.ClientName = strings.TrimSpace(raw.ClientName)
	}

	if meta.IsDefined("timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Timeout))
		if err != nil {
			return cliConfig{}, fmt.Errorf("parse timeout: %w", err)
		}
		cfg.Timeout = d
	}

	if meta.IsDefined("cache_size") {
		cfg.CacheSize = raw.CacheSize
	}

	if meta.IsDefined("cache_ttl") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.CacheTTL))
		if err != nil {
			return cliConfig{}, fmt.Errorf("parse cache_ttl: %w", err)
		}
		cfg.CacheTTL = d
	}

	if meta.IsDefined("log_level") {
		level, err := zerolog.ParseLevel(strings.TrimSpace(raw.LogLevel))
		if err != nil {
			return cliConfig{}, fmt.Errorf("parse log_level: %w", err)
		}
		cfg.LogLevel = level
	}

	if meta.IsDefined("breaker_failures") {
		cfg.BreakerFailures = raw.BreakerFailures
	}

	if meta.IsDefined("breaker_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.BreakerTimeout))
		if err != nil {
			return cliConfig{}, fmt.Errorf("parse breaker_timeout: %w", err)
		}
		cfg.BreakerTimeout = d
	}

	if meta.IsDefined("database") {
		if v := strings.TrimSpace(raw.Database); v != "" {
			cfg.Database = v
		}
	}

	if meta.IsDefined("strategy") {
		if v := strings.TrimSpace(raw.Strategy); v != "" {
			cfg.Strategy = v
		}
	}

	if meta.IsDefined("metrics_addr") {
		cfg.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return cliConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}

	return cfg, nil
}
