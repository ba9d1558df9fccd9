package main

import (
	"errors"
	"time"

	"scraperpro/internal/ai"
	"scraperpro/internal/engine"
	"scraperpro/internal/ratelimit"
	"scraperpro/internal/sources"
)

var errNoSources = errors.New("no sources configured")

type DelayConfig struct {
	Mode       string  `json:"mode"`
	MinDelayMs int     `json:"min_delay_ms"`
	MaxDelayMs int     `json:"max_delay_ms"`
	SampleSize int     `json:"sample_size"`
	Multiplier float64 `json:"multiplier"`
}

func (c DelayConfig) toRatelimit() ratelimit.Config {
	cfg := ratelimit.DefaultConfig()
	if c.Mode != "" {
		cfg.Mode = ratelimit.Mode(c.Mode)
	}
	if c.MinDelayMs > 0 {
		cfg.MinDelay = time.Duration(c.MinDelayMs) * time.Millisecond
	}
	if c.MaxDelayMs > 0 {
		cfg.MaxDelay = time.Duration(c.MaxDelayMs) * time.Millisecond
	}
	if c.SampleSize > 0 {
		cfg.SampleSize = c.SampleSize
	}
	if c.Multiplier > 0 {
		cfg.Multiplier = c.Multiplier
	}
	return cfg
}

type CacheConfig struct {
	// empty disables the page cache
	Dir        string `json:"dir"`
	TtlMinutes int    `json:"ttl_minutes"`
}

type OutputConfig struct {
	Json     string `json:"json"`
	Csv      string `json:"csv"`
	Database string `json:"database"`
}

type AiConfig struct {
	Enabled      bool   `json:"enabled"`
	Normalize    bool   `json:"normalize"`
	SelectorsDir string `json:"selectors_dir"`
	ai.Config
}

type Config struct {
	Sources         []sources.Config     `json:"sources"`
	Client          engine.ClientOptions `json:"client"`
	Delay           DelayConfig          `json:"delay"`
	PaceMs          int                  `json:"pace_ms"`
	Cache           CacheConfig          `json:"cache"`
	Output          OutputConfig         `json:"output"`
	ApiPort         int                  `json:"api_port"`
	IntervalMinutes int                  `json:"interval_minutes"`
	Ai              AiConfig             `json:"ai"`
}

func (c Config) interval() time.Duration {
	if c.IntervalMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(c.IntervalMinutes) * time.Minute
}
