// Copyright 2026 © The Praxis Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads runtime configuration from YAML files and the
// PRAXIS_ environment, with sane defaults for every knob.
package config

import (
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Log       LogConfig       `koanf:"log"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Runtime   RuntimeConfig   `koanf:"runtime"`
	Scheduler SchedulerConfig `koanf:"scheduler"`
	Metacog   MetacogConfig   `koanf:"metacog"`
	CycleLog  CycleLogConfig  `koanf:"cyclelog"`
	StateChan StateChanConfig `koanf:"statechan"`
	Memory    MemoryConfig    `koanf:"memory"`
	Exec      ExecConfig      `koanf:"exec"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json, text
}

type TelemetryConfig struct {
	Exporter     string `koanf:"exporter"` // stdout, otlp
	OTLPEndpoint string `koanf:"otlp_endpoint"`
	OTLPInsecure bool   `koanf:"otlp_insecure"`
}

type RuntimeConfig struct {
	IdleWait      time.Duration `koanf:"idle_wait"`
	SweepInterval time.Duration `koanf:"sweep_interval"`
	RecentCycles  int           `koanf:"recent_cycles"`
}

// SchedulerConfig declares the timed tasks the agent starts with. The
// list is re-registered on config reload; registration by name is
// idempotent, so a restart or reload with the same schedule is safe.
type SchedulerConfig struct {
	Tasks []TaskConfig `koanf:"tasks"`
}

// TaskConfig is one scheduled event source.
type TaskConfig struct {
	Name       string         `koanf:"name"`
	EventType  string         `koanf:"event_type"`
	Interval   time.Duration  `koanf:"interval"`     // zero means one-shot
	FirstRunIn time.Duration  `koanf:"first_run_in"` // delay before the first firing
	Priority   string         `koanf:"priority"`     // critical, high, normal, low
	Payload    map[string]any `koanf:"payload"`
}

type MetacogConfig struct {
	WindowSize              int     `koanf:"window_size"`
	MaxLoopLength           int     `koanf:"max_loop_length"`
	MinRepetitions          int     `koanf:"min_repetitions"`
	RiskThreshold           float64 `koanf:"risk_threshold"`
	ConsecutiveFailureLimit int     `koanf:"consecutive_failure_limit"`
	WaitSeconds             int     `koanf:"wait_seconds"`
}

type CycleLogConfig struct {
	Path       string `koanf:"path"` // empty keeps history in memory only
	WindowSize int    `koanf:"window_size"`
}

type StateChanConfig struct {
	Dir string `koanf:"dir"`
}

type MemoryConfig struct {
	Enabled         bool   `koanf:"enabled"`
	Provider        string `koanf:"provider"` // vector, inmemory
	QdrantAddr      string `koanf:"qdrant_addr"`
	Collection      string `koanf:"collection"`
	EmbedderBaseURL string `koanf:"embedder_base_url"`
	EmbedderModel   string `koanf:"embedder_model"`
}

type ExecConfig struct {
	Transport string        `koanf:"transport"` // stdio, http
	Command   string        `koanf:"command"`
	Args      []string      `koanf:"args"`
	BaseURL   string        `koanf:"base_url"`
	Timeout   time.Duration `koanf:"timeout"`
}

// Load reads configuration in precedence order: defaults, then the YAML
// file at path if given, then PRAXIS_ environment variables. The first
// underscore after the prefix separates the section from the key, so
// PRAXIS_LOG_LEVEL maps to log.level and PRAXIS_METACOG_WINDOW_SIZE to
// metacog.window_size.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	k.Set("log.level", "info")
	k.Set("log.format", "text")

	k.Set("telemetry.exporter", "stdout")

	k.Set("runtime.idle_wait", "250ms")
	k.Set("runtime.sweep_interval", "5s")
	k.Set("runtime.recent_cycles", 10)

	k.Set("metacog.window_size", 20)
	k.Set("metacog.max_loop_length", 4)
	k.Set("metacog.min_repetitions", 3)
	k.Set("metacog.risk_threshold", 0.7)
	k.Set("metacog.consecutive_failure_limit", 3)
	k.Set("metacog.wait_seconds", 30)

	k.Set("cyclelog.window_size", 256)

	k.Set("statechan.dir", "./praxis-state")

	k.Set("memory.enabled", false)
	k.Set("memory.provider", "vector")
	k.Set("memory.qdrant_addr", "localhost:6334")
	k.Set("memory.collection", "praxis_cycles")
	k.Set("memory.embedder_base_url", "http://localhost:11434")
	k.Set("memory.embedder_model", "nomic-embed-text")

	k.Set("exec.transport", "stdio")
	k.Set("exec.timeout", "30s")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	if err := k.Load(env.Provider("PRAXIS_", ".", envKey), nil); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey maps an environment variable to its config path. Sections are
// single words, so only the first underscore becomes a separator; the
// rest of the name stays part of the key.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, "PRAXIS_"))
	section, rest, found := strings.Cut(key, "_")
	if !found {
		return section
	}
	return section + "." + rest
}
