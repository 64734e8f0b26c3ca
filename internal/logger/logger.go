// Package logger configures the process-wide slog logger: readable text for
// local runs, JSON through zap everywhere else.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

type Env string

const (
	EnvDev   Env = "dev"
	EnvStage Env = "stage"
	EnvProd  Env = "prod"
)

type Backend string

const (
	BackendText Backend = "text"
	BackendZap  Backend = "zap"
)

type Config struct {
	Service string
	Version string
	Env     Env
	// Backend defaults to text in dev and zap elsewhere.
	Backend   Backend
	Level     slog.Level
	AddSource bool

	// Zap only: per message and second, keep the first SampleFirst records
	// and then every SampleEvery-th. SampleFirst <= 0 disables sampling.
	SampleFirst int
	SampleEvery int

	// Output defaults to os.Stdout.
	Output io.Writer
}

// ParseEnv normalises APP_ENV style values.
func ParseEnv(raw string) Env {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "prod", "production":
		return EnvProd
	case "stage", "staging", "preprod":
		return EnvStage
	default:
		return EnvDev
	}
}

// ParseLevel reads debug, info, warn or error (slog syntax, offsets like
// "warn+2" included). Anything else is info.
func ParseLevel(raw string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(raw))); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// Init builds the logger described by cfg and installs it as the slog default.
func Init(cfg Config) *slog.Logger {
	if cfg.Env == "" {
		cfg.Env = EnvDev
	}
	if cfg.Backend == "" {
		cfg.Backend = BackendZap
		if cfg.Env == EnvDev {
			cfg.Backend = BackendText
		}
	}
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}

	var h slog.Handler
	if cfg.Backend == BackendZap {
		h = newZapHandler(cfg)
	} else {
		h = slog.NewTextHandler(cfg.Output, &slog.HandlerOptions{Level: cfg.Level, AddSource: cfg.AddSource})
	}

	l := slog.New(h).With(
		slog.String("service", cfg.Service),
		slog.String("env", string(cfg.Env)),
		slog.String("version", cfg.Version),
	)
	slog.SetDefault(l)
	return l
}
