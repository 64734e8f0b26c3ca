package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	DBDriver   string `env:"DB_DRIVER" envDefault:"postgres"`
	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER" envDefault:"postgres"`
	DBPassword string `env:"DB_PASSWORD" envDefault:"postgres"`
	DBName     string `env:"DB_NAME" envDefault:"quizsessions"`
	SQLitePath string `env:"SQLITE_PATH" envDefault:"quizsessions.db"`

	JWTSecret        string        `env:"JWT_SECRET" envDefault:"super-secret-key-change-me"`
	ParticipantTTL   time.Duration `env:"PARTICIPANT_TOKEN_TTL" envDefault:"12h"`
	ServerPort       string        `env:"SERVER_PORT" envDefault:"8080"`
	WSPingInterval   time.Duration `env:"WS_PING_INTERVAL" envDefault:"15s"`
	HeartbeatTimeout time.Duration `env:"PRESENCE_HEARTBEAT_TIMEOUT" envDefault:"60s"`

	ControlRetries        int  `env:"CONTROL_CONFLICT_RETRIES" envDefault:"3"`
	EnforceQuestionWindow bool `env:"ENFORCE_QUESTION_WINDOW" envDefault:"false"`
	MaxParticipants       int  `env:"MAX_PARTICIPANTS" envDefault:"200"`

	LogEnv         string `env:"APP_ENV" envDefault:"dev"`
	LogBackend     string `env:"LOG_BACKEND"`
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	LogAddSource   bool   `env:"LOG_ADD_SOURCE" envDefault:"false"`
	LogSampleFirst int    `env:"LOG_SAMPLE_FIRST" envDefault:"100"`
	LogSampleEvery int    `env:"LOG_SAMPLE_EVERY" envDefault:"10"`
	Version        string `env:"APP_VERSION" envDefault:"v0.1.0"`

	TraceEnabled     bool    `env:"TRACE_ENABLED" envDefault:"true"`
	TraceEndpoint    string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	TraceStdout      bool    `env:"TRACE_STDOUT" envDefault:"false"`
	TraceSampleRatio float64 `env:"TRACE_SAMPLE_RATIO" envDefault:"1"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.ControlRetries < 0 {
		c.ControlRetries = 0
	}
	return nil
}

// PostgresDSN builds the libpq connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName,
	)
}
