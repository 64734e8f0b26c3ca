package logger

import (
	"log/slog"
	"time"

	slogzap "github.com/samber/slog-zap/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func newZapHandler(cfg Config) slog.Handler {
	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "ts"
	enc.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	enc.EncodeDuration = zapcore.StringDurationEncoder

	var core zapcore.Core = zapcore.NewCore(
		zapcore.NewJSONEncoder(enc),
		zapcore.Lock(zapcore.AddSync(cfg.Output)),
		zapLevel(cfg.Level),
	)
	if cfg.SampleFirst > 0 {
		every := max(cfg.SampleEvery, 1)
		core = zapcore.NewSamplerWithOptions(core, time.Second, cfg.SampleFirst, every)
	}

	// slog-zap fills the caller from the record when AddSource is set.
	return slogzap.Option{Level: cfg.Level, Logger: zap.New(core), AddSource: cfg.AddSource}.NewZapHandler()
}

// zapLevel maps slog levels, including offsets such as warn+2, onto zap's.
func zapLevel(lvl slog.Level) zapcore.Level {
	switch {
	case lvl < slog.LevelInfo:
		return zapcore.DebugLevel
	case lvl < slog.LevelWarn:
		return zapcore.InfoLevel
	case lvl < slog.LevelError:
		return zapcore.WarnLevel
	default:
		return zapcore.ErrorLevel
	}
}
