// Package logger builds the structured zap logger shared by every component.
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config holds the logger settings.
type Config struct {
	Level      string // debug, info, warn, error
	FilePath   string // stdout when empty
	MaxSize    int    // megabytes
	MaxBackups int
	MaxAge     int // days
}

// New creates a JSON logger writing to stdout or to a rotated file.
func New(cfg Config) (*zap.SugaredLogger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var sink zapcore.WriteSyncer
	if cfg.FilePath != "" {
		w := &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
		}
		if w.MaxSize == 0 {
			w.MaxSize = 100
		}
		if w.MaxBackups == 0 {
			w.MaxBackups = 3
		}
		if w.MaxAge == 0 {
			w.MaxAge = 28
		}
		sink = zapcore.AddSync(w)
	} else {
		sink = zapcore.Lock(os.Stdout)
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), sink, zap.NewAtomicLevelAt(level))
	return zap.New(core, zap.AddCaller()).Sugar(), nil
}
