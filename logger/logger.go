// Package logger builds the zap logger used by xpobjconv.
package logger

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options selects the level and outputs of a logger.
type Options struct {
	Level string // zap level name. Default: info
	// File is rotated at 10MB, keeping 3 old files.
	File    string
	Console io.Writer // nil disables console output
}

// New logs to stderr and to file if it is not empty.
func New(level, file string) *zap.Logger {
	return NewWithOptions(Options{Level: level, File: file, Console: os.Stderr})
}

// NewWithOptions returns a nop logger when there is no output.
func NewWithOptions(o Options) *zap.Logger {
	lvl, err := zapcore.ParseLevel(o.Level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	var cores []zapcore.Core
	if o.Console != nil {
		// importer messages are user facing
		enc := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
			LevelKey:         "level",
			MessageKey:       "msg",
			EncodeLevel:      zapcore.CapitalLevelEncoder,
			ConsoleSeparator: " ",
		})
		cores = append(cores, zapcore.NewCore(enc, zapcore.Lock(zapcore.AddSync(o.Console)), lvl))
	}
	if o.File != "" {
		w := &lumberjack.Logger{
			Filename:   o.File,
			MaxSize:    10,
			MaxBackups: 3,
			LocalTime:  true,
		}
		cfg := zap.NewProductionEncoderConfig()
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(cfg), zapcore.AddSync(w), lvl))
	}

	if len(cores) == 0 {
		return zap.NewNop()
	}
	return zap.New(zapcore.NewTee(cores...), zap.AddCaller())
}
