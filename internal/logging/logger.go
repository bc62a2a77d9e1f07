// Package logging builds the exporter's structured logger.
package logging

import (
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LevelFromTrace maps a trace level name to a zap level. Only DEBUG and
// ERROR are recognized (case-insensitive); anything else is INFO.
func LevelFromTrace(trace string) zapcore.Level {
	switch strings.ToUpper(strings.TrimSpace(trace)) {
	case "DEBUG":
		return zapcore.DebugLevel
	case "ERROR":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// New creates a JSON logger writing to stderr and, when logFile is not
// empty, appending to logFile as well. The returned cleanup flushes the
// logger and closes the file.
func New(trace, logFile string) (*zap.Logger, func(), error) {
	level := zap.NewAtomicLevelAt(LevelFromTrace(trace))

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	enc := zapcore.NewJSONEncoder(encCfg)

	cores := []zapcore.Core{
		zapcore.NewCore(enc, zapcore.Lock(zapcore.AddSync(os.Stderr)), level),
	}

	var file *os.File
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "open log file %s", logFile)
		}
		file = f
		cores = append(cores, zapcore.NewCore(enc.Clone(), zapcore.Lock(zapcore.AddSync(f)), level))
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	cleanup := func() {
		// Sync on stderr fails on some platforms; nothing useful to do about it.
		_ = logger.Sync()
		if file != nil {
			_ = file.Close()
		}
	}
	return logger, cleanup, nil
}
