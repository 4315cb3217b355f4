// Package zlog builds the command line logger: caller annotated console
// output split between stdout and stderr by level.
package zlog

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New logs errors to stderr and everything below to stdout. Verbose
// enables debug events such as per-instance training results.
func New(verbose bool) *zap.Logger {
	return NewWithWriters(zapcore.Lock(os.Stdout), zapcore.Lock(os.Stderr), verbose)
}

func NewWithWriters(out, errOut zapcore.WriteSyncer, verbose bool) *zap.Logger {
	minLevel := zapcore.InfoLevel
	if verbose {
		minLevel = zapcore.DebugLevel
	}
	isErrorLevel := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return lvl >= zapcore.ErrorLevel
	})
	isInfoLevel := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return lvl >= minLevel && lvl < zapcore.ErrorLevel
	})

	config := zap.NewDevelopmentEncoderConfig()
	config.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewConsoleEncoder(config)

	core := zapcore.NewTee(
		zapcore.NewCore(encoder, errOut, isErrorLevel),
		zapcore.NewCore(encoder, out, isInfoLevel),
	)
	return zap.New(core, zap.AddCaller())
}
