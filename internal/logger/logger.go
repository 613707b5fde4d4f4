package logger

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogFileName is the name of the log file written under the log directory
const LogFileName = "mcp-manager.log"

var logger *zap.SugaredLogger

// Init initializes the package logger. Logs go to logDir/mcp-manager.log when
// logDir is set, and to stderr as well when verbose is true.
func Init(verbose bool, logDir string) {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	outputs := []string{}
	if logDir != "" {
		if err := os.MkdirAll(logDir, 0755); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to create log directory %s: %v\n", logDir, err)
		} else {
			outputs = append(outputs, filepath.Join(logDir, LogFileName))
		}
	}
	if verbose || len(outputs) == 0 {
		outputs = append(outputs, "stderr")
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.OutputPaths = outputs
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.Sampling = nil

	base, err := cfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to build logger: %v\n", err)
		base = zap.NewNop()
	}

	zap.ReplaceGlobals(base)
	logger = base.Sugar()
}

// Close flushes buffered log entries
func Close() {
	if logger != nil {
		_ = logger.Sync()
	}
}

// Debug logs a debug message
func Debug(msg string, args ...any) {
	if logger != nil {
		logger.Debugw(msg, args...)
	}
}

// Info logs an info message
func Info(msg string, args ...any) {
	if logger != nil {
		logger.Infow(msg, args...)
	}
}

// Warn logs a warning message
func Warn(msg string, args ...any) {
	if logger != nil {
		logger.Warnw(msg, args...)
	}
}

// Error logs an error message
func Error(msg string, args ...any) {
	if logger != nil {
		logger.Errorw(msg, args...)
	}
}
