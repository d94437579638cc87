// Package logging writes internal diagnostics to a debug log file beside
// the session store. The log is not part of the CLI contract; callers only
// ever see the structured result object on stdout.
package logging

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultPath returns the per-working-directory debug log location.
func DefaultPath() string {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	return filepath.Join(cwd, ".termkeep", "debug.log")
}

// Open builds a file-backed logger tagged with a fresh invocation id so
// lines from interleaved invocations can be told apart. Any setup failure
// falls back to a no-op logger: diagnostics must never break an operation.
func Open(path string) *zap.Logger {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return zap.NewNop()
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	cfg := zap.Config{
		Level:             zap.NewAtomicLevelAt(zapcore.DebugLevel),
		Encoding:          "json",
		EncoderConfig:     encCfg,
		OutputPaths:       []string{path},
		ErrorOutputPaths:  []string{path},
		DisableCaller:     true,
		DisableStacktrace: true,
	}

	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger.With(zap.String("invocation", uuid.NewString()))
}
