// Package logger builds the coursedex zap logger and carries request-scoped loggers in contexts.
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ServiceName is attached to every log line.
const ServiceName = "coursedex"

// envConfigs maps ENV to its base zap configuration.
var envConfigs = map[string]func() zap.Config{
	"prod":   zap.NewProductionConfig,
	"local":  consoleConfig,
	"dev":    consoleConfig,
	"docker": consoleConfig,
	"test": func() zap.Config {
		cfg := zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.ErrorLevel)
		return cfg
	},
}

func consoleConfig() zap.Config {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return cfg
}

// NewLogger creates the logger for env (prod: JSON; local, dev, docker: colored console;
// test: errors only). A non-empty level (debug, info, warn, error) replaces the env default.
func NewLogger(env string, level ...string) (*zap.Logger, error) {
	base, ok := envConfigs[env]
	if !ok {
		return nil, fmt.Errorf("unknown environment %q for logger", env)
	}
	cfg := base()

	if len(level) > 0 && level[0] != "" {
		lvl, err := zapcore.ParseLevel(level[0])
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level[0], err)
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	l, err := cfg.Build(
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.Fields(zap.String("service", ServiceName)),
	)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return l, nil
}
