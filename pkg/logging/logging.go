// Package logging builds the process logger backed by zap.
package logging

import (
	"fmt"
	"strings"

	"github.com/Gobusters/ectologger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New creates an ectologger that writes structured output through zap.
func New(level string, pretty bool) (ectologger.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if pretty {
		zcfg = zap.NewDevelopmentConfig()
	}

	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		parsed = zapcore.InfoLevel
	}
	zcfg.Level = zap.NewAtomicLevelAt(parsed)

	zlog, err := zcfg.Build(zap.AddCallerSkip(2))
	if err != nil {
		return nil, err
	}

	logger := ectologger.NewEctoLogger(func(msg ectologger.EctoLogMessage) {
		fields := make([]zap.Field, 0, len(msg.Fields)+1)
		for k, v := range msg.Fields {
			fields = append(fields, zap.Any(k, v))
		}
		if msg.Err != nil {
			fields = append(fields, zap.Error(msg.Err))
		}

		switch strings.ToLower(fmt.Sprint(msg.Level)) {
		case "debug":
			zlog.Debug(msg.Message, fields...)
		case "warn", "warning":
			zlog.Warn(msg.Message, fields...)
		case "error", "fatal", "panic":
			zlog.Error(msg.Message, fields...)
		default:
			zlog.Info(msg.Message, fields...)
		}
	})

	return logger, nil
}
