// Package logging builds the CLI's zap logger from configuration.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"xdao.co/kpack/internal/config"
)

// New builds a zap.Logger from c. Output goes to c.File when set (rotated
// by lumberjack if enabled) and to fallback otherwise. The caller should
// defer logger.Sync().
func New(c config.LogConfig, fallback io.Writer) (*zap.Logger, error) {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	var encoder zapcore.Encoder
	if strings.ToLower(c.Format) == "json" {
		encoder = zapcore.NewJSONEncoder(encCfg)
	} else {
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}

	ws, err := sink(c, fallback)
	if err != nil {
		return nil, err
	}
	core := zapcore.NewCore(encoder, ws, ParseLevel(c.Level))
	return zap.New(core, zap.AddStacktrace(zap.ErrorLevel)), nil
}

// ParseLevel maps a config level name to a zap level. Unknown names are
// treated as info.
func ParseLevel(s string) zapcore.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zap.DebugLevel
	case "warn", "warning":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}

func sink(c config.LogConfig, fallback io.Writer) (zapcore.WriteSyncer, error) {
	if c.File == "" {
		if fallback == nil {
			fallback = os.Stderr
		}
		return zapcore.AddSync(fallback), nil
	}
	if dir := filepath.Dir(c.File); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	if c.Rotation.Enable {
		return zapcore.AddSync(&lumberjack.Logger{
			Filename:   c.File,
			MaxSize:    max(c.Rotation.MaxSizeMB, 1),
			MaxBackups: max(c.Rotation.MaxBackups, 1),
			MaxAge:     max(c.Rotation.MaxAgeDays, 1),
			Compress:   c.Rotation.Compress,
		}), nil
	}
	f, err := os.OpenFile(c.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return zapcore.AddSync(f), nil
}
