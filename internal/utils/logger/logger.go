package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"stortingsync/internal/config"

	"golang.org/x/exp/slog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options дополнительные настройки поверх окружения
type Options struct {
	// Level переопределяет уровень окружения (debug, info, warn, error)
	Level string
	// File дублирует вывод в файл с ротацией
	File string
	// Output по умолчанию os.Stdout
	Output io.Writer
}

// New создает логгер для окружения env
func New(env string) *slog.Logger {
	log, _ := Setup(env, Options{})
	return log
}

// Setup создает логгер и возвращает управляемый уровень для горячей перезагрузки
func Setup(env string, opts Options) (*slog.Logger, *slog.LevelVar) {
	level := new(slog.LevelVar)
	level.Set(envLevel(env))
	if opts.Level != "" {
		if l, err := ParseLevel(opts.Level); err == nil {
			level.Set(l)
		}
	}

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	if opts.File != "" {
		out = io.MultiWriter(out, &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    100,
			MaxBackups: 5,
			MaxAge:     28,
			Compress:   true,
		})
	}

	if env == config.EnvLocal {
		return slog.New(newPrettyHandler(out, &slog.HandlerOptions{Level: level})), level
	}
	return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level})), level
}

// ParseLevel разбирает имя уровня
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}

func envLevel(env string) slog.Level {
	switch env {
	case config.EnvLocal, config.EnvDev:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}
