package logger

import (
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"
)

// healthOperation опрашивается балансировщиком, пишется на debug
const healthOperation = "health-check"

// Logger журнал запросов к API синхронизации
type Logger struct {
	log *slog.Logger
}

func New(log *slog.Logger) *Logger {
	return &Logger{
		log: log.With(slog.String("component", "http_logger")),
	}
}

// Middleware пишет операцию, путь, статус и длительность; 5xx на уровне warn
func (l *Logger) Middleware() func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		start := time.Now()
		op := ""
		if o := ctx.Operation(); o != nil {
			op = o.OperationID
		}

		next(ctx)

		status := ctx.Status()
		if status == 0 {
			status = http.StatusOK
		}
		level := slog.LevelInfo
		switch {
		case status >= http.StatusInternalServerError:
			level = slog.LevelWarn
		case op == healthOperation:
			level = slog.LevelDebug
		}

		l.log.Log(ctx.Context(), level, "HTTP request",
			slog.String("operation", op),
			slog.String("method", ctx.Method()),
			slog.String("path", ctx.URL().Path),
			slog.Int("status", status),
			slog.Duration("duration", time.Since(start)),
			slog.String("remote_addr", ctx.RemoteAddr()),
		)
	}
}
