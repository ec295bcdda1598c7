package obs

import (
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/toko-dyntax/internal/common"
)

// LogConfig selects the logger output format and level.
type LogConfig struct {
	Format string
	Level  string
	// Out defaults to stdout.
	Out io.Writer
}

// NewLogger configures a zerolog logger from cfg.
func NewLogger(cfg LogConfig) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	var out io.Writer = os.Stdout
	if cfg.Out != nil {
		out = cfg.Out
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "console", "text":
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339, NoColor: cfg.Out != nil}
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}

// RequestLogger emits one line per request. A request-scoped logger is placed
// in the context; later middleware may add fields to it with
// zerolog.Ctx(ctx).UpdateContext and they appear on the access line.
type RequestLogger struct {
	Logger zerolog.Logger
}

// Middleware implements chi middleware for structured request logs.
func (l RequestLogger) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqLog := l.Logger.With().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("remote_addr", common.ClientIP(r)).
			Logger()
		if sc := trace.SpanContextFromContext(r.Context()); sc.IsValid() {
			reqLog = reqLog.With().Str("trace_id", sc.TraceID().String()).Str("span_id", sc.SpanID().String()).Logger()
		}
		if subject, ok := common.UserID(r.Context()); ok {
			reqLog = reqLog.With().Str("subject", subject).Logger()
		}
		rec := NewStatusRecorder(w)
		began := time.Now()
		ctx := reqLog.WithContext(r.Context())
		scoped := zerolog.Ctx(ctx)
		next.ServeHTTP(rec, r.WithContext(ctx))

		route := Route(r)
		if route == "" {
			route = r.URL.Path
		}
		status := rec.Status()
		var evt *zerolog.Event
		switch {
		case status >= http.StatusInternalServerError:
			evt = scoped.Error()
		case status >= http.StatusBadRequest:
			evt = scoped.Warn()
		default:
			evt = scoped.Info()
		}
		if ua := r.UserAgent(); ua != "" {
			evt = evt.Str("user_agent", ua)
		}
		evt.Str("method", r.Method).
			Str("route", route).
			Str("path", r.URL.Path).
			Int("status", status).
			Dur("duration", time.Since(began)).
			Int64("bytes", rec.BytesWritten()).
			Msg("http_request")
	})
}
