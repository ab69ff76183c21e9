package instrument

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// LogOptions configures the default slog logger.
type LogOptions struct {
	Service    string
	Level      string
	MaskFields []string
	// Provider, when set, also ships records to OTLP.
	Provider *sdklog.LoggerProvider
	// Output defaults to stdout.
	Output io.Writer
}

// SetupLogging installs a JSON logger that masks sensitive keys and stamps
// each record with the service name and correlation ID.
func SetupLogging(opts LogOptions) *slog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	var h slog.Handler = slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level:       parseLevel(opts.Level),
		AddSource:   true,
		ReplaceAttr: renameAttr,
	})
	if opts.Provider != nil {
		h = fanout{h, otelslog.NewHandler(opts.Service, otelslog.WithLoggerProvider(opts.Provider))}
	}

	logger := slog.New(&contextHandler{
		Handler: newMaskHandler(h, opts.MaskFields),
		service: opts.Service,
	})
	slog.SetDefault(logger)

	return logger
}

func parseLevel(s string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// renameAttr shortens the built-in keys and trims source paths to the
// module-relative "internal/..." form.
func renameAttr(_ []string, a slog.Attr) slog.Attr {
	switch a.Key {
	case slog.TimeKey:
		a.Key = "ts"
	case slog.LevelKey:
		a.Key = "severity"
	case slog.SourceKey:
		src, ok := a.Value.Any().(*slog.Source)
		if !ok {
			return a
		}
		_, rel, found := strings.Cut(src.File, "/internal/")
		if !found {
			return slog.Attr{}
		}
		return slog.String("file", "internal/"+rel+":"+strconv.Itoa(src.Line))
	}
	return a
}

type contextHandler struct {
	slog.Handler
	service string
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := GetCorrelationID(ctx); id != "" {
		r.AddAttrs(slog.String("_cID", id))
	}
	if h.service != "" {
		r.AddAttrs(slog.String("service", h.service))
	}

	return h.Handler.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithAttrs(attrs), service: h.service}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithGroup(name), service: h.service}
}

// fanout sends every record to all handlers.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, l slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, l) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var first error
	for _, h := range f {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}
