package router

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/julienschmidt/httprouter"
	"github.com/samber/lo"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	maxLoggedBodyBytes = 16 * 1024
	maskedValue        = "***"
)

// statusRecorder captures what the handler wrote so it can be traced and logged.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
	body   bytes.Buffer
	err    error
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	if room := maxLoggedBodyBytes - w.body.Len(); room > 0 {
		w.body.Write(p[:min(room, len(p))])
	}

	n, err := w.ResponseWriter.Write(p)
	w.bytes += n
	return n, err
}

func (w *statusRecorder) SetError(err error) { w.err = err }

func (w *statusRecorder) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

func (w *statusRecorder) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("router: hijack not supported")
	}
	return h.Hijack()
}

func matchedRoutePath(r *http.Request) string {
	if p := httprouter.ParamsFromContext(r.Context()).MatchedRoutePath(); p != "" {
		return p
	}
	return r.URL.Path
}

type masker map[string]struct{}

func newMasker(cfg config.Config) masker {
	if cfg == nil {
		return masker{}
	}

	fields := lo.Map(cfg.GetArray("instrument.log_mask_fields"), func(f string, _ int) string {
		return strings.ToLower(f)
	})
	fields = append(fields, "authorization", "cookie")

	return lo.SliceToMap(fields, func(f string) (string, struct{}) { return f, struct{}{} })
}

func (m masker) has(key string) bool {
	_, ok := m[strings.ToLower(key)]
	return ok
}

func (m masker) headers(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k := range h {
		if m.has(k) {
			out[k] = maskedValue
			continue
		}
		out[k] = h.Get(k)
	}
	return out
}

func (m masker) value(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return lo.MapEntries(val, func(k string, inner any) (string, any) {
			if m.has(k) {
				return k, maskedValue
			}
			return k, m.value(inner)
		})
	case []any:
		return lo.Map(val, func(inner any, _ int) any { return m.value(inner) })
	default:
		return v
	}
}

func (m masker) body(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err == nil {
		return m.value(decoded)
	}
	if !utf8.Valid(raw) {
		return "<binary body omitted>"
	}
	return string(raw)
}

// peekBody reads up to maxLoggedBodyBytes and restores r.Body for the handler.
func peekBody(r *http.Request) []byte {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}

	head, _ := io.ReadAll(io.LimitReader(r.Body, maxLoggedBodyBytes))
	r.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(head), r.Body), r.Body}

	return head
}

func middlewareObservability(cfg config.Config, ins instrument.Instrumentation) Middleware {
	mask := newMasker(cfg)
	tracer := ins.Tracer("http.server")
	meter := ins.Meter("http.server")

	requests, err := meter.Int64Counter("http.server.requests",
		metric.WithDescription("Number of HTTP requests received"))
	if err != nil {
		slog.Error("failed to create http request counter", "error", err)
	}
	duration, err := meter.Float64Histogram("http.server.duration",
		metric.WithDescription("HTTP request duration in milliseconds"), metric.WithUnit("ms"))
	if err != nil {
		slog.Error("failed to create http duration histogram", "error", err)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := matchedRoutePath(r)
			start := time.Now()

			ctx, span := tracer.Start(r.Context(), r.Method+" "+route,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					semconv.HTTPRequestMethodKey.String(r.Method),
					semconv.HTTPRouteKey.String(route),
				),
			)
			defer span.End()

			slog.InfoContext(ctx, "request received",
				"method", r.Method,
				"path", route,
				"remote_ip", r.RemoteAddr,
				"headers", mask.headers(r.Header),
				"body", mask.body(peekBody(r)),
			)

			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r.WithContext(ctx))

			status := rec.Status()
			elapsed := time.Since(start)
			attrs := []attribute.KeyValue{
				semconv.HTTPRequestMethodKey.String(r.Method),
				semconv.HTTPRouteKey.String(route),
				semconv.HTTPResponseStatusCodeKey.Int(status),
			}

			span.SetAttributes(attrs...)
			span.SetAttributes(attribute.Int("http.response_content_length", rec.bytes))
			if rec.err != nil {
				span.RecordError(rec.err)
			}
			switch {
			case status >= http.StatusInternalServerError && rec.err != nil:
				span.SetStatus(codes.Error, rec.err.Error())
			case status >= http.StatusInternalServerError:
				span.SetStatus(codes.Error, http.StatusText(status))
			default:
				span.SetStatus(codes.Ok, "")
			}

			if requests != nil {
				requests.Add(ctx, 1, metric.WithAttributes(attrs...))
			}
			if duration != nil {
				duration.Record(ctx, float64(elapsed.Microseconds())/1000, metric.WithAttributes(attrs...))
			}

			level := slog.LevelInfo
			if status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			slog.Log(ctx, level, "response sent",
				"method", r.Method,
				"path", route,
				"status", status,
				"bytes", rec.bytes,
				"latency_ms", elapsed.Milliseconds(),
				"error", rec.err,
				"body", mask.body(rec.body.Bytes()),
			)
		})
	}
}
