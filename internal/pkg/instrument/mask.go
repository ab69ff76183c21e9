package instrument

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
)

const masked = "***"

// maskHandler replaces the values of configured keys, including keys nested
// in groups, maps and JSON-encoded strings such as logged request bodies.
type maskHandler struct {
	next slog.Handler
	keys map[string]struct{}
}

func newMaskHandler(next slog.Handler, fields []string) slog.Handler {
	keys := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			keys[f] = struct{}{}
		}
	}
	if len(keys) == 0 {
		return next
	}

	return &maskHandler{next: next, keys: keys}
}

func (h *maskHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return h.next.Enabled(ctx, l)
}

func (h *maskHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(h.attr(a))
		return true
	})

	return h.next.Handle(ctx, out)
}

func (h *maskHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	cleaned := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		cleaned[i] = h.attr(a)
	}
	return &maskHandler{next: h.next.WithAttrs(cleaned), keys: h.keys}
}

func (h *maskHandler) WithGroup(name string) slog.Handler {
	return &maskHandler{next: h.next.WithGroup(name), keys: h.keys}
}

func (h *maskHandler) sensitive(key string) bool {
	_, ok := h.keys[strings.ToLower(key)]
	return ok
}

func (h *maskHandler) attr(a slog.Attr) slog.Attr {
	if h.sensitive(a.Key) {
		return slog.String(a.Key, masked)
	}

	switch a.Value.Kind() {
	case slog.KindGroup:
		group := a.Value.Group()
		out := make([]slog.Attr, len(group))
		for i, ga := range group {
			out[i] = h.attr(ga)
		}
		a.Value = slog.GroupValue(out...)
	case slog.KindString:
		if s, ok := h.json([]byte(a.Value.String())); ok {
			a.Value = slog.StringValue(s)
		}
	case slog.KindAny:
		switch v := a.Value.Any().(type) {
		case map[string]any:
			a.Value = slog.AnyValue(h.walk(v))
		case map[string]string:
			m := make(map[string]any, len(v))
			for k, s := range v {
				m[k] = s
			}
			a.Value = slog.AnyValue(h.walk(m))
		case []byte:
			if s, ok := h.json(v); ok {
				a.Value = slog.StringValue(s)
			}
		}
	}

	return a
}

func (h *maskHandler) json(raw []byte) (string, bool) {
	if len(raw) == 0 || (raw[0] != '{' && raw[0] != '[') {
		return "", false
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", false
	}

	b, err := json.Marshal(h.walk(v))
	if err != nil {
		return "", false
	}
	return string(b), true
}

func (h *maskHandler) walk(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, inner := range t {
			if h.sensitive(k) {
				out[k] = masked
				continue
			}
			out[k] = h.walk(inner)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, inner := range t {
			out[i] = h.walk(inner)
		}
		return out
	default:
		return v
	}
}
