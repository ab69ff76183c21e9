package router

import (
	"net/http"
	"strings"

	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
)

// HeaderRequestID is accepted when a proxy sets it instead of the correlation header.
const HeaderRequestID = "X-Request-ID"

const maxCorrelationIDLen = 128

func middlewareCorrelationID(gen uid.StringID) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cid := cleanCorrelationID(r.Header.Get(instrument.CorrelationHeader))
			if cid == "" {
				cid = cleanCorrelationID(r.Header.Get(HeaderRequestID))
			}
			if cid == "" && gen != nil {
				cid = gen.Generate()
			}

			if cid != "" {
				w.Header().Set(instrument.CorrelationHeader, cid)
				r = r.WithContext(instrument.SetCorrelationID(r.Context(), cid))
			}

			next.ServeHTTP(w, r)
		})
	}
}

// cleanCorrelationID drops values that could split log lines or headers.
func cleanCorrelationID(v string) string {
	if strings.ContainsAny(v, "\r\n") {
		return ""
	}

	v = strings.TrimSpace(v)
	if len(v) > maxCorrelationIDLen {
		v = v[:maxCorrelationIDLen]
	}
	return v
}
