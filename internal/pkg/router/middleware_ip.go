package router

import (
	"net"
	"net/http"
	"strings"
)

// middlewareIP rewrites RemoteAddr to the client IP reported by the proxy,
// falling back to the socket peer without its port.
func middlewareIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ip := clientIP(r); ip != "" {
			r.RemoteAddr = ip
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	for _, h := range []string{"True-Client-IP", "X-Real-IP", "X-Forwarded-For"} {
		v, _, _ := strings.Cut(r.Header.Get(h), ",")
		if ip := strings.TrimSpace(v); net.ParseIP(ip) != nil {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil || net.ParseIP(host) == nil {
		return ""
	}
	return host
}
