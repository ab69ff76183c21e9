package router

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/shandysiswandi/otpgate/internal/pkg/stacktrace"
)

func middlewareRecoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rvr := recover()
			if rvr == nil {
				return
			}
			if err, ok := rvr.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(rvr)
			}

			stack := debug.Stack()
			if frames := stacktrace.InternalPaths(stack); len(frames) > 0 {
				slog.ErrorContext(r.Context(), "panic while serving request", "panic", rvr, "stack", frames)
			} else {
				slog.ErrorContext(r.Context(), "panic while serving request", "panic", rvr, "stack", string(stack))
			}

			writeJSON(w, errorResponse{Message: "Internal server error"}, http.StatusInternalServerError)
		}()

		next.ServeHTTP(w, r)
	})
}
