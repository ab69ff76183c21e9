package router

import (
	"net/http"

	"github.com/samber/lo"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
)

// middlewareMaintenance answers 503 for every route while
// app.maintenance.enabled is true, or only for the routes listed in
// app.maintenance.endpoints. Both keys are read per request so a config
// reload takes effect without a restart.
func middlewareMaintenance(cfg config.Config) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg != nil && underMaintenance(cfg, matchedRoutePath(r)) {
				writeJSON(w, errorResponse{Message: "Service is under maintenance"}, http.StatusServiceUnavailable)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func underMaintenance(cfg config.Config, route string) bool {
	if cfg.GetBool("app.maintenance.enabled") {
		return true
	}

	return lo.Contains(cfg.GetArray("app.maintenance.endpoints"), route)
}
