// Package router adapts httprouter to handlers that return (payload, error)
// and wraps every route in the shared middleware chain: panic recovery, real
// client IP, correlation ID, tracing and access logs, maintenance switch and
// bearer authentication.
package router

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/jwt"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
)

// Handler serves a request and returns the payload for the success envelope.
// A nil payload answers 204.
type Handler func(r *Request) (any, error)

// Middleware decorates an http.Handler.
type Middleware func(next http.Handler) http.Handler

// Chain applies mws to h so that mws[0] is the outermost.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

type Config struct {
	Config     config.Config
	UUID       uid.StringID
	JWT        jwt.JWT
	Instrument instrument.Instrumentation
}

// Router implements http.Handler.
type Router struct {
	hr     *httprouter.Router
	mws    []Middleware
	public map[string]map[string]struct{}
}

func NewRouter(cfg Config) *Router {
	r := &Router{
		hr: &httprouter.Router{
			RedirectTrailingSlash:  true,
			RedirectFixedPath:      true,
			HandleMethodNotAllowed: true,
			HandleOPTIONS:          true,
			SaveMatchedRoutePath:   true,
			NotFound: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, errorResponse{Message: "Endpoint not found"}, http.StatusNotFound)
			}),
			MethodNotAllowed: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, errorResponse{Message: "Method not allowed"}, http.StatusMethodNotAllowed)
			}),
		},
		public: map[string]map[string]struct{}{},
	}

	r.mws = []Middleware{
		middlewareRecoverer,
		middlewareIP,
		middlewareCorrelationID(cfg.UUID),
		middlewareObservability(cfg.Config, cfg.Instrument),
		middlewareMaintenance(cfg.Config),
		middlewareAuthentication(cfg.JWT, r.isPublic),
	}

	r.Public(http.MethodGet, "/", func(*Request) (any, error) {
		return healthResponse{}, nil
	})

	return r
}

type healthResponse struct{}

func (healthResponse) Message() string { return "otpgate is running" }

// Public registers a route reachable without a bearer token.
func (r *Router) Public(method, path string, h Handler, mws ...Middleware) {
	if r.public[method] == nil {
		r.public[method] = map[string]struct{}{}
	}
	r.public[method][path] = struct{}{}

	r.handle(method, path, h, mws...)
}

// GET registers an authenticated GET route.
func (r *Router) GET(path string, h Handler, mws ...Middleware) {
	r.handle(http.MethodGet, path, h, mws...)
}

// POST registers an authenticated POST route.
func (r *Router) POST(path string, h Handler, mws ...Middleware) {
	r.handle(http.MethodPost, path, h, mws...)
}

func (r *Router) isPublic(method, route string) bool {
	_, ok := r.public[method][route]
	return ok
}

func (r *Router) handle(method, path string, h Handler, mws ...Middleware) {
	final := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		resp, err := h(&Request{Request: req})
		if err != nil {
			if rec, ok := w.(interface{ SetError(error) }); ok {
				rec.SetError(err)
			}
			writeError(w, err)
			return
		}
		writeSuccess(w, resp)
	})

	all := make([]Middleware, 0, len(r.mws)+len(mws))
	all = append(all, r.mws...)
	all = append(all, mws...)

	r.hr.Handler(method, path, Chain(final, all...))
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.hr.ServeHTTP(w, req)
}
