package router

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedID string

func (f fixedID) Generate() string { return string(f) }

type fakeJWT struct{}

func (fakeJWT) Generate(int64, string) (string, error) { return "token", nil }

func (fakeJWT) Verify(token string) (jwt.Claims, error) {
	if token != "good" {
		return jwt.Claims{}, jwt.ErrInvalidToken
	}
	return jwt.Claims{UserID: 7, UserEmail: "a@b.c"}, nil
}

type created struct {
	ID int `json:"id"`
}

func (created) StatusCode() int { return http.StatusCreated }
func (created) Message() string { return "created" }

func newTestRouter(t *testing.T, yaml string) *Router {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(yaml))
	require.NoError(t, err)

	return NewRouter(Config{
		Config:     cfg,
		UUID:       fixedID("cid-1"),
		JWT:        fakeJWT{},
		Instrument: instrument.NewNoop(),
	})
}

func serve(r http.Handler, method, path, body string, hdr map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestRouter_HealthIsPublic(t *testing.T) {
	r := newTestRouter(t, "app: {}")

	rec := serve(r, http.MethodGet, "/", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "otpgate is running", decode(t, rec)["message"])
	assert.Equal(t, "cid-1", rec.Header().Get(instrument.CorrelationHeader))
}

func TestRouter_SuccessEnvelope(t *testing.T) {
	r := newTestRouter(t, "app: {}")
	r.Public(http.MethodPost, "/things", func(*Request) (any, error) { return created{ID: 3}, nil })

	rec := serve(r, http.MethodPost, "/things", "", map[string]string{instrument.CorrelationHeader: "mine"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "created", body["message"])
	assert.Equal(t, map[string]any{"id": float64(3)}, body["data"])
	assert.Equal(t, "mine", rec.Header().Get(instrument.CorrelationHeader))
}

func TestRouter_NilPayloadIsNoContent(t *testing.T) {
	r := newTestRouter(t, "app: {}")
	r.Public(http.MethodPost, "/noop", func(*Request) (any, error) { return nil, nil })

	rec := serve(r, http.MethodPost, "/noop", "", nil)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestRouter_ErrorEnvelope(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{"business", goerror.NewBusiness("nope", goerror.CodeUnauthorized), http.StatusUnauthorized, "nope"},
		{"server", goerror.NewServer(errors.New("db down")), http.StatusInternalServerError, "Internal server error"},
		{"plain", errors.New("boom"), http.StatusInternalServerError, "Internal server error"},
		{"format", goerror.NewInvalidFormat(), http.StatusBadRequest, "Invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(t, "app: {}")
			r.Public(http.MethodPost, "/fail", func(*Request) (any, error) { return nil, tt.err })

			rec := serve(r, http.MethodPost, "/fail", "", nil)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantMsg, decode(t, rec)["message"])
		})
	}
}

func TestRouter_Authentication(t *testing.T) {
	r := newTestRouter(t, "app: {}")
	r.GET("/me", func(req *Request) (any, error) {
		return map[string]any{"uid": jwt.GetAuth(req.Context()).UserID}, nil
	})

	rec := serve(r, http.MethodGet, "/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(r, http.MethodGet, "/me", "", map[string]string{"Authorization": "Bearer bad"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid or expired token", decode(t, rec)["message"])

	rec = serve(r, http.MethodGet, "/me", "", map[string]string{"Authorization": "bearer good"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"uid": float64(7)}, decode(t, rec)["data"])
}

func TestRouter_Maintenance(t *testing.T) {
	r := newTestRouter(t, "app:\n  maintenance:\n    enabled: false\n    endpoints: /down\n")
	r.Public(http.MethodGet, "/down", func(*Request) (any, error) { return "x", nil })
	r.Public(http.MethodGet, "/up", func(*Request) (any, error) { return "x", nil })

	assert.Equal(t, http.StatusServiceUnavailable, serve(r, http.MethodGet, "/down", "", nil).Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/up", "", nil).Code)
}

func TestRouter_RecoversPanic(t *testing.T) {
	r := newTestRouter(t, "app: {}")
	r.Public(http.MethodGet, "/panic", func(*Request) (any, error) { panic("kaboom") })

	rec := serve(r, http.MethodGet, "/panic", "", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", decode(t, rec)["message"])
}

func TestRouter_NotFoundAndMethod(t *testing.T) {
	r := newTestRouter(t, "app: {}")

	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/missing", "", nil).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, serve(r, http.MethodDelete, "/", "", nil).Code)
}

func TestRequest_DecodeBody(t *testing.T) {
	type payload struct {
		Email string `json:"email"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"ok", `{"email":"a@b.c"}`, false},
		{"unknown field", `{"email":"a@b.c","x":1}`, true},
		{"trailing data", `{"email":"a@b.c"}{}`, true},
		{"malformed", `{"email":`, true},
		{"empty", ``, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &Request{Request: httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))}
			if tt.body == "" {
				req.Body = http.NoBody
			}

			var p payload
			err := req.DecodeBody(&p)
			if tt.wantErr {
				ge, ok := goerror.As(err)
				require.True(t, ok)
				assert.Equal(t, goerror.CodeInvalidFormat, ge.Code())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "a@b.c", p.Email)
		})
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", clientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", clientIP(req))
}

func TestMasker(t *testing.T) {
	m := masker{"password": {}, "otp": {}}

	got := m.body([]byte(`{"email":"a@b.c","password":"x","nested":[{"otp":"123456"}]}`))

	assert.Equal(t, map[string]any{
		"email":    "a@b.c",
		"password": maskedValue,
		"nested":   []any{map[string]any{"otp": maskedValue}},
	}, got)
}
