package inbound

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shandysiswandi/otpgate/internal/identity/usecase"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/jwt"
	"github.com/shandysiswandi/otpgate/internal/pkg/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedID string

func (f fixedID) Generate() string { return string(f) }

type fakeJWT struct{}

func (fakeJWT) Generate(int64, string) (string, error) { return "", nil }

func (fakeJWT) Verify(token string) (jwt.Claims, error) {
	if token != "good" {
		return jwt.Claims{}, jwt.ErrInvalidToken
	}
	return jwt.Claims{UserID: 1, UserEmail: "a@x.com"}, nil
}

type fakeUC struct {
	requestIn usecase.RequestLoginOTPInput
	verifyIn  usecase.VerifyLoginOTPInput
	logoutIn  usecase.LogoutInput
	err       error
}

func (f *fakeUC) RequestLoginOTP(_ context.Context, in usecase.RequestLoginOTPInput) (*usecase.RequestLoginOTPOutput, error) {
	f.requestIn = in
	if f.err != nil {
		return nil, f.err
	}
	return &usecase.RequestLoginOTPOutput{ExpiresAt: time.Date(2026, 1, 2, 10, 5, 0, 0, time.UTC)}, nil
}

func (f *fakeUC) VerifyLoginOTP(_ context.Context, in usecase.VerifyLoginOTPInput) (*usecase.SessionOutput, error) {
	f.verifyIn = in
	if f.err != nil {
		return nil, f.err
	}
	return &usecase.SessionOutput{AccessToken: "at", RefreshToken: "rt"}, nil
}

func (f *fakeUC) RefreshToken(context.Context, usecase.RefreshTokenInput) (*usecase.SessionOutput, error) {
	return &usecase.SessionOutput{AccessToken: "at2", RefreshToken: "rt2"}, nil
}

func (f *fakeUC) Logout(ctx context.Context, in usecase.LogoutInput) error {
	f.logoutIn = in
	return nil
}

func (f *fakeUC) Profile(ctx context.Context) (*usecase.ProfileOutput, error) {
	clm := jwt.GetAuth(ctx)
	return &usecase.ProfileOutput{ID: clm.UserID, Email: clm.UserEmail, Status: "Active"}, nil
}

func newServer(t *testing.T, uc *fakeUC) *router.Router {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte("app: {}"))
	require.NoError(t, err)

	r := router.NewRouter(router.Config{
		Config:     cfg,
		UUID:       fixedID("cid"),
		JWT:        fakeJWT{},
		Instrument: instrument.NewNoop(),
	})
	RegisterHTTPEndpoint(r, uc)

	return r
}

func do(t *testing.T, h http.Handler, method, path, body, token string) (int, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "inbound-test")
	req.Header.Set("X-Real-IP", "10.1.1.1")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))

	return rec.Code, out
}

func TestRequestLoginOTP(t *testing.T) {
	uc := &fakeUC{}
	h := newServer(t, uc)

	code, body := do(t, h, http.MethodPost, "/api/v1/identity/login/otp", `{"email":"a@x.com","password":"correct"}`, "")

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "OTP sent. Please verify the OTP to log in.", body["message"])
	assert.Equal(t, map[string]any{"expires_at": "2026-01-02T10:05:00Z"}, body["data"])
	assert.Equal(t, usecase.RequestLoginOTPInput{Email: "a@x.com", Password: "correct"}, uc.requestIn)
}

func TestRequestLoginOTP_Errors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{
			name:     "UnknownField",
			body:     `{"email":"a@x.com","password":"x","otp":"1"}`,
			wantCode: http.StatusBadRequest,
			wantMsg:  "Invalid request body",
		},
		{
			name:     "InvalidCredentials",
			body:     `{"email":"a@x.com","password":"x"}`,
			err:      goerror.NewBusiness("The provided credentials are incorrect.", goerror.CodeUnauthorized),
			wantCode: http.StatusUnauthorized,
			wantMsg:  "The provided credentials are incorrect.",
		},
		{
			name:     "Internal",
			body:     `{"email":"a@x.com","password":"x"}`,
			err:      goerror.NewServer(assert.AnError),
			wantCode: http.StatusInternalServerError,
			wantMsg:  "Internal server error",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newServer(t, &fakeUC{err: tt.err})

			code, body := do(t, h, http.MethodPost, "/api/v1/identity/login/otp", tt.body, "")

			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantMsg, body["message"])
		})
	}
}

func TestVerifyLoginOTP(t *testing.T) {
	uc := &fakeUC{}
	h := newServer(t, uc)

	code, body := do(t, h, http.MethodPost, "/api/v1/identity/login/otp/verify", `{"email":"a@x.com","code":"123456"}`, "")

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Login successful.", body["message"])
	assert.Equal(t, map[string]any{"access_token": "at", "refresh_token": "rt"}, body["data"])
	assert.Equal(t, "123456", uc.verifyIn.Code)
	assert.Equal(t, usecase.ClientMeta{IP: "10.1.1.1", UserAgent: "inbound-test"}, uc.verifyIn.Client)
}

func TestRefreshToken(t *testing.T) {
	h := newServer(t, &fakeUC{})

	code, body := do(t, h, http.MethodPost, "/api/v1/identity/refresh", `{"refresh_token":"rt"}`, "")

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string]any{"access_token": "at2", "refresh_token": "rt2"}, body["data"])
}

func TestAuthenticatedRoutes(t *testing.T) {
	uc := &fakeUC{}
	h := newServer(t, uc)

	t.Run("ProfileWithoutToken", func(t *testing.T) {
		code, _ := do(t, h, http.MethodGet, "/api/v1/identity/profile", "", "")
		assert.Equal(t, http.StatusUnauthorized, code)
	})

	t.Run("Profile", func(t *testing.T) {
		code, body := do(t, h, http.MethodGet, "/api/v1/identity/profile", "", "good")

		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, map[string]any{"id": "1", "email": "a@x.com", "full_name": "", "status": "Active"}, body["data"])
	})

	t.Run("Logout", func(t *testing.T) {
		code, body := do(t, h, http.MethodPost, "/api/v1/identity/logout", `{"refresh_token":"rt"}`, "good")

		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "Logged out successfully.", body["message"])
		assert.Equal(t, "rt", uc.logoutIn.RefreshToken)
	})
}
