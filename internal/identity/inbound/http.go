package inbound

import (
	"context"
	"net/http"

	"github.com/shandysiswandi/otpgate/internal/identity/usecase"
	"github.com/shandysiswandi/otpgate/internal/pkg/router"
)

type uc interface {
	RequestLoginOTP(ctx context.Context, in usecase.RequestLoginOTPInput) (*usecase.RequestLoginOTPOutput, error)
	VerifyLoginOTP(ctx context.Context, in usecase.VerifyLoginOTPInput) (*usecase.SessionOutput, error)
	RefreshToken(ctx context.Context, in usecase.RefreshTokenInput) (*usecase.SessionOutput, error)

	Logout(ctx context.Context, in usecase.LogoutInput) error
	Profile(ctx context.Context) (*usecase.ProfileOutput, error)
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	// Login
	r.Public(http.MethodPost, "/api/v1/identity/login/otp", end.RequestLoginOTP)
	r.Public(http.MethodPost, "/api/v1/identity/login/otp/verify", end.VerifyLoginOTP)
	r.Public(http.MethodPost, "/api/v1/identity/refresh", end.RefreshToken)

	// Session (need authenticated)
	r.POST("/api/v1/identity/logout", end.Logout)
	r.GET("/api/v1/identity/profile", end.Profile)
}
