package inbound

import (
	"github.com/shandysiswandi/otpgate/internal/identity/usecase"
	"github.com/shandysiswandi/otpgate/internal/pkg/router"
)

// HTTPEndpoint exposes HTTP handlers for the OTP login and session workflows.
type HTTPEndpoint struct {
	uc uc
}

func clientMeta(r *router.Request) usecase.ClientMeta {
	return usecase.ClientMeta{IP: r.ClientIP(), UserAgent: r.UserAgent()}
}

// RequestLoginOTP checks the credentials and emails a one-time login code.
// @Summary Request login OTP
// @Description Validates email and password, then sends a one-time passcode to the account email.
// @Tags Identity, Authentication
// @Accept json
// @Produce json
// @Param request body LoginOTPRequest true "Login payload"
// @Success 200 {object} router.successResponse{data=LoginOTPResponse} "OTP sent"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Invalid credentials"
// @Failure 403 {object} router.errorResponse "Email not verified"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 429 {object} router.errorResponse "Another login attempt is in progress"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/identity/login/otp [post]
func (h *HTTPEndpoint) RequestLoginOTP(r *router.Request) (any, error) {
	var req LoginOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.RequestLoginOTP(r.Context(), usecase.RequestLoginOTPInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return nil, err
	}

	return LoginOTPResponse{ExpiresAt: resp.ExpiresAt}, nil
}

// VerifyLoginOTP exchanges a valid login code for a session.
// @Summary Verify login OTP
// @Description Consumes the one-time passcode and returns access/refresh tokens.
// @Tags Identity, Authentication
// @Accept json
// @Produce json
// @Param request body LoginOTPVerifyRequest true "OTP payload"
// @Success 200 {object} router.successResponse{data=LoginOTPVerifyResponse} "Authentication result"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Invalid or expired OTP"
// @Failure 404 {object} router.errorResponse "User not found"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/identity/login/otp/verify [post]
func (h *HTTPEndpoint) VerifyLoginOTP(r *router.Request) (any, error) {
	var req LoginOTPVerifyRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.VerifyLoginOTP(r.Context(), usecase.VerifyLoginOTPInput{
		Email:  req.Email,
		Code:   req.Code,
		Client: clientMeta(r),
	})
	if err != nil {
		return nil, err
	}

	return LoginOTPVerifyResponse{SessionResponse{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
	}}, nil
}

// RefreshToken rotates a refresh token and issues a new access token.
// @Summary Refresh access token
// @Tags Identity, Authentication
// @Accept json
// @Produce json
// @Param request body RefreshTokenRequest true "Refresh payload"
// @Success 200 {object} router.successResponse{data=SessionResponse} "New token pair"
// @Failure 401 {object} router.errorResponse "Invalid or expired refresh token"
// @Failure 403 {object} router.errorResponse "Token reuse detected"
// @Router /api/v1/identity/refresh [post]
func (h *HTTPEndpoint) RefreshToken(r *router.Request) (any, error) {
	var req RefreshTokenRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.RefreshToken(r.Context(), usecase.RefreshTokenInput{
		RefreshToken: req.RefreshToken,
		Client:       clientMeta(r),
	})
	if err != nil {
		return nil, err
	}

	return SessionResponse{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
	}, nil
}

// Logout revokes the refresh token of the current session.
// @Summary Logout
// @Tags Identity, Authentication
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body LogoutRequest true "Logout payload"
// @Success 200 {object} router.successResponse "Logged out"
// @Failure 401 {object} router.errorResponse "Authentication required"
// @Router /api/v1/identity/logout [post]
func (h *HTTPEndpoint) Logout(r *router.Request) (any, error) {
	var req LogoutRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.Logout(r.Context(), usecase.LogoutInput{RefreshToken: req.RefreshToken}); err != nil {
		return nil, err
	}

	return LogoutResponse{}, nil
}

// Profile returns the authenticated user.
// @Summary Current user profile
// @Tags Identity, Profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} router.successResponse{data=ProfileResponse} "Profile"
// @Failure 401 {object} router.errorResponse "Authentication required"
// @Router /api/v1/identity/profile [get]
func (h *HTTPEndpoint) Profile(r *router.Request) (any, error) {
	resp, err := h.uc.Profile(r.Context())
	if err != nil {
		return nil, err
	}

	return ProfileResponse{
		ID:       resp.ID,
		Email:    resp.Email,
		FullName: resp.FullName,
		Status:   resp.Status,
	}, nil
}
