package inbound

import "time"

type LoginOTPRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginOTPResponse struct {
	ExpiresAt time.Time `json:"expires_at"`
}

func (LoginOTPResponse) Message() string {
	return "OTP sent. Please verify the OTP to log in."
}

type LoginOTPVerifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type SessionResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type LoginOTPVerifyResponse struct {
	SessionResponse
}

func (LoginOTPVerifyResponse) Message() string {
	return "Login successful."
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type LogoutResponse struct{}

func (LogoutResponse) Message() string {
	return "Logged out successfully."
}

type ProfileResponse struct {
	ID       int64  `json:"id,string"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Status   string `json:"status"`
}
