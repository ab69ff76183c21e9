package entity

import (
	"time"

	"github.com/shandysiswandi/otpgate/internal/pkg/valueobject"
)

type User struct {
	ID              int64
	Email           string
	FullName        string
	Status          UserStatus
	EmailVerifiedAt *time.Time
}

// UserLoginInfo is what the OTP login flow needs from a user row.
// OTPCode holds the stored digest and is empty when no code is pending.
type UserLoginInfo struct {
	ID              int64
	Email           string
	Status          UserStatus
	Password        string
	EmailVerifiedAt *time.Time
	OTPCode         string
	OTPExpiresAt    *time.Time
}

func (u UserLoginInfo) EmailVerified() bool {
	return u.EmailVerifiedAt != nil
}

// HasPendingOTP reports whether a code has been issued and not consumed.
func (u UserLoginInfo) HasPendingOTP() bool {
	return u.OTPCode != "" && u.OTPExpiresAt != nil
}

type RefreshToken struct {
	ID        int64
	UserID    int64
	Token     string
	ExpiresAt time.Time
	Metadata  valueobject.JSONMap
}

type RotateRefreshToken struct {
	NewID        int64
	OldID        int64
	UserID       int64
	NewToken     string
	NewExpiresAt time.Time
	Metadata     valueobject.JSONMap
}

type UserRefreshToken struct {
	UserID                   int64
	UserEmail                string
	UserStatus               UserStatus
	RefreshID                int64
	RefreshRevoked           bool
	RefreshReplacedByTokenID *int64
	RefreshExpiresAt         time.Time
}
