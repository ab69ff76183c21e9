package event

import "time"

const LoginOTPDestination string = "identity_login_otp"
const LoginOTPConsumerNotification string = "identity_login_otp_notification"

// LoginOTPMessage carries a freshly issued login code to the notification
// module. Code is the plaintext value the user has to type back.
type LoginOTPMessage struct {
	UserID    int64     `json:"user_id"`
	Email     string    `json:"email"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}
