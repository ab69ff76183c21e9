package entity

import "time"

// Template is a renderable email. HTMLBody is an html/template source,
// Subject and TextBody are text/template sources. TextBody may be empty.
type Template struct {
	Name     string
	Subject  string
	HTMLBody string
	TextBody string
}

// LoginOTPData is what a login OTP template can reference.
type LoginOTPData struct {
	Email     string
	Code      string
	ExpiresAt time.Time
	// ExpiresIn is the whole number of minutes left, never below one.
	ExpiresIn int
	AppName   string
	Year      string
}
