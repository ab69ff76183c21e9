// Package goerror defines the error shape shared by usecases and the HTTP
// layer: a classification (server, business, validation), a stable code that
// maps to an HTTP status, and a message that is safe to show to clients.
package goerror

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors returned by repositories.
var (
	ErrNotFound = errors.New("resource not found")
	ErrConflict = errors.New("resource conflict")
)

// Type is the broad class of an Error.
type Type int

const (
	TypeServer Type = iota
	TypeBusiness
	TypeValidation
)

func (t Type) String() string {
	switch t {
	case TypeServer:
		return "ERROR_TYPE_SERVER"
	case TypeBusiness:
		return "ERROR_TYPE_BUSINESS"
	case TypeValidation:
		return "ERROR_TYPE_VALIDATION"
	default:
		return "ERROR_TYPE_UNKNOWN"
	}
}

// Code identifies the failure independently of the message text.
type Code int

const (
	CodeInternal Code = iota
	CodeInvalidFormat
	CodeInvalidInput
	CodeNotFound
	CodeConflict
	CodeTooManyRequest
	CodeUnauthorized
	CodeForbidden
	CodeTimeout
)

var codeInfo = map[Code]struct {
	name   string
	status int
}{
	CodeInternal:       {"ERROR_CODE_INTERNAL", http.StatusInternalServerError},
	CodeInvalidFormat:  {"ERROR_CODE_INVALID_FORMAT", http.StatusBadRequest},
	CodeInvalidInput:   {"ERROR_CODE_INVALID_INPUT", http.StatusUnprocessableEntity},
	CodeNotFound:       {"ERROR_CODE_NOT_FOUND", http.StatusNotFound},
	CodeConflict:       {"ERROR_CODE_CONFLICT", http.StatusConflict},
	CodeTooManyRequest: {"ERROR_CODE_TOO_MANY_REQUESTS", http.StatusTooManyRequests},
	CodeUnauthorized:   {"ERROR_CODE_UNAUTHORIZED", http.StatusUnauthorized},
	CodeForbidden:      {"ERROR_CODE_FORBIDDEN", http.StatusForbidden},
	CodeTimeout:        {"ERROR_CODE_TIMEOUT", http.StatusRequestTimeout},
}

func (c Code) String() string {
	if info, ok := codeInfo[c]; ok {
		return info.name
	}
	return codeInfo[CodeInternal].name
}

// Error is the application error. The wrapped cause is for logs only; clients
// see Msg and Fields.
type Error struct {
	cause   error
	msg     string
	errType Type
	code    Code
	fields  map[string]string
}

func (e *Error) Error() string {
	switch {
	case e.cause != nil:
		return e.cause.Error()
	case e.msg != "":
		return e.msg
	default:
		return e.errType.String()
	}
}

func (e *Error) String() string {
	return fmt.Sprintf("type=%s code=%s msg=%q cause=%v", e.errType, e.code, e.msg, e.cause)
}

func (e *Error) Unwrap() error             { return e.cause }
func (e *Error) Msg() string               { return e.msg }
func (e *Error) Type() Type                { return e.errType }
func (e *Error) Code() Code                { return e.code }
func (e *Error) Fields() map[string]string { return e.fields }

// StatusCode is the HTTP status for the error code.
func (e *Error) StatusCode() int {
	if info, ok := codeInfo[e.code]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}

// NewServer hides err behind a generic message.
func NewServer(err error) error {
	return &Error{cause: err, msg: "Internal server error", errType: TypeServer, code: CodeInternal}
}

// NewBusiness reports a rule violation whose message is shown to the client.
func NewBusiness(msg string, code Code) error {
	return &Error{msg: msg, errType: TypeBusiness, code: code}
}

// NewInvalidInput wraps a validator error, or builds field errors from
// key/value pairs when err is nil. An odd number of pairs is treated as a
// malformed request.
func NewInvalidInput(err error, kv ...string) error {
	if err != nil {
		return &Error{cause: err, msg: "Validation error", errType: TypeValidation, code: CodeInvalidInput}
	}
	if len(kv)%2 != 0 {
		return NewInvalidFormat()
	}

	fields := make(map[string]string, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		fields[kv[i]] = kv[i+1]
	}

	return &Error{msg: "Validation error", errType: TypeValidation, code: CodeInvalidInput, fields: fields}
}

// NewInvalidFormat reports an unparsable request body.
func NewInvalidFormat(msg ...string) error {
	m := "Invalid request body"
	if len(msg) > 0 && msg[0] != "" {
		m = msg[0]
	}

	return &Error{msg: m, errType: TypeValidation, code: CodeInvalidFormat}
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var ge *Error
	ok := errors.As(err, &ge)
	return ge, ok
}
