package router

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

// MaxBodyBytes caps JSON request bodies.
const MaxBodyBytes = 1 << 20

// Request is the inbound request seen by a Handler.
type Request struct {
	*http.Request
}

// Param returns a path parameter.
func (r *Request) Param(key string) string {
	return httprouter.ParamsFromContext(r.Context()).ByName(key)
}

// DecodeBody strictly decodes a single JSON object into dst. Unknown fields,
// trailing data and oversized bodies are rejected as invalid format.
func (r *Request) DecodeBody(dst any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return goerror.NewInvalidFormat()
	}

	dec := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return goerror.NewInvalidFormat()
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return goerror.NewInvalidFormat()
	}

	return nil
}

// ClientIP is the peer address resolved by the IP middleware.
func (r *Request) ClientIP() string {
	return r.RemoteAddr
}
