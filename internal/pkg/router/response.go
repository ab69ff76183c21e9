package router

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/validator"
)

type errorResponse struct {
	Message string            `json:"message"`
	Error   map[string]string `json:"error,omitempty"`
}

type successResponse struct {
	Message string         `json:"message"`
	Data    any            `json:"data"`
	Meta    map[string]any `json:"meta,omitempty"`
}

// Optional interfaces a handler payload may implement to shape the envelope.
type (
	messager    interface{ Message() string }
	statusCoder interface{ StatusCode() int }
	metaer      interface{ Meta() map[string]any }
)

func writeSuccess(w http.ResponseWriter, resp any) {
	if resp == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	code := http.StatusOK
	if sc, ok := resp.(statusCoder); ok {
		code = sc.StatusCode()
	}
	if code == http.StatusNoContent {
		w.WriteHeader(code)
		return
	}

	body := successResponse{Message: "Request processed successfully", Data: resp}
	if m, ok := resp.(messager); ok {
		body.Message = m.Message()
	}
	if m, ok := resp.(metaer); ok {
		body.Meta = m.Meta()
	}

	writeJSON(w, body, code)
}

func writeError(w http.ResponseWriter, err error) {
	ge, ok := goerror.As(err)
	if !ok {
		writeJSON(w, errorResponse{Message: "Internal server error"}, http.StatusInternalServerError)
		return
	}

	body := errorResponse{Message: ge.Msg(), Error: ge.Fields()}

	var fe validator.FieldErrors
	if ge.Type() == goerror.TypeValidation && errors.As(ge.Unwrap(), &fe) {
		body.Error = fe.Values()
	}

	writeJSON(w, body, ge.StatusCode())
}

func writeJSON(w http.ResponseWriter, data any, code int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode json response", "error", err)
	}
}
