package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error carries the HTTP status and a stable machine code alongside the cause.
// Public, when set, replaces the cause's text in responses so internal detail
// stays in the logs.
type Error struct {
	Status int
	Code   string
	Public string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Public != "" {
		return e.Public
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

// Message is what a client is allowed to see.
func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	if e.Public != "" {
		return e.Public
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.Status)
}

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// BadRequest is a client input error; the cause is shown to the caller.
func BadRequest(code string, err error) *Error {
	return &Error{Status: http.StatusBadRequest, Code: code, Err: err}
}

// Config is a server configuration error; the cause is only logged.
func Config(err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Code: "server_config", Public: "server configuration error", Err: err}
}

// Upstream is a failure of an external collaborator; the cause is only logged.
func Upstream(public string, err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Code: "upstream_error", Public: public, Err: err}
}

func NotFound(code string, err error) *Error {
	return &Error{Status: http.StatusNotFound, Code: code, Err: err}
}

// Conflict reports a write that clashes with stored state.
func Conflict(code string, public string, err error) *Error {
	return &Error{Status: http.StatusConflict, Code: code, Public: public, Err: err}
}

func Unauthorized(err error) *Error {
	return &Error{Status: http.StatusUnauthorized, Code: "unauthorized", Err: err}
}

// As unwraps err into an *Error. Anything else becomes a generic 500.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return &Error{Status: http.StatusInternalServerError, Code: "internal_error", Public: "internal server error", Err: err}
}
