package brain

import (
	"context"
	"errors"
	"fmt"

	"github.com/antoniostano/rin/internal/reliability"
)

// Error codes surfaced to the user after a failed generation.
const (
	CodeTimeout   = "timeout"
	CodeCanceled  = "canceled"
	CodeTransport = "transport"
	CodeDecode    = "decode"
	CodeEmpty     = "empty_reply"
	CodeConfig    = "config"
	CodeUpstream  = "upstream"
)

// Error is a generation failure with a short code.
type Error struct {
	Code string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Code
	}
	return e.Code + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

func newError(code string, err error) *Error {
	return &Error{Code: code, Err: err}
}

func httpStatusCode(status int) string {
	return fmt.Sprintf("http_%d", status)
}

// Code returns the short code for err.
func Code(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return CodeTimeout
	case errors.Is(err, context.Canceled):
		return CodeCanceled
	}
	var be *Error
	if errors.As(err, &be) && be.Code != "" {
		return be.Code
	}
	return CodeUpstream
}

// wrapTransport classifies an HTTP call failure. Context errors pass
// through untouched so callers can tell cancellation apart.
func wrapTransport(err error) error {
	if err == nil {
		return nil
	}
	var se *reliability.StatusError
	if errors.As(err, &se) {
		return newError(httpStatusCode(se.Code), err)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}
	return newError(CodeTransport, err)
}
