package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Code — машинно-читаемый код ошибки, который уходит клиенту.
type Code string

const (
	CodeAuth                Code = "AUTH_ERROR"
	CodeNotFound            Code = "NOT_FOUND"
	CodeUnauthorized        Code = "UNAUTHORIZED"
	CodeMissingJobInfo      Code = "MISSING_JOB_INFO"
	CodeExtraction          Code = "EXTRACTION_ERROR"
	CodeParsing             Code = "PARSING_ERROR"
	CodeParsingTimeout      Code = "PARSING_TIMEOUT"
	CodeAnalysis            Code = "ANALYSIS_ERROR"
	CodeOptimization        Code = "OPTIMIZATION_ERROR"
	CodeTimeout             Code = "TIMEOUT_ERROR"
	CodeInsufficientContent Code = "INSUFFICIENT_CONTENT_ERROR"
	CodeFatal               Code = "FATAL_ERROR"
	CodeInvalidInput        Code = "INVALID_INPUT"
)

// Error is the typed failure every component returns.
// Step is filled by the pipeline when the error happened inside a step.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Step    string `json:"step,omitempty"`
	cause   error
}

func (e *Error) Error() string {
	msg := string(e.Code) + ": " + e.Message
	if e.Step != "" {
		msg = e.Step + ": " + msg
	}
	if e.Details != "" {
		msg += " (" + e.Details + ")"
	}
	return msg
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches by code so callers can write errors.Is(err, apperr.ErrNotFound).
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.Code == e.Code && t.Message == "" && t.cause == nil
	}
	return false
}

// WithStep returns a copy tagged with the pipeline step.
func (e *Error) WithStep(step string) *Error {
	cp := *e
	cp.Step = step
	return &cp
}

// StatusCode maps the code onto an HTTP status for request/response endpoints.
func (e *Error) StatusCode() int { return HTTPStatus(e.Code) }

// Sentinels for errors.Is checks.
var (
	ErrNotFound     = &Error{Code: CodeNotFound}
	ErrUnauthorized = &Error{Code: CodeUnauthorized}
	ErrTimeout      = &Error{Code: CodeTimeout}
)

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap keeps the root cause reachable and copies its text into Details.
func Wrap(code Code, message string, cause error) *Error {
	e := &Error{Code: code, Message: message, cause: cause}
	if cause != nil {
		e.Details = cause.Error()
	}
	return e
}

func Newf(code Code, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

var (
	NotFound  = func(what string) *Error { return New(CodeNotFound, what+" not found") }
	Forbidden = func(what string) *Error {
		return New(CodeUnauthorized, "access to "+what+" is not allowed")
	}
	Unauthenticated = func() *Error { return New(CodeAuth, "authentication required") }
	InvalidInput    = func(detail string) *Error { return New(CodeInvalidInput, detail) }
	Fatal           = func(cause error) *Error { return Wrap(CodeFatal, "unexpected failure", cause) }
)

// As extracts *Error from the chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// From converts any error into *Error; unknown errors become FATAL_ERROR.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	if e, ok := As(err); ok {
		return e
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Wrap(CodeTimeout, "operation timed out", err)
	}
	return Fatal(err)
}

// CodeOf returns the code of err or FATAL_ERROR for untyped errors.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	return From(err).Code
}

func HTTPStatus(code Code) int {
	switch code {
	case CodeAuth:
		return http.StatusUnauthorized
	case CodeUnauthorized:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInvalidInput, CodeMissingJobInfo:
		return http.StatusBadRequest
	case CodeInsufficientContent, CodeParsing, CodeExtraction:
		return http.StatusUnprocessableEntity
	case CodeTimeout, CodeParsingTimeout:
		return http.StatusGatewayTimeout
	case CodeAnalysis, CodeOptimization:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code Code) bool {
	e, ok := As(err)
	return ok && e.Code == code
}
