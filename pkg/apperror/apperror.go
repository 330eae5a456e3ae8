package apperror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrUpstreamNotFound = errors.New("upstream resource not found")
	ErrPermission       = errors.New("permission denied")
	ErrInvalidInput     = errors.New("invalid input")
	ErrConflict         = errors.New("conflict")
	ErrInternal         = errors.New("internal server error")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrRateLimited      = errors.New("rate limited")
)

// ServerErrorMessage is the only text a client ever sees for a 5xx.
const ServerErrorMessage = "Server error"

// FieldError is one failed rule, rendered in the same shape for every route.
type FieldError struct {
	Msg      string `json:"msg"`
	Param    string `json:"param,omitempty"`
	Location string `json:"location,omitempty"`
	Value    any    `json:"value,omitempty"`
}

type AppError struct {
	BaseError error
	Message   string
	Details   string
	Err       error
	Fields    []FieldError
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (Details: %s, Cause: %v)", e.BaseError.Error(), e.Message, e.Details, e.Err)
	}
	return fmt.Sprintf("%s: %s (Details: %s)", e.BaseError.Error(), e.Message, e.Details)
}

func (e *AppError) Unwrap() error {
	return e.BaseError
}

func NewAppError(base error, msg, details string, err error) *AppError {
	return &AppError{BaseError: base, Message: msg, Details: details, Err: err}
}

// NewNotFound carries the exact client message, e.g. "Profile Not Found".
func NewNotFound(msg, details string) *AppError {
	return NewAppError(ErrNotFound, msg, details, nil)
}

func NewUpstreamNotFound(msg, details string, err error) *AppError {
	return NewAppError(ErrUpstreamNotFound, msg, details, err)
}

func NewInvalidInput(details string, err error) *AppError {
	return NewAppError(ErrInvalidInput, "Invalid input provided", details, err)
}

func NewValidation(fields []FieldError) *AppError {
	e := NewAppError(ErrInvalidInput, "Validation failed", fmt.Sprintf("%d field(s) rejected", len(fields)), nil)
	e.Fields = fields
	return e
}

func NewConflict(msg, details string) *AppError {
	e := NewAppError(ErrConflict, msg, details, nil)
	e.Fields = []FieldError{{Msg: msg}}
	return e
}

func NewInternal(details string, err error) *AppError {
	return NewAppError(ErrInternal, ServerErrorMessage, details, err)
}

func NewUnauthorized(msg string, err error) *AppError {
	return NewAppError(ErrUnauthorized, msg, "", err)
}

func NewPermissionDenied(details string) *AppError {
	return NewAppError(ErrPermission, "Permission denied", details, nil)
}

func NewRateLimited(details string) *AppError {
	return NewAppError(ErrRateLimited, "Too many requests", details, nil)
}

// ToHTTPStatus maps the taxonomy to status codes. Profile lookups that miss
// answer 400, upstream misses answer 404.
func ToHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusBadRequest
	case errors.Is(err, ErrUpstreamNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrConflict):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrPermission):
		return http.StatusForbidden
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

func (e *AppError) ToJSON() gin.H {
	if errors.Is(e, ErrInternal) {
		return gin.H{"msg": ServerErrorMessage}
	}
	if len(e.Fields) > 0 {
		return gin.H{"errors": e.Fields}
	}
	return gin.H{"msg": e.Message}
}
