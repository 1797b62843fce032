package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/userauth/internal/domain/auth"
	apperrors "github.com/yanqian/userauth/pkg/errors"
)

// HTTPError captures the metadata required to serialize an error response consistently.
type HTTPError struct {
	Status  int
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap exposes the underlying cause to errors.Is/As.
func (e *HTTPError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewHTTPError is a helper to build an HTTPError instance.
func NewHTTPError(status int, code, message string, err error) *HTTPError {
	return &HTTPError{Status: status, Code: code, Message: message, Err: err}
}

// publicError is what a client may learn about a domain failure.
type publicError struct {
	status  int
	message string
}

// publicErrors lists the domain codes a client is allowed to see. The
// message of invalid_input comes from the error itself since it describes
// the caller's own input.
var publicErrors = map[string]publicError{
	auth.CodeInvalidInput:       {http.StatusBadRequest, ""},
	auth.CodeUserExists:         {http.StatusConflict, auth.ErrUserExists.Message},
	auth.CodeInvalidCredentials: {http.StatusUnauthorized, "invalid username or password"},
	auth.CodeTooManyAttempts:    {http.StatusTooManyRequests, "too many failed login attempts"},
	auth.CodePoolExhausted:      {http.StatusServiceUnavailable, "service temporarily unavailable"},
}

// mapAuthError turns domain codes into transport errors. Anything not
// listed is internal and its detail stays in the logs.
func mapAuthError(err error) *HTTPError {
	code := apperrors.Code(err)
	public, ok := publicErrors[code]
	if !ok {
		return NewHTTPError(http.StatusInternalServerError, "internal_error", "internal error", err)
	}
	message := public.message
	if message == "" {
		message = "invalid input"
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && appErr.Message != "" {
			message = appErr.Message
		}
	}
	return NewHTTPError(public.status, code, message, err)
}

func asHTTPError(err error) *HTTPError {
	if err == nil {
		return nil
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	return mapAuthError(err)
}

func abortWithError(c *gin.Context, err *HTTPError) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}
