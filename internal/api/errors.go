package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/embedprep/internal/window"
)

var ErrInvalidRequest = errors.New("invalid_request")

type invalidRequestError struct {
	msg   string
	param string
}

func (e invalidRequestError) Error() string {
	return e.msg
}

func (e invalidRequestError) Unwrap() error {
	return ErrInvalidRequest
}

func newInvalidRequest(param, msg string) error {
	return invalidRequestError{msg: msg, param: param}
}

// writeFailure maps an error from request handling to a response.
func writeFailure(c *echo.Context, err error) error {
	var ire invalidRequestError
	var te *window.TokenError
	switch {
	case errors.As(err, &ire):
		return writeError(c, http.StatusBadRequest, "invalid_request_error", ire.msg, ire.param, "")
	case errors.As(err, &te):
		return writeError(c, http.StatusBadRequest, "invalid_request_error", err.Error(), "tokens", "invalid_token")
	case errors.Is(err, window.ErrInvalidArgument):
		return writeError(c, http.StatusBadRequest, "invalid_request_error", err.Error(), "radius", "invalid_argument")
	default:
		return writeError(c, http.StatusInternalServerError, "server_error", err.Error(), "", "")
	}
}
