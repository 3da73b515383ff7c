package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mlevchenko/studyhub/internal/service"
	"github.com/mlevchenko/studyhub/internal/tokens"
)

// httpError owns the transport status mapping for the typed service
// failures. WrongKind is client misuse (400); expired, bad-signature and
// malformed tokens are untrusted credentials (401).
func httpError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, service.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request data")
	case errors.Is(err, service.ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, "email already registered")
	case errors.Is(err, service.ErrInvalidCredentials):
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid email or password")
	case errors.Is(err, service.ErrAccountInactive):
		return echo.NewHTTPError(http.StatusForbidden, "account is not activated")
	case errors.Is(err, service.ErrInvalidTokenType):
		return echo.NewHTTPError(http.StatusBadRequest, "invalid token type")
	case errors.Is(err, service.ErrAlreadyActive):
		return echo.NewHTTPError(http.StatusBadRequest, "email already activated")
	case errors.Is(err, service.ErrUserNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	case errors.Is(err, service.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrNameTaken):
		return echo.NewHTTPError(http.StatusConflict, "subject name already taken")
	case errors.Is(err, service.ErrSearchUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "search is not available")
	case errors.Is(err, tokens.ErrWrongKind):
		return echo.NewHTTPError(http.StatusBadRequest, "invalid token type")
	case errors.Is(err, tokens.ErrExpired),
		errors.Is(err, tokens.ErrBadSignature),
		errors.Is(err, tokens.ErrMalformed):
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
}
