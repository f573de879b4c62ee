package handler

import (
	"errors"
	"net/http"

	"session-hub/internal/domain"

	"github.com/labstack/echo/v4"
)

// mapDomainError converts a domain error into an appropriate echo.HTTPError.
// Note authorization outcomes never pass through here: unauthenticated and
// role-mismatch viewers get redirect decisions, not error responses.
func mapDomainError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, domain.ErrProviderUnavailable):
		return echo.NewHTTPError(http.StatusBadGateway, "identity provider unavailable")

	case errors.Is(err, domain.ErrTokenGeneration),
		errors.Is(err, domain.ErrTokenSecretWeak):
		return echo.NewHTTPError(http.StatusInternalServerError, "token generation error")

	case errors.Is(err, domain.ErrUnknownStatusDomain):
		return echo.NewHTTPError(http.StatusNotFound, "unknown status domain")

	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
