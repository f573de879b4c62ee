package handler

import (
	"net/http"

	"session-hub/internal/domain"
	"session-hub/internal/prefs"

	"github.com/labstack/echo/v4"
)

// prefersDarkHeader carries the client's system-level dark signal. It is
// recorded for the hydration step but deliberately never auto-applied:
// first-time viewers default to light (product policy).
const prefersDarkHeader = "X-Prefers-Dark"

// ThemeHandler serves the viewer's theme preference.
type ThemeHandler struct {
	registry *prefs.Registry
}

// NewThemeHandler creates a new theme handler.
func NewThemeHandler(registry *prefs.Registry) *ThemeHandler {
	return &ThemeHandler{registry: registry}
}

// ThemeResponse is the resolved preference.
type ThemeResponse struct {
	Theme string `json:"theme"`
}

// ThemeRequest is the body of PUT /v1/theme.
type ThemeRequest struct {
	Theme string `json:"theme" validate:"required,oneof=light dark"`
}

// Get processes GET /v1/theme, hydrating on first access.
func (h *ThemeHandler) Get(c echo.Context) error {
	scope, _ := viewerScope(c)
	store := h.registry.Acquire(scope)

	systemDark := c.Request().Header.Get(prefersDarkHeader) == "true"
	theme := store.Hydrate(systemDark)

	return c.JSON(http.StatusOK, ThemeResponse{Theme: string(theme)})
}

// Set processes PUT /v1/theme. Only concrete values are accepted.
func (h *ThemeHandler) Set(c echo.Context) error {
	var req ThemeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "theme must be light or dark")
	}

	scope, _ := viewerScope(c)
	store := h.registry.Acquire(scope)
	store.Set(domain.ThemePreference(req.Theme))

	return c.JSON(http.StatusOK, ThemeResponse{Theme: req.Theme})
}
