package handler

import (
	"net/http"
	"net/url"

	"session-hub/internal/domain"
	"session-hub/internal/guard"
	"session-hub/internal/session"

	"github.com/labstack/echo/v4"
)

// GuardHandler serves access decisions for protected views.
type GuardHandler struct {
	registry *session.Registry
}

// NewGuardHandler creates a new guard handler.
func NewGuardHandler(registry *session.Registry) *GuardHandler {
	return &GuardHandler{registry: registry}
}

// RedirectView describes where to send the viewer and where they came from.
type RedirectView struct {
	To   string `json:"to"`
	From string `json:"from"`
}

// DecisionResponse is the JSON shape of one access decision.
type DecisionResponse struct {
	Outcome  string        `json:"outcome"`
	Redirect *RedirectView `json:"redirect,omitempty"`
}

// Decide processes GET /v1/guard?path=...&role=...&role=...
// The frontend calls this before rendering a protected view; the decision is
// control flow, never an error status.
func (h *GuardHandler) Decide(c echo.Context) error {
	path := c.QueryParam("path")
	if path == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "path query parameter is required")
	}

	required, err := requiredRoles(c.QueryParams()["role"])
	if err != nil {
		return err
	}

	scope, cookie := viewerScope(c)
	store := h.registry.Acquire(scope, cookie)
	state := waitResolved(store, resolveWait)

	return c.JSON(http.StatusOK, toDecisionResponse(guard.Decide(state, required, path)))
}

// RequireRole gates a route group on the guard's decision: loading viewers
// are told to retry, redirect outcomes become HTTP redirects carrying the
// original location in the from parameter.
func RequireRole(registry *session.Registry, required ...domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			scope, cookie := viewerScope(c)
			store := registry.Acquire(scope, cookie)
			state := waitResolved(store, resolveWait)

			decision := guard.Decide(state, required, c.Request().URL.Path)
			switch decision.Outcome {
			case guard.RenderLoading:
				c.Response().Header().Set("Retry-After", "1")
				return c.JSON(http.StatusAccepted, map[string]bool{"loading": true})
			case guard.Redirect:
				return c.Redirect(http.StatusSeeOther, redirectLocation(decision))
			default:
				return next(c)
			}
		}
	}
}

func requiredRoles(params []string) ([]domain.Role, error) {
	roles := make([]domain.Role, 0, len(params))
	for _, p := range params {
		role := domain.Role(p)
		if !role.IsValid() {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "unknown role: "+p)
		}
		roles = append(roles, role)
	}
	return roles, nil
}

func toDecisionResponse(d guard.Decision) DecisionResponse {
	switch d.Outcome {
	case guard.RenderLoading:
		return DecisionResponse{Outcome: "loading"}
	case guard.Redirect:
		return DecisionResponse{
			Outcome:  "redirect",
			Redirect: &RedirectView{To: d.Path, From: d.From},
		}
	default:
		return DecisionResponse{Outcome: "render"}
	}
}

func redirectLocation(d guard.Decision) string {
	return d.Path + "?from=" + url.QueryEscape(d.From)
}
