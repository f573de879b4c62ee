package handler

import (
	"log/slog"
	"net/http"
	"time"

	"session-hub/internal/domain"
	"session-hub/internal/infrastructure/token"
	"session-hub/internal/session"

	"github.com/labstack/echo/v4"
)

// resolveWait bounds how long the session endpoint waits for an in-flight
// resolution before answering with a loading snapshot. Clients poll.
const resolveWait = 2 * time.Second

// viewerTokenHeader carries the signed viewer token to the frontend.
const viewerTokenHeader = "X-Viewer-Token"

// SessionHandler serves the viewer's session snapshot and sign-out.
type SessionHandler struct {
	registry *session.Registry
	issuer   *token.JWTIssuer
	logger   *slog.Logger
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(registry *session.Registry, issuer *token.JWTIssuer, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{registry: registry, issuer: issuer, logger: logger}
}

// UserView is the user object in the session response.
type UserView struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Role        string `json:"role,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}

// SessionResponse is the snapshot the frontend consumes.
type SessionResponse struct {
	Loading       bool      `json:"loading"`
	Authenticated bool      `json:"authenticated"`
	User          *UserView `json:"user,omitempty"`
}

// Handle processes GET /v1/session.
func (h *SessionHandler) Handle(c echo.Context) error {
	scope, cookie := viewerScope(c)
	store := h.registry.Acquire(scope, cookie)

	state := waitResolved(store, resolveWait)

	response := SessionResponse{
		Loading:       state.Loading,
		Authenticated: state.Authenticated(),
	}

	if state.Authenticated() {
		response.User = &UserView{
			ID:    state.Identity.UserID,
			Email: state.Identity.Email,
			Role:  string(state.Role()),
		}
		if state.Profile != nil {
			response.User.DisplayName = state.Profile.DisplayName
		}

		viewerToken, err := h.issuer.IssueViewerToken(state.Identity, state.Profile)
		if err != nil {
			h.logger.ErrorContext(c.Request().Context(), "failed to issue viewer token", "error", err)
			return mapDomainError(domain.ErrTokenGeneration)
		}
		c.Response().Header().Set(viewerTokenHeader, viewerToken)
	}

	return c.JSON(http.StatusOK, response)
}

// Logout processes POST /v1/session/logout. The response never waits on the
// identity provider: state resets synchronously and the provider call runs
// in the background.
func (h *SessionHandler) Logout(c echo.Context) error {
	scope, cookie := viewerScope(c)
	store := h.registry.Acquire(scope, cookie)

	store.SignOut(c.Request().Context())

	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

// waitResolved returns the current state, waiting briefly for a terminal
// outcome when resolution is still in flight. The subscription is released
// before returning; late notifications are ignored.
func waitResolved(store *session.Store, wait time.Duration) domain.SessionState {
	state := store.State()
	if !state.Loading {
		return state
	}

	done := make(chan domain.SessionState, 1)
	unsubscribe := store.Subscribe(func(s domain.SessionState) {
		if !s.Loading {
			select {
			case done <- s:
			default:
			}
		}
	})
	defer unsubscribe()

	// Re-check: resolution may have finished between State() and Subscribe().
	if state = store.State(); !state.Loading {
		return state
	}

	select {
	case state = <-done:
		return state
	case <-time.After(wait):
		return store.State()
	}
}
