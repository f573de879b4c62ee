package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// Cookie names. The Kratos session cookie doubles as the browsing scope for
// authenticated viewers; anonymous viewers get a dedicated scope cookie so
// their cache and theme preference survive across requests.
const (
	sessionCookieName = "ory_kratos_session"
	scopeCookieName   = "sh_scope"
)

// viewerScope identifies the request's browsing scope and session cookie.
// Issues a scope cookie for first-time anonymous viewers.
func viewerScope(c echo.Context) (scope, sessionCookie string) {
	if cookie, err := c.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value, cookie.Value
	}

	if cookie, err := c.Cookie(scopeCookieName); err == nil && cookie.Value != "" {
		return cookie.Value, ""
	}

	scope = uuid.NewString()
	c.SetCookie(&http.Cookie{
		Name:     scopeCookieName,
		Value:    scope,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return scope, ""
}
