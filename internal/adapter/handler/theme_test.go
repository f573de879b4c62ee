package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"session-hub/internal/domain"
	"session-hub/internal/prefs"
	"session-hub/internal/storage"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newThemeEnv() (*echo.Echo, *ThemeHandler) {
	scopes := storage.NewScopes(time.Minute)
	registry := prefs.NewRegistry(func(scope string) domain.Storage {
		return scopes.Acquire(scope)
	}, time.Minute)

	e := echo.New()
	e.Validator = NewValidator()
	return e, NewThemeHandler(registry)
}

func themeGet(e *echo.Echo, h *ThemeHandler, scope, prefersDark string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/v1/theme", nil)
	req.AddCookie(&http.Cookie{Name: scopeCookieName, Value: scope})
	if prefersDark != "" {
		req.Header.Set(prefersDarkHeader, prefersDark)
	}
	rec := httptest.NewRecorder()
	_ = h.Get(e.NewContext(req, rec))
	return rec
}

func TestThemeHandler_FirstVisitDefaultsToLight(t *testing.T) {
	e, h := newThemeEnv()

	// System dark signal present but deliberately not applied.
	rec := themeGet(e, h, "scope-1", "true")

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp ThemeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "light", resp.Theme)
}

func TestThemeHandler_SetThenGet(t *testing.T) {
	e, h := newThemeEnv()

	req := httptest.NewRequest(http.MethodPut, "/v1/theme", strings.NewReader(`{"theme":"dark"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.AddCookie(&http.Cookie{Name: scopeCookieName, Value: "scope-1"})
	rec := httptest.NewRecorder()
	require.NoError(t, h.Set(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = themeGet(e, h, "scope-1", "")
	var resp ThemeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "dark", resp.Theme)
}

func TestThemeHandler_ScopesAreIsolated(t *testing.T) {
	e, h := newThemeEnv()

	req := httptest.NewRequest(http.MethodPut, "/v1/theme", strings.NewReader(`{"theme":"dark"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.AddCookie(&http.Cookie{Name: scopeCookieName, Value: "scope-1"})
	require.NoError(t, h.Set(e.NewContext(req, httptest.NewRecorder())))

	rec := themeGet(e, h, "scope-2", "")
	var resp ThemeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "light", resp.Theme)
}

func TestThemeHandler_RejectsInvalidTheme(t *testing.T) {
	e, h := newThemeEnv()

	for _, body := range []string{`{"theme":"unresolved"}`, `{"theme":"blurple"}`, `{}`} {
		req := httptest.NewRequest(http.MethodPut, "/v1/theme", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		req.AddCookie(&http.Cookie{Name: scopeCookieName, Value: "scope-1"})
		rec := httptest.NewRecorder()

		err := h.Set(e.NewContext(req, rec))

		var httpErr *echo.HTTPError
		require.ErrorAs(t, err, &httpErr, "body %s should be rejected", body)
		assert.Equal(t, http.StatusBadRequest, httpErr.Code)
	}
}
