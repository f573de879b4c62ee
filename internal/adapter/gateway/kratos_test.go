package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"session-hub/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func whoamiPayload(userID, email, role, name string, active bool) map[string]any {
	return map[string]any{
		"id":     "kratos-sess-1",
		"active": active,
		"identity": map[string]any{
			"id":         userID,
			"schema_id":  "default",
			"schema_url": "http://kratos/schemas/default",
			"created_at": "2026-01-15T10:00:00Z",
			"traits": map[string]any{
				"email": email,
				"role":  role,
				"name":  name,
			},
		},
	}
}

func whoamiServer(t *testing.T, status int, payload map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sessions/whoami", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if payload != nil {
			_ = json.NewEncoder(w).Encode(payload)
		}
	}))
}

func newProvider(serverURL, cookie string) *KratosProvider {
	client := NewAPIClient(serverURL, 5*time.Second)
	return NewKratosProvider(client, cookie, 0, slog.Default())
}

func TestCurrentIdentity_Success(t *testing.T) {
	server := whoamiServer(t, http.StatusOK, whoamiPayload("user-1", "expert@example.com", "expert", "Jane", true))
	defer server.Close()

	identity, err := newProvider(server.URL, "sess-1").CurrentIdentity(context.Background())

	require.NoError(t, err)
	require.NotNil(t, identity)
	assert.Equal(t, "user-1", identity.UserID)
	assert.Equal(t, "expert@example.com", identity.Email)
	assert.Equal(t, "kratos-sess-1", identity.SessionID)
	assert.False(t, identity.CreatedAt.IsZero())
}

func TestCurrentIdentity_EmptyCookieIsAnonymous(t *testing.T) {
	identity, err := newProvider("http://unused", "").CurrentIdentity(context.Background())

	assert.NoError(t, err)
	assert.Nil(t, identity)
}

func TestCurrentIdentity_UnauthorizedIsAnonymousNotError(t *testing.T) {
	server := whoamiServer(t, http.StatusUnauthorized, nil)
	defer server.Close()

	identity, err := newProvider(server.URL, "expired-sess").CurrentIdentity(context.Background())

	assert.NoError(t, err)
	assert.Nil(t, identity)
}

func TestCurrentIdentity_InactiveSessionIsAnonymous(t *testing.T) {
	server := whoamiServer(t, http.StatusOK, whoamiPayload("user-1", "e@x.com", "expert", "Jane", false))
	defer server.Close()

	identity, err := newProvider(server.URL, "sess-1").CurrentIdentity(context.Background())

	assert.NoError(t, err)
	assert.Nil(t, identity)
}

func TestCurrentIdentity_ServerErrorIsProviderUnavailable(t *testing.T) {
	server := whoamiServer(t, http.StatusInternalServerError, nil)
	defer server.Close()

	identity, err := newProvider(server.URL, "sess-1").CurrentIdentity(context.Background())

	assert.Nil(t, identity)
	assert.True(t, errors.Is(err, domain.ErrProviderUnavailable))
}

func TestFetchProfile_MapsTraits(t *testing.T) {
	payload := whoamiPayload("user-1", "expert@example.com", "expert", "Jane", true)
	payload["identity"].(map[string]any)["traits"].(map[string]any)["speciality"] = "backend"
	server := whoamiServer(t, http.StatusOK, payload)
	defer server.Close()

	provider := newProvider(server.URL, "sess-1")
	profile, err := provider.FetchProfile(context.Background(), &domain.Identity{UserID: "user-1"})

	require.NoError(t, err)
	assert.Equal(t, domain.RoleExpert, profile.Role)
	assert.Equal(t, "Jane", profile.DisplayName)
	assert.Equal(t, "backend", profile.Attributes["speciality"])
	assert.NotContains(t, profile.Attributes, "role")
	assert.NotContains(t, profile.Attributes, "name")
}

func TestFetchProfile_UnknownRoleTraitFailsClosed(t *testing.T) {
	server := whoamiServer(t, http.StatusOK, whoamiPayload("user-1", "e@x.com", "superuser", "Jane", true))
	defer server.Close()

	provider := newProvider(server.URL, "sess-1")
	profile, err := provider.FetchProfile(context.Background(), &domain.Identity{UserID: "user-1"})

	require.NoError(t, err)
	assert.Equal(t, domain.Role(""), profile.Role)
}

func TestFetchProfile_SessionOwnerChanged(t *testing.T) {
	server := whoamiServer(t, http.StatusOK, whoamiPayload("user-2", "other@x.com", "company", "Bob", true))
	defer server.Close()

	provider := newProvider(server.URL, "sess-1")
	profile, err := provider.FetchProfile(context.Background(), &domain.Identity{UserID: "user-1"})

	assert.Nil(t, profile)
	assert.True(t, errors.Is(err, domain.ErrProfileFetch))
}

func TestFetchProfile_ServerError(t *testing.T) {
	server := whoamiServer(t, http.StatusBadGateway, nil)
	defer server.Close()

	provider := newProvider(server.URL, "sess-1")
	profile, err := provider.FetchProfile(context.Background(), &domain.Identity{UserID: "user-1"})

	assert.Nil(t, profile)
	assert.True(t, errors.Is(err, domain.ErrProfileFetch))
}

func TestSignOut_DrivesLogoutFlow(t *testing.T) {
	var flowCreated, flowSubmitted atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/self-service/logout/browser":
			flowCreated.Store(true)
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]string{
				"logout_url":   "http://kratos/self-service/logout?token=tok-1",
				"logout_token": "tok-1",
			})
		case "/self-service/logout":
			flowSubmitted.Store(true)
			assert.Equal(t, "tok-1", r.URL.Query().Get("token"))
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	err := newProvider(server.URL, "sess-1").SignOut(context.Background())

	require.NoError(t, err)
	assert.True(t, flowCreated.Load())
	assert.True(t, flowSubmitted.Load())
}

func TestSignOut_AnonymousIsNoOp(t *testing.T) {
	assert.NoError(t, newProvider("http://unused", "").SignOut(context.Background()))
}

func TestOnIdentityChange_NotifiesOnTransition(t *testing.T) {
	var signedIn atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if !signedIn.Load() {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(whoamiPayload("user-1", "e@x.com", "expert", "Jane", true))
	}))
	defer server.Close()

	client := NewAPIClient(server.URL, 5*time.Second)
	provider := NewKratosProvider(client, "sess-1", 10*time.Millisecond, slog.Default())

	events := make(chan *domain.Identity, 4)
	unsubscribe := provider.OnIdentityChange(func(identity *domain.Identity) {
		events <- identity
	})
	defer unsubscribe()

	// First poll establishes the anonymous baseline silently; flipping the
	// server to signed-in must produce exactly one notification.
	time.Sleep(30 * time.Millisecond)
	signedIn.Store(true)

	select {
	case identity := <-events:
		require.NotNil(t, identity)
		assert.Equal(t, "user-1", identity.UserID)
	case <-time.After(time.Second):
		t.Fatal("no identity change notification")
	}
}

func TestOnIdentityChange_UnsubscribeStopsPolling(t *testing.T) {
	server := whoamiServer(t, http.StatusUnauthorized, nil)
	defer server.Close()

	client := NewAPIClient(server.URL, 5*time.Second)
	provider := NewKratosProvider(client, "sess-1", 10*time.Millisecond, slog.Default())

	unsubscribe := provider.OnIdentityChange(func(*domain.Identity) {})
	unsubscribe()

	provider.mu.Lock()
	assert.Nil(t, provider.stop)
	assert.Empty(t, provider.subs)
	provider.mu.Unlock()
}
