package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"session-hub/internal/domain"

	kratos "github.com/ory/kratos-client-go"
)

// sessionCookieName is the cookie Kratos issues for browser sessions.
const sessionCookieName = "ory_kratos_session"

// requestTimeout bounds every individual Kratos call.
const requestTimeout = 3 * time.Second

// NewAPIClient builds a Kratos client with tuned HTTP transport, shared by
// every viewer-bound provider.
func NewAPIClient(baseURL string, timeout time.Duration) *kratos.APIClient {
	configuration := kratos.NewConfiguration()
	configuration.Servers = []kratos.ServerConfiguration{
		{URL: baseURL},
	}

	configuration.HTTPClient = &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 20,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	return kratos.NewAPIClient(configuration)
}

// KratosProvider implements domain.IdentityProvider for one viewer,
// identified by their Kratos session cookie. Identity-change notifications
// are produced by polling the whoami endpoint and comparing outcomes.
type KratosProvider struct {
	client *kratos.APIClient
	cookie string
	poll   time.Duration
	logger *slog.Logger

	mu       sync.Mutex
	subs     map[int]func(*domain.Identity)
	nextSub  int
	stop     chan struct{}
	lastSeen string
	baseline bool
}

// NewKratosProvider binds a provider to one viewer's session cookie.
// An empty cookie denotes an anonymous viewer.
func NewKratosProvider(client *kratos.APIClient, sessionCookie string, poll time.Duration, logger *slog.Logger) *KratosProvider {
	return &KratosProvider{
		client: client,
		cookie: sessionCookie,
		poll:   poll,
		logger: logger,
		subs:   make(map[int]func(*domain.Identity)),
	}
}

// CurrentIdentity asks Kratos who the viewer is. "No session" outcomes
// (missing cookie, 401, inactive session) return (nil, nil); only provider
// connectivity problems are errors.
func (p *KratosProvider) CurrentIdentity(ctx context.Context) (*domain.Identity, error) {
	if p.cookie == "" {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	session, resp, err := p.client.FrontendAPI.ToSession(ctx).Cookie(p.fullCookie()).Execute()
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrProviderUnavailable, err)
	}

	if session.Active != nil && !*session.Active {
		return nil, nil
	}
	if session.Identity == nil {
		return nil, nil
	}

	identity := &domain.Identity{
		UserID:    session.Identity.Id,
		Email:     traitString(session.Identity.Traits, "email"),
		SessionID: session.Id,
	}
	if session.Identity.CreatedAt != nil {
		identity.CreatedAt = *session.Identity.CreatedAt
	}
	return identity, nil
}

// FetchProfile resolves the viewer's role profile from their identity
// traits. Transport failures are errors; a trait set without a known role
// still yields a profile, whose empty role fails closed downstream.
func (p *KratosProvider) FetchProfile(ctx context.Context, identity *domain.Identity) (*domain.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	session, resp, err := p.client.FrontendAPI.ToSession(ctx).Cookie(p.fullCookie()).Execute()
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("%w: kratos returned status %d", domain.ErrProfileFetch, resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrProfileFetch, err)
	}

	if session.Identity == nil || session.Identity.Id != identity.UserID {
		return nil, fmt.Errorf("%w: session no longer belongs to %s", domain.ErrProfileFetch, identity.UserID)
	}

	profile := &domain.Profile{
		DisplayName: traitString(session.Identity.Traits, "name"),
		Attributes:  make(map[string]string),
	}
	if role := domain.Role(traitString(session.Identity.Traits, "role")); role.IsValid() {
		profile.Role = role
	}
	if traits, ok := session.Identity.Traits.(map[string]interface{}); ok {
		for key, value := range traits {
			if key == "role" || key == "name" {
				continue
			}
			if str, ok := value.(string); ok {
				profile.Attributes[key] = str
			}
		}
	}
	return profile, nil
}

// OnIdentityChange registers fn and lazily starts the whoami poller. The
// poller stops when the last subscriber unregisters.
func (p *KratosProvider) OnIdentityChange(fn func(*domain.Identity)) (unsubscribe func()) {
	p.mu.Lock()
	id := p.nextSub
	p.nextSub++
	p.subs[id] = fn
	if p.stop == nil && p.poll > 0 {
		p.stop = make(chan struct{})
		go p.pollLoop(p.stop)
	}
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.subs, id)
		if len(p.subs) == 0 && p.stop != nil {
			close(p.stop)
			p.stop = nil
			p.baseline = false
		}
		p.mu.Unlock()
	}
}

// SignOut drives the Kratos browser logout flow. The session store never
// blocks on this call; errors only matter for logging.
func (p *KratosProvider) SignOut(ctx context.Context) error {
	if p.cookie == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	flow, _, err := p.client.FrontendAPI.CreateBrowserLogoutFlow(ctx).Cookie(p.fullCookie()).Execute()
	if err != nil {
		return fmt.Errorf("%w: create logout flow: %w", domain.ErrProviderUnavailable, err)
	}

	_, err = p.client.FrontendAPI.UpdateLogoutFlow(ctx).Token(flow.LogoutToken).Cookie(p.fullCookie()).Execute()
	if err != nil {
		return fmt.Errorf("%w: submit logout flow: %w", domain.ErrProviderUnavailable, err)
	}
	return nil
}

func (p *KratosProvider) fullCookie() string {
	return fmt.Sprintf("%s=%s", sessionCookieName, p.cookie)
}

// pollLoop compares whoami outcomes and notifies subscribers on transitions.
// The first observation only establishes the baseline: the store already
// requested the current identity at bootstrap.
func (p *KratosProvider) pollLoop(stop <-chan struct{}) {
	ticker := time.NewTicker(p.poll)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p.pollOnce()
		}
	}
}

func (p *KratosProvider) pollOnce() {
	identity, err := p.CurrentIdentity(context.Background())
	if err != nil {
		p.logger.Debug("identity poll failed", "error", err)
		return
	}

	userID := ""
	if identity != nil {
		userID = identity.UserID
	}

	p.mu.Lock()
	if !p.baseline {
		p.baseline = true
		p.lastSeen = userID
		p.mu.Unlock()
		return
	}
	if p.lastSeen == userID {
		p.mu.Unlock()
		return
	}
	p.lastSeen = userID
	subs := make([]func(*domain.Identity), 0, len(p.subs))
	for _, fn := range p.subs {
		subs = append(subs, fn)
	}
	p.mu.Unlock()

	for _, fn := range subs {
		fn(identity)
	}
}

// traitString reads one string trait from a Kratos identity trait set.
func traitString(traits interface{}, key string) string {
	m, ok := traits.(map[string]interface{})
	if !ok {
		return ""
	}
	value, ok := m[key]
	if !ok {
		return ""
	}
	str, _ := value.(string)
	return str
}
