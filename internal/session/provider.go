package session

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/volunteer-client/internal/api"
	"github.com/spec-kit/volunteer-client/internal/auth"
	"github.com/spec-kit/volunteer-client/internal/domain"
)

// State is the process-wide answer to "who is logged in". Loading=false
// means the state is fully settled: either anonymous or one concrete role
// with its matching profile populated.
type State struct {
	Authenticated bool
	Role          domain.Role
	User          *domain.UserProfile
	Organisation  *domain.Organisation
	Loading       bool
}

// Principal returns the state's identity as a Principal value.
func (s State) Principal() domain.Principal {
	if !s.Authenticated {
		return domain.Anonymous()
	}
	return domain.Principal{Role: s.Role, User: s.User, Organisation: s.Organisation}
}

// LoginAPI is the slice of the platform API the provider drives.
type LoginAPI interface {
	LoginUser(ctx context.Context, username, password string) (api.LoginResponse, error)
	LoginOrganisation(ctx context.Context, email, password string) (api.LoginResponse, error)
}

// Listener receives state snapshots after every transition.
type Listener func(State)

// Provider is the single source of truth for session state, with an
// explicit init -> authenticated/anonymous -> teardown lifecycle. Any
// bootstrap failure forces a local logout rather than leaving the state
// half-populated.
type Provider struct {
	tokens auth.TokenStore
	boot   *auth.Bootstrapper
	api    LoginAPI
	logger *zap.Logger

	mu        sync.RWMutex
	state     State
	listeners map[int]Listener
	nextSub   int
}

// NewProvider builds a provider settled in the anonymous state.
func NewProvider(tokens auth.TokenStore, boot *auth.Bootstrapper, loginAPI LoginAPI, logger *zap.Logger) *Provider {
	return &Provider{
		tokens:    tokens,
		boot:      boot,
		api:       loginAPI,
		logger:    logger,
		state:     State{Role: domain.RoleAnonymous},
		listeners: make(map[int]Listener),
	}
}

// Init resolves the stored token into a settled session. With no stored
// token it settles to anonymous immediately, without any network calls.
func (p *Provider) Init(ctx context.Context) State {
	token, err := p.tokens.Token()
	if err != nil {
		p.logger.Warn("failed to read stored token", zap.Error(err))
		p.setAnonymous()
		return p.Snapshot()
	}
	if token == "" {
		p.setAnonymous()
		return p.Snapshot()
	}

	p.setLoading()
	p.bootstrap(ctx, token)
	return p.Snapshot()
}

// LoginUser exchanges volunteer credentials for a token, persists it, and
// re-runs the full bootstrap so login and cold start converge on identical
// state.
func (p *Provider) LoginUser(ctx context.Context, username, password string) error {
	resp, err := p.api.LoginUser(ctx, username, password)
	if err != nil {
		return fmt.Errorf("user login: %w", err)
	}
	return p.adoptToken(ctx, resp.AccessToken)
}

// LoginOrganisation exchanges organisation credentials for a token and
// re-runs the full bootstrap.
func (p *Provider) LoginOrganisation(ctx context.Context, email, password string) error {
	resp, err := p.api.LoginOrganisation(ctx, email, password)
	if err != nil {
		return fmt.Errorf("organisation login: %w", err)
	}
	return p.adoptToken(ctx, resp.AccessToken)
}

// Logout erases the token and resets to anonymous. Local-only: the token
// is simply abandoned, no server round-trip.
func (p *Provider) Logout() {
	if err := p.tokens.Clear(); err != nil {
		p.logger.Warn("failed to clear stored token", zap.Error(err))
	}
	p.setAnonymous()
}

// Snapshot returns the current state.
func (p *Provider) Snapshot() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// Subscribe registers a listener for state transitions and returns its
// cancel function. Subscriptions are scoped: callers must cancel when the
// owning component tears down.
func (p *Provider) Subscribe(fn Listener) (cancel func()) {
	p.mu.Lock()
	id := p.nextSub
	p.nextSub++
	p.listeners[id] = fn
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.listeners, id)
		p.mu.Unlock()
	}
}

func (p *Provider) adoptToken(ctx context.Context, token string) error {
	if err := p.tokens.Save(token); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}
	p.setLoading()
	if !p.bootstrap(ctx, token) {
		return fmt.Errorf("session bootstrap failed after login")
	}
	return nil
}

// bootstrap settles the session for token, failing closed on any error.
func (p *Provider) bootstrap(ctx context.Context, token string) bool {
	principal, err := p.boot.Bootstrap(ctx, token)
	if err != nil {
		p.logger.Error("session bootstrap failed, logging out", zap.Error(err))
		p.Logout()
		return false
	}

	if !principal.Authenticated() {
		p.setAnonymous()
		return true
	}

	p.setState(State{
		Authenticated: true,
		Role:          principal.Role,
		User:          principal.User,
		Organisation:  principal.Organisation,
	})
	return true
}

func (p *Provider) setAnonymous() {
	p.setState(State{Role: domain.RoleAnonymous})
}

func (p *Provider) setLoading() {
	p.mu.Lock()
	p.state.Loading = true
	p.mu.Unlock()
}

func (p *Provider) setState(next State) {
	p.mu.Lock()
	p.state = next
	listeners := make([]Listener, 0, len(p.listeners))
	for _, fn := range p.listeners {
		listeners = append(listeners, fn)
	}
	p.mu.Unlock()

	for _, fn := range listeners {
		fn(next)
	}
}
