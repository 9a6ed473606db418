// Package session tracks the authenticated cloud identity and tells the
// synchronized collections about every transition.
package session

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid session token")
	ErrNotSignedIn        = errors.New("not signed in")
)

// Identity is the authenticated user of the current session.
type Identity struct {
	ID    string
	Email string
}

// User is a row in the remote users table.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Subscriber receives identity transitions. The user id is empty while
// anonymous.
type Subscriber interface {
	SetIdentity(userID string)
}

// TokenStore persists the session token between runs.
type TokenStore interface {
	Get(key string, out any) (bool, error)
	Set(key string, v any) error
	Delete(key string) error
}

const tokenCacheKey = "session_token"

// Provider owns the current identity. It restores a persisted session at
// startup, and notifies every registered subscriber exactly once per
// transition; repeating the current identity is swallowed.
type Provider struct {
	svc   *Service
	store TokenStore

	mu      sync.Mutex
	current *Identity
	loading bool
	subs    []Subscriber
}

func NewProvider(svc *Service, store TokenStore) *Provider {
	return &Provider{svc: svc, store: store, loading: true}
}

// Register adds a subscriber. Call before Restore.
func (p *Provider) Register(sub Subscriber) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.subs = append(p.subs, sub)
}

// Restore performs the initial identity check from the persisted token.
func (p *Provider) Restore() {
	var token string

	found, err := p.store.Get(tokenCacheKey, &token)
	if err != nil {
		slog.Error("reading persisted session", "error", err)
	}

	if !found || token == "" {
		p.setIdentity(nil)
		return
	}

	identity, err := p.svc.VerifyToken(token)
	if err != nil {
		slog.Info("persisted session no longer valid", "error", err)
		p.clearToken()
		p.setIdentity(nil)

		return
	}

	p.setIdentity(identity)
}

// Current returns the authenticated identity, or nil while anonymous.
func (p *Provider) Current() *Identity {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.current
}

// Loading reports whether the initial identity check has not finished yet.
func (p *Provider) Loading() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.loading
}

func (p *Provider) SignUp(ctx context.Context, email, password string) (*Identity, error) {
	identity, token, err := p.svc.SignUp(ctx, email, password)
	if err != nil {
		return nil, err
	}

	p.persistToken(token)
	p.setIdentity(identity)

	return identity, nil
}

func (p *Provider) SignIn(ctx context.Context, email, password string) (*Identity, error) {
	identity, token, err := p.svc.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}

	p.persistToken(token)
	p.setIdentity(identity)

	return identity, nil
}

// SignOut drops the session. No remote calls are made; the collections
// keep operating on local state.
func (p *Provider) SignOut() {
	p.clearToken()
	p.setIdentity(nil)
}

func (p *Provider) UpdatePassword(ctx context.Context, current, next string) error {
	identity := p.Current()
	if identity == nil {
		return ErrNotSignedIn
	}

	return p.svc.UpdatePassword(ctx, identity.ID, current, next)
}

func (p *Provider) persistToken(token string) {
	if err := p.store.Set(tokenCacheKey, token); err != nil {
		slog.Error("persisting session token", "error", err)
	}
}

func (p *Provider) clearToken() {
	if err := p.store.Delete(tokenCacheKey); err != nil {
		slog.Error("clearing session token", "error", err)
	}
}

func (p *Provider) setIdentity(identity *Identity) {
	p.mu.Lock()

	var oldID, newID string

	if p.current != nil {
		oldID = p.current.ID
	}

	if identity != nil {
		newID = identity.ID
	}

	wasLoading := p.loading
	p.current = identity
	p.loading = false
	subs := slices.Clone(p.subs)

	p.mu.Unlock()

	if oldID == newID && !wasLoading {
		return
	}

	for _, sub := range subs {
		sub.SetIdentity(newID)
	}
}
