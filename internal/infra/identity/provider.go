package identity

import (
	"context"
	"crypto/subtle"
	"errors"
	"sync"

	"github.com/google/uuid"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// Provider is a session-backed identity provider for the single configured
// operator account. It replaces an ambient auth singleton: the tracker gets
// it injected and only ever sees the opaque user id, "" meaning signed out.
type Provider struct {
	email    string
	password string

	mu       sync.Mutex
	userID   string
	sessions map[string]string // token -> userID
	nextSub  int
	subs     map[int]func(userID string)
}

func NewProvider(email, password string) *Provider {
	return &Provider{
		email:    email,
		password: password,
		sessions: make(map[string]string),
		subs:     make(map[int]func(string)),
	}
}

// OnAuthChange registers cb and invokes it immediately with the current
// state, then again on every sign-in/sign-out. The returned function
// detaches cb.
func (p *Provider) OnAuthChange(cb func(userID string)) func() {
	p.mu.Lock()
	id := p.nextSub
	p.nextSub++
	p.subs[id] = cb
	current := p.userID
	p.mu.Unlock()

	cb(current)

	return func() {
		p.mu.Lock()
		delete(p.subs, id)
		p.mu.Unlock()
	}
}

// SignIn checks the credentials and opens a session, returning the bearer
// token for it. The first session of a signed-out provider notifies
// subscribers of the sign-in.
func (p *Provider) SignIn(email, password string) (string, error) {
	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(p.email)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(p.password)) == 1
	if !emailOK || !passOK {
		return "", ErrInvalidCredentials
	}

	token := uuid.New().String()

	p.mu.Lock()
	wasSignedOut := p.userID == ""
	p.userID = email
	p.sessions[token] = email
	subs := p.snapshotSubs()
	p.mu.Unlock()

	if wasSignedOut {
		notify(subs, email)
	}
	return token, nil
}

// SignOut closes every session and notifies subscribers. Idempotent.
func (p *Provider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	wasSignedIn := p.userID != ""
	p.userID = ""
	p.sessions = make(map[string]string)
	subs := p.snapshotSubs()
	p.mu.Unlock()

	if wasSignedIn {
		notify(subs, "")
	}
	return nil
}

// UserFromToken resolves a bearer token to the user id behind it.
func (p *Provider) UserFromToken(token string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	userID, ok := p.sessions[token]
	return userID, ok
}

// UserID returns the currently signed-in user, "" when nobody is.
func (p *Provider) UserID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.userID
}

// snapshotSubs must be called with mu held.
func (p *Provider) snapshotSubs() []func(string) {
	subs := make([]func(string), 0, len(p.subs))
	for _, cb := range p.subs {
		subs = append(subs, cb)
	}
	return subs
}

func notify(subs []func(string), userID string) {
	for _, cb := range subs {
		cb(userID)
	}
}
