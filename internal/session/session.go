// Package session tracks the authenticated identity. Identities come from
// HS256 tokens issued by the external auth service; the session ends on sign
// out or when the token expires.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	apperrors "gharkharcha/internal/errors"
	"gharkharcha/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "gharkharcha-auth"

// Provider reports the current identity and its changes.
type Provider interface {
	// Current returns the signed-in identity, or nil.
	Current() *models.Identity
	// Watch calls fn with the current identity immediately and again on
	// every change until cancel is called. A nil identity means signed out.
	Watch(fn func(*models.Identity)) (cancel func())
}

// Claims are the token claims mapped onto an Identity. The subject is the uid.
type Claims struct {
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Picture string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

// TokenProvider is a Provider driven by SignIn and SignOut.
type TokenProvider struct {
	secret []byte
	now    func() time.Time

	// notifyMu orders identity changes with their delivery to watchers, so
	// every watcher ends on the identity Current reports. Taken before mu.
	notifyMu sync.Mutex

	mu       sync.Mutex
	current  *models.Identity
	expires  time.Time
	timer    *time.Timer
	gen      uint64
	nextID   uint64
	watchers map[uint64]func(*models.Identity)
}

var _ Provider = (*TokenProvider)(nil)

// NewTokenProvider returns a signed-out provider verifying tokens with secret.
func NewTokenProvider(secret string) *TokenProvider {
	return &TokenProvider{
		secret:   []byte(secret),
		now:      time.Now,
		watchers: map[uint64]func(*models.Identity){},
	}
}

// SignIn verifies token and makes its identity current. Signing in while
// already signed in replaces the previous identity.
func (p *TokenProvider) SignIn(token string) (*models.Identity, error) {
	claims, err := p.parse(token)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidToken, err)
	}
	id := &models.Identity{
		UID:         claims.Subject,
		DisplayName: claims.Name,
		Email:       claims.Email,
		PhotoURL:    claims.Picture,
	}

	var expires time.Time
	if claims.ExpiresAt != nil {
		expires = claims.ExpiresAt.Time
	}
	p.set(id, expires)
	return copyIdentity(id), nil
}

// SignOut clears the current identity.
func (p *TokenProvider) SignOut() {
	p.set(nil, time.Time{})
}

// Current returns the signed-in identity, or nil.
func (p *TokenProvider) Current() *models.Identity {
	p.mu.Lock()
	defer p.mu.Unlock()
	return copyIdentity(p.current)
}

// ExpiresAt returns when the current session ends; zero when signed out or
// when the token carries no expiry.
func (p *TokenProvider) ExpiresAt() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.expires
}

// Watch implements Provider. Watchers must not call SignIn or SignOut.
func (p *TokenProvider) Watch(fn func(*models.Identity)) (cancel func()) {
	p.notifyMu.Lock()
	defer p.notifyMu.Unlock()

	p.mu.Lock()
	p.nextID++
	id := p.nextID
	p.watchers[id] = fn
	current := copyIdentity(p.current)
	p.mu.Unlock()

	fn(current)

	return func() {
		p.mu.Lock()
		delete(p.watchers, id)
		p.mu.Unlock()
	}
}

func (p *TokenProvider) set(id *models.Identity, expires time.Time) {
	p.notifyMu.Lock()
	defer p.notifyMu.Unlock()

	p.mu.Lock()
	fns := p.swapLocked(id, expires)
	p.mu.Unlock()

	notify(fns, id)
}

// swapLocked replaces the session and returns the watchers to notify.
func (p *TokenProvider) swapLocked(id *models.Identity, expires time.Time) []func(*models.Identity) {
	p.gen++
	gen := p.gen
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.current = id
	p.expires = expires
	if id != nil && !expires.IsZero() {
		p.timer = time.AfterFunc(expires.Sub(p.now()), func() { p.expire(gen) })
	}
	fns := make([]func(*models.Identity), 0, len(p.watchers))
	for _, fn := range p.watchers {
		fns = append(fns, fn)
	}
	return fns
}

// expire signs out only if the session that armed the timer is still current.
func (p *TokenProvider) expire(gen uint64) {
	p.notifyMu.Lock()
	defer p.notifyMu.Unlock()

	p.mu.Lock()
	if gen != p.gen {
		p.mu.Unlock()
		return
	}
	fns := p.swapLocked(nil, time.Time{})
	p.mu.Unlock()

	notify(fns, nil)
}

func notify(fns []func(*models.Identity), id *models.Identity) {
	for _, fn := range fns {
		fn(copyIdentity(id))
	}
}

func (p *TokenProvider) parse(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return p.secret, nil
	}, jwt.WithTimeFunc(p.now))
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}

// IssueToken signs a token for identity valid for ttl. The auth service issues
// real tokens; this exists for development tooling and tests.
func IssueToken(secret string, identity models.Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Name:    identity.DisplayName,
		Email:   identity.Email,
		Picture: identity.PhotoURL,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   identity.UID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func copyIdentity(id *models.Identity) *models.Identity {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}
