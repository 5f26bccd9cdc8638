package classroom

import (
	"context"
	"sync"
	"time"

	"github.com/classpulse/participation-hub/internal/domain/gradebook"
)

// StaticTokenProvider serves a single pre-issued bearer token. Suitable for
// service accounts and local development; it never refreshes.
type StaticTokenProvider struct {
	token  string
	expiry time.Time
}

var _ gradebook.CredentialProvider = (*StaticTokenProvider)(nil)

// NewStaticTokenProvider creates a provider for a token with no known expiry.
func NewStaticTokenProvider(token string) *StaticTokenProvider {
	return &StaticTokenProvider{token: token}
}

// NewExpiringTokenProvider creates a provider for a token that expires.
func NewExpiringTokenProvider(token string, expiry time.Time) *StaticTokenProvider {
	return &StaticTokenProvider{token: token, expiry: expiry}
}

// Resolve returns the configured token, or ErrNoCredential when the token is
// missing or expired.
func (p *StaticTokenProvider) Resolve(ctx context.Context) (gradebook.AuthContext, error) {
	auth := gradebook.AuthContext{Token: p.token, Expiry: p.expiry}
	if !auth.Valid(time.Now()) {
		return gradebook.AuthContext{}, gradebook.ErrNoCredential
	}
	return auth, nil
}

// CachingProvider wraps another provider and reuses its credential until it
// nears expiry. Keeps per-request token resolution cheap when the upstream
// provider does real work (a token exchange, a secrets fetch).
type CachingProvider struct {
	upstream gradebook.CredentialProvider
	margin   time.Duration

	mu     sync.Mutex
	cached gradebook.AuthContext
}

var _ gradebook.CredentialProvider = (*CachingProvider)(nil)

// NewCachingProvider wraps upstream. Tokens are refreshed margin before their
// expiry; a zero margin defaults to one minute.
func NewCachingProvider(upstream gradebook.CredentialProvider, margin time.Duration) *CachingProvider {
	if margin <= 0 {
		margin = time.Minute
	}
	return &CachingProvider{upstream: upstream, margin: margin}
}

func (p *CachingProvider) Resolve(ctx context.Context) (gradebook.AuthContext, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cached.Valid(time.Now().Add(p.margin)) {
		return p.cached, nil
	}

	auth, err := p.upstream.Resolve(ctx)
	if err != nil {
		return gradebook.AuthContext{}, err
	}
	p.cached = auth
	return auth, nil
}
