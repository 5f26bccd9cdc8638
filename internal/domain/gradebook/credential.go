package gradebook

import (
	"context"
	"time"

	"github.com/classpulse/participation-hub/internal/domain/shared"
)

// ErrNoCredential is returned when no valid credential is available.
var ErrNoCredential = shared.NewDomainError("gradebook", "Resolve", shared.ErrUnauthorized, "no valid credential available")

// AuthContext is an authenticated context for gradebook requests.
type AuthContext struct {
	// Token is the bearer token presented to the gradebook service.
	Token string

	// Expiry is when the token stops being valid; zero means unknown.
	Expiry time.Time
}

// Valid reports whether the context can still authenticate a request.
func (a AuthContext) Valid(now time.Time) bool {
	if a.Token == "" {
		return false
	}
	return a.Expiry.IsZero() || now.Before(a.Expiry)
}

// CredentialProvider supplies an authenticated context per request. It is
// passed explicitly wherever remote calls happen; there is no ambient or
// session-global credential state.
type CredentialProvider interface {
	Resolve(ctx context.Context) (AuthContext, error)
}

// CredentialProviderFunc adapts a function to the CredentialProvider interface.
type CredentialProviderFunc func(ctx context.Context) (AuthContext, error)

func (f CredentialProviderFunc) Resolve(ctx context.Context) (AuthContext, error) {
	return f(ctx)
}
