// Package middleware wraps the backend mux: panic recovery, request ids,
// bearer auth, and HTTP metrics.
package middleware

import (
	"context"

	"github.com/gocar-app/gocar/internal/backend/store"
	"github.com/gocar-app/gocar/pkg/logger"
)

type (
	// Authenticator resolves a bearer token to an account.
	Authenticator interface {
		Authenticate(ctx context.Context, token string) (*store.Account, error)
	}

	Middleware struct {
		auth Authenticator
		log  logger.Logger
	}
)

func New(auth Authenticator, log logger.Logger) *Middleware {
	return &Middleware{
		auth: auth,
		log:  log,
	}
}

type accountKey struct{}

// WithAccount stores the authenticated account in the context.
func WithAccount(ctx context.Context, a *store.Account) context.Context {
	return context.WithValue(ctx, accountKey{}, a)
}

// AccountFromContext returns the authenticated account, or nil for anonymous
// requests.
func AccountFromContext(ctx context.Context) *store.Account {
	a, _ := ctx.Value(accountKey{}).(*store.Account)
	return a
}
