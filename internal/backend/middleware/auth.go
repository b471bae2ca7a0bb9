package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gocar-app/gocar/internal/domain/types"
	wrap "github.com/gocar-app/gocar/pkg/logger/wrapper"
)

// Auth validates the bearer token, loads the account and injects it into the
// request context. A missing header passes through as anonymous; protected
// routes enforce presence via RequireRoles.
func (m *Middleware) Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}

		tok, err := extractBearerToken(header)
		if err != nil {
			errorResponse(w, http.StatusUnauthorized, err.Error())
			return
		}

		account, err := m.auth.Authenticate(ctx, tok)
		if err != nil || account == nil {
			m.log.Warn(wrap.WithAction(ctx, "authenticate"), "rejecting bearer token")
			errorResponse(w, http.StatusUnauthorized, "invalid credentials")
			return
		}

		ctx = wrap.WithUserID(ctx, account.ID)
		next.ServeHTTP(w, r.WithContext(WithAccount(ctx, account)))
	})
}

// RequireRoles allows only authenticated accounts with one of the given
// roles.
func (m *Middleware) RequireRoles(next http.HandlerFunc, allowedRoles ...types.Role) http.Handler {
	allowed := make(map[types.Role]struct{}, len(allowedRoles))
	for _, role := range allowedRoles {
		allowed[role] = struct{}{}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		account := AccountFromContext(r.Context())
		if account == nil {
			errorResponse(w, http.StatusUnauthorized, "authorization required")
			return
		}
		if len(allowed) > 0 {
			if _, ok := allowed[account.Role]; !ok {
				errorResponse(w, http.StatusForbidden, "forbidden: insufficient role")
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

func extractBearerToken(header string) (string, error) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", fmt.Errorf("invalid Authorization header format")
	}
	return parts[1], nil
}
