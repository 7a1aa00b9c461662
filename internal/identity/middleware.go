package identity

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/quillpress/quillpress/internal/platform/httpx"
)

// SubjectLookup reports whether a token subject still maps to a known user
// record. Tokens for deleted or deactivated accounts are rejected even when
// the signature verifies.
type SubjectLookup interface {
	SubjectExists(ctx context.Context, userID string) (bool, error)
}

// Authenticator resolves the Authorization header to a Principal and makes
// it available to downstream handlers.
type Authenticator struct {
	Codec  *TokenCodec
	Lookup SubjectLookup
	Logger *slog.Logger
}

// Middleware rejects requests without a valid bearer token.
func (a Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, err := a.resolve(r)
		if err != nil {
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), principal)))
	})
}

func (a Authenticator) resolve(r *http.Request) (Principal, error) {
	header := r.Header.Get("Authorization")
	raw, found := strings.CutPrefix(header, "Bearer ")
	if !found || raw == "" {
		return Principal{}, ErrUnauthenticated
	}
	principal, err := a.Codec.Verify(raw)
	if err != nil {
		return Principal{}, err
	}
	if a.Lookup != nil {
		exists, err := a.Lookup.SubjectExists(r.Context(), principal.UserID)
		if err != nil {
			if a.Logger != nil {
				a.Logger.Error("subject lookup failed", slog.Any("error", err))
			}
			return Principal{}, err
		}
		if !exists {
			return Principal{}, ErrUnauthenticated
		}
	}
	return principal, nil
}

// RequireRoles gates a route group on role membership. It assumes
// Middleware ran first.
func RequireRoles(roles ...Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			if !principal.HasAnyRole(roles...) {
				httpx.RespondError(w, httpx.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
