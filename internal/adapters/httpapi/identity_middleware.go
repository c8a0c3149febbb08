package httpapi

import (
	"net/http"
	"strings"

	"github.com/cafescout/cafe-scout-api/internal/domain"
	"github.com/cafescout/cafe-scout-api/internal/platform/auth/jwtverifier"
)

// proxyHeaders is the trust-ordered list of headers consulted for the client
// address. The first comma-separated value of the first present header wins.
var proxyHeaders = []string{"X-Forwarded-For", "X-Real-Ip", "True-Client-Ip"}

// NewIdentityMiddleware resolves exactly one identity per request.
//
// A bearer token that verifies (non-expired, subject and email present)
// yields "user:<sub>". Anything else — no header, malformed header, invalid
// or expired token — silently falls back to the address-derived identity;
// under-authenticating is preferred over failing the request. The raw address
// also goes in context for the rate limiter's address dimension.
func NewIdentityMiddleware(v *jwtverifier.Verifier, ipHashSalt string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			address := clientAddress(r)
			ctx := WithClientAddress(r.Context(), address)

			if raw := bearerToken(r); raw != "" {
				if claims, err := v.Verify(ctx, raw); err == nil {
					ctx = WithIdentity(ctx, domain.UserIdentity(claims.Subject))
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
			}

			ctx = WithIdentity(ctx, domain.AnonymousIdentity(address, ipHashSalt))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// NewDevIdentityMiddleware is a local/dev-only shim. It accepts an explicit
// subject via X-Debug-Subject, falling back to the address-derived identity
// like the real middleware.
//
// This is intended for local Docker workflows where standing up an OIDC
// provider + JWKS is overkill. Do NOT use this in production deployments.
func NewDevIdentityMiddleware(defaultSubject, ipHashSalt string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			address := clientAddress(r)
			ctx := WithClientAddress(r.Context(), address)

			sub := strings.TrimSpace(r.Header.Get("X-Debug-Subject"))
			if sub == "" {
				sub = strings.TrimSpace(defaultSubject)
			}
			if sub != "" {
				ctx = WithIdentity(ctx, domain.UserIdentity(sub))
			} else {
				ctx = WithIdentity(ctx, domain.AnonymousIdentity(address, ipHashSalt))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	authz := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(authz, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(authz, prefix))
}

func clientAddress(r *http.Request) string {
	for _, h := range proxyHeaders {
		v := r.Header.Get(h)
		if v == "" {
			continue
		}
		first, _, _ := strings.Cut(v, ",")
		if addr := strings.TrimSpace(first); addr != "" {
			return addr
		}
	}
	return domain.UnknownAddress
}
