package httpapi

import (
	"context"

	"github.com/cafescout/cafe-scout-api/internal/domain"
)

type identityKey struct{}
type addressKey struct{}

func WithIdentity(ctx context.Context, id domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func IdentityFromContext(ctx context.Context) (domain.Identity, bool) {
	v, ok := ctx.Value(identityKey{}).(domain.Identity)
	return v, ok && v != ""
}

// WithClientAddress stores the raw client address resolved from the proxy
// headers. It lives only in the request context; persisted records carry the
// hashed form.
func WithClientAddress(ctx context.Context, address string) context.Context {
	return context.WithValue(ctx, addressKey{}, address)
}

func ClientAddressFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(addressKey{}).(string)
	return v, ok && v != ""
}
