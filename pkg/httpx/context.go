package httpx

import "context"

type ctxKey string

const (
	// CtxKeyIdentity carries the freshly resolved Identity, never raw claims.
	CtxKeyIdentity ctxKey = "identity"
)

// IdentityFromContext returns the resolved identity attached by the
// authenticator, if any.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(CtxKeyIdentity).(Identity)
	return id, ok
}

func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, CtxKeyIdentity, id)
}
