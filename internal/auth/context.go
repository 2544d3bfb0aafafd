package auth

import "context"

// Principal is the request-scoped identity reconstructed from a verified
// access token.
type Principal struct {
	UserID  string
	Name    string
	Email   string
	Role    string
	AdminID string
}

// HasCapability reports whether the principal's role allows the capability.
func (p Principal) HasCapability(capability string) bool {
	return Authorize(p.Role, capability)
}

type ctxKey string

const principalKey ctxKey = "auth_principal"

// ContextWithPrincipal stores the authenticated identity in the context.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext extracts the authenticated identity, if present.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	if !ok || p.UserID == "" {
		return Principal{}, false
	}
	return p, true
}
