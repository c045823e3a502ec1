package auth

import "context"

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID    uint
	UserName  string
	StoreCode string
	Groups    []string
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFrom(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}

// AuthenticatedUser returns the caller's user name, empty when anonymous.
func AuthenticatedUser(ctx context.Context) string {
	if p, ok := PrincipalFrom(ctx); ok {
		return p.UserName
	}
	return ""
}

// IsUserInRole checks the groups carried by the caller's token.
func IsUserInRole(ctx context.Context, role string) bool {
	p, ok := PrincipalFrom(ctx)
	if !ok {
		return false
	}
	for _, g := range p.Groups {
		if g == role {
			return true
		}
	}
	return false
}
