package stitch

import "context"

type contextKey int

const authorizationKey contextKey = iota

// WithAuthorization stores the inbound Authorization header value for the
// resolvers. The token is opaque to the gateway; it is only ever relayed.
func WithAuthorization(ctx context.Context, authorization string) context.Context {
	if authorization == "" {
		return ctx
	}
	return context.WithValue(ctx, authorizationKey, authorization)
}

// AuthorizationFromContext returns the relayed token, or empty if the
// inbound request carried none.
func AuthorizationFromContext(ctx context.Context) string {
	authorization, _ := ctx.Value(authorizationKey).(string)
	return authorization
}
