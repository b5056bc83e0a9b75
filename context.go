package goAccess

import "context"

type clientIPContextKey struct{}
type routeContextKey struct{}

// WithClientIP attaches the caller's IP address to ctx for audit event
// enrichment.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

// WithRoute attaches the guarded route's identifier to ctx. The engine
// records it on audit events and the step-up policy uses it for
// exemption checks when the caller does not pass a route explicitly.
func WithRoute(ctx context.Context, routeID string) context.Context {
	return context.WithValue(ctx, routeContextKey{}, routeID)
}

func clientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}

func routeFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	route, _ := ctx.Value(routeContextKey{}).(string)
	return route
}
