// Package middleware provides net/http guards over a goAccess Engine:
// session-token authentication, role/permission requirements, and
// step-up enforcement. The guards are transport adapters only; every
// decision is made by the engine.
package middleware

import (
	"context"
	"net/http"
	"strings"

	goAccess "github.com/MrEthical07/goAccess"
)

type principalContextKey struct{}

// PrincipalFromContext returns the authenticated principal attached by
// [Authenticate].
func PrincipalFromContext(ctx context.Context) (*goAccess.Principal, bool) {
	principal, ok := ctx.Value(principalContextKey{}).(*goAccess.Principal)
	return principal, ok
}

// Authenticate validates the bearer session token and attaches the
// asserted principal to the request context. Requests without a valid
// token proceed unauthenticated; a downstream requirement then denies
// them with a 401.
func Authenticate(engine *goAccess.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			principal, err := engine.ParseSessionToken(token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), principalContextKey{}, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Require guards a route with an access requirement, then applies
// step-up enforcement when the engine has it switched on and the route
// is not exempt. Unauthenticated maps to 401 (the caller's login
// redirect), other denials to 403; a step-up denial carries the setup
// redirect target in the Location header.
func Require(engine *goAccess.Engine, requirement goAccess.AccessRequirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			principal, _ := PrincipalFromContext(r.Context())
			ctx := goAccess.WithRoute(goAccess.WithClientIP(r.Context(), clientIP(r)), r.URL.Path)

			decision, err := engine.Evaluate(ctx, principal, requirement)
			if err != nil {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			if !decision.Allowed {
				if decision.Reason == goAccess.DenialUnauthenticated {
					http.Error(w, "unauthorized", http.StatusUnauthorized)
					return
				}
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			// Exemptions are route IDs without a leading slash.
			routeID := strings.TrimPrefix(r.URL.Path, "/")
			if engine.StepUpEnforced() && !engine.IsExemptRoute(routeID) {
				outcome := engine.EnforceStepUp(ctx, principal)
				if !outcome.Allowed {
					w.Header().Set("Location", outcome.RedirectTarget)
					http.Error(w, outcome.Message, http.StatusForbidden)
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAnyRole guards a route with an any-of role requirement.
func RequireAnyRole(engine *goAccess.Engine, roles ...string) func(http.Handler) http.Handler {
	return Require(engine, goAccess.RequireAnyRole(roles...))
}

// RequireAllRoles guards a route with an all-of role requirement.
func RequireAllRoles(engine *goAccess.Engine, roles ...string) func(http.Handler) http.Handler {
	return Require(engine, goAccess.RequireAllRoles(roles...))
}

// RequireAnyPermission guards a route with an any-of permission
// requirement.
func RequireAnyPermission(engine *goAccess.Engine, perms ...string) func(http.Handler) http.Handler {
	return Require(engine, goAccess.RequireAnyPermission(perms...))
}

// RequireAllPermissions guards a route with an all-of permission
// requirement.
func RequireAllPermissions(engine *goAccess.Engine, perms ...string) func(http.Handler) http.Handler {
	return Require(engine, goAccess.RequireAllPermissions(perms...))
}

// RequireAuthenticated guards a route that any authenticated principal
// may use.
func RequireAuthenticated(engine *goAccess.Engine) func(http.Handler) http.Handler {
	return Require(engine, goAccess.RequireAuthenticated())
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if idx := strings.IndexByte(forwarded, ','); idx > 0 {
			return strings.TrimSpace(forwarded[:idx])
		}
		return strings.TrimSpace(forwarded)
	}
	host := r.RemoteAddr
	if idx := strings.LastIndexByte(host, ':'); idx > 0 {
		return host[:idx]
	}
	return host
}
