package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"splitmint.org/internal/auth"
	"splitmint.org/internal/obs"
)

// publicPaths are reachable without a session.
var publicPaths = map[string]struct{}{
	"/auth/register":          {},
	"/auth/login":             {},
	"/auth/logout":            {},
	"/auth/google-auth":       {},
	"/auth/reset-password":    {},
	"/auth/change-password":   {},
	"/auth/is-user-logged-in": {},
	"/healthz":                {},
	"/readyz":                 {},
	"/metrics":                {},
}

// withSession authenticates every non-public request from the session
// cookies. An expired access token is renewed transparently through the
// refresh token, and the fresh access token is set back as a cookie
// before the handler runs.
func (a *API) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := publicPaths[r.URL.Path]; ok {
			next.ServeHTTP(w, r)
			return
		}

		res, err := a.sessions.Renew(r.Context(), accessTokenFrom(r), cookieValue(r, refreshCookieName))
		if err != nil {
			if errors.Is(err, auth.ErrNotFound) {
				a.clearSessionCookies(w)
				writeError(w, r, http.StatusNotFound, "user no longer exists")
				return
			}
			a.clearSessionCookies(w)
			writeError(w, r, http.StatusUnauthorized, "not authenticated")
			return
		}
		if res.AccessToken != "" {
			a.setAccessCookie(w, res.AccessToken, a.sessions.Tokens().AccessTTL())
			obs.TokenRenewalsTotal.Inc()
		}

		principal := auth.Principal{
			UserID:  res.User.ID,
			Name:    res.User.Name,
			Email:   res.User.Email,
			Role:    res.User.Role,
			AdminID: res.User.AdminID,
		}
		next.ServeHTTP(w, r.WithContext(auth.ContextWithPrincipal(r.Context(), principal)))
	})
}

// accessTokenFrom prefers the session cookie; a bearer Authorization
// header serves non-browser clients.
func accessTokenFrom(r *http.Request) string {
	if v := cookieValue(r, accessCookieName); v != "" {
		return v
	}
	const prefix = "Bearer "
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, prefix) {
		return strings.TrimSpace(h[len(prefix):])
	}
	return ""
}

// requireCapability guards a handler with a role capability check.
func (a *API) requireCapability(capability string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := auth.PrincipalFromContext(r.Context())
		if !ok {
			writeError(w, r, http.StatusUnauthorized, "not authenticated")
			return
		}
		if !principal.HasCapability(capability) {
			writeError(w, r, http.StatusForbidden, "Forbidden: insufficient permissions")
			return
		}
		handler(w, r)
	}
}
