// Package httpapi exposes the session, user, group and payment operations
// over HTTP. Authentication rides on two httpOnly cookies; authorization is
// role-capability based and enforced per route.
package httpapi

import (
	"context"
	"net/http"

	"splitmint.org/internal/auth"
	"splitmint.org/internal/credits"
	"splitmint.org/internal/groups"
	"splitmint.org/internal/obs"
)

// ReadyProbe reports whether downstream dependencies are reachable.
type ReadyProbe func(ctx context.Context) error

// Options configures the API surface.
type Options struct {
	Sessions *auth.Service
	Credits  *credits.Service
	Groups   *groups.Service

	Ready   ReadyProbe
	Version string

	AllowedOrigins     []string
	RateLimitPerSecond int
	RateLimitBurst     int
	MaxBodyBytes       int64
	CookieSecure       bool
}

// API is the HTTP facade over the domain services.
type API struct {
	sessions *auth.Service
	credits  *credits.Service
	groups   *groups.Service

	ready        ReadyProbe
	version      string
	cookieSecure bool
	opts         Options
}

// New constructs the API.
func New(opts Options) *API {
	if opts.RateLimitPerSecond <= 0 {
		opts.RateLimitPerSecond = 50
	}
	if opts.RateLimitBurst <= 0 {
		opts.RateLimitBurst = 100
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 1 << 20
	}
	return &API{
		sessions:     opts.Sessions,
		credits:      opts.Credits,
		groups:       opts.Groups,
		ready:        opts.Ready,
		version:      opts.Version,
		cookieSecure: opts.CookieSecure,
		opts:         opts,
	}
}

// Handler wires routes and the middleware chain.
func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", a.handleHealthz)
	mux.HandleFunc("/readyz", a.handleReadyz)
	mux.Handle("/metrics", obs.Handler())

	mux.HandleFunc("/auth/register", a.handleRegister)
	mux.HandleFunc("/auth/login", a.handleLogin)
	mux.HandleFunc("/auth/logout", a.handleLogout)
	mux.HandleFunc("/auth/google-auth", a.handleGoogleAuth)
	mux.HandleFunc("/auth/is-user-logged-in", a.handleIsLoggedIn)
	mux.HandleFunc("/auth/reset-password", a.handleResetPassword)
	mux.HandleFunc("/auth/change-password", a.handleChangePassword)

	mux.HandleFunc("/users", a.handleUsers)
	mux.HandleFunc("/users/delete", a.requireCapability(auth.CapUserDelete, a.handleDeleteUser))

	mux.HandleFunc("/groups/create", a.requireCapability(auth.CapGroupCreate, a.handleCreateGroup))
	mux.HandleFunc("/groups/my-groups", a.requireCapability(auth.CapGroupView, a.handleMyGroups))
	mux.HandleFunc("/groups/update", a.requireCapability(auth.CapGroupUpdate, a.handleUpdateGroup))
	mux.HandleFunc("/groups/members/add", a.requireCapability(auth.CapGroupUpdate, a.handleAddMembers))
	mux.HandleFunc("/groups/members/remove", a.requireCapability(auth.CapGroupUpdate, a.handleRemoveMembers))
	mux.HandleFunc("/groups/by-email/", a.requireCapability(auth.CapGroupView, a.handleGroupsByEmail))
	mux.HandleFunc("/groups/by-status/", a.requireCapability(auth.CapGroupView, a.handleGroupsByStatus))
	mux.HandleFunc("/groups/settled/", a.requireCapability(auth.CapGroupView, a.handleGroupSettled))

	mux.HandleFunc("/api/payments/create-order", a.requireCapability(auth.CapPaymentCreate, a.handleCreateOrder))
	mux.HandleFunc("/api/payments/verify", a.requireCapability(auth.CapPaymentCreate, a.handleVerifyPayment))
	mux.HandleFunc("/api/payments/packages", a.handlePackages)

	var h http.Handler = a.withSession(mux)
	h = Logging(h)
	h = RateLimit(h, a.opts.RateLimitPerSecond, a.opts.RateLimitBurst)
	h = MaxBodyBytes(h, a.opts.MaxBodyBytes)
	h = CORS(a.opts.AllowedOrigins)(h)
	h = SecurityHeaders(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

func (a *API) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": a.version,
	})
}

func (a *API) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if a.ready != nil {
		if err := a.ready(r.Context()); err != nil {
			writeError(w, r, http.StatusServiceUnavailable, "not ready")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
