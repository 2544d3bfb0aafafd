package httpapi

import (
	"errors"
	"net/http"

	"splitmint.org/internal/audit"
	"splitmint.org/internal/auth"
	"splitmint.org/internal/obs"
)

type userResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Role    string `json:"role"`
	AdminID string `json:"adminId,omitempty"`
	Credits *int64 `json:"credits,omitempty"`
}

func toUserResponse(u *auth.User) userResponse {
	balance := u.CreditBalance()
	return userResponse{
		ID:      u.ID,
		Name:    u.Name,
		Email:   u.Email,
		Role:    u.Role,
		AdminID: u.AdminID,
		Credits: &balance,
	}
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	user, err := a.sessions.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		a.handleAuthError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.register", map[string]any{"email": user.Email})
	writeJSON(w, http.StatusCreated, map[string]any{"user": toUserResponse(user)})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	session, err := a.sessions.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		a.handleAuthError(w, r, err)
		return
	}
	a.setAccessCookie(w, session.AccessToken, a.sessions.Tokens().AccessTTL())
	a.setRefreshCookie(w, session.RefreshToken, a.sessions.Tokens().RefreshTTL())
	obs.LoginsTotal.WithLabelValues("password").Inc()
	_ = audit.LogEvent(r.Context(), "auth.login", map[string]any{"email": session.User.Email, "method": "password"})
	writeJSON(w, http.StatusOK, map[string]any{"user": toUserResponse(session.User)})
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	a.clearSessionCookies(w)
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

func (a *API) handleGoogleAuth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req struct {
		IDToken string `json:"idToken"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	session, err := a.sessions.GoogleLogin(r.Context(), req.IDToken)
	if err != nil {
		a.handleAuthError(w, r, err)
		return
	}
	a.setAccessCookie(w, session.AccessToken, a.sessions.Tokens().AccessTTL())
	a.setRefreshCookie(w, session.RefreshToken, a.sessions.Tokens().RefreshTTL())
	obs.LoginsTotal.WithLabelValues("google").Inc()
	_ = audit.LogEvent(r.Context(), "auth.login", map[string]any{"email": session.User.Email, "method": "google"})
	writeJSON(w, http.StatusOK, map[string]any{"user": toUserResponse(session.User)})
}

// handleIsLoggedIn runs the same renewal state machine as withSession but
// reports the outcome instead of failing the request: the client polls it
// to decide whether to show the login screen.
func (a *API) handleIsLoggedIn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	res, err := a.sessions.Renew(r.Context(), accessTokenFrom(r), cookieValue(r, refreshCookieName))
	if err != nil {
		a.clearSessionCookies(w)
		writeJSON(w, http.StatusOK, map[string]any{"loggedIn": false})
		return
	}
	if res.AccessToken != "" {
		a.setAccessCookie(w, res.AccessToken, a.sessions.Tokens().AccessTTL())
		obs.TokenRenewalsTotal.Inc()
	}
	user := toUserResponse(res.User)
	if res.AccessToken == "" {
		// A still-valid access token skips the store read, so the
		// principal carries no balance to report.
		user.Credits = nil
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"loggedIn": true,
		"user":     user,
	})
}

func (a *API) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.sessions.RequestReset(r.Context(), req.Email); err != nil {
		a.handleAuthError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.reset_requested", map[string]any{"email": req.Email})
	writeJSON(w, http.StatusOK, map[string]string{"status": "otp sent"})
}

func (a *API) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req struct {
		Email       string `json:"email"`
		OTP         string `json:"otp"`
		NewPassword string `json:"newPassword"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.sessions.ConfirmReset(r.Context(), req.Email, req.OTP, req.NewPassword); err != nil {
		a.handleAuthError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.password_changed", map[string]any{"email": req.Email})
	writeJSON(w, http.StatusOK, map[string]string{"status": "password changed"})
}

// handleAuthError maps domain errors onto HTTP statuses without leaking
// internals.
func (a *API) handleAuthError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrMissingFields):
		writeError(w, r, http.StatusBadRequest, "missing required fields")
	case errors.Is(err, auth.ErrInvalidRole):
		writeError(w, r, http.StatusBadRequest, "invalid role")
	case errors.Is(err, auth.ErrInvalidOTP):
		writeError(w, r, http.StatusBadRequest, "invalid or expired OTP")
	case errors.Is(err, auth.ErrMissingToken):
		writeError(w, r, http.StatusBadRequest, "missing token")
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, r, http.StatusUnauthorized, "invalid email or password")
	case errors.Is(err, auth.ErrNotAuthenticated), errors.Is(err, auth.ErrTokenInvalid), errors.Is(err, auth.ErrTokenExpired):
		writeError(w, r, http.StatusUnauthorized, "not authenticated")
	case errors.Is(err, auth.ErrFederatedOnly):
		writeError(w, r, http.StatusForbidden, "account uses Google sign-in")
	case errors.Is(err, auth.ErrUnauthorized):
		writeError(w, r, http.StatusForbidden, "Forbidden: insufficient permissions")
	case errors.Is(err, auth.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "user not found")
	case errors.Is(err, auth.ErrAlreadyExists):
		writeError(w, r, http.StatusConflict, "email already registered")
	case errors.Is(err, auth.ErrRateLimited):
		writeError(w, r, http.StatusTooManyRequests, "please wait before requesting another OTP")
	case errors.Is(err, auth.ErrMailNotConfigured), errors.Is(err, auth.ErrMailUnavailable):
		writeError(w, r, http.StatusServiceUnavailable, "mail delivery unavailable")
	case errors.Is(err, auth.ErrNotConfigured):
		writeError(w, r, http.StatusServiceUnavailable, "google sign-in not configured")
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
