package httpapi

import (
	"errors"
	"net/http"

	"splitmint.org/internal/audit"
	"splitmint.org/internal/auth"
	"splitmint.org/internal/credits"
)

func (a *API) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req struct {
		Credits int64 `json:"credits"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	principal, _ := auth.PrincipalFromContext(r.Context())
	order, err := a.credits.CreateOrder(r.Context(), principal.UserID, req.Credits)
	if err != nil {
		a.handleCreditsError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "payment.order_created", map[string]any{
		"order_id": order.ID,
		"credits":  req.Credits,
	})
	writeJSON(w, http.StatusOK, map[string]any{"order": order})
}

func (a *API) handleVerifyPayment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var cb credits.Callback
	if err := decodeJSON(w, r, &cb); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	principal, _ := auth.PrincipalFromContext(r.Context())
	balance, err := a.credits.VerifyAndCredit(r.Context(), principal.UserID, cb)
	if err != nil {
		a.handleCreditsError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "payment.verified", map[string]any{
		"order_id": cb.OrderID,
		"credits":  cb.Credits,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "verified",
		"credits": balance,
	})
}

// handlePackages exposes the purchasable credit packages and their prices.
func (a *API) handlePackages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"currency": credits.Currency,
		"packages": credits.Packages(),
	})
}

func (a *API) handleCreditsError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, credits.ErrIncompletePayload):
		writeError(w, r, http.StatusBadRequest, "incomplete payment payload")
	case errors.Is(err, credits.ErrInvalidSignature):
		writeError(w, r, http.StatusBadRequest, "payment signature verification failed")
	case errors.Is(err, credits.ErrInvalidCreditValue):
		writeError(w, r, http.StatusBadRequest, "invalid credit quantity")
	case errors.Is(err, credits.ErrUserNotFound):
		writeError(w, r, http.StatusNotFound, "user not found")
	case errors.Is(err, credits.ErrNotConfigured):
		writeError(w, r, http.StatusServiceUnavailable, "payments not configured")
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
