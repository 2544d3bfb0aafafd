package httpapi

import (
	"net/http"

	"splitmint.org/internal/audit"
	"splitmint.org/internal/auth"
)

// handleUsers dispatches the managed-user collection: list, create and
// update within the caller's tenant.
func (a *API) handleUsers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.requireCapability(auth.CapUserView, a.handleListUsers)(w, r)
	case http.MethodPost:
		a.requireCapability(auth.CapUserCreate, a.handleCreateUser)(w, r)
	case http.MethodPatch:
		a.requireCapability(auth.CapUserUpdate, a.handleUpdateUser)(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost, http.MethodPatch)
	}
}

func (a *API) handleListUsers(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFromContext(r.Context())
	users, err := a.sessions.ListManagedUsers(r.Context(), principal.AdminID)
	if err != nil {
		a.handleAuthError(w, r, err)
		return
	}
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": out})
}

func (a *API) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string `json:"name"`
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	principal, _ := auth.PrincipalFromContext(r.Context())
	user, err := a.sessions.CreateManagedUser(r.Context(), principal.AdminID, req.Name, req.Email, req.Role)
	if err != nil {
		a.handleAuthError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "user.created", map[string]any{"email": user.Email, "role": user.Role})
	writeJSON(w, http.StatusCreated, map[string]any{"user": toUserResponse(user)})
}

func (a *API) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string  `json:"userId"`
		Name   *string `json:"name"`
		Role   *string `json:"role"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	principal, _ := auth.PrincipalFromContext(r.Context())
	user, err := a.sessions.UpdateManagedUser(r.Context(), principal.AdminID, req.UserID, req.Name, req.Role)
	if err != nil {
		a.handleAuthError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "user.updated", map[string]any{"user_id": user.ID})
	writeJSON(w, http.StatusOK, map[string]any{"user": toUserResponse(user)})
}

func (a *API) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req struct {
		UserID string `json:"userId"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	principal, _ := auth.PrincipalFromContext(r.Context())
	if err := a.sessions.DeleteManagedUser(r.Context(), principal.AdminID, req.UserID); err != nil {
		a.handleAuthError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "user.deleted", map[string]any{"user_id": req.UserID})
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
