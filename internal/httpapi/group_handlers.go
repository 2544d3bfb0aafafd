package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"splitmint.org/internal/audit"
	"splitmint.org/internal/auth"
	"splitmint.org/internal/credits"
	"splitmint.org/internal/groups"
)

func (a *API) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req struct {
		Name         string   `json:"name"`
		Description  string   `json:"description"`
		MembersEmail []string `json:"membersEmail"`
		Thumbnail    string   `json:"thumbnail"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	principal, _ := auth.PrincipalFromContext(r.Context())
	group, err := a.groups.Create(r.Context(), principal.Email, groups.CreateInput{
		Name:         req.Name,
		Description:  req.Description,
		MembersEmail: req.MembersEmail,
		Thumbnail:    req.Thumbnail,
	})
	if err != nil {
		a.handleGroupError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "group.created", map[string]any{"group_id": group.ID})
	writeJSON(w, http.StatusCreated, map[string]any{"group": group})
}

func (a *API) handleMyGroups(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	principal, _ := auth.PrincipalFromContext(r.Context())
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	items, meta, err := a.groups.ListByAdmin(r.Context(), principal.Email, page, limit)
	if err != nil {
		a.handleGroupError(w, r, err)
		return
	}
	if items == nil {
		items = []*groups.Group{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"groups":     items,
		"pagination": meta,
	})
}

func (a *API) handleUpdateGroup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		methodNotAllowed(w, r, http.MethodPut)
		return
	}
	var req struct {
		GroupID       string                `json:"groupId"`
		Name          *string               `json:"name"`
		Description   *string               `json:"description"`
		Thumbnail     *string               `json:"thumbnail"`
		PaymentStatus *groups.PaymentStatus `json:"paymentStatus"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	group, err := a.groups.Update(r.Context(), groups.UpdateInput{
		GroupID:       req.GroupID,
		Name:          req.Name,
		Description:   req.Description,
		Thumbnail:     req.Thumbnail,
		PaymentStatus: req.PaymentStatus,
	})
	if err != nil {
		a.handleGroupError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "group.updated", map[string]any{"group_id": group.ID})
	writeJSON(w, http.StatusOK, map[string]any{"group": group})
}

func (a *API) handleAddMembers(w http.ResponseWriter, r *http.Request) {
	a.handleMembers(w, r, a.groups.AddMembers, "group.members_added")
}

func (a *API) handleRemoveMembers(w http.ResponseWriter, r *http.Request) {
	a.handleMembers(w, r, a.groups.RemoveMembers, "group.members_removed")
}

func (a *API) handleMembers(w http.ResponseWriter, r *http.Request,
	op func(ctx context.Context, groupID string, emails []string) (*groups.Group, error), event string) {
	if r.Method != http.MethodPatch {
		methodNotAllowed(w, r, http.MethodPatch)
		return
	}
	var req struct {
		GroupID string   `json:"groupId"`
		Emails  []string `json:"emails"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	group, err := op(r.Context(), req.GroupID, req.Emails)
	if err != nil {
		a.handleGroupError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), event, map[string]any{"group_id": group.ID})
	writeJSON(w, http.StatusOK, map[string]any{"group": group})
}

func (a *API) handleGroupsByEmail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	email := strings.TrimPrefix(r.URL.Path, "/groups/by-email/")
	items, err := a.groups.ListByMember(r.Context(), email)
	if err != nil {
		a.handleGroupError(w, r, err)
		return
	}
	if items == nil {
		items = []*groups.Group{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"groups": items})
}

func (a *API) handleGroupsByStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	status := strings.TrimPrefix(r.URL.Path, "/groups/by-status/")
	var isPaid bool
	switch status {
	case "paid":
		isPaid = true
	case "unpaid":
		isPaid = false
	default:
		writeError(w, r, http.StatusBadRequest, "status must be paid or unpaid")
		return
	}
	items, err := a.groups.ListByPaymentStatus(r.Context(), isPaid)
	if err != nil {
		a.handleGroupError(w, r, err)
		return
	}
	if items == nil {
		items = []*groups.Group{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"groups": items})
}

func (a *API) handleGroupSettled(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	groupID := strings.TrimPrefix(r.URL.Path, "/groups/settled/")
	settled, err := a.groups.LastSettled(r.Context(), groupID)
	if err != nil {
		a.handleGroupError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"lastSettled": settled})
}

func (a *API) handleGroupError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, credits.ErrInsufficientCredits):
		writeError(w, r, http.StatusBadRequest, "You do not have enough credits to perform this operation")
	case errors.Is(err, groups.ErrMissingFields):
		writeError(w, r, http.StatusBadRequest, "missing required fields")
	case errors.Is(err, groups.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "group not found")
	case errors.Is(err, credits.ErrUserNotFound):
		writeError(w, r, http.StatusNotFound, "user not found")
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
