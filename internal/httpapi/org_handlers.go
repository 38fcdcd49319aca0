package httpapi

import (
	"net/http"
	"strings"

	"warden.org/internal/audit"
	"warden.org/internal/auth"
	"warden.org/internal/org"
)

func (a *API) handleOrganizationsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.createOrganization(w, r)
	default:
		methodNotAllowed(w, r, http.MethodPost)
	}
}

func (a *API) handleOrganizationResource(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(strings.TrimPrefix(r.URL.Path, "/v1/organizations/"))
	switch {
	case len(parts) == 1:
		switch r.Method {
		case http.MethodGet:
			a.getOrganization(w, r, parts[0])
		case http.MethodPatch:
			a.updateOrganization(w, r, parts[0])
		case http.MethodDelete:
			a.deleteOrganization(w, r, parts[0])
		default:
			methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete)
		}
	case len(parts) == 2 && parts[1] == "members":
		switch r.Method {
		case http.MethodPost:
			a.addMember(w, r, parts[0])
		case http.MethodDelete:
			a.removeMember(w, r, parts[0])
		default:
			methodNotAllowed(w, r, http.MethodPost, http.MethodDelete)
		}
	case len(parts) == 2 && parts[1] == "servers":
		switch r.Method {
		case http.MethodPost:
			a.addServer(w, r, parts[0])
		case http.MethodDelete:
			a.removeServer(w, r, parts[0])
		default:
			methodNotAllowed(w, r, http.MethodPost, http.MethodDelete)
		}
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) createOrganization(w http.ResponseWriter, r *http.Request) {
	actor := auth.ActorFromContext(r.Context())
	if err := actor.MatchesGroup(auth.GroupWebsite); err != nil {
		handleAuthError(w, r, err)
		return
	}
	var req struct {
		Name    string `json:"name"`
		OwnerID string `json:"owner"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	o, err := a.orgs.Create(r.Context(), req.Name, req.OwnerID)
	if err != nil {
		handleOrgError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "organization.create", map[string]any{
		"organization_id": o.UniqueID,
		"owner_id":        o.OwnerID,
	})
	w.Header().Set("Location", "/v1/organizations/"+o.UniqueID)
	writeJSON(w, http.StatusCreated, o)
}

func (a *API) getOrganization(w http.ResponseWriter, r *http.Request, id string) {
	actor := auth.ActorFromContext(r.Context())
	if err := actor.MatchesGroup(auth.GroupUser, auth.GroupServer, auth.GroupWebsite); err != nil {
		handleAuthError(w, r, err)
		return
	}
	o, err := a.orgs.Get(r.Context(), id)
	if err != nil {
		handleOrgError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (a *API) updateOrganization(w http.ResponseWriter, r *http.Request, id string) {
	actor := auth.ActorFromContext(r.Context())
	if err := actor.MatchesGroup(auth.GroupWebsite); err != nil {
		handleAuthError(w, r, err)
		return
	}
	var upd org.Update
	if err := decodeJSON(w, r, &upd); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.orgs.ApplyUpdate(r.Context(), id, upd); err != nil {
		handleOrgError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) deleteOrganization(w http.ResponseWriter, r *http.Request, id string) {
	actor := auth.ActorFromContext(r.Context())
	if err := actor.MatchesGroup(auth.GroupWebsite); err != nil {
		handleAuthError(w, r, err)
		return
	}
	if err := a.orgs.Delete(r.Context(), id); err != nil {
		handleOrgError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "organization.delete", map[string]any{
		"organization_id": id,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) addMember(w http.ResponseWriter, r *http.Request, orgID string) {
	actor := auth.ActorFromContext(r.Context())
	if err := actor.MatchesGroup(auth.GroupWebsite); err != nil {
		handleAuthError(w, r, err)
		return
	}
	memberID, ok := decodeIDField(w, r, "member_id")
	if !ok {
		return
	}
	if err := a.orgs.AddMember(r.Context(), orgID, memberID); err != nil {
		handleOrgError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "organization.member.add", map[string]any{
		"organization_id": orgID,
		"member_id":       memberID,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) removeMember(w http.ResponseWriter, r *http.Request, orgID string) {
	memberID, ok := decodeIDField(w, r, "member_id")
	if !ok {
		return
	}
	if err := a.orgs.RemoveMember(r.Context(), orgID, memberID); err != nil {
		handleOrgError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "organization.member.remove", map[string]any{
		"organization_id": orgID,
		"member_id":       memberID,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) addServer(w http.ResponseWriter, r *http.Request, orgID string) {
	actor := auth.ActorFromContext(r.Context())
	if err := actor.MatchesGroup(auth.GroupWebsite); err != nil {
		handleAuthError(w, r, err)
		return
	}
	serverID, ok := decodeIDField(w, r, "server_id")
	if !ok {
		return
	}
	if err := a.orgs.AddServer(r.Context(), orgID, serverID); err != nil {
		handleOrgError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "organization.server.add", map[string]any{
		"organization_id": orgID,
		"server_id":       serverID,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) removeServer(w http.ResponseWriter, r *http.Request, orgID string) {
	serverID, ok := decodeIDField(w, r, "server_id")
	if !ok {
		return
	}
	if err := a.orgs.RemoveServer(r.Context(), orgID, serverID); err != nil {
		handleOrgError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "organization.server.remove", map[string]any{
		"organization_id": orgID,
		"server_id":       serverID,
	})
	w.WriteHeader(http.StatusNoContent)
}

// decodeIDField reads a body of the shape {"<field>": "<id>"} and writes
// the error response itself when the body is unusable.
func decodeIDField(w http.ResponseWriter, r *http.Request, field string) (string, bool) {
	var req map[string]string
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return "", false
	}
	id := req[field]
	if id == "" {
		writeError(w, r, http.StatusBadRequest, field+" is required")
		return "", false
	}
	return id, true
}
