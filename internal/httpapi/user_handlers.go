package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"warden.org/internal/audit"
	"warden.org/internal/auth"
)

type credentialsPayload struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
	Password string `json:"password"`
}

// methodPayload is the wire shape of an authentication method: exactly
// one of the fields is expected to be set; neither means anonymous.
type methodPayload struct {
	Credentials *credentialsPayload `json:"credentials"`
	UserID      string              `json:"user_id"`
}

func (p methodPayload) method() (auth.Method, error) {
	switch {
	case p.Credentials != nil && p.UserID != "":
		return nil, errors.New("credentials and user_id are mutually exclusive")
	case p.Credentials != nil:
		if p.Credentials.Email == "" || p.Credentials.Password == "" {
			return nil, errors.New("email and password are required")
		}
		return auth.Credentials{
			Email:    p.Credentials.Email,
			Username: p.Credentials.Username,
			Avatar:   p.Credentials.Avatar,
			Password: p.Credentials.Password,
		}, nil
	case p.UserID != "":
		return auth.ByID{UserID: p.UserID}, nil
	default:
		return auth.Anonymous{}, nil
	}
}

func (a *API) handleUsersCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.register(w, r)
	default:
		methodNotAllowed(w, r, http.MethodPost)
	}
}

func (a *API) handleUserResource(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(strings.TrimPrefix(r.URL.Path, "/v1/users/"))
	if len(parts) == 0 {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	switch {
	case len(parts) == 1 && parts[0] == "renew":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r, http.MethodPost)
			return
		}
		a.renew(w, r)
	case len(parts) == 1 && parts[0] == "has-access":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r, http.MethodPost)
			return
		}
		a.hasAccess(w, r)
	case len(parts) == 1 && parts[0] == "auth":
		if r.Method != http.MethodPatch {
			methodNotAllowed(w, r, http.MethodPatch)
			return
		}
		a.updateAuthentication(w, r)
	case len(parts) == 2 && parts[0] == "email-exists":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		a.emailExists(w, r, parts[1])
	case len(parts) == 2 && parts[0] == "token":
		switch r.Method {
		case http.MethodGet:
			a.userByToken(w, r, parts[1])
		case http.MethodDelete:
			a.deleteByToken(w, r, parts[1])
		default:
			methodNotAllowed(w, r, http.MethodGet, http.MethodDelete)
		}
	case len(parts) == 2 && parts[0] == "email":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		a.userByEmail(w, r, parts[1])
	case len(parts) == 4 && parts[0] == "check-permission" && parts[2] == "permissions":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		a.checkPermission(w, r, parts[1], parts[3])
	case len(parts) == 1:
		switch r.Method {
		case http.MethodGet:
			a.userByID(w, r, parts[0])
		case http.MethodPatch:
			a.updateUsername(w, r, parts[0])
		case http.MethodDelete:
			a.deleteByID(w, r, parts[0])
		default:
			methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete)
		}
	case len(parts) == 2 && parts[1] == "organizations":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		a.userOrganizations(w, r, parts[0])
	case len(parts) == 3 && parts[1] == "permissions":
		switch r.Method {
		case http.MethodPost:
			a.grantPermission(w, r, parts[0], parts[2])
		case http.MethodDelete:
			a.revokePermission(w, r, parts[0], parts[2])
		default:
			methodNotAllowed(w, r, http.MethodPost, http.MethodDelete)
		}
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) register(w http.ResponseWriter, r *http.Request) {
	actor := auth.ActorFromContext(r.Context())
	if err := actor.MatchesGroup(auth.GroupWebsite); err != nil {
		handleAuthError(w, r, err)
		return
	}

	var payload methodPayload
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &payload); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
	}
	method, err := payload.method()
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if _, ok := method.(auth.ByID); ok {
		writeError(w, r, http.StatusBadRequest, "Credentials are required.")
		return
	}

	user, login, err := a.auth.Register(r.Context(), method, clientIP(r))
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "user.register", map[string]any{
		"user_id": user.UniqueID,
		"method":  login.Method,
	})
	writeJSON(w, http.StatusCreated, map[string]any{
		"unique_id": user.UniqueID,
		"token":     login.Token,
	})
}

func (a *API) renew(w http.ResponseWriter, r *http.Request) {
	var payload methodPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	method, err := payload.method()
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	// Renewal by credentials is public; designating an actor by id is
	// reserved for the website.
	if _, ok := method.(auth.ByID); ok {
		actor := auth.ActorFromContext(r.Context())
		if err := actor.MatchesGroup(auth.GroupWebsite); err != nil {
			handleAuthError(w, r, err)
			return
		}
	}

	login, err := a.auth.Renew(r.Context(), method, clientIP(r))
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "user.renew", map[string]any{
		"method": login.Method,
	})
	writeJSON(w, http.StatusOK, map[string]any{"token": login.Token})
}

func (a *API) emailExists(w http.ResponseWriter, r *http.Request, email string) {
	exists, err := a.auth.EmailExists(r.Context(), email)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"exists": exists})
}

func (a *API) userByToken(w http.ResponseWriter, r *http.Request, token string) {
	user, err := a.auth.UserByToken(r.Context(), token)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (a *API) userByEmail(w http.ResponseWriter, r *http.Request, email string) {
	actor := auth.ActorFromContext(r.Context())
	if err := actor.MatchesGroup(auth.GroupWebsite, auth.GroupServer); err != nil {
		handleAuthError(w, r, err)
		return
	}
	user, err := a.auth.UserByEmail(r.Context(), email)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (a *API) userByID(w http.ResponseWriter, r *http.Request, id string) {
	actor := auth.ActorFromContext(r.Context())
	if err := actor.MatchesGroup(auth.GroupWebsite, auth.GroupServer); err != nil {
		handleAuthError(w, r, err)
		return
	}
	user, err := a.auth.UserByID(r.Context(), id)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (a *API) updateUsername(w http.ResponseWriter, r *http.Request, id string) {
	actor := auth.ActorFromContext(r.Context())
	if err := actor.MatchesGroup(auth.GroupWebsite, auth.GroupServer); err != nil {
		handleAuthError(w, r, err)
		return
	}
	var req struct {
		Username string `json:"username"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.auth.UpdateUsername(r.Context(), id, req.Username); err != nil {
		handleAuthError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) updateAuthentication(w http.ResponseWriter, r *http.Request) {
	actor := auth.ActorFromContext(r.Context())
	if err := actor.MatchesGroup(auth.GroupUser); err != nil {
		handleAuthError(w, r, err)
		return
	}
	var payload methodPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	method, err := payload.method()
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.auth.UpdateAuthentication(r.Context(), actor.ID, method); err != nil {
		handleAuthError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) deleteByID(w http.ResponseWriter, r *http.Request, id string) {
	actor := auth.ActorFromContext(r.Context())
	if err := actor.MatchesGroup(auth.GroupWebsite); err != nil {
		handleAuthError(w, r, err)
		return
	}
	if err := a.auth.DeleteByID(r.Context(), id); err != nil {
		handleAuthError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "user.delete", map[string]any{"target_id": id})
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) deleteByToken(w http.ResponseWriter, r *http.Request, token string) {
	actor := auth.ActorFromContext(r.Context())
	if err := actor.MatchesGroup(auth.GroupWebsite); err != nil {
		handleAuthError(w, r, err)
		return
	}
	if err := a.auth.DeleteByToken(r.Context(), token); err != nil {
		handleAuthError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "user.delete", map[string]any{"by": "token"})
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) userOrganizations(w http.ResponseWriter, r *http.Request, id string) {
	actor := auth.ActorFromContext(r.Context())
	if err := actor.MatchesGroup(auth.GroupUser, auth.GroupWebsite); err != nil {
		handleAuthError(w, r, err)
		return
	}
	list, err := a.orgs.ListForActor(r.Context(), id)
	if err != nil {
		handleOrgError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": list})
}

func (a *API) grantPermission(w http.ResponseWriter, r *http.Request, targetID, permissionID string) {
	actor := auth.ActorFromContext(r.Context())
	if actor.Anonymous() {
		writeError(w, r, http.StatusUnauthorized, "Token is invalid")
		return
	}
	if err := a.auth.Grant(r.Context(), actor.ID, targetID, permissionID); err != nil {
		handleAuthError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "permission.grant", map[string]any{
		"target_id":     targetID,
		"permission_id": permissionID,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) revokePermission(w http.ResponseWriter, r *http.Request, targetID, permissionID string) {
	actor := auth.ActorFromContext(r.Context())
	if actor.Anonymous() {
		writeError(w, r, http.StatusUnauthorized, "Token is invalid")
		return
	}
	if err := a.auth.Revoke(r.Context(), actor.ID, targetID, permissionID); err != nil {
		handleAuthError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "permission.revoke", map[string]any{
		"target_id":     targetID,
		"permission_id": permissionID,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) checkPermission(w http.ResponseWriter, r *http.Request, targetID, permissionName string) {
	actor := auth.ActorFromContext(r.Context())
	if actor.Anonymous() {
		writeError(w, r, http.StatusUnauthorized, "Token is invalid")
		return
	}
	held, err := a.auth.Check(r.Context(), actor.ID, targetID, permissionName)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"has_permission": held})
}

func (a *API) hasAccess(w http.ResponseWriter, r *http.Request) {
	actor := auth.ActorFromContext(r.Context())
	if err := actor.MatchesGroup(auth.GroupUser); err != nil {
		handleAuthError(w, r, err)
		return
	}
	var req struct {
		ServerID string `json:"server_id"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.ServerID == "" {
		writeError(w, r, http.StatusBadRequest, "server_id is required")
		return
	}
	ok, err := a.orgs.HasAccessToServer(r.Context(), req.ServerID, actor.ID)
	if err != nil {
		handleOrgError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"access": ok})
}

func splitPath(p string) []string {
	var parts []string
	for _, seg := range strings.Split(p, "/") {
		if seg != "" {
			parts = append(parts, seg)
		}
	}
	return parts
}
