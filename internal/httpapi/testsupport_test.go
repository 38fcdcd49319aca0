package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"warden.org/internal/auth"
	"warden.org/internal/org"
)

type memUserStore struct {
	byID map[string]*auth.User
}

func (m *memUserStore) Insert(_ context.Context, u *auth.User) error {
	cp := *u
	m.byID[u.UniqueID] = &cp
	return nil
}

func (m *memUserStore) FindByID(_ context.Context, id string) (*auth.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUserStore) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	for _, u := range m.byID {
		if u.Authentication.Kind == auth.AuthKindCredentials && u.Authentication.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (m *memUserStore) FindByToken(_ context.Context, token string) (*auth.User, error) {
	for _, u := range m.byID {
		for _, l := range u.Logins {
			if l.Token == token {
				cp := *u
				return &cp, nil
			}
		}
	}
	return nil, auth.ErrNotFound
}

func (m *memUserStore) Exists(_ context.Context, id string) (bool, error) {
	_, ok := m.byID[id]
	return ok, nil
}

func (m *memUserStore) EmailExists(_ context.Context, email string) (bool, error) {
	for _, u := range m.byID {
		if u.Authentication.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *memUserStore) AppendLogin(_ context.Context, userID string, l auth.Login) error {
	u, ok := m.byID[userID]
	if !ok {
		return auth.ErrNotFound
	}
	u.Logins = append(u.Logins, l)
	return nil
}

func (m *memUserStore) UpdateAuthentication(_ context.Context, userID string, a auth.Authentication) error {
	u, ok := m.byID[userID]
	if !ok {
		return auth.ErrNotFound
	}
	u.Authentication = a
	return nil
}

func (m *memUserStore) UpdateUsername(_ context.Context, userID, username string) error {
	u, ok := m.byID[userID]
	if !ok {
		return auth.ErrNotFound
	}
	u.Username = username
	return nil
}

func (m *memUserStore) Delete(_ context.Context, userID string) error {
	delete(m.byID, userID)
	return nil
}

func (m *memUserStore) HasPermission(_ context.Context, userID, permissionID string) (bool, error) {
	u, ok := m.byID[userID]
	if !ok {
		return false, nil
	}
	return u.HoldsPermission(permissionID), nil
}

func (m *memUserStore) GrantPermission(_ context.Context, userID, permissionID string) error {
	u, ok := m.byID[userID]
	if !ok {
		return auth.ErrNotFound
	}
	if !u.HoldsPermission(permissionID) {
		u.Permissions = append(u.Permissions, permissionID)
	}
	return nil
}

func (m *memUserStore) RevokePermission(_ context.Context, userID, permissionID string) error {
	u, ok := m.byID[userID]
	if !ok {
		return auth.ErrNotFound
	}
	out := u.Permissions[:0]
	for _, id := range u.Permissions {
		if id != permissionID {
			out = append(out, id)
		}
	}
	u.Permissions = out
	return nil
}

type memPermStore struct {
	byName map[string]string
	next   int
}

func (m *memPermStore) Ensure(_ context.Context, names []string) error {
	for _, name := range names {
		if _, ok := m.byName[name]; ok {
			continue
		}
		m.next++
		m.byName[name] = fmt.Sprintf("perm-%d", m.next)
	}
	return nil
}

func (m *memPermStore) IDByName(_ context.Context, name string) (string, error) {
	id, ok := m.byName[name]
	if !ok {
		return "", auth.ErrNotFound
	}
	return id, nil
}

func (m *memPermStore) Exists(_ context.Context, id string) (bool, error) {
	for _, v := range m.byName {
		if v == id {
			return true, nil
		}
	}
	return false, nil
}

type memOrgStore struct {
	byID map[string]*org.Organization
}

func (m *memOrgStore) Insert(_ context.Context, o *org.Organization) error {
	cp := *o
	m.byID[o.UniqueID] = &cp
	return nil
}

func (m *memOrgStore) FindByID(_ context.Context, id string) (*org.Organization, error) {
	o, ok := m.byID[id]
	if !ok {
		return nil, org.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *memOrgStore) Update(_ context.Context, id string, upd org.Update) error {
	o, ok := m.byID[id]
	if !ok {
		return org.ErrNotFound
	}
	if upd.Name != nil {
		o.Name = *upd.Name
	}
	if upd.OwnerID != nil {
		o.OwnerID = *upd.OwnerID
	}
	return nil
}

func (m *memOrgStore) Delete(_ context.Context, id string) error {
	delete(m.byID, id)
	return nil
}

func (m *memOrgStore) AddMember(_ context.Context, orgID, memberID string) error {
	m.byID[orgID].MemberIDs = append(m.byID[orgID].MemberIDs, memberID)
	return nil
}

func (m *memOrgStore) RemoveMember(_ context.Context, orgID, memberID string) error {
	o := m.byID[orgID]
	out := o.MemberIDs[:0]
	for _, id := range o.MemberIDs {
		if id != memberID {
			out = append(out, id)
		}
	}
	o.MemberIDs = out
	return nil
}

func (m *memOrgStore) AddServer(_ context.Context, orgID, serverID string) error {
	m.byID[orgID].ServerIDs = append(m.byID[orgID].ServerIDs, serverID)
	return nil
}

func (m *memOrgStore) RemoveServer(_ context.Context, orgID, serverID string) error {
	o := m.byID[orgID]
	out := o.ServerIDs[:0]
	for _, id := range o.ServerIDs {
		if id != serverID {
			out = append(out, id)
		}
	}
	o.ServerIDs = out
	return nil
}

func (m *memOrgStore) HasAccessToServer(_ context.Context, serverID, actorID string) (bool, error) {
	for _, o := range m.byID {
		if o.HasServer(serverID) && o.IsMemberOrOwner(actorID) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memOrgStore) ListForActor(_ context.Context, actorID string) ([]*org.Organization, error) {
	res := []*org.Organization{}
	for _, o := range m.byID {
		if o.IsMemberOrOwner(actorID) {
			cp := *o
			res = append(res, &cp)
		}
	}
	return res, nil
}

type testEnv struct {
	api     *API
	handler http.Handler
	users   *memUserStore
	perms   *memPermStore
	orgs    *memOrgStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	users := &memUserStore{byID: make(map[string]*auth.User)}
	perms := &memPermStore{byName: make(map[string]string)}
	orgs := &memOrgStore{byID: make(map[string]*org.Organization)}

	authSvc := auth.NewService(users, perms)
	if err := authSvc.EnsureCatalogue(context.Background()); err != nil {
		t.Fatalf("ensure catalogue: %v", err)
	}
	orgSvc := org.NewService(orgs, users)

	api := New(authSvc, orgSvc, ReadyProbe{}, Options{Version: "test"})
	return &testEnv{
		api:     api,
		handler: api.Handler(),
		users:   users,
		perms:   perms,
		orgs:    orgs,
	}
}

// seedActor stores a user in the given group with a single login whose
// token is "<id>-token".
func (e *testEnv) seedActor(t *testing.T, id string, group auth.Group) string {
	t.Helper()
	token := id + "-token"
	u := &auth.User{
		UniqueID:    id,
		Group:       group,
		Permissions: []string{},
		Logins: []auth.Login{{
			IP:         "127.0.0.1",
			OccurredAt: time.Now().UTC(),
			Method:     "None",
			Token:      token,
		}},
		Authentication: auth.Authentication{Kind: auth.AuthKindNone},
		CreatedAt:      time.Now().UTC(),
	}
	if err := e.users.Insert(context.Background(), u); err != nil {
		t.Fatalf("seed actor %s: %v", id, err)
	}
	return token
}

func (e *testEnv) grant(t *testing.T, userID, permName string) {
	t.Helper()
	id, err := e.perms.IDByName(context.Background(), permName)
	if err != nil {
		t.Fatalf("permission %s: %v", permName, err)
	}
	if err := e.users.GrantPermission(context.Background(), userID, id); err != nil {
		t.Fatalf("grant %s: %v", permName, err)
	}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.RemoteAddr = "192.0.2.1:4000"
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(userTokenHeader, token)
	}
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
	return body
}
