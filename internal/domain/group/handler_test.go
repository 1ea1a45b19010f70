package group

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/carehome/carehome/internal/access"
	"github.com/carehome/carehome/internal/platform/auth"
)

// accessStore adapts the in-memory repos to the access policy.
type accessStore struct {
	groups      *mockGroupRepo
	memberships *mockMembershipRepo
}

func (s *accessStore) ResolveGroup(_ context.Context, _ access.Kind, id uuid.UUID) (uuid.UUID, error) {
	if _, ok := s.groups.byID[id]; !ok {
		return uuid.Nil, errors.New("no rows")
	}
	return id, nil
}

func (s *accessStore) Role(_ context.Context, userID, groupID uuid.UUID) (string, error) {
	ms, ok := s.memberships.byKey[membershipKey{userID, groupID}]
	if !ok {
		return "", errors.New("no rows")
	}
	return ms.Role, nil
}

func (s *accessStore) AdminID(_ context.Context, groupID uuid.UUID) (uuid.UUID, error) {
	g, ok := s.groups.byID[groupID]
	if !ok {
		return uuid.Nil, errors.New("no rows")
	}
	return g.AdminID, nil
}

func newTestHandler() (*Handler, *Service, *mockGroupRepo, *mockMembershipRepo) {
	groups := newMockGroupRepo()
	memberships := newMockMembershipRepo()
	svc := NewService(groups, memberships, passthroughTx)
	policy := access.NewPolicy(&accessStore{groups: groups, memberships: memberships})
	return NewHandler(svc, policy), svc, groups, memberships
}

func newRequest(method, target string, body string, userID uuid.UUID) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req = req.WithContext(auth.ContextWithUserID(req.Context(), userID))
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHandlerCreate(t *testing.T) {
	h, _, _, memberships := newTestHandler()
	actor := uuid.New()

	c, rec := newRequest(http.MethodPost, "/api/v1/groups",
		`{"name":"Lar São José","password":"segredo123"}`, actor)
	if err := h.Create(c); err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}

	var got Group
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.AdminID != actor {
		t.Fatalf("admin = %s, want %s", got.AdminID, actor)
	}
	if _, err := memberships.Get(context.Background(), actor, got.ID); err != nil {
		t.Fatal("admin membership missing")
	}
}

func TestHandlerJoin_Conflict(t *testing.T) {
	h, svc, groups, _ := newTestHandler()
	ctx := context.Background()
	admin := uuid.New()

	g, _ := svc.Create(ctx, admin, CreateInput{Name: "Lar A", Password: "x"})
	code := groups.byID[g.ID].AccessCode

	c, _ := newRequest(http.MethodPost, "/api/v1/groups/join",
		`{"access_code":"`+code.String()+`"}`, admin)
	err := h.Join(c)
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusConflict {
		t.Fatalf("err = %v, want 409", err)
	}
}

func TestHandlerAccessCode_AdminOnly(t *testing.T) {
	h, svc, groups, _ := newTestHandler()
	ctx := context.Background()
	admin := uuid.New()

	g, _ := svc.Create(ctx, admin, CreateInput{Name: "Lar A", Password: "x"})
	member := uuid.New()
	if _, err := svc.JoinWithCode(ctx, member, groups.byID[g.ID].AccessCode.String()); err != nil {
		t.Fatalf("join: %v", err)
	}

	// Member is denied.
	c, _ := newRequest(http.MethodGet, "/", "", member)
	c.SetParamNames("groupId")
	c.SetParamValues(g.ID.String())
	err := h.AccessCode(c)
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusForbidden {
		t.Fatalf("member: err = %v, want 403", err)
	}

	// Admin gets the code.
	c, rec := newRequest(http.MethodGet, "/", "", admin)
	c.SetParamNames("groupId")
	c.SetParamValues(g.ID.String())
	if err := h.AccessCode(c); err != nil {
		t.Fatalf("admin: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestHandlerGet_NonMemberForbidden(t *testing.T) {
	h, svc, _, _ := newTestHandler()
	ctx := context.Background()

	g, _ := svc.Create(ctx, uuid.New(), CreateInput{Name: "Lar A", Password: "x"})

	c, _ := newRequest(http.MethodGet, "/", "", uuid.New())
	c.SetParamNames("groupId")
	c.SetParamValues(g.ID.String())
	err := h.Get(c)
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusForbidden {
		t.Fatalf("err = %v, want 403", err)
	}
}
