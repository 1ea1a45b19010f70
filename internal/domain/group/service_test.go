package group

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

func uniqueErr() error {
	return &pgconn.PgError{Code: "23505"}
}

type mockGroupRepo struct {
	byID   map[uuid.UUID]*Group
	byCode map[uuid.UUID]uuid.UUID // access code -> group id
	names  map[string]bool
}

func newMockGroupRepo() *mockGroupRepo {
	return &mockGroupRepo{
		byID:   make(map[uuid.UUID]*Group),
		byCode: make(map[uuid.UUID]uuid.UUID),
		names:  make(map[string]bool),
	}
}

func (m *mockGroupRepo) Create(_ context.Context, g *Group) error {
	if m.names[g.Name] {
		return uniqueErr()
	}
	g.ID = uuid.New()
	if g.AccessCode == uuid.Nil {
		g.AccessCode = uuid.New()
	}
	g.CreatedAt = time.Now()
	cp := *g
	m.byID[g.ID] = &cp
	m.byCode[g.AccessCode] = g.ID
	m.names[g.Name] = true
	return nil
}

func (m *mockGroupRepo) GetByID(_ context.Context, id uuid.UUID) (*Group, error) {
	g, ok := m.byID[id]
	if !ok {
		return nil, errors.New("no rows")
	}
	return g, nil
}

func (m *mockGroupRepo) GetByAccessCode(_ context.Context, code uuid.UUID) (*Group, error) {
	id, ok := m.byCode[code]
	if !ok {
		return nil, errors.New("no rows")
	}
	return m.byID[id], nil
}

func (m *mockGroupRepo) Update(_ context.Context, g *Group) error {
	cp := *g
	m.byID[g.ID] = &cp
	return nil
}

func (m *mockGroupRepo) UpdateAccessCode(_ context.Context, id, code uuid.UUID) error {
	g, ok := m.byID[id]
	if !ok {
		return errors.New("no rows")
	}
	delete(m.byCode, g.AccessCode)
	g.AccessCode = code
	m.byCode[code] = id
	return nil
}

func (m *mockGroupRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.byID, id)
	return nil
}

func (m *mockGroupRepo) ListByUser(_ context.Context, _ uuid.UUID) ([]*Group, error) {
	return nil, nil
}

type membershipKey struct{ user, group uuid.UUID }

type mockMembershipRepo struct {
	byKey map[membershipKey]*Membership
}

func newMockMembershipRepo() *mockMembershipRepo {
	return &mockMembershipRepo{byKey: make(map[membershipKey]*Membership)}
}

func (m *mockMembershipRepo) Add(_ context.Context, ms *Membership) error {
	key := membershipKey{ms.UserID, ms.GroupID}
	if _, ok := m.byKey[key]; ok {
		return uniqueErr()
	}
	ms.ID = uuid.New()
	cp := *ms
	m.byKey[key] = &cp
	return nil
}

func (m *mockMembershipRepo) Get(_ context.Context, userID, groupID uuid.UUID) (*Membership, error) {
	ms, ok := m.byKey[membershipKey{userID, groupID}]
	if !ok {
		return nil, errors.New("no rows")
	}
	return ms, nil
}

func (m *mockMembershipRepo) ListByGroup(_ context.Context, _ uuid.UUID) ([]*Member, error) {
	return nil, nil
}

func (m *mockMembershipRepo) Remove(_ context.Context, userID, groupID uuid.UUID) error {
	delete(m.byKey, membershipKey{userID, groupID})
	return nil
}

func passthroughTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newTestService() (*Service, *mockGroupRepo, *mockMembershipRepo) {
	groups := newMockGroupRepo()
	memberships := newMockMembershipRepo()
	return NewService(groups, memberships, passthroughTx), groups, memberships
}

func TestCreate_MakesActorAdminMember(t *testing.T) {
	svc, _, memberships := newTestService()
	actor := uuid.New()

	g, err := svc.Create(context.Background(), actor, CreateInput{Name: "Lar São José", Password: "segredo123"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if g.AdminID != actor {
		t.Fatalf("admin = %s, want %s", g.AdminID, actor)
	}
	if g.AccessCode == uuid.Nil {
		t.Fatal("access code not generated")
	}

	ms, err := memberships.Get(context.Background(), actor, g.ID)
	if err != nil {
		t.Fatalf("membership missing: %v", err)
	}
	if ms.Role != RoleAdmin {
		t.Fatalf("role = %s, want %s", ms.Role, RoleAdmin)
	}
}

func TestCreate_DuplicateName(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, uuid.New(), CreateInput{Name: "Lar São José", Password: "x"}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := svc.Create(ctx, uuid.New(), CreateInput{Name: "Lar São José", Password: "y"})
	if !errors.Is(err, ErrNameTaken) {
		t.Fatalf("err = %v, want ErrNameTaken", err)
	}
}

func TestJoinWithCode_AddsMemberRole(t *testing.T) {
	svc, groups, memberships := newTestService()
	ctx := context.Background()
	admin := uuid.New()

	g, err := svc.Create(ctx, admin, CreateInput{Name: "Lar A", Password: "x"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	code := groups.byID[g.ID].AccessCode

	joiner := uuid.New()
	joined, err := svc.JoinWithCode(ctx, joiner, code.String())
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if joined.ID != g.ID {
		t.Fatalf("joined group = %s, want %s", joined.ID, g.ID)
	}

	ms, err := memberships.Get(ctx, joiner, g.ID)
	if err != nil {
		t.Fatalf("membership missing: %v", err)
	}
	if ms.Role != RoleMember {
		t.Fatalf("role = %s, want %s", ms.Role, RoleMember)
	}
}

func TestJoinWithCode_UnknownCode(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.JoinWithCode(context.Background(), uuid.New(), uuid.New().String())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestJoinWithCode_MalformedCode(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.JoinWithCode(context.Background(), uuid.New(), "not-a-code")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestJoinWithCode_AlreadyMember(t *testing.T) {
	svc, groups, _ := newTestService()
	ctx := context.Background()
	admin := uuid.New()

	g, _ := svc.Create(ctx, admin, CreateInput{Name: "Lar A", Password: "x"})
	code := groups.byID[g.ID].AccessCode

	_, err := svc.JoinWithCode(ctx, admin, code.String())
	if !errors.Is(err, ErrAlreadyMember) {
		t.Fatalf("err = %v, want ErrAlreadyMember", err)
	}
}

func TestRotateAccessCode_InvalidatesOldCode(t *testing.T) {
	svc, groups, _ := newTestService()
	ctx := context.Background()

	g, _ := svc.Create(ctx, uuid.New(), CreateInput{Name: "Lar A", Password: "x"})
	oldCode := groups.byID[g.ID].AccessCode

	newCode, err := svc.RotateAccessCode(ctx, g.ID)
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if newCode == oldCode {
		t.Fatal("access code unchanged after rotate")
	}

	if _, err := svc.JoinWithCode(ctx, uuid.New(), oldCode.String()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("old code still valid: err = %v", err)
	}
	if _, err := svc.JoinWithCode(ctx, uuid.New(), newCode.String()); err != nil {
		t.Fatalf("new code rejected: %v", err)
	}
}

func TestRemoveMember_AdminProtected(t *testing.T) {
	svc, groups, _ := newTestService()
	ctx := context.Background()
	admin := uuid.New()

	g, _ := svc.Create(ctx, admin, CreateInput{Name: "Lar A", Password: "x"})

	err := svc.RemoveMember(ctx, g.ID, admin)
	if !errors.Is(err, ErrCannotRemoveAdmin) {
		t.Fatalf("err = %v, want ErrCannotRemoveAdmin", err)
	}

	member := uuid.New()
	code := groups.byID[g.ID].AccessCode
	if _, err := svc.JoinWithCode(ctx, member, code.String()); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := svc.RemoveMember(ctx, g.ID, member); err != nil {
		t.Fatalf("remove member: %v", err)
	}
}
