package access

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

type entityKey struct {
	kind Kind
	id   uuid.UUID
}

type mockStore struct {
	groups map[entityKey]uuid.UUID
	roles  map[[2]uuid.UUID]string // [user, group] -> role
	admins map[uuid.UUID]uuid.UUID
	fail   bool
}

func (m *mockStore) ResolveGroup(_ context.Context, kind Kind, id uuid.UUID) (uuid.UUID, error) {
	if m.fail {
		return uuid.Nil, errors.New("store down")
	}
	g, ok := m.groups[entityKey{kind, id}]
	if !ok {
		return uuid.Nil, errors.New("no rows")
	}
	return g, nil
}

func (m *mockStore) Role(_ context.Context, userID, groupID uuid.UUID) (string, error) {
	if m.fail {
		return "", errors.New("store down")
	}
	role, ok := m.roles[[2]uuid.UUID{userID, groupID}]
	if !ok {
		return "", errors.New("no rows")
	}
	return role, nil
}

func (m *mockStore) AdminID(_ context.Context, groupID uuid.UUID) (uuid.UUID, error) {
	if m.fail {
		return uuid.Nil, errors.New("store down")
	}
	admin, ok := m.admins[groupID]
	if !ok {
		return uuid.Nil, errors.New("no rows")
	}
	return admin, nil
}

func TestIsMember(t *testing.T) {
	user, outsider, groupID := uuid.New(), uuid.New(), uuid.New()
	store := &mockStore{
		roles: map[[2]uuid.UUID]string{{user, groupID}: "MEMBER"},
	}
	p := NewPolicy(store)
	ctx := context.Background()

	if !p.IsMember(ctx, user, groupID) {
		t.Fatal("member not recognized")
	}
	if p.IsMember(ctx, outsider, groupID) {
		t.Fatal("outsider recognized as member")
	}
	if p.IsMember(ctx, uuid.Nil, groupID) {
		t.Fatal("nil user recognized as member")
	}
}

func TestIsMember_StoreFailureDenies(t *testing.T) {
	user, groupID := uuid.New(), uuid.New()
	store := &mockStore{
		roles: map[[2]uuid.UUID]string{{user, groupID}: "MEMBER"},
		fail:  true,
	}
	p := NewPolicy(store)

	if p.IsMember(context.Background(), user, groupID) {
		t.Fatal("lookup failure must deny, not allow")
	}
}

func TestIsAdmin(t *testing.T) {
	admin, member, groupID := uuid.New(), uuid.New(), uuid.New()
	store := &mockStore{
		admins: map[uuid.UUID]uuid.UUID{groupID: admin},
		roles: map[[2]uuid.UUID]string{
			{admin, groupID}:  "ADMIN",
			{member, groupID}: "MEMBER",
		},
	}
	p := NewPolicy(store)
	ctx := context.Background()

	if !p.IsAdmin(ctx, admin, groupID) {
		t.Fatal("admin not recognized")
	}
	if p.IsAdmin(ctx, member, groupID) {
		t.Fatal("plain member recognized as admin")
	}
}

func TestResolveGroup_UnresolvableDenied(t *testing.T) {
	p := NewPolicy(&mockStore{})

	_, err := p.ResolveGroup(context.Background(), KindResident, uuid.New())
	if !errors.Is(err, ErrUnresolvable) {
		t.Fatalf("err = %v, want ErrUnresolvable", err)
	}
	_, err = p.ResolveGroup(context.Background(), KindResident, uuid.Nil)
	if !errors.Is(err, ErrUnresolvable) {
		t.Fatalf("nil id: err = %v, want ErrUnresolvable", err)
	}
}

func TestCanAccess_WalksEntityToGroup(t *testing.T) {
	user, groupID := uuid.New(), uuid.New()
	logID := uuid.New()
	store := &mockStore{
		groups: map[entityKey]uuid.UUID{{KindAdministrationLog, logID}: groupID},
		roles:  map[[2]uuid.UUID]string{{user, groupID}: "MEMBER"},
	}
	p := NewPolicy(store)
	ctx := context.Background()

	if err := p.CanAccess(ctx, user, KindAdministrationLog, logID); err != nil {
		t.Fatalf("member denied: %v", err)
	}
	if err := p.CanAccess(ctx, uuid.New(), KindAdministrationLog, logID); !errors.Is(err, ErrDenied) {
		t.Fatalf("outsider: err = %v, want ErrDenied", err)
	}
	if err := p.CanAccess(ctx, user, KindResident, uuid.New()); !errors.Is(err, ErrDenied) {
		t.Fatalf("unresolvable entity: err = %v, want ErrDenied", err)
	}
}
