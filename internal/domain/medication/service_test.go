package medication

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type nameKey struct {
	group uuid.UUID
	name  string
}

type mockRepo struct {
	byID  map[uuid.UUID]*Medication
	names map[nameKey]bool
	inUse map[uuid.UUID]bool
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		byID:  make(map[uuid.UUID]*Medication),
		names: make(map[nameKey]bool),
		inUse: make(map[uuid.UUID]bool),
	}
}

func (m *mockRepo) Create(_ context.Context, med *Medication) error {
	key := nameKey{med.GroupID, med.Name}
	if m.names[key] {
		return &pgconn.PgError{Code: "23505"}
	}
	med.ID = uuid.New()
	cp := *med
	m.byID[med.ID] = &cp
	m.names[key] = true
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, groupID, id uuid.UUID) (*Medication, error) {
	med, ok := m.byID[id]
	if !ok || med.GroupID != groupID {
		return nil, pgx.ErrNoRows
	}
	return med, nil
}

func (m *mockRepo) ListByGroup(_ context.Context, groupID uuid.UUID, _, _ int) ([]*Medication, int, error) {
	var out []*Medication
	for _, med := range m.byID {
		if med.GroupID == groupID {
			out = append(out, med)
		}
	}
	return out, len(out), nil
}

func (m *mockRepo) Update(_ context.Context, med *Medication) error {
	cp := *med
	m.byID[med.ID] = &cp
	return nil
}

func (m *mockRepo) Delete(_ context.Context, groupID, id uuid.UUID) error {
	med, ok := m.byID[id]
	if !ok || med.GroupID != groupID {
		return pgx.ErrNoRows
	}
	if m.inUse[id] {
		return &pgconn.PgError{Code: "23503"}
	}
	delete(m.byID, id)
	delete(m.names, nameKey{groupID, med.Name})
	return nil
}

func (m *mockRepo) AddStock(_ context.Context, id uuid.UUID, delta int) (int, error) {
	med, ok := m.byID[id]
	if !ok {
		return 0, pgx.ErrNoRows
	}
	med.Stock += delta
	return med.Stock, nil
}

func (m *mockRepo) ConsumeOne(_ context.Context, id uuid.UUID) (bool, error) {
	med, ok := m.byID[id]
	if !ok || med.Stock < 1 {
		return false, nil
	}
	med.Stock--
	return true, nil
}

func (m *mockRepo) ReturnOne(_ context.Context, id uuid.UUID) error {
	med, ok := m.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	med.Stock++
	return nil
}

func TestCreate_DuplicateNameWithinGroup(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()
	groupID := uuid.New()

	if _, err := svc.Create(ctx, groupID, Input{Name: "Losartana", Stock: 2}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, groupID, Input{Name: "Losartana", Stock: 1}); !errors.Is(err, ErrNameTaken) {
		t.Fatalf("err = %v, want ErrNameTaken", err)
	}
	// Same name in another group is fine.
	if _, err := svc.Create(ctx, uuid.New(), Input{Name: "Losartana"}); err != nil {
		t.Fatalf("other group: %v", err)
	}
}

func TestCreate_RejectsNegativeStock(t *testing.T) {
	svc := NewService(newMockRepo())

	_, err := svc.Create(context.Background(), uuid.New(), Input{Name: "Losartana", Stock: -1})
	if !errors.Is(err, ErrInvalidStock) {
		t.Fatalf("err = %v, want ErrInvalidStock", err)
	}
}

func TestRestock(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()
	groupID := uuid.New()

	m, _ := svc.Create(ctx, groupID, Input{Name: "Losartana", Stock: 2})

	got, err := svc.Restock(ctx, groupID, m.ID, 3)
	if err != nil {
		t.Fatalf("restock: %v", err)
	}
	if got.Stock != 5 {
		t.Fatalf("stock = %d, want 5", got.Stock)
	}

	if _, err := svc.Restock(ctx, groupID, m.ID, 0); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("zero amount: err = %v, want ErrInvalidAmount", err)
	}
	if _, err := svc.Restock(ctx, groupID, m.ID, -2); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("negative amount: err = %v, want ErrInvalidAmount", err)
	}
}

func TestDelete_BlockedWhileReferenced(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()
	groupID := uuid.New()

	m, _ := svc.Create(ctx, groupID, Input{Name: "Losartana"})
	repo.inUse[m.ID] = true

	if err := svc.Delete(ctx, groupID, m.ID); !errors.Is(err, ErrInUse) {
		t.Fatalf("err = %v, want ErrInUse", err)
	}

	repo.inUse[m.ID] = false
	if err := svc.Delete(ctx, groupID, m.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.Delete(ctx, groupID, m.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("double delete: err = %v, want ErrNotFound", err)
	}
}

func TestConsumeAndReturn(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()
	groupID := uuid.New()

	m, _ := svc.Create(ctx, groupID, Input{Name: "Losartana", Stock: 1})

	ok, err := repo.ConsumeOne(ctx, m.ID)
	if err != nil || !ok {
		t.Fatalf("consume = %v, %v", ok, err)
	}
	ok, err = repo.ConsumeOne(ctx, m.ID)
	if err != nil {
		t.Fatalf("consume on empty: %v", err)
	}
	if ok {
		t.Fatal("consumed below zero")
	}

	if err := repo.ReturnOne(ctx, m.ID); err != nil {
		t.Fatalf("return: %v", err)
	}
	got, _ := svc.Get(ctx, groupID, m.ID)
	if got.Stock != 1 {
		t.Fatalf("stock = %d, want 1", got.Stock)
	}
}
