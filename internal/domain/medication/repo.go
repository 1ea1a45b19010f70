package medication

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists the medication inventory.
type Repository interface {
	Create(ctx context.Context, m *Medication) error
	GetByID(ctx context.Context, groupID, id uuid.UUID) (*Medication, error)
	ListByGroup(ctx context.Context, groupID uuid.UUID, limit, offset int) ([]*Medication, int, error)
	Update(ctx context.Context, m *Medication) error
	Delete(ctx context.Context, groupID, id uuid.UUID) error

	// AddStock increments stock by delta (restock) and returns the new level.
	AddStock(ctx context.Context, id uuid.UUID, delta int) (int, error)
	// ConsumeOne decrements stock by one only when at least one package
	// remains. It reports whether a package was consumed.
	ConsumeOne(ctx context.Context, id uuid.UUID) (bool, error)
	// ReturnOne puts one package back, undoing a consumption.
	ReturnOne(ctx context.Context, id uuid.UUID) error
}
