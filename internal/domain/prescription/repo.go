package prescription

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository persists prescriptions. Reads are scoped by the owning group so
// cross-tenant ids behave like missing rows.
type Repository interface {
	Create(ctx context.Context, p *Prescription) error
	GetByID(ctx context.Context, groupID, id uuid.UUID) (*Prescription, error)
	ListByResident(ctx context.Context, groupID, residentID uuid.UUID) ([]*Prescription, error)
	ListByGroup(ctx context.Context, groupID uuid.UUID, limit, offset int) ([]*Prescription, int, error)
	Update(ctx context.Context, p *Prescription) error
	Delete(ctx context.Context, groupID, id uuid.UUID) error

	// DueBetween returns active scheduled prescriptions whose time of day
	// falls in [from, to) on the given date, across all groups.
	DueBetween(ctx context.Context, date time.Time, from, to string) ([]*Due, error)
}
