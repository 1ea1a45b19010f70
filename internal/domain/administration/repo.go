package administration

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository persists administration logs.
type Repository interface {
	Create(ctx context.Context, l *Log) error
	GetByID(ctx context.Context, groupID, id uuid.UUID) (*Log, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// ExistsOnDay reports whether the prescription already has a log whose
	// administered_at falls on the given calendar day.
	ExistsOnDay(ctx context.Context, prescriptionID uuid.UUID, day time.Time) (bool, error)

	ListByPrescription(ctx context.Context, groupID, prescriptionID uuid.UUID, limit, offset int) ([]*Entry, int, error)
	ListByResident(ctx context.Context, groupID, residentID uuid.UUID, limit, offset int) ([]*Entry, int, error)
	// ListByGroup lists the group's logs, optionally restricted to one day.
	ListByGroup(ctx context.Context, groupID uuid.UUID, day *time.Time, limit, offset int) ([]*Entry, int, error)
}
