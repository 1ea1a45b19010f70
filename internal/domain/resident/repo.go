package resident

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists residents and their family contacts.
type Repository interface {
	Create(ctx context.Context, r *Resident) error
	GetByID(ctx context.Context, groupID, id uuid.UUID) (*Resident, error)
	ListByGroup(ctx context.Context, groupID uuid.UUID, limit, offset int) ([]*Resident, int, error)
	Update(ctx context.Context, r *Resident) error
	Delete(ctx context.Context, groupID, id uuid.UUID) error

	AddContact(ctx context.Context, c *Contact) error
	ListContacts(ctx context.Context, residentID uuid.UUID) ([]*Contact, error)
	RemoveContact(ctx context.Context, residentID, contactID uuid.UUID) error
}

// AssignmentRepository persists the caregiver assignment set of a resident.
type AssignmentRepository interface {
	Assign(ctx context.Context, residentID, userID uuid.UUID) error
	Unassign(ctx context.Context, residentID, userID uuid.UUID) error
	ListCaregivers(ctx context.Context, residentID uuid.UUID) ([]*Caregiver, error)
	// ListCaregiverIDs returns just the user ids, for notification fanout.
	ListCaregiverIDs(ctx context.Context, residentID uuid.UUID) ([]uuid.UUID, error)
	IsAssigned(ctx context.Context, residentID, userID uuid.UUID) (bool, error)
}
