package group

import (
	"context"

	"github.com/google/uuid"
)

type GroupRepository interface {
	Create(ctx context.Context, g *Group) error
	GetByID(ctx context.Context, id uuid.UUID) (*Group, error)
	GetByAccessCode(ctx context.Context, code uuid.UUID) (*Group, error)
	Update(ctx context.Context, g *Group) error
	UpdateAccessCode(ctx context.Context, id, code uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Group, error)
}

type MembershipRepository interface {
	Add(ctx context.Context, m *Membership) error
	Get(ctx context.Context, userID, groupID uuid.UUID) (*Membership, error)
	ListByGroup(ctx context.Context, groupID uuid.UUID) ([]*Member, error)
	Remove(ctx context.Context, userID, groupID uuid.UUID) error
}
