// Package access centralizes multi-tenant authorization: one resolver that
// maps any entity to its owning group, and two predicates (member, admin)
// evaluated against that group. Anything that cannot be resolved is denied.
package access

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Kind identifies the entity variant being resolved.
type Kind int

const (
	KindGroup Kind = iota
	KindResident
	KindMedication
	KindPrescription
	KindAdministrationLog
)

var (
	// ErrDenied is returned when the caller has no access to the target group.
	ErrDenied = errors.New("access denied")
	// ErrUnresolvable is returned when no owning group exists for an entity.
	ErrUnresolvable = errors.New("owning group not resolvable")
)

// Store is the read model the policy evaluates against.
type Store interface {
	// ResolveGroup walks the entity graph (log -> prescription -> resident ->
	// group, etc.) and returns the owning group id.
	ResolveGroup(ctx context.Context, kind Kind, id uuid.UUID) (uuid.UUID, error)
	// Role returns the user's role in the group ("ADMIN"/"MEMBER"), or an
	// error when no membership exists.
	Role(ctx context.Context, userID, groupID uuid.UUID) (string, error)
	// AdminID returns the admin of the group.
	AdminID(ctx context.Context, groupID uuid.UUID) (uuid.UUID, error)
}

type Policy struct {
	store Store
}

func NewPolicy(store Store) *Policy {
	return &Policy{store: store}
}

// IsMember reports whether the user has any membership in the group. Lookup
// failures count as "not a member".
func (p *Policy) IsMember(ctx context.Context, userID, groupID uuid.UUID) bool {
	if userID == uuid.Nil || groupID == uuid.Nil {
		return false
	}
	_, err := p.store.Role(ctx, userID, groupID)
	return err == nil
}

// IsAdmin reports whether the user is the group's admin. Lookup failures
// count as "not admin".
func (p *Policy) IsAdmin(ctx context.Context, userID, groupID uuid.UUID) bool {
	if userID == uuid.Nil || groupID == uuid.Nil {
		return false
	}
	adminID, err := p.store.AdminID(ctx, groupID)
	if err != nil {
		return false
	}
	return adminID == userID
}

// ResolveGroup returns the owning group of an entity. Entities without a
// resolvable group yield ErrUnresolvable; callers must treat that as a denial,
// never as permission.
func (p *Policy) ResolveGroup(ctx context.Context, kind Kind, id uuid.UUID) (uuid.UUID, error) {
	if id == uuid.Nil {
		return uuid.Nil, ErrUnresolvable
	}
	groupID, err := p.store.ResolveGroup(ctx, kind, id)
	if err != nil || groupID == uuid.Nil {
		return uuid.Nil, ErrUnresolvable
	}
	return groupID, nil
}

// CanAccess checks that the entity resolves to a group the user belongs to.
func (p *Policy) CanAccess(ctx context.Context, userID uuid.UUID, kind Kind, id uuid.UUID) error {
	groupID, err := p.ResolveGroup(ctx, kind, id)
	if err != nil {
		return ErrDenied
	}
	if !p.IsMember(ctx, userID, groupID) {
		return ErrDenied
	}
	return nil
}
