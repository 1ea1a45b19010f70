package group

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/carehome/carehome/internal/platform/auth"
	"github.com/carehome/carehome/internal/platform/db"
)

var (
	ErrNotFound          = errors.New("group not found")
	ErrNameTaken         = errors.New("a group with this name already exists")
	ErrAlreadyMember     = errors.New("user is already a member of this group")
	ErrCannotRemoveAdmin = errors.New("the group admin cannot be removed")
)

// TxRunner runs fn as one atomic unit. Production wiring passes db.RunInTx
// bound to the pool; tests pass a passthrough.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

type Service struct {
	groups      GroupRepository
	memberships MembershipRepository
	tx          TxRunner
}

func NewService(groups GroupRepository, memberships MembershipRepository, tx TxRunner) *Service {
	return &Service{groups: groups, memberships: memberships, tx: tx}
}

// CreateInput carries the fields accepted when registering a care home.
type CreateInput struct {
	Name       string  `json:"name"`
	Password   string  `json:"password"`
	Street     *string `json:"street,omitempty"`
	City       *string `json:"city,omitempty"`
	State      *string `json:"state,omitempty"`
	PostalCode *string `json:"postal_code,omitempty"`
}

// Create registers a group with the acting user as admin. The group row and
// the admin's membership are written in one transaction.
func (s *Service) Create(ctx context.Context, actor uuid.UUID, in CreateInput) (*Group, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("name is required")
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	g := &Group{
		Name:         strings.TrimSpace(in.Name),
		PasswordHash: hash,
		AdminID:      actor,
		Street:       in.Street,
		City:         in.City,
		State:        in.State,
		PostalCode:   in.PostalCode,
	}

	err = s.tx(ctx, func(ctx context.Context) error {
		if err := s.groups.Create(ctx, g); err != nil {
			if db.IsUniqueViolation(err, "") {
				return ErrNameTaken
			}
			return err
		}
		return s.memberships.Add(ctx, &Membership{
			UserID:  actor,
			GroupID: g.ID,
			Role:    RoleAdmin,
		})
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Group, error) {
	g, err := s.groups.GetByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	return g, nil
}

// UpdateInput carries the mutable group fields.
type UpdateInput struct {
	Name       string  `json:"name"`
	Street     *string `json:"street,omitempty"`
	City       *string `json:"city,omitempty"`
	State      *string `json:"state,omitempty"`
	PostalCode *string `json:"postal_code,omitempty"`
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*Group, error) {
	g, err := s.groups.GetByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	if strings.TrimSpace(in.Name) != "" {
		g.Name = strings.TrimSpace(in.Name)
	}
	g.Street = in.Street
	g.City = in.City
	g.State = in.State
	g.PostalCode = in.PostalCode

	if err := s.groups.Update(ctx, g); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, ErrNameTaken
		}
		return nil, err
	}
	return g, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.groups.GetByID(ctx, id); err != nil {
		return ErrNotFound
	}
	return s.groups.Delete(ctx, id)
}

// ListForUser returns the groups the user belongs to.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID) ([]*Group, error) {
	return s.groups.ListByUser(ctx, userID)
}

// JoinWithCode adds the user as a MEMBER of the group identified by the
// access code. An unknown code is indistinguishable from a missing group.
func (s *Service) JoinWithCode(ctx context.Context, userID uuid.UUID, code string) (*Group, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(code))
	if err != nil {
		return nil, ErrNotFound
	}
	g, err := s.groups.GetByAccessCode(ctx, parsed)
	if err != nil {
		return nil, ErrNotFound
	}
	if _, err := s.memberships.Get(ctx, userID, g.ID); err == nil {
		return nil, ErrAlreadyMember
	}
	err = s.memberships.Add(ctx, &Membership{
		UserID:  userID,
		GroupID: g.ID,
		Role:    RoleMember,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, ErrAlreadyMember
		}
		return nil, err
	}
	return g, nil
}

// AccessCode returns the join token for the group.
func (s *Service) AccessCode(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	g, err := s.groups.GetByID(ctx, id)
	if err != nil {
		return uuid.Nil, ErrNotFound
	}
	return g.AccessCode, nil
}

// RotateAccessCode invalidates the current join token and returns a new one.
func (s *Service) RotateAccessCode(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	if _, err := s.groups.GetByID(ctx, id); err != nil {
		return uuid.Nil, ErrNotFound
	}
	code := uuid.New()
	if err := s.groups.UpdateAccessCode(ctx, id, code); err != nil {
		return uuid.Nil, err
	}
	return code, nil
}

// Members lists the group's members with their roles.
func (s *Service) Members(ctx context.Context, groupID uuid.UUID) ([]*Member, error) {
	if _, err := s.groups.GetByID(ctx, groupID); err != nil {
		return nil, ErrNotFound
	}
	return s.memberships.ListByGroup(ctx, groupID)
}

// RemoveMember removes a member from the group. The admin's own membership
// is protected; ownership transfer is not supported.
func (s *Service) RemoveMember(ctx context.Context, groupID, userID uuid.UUID) error {
	g, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return ErrNotFound
	}
	if g.AdminID == userID {
		return ErrCannotRemoveAdmin
	}
	if _, err := s.memberships.Get(ctx, userID, groupID); err != nil {
		return ErrNotFound
	}
	return s.memberships.Remove(ctx, userID, groupID)
}
