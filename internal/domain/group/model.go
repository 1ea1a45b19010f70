package group

import (
	"time"

	"github.com/google/uuid"
)

// Membership roles within a group.
const (
	RoleAdmin  = "ADMIN"
	RoleMember = "MEMBER"
)

// Group maps to the care_group table. A group is one care home and the unit
// of tenant isolation: every resident, medication and prescription hangs off
// exactly one group.
type Group struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	PasswordHash string    `db:"password_hash" json:"-"`
	AdminID      uuid.UUID `db:"admin_id" json:"admin_id"`
	AccessCode   uuid.UUID `db:"access_code" json:"-"`
	Street       *string   `db:"street" json:"street,omitempty"`
	City         *string   `db:"city" json:"city,omitempty"`
	State        *string   `db:"state" json:"state,omitempty"`
	PostalCode   *string   `db:"postal_code" json:"postal_code,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Membership maps to the group_member table: one row per (user, group), with
// the user's role in that group. There is no implicit "the" group for a user.
type Membership struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	GroupID   uuid.UUID `db:"group_id" json:"group_id"`
	Role      string    `db:"role" json:"role"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Member is the membership joined with account data for listing.
type Member struct {
	UserID   uuid.UUID `json:"user_id"`
	Email    string    `json:"email"`
	FullName string    `json:"full_name"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}
