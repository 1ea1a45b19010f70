package resident

import (
	"time"

	"github.com/google/uuid"
)

// Resident is a person under care in a group. The national identifiers
// (CPF, RG, CNS) are unique within the owning group; RG and CNS may be
// absent.
type Resident struct {
	ID              uuid.UUID `json:"id" db:"id"`
	GroupID         uuid.UUID `json:"group_id" db:"group_id"`
	FullName        string    `json:"full_name" db:"full_name"`
	BirthDate       time.Time `json:"birth_date" db:"birth_date"`
	CPF             string    `json:"cpf" db:"cpf"`
	RG              *string   `json:"rg,omitempty" db:"rg"`
	CNS             *string   `json:"cns,omitempty" db:"cns"`
	Gender          *string   `json:"gender,omitempty" db:"gender"`
	HealthInsurance *string   `json:"health_insurance,omitempty" db:"health_insurance"`
	Conditions      *string   `json:"conditions,omitempty" db:"conditions"`
	PhotoURL        *string   `json:"photo_url,omitempty" db:"photo_url"`
	Notes           *string   `json:"notes,omitempty" db:"notes"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// Contact is a family contact attached to a resident.
type Contact struct {
	ID           uuid.UUID `json:"id" db:"id"`
	ResidentID   uuid.UUID `json:"resident_id" db:"resident_id"`
	FullName     string    `json:"full_name" db:"full_name"`
	Phone        string    `json:"phone" db:"phone"`
	Email        *string   `json:"email,omitempty" db:"email"`
	Relationship string    `json:"relationship" db:"relationship"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Caregiver is a group member assigned to a resident, as exposed in the
// assignment listing.
type Caregiver struct {
	UserID     uuid.UUID `json:"user_id" db:"user_id"`
	Email      string    `json:"email" db:"email"`
	FullName   string    `json:"full_name" db:"full_name"`
	AssignedAt time.Time `json:"assigned_at" db:"assigned_at"`
}
