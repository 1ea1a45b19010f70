package medication

import (
	"time"

	"github.com/google/uuid"
)

// Medication is a stocked item in a group's inventory. Stock counts whole
// packages; each administration consumes one.
type Medication struct {
	ID            uuid.UUID `json:"id" db:"id"`
	GroupID       uuid.UUID `json:"group_id" db:"group_id"`
	Name          string    `json:"name" db:"name"`
	Brand         *string   `json:"brand,omitempty" db:"brand"`
	Concentration *string   `json:"concentration,omitempty" db:"concentration"`
	Description   *string   `json:"description,omitempty" db:"description"`
	Stock         int       `json:"stock" db:"stock"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}
