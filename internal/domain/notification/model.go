package notification

import (
	"time"

	"github.com/google/uuid"
)

// Notification is a message persisted for a user. Delivery to a device is
// best effort; the stored row is the source of truth.
type Notification struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Title     string    `json:"title" db:"title"`
	Body      string    `json:"body" db:"body"`
	Read      bool      `json:"read" db:"read"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
