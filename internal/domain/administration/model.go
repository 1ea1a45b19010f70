package administration

import (
	"time"

	"github.com/google/uuid"
)

// Status records the outcome of a dosing event. A log is created with its
// final status; there are no transitions afterwards.
type Status string

const (
	StatusAdministered Status = "ADMINISTERED"
	StatusRefused      Status = "REFUSED"
	StatusSkipped      Status = "SKIPPED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusAdministered, StatusRefused, StatusSkipped:
		return true
	}
	return false
}

// Log records one dosing event. Creating a log consumes one package of the
// prescribed medication; reverting the log puts it back. AdministeredBy is
// nil when the recording user has since been deleted.
type Log struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	PrescriptionID uuid.UUID  `json:"prescription_id" db:"prescription_id"`
	Status         Status     `json:"status" db:"status"`
	AdministeredBy *uuid.UUID `json:"administered_by,omitempty" db:"administered_by"`
	AdministeredAt time.Time  `json:"administered_at" db:"administered_at"`
	Notes          *string    `json:"notes,omitempty" db:"notes"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
}

// Entry is a log joined with its prescription context for listings.
type Entry struct {
	Log
	ResidentID     uuid.UUID `json:"resident_id" db:"resident_id"`
	ResidentName   string    `json:"resident_name" db:"resident_name"`
	MedicationName string    `json:"medication_name" db:"medication_name"`
	Dose           string    `json:"dose" db:"dose"`
	CaregiverName  *string   `json:"caregiver_name,omitempty" db:"caregiver_name"`
}
