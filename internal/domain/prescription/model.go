package prescription

import (
	"time"

	"github.com/google/uuid"
)

// Frequency determines which days a prescription is due.
type Frequency string

const (
	FrequencyDaily      Frequency = "DAILY"
	FrequencyWeekly     Frequency = "WEEKLY"
	FrequencyMonthly    Frequency = "MONTHLY"
	FrequencyOccasional Frequency = "OCCASIONAL"
)

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyOccasional:
		return true
	}
	return false
}

// Prescription binds a medication to a resident with a dosing schedule.
// TimeOfDay is the HH:MM wall-clock slot; DaysOfWeek is a bitset with Sunday
// at bit 0, used only for WEEKLY; DayOfMonth only for MONTHLY. OCCASIONAL
// prescriptions are administered on demand and never picked up by the sweep.
type Prescription struct {
	ID           uuid.UUID `json:"id" db:"id"`
	ResidentID   uuid.UUID `json:"resident_id" db:"resident_id"`
	MedicationID uuid.UUID `json:"medication_id" db:"medication_id"`
	Dose         string    `json:"dose" db:"dose"`
	Frequency    Frequency `json:"frequency" db:"frequency"`
	TimeOfDay    string    `json:"time_of_day" db:"time_of_day"`
	DaysOfWeek   int       `json:"days_of_week" db:"days_of_week"`
	DayOfMonth   *int      `json:"day_of_month,omitempty" db:"day_of_month"`
	Active       bool      `json:"active" db:"active"`
	Notes        *string   `json:"notes,omitempty" db:"notes"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// DueOn reports whether the schedule fires on the given date. Time of day is
// not considered here.
func (p *Prescription) DueOn(date time.Time) bool {
	if !p.Active {
		return false
	}
	switch p.Frequency {
	case FrequencyDaily:
		return true
	case FrequencyWeekly:
		return p.DaysOfWeek&(1<<int(date.Weekday())) != 0
	case FrequencyMonthly:
		return p.DayOfMonth != nil && *p.DayOfMonth == date.Day()
	}
	return false
}

// Due is a denormalized row the dose sweep works from.
type Due struct {
	PrescriptionID uuid.UUID `json:"prescription_id" db:"prescription_id"`
	ResidentID     uuid.UUID `json:"resident_id" db:"resident_id"`
	ResidentName   string    `json:"resident_name" db:"resident_name"`
	GroupID        uuid.UUID `json:"group_id" db:"group_id"`
	MedicationID   uuid.UUID `json:"medication_id" db:"medication_id"`
	MedicationName string    `json:"medication_name" db:"medication_name"`
	Dose           string    `json:"dose" db:"dose"`
	TimeOfDay      string    `json:"time_of_day" db:"time_of_day"`
}
