package prescription

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound          = errors.New("prescription not found")
	ErrResidentNotFound  = errors.New("resident not found")
	ErrMedicationMissing = errors.New("medication not found in this group")
	ErrInvalidFrequency  = errors.New("frequency must be DAILY, WEEKLY, MONTHLY or OCCASIONAL")
	ErrInvalidTime       = errors.New("time_of_day must be HH:MM")
	ErrInvalidWeekdays   = errors.New("days_of_week must set at least one of bits 0-6")
	ErrInvalidMonthDay   = errors.New("day_of_month must be between 1 and 31")
)

// ResidentFinder and MedicationFinder break the import cycle to the sibling
// domains; the concrete services satisfy them.
type ResidentFinder interface {
	Exists(ctx context.Context, groupID, residentID uuid.UUID) error
}

type MedicationFinder interface {
	Exists(ctx context.Context, groupID, medicationID uuid.UUID) error
}

type Service struct {
	repo        Repository
	residents   ResidentFinder
	medications MedicationFinder
}

func NewService(repo Repository, residents ResidentFinder, medications MedicationFinder) *Service {
	return &Service{repo: repo, residents: residents, medications: medications}
}

// Input carries the prescription fields accepted on create and update.
type Input struct {
	MedicationID uuid.UUID `json:"medication_id"`
	Dose         string    `json:"dose"`
	Frequency    Frequency `json:"frequency"`
	TimeOfDay    string    `json:"time_of_day"`
	DaysOfWeek   int       `json:"days_of_week"`
	DayOfMonth   *int      `json:"day_of_month,omitempty"`
	Active       *bool     `json:"active,omitempty"`
	Notes        *string   `json:"notes,omitempty"`
}

const weekdayMask = 1<<7 - 1

func validate(in Input) error {
	if strings.TrimSpace(in.Dose) == "" {
		return fmt.Errorf("dose is required")
	}
	if !in.Frequency.Valid() {
		return ErrInvalidFrequency
	}
	if _, err := time.Parse("15:04", in.TimeOfDay); err != nil {
		return ErrInvalidTime
	}
	if in.Frequency == FrequencyWeekly {
		if in.DaysOfWeek <= 0 || in.DaysOfWeek > weekdayMask {
			return ErrInvalidWeekdays
		}
	}
	if in.Frequency == FrequencyMonthly {
		if in.DayOfMonth == nil || *in.DayOfMonth < 1 || *in.DayOfMonth > 31 {
			return ErrInvalidMonthDay
		}
	}
	return nil
}

func (s *Service) Create(ctx context.Context, groupID, residentID uuid.UUID, in Input) (*Prescription, error) {
	if err := s.residents.Exists(ctx, groupID, residentID); err != nil {
		return nil, ErrResidentNotFound
	}
	// The medication must live in the same group as the resident.
	if err := s.medications.Exists(ctx, groupID, in.MedicationID); err != nil {
		return nil, ErrMedicationMissing
	}
	if err := validate(in); err != nil {
		return nil, err
	}

	active := true
	if in.Active != nil {
		active = *in.Active
	}
	p := &Prescription{
		ResidentID:   residentID,
		MedicationID: in.MedicationID,
		Dose:         strings.TrimSpace(in.Dose),
		Frequency:    in.Frequency,
		TimeOfDay:    in.TimeOfDay,
		DaysOfWeek:   in.DaysOfWeek,
		DayOfMonth:   in.DayOfMonth,
		Active:       active,
		Notes:        in.Notes,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, groupID, id uuid.UUID) (*Prescription, error) {
	p, err := s.repo.GetByID(ctx, groupID, id)
	if err != nil {
		return nil, ErrNotFound
	}
	return p, nil
}

func (s *Service) ListByResident(ctx context.Context, groupID, residentID uuid.UUID) ([]*Prescription, error) {
	if err := s.residents.Exists(ctx, groupID, residentID); err != nil {
		return nil, ErrResidentNotFound
	}
	return s.repo.ListByResident(ctx, groupID, residentID)
}

func (s *Service) ListByGroup(ctx context.Context, groupID uuid.UUID, limit, offset int) ([]*Prescription, int, error) {
	return s.repo.ListByGroup(ctx, groupID, limit, offset)
}

func (s *Service) Update(ctx context.Context, groupID, id uuid.UUID, in Input) (*Prescription, error) {
	p, err := s.repo.GetByID(ctx, groupID, id)
	if err != nil {
		return nil, ErrNotFound
	}
	if in.MedicationID != p.MedicationID {
		if err := s.medications.Exists(ctx, groupID, in.MedicationID); err != nil {
			return nil, ErrMedicationMissing
		}
	}
	if err := validate(in); err != nil {
		return nil, err
	}

	p.MedicationID = in.MedicationID
	p.Dose = strings.TrimSpace(in.Dose)
	p.Frequency = in.Frequency
	p.TimeOfDay = in.TimeOfDay
	p.DaysOfWeek = in.DaysOfWeek
	p.DayOfMonth = in.DayOfMonth
	if in.Active != nil {
		p.Active = *in.Active
	}
	p.Notes = in.Notes

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// SetActive pauses or resumes the schedule without touching the rest of the
// prescription.
func (s *Service) SetActive(ctx context.Context, groupID, id uuid.UUID, active bool) (*Prescription, error) {
	p, err := s.repo.GetByID(ctx, groupID, id)
	if err != nil {
		return nil, ErrNotFound
	}
	if p.Active == active {
		return p, nil
	}
	p.Active = active
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, groupID, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, groupID, id); err != nil {
		return ErrNotFound
	}
	return nil
}

// DueBetween exposes the sweep query to the scheduler.
func (s *Service) DueBetween(ctx context.Context, date time.Time, from, to string) ([]*Due, error) {
	return s.repo.DueBetween(ctx, date, from, to)
}
