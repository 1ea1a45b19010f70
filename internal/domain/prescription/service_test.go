package prescription

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestDueOn(t *testing.T) {
	monday := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	tuesday := monday.AddDate(0, 0, 1)
	sunday := monday.AddDate(0, 0, 6)

	tests := []struct {
		name string
		p    Prescription
		date time.Time
		want bool
	}{
		{"daily fires every day", Prescription{Frequency: FrequencyDaily, Active: true}, tuesday, true},
		{"inactive never fires", Prescription{Frequency: FrequencyDaily, Active: false}, tuesday, false},
		{"weekly on matching weekday", Prescription{Frequency: FrequencyWeekly, DaysOfWeek: 1 << 2, Active: true}, tuesday, true},
		{"weekly on other weekday", Prescription{Frequency: FrequencyWeekly, DaysOfWeek: 1 << 2, Active: true}, monday, false},
		{"weekly sunday is bit zero", Prescription{Frequency: FrequencyWeekly, DaysOfWeek: 1, Active: true}, sunday, true},
		{"monthly on matching day", Prescription{Frequency: FrequencyMonthly, DayOfMonth: intp(10), Active: true}, tuesday, true},
		{"monthly on other day", Prescription{Frequency: FrequencyMonthly, DayOfMonth: intp(11), Active: true}, tuesday, false},
		{"monthly without day never fires", Prescription{Frequency: FrequencyMonthly, Active: true}, tuesday, false},
		{"occasional never fires", Prescription{Frequency: FrequencyOccasional, Active: true}, tuesday, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.DueOn(tt.date); got != tt.want {
				t.Fatalf("DueOn = %v, want %v", got, tt.want)
			}
		})
	}
}

func intp(n int) *int { return &n }

type mockRepo struct {
	byID map[uuid.UUID]*Prescription
}

func newMockRepo() *mockRepo {
	return &mockRepo{byID: make(map[uuid.UUID]*Prescription)}
}

func (m *mockRepo) Create(_ context.Context, p *Prescription) error {
	p.ID = uuid.New()
	cp := *p
	m.byID[p.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, _ uuid.UUID, id uuid.UUID) (*Prescription, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, errors.New("no rows")
	}
	return p, nil
}

func (m *mockRepo) ListByResident(_ context.Context, _, residentID uuid.UUID) ([]*Prescription, error) {
	var out []*Prescription
	for _, p := range m.byID {
		if p.ResidentID == residentID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockRepo) ListByGroup(_ context.Context, _ uuid.UUID, _, _ int) ([]*Prescription, int, error) {
	return nil, 0, nil
}

func (m *mockRepo) Update(_ context.Context, p *Prescription) error {
	cp := *p
	m.byID[p.ID] = &cp
	return nil
}

func (m *mockRepo) Delete(_ context.Context, _ uuid.UUID, id uuid.UUID) error {
	if _, ok := m.byID[id]; !ok {
		return errors.New("no rows")
	}
	delete(m.byID, id)
	return nil
}

func (m *mockRepo) DueBetween(_ context.Context, date time.Time, from, to string) ([]*Due, error) {
	var due []*Due
	for _, p := range m.byID {
		if p.DueOn(date) && p.TimeOfDay >= from && p.TimeOfDay < to {
			due = append(due, &Due{
				PrescriptionID: p.ID,
				ResidentID:     p.ResidentID,
				MedicationID:   p.MedicationID,
				Dose:           p.Dose,
				TimeOfDay:      p.TimeOfDay,
			})
		}
	}
	return due, nil
}

type mockFinder struct {
	known map[uuid.UUID]bool
}

func (m *mockFinder) Exists(_ context.Context, _ uuid.UUID, id uuid.UUID) error {
	if !m.known[id] {
		return errors.New("no rows")
	}
	return nil
}

func newTestService() (*Service, uuid.UUID, uuid.UUID, uuid.UUID) {
	groupID := uuid.New()
	residentID := uuid.New()
	medicationID := uuid.New()

	repo := newMockRepo()
	residents := &mockFinder{known: map[uuid.UUID]bool{residentID: true}}
	medications := &mockFinder{known: map[uuid.UUID]bool{medicationID: true}}
	return NewService(repo, residents, medications), groupID, residentID, medicationID
}

func validInput(medicationID uuid.UUID) Input {
	return Input{
		MedicationID: medicationID,
		Dose:         "50mg",
		Frequency:    FrequencyDaily,
		TimeOfDay:    "08:00",
	}
}

func TestCreate(t *testing.T) {
	svc, groupID, residentID, medicationID := newTestService()

	p, err := svc.Create(context.Background(), groupID, residentID, validInput(medicationID))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !p.Active {
		t.Fatal("new prescription should default to active")
	}
	if p.ResidentID != residentID || p.MedicationID != medicationID {
		t.Fatalf("wrong linkage: %+v", p)
	}
}

func TestCreate_UnknownResidentOrMedication(t *testing.T) {
	svc, groupID, residentID, medicationID := newTestService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, groupID, uuid.New(), validInput(medicationID)); !errors.Is(err, ErrResidentNotFound) {
		t.Fatalf("unknown resident: err = %v, want ErrResidentNotFound", err)
	}
	if _, err := svc.Create(ctx, groupID, residentID, validInput(uuid.New())); !errors.Is(err, ErrMedicationMissing) {
		t.Fatalf("unknown medication: err = %v, want ErrMedicationMissing", err)
	}
}

func TestCreate_Validation(t *testing.T) {
	svc, groupID, residentID, medicationID := newTestService()
	ctx := context.Background()

	in := validInput(medicationID)
	in.Frequency = "HOURLY"
	if _, err := svc.Create(ctx, groupID, residentID, in); !errors.Is(err, ErrInvalidFrequency) {
		t.Fatalf("bad frequency: err = %v, want ErrInvalidFrequency", err)
	}

	in = validInput(medicationID)
	in.TimeOfDay = "8am"
	if _, err := svc.Create(ctx, groupID, residentID, in); !errors.Is(err, ErrInvalidTime) {
		t.Fatalf("bad time: err = %v, want ErrInvalidTime", err)
	}

	in = validInput(medicationID)
	in.Frequency = FrequencyWeekly
	in.DaysOfWeek = 0
	if _, err := svc.Create(ctx, groupID, residentID, in); !errors.Is(err, ErrInvalidWeekdays) {
		t.Fatalf("weekly without days: err = %v, want ErrInvalidWeekdays", err)
	}

	in = validInput(medicationID)
	in.Frequency = FrequencyWeekly
	in.DaysOfWeek = 1 << 7
	if _, err := svc.Create(ctx, groupID, residentID, in); !errors.Is(err, ErrInvalidWeekdays) {
		t.Fatalf("out-of-range bitset: err = %v, want ErrInvalidWeekdays", err)
	}

	in = validInput(medicationID)
	in.Frequency = FrequencyMonthly
	if _, err := svc.Create(ctx, groupID, residentID, in); !errors.Is(err, ErrInvalidMonthDay) {
		t.Fatalf("monthly without day: err = %v, want ErrInvalidMonthDay", err)
	}

	in = validInput(medicationID)
	in.Dose = "  "
	if _, err := svc.Create(ctx, groupID, residentID, in); err == nil {
		t.Fatal("blank dose accepted")
	}
}

func TestSetActive(t *testing.T) {
	svc, groupID, residentID, medicationID := newTestService()
	ctx := context.Background()

	p, _ := svc.Create(ctx, groupID, residentID, validInput(medicationID))

	got, err := svc.SetActive(ctx, groupID, p.ID, false)
	if err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if got.Active {
		t.Fatal("still active after deactivate")
	}

	got, err = svc.SetActive(ctx, groupID, p.ID, true)
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	if !got.Active {
		t.Fatal("still inactive after activate")
	}
}

func TestDueBetween_SkipsInactiveAndOccasional(t *testing.T) {
	svc, groupID, residentID, medicationID := newTestService()
	ctx := context.Background()
	tuesday := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	daily, _ := svc.Create(ctx, groupID, residentID, validInput(medicationID))

	in := validInput(medicationID)
	in.Frequency = FrequencyOccasional
	if _, err := svc.Create(ctx, groupID, residentID, in); err != nil {
		t.Fatalf("create occasional: %v", err)
	}

	paused := validInput(medicationID)
	pausedP, _ := svc.Create(ctx, groupID, residentID, paused)
	if _, err := svc.SetActive(ctx, groupID, pausedP.ID, false); err != nil {
		t.Fatalf("pause: %v", err)
	}

	due, err := svc.DueBetween(ctx, tuesday, "07:58", "08:03")
	if err != nil {
		t.Fatalf("due between: %v", err)
	}
	if len(due) != 1 {
		t.Fatalf("due = %d, want only the active daily prescription", len(due))
	}
	if due[0].PrescriptionID != daily.ID {
		t.Fatalf("due prescription = %s, want %s", due[0].PrescriptionID, daily.ID)
	}
}
