package scheduler

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carehome/carehome/internal/domain/notification"
	"github.com/carehome/carehome/internal/domain/prescription"
)

type mockDueSource struct {
	due   []*prescription.Due
	calls []string
}

func (m *mockDueSource) DueBetween(_ context.Context, _ time.Time, from, to string) ([]*prescription.Due, error) {
	m.calls = append(m.calls, from+"-"+to)
	var out []*prescription.Due
	for _, d := range m.due {
		if d.TimeOfDay >= from && (to == "24:00" || d.TimeOfDay < to) {
			out = append(out, d)
		}
	}
	return out, nil
}

type mockAdmins struct {
	given map[uuid.UUID]bool
}

func (m *mockAdmins) AdministeredOn(_ context.Context, prescriptionID uuid.UUID, _ time.Time) (bool, error) {
	return m.given[prescriptionID], nil
}

type mockCaregivers struct {
	byResident map[uuid.UUID][]uuid.UUID
}

func (m *mockCaregivers) ListCaregiverIDs(_ context.Context, residentID uuid.UUID) ([]uuid.UUID, error) {
	return m.byResident[residentID], nil
}

type sentNotification struct {
	userID uuid.UUID
	title  string
	body   string
}

type mockNotifier struct {
	sent    []sentNotification
	failFor map[uuid.UUID]bool
}

func (m *mockNotifier) Notify(_ context.Context, userID uuid.UUID, title, body string) (*notification.Notification, error) {
	if m.failFor[userID] {
		return nil, errors.New("gateway unavailable")
	}
	m.sent = append(m.sent, sentNotification{userID: userID, title: title, body: body})
	return &notification.Notification{UserID: userID, Title: title, Body: body}, nil
}

func fixedNow(hour, minute int) func() time.Time {
	return func() time.Time {
		return time.Date(2026, 3, 10, hour, minute, 0, 0, time.UTC) // a Tuesday
	}
}

func newTestScheduler(due *mockDueSource, admins *mockAdmins, careteam *mockCaregivers, notifier *mockNotifier) *Scheduler {
	return New(due, admins, careteam, notifier,
		time.Minute, 5*time.Minute, zerolog.Nop())
}

func dueDose(residentID uuid.UUID, timeOfDay string) *prescription.Due {
	return &prescription.Due{
		PrescriptionID: uuid.New(),
		ResidentID:     residentID,
		ResidentName:   "Maria Silva",
		GroupID:        uuid.New(),
		MedicationID:   uuid.New(),
		MedicationName: "Losartana",
		Dose:           "50mg",
		TimeOfDay:      timeOfDay,
	}
}

func TestSweep_NotifiesCaregiversInsideWindow(t *testing.T) {
	residentID := uuid.New()
	caregiver := uuid.New()
	d := dueDose(residentID, "08:00")

	due := &mockDueSource{due: []*prescription.Due{d}}
	admins := &mockAdmins{given: map[uuid.UUID]bool{}}
	careteam := &mockCaregivers{byResident: map[uuid.UUID][]uuid.UUID{residentID: {caregiver}}}
	notifier := &mockNotifier{}

	s := newTestScheduler(due, admins, careteam, notifier)
	s.now = fixedNow(7, 58)

	if err := s.Sweep(context.Background()); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(notifier.sent) != 1 {
		t.Fatalf("sent = %d, want 1", len(notifier.sent))
	}
	got := notifier.sent[0]
	if got.userID != caregiver {
		t.Fatalf("recipient = %s, want %s", got.userID, caregiver)
	}
	if got.title != "Hora do Remédio: Maria Silva" {
		t.Fatalf("title = %q", got.title)
	}
	if !strings.Contains(got.body, "50mg") || !strings.Contains(got.body, "Losartana") ||
		!strings.Contains(got.body, "às 08:00") {
		t.Fatalf("body = %q", got.body)
	}
}

func TestSweep_DoseOutsideWindowIgnored(t *testing.T) {
	residentID := uuid.New()
	d := dueDose(residentID, "08:10")

	due := &mockDueSource{due: []*prescription.Due{d}}
	admins := &mockAdmins{given: map[uuid.UUID]bool{}}
	careteam := &mockCaregivers{byResident: map[uuid.UUID][]uuid.UUID{residentID: {uuid.New()}}}
	notifier := &mockNotifier{}

	s := newTestScheduler(due, admins, careteam, notifier)
	s.now = fixedNow(7, 58)

	if err := s.Sweep(context.Background()); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(notifier.sent) != 0 {
		t.Fatalf("sent = %d, want 0", len(notifier.sent))
	}
}

func TestSweep_SuppressesAlreadyAdministered(t *testing.T) {
	residentID := uuid.New()
	d := dueDose(residentID, "08:00")

	due := &mockDueSource{due: []*prescription.Due{d}}
	admins := &mockAdmins{given: map[uuid.UUID]bool{d.PrescriptionID: true}}
	careteam := &mockCaregivers{byResident: map[uuid.UUID][]uuid.UUID{residentID: {uuid.New()}}}
	notifier := &mockNotifier{}

	s := newTestScheduler(due, admins, careteam, notifier)
	s.now = fixedNow(7, 58)

	if err := s.Sweep(context.Background()); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(notifier.sent) != 0 {
		t.Fatalf("sent = %d, want 0 for an already-administered dose", len(notifier.sent))
	}
}

func TestSweep_FansOutToAllCaregivers(t *testing.T) {
	residentID := uuid.New()
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	d := dueDose(residentID, "08:02")

	due := &mockDueSource{due: []*prescription.Due{d}}
	admins := &mockAdmins{given: map[uuid.UUID]bool{}}
	careteam := &mockCaregivers{byResident: map[uuid.UUID][]uuid.UUID{residentID: {a, b, c}}}
	notifier := &mockNotifier{}

	s := newTestScheduler(due, admins, careteam, notifier)
	s.now = fixedNow(8, 0)

	if err := s.Sweep(context.Background()); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(notifier.sent) != 3 {
		t.Fatalf("sent = %d, want 3", len(notifier.sent))
	}
}

func TestSweep_OneFailingRecipientDoesNotBlockOthers(t *testing.T) {
	residentID := uuid.New()
	failing, ok1, ok2 := uuid.New(), uuid.New(), uuid.New()
	d := dueDose(residentID, "08:00")

	due := &mockDueSource{due: []*prescription.Due{d}}
	admins := &mockAdmins{given: map[uuid.UUID]bool{}}
	careteam := &mockCaregivers{byResident: map[uuid.UUID][]uuid.UUID{residentID: {failing, ok1, ok2}}}
	notifier := &mockNotifier{failFor: map[uuid.UUID]bool{failing: true}}

	s := newTestScheduler(due, admins, careteam, notifier)
	s.now = fixedNow(7, 58)

	if err := s.Sweep(context.Background()); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(notifier.sent) != 2 {
		t.Fatalf("sent = %d, want 2", len(notifier.sent))
	}
}

func TestSweep_NoCaregiversNoNotification(t *testing.T) {
	residentID := uuid.New()
	d := dueDose(residentID, "08:00")

	due := &mockDueSource{due: []*prescription.Due{d}}
	admins := &mockAdmins{given: map[uuid.UUID]bool{}}
	careteam := &mockCaregivers{byResident: map[uuid.UUID][]uuid.UUID{}}
	notifier := &mockNotifier{}

	s := newTestScheduler(due, admins, careteam, notifier)
	s.now = fixedNow(7, 58)

	if err := s.Sweep(context.Background()); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(notifier.sent) != 0 {
		t.Fatalf("sent = %d, want 0", len(notifier.sent))
	}
}

func TestSweep_WindowWrappingMidnightQueriesBothDays(t *testing.T) {
	due := &mockDueSource{}
	admins := &mockAdmins{given: map[uuid.UUID]bool{}}
	careteam := &mockCaregivers{byResident: map[uuid.UUID][]uuid.UUID{}}
	notifier := &mockNotifier{}

	s := newTestScheduler(due, admins, careteam, notifier)
	s.now = fixedNow(23, 58)

	if err := s.Sweep(context.Background()); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(due.calls) != 2 {
		t.Fatalf("due queries = %d, want 2 (tail of today and head of tomorrow)", len(due.calls))
	}
	if due.calls[0] != "23:58-24:00" || due.calls[1] != "00:00-00:03" {
		t.Fatalf("due queries = %v", due.calls)
	}
}
