// Package scheduler runs the dose reminder sweep: every tick it looks a
// short window ahead for prescriptions coming due, skips the ones already
// administered today, and fans a notification out to the resident's
// caregivers.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carehome/carehome/internal/domain/notification"
	"github.com/carehome/carehome/internal/domain/prescription"
)

// DueSource finds prescriptions due in a wall-clock window; the prescription
// service satisfies it.
type DueSource interface {
	DueBetween(ctx context.Context, date time.Time, from, to string) ([]*prescription.Due, error)
}

// Administrations answers whether a dose was already given today; the
// administration service satisfies it.
type Administrations interface {
	AdministeredOn(ctx context.Context, prescriptionID uuid.UUID, day time.Time) (bool, error)
}

// Caregivers lists the users assigned to a resident.
type Caregivers interface {
	ListCaregiverIDs(ctx context.Context, residentID uuid.UUID) ([]uuid.UUID, error)
}

// Notifier delivers the reminder; the notification service satisfies it.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, title, body string) (*notification.Notification, error)
}

type Scheduler struct {
	due       DueSource
	admins    Administrations
	careteam  Caregivers
	notifier  Notifier
	interval  time.Duration
	window    time.Duration
	log       zerolog.Logger
	now       func() time.Time
}

func New(due DueSource, admins Administrations, careteam Caregivers, notifier Notifier,
	interval, window time.Duration, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		due:      due,
		admins:   admins,
		careteam: careteam,
		notifier: notifier,
		interval: interval,
		window:   window,
		log:      log,
		now:      time.Now,
	}
}

// Run sweeps once immediately and then on every tick until the context is
// canceled.
func (s *Scheduler) Run(ctx context.Context) {
	s.log.Info().
		Dur("interval", s.interval).
		Dur("window", s.window).
		Msg("dose scheduler started")

	if err := s.Sweep(ctx); err != nil {
		s.log.Error().Err(err).Msg("sweep failed")
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("dose scheduler stopped")
			return
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				s.log.Error().Err(err).Msg("sweep failed")
			}
		}
	}
}

// Sweep processes one reminder window starting at the current time. A dose
// whose prescription already has a log today is suppressed; one recipient
// failing never blocks the rest.
func (s *Scheduler) Sweep(ctx context.Context) error {
	now := s.now()
	from := now.Format("15:04")
	to := now.Add(s.window).Format("15:04")

	var due []*prescription.Due
	var err error
	if to > from {
		due, err = s.due.DueBetween(ctx, now, from, to)
	} else {
		// Window wraps past midnight: the tail of today plus the head of
		// tomorrow.
		due, err = s.due.DueBetween(ctx, now, from, "24:00")
		if err == nil {
			next, nerr := s.due.DueBetween(ctx, now.Add(s.window), "00:00", to)
			due, err = append(due, next...), nerr
		}
	}
	if err != nil {
		return fmt.Errorf("query due prescriptions: %w", err)
	}

	for _, d := range due {
		given, err := s.admins.AdministeredOn(ctx, d.PrescriptionID, now)
		if err != nil {
			s.log.Error().Err(err).
				Str("prescription_id", d.PrescriptionID.String()).
				Msg("administration lookup failed")
			continue
		}
		if given {
			continue
		}
		s.remind(ctx, d)
	}
	return nil
}

func (s *Scheduler) remind(ctx context.Context, d *prescription.Due) {
	recipients, err := s.careteam.ListCaregiverIDs(ctx, d.ResidentID)
	if err != nil {
		s.log.Error().Err(err).
			Str("resident_id", d.ResidentID.String()).
			Msg("caregiver lookup failed")
		return
	}
	if len(recipients) == 0 {
		s.log.Debug().
			Str("resident_id", d.ResidentID.String()).
			Str("medication", d.MedicationName).
			Msg("dose due but resident has no caregivers")
		return
	}

	title := fmt.Sprintf("Hora do Remédio: %s", d.ResidentName)
	body := fmt.Sprintf("Administrar %s de %s às %s.",
		d.Dose, d.MedicationName, d.TimeOfDay)

	for _, userID := range recipients {
		if _, err := s.notifier.Notify(ctx, userID, title, body); err != nil {
			s.log.Warn().Err(err).
				Str("user_id", userID.String()).
				Str("prescription_id", d.PrescriptionID.String()).
				Msg("reminder delivery failed")
		}
	}
}
