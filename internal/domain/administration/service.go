package administration

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/carehome/carehome/internal/domain/prescription"
)

var (
	ErrNotFound             = errors.New("administration log not found")
	ErrPrescriptionNotFound = errors.New("prescription not found")
	ErrInsufficientStock    = errors.New("no stock left for this medication")
	ErrFutureTimestamp      = errors.New("administered_at cannot be in the future")
	ErrInvalidStatus        = errors.New("status must be ADMINISTERED, REFUSED or SKIPPED")
)

// TxRunner runs fn as one atomic unit. Production wiring passes db.RunInTx
// bound to the pool; tests pass a passthrough.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

// PrescriptionFinder resolves a prescription within a group; the prescription
// service satisfies it.
type PrescriptionFinder interface {
	Get(ctx context.Context, groupID, id uuid.UUID) (*prescription.Prescription, error)
}

// Stock adjusts medication inventory; the medication repository satisfies it.
type Stock interface {
	ConsumeOne(ctx context.Context, medicationID uuid.UUID) (bool, error)
	ReturnOne(ctx context.Context, medicationID uuid.UUID) error
}

type Service struct {
	repo          Repository
	prescriptions PrescriptionFinder
	stock         Stock
	tx            TxRunner
	now           func() time.Time
}

func NewService(repo Repository, prescriptions PrescriptionFinder, stock Stock, tx TxRunner) *Service {
	return &Service{repo: repo, prescriptions: prescriptions, stock: stock, tx: tx, now: time.Now}
}

// Input carries the administer request fields. A zero AdministeredAt means
// "now"; an empty Status means ADMINISTERED.
type Input struct {
	Status         Status     `json:"status,omitempty"`
	AdministeredAt *time.Time `json:"administered_at,omitempty"`
	Notes          *string    `json:"notes,omitempty"`
}

// Administer records a dosing event. The dose was dispensed whether the
// resident took, refused or skipped it, so every status consumes one package.
// The stock decrement and the log insert commit together or not at all; when
// the stock is already empty nothing is written.
func (s *Service) Administer(ctx context.Context, groupID, actor, prescriptionID uuid.UUID, in Input) (*Log, error) {
	p, err := s.prescriptions.Get(ctx, groupID, prescriptionID)
	if err != nil {
		return nil, ErrPrescriptionNotFound
	}

	status := in.Status
	if status == "" {
		status = StatusAdministered
	}
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	at := s.now()
	if in.AdministeredAt != nil {
		at = *in.AdministeredAt
	}
	if at.After(s.now().Add(time.Minute)) {
		return nil, ErrFutureTimestamp
	}

	l := &Log{
		PrescriptionID: prescriptionID,
		Status:         status,
		AdministeredBy: &actor,
		AdministeredAt: at,
		Notes:          in.Notes,
	}
	err = s.tx(ctx, func(ctx context.Context) error {
		consumed, err := s.stock.ConsumeOne(ctx, p.MedicationID)
		if err != nil {
			return err
		}
		if !consumed {
			return ErrInsufficientStock
		}
		return s.repo.Create(ctx, l)
	})
	if err != nil {
		return nil, err
	}
	return l, nil
}

// Revert deletes a log and returns the consumed package to stock, atomically.
func (s *Service) Revert(ctx context.Context, groupID, logID uuid.UUID) error {
	l, err := s.repo.GetByID(ctx, groupID, logID)
	if err != nil {
		return ErrNotFound
	}
	p, err := s.prescriptions.Get(ctx, groupID, l.PrescriptionID)
	if err != nil {
		return ErrPrescriptionNotFound
	}
	return s.tx(ctx, func(ctx context.Context) error {
		if err := s.repo.Delete(ctx, l.ID); err != nil {
			return err
		}
		return s.stock.ReturnOne(ctx, p.MedicationID)
	})
}

func (s *Service) Get(ctx context.Context, groupID, id uuid.UUID) (*Log, error) {
	l, err := s.repo.GetByID(ctx, groupID, id)
	if err != nil {
		return nil, ErrNotFound
	}
	return l, nil
}

// AdministeredOn reports whether the prescription has a log on the given day.
// The sweep uses it to suppress duplicate reminders.
func (s *Service) AdministeredOn(ctx context.Context, prescriptionID uuid.UUID, day time.Time) (bool, error) {
	return s.repo.ExistsOnDay(ctx, prescriptionID, day)
}

func (s *Service) ListByPrescription(ctx context.Context, groupID, prescriptionID uuid.UUID, limit, offset int) ([]*Entry, int, error) {
	return s.repo.ListByPrescription(ctx, groupID, prescriptionID, limit, offset)
}

func (s *Service) ListByResident(ctx context.Context, groupID, residentID uuid.UUID, limit, offset int) ([]*Entry, int, error) {
	return s.repo.ListByResident(ctx, groupID, residentID, limit, offset)
}

func (s *Service) ListByGroup(ctx context.Context, groupID uuid.UUID, day *time.Time, limit, offset int) ([]*Entry, int, error) {
	return s.repo.ListByGroup(ctx, groupID, day, limit, offset)
}
