package medication

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/carehome/carehome/internal/platform/db"
)

var (
	ErrNotFound      = errors.New("medication not found")
	ErrNameTaken     = errors.New("a medication with this name already exists in the group")
	ErrInUse         = errors.New("medication is referenced by prescriptions")
	ErrInvalidStock  = errors.New("stock cannot be negative")
	ErrInvalidAmount = errors.New("restock amount must be positive")
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Input carries the medication fields accepted on create and update. Stock is
// only honored on create; afterwards it moves through Restock and the
// administration flow.
type Input struct {
	Name          string  `json:"name"`
	Brand         *string `json:"brand,omitempty"`
	Concentration *string `json:"concentration,omitempty"`
	Description   *string `json:"description,omitempty"`
	Stock         int     `json:"stock"`
}

func (s *Service) Create(ctx context.Context, groupID uuid.UUID, in Input) (*Medication, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("name is required")
	}
	if in.Stock < 0 {
		return nil, ErrInvalidStock
	}
	m := &Medication{
		GroupID:       groupID,
		Name:          strings.TrimSpace(in.Name),
		Brand:         in.Brand,
		Concentration: in.Concentration,
		Description:   in.Description,
		Stock:         in.Stock,
	}
	if err := s.repo.Create(ctx, m); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, ErrNameTaken
		}
		return nil, err
	}
	return m, nil
}

// Exists reports whether the medication belongs to the group.
func (s *Service) Exists(ctx context.Context, groupID, id uuid.UUID) error {
	if _, err := s.repo.GetByID(ctx, groupID, id); err != nil {
		return ErrNotFound
	}
	return nil
}

func (s *Service) Get(ctx context.Context, groupID, id uuid.UUID) (*Medication, error) {
	m, err := s.repo.GetByID(ctx, groupID, id)
	if err != nil {
		return nil, ErrNotFound
	}
	return m, nil
}

func (s *Service) List(ctx context.Context, groupID uuid.UUID, limit, offset int) ([]*Medication, int, error) {
	return s.repo.ListByGroup(ctx, groupID, limit, offset)
}

func (s *Service) Update(ctx context.Context, groupID, id uuid.UUID, in Input) (*Medication, error) {
	m, err := s.repo.GetByID(ctx, groupID, id)
	if err != nil {
		return nil, ErrNotFound
	}
	if strings.TrimSpace(in.Name) != "" {
		m.Name = strings.TrimSpace(in.Name)
	}
	m.Brand = in.Brand
	m.Concentration = in.Concentration
	m.Description = in.Description
	if err := s.repo.Update(ctx, m); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, ErrNameTaken
		}
		return nil, err
	}
	return m, nil
}

// Delete removes a medication from the inventory. Medications still referenced
// by prescriptions are protected at the database level.
func (s *Service) Delete(ctx context.Context, groupID, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, groupID, id); err != nil {
		if db.IsNotFound(err) {
			return ErrNotFound
		}
		if db.IsForeignKeyViolation(err) {
			return ErrInUse
		}
		return err
	}
	return nil
}

// Restock adds whole packages to the stock and returns the updated record.
func (s *Service) Restock(ctx context.Context, groupID, id uuid.UUID, amount int) (*Medication, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	m, err := s.repo.GetByID(ctx, groupID, id)
	if err != nil {
		return nil, ErrNotFound
	}
	stock, err := s.repo.AddStock(ctx, id, amount)
	if err != nil {
		return nil, err
	}
	m.Stock = stock
	return m, nil
}
