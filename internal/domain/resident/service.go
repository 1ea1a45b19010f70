package resident

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carehome/carehome/internal/platform/db"
)

var (
	ErrNotFound      = errors.New("resident not found")
	ErrCPFTaken      = errors.New("a resident with this CPF already exists in the group")
	ErrInvalidCPF    = errors.New("cpf must have 11 digits")
	ErrInvalidCNS    = errors.New("cns must have 15 digits")
	ErrNotMember     = errors.New("user is not a member of the group")
	ErrNotAssigned   = errors.New("user is not assigned to the resident")
	ErrBirthInFuture = errors.New("birth date cannot be in the future")
)

// MemberChecker answers whether a user belongs to a group. The access policy
// satisfies it.
type MemberChecker interface {
	IsMember(ctx context.Context, userID, groupID uuid.UUID) bool
}

type Service struct {
	repo        Repository
	assignments AssignmentRepository
	members     MemberChecker
	now         func() time.Time
}

func NewService(repo Repository, assignments AssignmentRepository, members MemberChecker) *Service {
	return &Service{repo: repo, assignments: assignments, members: members, now: time.Now}
}

// Input carries the resident fields accepted on create and update.
type Input struct {
	FullName        string  `json:"full_name"`
	BirthDate       string  `json:"birth_date"` // YYYY-MM-DD
	CPF             string  `json:"cpf"`
	RG              *string `json:"rg,omitempty"`
	CNS             *string `json:"cns,omitempty"`
	Gender          *string `json:"gender,omitempty"`
	HealthInsurance *string `json:"health_insurance,omitempty"`
	Conditions      *string `json:"conditions,omitempty"`
	PhotoURL        *string `json:"photo_url,omitempty"`
	Notes           *string `json:"notes,omitempty"`
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func (s *Service) validate(in Input) (Input, time.Time, error) {
	if strings.TrimSpace(in.FullName) == "" {
		return in, time.Time{}, fmt.Errorf("full_name is required")
	}
	in.FullName = strings.TrimSpace(in.FullName)

	birth, err := time.Parse("2006-01-02", in.BirthDate)
	if err != nil {
		return in, time.Time{}, fmt.Errorf("birth_date must be YYYY-MM-DD")
	}
	if birth.After(s.now()) {
		return in, time.Time{}, ErrBirthInFuture
	}

	in.CPF = digitsOnly(in.CPF)
	if len(in.CPF) != 11 {
		return in, time.Time{}, ErrInvalidCPF
	}
	if in.CNS != nil {
		cns := digitsOnly(*in.CNS)
		if len(cns) != 15 {
			return in, time.Time{}, ErrInvalidCNS
		}
		in.CNS = &cns
	}
	return in, birth, nil
}

func (s *Service) Create(ctx context.Context, groupID uuid.UUID, in Input) (*Resident, error) {
	in, birth, err := s.validate(in)
	if err != nil {
		return nil, err
	}
	res := &Resident{
		GroupID:         groupID,
		FullName:        in.FullName,
		BirthDate:       birth,
		CPF:             in.CPF,
		RG:              in.RG,
		CNS:             in.CNS,
		Gender:          in.Gender,
		HealthInsurance: in.HealthInsurance,
		Conditions:      in.Conditions,
		PhotoURL:        in.PhotoURL,
		Notes:           in.Notes,
	}
	if err := s.repo.Create(ctx, res); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, ErrCPFTaken
		}
		return nil, err
	}
	return res, nil
}

// Exists reports whether the resident belongs to the group.
func (s *Service) Exists(ctx context.Context, groupID, id uuid.UUID) error {
	if _, err := s.repo.GetByID(ctx, groupID, id); err != nil {
		return ErrNotFound
	}
	return nil
}

func (s *Service) Get(ctx context.Context, groupID, id uuid.UUID) (*Resident, error) {
	res, err := s.repo.GetByID(ctx, groupID, id)
	if err != nil {
		return nil, ErrNotFound
	}
	return res, nil
}

func (s *Service) List(ctx context.Context, groupID uuid.UUID, limit, offset int) ([]*Resident, int, error) {
	return s.repo.ListByGroup(ctx, groupID, limit, offset)
}

func (s *Service) Update(ctx context.Context, groupID, id uuid.UUID, in Input) (*Resident, error) {
	res, err := s.repo.GetByID(ctx, groupID, id)
	if err != nil {
		return nil, ErrNotFound
	}
	in, birth, err := s.validate(in)
	if err != nil {
		return nil, err
	}
	res.FullName = in.FullName
	res.BirthDate = birth
	res.CPF = in.CPF
	res.RG = in.RG
	res.CNS = in.CNS
	res.Gender = in.Gender
	res.HealthInsurance = in.HealthInsurance
	res.Conditions = in.Conditions
	res.PhotoURL = in.PhotoURL
	res.Notes = in.Notes

	if err := s.repo.Update(ctx, res); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, ErrCPFTaken
		}
		return nil, err
	}
	return res, nil
}

// Delete removes a resident. Prescriptions and administration logs under the
// resident cascade away with it.
func (s *Service) Delete(ctx context.Context, groupID, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, groupID, id); err != nil {
		if db.IsNotFound(err) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// ContactInput carries the family contact fields.
type ContactInput struct {
	FullName     string  `json:"full_name"`
	Phone        string  `json:"phone"`
	Email        *string `json:"email,omitempty"`
	Relationship string  `json:"relationship"`
}

func (s *Service) AddContact(ctx context.Context, groupID, residentID uuid.UUID, in ContactInput) (*Contact, error) {
	if _, err := s.repo.GetByID(ctx, groupID, residentID); err != nil {
		return nil, ErrNotFound
	}
	if strings.TrimSpace(in.FullName) == "" || strings.TrimSpace(in.Phone) == "" {
		return nil, fmt.Errorf("full_name and phone are required")
	}
	c := &Contact{
		ResidentID:   residentID,
		FullName:     strings.TrimSpace(in.FullName),
		Phone:        strings.TrimSpace(in.Phone),
		Email:        in.Email,
		Relationship: strings.TrimSpace(in.Relationship),
	}
	if err := s.repo.AddContact(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) Contacts(ctx context.Context, groupID, residentID uuid.UUID) ([]*Contact, error) {
	if _, err := s.repo.GetByID(ctx, groupID, residentID); err != nil {
		return nil, ErrNotFound
	}
	return s.repo.ListContacts(ctx, residentID)
}

func (s *Service) RemoveContact(ctx context.Context, groupID, residentID, contactID uuid.UUID) error {
	if _, err := s.repo.GetByID(ctx, groupID, residentID); err != nil {
		return ErrNotFound
	}
	if err := s.repo.RemoveContact(ctx, residentID, contactID); err != nil {
		if db.IsNotFound(err) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// AssignCaregiver links a group member to a resident. Users outside the
// group cannot be assigned.
func (s *Service) AssignCaregiver(ctx context.Context, groupID, residentID, userID uuid.UUID) error {
	if _, err := s.repo.GetByID(ctx, groupID, residentID); err != nil {
		return ErrNotFound
	}
	if !s.members.IsMember(ctx, userID, groupID) {
		return ErrNotMember
	}
	return s.assignments.Assign(ctx, residentID, userID)
}

func (s *Service) UnassignCaregiver(ctx context.Context, groupID, residentID, userID uuid.UUID) error {
	if _, err := s.repo.GetByID(ctx, groupID, residentID); err != nil {
		return ErrNotFound
	}
	if err := s.assignments.Unassign(ctx, residentID, userID); err != nil {
		if db.IsNotFound(err) {
			return ErrNotAssigned
		}
		return err
	}
	return nil
}

func (s *Service) Caregivers(ctx context.Context, groupID, residentID uuid.UUID) ([]*Caregiver, error) {
	if _, err := s.repo.GetByID(ctx, groupID, residentID); err != nil {
		return nil, ErrNotFound
	}
	return s.assignments.ListCaregivers(ctx, residentID)
}
