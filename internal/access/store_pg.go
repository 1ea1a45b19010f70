package access

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type storePG struct{ pool *pgxpool.Pool }

func NewStorePG(pool *pgxpool.Pool) Store {
	return &storePG{pool: pool}
}

func (s *storePG) ResolveGroup(ctx context.Context, kind Kind, id uuid.UUID) (uuid.UUID, error) {
	var query string
	switch kind {
	case KindGroup:
		query = `SELECT id FROM care_group WHERE id = $1`
	case KindResident:
		query = `SELECT group_id FROM resident WHERE id = $1`
	case KindMedication:
		query = `SELECT group_id FROM medication WHERE id = $1`
	case KindPrescription:
		query = `SELECT r.group_id FROM prescription p
			JOIN resident r ON r.id = p.resident_id
			WHERE p.id = $1`
	case KindAdministrationLog:
		query = `SELECT r.group_id FROM administration_log l
			JOIN prescription p ON p.id = l.prescription_id
			JOIN resident r ON r.id = p.resident_id
			WHERE l.id = $1`
	default:
		return uuid.Nil, fmt.Errorf("unknown entity kind %d", kind)
	}

	var groupID uuid.UUID
	if err := s.pool.QueryRow(ctx, query, id).Scan(&groupID); err != nil {
		return uuid.Nil, err
	}
	return groupID, nil
}

func (s *storePG) Role(ctx context.Context, userID, groupID uuid.UUID) (string, error) {
	var role string
	err := s.pool.QueryRow(ctx,
		`SELECT role FROM group_member WHERE user_id = $1 AND group_id = $2`,
		userID, groupID).Scan(&role)
	return role, err
}

func (s *storePG) AdminID(ctx context.Context, groupID uuid.UUID) (uuid.UUID, error) {
	var adminID uuid.UUID
	err := s.pool.QueryRow(ctx,
		`SELECT admin_id FROM care_group WHERE id = $1`, groupID).Scan(&adminID)
	return adminID, err
}
