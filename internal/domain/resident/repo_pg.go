package resident

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carehome/carehome/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const residentCols = `id, group_id, full_name, birth_date, cpf, rg, cns,
	gender, health_insurance, conditions, photo_url, notes, created_at, updated_at`

func scanResident(row pgx.Row) (*Resident, error) {
	var res Resident
	err := row.Scan(&res.ID, &res.GroupID, &res.FullName, &res.BirthDate, &res.CPF,
		&res.RG, &res.CNS, &res.Gender, &res.HealthInsurance, &res.Conditions,
		&res.PhotoURL, &res.Notes, &res.CreatedAt, &res.UpdatedAt)
	return &res, err
}

func (r *repoPG) Create(ctx context.Context, res *Resident) error {
	res.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO resident (id, group_id, full_name, birth_date, cpf, rg, cns,
			gender, health_insurance, conditions, photo_url, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		res.ID, res.GroupID, res.FullName, res.BirthDate, res.CPF,
		res.RG, res.CNS, res.Gender, res.HealthInsurance, res.Conditions,
		res.PhotoURL, res.Notes)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, groupID, id uuid.UUID) (*Resident, error) {
	return scanResident(r.conn(ctx).QueryRow(ctx,
		`SELECT `+residentCols+` FROM resident WHERE id = $1 AND group_id = $2`, id, groupID))
}

func (r *repoPG) ListByGroup(ctx context.Context, groupID uuid.UUID, limit, offset int) ([]*Resident, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM resident WHERE group_id = $1`, groupID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+residentCols+` FROM resident
		WHERE group_id = $1
		ORDER BY full_name
		LIMIT $2 OFFSET $3`, groupID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var residents []*Resident
	for rows.Next() {
		res, err := scanResident(rows)
		if err != nil {
			return nil, 0, err
		}
		residents = append(residents, res)
	}
	return residents, total, rows.Err()
}

func (r *repoPG) Update(ctx context.Context, res *Resident) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE resident SET full_name=$3, birth_date=$4, cpf=$5, rg=$6, cns=$7,
			gender=$8, health_insurance=$9, conditions=$10, photo_url=$11, notes=$12,
			updated_at=NOW()
		WHERE id = $1 AND group_id = $2`,
		res.ID, res.GroupID, res.FullName, res.BirthDate, res.CPF,
		res.RG, res.CNS, res.Gender, res.HealthInsurance, res.Conditions,
		res.PhotoURL, res.Notes)
	return err
}

func (r *repoPG) Delete(ctx context.Context, groupID, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM resident WHERE id = $1 AND group_id = $2`, id, groupID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *repoPG) AddContact(ctx context.Context, c *Contact) error {
	c.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO resident_contact (id, resident_id, full_name, phone, email, relationship)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		c.ID, c.ResidentID, c.FullName, c.Phone, c.Email, c.Relationship)
	return err
}

func (r *repoPG) ListContacts(ctx context.Context, residentID uuid.UUID) ([]*Contact, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, resident_id, full_name, phone, email, relationship, created_at
		FROM resident_contact
		WHERE resident_id = $1
		ORDER BY full_name`, residentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contacts []*Contact
	for rows.Next() {
		var c Contact
		if err := rows.Scan(&c.ID, &c.ResidentID, &c.FullName, &c.Phone, &c.Email, &c.Relationship, &c.CreatedAt); err != nil {
			return nil, err
		}
		contacts = append(contacts, &c)
	}
	return contacts, rows.Err()
}

func (r *repoPG) RemoveContact(ctx context.Context, residentID, contactID uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM resident_contact WHERE id = $1 AND resident_id = $2`, contactID, residentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// =========== Assignment Repository ===========

type assignmentRepoPG struct{ pool *pgxpool.Pool }

func NewAssignmentRepoPG(pool *pgxpool.Pool) AssignmentRepository {
	return &assignmentRepoPG{pool: pool}
}

func (r *assignmentRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *assignmentRepoPG) Assign(ctx context.Context, residentID, userID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO caregiver_assignment (resident_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (resident_id, user_id) DO NOTHING`, residentID, userID)
	return err
}

func (r *assignmentRepoPG) Unassign(ctx context.Context, residentID, userID uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM caregiver_assignment WHERE resident_id = $1 AND user_id = $2`,
		residentID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *assignmentRepoPG) ListCaregivers(ctx context.Context, residentID uuid.UUID) ([]*Caregiver, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT u.id, u.email, u.full_name, ca.created_at
		FROM caregiver_assignment ca
		JOIN app_user u ON u.id = ca.user_id
		WHERE ca.resident_id = $1
		ORDER BY ca.created_at`, residentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var caregivers []*Caregiver
	for rows.Next() {
		var cg Caregiver
		if err := rows.Scan(&cg.UserID, &cg.Email, &cg.FullName, &cg.AssignedAt); err != nil {
			return nil, err
		}
		caregivers = append(caregivers, &cg)
	}
	return caregivers, rows.Err()
}

func (r *assignmentRepoPG) ListCaregiverIDs(ctx context.Context, residentID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT user_id FROM caregiver_assignment WHERE resident_id = $1`, residentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *assignmentRepoPG) IsAssigned(ctx context.Context, residentID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM caregiver_assignment WHERE resident_id = $1 AND user_id = $2
		)`, residentID, userID).Scan(&exists)
	return exists, err
}
