package administration

import (
	"context"
	"strconv"
	"time"

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

func (r *repoPG) Create(ctx context.Context, l *Log) error {
	l.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO administration_log (id, prescription_id, status, administered_by, administered_at, notes)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		l.ID, l.PrescriptionID, l.Status, l.AdministeredBy, l.AdministeredAt, l.Notes)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, groupID, id uuid.UUID) (*Log, error) {
	var l Log
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT l.id, l.prescription_id, l.status, l.administered_by, l.administered_at, l.notes, l.created_at
		FROM administration_log l
		JOIN prescription p ON p.id = l.prescription_id
		JOIN resident res ON res.id = p.resident_id
		WHERE l.id = $1 AND res.group_id = $2`, id, groupID).
		Scan(&l.ID, &l.PrescriptionID, &l.Status, &l.AdministeredBy, &l.AdministeredAt, &l.Notes, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM administration_log WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *repoPG) ExistsOnDay(ctx context.Context, prescriptionID uuid.UUID, day time.Time) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM administration_log
			WHERE prescription_id = $1 AND administered_at::date = $2::date
		)`, prescriptionID, day).Scan(&exists)
	return exists, err
}

const entryCols = `l.id, l.prescription_id, l.status, l.administered_by, l.administered_at, l.notes, l.created_at,
	res.id, res.full_name, m.name, p.dose, u.full_name`

const entryJoins = `
	FROM administration_log l
	JOIN prescription p ON p.id = l.prescription_id
	JOIN resident res ON res.id = p.resident_id
	JOIN medication m ON m.id = p.medication_id
	LEFT JOIN app_user u ON u.id = l.administered_by`

func scanEntry(row pgx.Row) (*Entry, error) {
	var e Entry
	err := row.Scan(&e.ID, &e.PrescriptionID, &e.Status, &e.AdministeredBy, &e.AdministeredAt, &e.Notes, &e.CreatedAt,
		&e.ResidentID, &e.ResidentName, &e.MedicationName, &e.Dose, &e.CaregiverName)
	return &e, err
}

func (r *repoPG) list(ctx context.Context, where string, countWhere string, args []interface{}, limit, offset int) ([]*Entry, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*)`+entryJoins+countWhere, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	n := len(args)
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+entryCols+entryJoins+where+
			` ORDER BY l.administered_at DESC LIMIT $`+strconv.Itoa(n-1)+` OFFSET $`+strconv.Itoa(n), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}

func (r *repoPG) ListByPrescription(ctx context.Context, groupID, prescriptionID uuid.UUID, limit, offset int) ([]*Entry, int, error) {
	where := ` WHERE res.group_id = $1 AND l.prescription_id = $2`
	return r.list(ctx, where, where, []interface{}{groupID, prescriptionID}, limit, offset)
}

func (r *repoPG) ListByResident(ctx context.Context, groupID, residentID uuid.UUID, limit, offset int) ([]*Entry, int, error) {
	where := ` WHERE res.group_id = $1 AND res.id = $2`
	return r.list(ctx, where, where, []interface{}{groupID, residentID}, limit, offset)
}

func (r *repoPG) ListByGroup(ctx context.Context, groupID uuid.UUID, day *time.Time, limit, offset int) ([]*Entry, int, error) {
	where := ` WHERE res.group_id = $1`
	args := []interface{}{groupID}
	if day != nil {
		where += ` AND l.administered_at::date = $2::date`
		args = append(args, *day)
	}
	return r.list(ctx, where, where, args, limit, offset)
}
