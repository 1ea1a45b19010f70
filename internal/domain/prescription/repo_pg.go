package prescription

import (
	"context"
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

const prescriptionCols = `p.id, p.resident_id, p.medication_id, p.dose, p.frequency,
	to_char(p.time_of_day, 'HH24:MI'), p.days_of_week, p.day_of_month, p.active,
	p.notes, p.created_at, p.updated_at`

func scanPrescription(row pgx.Row) (*Prescription, error) {
	var p Prescription
	err := row.Scan(&p.ID, &p.ResidentID, &p.MedicationID, &p.Dose, &p.Frequency,
		&p.TimeOfDay, &p.DaysOfWeek, &p.DayOfMonth, &p.Active,
		&p.Notes, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *repoPG) Create(ctx context.Context, p *Prescription) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO prescription (id, resident_id, medication_id, dose, frequency,
			time_of_day, days_of_week, day_of_month, active, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		p.ID, p.ResidentID, p.MedicationID, p.Dose, p.Frequency,
		p.TimeOfDay, p.DaysOfWeek, p.DayOfMonth, p.Active, p.Notes)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, groupID, id uuid.UUID) (*Prescription, error) {
	return scanPrescription(r.conn(ctx).QueryRow(ctx, `
		SELECT `+prescriptionCols+` FROM prescription p
		JOIN resident r ON r.id = p.resident_id
		WHERE p.id = $1 AND r.group_id = $2`, id, groupID))
}

func (r *repoPG) ListByResident(ctx context.Context, groupID, residentID uuid.UUID) ([]*Prescription, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+prescriptionCols+` FROM prescription p
		JOIN resident r ON r.id = p.resident_id
		WHERE p.resident_id = $1 AND r.group_id = $2
		ORDER BY p.time_of_day, p.created_at`, residentID, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

func (r *repoPG) ListByGroup(ctx context.Context, groupID uuid.UUID, limit, offset int) ([]*Prescription, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*) FROM prescription p
		JOIN resident r ON r.id = p.resident_id
		WHERE r.group_id = $1`, groupID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+prescriptionCols+` FROM prescription p
		JOIN resident r ON r.id = p.resident_id
		WHERE r.group_id = $1
		ORDER BY p.time_of_day, p.created_at
		LIMIT $2 OFFSET $3`, groupID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	list, err := collect(rows)
	return list, total, err
}

func collect(rows pgx.Rows) ([]*Prescription, error) {
	var list []*Prescription
	for rows.Next() {
		p, err := scanPrescription(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

func (r *repoPG) Update(ctx context.Context, p *Prescription) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE prescription SET medication_id=$2, dose=$3, frequency=$4, time_of_day=$5,
			days_of_week=$6, day_of_month=$7, active=$8, notes=$9, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.MedicationID, p.Dose, p.Frequency, p.TimeOfDay,
		p.DaysOfWeek, p.DayOfMonth, p.Active, p.Notes)
	return err
}

func (r *repoPG) Delete(ctx context.Context, groupID, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		DELETE FROM prescription p
		USING resident r
		WHERE p.id = $1 AND r.id = p.resident_id AND r.group_id = $2`, id, groupID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// DueBetween matches on the day dimension per frequency and on the wall-clock
// window [from, to). OCCASIONAL prescriptions never match.
func (r *repoPG) DueBetween(ctx context.Context, date time.Time, from, to string) ([]*Due, error) {
	weekday := int(date.Weekday())
	dayOfMonth := date.Day()

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT p.id, p.resident_id, res.full_name, res.group_id,
			p.medication_id, m.name, p.dose, to_char(p.time_of_day, 'HH24:MI')
		FROM prescription p
		JOIN resident res ON res.id = p.resident_id
		JOIN medication m ON m.id = p.medication_id
		WHERE p.active
		  AND p.time_of_day >= $1::time AND p.time_of_day < $2::time
		  AND (
			p.frequency = 'DAILY'
			OR (p.frequency = 'WEEKLY' AND (p.days_of_week >> $3) & 1 = 1)
			OR (p.frequency = 'MONTHLY' AND p.day_of_month = $4)
		  )
		ORDER BY p.time_of_day`, from, to, weekday, dayOfMonth)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var due []*Due
	for rows.Next() {
		var d Due
		if err := rows.Scan(&d.PrescriptionID, &d.ResidentID, &d.ResidentName, &d.GroupID,
			&d.MedicationID, &d.MedicationName, &d.Dose, &d.TimeOfDay); err != nil {
			return nil, err
		}
		due = append(due, &d)
	}
	return due, rows.Err()
}
