package medication

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

const medicationCols = `id, group_id, name, brand, concentration, description, stock, created_at, updated_at`

func scanMedication(row pgx.Row) (*Medication, error) {
	var m Medication
	err := row.Scan(&m.ID, &m.GroupID, &m.Name, &m.Brand, &m.Concentration, &m.Description,
		&m.Stock, &m.CreatedAt, &m.UpdatedAt)
	return &m, err
}

func (r *repoPG) Create(ctx context.Context, m *Medication) error {
	m.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO medication (id, group_id, name, brand, concentration, description, stock)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		m.ID, m.GroupID, m.Name, m.Brand, m.Concentration, m.Description, m.Stock)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, groupID, id uuid.UUID) (*Medication, error) {
	return scanMedication(r.conn(ctx).QueryRow(ctx,
		`SELECT `+medicationCols+` FROM medication WHERE id = $1 AND group_id = $2`, id, groupID))
}

func (r *repoPG) ListByGroup(ctx context.Context, groupID uuid.UUID, limit, offset int) ([]*Medication, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM medication WHERE group_id = $1`, groupID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+medicationCols+` FROM medication
		WHERE group_id = $1
		ORDER BY name
		LIMIT $2 OFFSET $3`, groupID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var meds []*Medication
	for rows.Next() {
		m, err := scanMedication(rows)
		if err != nil {
			return nil, 0, err
		}
		meds = append(meds, m)
	}
	return meds, total, rows.Err()
}

func (r *repoPG) Update(ctx context.Context, m *Medication) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE medication SET name=$3, brand=$4, concentration=$5, description=$6, updated_at=NOW()
		WHERE id = $1 AND group_id = $2`,
		m.ID, m.GroupID, m.Name, m.Brand, m.Concentration, m.Description)
	return err
}

func (r *repoPG) Delete(ctx context.Context, groupID, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM medication WHERE id = $1 AND group_id = $2`, id, groupID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *repoPG) AddStock(ctx context.Context, id uuid.UUID, delta int) (int, error) {
	var stock int
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE medication SET stock = stock + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING stock`, id, delta).Scan(&stock)
	return stock, err
}

// ConsumeOne relies on a conditional update so two concurrent administrations
// can never take the stock below zero.
func (r *repoPG) ConsumeOne(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE medication SET stock = stock - 1, updated_at = NOW()
		WHERE id = $1 AND stock >= 1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *repoPG) ReturnOne(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE medication SET stock = stock + 1, updated_at = NOW()
		WHERE id = $1`, id)
	return err
}
