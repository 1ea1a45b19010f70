package group

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

// =========== Group Repository ===========

type groupRepoPG struct{ pool *pgxpool.Pool }

func NewGroupRepoPG(pool *pgxpool.Pool) GroupRepository {
	return &groupRepoPG{pool: pool}
}

func (r *groupRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const groupCols = `id, name, password_hash, admin_id, access_code,
	street, city, state, postal_code, created_at, updated_at`

func scanGroup(row pgx.Row) (*Group, error) {
	var g Group
	err := row.Scan(&g.ID, &g.Name, &g.PasswordHash, &g.AdminID, &g.AccessCode,
		&g.Street, &g.City, &g.State, &g.PostalCode, &g.CreatedAt, &g.UpdatedAt)
	return &g, err
}

func (r *groupRepoPG) Create(ctx context.Context, g *Group) error {
	g.ID = uuid.New()
	if g.AccessCode == uuid.Nil {
		g.AccessCode = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO care_group (id, name, password_hash, admin_id, access_code,
			street, city, state, postal_code)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		g.ID, g.Name, g.PasswordHash, g.AdminID, g.AccessCode,
		g.Street, g.City, g.State, g.PostalCode)
	return err
}

func (r *groupRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Group, error) {
	return scanGroup(r.conn(ctx).QueryRow(ctx, `SELECT `+groupCols+` FROM care_group WHERE id = $1`, id))
}

func (r *groupRepoPG) GetByAccessCode(ctx context.Context, code uuid.UUID) (*Group, error) {
	return scanGroup(r.conn(ctx).QueryRow(ctx, `SELECT `+groupCols+` FROM care_group WHERE access_code = $1`, code))
}

func (r *groupRepoPG) Update(ctx context.Context, g *Group) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE care_group SET name=$2, street=$3, city=$4, state=$5, postal_code=$6, updated_at=NOW()
		WHERE id = $1`,
		g.ID, g.Name, g.Street, g.City, g.State, g.PostalCode)
	return err
}

func (r *groupRepoPG) UpdateAccessCode(ctx context.Context, id, code uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE care_group SET access_code=$2, updated_at=NOW() WHERE id = $1`, id, code)
	return err
}

func (r *groupRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM care_group WHERE id = $1`, id)
	return err
}

func (r *groupRepoPG) ListByUser(ctx context.Context, userID uuid.UUID) ([]*Group, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+groupCols+` FROM care_group g
		JOIN group_member gm ON gm.group_id = g.id
		WHERE gm.user_id = $1
		ORDER BY g.name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []*Group
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// =========== Membership Repository ===========

type membershipRepoPG struct{ pool *pgxpool.Pool }

func NewMembershipRepoPG(pool *pgxpool.Pool) MembershipRepository {
	return &membershipRepoPG{pool: pool}
}

func (r *membershipRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *membershipRepoPG) Add(ctx context.Context, m *Membership) error {
	m.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO group_member (id, user_id, group_id, role)
		VALUES ($1, $2, $3, $4)`,
		m.ID, m.UserID, m.GroupID, m.Role)
	return err
}

func (r *membershipRepoPG) Get(ctx context.Context, userID, groupID uuid.UUID) (*Membership, error) {
	var m Membership
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, user_id, group_id, role, created_at
		FROM group_member WHERE user_id = $1 AND group_id = $2`, userID, groupID).
		Scan(&m.ID, &m.UserID, &m.GroupID, &m.Role, &m.CreatedAt)
	return &m, err
}

func (r *membershipRepoPG) ListByGroup(ctx context.Context, groupID uuid.UUID) ([]*Member, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT u.id, u.email, u.full_name, gm.role, gm.created_at
		FROM group_member gm
		JOIN app_user u ON u.id = gm.user_id
		WHERE gm.group_id = $1
		ORDER BY gm.created_at`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []*Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.UserID, &m.Email, &m.FullName, &m.Role, &m.JoinedAt); err != nil {
			return nil, err
		}
		members = append(members, &m)
	}
	return members, rows.Err()
}

func (r *membershipRepoPG) Remove(ctx context.Context, userID, groupID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM group_member WHERE user_id = $1 AND group_id = $2`, userID, groupID)
	return err
}
