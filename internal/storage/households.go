package storage

import (
	"context"
	"fmt"
	"time"

	"contas/internal/core"
)

// HouseholdRow is a household with the counters and balance shown on the
// household list.
type HouseholdRow struct {
	core.Household
	MemberCount      int64
	TransactionCount int64
	Balance          core.Money
}

const householdColumns = `
	h.id, h.name, h.created_at,
	(SELECT COUNT(*) FROM user_homes uh WHERE uh.home_id = h.id),
	(SELECT COUNT(*) FROM transactions t WHERE t.home_id = h.id),
	COALESCE((SELECT SUM(CASE WHEN t.type = 'ENTRADA' THEN t.amount_cents ELSE -t.amount_cents END)
	          FROM transactions t WHERE t.home_id = h.id), 0)`

func scanHousehold(row rowScanner) (HouseholdRow, error) {
	var (
		hr        HouseholdRow
		createdAt time.Time
	)
	err := row.Scan(&hr.ID, &hr.Name, &createdAt, &hr.MemberCount, &hr.TransactionCount, &hr.Balance.Cents)
	if err != nil {
		return HouseholdRow{}, err
	}
	hr.CreatedAt = createdAt
	return hr, nil
}

func (q *Queries) InsertHousehold(ctx context.Context, name string) (int64, error) {
	res, err := q.db.ExecContext(ctx, `INSERT INTO homes (name) VALUES (?)`, name)
	if err != nil {
		return 0, fmt.Errorf("insert household: %w", err)
	}
	return res.LastInsertId()
}

func (q *Queries) GetHousehold(ctx context.Context, id int64) (HouseholdRow, error) {
	hr, err := scanHousehold(q.db.QueryRowContext(ctx, `
		SELECT `+householdColumns+` FROM homes h WHERE h.id = ?`, id))
	if err != nil {
		return HouseholdRow{}, mapNotFound(err)
	}
	return hr, nil
}

func (q *Queries) ListHouseholds(ctx context.Context) ([]HouseholdRow, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+householdColumns+` FROM homes h ORDER BY h.created_at DESC, h.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list households: %w", err)
	}
	defer rows.Close()

	var out []HouseholdRow
	for rows.Next() {
		hr, err := scanHousehold(rows)
		if err != nil {
			return nil, fmt.Errorf("scan household: %w", err)
		}
		out = append(out, hr)
	}
	return out, rows.Err()
}

func (q *Queries) UpdateHouseholdName(ctx context.Context, id int64, name string) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE homes SET name = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, name, id)
	if err != nil {
		return fmt.Errorf("update household: %w", err)
	}
	return requireRow(res)
}

// DeleteHousehold removes the home; transactions, memberships and reference
// data go with it through ON DELETE CASCADE.
func (q *Queries) DeleteHousehold(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM homes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete household: %w", err)
	}
	return requireRow(res)
}

func (q *Queries) FindUserByEmail(ctx context.Context, email string) (int64, error) {
	var id int64
	err := q.db.QueryRowContext(ctx, `SELECT id FROM users WHERE email = ?`, email).Scan(&id)
	if err != nil {
		return 0, mapNotFound(err)
	}
	return id, nil
}

func (q *Queries) InsertUser(ctx context.Context, name, nickname, email string) (int64, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO users (name, nickname, email) VALUES (?, ?, ?)`, name, nickname, email)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicate
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}
	return res.LastInsertId()
}

func (q *Queries) InsertMembership(ctx context.Context, userID, homeID int64, role core.Role) (int64, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO user_homes (user_id, home_id, role) VALUES (?, ?, ?)`, userID, homeID, role)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicate
		}
		return 0, fmt.Errorf("insert membership: %w", err)
	}
	return res.LastInsertId()
}

func (q *Queries) ListMembers(ctx context.Context, homeID int64) ([]core.Member, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT uh.id, u.id, u.name, u.nickname, u.email, uh.role, uh.created_at
		FROM user_homes uh
		JOIN users u ON u.id = uh.user_id
		WHERE uh.home_id = ?
		ORDER BY uh.created_at, uh.id`, homeID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var out []core.Member
	for rows.Next() {
		var m core.Member
		if err := rows.Scan(&m.ID, &m.UserID, &m.Name, &m.Nickname, &m.Email, &m.Role, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (q *Queries) GetMember(ctx context.Context, homeID, memberID int64) (core.Member, error) {
	var m core.Member
	err := q.db.QueryRowContext(ctx, `
		SELECT uh.id, u.id, u.name, u.nickname, u.email, uh.role, uh.created_at
		FROM user_homes uh
		JOIN users u ON u.id = uh.user_id
		WHERE uh.id = ? AND uh.home_id = ?`, memberID, homeID).
		Scan(&m.ID, &m.UserID, &m.Name, &m.Nickname, &m.Email, &m.Role, &m.CreatedAt)
	if err != nil {
		return core.Member{}, mapNotFound(err)
	}
	return m, nil
}

func (q *Queries) UpdateMemberRole(ctx context.Context, homeID, memberID int64, role core.Role) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE user_homes SET role = ? WHERE id = ? AND home_id = ?`, role, memberID, homeID)
	if err != nil {
		return fmt.Errorf("update member role: %w", err)
	}
	return requireRow(res)
}

func (q *Queries) DeleteMember(ctx context.Context, homeID, memberID int64) error {
	res, err := q.db.ExecContext(ctx, `
		DELETE FROM user_homes WHERE id = ? AND home_id = ?`, memberID, homeID)
	if err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	return requireRow(res)
}

// CountAdmins supports the guard that keeps at least one administrator per
// household.
func (q *Queries) CountAdmins(ctx context.Context, homeID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM user_homes WHERE home_id = ? AND role = 'administrador'`, homeID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count admins: %w", err)
	}
	return n, nil
}
