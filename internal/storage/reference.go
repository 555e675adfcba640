package storage

import (
	"context"
	"fmt"
	"strings"

	"contas/internal/core"
)

// isUniqueViolation detects a UNIQUE constraint failure from the sqlite
// driver, which has no typed error for it.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// ErrDuplicate is returned when an insert hits a uniqueness constraint
// (category name, unit abbreviation, member already in household).
var ErrDuplicate = fmt.Errorf("already exists: %w", core.ErrValidation)

func (h *HomeQueries) InsertCategory(ctx context.Context, name string, txType core.TransactionType) (int64, error) {
	res, err := h.db.ExecContext(ctx, `
		INSERT INTO categories (home_id, name, type) VALUES (?, ?, ?)`,
		h.homeID, name, txType)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicate
		}
		return 0, fmt.Errorf("insert category: %w", err)
	}
	return res.LastInsertId()
}

// ListCategories returns the home's categories with an in-use marker, so
// the client can disable deletion of categories that transactions refer to.
// Transactions reference categories by name, matching how entries store
// their category.
func (h *HomeQueries) ListCategories(ctx context.Context, txType core.TransactionType) ([]core.Category, error) {
	query := `
		SELECT c.id, c.home_id, c.name, c.type,
		       EXISTS (SELECT 1 FROM transactions t WHERE t.home_id = c.home_id AND t.category = c.name AND t.type = c.type)
		FROM categories c
		WHERE c.home_id = ?`
	args := []any{h.homeID}
	if txType != "" {
		query += ` AND c.type = ?`
		args = append(args, txType)
	}
	query += ` ORDER BY c.name`

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.HomeID, &c.Name, &c.Type, &c.InUse); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (h *HomeQueries) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	var c core.Category
	err := h.db.QueryRowContext(ctx, `
		SELECT c.id, c.home_id, c.name, c.type,
		       EXISTS (SELECT 1 FROM transactions t WHERE t.home_id = c.home_id AND t.category = c.name AND t.type = c.type)
		FROM categories c
		WHERE c.id = ? AND c.home_id = ?`, id, h.homeID).
		Scan(&c.ID, &c.HomeID, &c.Name, &c.Type, &c.InUse)
	if err != nil {
		return core.Category{}, mapNotFound(err)
	}
	return c, nil
}

func (h *HomeQueries) DeleteCategory(ctx context.Context, id int64) error {
	res, err := h.db.ExecContext(ctx, `
		DELETE FROM categories WHERE id = ? AND home_id = ?`, id, h.homeID)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return requireRow(res)
}

func (h *HomeQueries) InsertUnit(ctx context.Context, name, abbreviation string) (int64, error) {
	res, err := h.db.ExecContext(ctx, `
		INSERT INTO units (home_id, name, abbreviation) VALUES (?, ?, ?)`,
		h.homeID, name, abbreviation)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicate
		}
		return 0, fmt.Errorf("insert unit: %w", err)
	}
	return res.LastInsertId()
}

func (h *HomeQueries) ListUnits(ctx context.Context) ([]core.Unit, error) {
	rows, err := h.db.QueryContext(ctx, `
		SELECT id, home_id, name, abbreviation FROM units WHERE home_id = ? ORDER BY name`, h.homeID)
	if err != nil {
		return nil, fmt.Errorf("list units: %w", err)
	}
	defer rows.Close()

	var out []core.Unit
	for rows.Next() {
		var u core.Unit
		if err := rows.Scan(&u.ID, &u.HomeID, &u.Name, &u.Abbreviation); err != nil {
			return nil, fmt.Errorf("scan unit: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (h *HomeQueries) DeleteUnit(ctx context.Context, id int64) error {
	res, err := h.db.ExecContext(ctx, `
		DELETE FROM units WHERE id = ? AND home_id = ?`, id, h.homeID)
	if err != nil {
		return fmt.Errorf("delete unit: %w", err)
	}
	return requireRow(res)
}

func (h *HomeQueries) InsertItemCategory(ctx context.Context, name string) (int64, error) {
	res, err := h.db.ExecContext(ctx, `
		INSERT INTO item_categories (home_id, name) VALUES (?, ?)`, h.homeID, name)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicate
		}
		return 0, fmt.Errorf("insert item category: %w", err)
	}
	return res.LastInsertId()
}

func (h *HomeQueries) ListItemCategories(ctx context.Context) ([]core.ItemCategory, error) {
	rows, err := h.db.QueryContext(ctx, `
		SELECT id, home_id, name FROM item_categories WHERE home_id = ? ORDER BY name`, h.homeID)
	if err != nil {
		return nil, fmt.Errorf("list item categories: %w", err)
	}
	defer rows.Close()

	var out []core.ItemCategory
	for rows.Next() {
		var ic core.ItemCategory
		if err := rows.Scan(&ic.ID, &ic.HomeID, &ic.Name); err != nil {
			return nil, fmt.Errorf("scan item category: %w", err)
		}
		out = append(out, ic)
	}
	return out, rows.Err()
}

func (h *HomeQueries) DeleteItemCategory(ctx context.Context, id int64) error {
	res, err := h.db.ExecContext(ctx, `
		DELETE FROM item_categories WHERE id = ? AND home_id = ?`, id, h.homeID)
	if err != nil {
		return fmt.Errorf("delete item category: %w", err)
	}
	return requireRow(res)
}
