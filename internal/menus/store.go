package menus

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"tiffin-backend/internal/platform/db"
)

type repository interface {
	Create(ctx context.Context, m *Menu) error
	GetByDate(ctx context.Context, date string) (*Menu, error)
	GetByID(ctx context.Context, id string) (*Menu, error)
	ListRange(ctx context.Context, from, to string) ([]Menu, error)
	Update(ctx context.Context, m *Menu) error
	Delete(ctx context.Context, id string) (int64, error)
}

type Store struct{ db *sql.DB }

func NewStore(conn *sql.DB) *Store { return &Store{db: conn} }

const menuColumns = `menu_id, DATE_FORMAT(served_on, '%Y-%m-%d'), notes, created_by, created_at, updated_at`

func (s *Store) Create(ctx context.Context, m *Menu) error {
	return db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		_, err := tx.ExecContext(ctx, `
		INSERT INTO menus (menu_id, served_on, notes, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`, m.ID, m.Date, m.Notes, m.CreatedBy, m.CreatedAt, m.UpdatedAt)
		if err != nil {
			return err
		}
		return insertItems(ctx, tx, m.ID, m.Items)
	})
}

func (s *Store) Update(ctx context.Context, m *Menu) error {
	return db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		_, err := tx.ExecContext(ctx, `
		UPDATE menus SET served_on = ?, notes = ?, updated_at = ?
		WHERE menu_id = ?`, m.Date, m.Notes, m.UpdatedAt, m.ID)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM menu_items WHERE menu_id = ?`, m.ID); err != nil {
			return err
		}
		return insertItems(ctx, tx, m.ID, m.Items)
	})
}

func insertItems(ctx context.Context, tx db.DBTX, menuID string, items []Item) error {
	if len(items) == 0 {
		return nil
	}
	var (
		sb   strings.Builder
		args []any
	)
	sb.WriteString(`INSERT INTO menu_items
	(menu_id, position, name, description, category, price, is_vegetarian, is_available) VALUES `)
	for i, it := range items {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args, menuID, i, it.Name, it.Description, it.Category, it.Price, it.IsVegetarian, it.IsAvailable)
	}
	_, err := tx.ExecContext(ctx, sb.String(), args...)
	return err
}

func (s *Store) GetByDate(ctx context.Context, date string) (*Menu, error) {
	return s.getOne(ctx, `SELECT `+menuColumns+` FROM menus WHERE served_on = ?`, date)
}

func (s *Store) GetByID(ctx context.Context, id string) (*Menu, error) {
	return s.getOne(ctx, `SELECT `+menuColumns+` FROM menus WHERE menu_id = ?`, id)
}

// getOne returns (nil, nil) when no menu matches.
func (s *Store) getOne(ctx context.Context, q string, arg any) (*Menu, error) {
	var m Menu
	err := s.db.QueryRowContext(ctx, q, arg).Scan(&m.ID, &m.Date, &m.Notes, &m.CreatedBy, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	items, err := s.items(ctx, []string{m.ID})
	if err != nil {
		return nil, err
	}
	m.Items = items[m.ID]
	return &m, nil
}

func (s *Store) ListRange(ctx context.Context, from, to string) ([]Menu, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+menuColumns+`
	FROM menus WHERE served_on BETWEEN ? AND ? ORDER BY served_on ASC`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Menu{}
	var ids []string
	for rows.Next() {
		var m Menu
		if err := rows.Scan(&m.ID, &m.Date, &m.Notes, &m.CreatedBy, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
		ids = append(ids, m.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return out, nil
	}

	items, err := s.items(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Items = items[out[i].ID]
	}
	return out, nil
}

func (s *Store) items(ctx context.Context, menuIDs []string) (map[string][]Item, error) {
	args := make([]any, len(menuIDs))
	for i, id := range menuIDs {
		args[i] = id
	}
	q := `SELECT menu_id, name, description, category, price, is_vegetarian, is_available
	FROM menu_items
	WHERE menu_id IN (?` + strings.Repeat(", ?", len(menuIDs)-1) + `)
	ORDER BY menu_id, position`
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]Item, len(menuIDs))
	for rows.Next() {
		var (
			menuID string
			it     Item
		)
		if err := rows.Scan(&menuID, &it.Name, &it.Description, &it.Category, &it.Price, &it.IsVegetarian, &it.IsAvailable); err != nil {
			return nil, err
		}
		out[menuID] = append(out[menuID], it)
	}
	return out, rows.Err()
}

func (s *Store) Delete(ctx context.Context, id string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM menus WHERE menu_id = ?`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
