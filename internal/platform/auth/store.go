package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type Account struct {
	ID           string
	PasswordHash string
	Role         string
	MemberID     *string
	IsDisabled   bool
	CreatedAt    time.Time
}

type AccountStore interface {
	GetByID(ctx context.Context, id string) (*Account, error)
	Create(ctx context.Context, a *Account) error
	Delete(ctx context.Context, id string) (int64, error)
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) AccountStore {
	return &Store{db: db}
}

// GetByID returns (nil, nil) when the account does not exist.
func (s *Store) GetByID(ctx context.Context, id string) (*Account, error) {
	const q = `
SELECT id, password_hash, role, member_id, is_disabled, created_at
FROM auth_accounts
WHERE id = ?
LIMIT 1
`
	var (
		a        Account
		memberID sql.NullString
		disabled int
	)
	err := s.db.QueryRowContext(ctx, q, id).Scan(
		&a.ID,
		&a.PasswordHash,
		&a.Role,
		&memberID,
		&disabled,
		&a.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if memberID.Valid {
		v := memberID.String
		a.MemberID = &v
	}
	a.IsDisabled = disabled != 0
	return &a, nil
}

func (s *Store) Create(ctx context.Context, a *Account) error {
	const q = `
INSERT INTO auth_accounts (id, password_hash, role, member_id, is_disabled, created_at)
VALUES (?, ?, ?, ?, 0, UTC_TIMESTAMP(6))
`
	var memberID any
	if a.MemberID != nil && *a.MemberID != "" {
		memberID = *a.MemberID
	}
	_, err := s.db.ExecContext(ctx, q, a.ID, a.PasswordHash, a.Role, memberID)
	return err
}

func (s *Store) Delete(ctx context.Context, id string) (int64, error) {
	const q = `DELETE FROM auth_accounts WHERE id = ?`
	res, err := s.db.ExecContext(ctx, q, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
