package attendance

import (
	"context"
	"database/sql"
	"errors"

	"tiffin-backend/internal/platform/db"
)

// txQueries run inside one transaction. LockMember and GetDay take row locks.
type txQueries interface {
	LockMember(ctx context.Context, memberID string) (balance int, found bool, err error)
	GetDay(ctx context.Context, memberID, date string) (*Record, error)
	InsertDay(ctx context.Context, r *Record) error
	UpdateDay(ctx context.Context, r *Record) error
	AddCredits(ctx context.Context, memberID string, delta int) error
}

type repository interface {
	InTx(ctx context.Context, fn func(ctx context.Context, q txQueries) error) error
	MemberExists(ctx context.Context, memberID string) (bool, error)
	ListByDate(ctx context.Context, date string) ([]Entry, error)
	ListByMember(ctx context.Context, memberID string) ([]Entry, error)
	ListRange(ctx context.Context, from, to string) ([]Entry, error)
	CountPresent(ctx context.Context, date string) (int64, error)
}

type Store struct{ db *sql.DB }

func NewStore(conn *sql.DB) *Store { return &Store{db: conn} }

func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, q txQueries) error) error {
	return db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		return fn(ctx, &queries{q: tx})
	})
}

type queries struct{ q db.DBTX }

// LockMember: 同一メンバーの更新はこの行ロックで直列化される
func (q *queries) LockMember(ctx context.Context, memberID string) (int, bool, error) {
	var balance int
	err := q.q.QueryRowContext(ctx, `
	SELECT remaining_credits FROM members
	WHERE member_id = ?
	FOR UPDATE`, memberID).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return balance, true, nil
}

// GetDay returns (nil, nil) when the member has no row for that day.
func (q *queries) GetDay(ctx context.Context, memberID, date string) (*Record, error) {
	var r Record
	err := q.q.QueryRowContext(ctx, `
	SELECT attendance_id, member_id, DATE_FORMAT(attended_on, '%Y-%m-%d'), lunch, dinner
	FROM attendances
	WHERE member_id = ? AND attended_on = ?
	FOR UPDATE`, memberID, date).Scan(&r.AttendanceID, &r.MemberID, &r.Date, &r.Lunch, &r.Dinner)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (q *queries) InsertDay(ctx context.Context, r *Record) error {
	res, err := q.q.ExecContext(ctx, `
	INSERT INTO attendances (member_id, attended_on, lunch, dinner)
	VALUES (?, ?, ?, ?)`, r.MemberID, r.Date, r.Lunch, r.Dinner)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	r.AttendanceID = uint64(id)
	return nil
}

func (q *queries) UpdateDay(ctx context.Context, r *Record) error {
	_, err := q.q.ExecContext(ctx, `
	UPDATE attendances SET lunch = ?, dinner = ?
	WHERE attendance_id = ?`, r.Lunch, r.Dinner, r.AttendanceID)
	return err
}

func (q *queries) AddCredits(ctx context.Context, memberID string, delta int) error {
	_, err := q.q.ExecContext(ctx, `
	UPDATE members SET remaining_credits = remaining_credits + ?
	WHERE member_id = ?`, delta, memberID)
	return err
}

func (s *Store) MemberExists(ctx context.Context, memberID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM members WHERE member_id = ? LIMIT 1`, memberID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

const selectEntries = `
	SELECT a.attendance_id, a.member_id, DATE_FORMAT(a.attended_on, '%Y-%m-%d'), a.lunch, a.dinner, m.name, a.updated_at
	FROM attendances a
	JOIN members m ON m.member_id = a.member_id
	`

func (s *Store) ListByDate(ctx context.Context, date string) ([]Entry, error) {
	return s.queryEntries(ctx, selectEntries+`
	WHERE a.attended_on = ?
	ORDER BY m.name ASC, a.member_id ASC`, date)
}

func (s *Store) ListByMember(ctx context.Context, memberID string) ([]Entry, error) {
	return s.queryEntries(ctx, selectEntries+`
	WHERE a.member_id = ?
	ORDER BY a.attended_on DESC`, memberID)
}

func (s *Store) ListRange(ctx context.Context, from, to string) ([]Entry, error) {
	return s.queryEntries(ctx, selectEntries+`
	WHERE a.attended_on BETWEEN ? AND ?
	ORDER BY a.attended_on ASC, m.name ASC, a.member_id ASC`, from, to)
}

func (s *Store) CountPresent(ctx context.Context, date string) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `
	SELECT COUNT(*) FROM attendances
	WHERE attended_on = ? AND (lunch = 1 OR dinner = 1)`, date).Scan(&n)
	return n, err
}

func (s *Store) queryEntries(ctx context.Context, q string, args ...any) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.AttendanceID, &e.MemberID, &e.Date, &e.Lunch, &e.Dinner, &e.MemberName, &e.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
