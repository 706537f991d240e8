package members

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"

	"tiffin-backend/internal/platform/db"
)

type txQueries interface {
	LockMember(ctx context.Context, id string) (*Member, error)
	UpdateMember(ctx context.Context, m *Member) error
	InsertPayment(ctx context.Context, p *Payment) error
	DeletePayments(ctx context.Context, memberID string) error
}

type repository interface {
	InTx(ctx context.Context, fn func(ctx context.Context, q txQueries) error) error
	Insert(ctx context.Context, m *Member) error
	Get(ctx context.Context, id string) (*Member, error)
	List(ctx context.Context) ([]Member, error)
	ListExhausted(ctx context.Context) ([]Member, error)
	Delete(ctx context.Context, id string) (int64, error)
	ResetCredits(ctx context.Context) (int64, error)
	ListPayments(ctx context.Context, memberID string) ([]Payment, error)
	Revenue(ctx context.Context) (decimal.Decimal, int64, error)
}

type Store struct{ db *sql.DB }

func NewStore(conn *sql.DB) *Store { return &Store{db: conn} }

func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, q txQueries) error) error {
	return db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		return fn(ctx, &queries{q: tx})
	})
}

const memberColumns = `member_id, name, hostel_name, college_name, whatsapp_number,
	subscription_amount, total_paid, max_credits, remaining_credits, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanMember(row scanner) (*Member, error) {
	var m Member
	err := row.Scan(&m.ID, &m.Name, &m.HostelName, &m.CollegeName, &m.WhatsAppNumber,
		&m.SubscriptionAmount, &m.TotalPaid, &m.MaxCredits, &m.RemainingCredits, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

type queries struct{ q db.DBTX }

// LockMember returns (nil, nil) when the member does not exist.
func (q *queries) LockMember(ctx context.Context, id string) (*Member, error) {
	m, err := scanMember(q.q.QueryRowContext(ctx, `SELECT `+memberColumns+`
	FROM members WHERE member_id = ? FOR UPDATE`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return m, err
}

func (q *queries) UpdateMember(ctx context.Context, m *Member) error {
	_, err := q.q.ExecContext(ctx, `
	UPDATE members SET
		name = ?, hostel_name = ?, college_name = ?, whatsapp_number = ?,
		subscription_amount = ?, total_paid = ?, max_credits = ?, remaining_credits = ?
	WHERE member_id = ?`,
		m.Name, m.HostelName, m.CollegeName, m.WhatsAppNumber,
		m.SubscriptionAmount, m.TotalPaid, m.MaxCredits, m.RemainingCredits, m.ID)
	return err
}

func (q *queries) InsertPayment(ctx context.Context, p *Payment) error {
	_, err := q.q.ExecContext(ctx, `
	INSERT INTO member_payments (payment_id, member_id, amount, description, paid_at)
	VALUES (?, ?, ?, ?, ?)`, p.ID, p.MemberID, p.Amount, p.Description, p.PaidAt)
	return err
}

func (q *queries) DeletePayments(ctx context.Context, memberID string) error {
	_, err := q.q.ExecContext(ctx, `DELETE FROM member_payments WHERE member_id = ?`, memberID)
	return err
}

func (s *Store) Insert(ctx context.Context, m *Member) error {
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO members (member_id, name, hostel_name, college_name, whatsapp_number,
		subscription_amount, total_paid, max_credits, remaining_credits, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.Name, m.HostelName, m.CollegeName, m.WhatsAppNumber,
		m.SubscriptionAmount, m.TotalPaid, m.MaxCredits, m.RemainingCredits, m.CreatedAt, m.UpdatedAt)
	return err
}

// Get returns (nil, nil) when the member does not exist.
func (s *Store) Get(ctx context.Context, id string) (*Member, error) {
	m, err := scanMember(s.db.QueryRowContext(ctx, `SELECT `+memberColumns+`
	FROM members WHERE member_id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return m, err
}

func (s *Store) List(ctx context.Context) ([]Member, error) {
	return s.query(ctx, `SELECT `+memberColumns+`
	FROM members ORDER BY created_at DESC, member_id DESC`)
}

func (s *Store) ListExhausted(ctx context.Context) ([]Member, error) {
	return s.query(ctx, `SELECT `+memberColumns+`
	FROM members WHERE remaining_credits <= 0 ORDER BY name ASC, member_id ASC`)
}

func (s *Store) Delete(ctx context.Context, id string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM members WHERE member_id = ?`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ResetCredits returns the number of members whose balance changed.
func (s *Store) ResetCredits(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
	UPDATE members SET remaining_credits = max_credits
	WHERE remaining_credits <> max_credits`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) ListPayments(ctx context.Context, memberID string) ([]Payment, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT payment_id, member_id, amount, description, paid_at
	FROM member_payments
	WHERE member_id = ?
	ORDER BY paid_at ASC, payment_id ASC`, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Payment{}
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.MemberID, &p.Amount, &p.Description, &p.PaidAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) Revenue(ctx context.Context) (decimal.Decimal, int64, error) {
	var (
		sum decimal.NullDecimal
		n   int64
	)
	err := s.db.QueryRowContext(ctx, `SELECT SUM(subscription_amount), COUNT(*) FROM members`).Scan(&sum, &n)
	if err != nil {
		return decimal.Zero, 0, err
	}
	if !sum.Valid {
		return decimal.Zero, n, nil
	}
	return sum.Decimal, n, nil
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]Member, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Member{}
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}
