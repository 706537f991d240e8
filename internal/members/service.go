package members

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"

	"tiffin-backend/internal/platform/events"
	"tiffin-backend/internal/platform/metrics"
)

// ===== Error model =====
type Code string

const (
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeConflict        Code = "CONFLICT"
	CodeLimitExceeded   Code = "LIMIT_EXCEEDED"
	CodeInternal        Code = "INTERNAL"
)

type APIError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string           { return fmt.Sprintf("%s: %s", e.Code, e.Message) }
func ErrInvalid(msg string) *APIError       { return &APIError{Code: CodeInvalidArgument, Message: msg} }
func ErrNotFound(msg string) *APIError      { return &APIError{Code: CodeNotFound, Message: msg} }
func ErrConflict(msg string) *APIError      { return &APIError{Code: CodeConflict, Message: msg} }
func ErrLimitExceeded(msg string) *APIError { return &APIError{Code: CodeLimitExceeded, Message: msg} }
func ErrInternal(msg string) *APIError      { return &APIError{Code: CodeInternal, Message: msg} }

func toHTTPStatus(err error) int {
	var api *APIError
	if errors.As(err, &api) {
		switch api.Code {
		case CodeInvalidArgument:
			return 400
		case CodeNotFound:
			return 404
		case CodeConflict:
			return 409
		case CodeLimitExceeded:
			return 422
		default:
			return 500
		}
	}
	return 500
}

// ===== インターフェース群 =====

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

type IDGen interface {
	New() (string, error)
}

type ulidGen struct{}

func (ulidGen) New() (string, error) {
	t := time.Now().UTC()
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(t), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// ===== Service本体 =====

type Service struct {
	repo    repository
	clock   Clock
	id      IDGen
	pub     events.Publisher
	metrics *metrics.Metrics
}

func NewService(conn *sql.DB, pub events.Publisher, m *metrics.Metrics) *Service {
	return newService(NewStore(conn), pub, m)
}

func newService(repo repository, pub events.Publisher, m *metrics.Metrics) *Service {
	if pub == nil {
		pub = events.Noop{}
	}
	return &Service{repo: repo, clock: realClock{}, id: ulidGen{}, pub: pub, metrics: m}
}

type reactivatedEvent struct {
	MemberID           string          `json:"member_id"`
	SubscriptionAmount decimal.Decimal `json:"subscription_amount"`
	MaxCredits         int             `json:"max_credits"`
}

type paymentEvent struct {
	MemberID  string          `json:"member_id"`
	PaymentID string          `json:"payment_id"`
	Amount    decimal.Decimal `json:"amount"`
	TotalPaid decimal.Decimal `json:"total_paid"`
}

type resetEvent struct {
	Reset int64     `json:"reset"`
	At    time.Time `json:"at"`
}

// POST /members
func (s *Service) Create(ctx context.Context, req CreateMemberRequest) (MemberResponse, error) {
	name := normalizeName(req.Name)
	if name == "" {
		return MemberResponse{}, ErrInvalid("name is required")
	}
	if !req.SubscriptionAmount.IsPositive() {
		return MemberResponse{}, ErrInvalid("subscription_amount must be > 0")
	}
	if req.MaxCredits <= 0 {
		return MemberResponse{}, ErrInvalid("max_credits must be > 0")
	}

	id, err := s.id.New()
	if err != nil {
		return MemberResponse{}, fmt.Errorf("generate id: %w", err)
	}
	now := s.clock.Now().UTC()
	m := Member{
		ID:                 id,
		Name:               name,
		HostelName:         strings.TrimSpace(req.HostelName),
		CollegeName:        strings.TrimSpace(req.CollegeName),
		WhatsAppNumber:     strings.TrimSpace(req.WhatsAppNumber),
		SubscriptionAmount: req.SubscriptionAmount.Round(2),
		TotalPaid:          decimal.Zero,
		MaxCredits:         req.MaxCredits,
		RemainingCredits:   req.MaxCredits,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.repo.Insert(ctx, &m); err != nil {
		return MemberResponse{}, fmt.Errorf("insert member: %w", err)
	}
	return m.toDTO(nil), nil
}

// GET /members
func (s *Service) List(ctx context.Context) ([]MemberResponse, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return toDTOs(rows), nil
}

// GET /members/:id
func (s *Service) Get(ctx context.Context, id string) (MemberResponse, error) {
	m, err := s.repo.Get(ctx, id)
	if err != nil {
		return MemberResponse{}, fmt.Errorf("get member: %w", err)
	}
	if m == nil {
		return MemberResponse{}, ErrNotFound("member not found")
	}
	history, err := s.repo.ListPayments(ctx, id)
	if err != nil {
		return MemberResponse{}, fmt.Errorf("list payments: %w", err)
	}
	return m.toDTO(history), nil
}

// PUT /members/:id
func (s *Service) Update(ctx context.Context, id string, req UpdateMemberRequest) (MemberResponse, error) {
	var out Member
	err := s.repo.InTx(ctx, func(ctx context.Context, q txQueries) error {
		m, err := q.LockMember(ctx, id)
		if err != nil {
			return fmt.Errorf("lock member: %w", err)
		}
		if m == nil {
			return ErrNotFound("member not found")
		}

		if req.Name != nil {
			name := normalizeName(*req.Name)
			if name == "" {
				return ErrInvalid("name must not be empty")
			}
			m.Name = name
		}
		if req.HostelName != nil {
			m.HostelName = strings.TrimSpace(*req.HostelName)
		}
		if req.CollegeName != nil {
			m.CollegeName = strings.TrimSpace(*req.CollegeName)
		}
		if req.WhatsAppNumber != nil {
			m.WhatsAppNumber = strings.TrimSpace(*req.WhatsAppNumber)
		}
		if req.SubscriptionAmount != nil {
			amt := req.SubscriptionAmount.Round(2)
			if !amt.IsPositive() {
				return ErrInvalid("subscription_amount must be > 0")
			}
			if amt.LessThan(m.TotalPaid) {
				return ErrLimitExceeded("subscription_amount cannot be less than total_paid")
			}
			m.SubscriptionAmount = amt
		}
		if req.MaxCredits != nil {
			if *req.MaxCredits <= 0 {
				return ErrInvalid("max_credits must be > 0")
			}
			m.MaxCredits = *req.MaxCredits
		}
		m.UpdatedAt = s.clock.Now().UTC()

		if err := q.UpdateMember(ctx, m); err != nil {
			return fmt.Errorf("update member: %w", err)
		}
		out = *m
		return nil
	})
	if err != nil {
		return MemberResponse{}, err
	}
	return out.toDTO(nil), nil
}

// DELETE /members/:id
func (s *Service) Delete(ctx context.Context, id string) error {
	n, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	if n == 0 {
		return ErrNotFound("member not found")
	}
	return nil
}

// PUT /members/reset-credits
func (s *Service) ResetCredits(ctx context.Context) (ResetResponse, error) {
	n, err := s.repo.ResetCredits(ctx)
	if err != nil {
		return ResetResponse{}, fmt.Errorf("reset credits: %w", err)
	}
	events.Emit(s.pub, events.TopicCreditsReset, resetEvent{Reset: n, At: s.clock.Now().UTC()})
	return ResetResponse{Reset: n}, nil
}

// GET /members/exhausted
func (s *Service) ListExhausted(ctx context.Context) ([]MemberResponse, error) {
	rows, err := s.repo.ListExhausted(ctx)
	if err != nil {
		return nil, fmt.Errorf("list exhausted members: %w", err)
	}
	return toDTOs(rows), nil
}

// PUT /members/:id/reactivate
// Reactivate starts a new subscription cycle: balance back to the new max,
// nothing paid, payment history cleared.
func (s *Service) Reactivate(ctx context.Context, id string, req ReactivateRequest) (MemberResponse, error) {
	if req.SubscriptionAmount == nil || req.MaxCredits == nil {
		return MemberResponse{}, ErrInvalid("subscription_amount and max_credits are required")
	}
	amt := req.SubscriptionAmount.Round(2)
	if !amt.IsPositive() || *req.MaxCredits <= 0 {
		return MemberResponse{}, ErrInvalid("invalid subscription amount or max credits")
	}

	var out Member
	err := s.repo.InTx(ctx, func(ctx context.Context, q txQueries) error {
		m, err := q.LockMember(ctx, id)
		if err != nil {
			return fmt.Errorf("lock member: %w", err)
		}
		if m == nil {
			return ErrNotFound("member not found")
		}
		m.SubscriptionAmount = amt
		m.MaxCredits = *req.MaxCredits
		m.RemainingCredits = *req.MaxCredits
		m.TotalPaid = decimal.Zero
		m.UpdatedAt = s.clock.Now().UTC()

		if err := q.DeletePayments(ctx, id); err != nil {
			return fmt.Errorf("clear payments: %w", err)
		}
		if err := q.UpdateMember(ctx, m); err != nil {
			return fmt.Errorf("update member: %w", err)
		}
		out = *m
		return nil
	})
	if err != nil {
		return MemberResponse{}, err
	}

	events.Emit(s.pub, events.TopicMemberReactivated, reactivatedEvent{
		MemberID:           id,
		SubscriptionAmount: out.SubscriptionAmount,
		MaxCredits:         out.MaxCredits,
	})
	return out.toDTO([]Payment{}), nil
}

// POST /members/:id/payments
func (s *Service) RecordPayment(ctx context.Context, id string, req PaymentRequest) (MemberResponse, error) {
	if req.Amount == nil || !req.Amount.Round(2).IsPositive() {
		return MemberResponse{}, ErrInvalid("please provide a valid payment amount")
	}
	amount := req.Amount.Round(2)
	desc := strings.TrimSpace(req.Description)
	if desc == "" {
		desc = DefaultPaymentDescription
	}

	var (
		out Member
		pay Payment
	)
	err := s.repo.InTx(ctx, func(ctx context.Context, q txQueries) error {
		m, err := q.LockMember(ctx, id)
		if err != nil {
			return fmt.Errorf("lock member: %w", err)
		}
		if m == nil {
			return ErrNotFound("member not found")
		}
		if m.TotalPaid.Add(amount).GreaterThan(m.SubscriptionAmount) {
			return ErrLimitExceeded("payment exceeds the subscription amount")
		}

		pid, err := s.id.New()
		if err != nil {
			return fmt.Errorf("generate id: %w", err)
		}
		now := s.clock.Now().UTC()
		pay = Payment{ID: pid, MemberID: id, Amount: amount, Description: desc, PaidAt: now}
		if err := q.InsertPayment(ctx, &pay); err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}

		m.TotalPaid = m.TotalPaid.Add(amount)
		m.UpdatedAt = now
		if err := q.UpdateMember(ctx, m); err != nil {
			return fmt.Errorf("update member: %w", err)
		}
		out = *m
		return nil
	})
	if err != nil {
		return MemberResponse{}, err
	}

	s.metrics.PaymentRecorded()
	events.Emit(s.pub, events.TopicPaymentRecorded, paymentEvent{
		MemberID:  id,
		PaymentID: pay.ID,
		Amount:    pay.Amount,
		TotalPaid: out.TotalPaid,
	})

	history, err := s.repo.ListPayments(ctx, id)
	if err != nil {
		return MemberResponse{}, fmt.Errorf("list payments: %w", err)
	}
	return out.toDTO(history), nil
}

// GET /members/:id/payments
func (s *Service) ListPayments(ctx context.Context, id string) ([]PaymentResponse, error) {
	m, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	if m == nil {
		return nil, ErrNotFound("member not found")
	}
	rows, err := s.repo.ListPayments(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	out := make([]PaymentResponse, 0, len(rows))
	for _, p := range rows {
		out = append(out, p.toDTO())
	}
	return out, nil
}

// GET /stats/monthly-revenue
func (s *Service) MonthlyRevenue(ctx context.Context) (RevenueResponse, error) {
	sum, n, err := s.repo.Revenue(ctx)
	if err != nil {
		return RevenueResponse{}, fmt.Errorf("monthly revenue: %w", err)
	}
	return RevenueResponse{MonthlyRevenue: sum, Members: n}, nil
}

func toDTOs(rows []Member) []MemberResponse {
	out := make([]MemberResponse, 0, len(rows))
	for i := 0; i < len(rows); i++ {
		out = append(out, rows[i].toDTO(nil))
	}
	return out
}

// normalizeName trims, collapses inner whitespace and applies NFC.
func normalizeName(s string) string {
	return norm.NFC.String(strings.Join(strings.Fields(s), " "))
}
