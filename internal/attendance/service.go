package attendance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"tiffin-backend/internal/platform/events"
	"tiffin-backend/internal/platform/metrics"
)

// ===== Error model =====
type Code string

const (
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeConflict        Code = "CONFLICT"
	CodeInternal        Code = "INTERNAL"
)

type APIError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string      { return fmt.Sprintf("%s: %s", e.Code, e.Message) }
func ErrInvalid(msg string) *APIError  { return &APIError{Code: CodeInvalidArgument, Message: msg} }
func ErrNotFound(msg string) *APIError { return &APIError{Code: CodeNotFound, Message: msg} }
func ErrConflict(msg string) *APIError { return &APIError{Code: CodeConflict, Message: msg} }
func ErrInternal(msg string) *APIError { return &APIError{Code: CodeInternal, Message: msg} }

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
		default:
			return 500
		}
	}
	return 500
}

// ===== Service =====

type Service struct {
	repo    repository
	pub     events.Publisher
	metrics *metrics.Metrics
	loc     *time.Location
	now     func() time.Time
}

func NewService(conn *sql.DB, pub events.Publisher, m *metrics.Metrics, loc *time.Location) *Service {
	return newService(NewStore(conn), pub, m, loc)
}

func newService(repo repository, pub events.Publisher, m *metrics.Metrics, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	if pub == nil {
		pub = events.Noop{}
	}
	return &Service{repo: repo, pub: pub, metrics: m, loc: loc, now: time.Now}
}

type markedEvent struct {
	MemberID         string `json:"member_id"`
	Date             string `json:"date"`
	Lunch            bool   `json:"lunch"`
	Dinner           bool   `json:"dinner"`
	RemainingCredits int    `json:"remaining_credits"`
}

type exhaustedEvent struct {
	MemberID string `json:"member_id"`
	Date     string `json:"date"`
}

// PUT /attendance/:memberId/:date/:meal
func (s *Service) SetMealPresence(ctx context.Context, memberID, date, meal string, want bool) (ToggleResponse, error) {
	m, ok := ParseMeal(meal)
	if !ok {
		return ToggleResponse{}, ErrInvalid("meal must be 'lunch' or 'dinner'")
	}
	day, err := s.parseDate(date)
	if err != nil {
		return ToggleResponse{}, ErrInvalid("date must be YYYY-MM-DD or 'today'")
	}
	if strings.TrimSpace(memberID) == "" {
		return ToggleResponse{}, ErrInvalid("member id is required")
	}

	t, balance, err := s.apply(ctx, memberID, day, func(cur *Record, balance int) Transition {
		return Toggle(cur, m, want, balance)
	})
	if err != nil {
		return ToggleResponse{}, err
	}
	return ToggleResponse{Record: t.Record.toDTO(), RemainingCredits: balance}, nil
}

// apply runs one member-day update in a transaction: member row lock, day row
// lock, transition, writes. It returns the balance after the update.
func (s *Service) apply(ctx context.Context, memberID, day string, step func(*Record, int) Transition) (Transition, int, error) {
	var (
		t     Transition
		after int
	)
	err := s.repo.InTx(ctx, func(ctx context.Context, q txQueries) error {
		balance, found, err := q.LockMember(ctx, memberID)
		if err != nil {
			return fmt.Errorf("lock member: %w", err)
		}
		if !found {
			return ErrNotFound("member not found")
		}
		cur, err := q.GetDay(ctx, memberID, day)
		if err != nil {
			return fmt.Errorf("load attendance: %w", err)
		}

		t = step(cur, balance)
		after = balance + t.Delta

		switch {
		case t.Create:
			t.Record.MemberID = memberID
			t.Record.Date = day
			if err := q.InsertDay(ctx, t.Record); err != nil {
				return fmt.Errorf("insert attendance: %w", err)
			}
		case t.Changed:
			if err := q.UpdateDay(ctx, t.Record); err != nil {
				return fmt.Errorf("update attendance: %w", err)
			}
		}
		if t.Delta != 0 {
			if err := q.AddCredits(ctx, memberID, t.Delta); err != nil {
				return fmt.Errorf("update credits: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return Transition{}, 0, err
	}
	s.observe(memberID, day, t, after)
	return t, after, nil
}

// observe runs after commit.
func (s *Service) observe(memberID, day string, t Transition, after int) {
	for i := 0; i < t.Debits; i++ {
		s.metrics.CreditChange(metrics.CreditDebit)
	}
	for i := 0; i < t.Refunds; i++ {
		s.metrics.CreditChange(metrics.CreditRefund)
	}
	for i := 0; i < t.FloorSkips; i++ {
		s.metrics.CreditChange(metrics.CreditFloorSkip)
	}
	if t.FloorSkipped() {
		slog.Info("meal marked without credit", "member_id", memberID, "date", day, "remaining_credits", after)
	}
	if !t.Changed {
		return
	}
	events.Emit(s.pub, events.TopicAttendanceMarked, markedEvent{
		MemberID:         memberID,
		Date:             day,
		Lunch:            t.Record.Has(MealLunch),
		Dinner:           t.Record.Has(MealDinner),
		RemainingCredits: after,
	})
	if t.Debits > 0 && after == 0 {
		events.Emit(s.pub, events.TopicMemberExhausted, exhaustedEvent{MemberID: memberID, Date: day})
	}
}

// POST /attendance
func (s *Service) CreateOrUpdateAttendance(ctx context.Context, req BulkRequest) (BulkResponse, error) {
	day, err := s.parseDate(req.Date)
	if err != nil {
		return BulkResponse{}, ErrInvalid("date must be YYYY-MM-DD or 'today'")
	}
	if len(req.Members) == 0 {
		return BulkResponse{}, ErrInvalid("members must not be empty")
	}
	if len(req.Members) > MaxBulkEntries {
		return BulkResponse{}, ErrInvalid(fmt.Sprintf("at most %d members per request", MaxBulkEntries))
	}

	out := BulkResponse{Date: day, Results: make([]BulkEntryResult, 0, len(req.Members))}
	for _, e := range req.Members {
		res := s.applyEntry(ctx, day, e)
		switch res.Status {
		case EntryUpdated:
			out.Updated++
		case EntryUnchanged:
			out.Unchanged++
		case EntrySkipped:
			out.Skipped++
		case EntryFailed:
			out.Failed++
		}
		s.metrics.BulkEntry(res.Status)
		out.Results = append(out.Results, res)
	}
	return out, nil
}

func (s *Service) applyEntry(ctx context.Context, day string, e BulkEntry) BulkEntryResult {
	memberID := strings.TrimSpace(e.UserID)
	if memberID == "" {
		return BulkEntryResult{UserID: e.UserID, Status: EntrySkipped}
	}

	t, after, err := s.apply(ctx, memberID, day, func(cur *Record, balance int) Transition {
		return Apply(cur, e.Lunch, e.Dinner, balance)
	})
	if err != nil {
		var api *APIError
		if !errors.As(err, &api) {
			slog.Error("bulk attendance entry failed", "member_id", memberID, "date", day, "error", err)
			api = ErrInternal("failed to update attendance")
		}
		return BulkEntryResult{UserID: memberID, Status: EntryFailed, Error: api}
	}

	status := EntryUnchanged
	if t.Changed {
		status = EntryUpdated
	}
	return BulkEntryResult{
		UserID:           memberID,
		Status:           status,
		Record:           t.Record.toDTO(),
		RemainingCredits: &after,
	}
}

// GET /attendance/:date
func (s *Service) ListByDate(ctx context.Context, date string) ([]EntryResponse, error) {
	day, err := s.parseDate(date)
	if err != nil {
		return nil, ErrInvalid("date must be YYYY-MM-DD or 'today'")
	}
	rows, err := s.repo.ListByDate(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("list attendance by date: %w", err)
	}
	return toDTOs(rows), nil
}

// GET /attendance/member/:memberId
func (s *Service) ListByMember(ctx context.Context, memberID string) ([]EntryResponse, error) {
	ok, err := s.repo.MemberExists(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("find member: %w", err)
	}
	if !ok {
		return nil, ErrNotFound("member not found")
	}
	rows, err := s.repo.ListByMember(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("list attendance by member: %w", err)
	}
	return toDTOs(rows), nil
}

// GET /attendance/today/count
func (s *Service) TodayCount(ctx context.Context) (CountResponse, error) {
	day := s.today()
	n, err := s.repo.CountPresent(ctx, day)
	if err != nil {
		return CountResponse{}, fmt.Errorf("count attendance: %w", err)
	}
	return CountResponse{Date: day, Count: n}, nil
}

func toDTOs(rows []Entry) []EntryResponse {
	out := make([]EntryResponse, 0, len(rows))
	for i := 0; i < len(rows); i++ {
		out = append(out, rows[i].toDTO())
	}
	return out
}

func (s *Service) today() string {
	return s.now().In(s.loc).Format(DateLayout)
}

// parseDate accepts YYYY-MM-DD or "today" in the service time zone.
func (s *Service) parseDate(v string) (string, error) {
	v = strings.TrimSpace(strings.ToLower(v))
	if v == "today" {
		return s.today(), nil
	}
	t, err := time.ParseInLocation(DateLayout, v, s.loc)
	if err != nil {
		return "", err
	}
	return t.Format(DateLayout), nil
}
