package menus

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"tiffin-backend/internal/platform/db"
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

type Service struct {
	repo  repository
	loc   *time.Location
	now   func() time.Time
	newID func() (string, error)
}

func NewService(conn *sql.DB, loc *time.Location) *Service {
	return newService(NewStore(conn), loc)
}

func newService(repo repository, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{repo: repo, loc: loc, now: time.Now, newID: newULID}
}

func newULID() (string, error) {
	id, err := ulid.New(ulid.Timestamp(time.Now().UTC()), ulid.Monotonic(rand.Reader, 0))
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// POST /menus
func (s *Service) Create(ctx context.Context, req CreateMenuRequest, createdBy string) (MenuResponse, error) {
	day, err := s.parseDate(req.Date)
	if err != nil {
		return MenuResponse{}, ErrInvalid("date must be YYYY-MM-DD or 'today'")
	}
	items, err := toItems(req.Items)
	if err != nil {
		return MenuResponse{}, err
	}

	id, err := s.newID()
	if err != nil {
		return MenuResponse{}, fmt.Errorf("generate id: %w", err)
	}
	now := s.now().UTC()
	m := Menu{
		ID:        id,
		Date:      day,
		Notes:     strings.TrimSpace(req.Notes),
		CreatedBy: createdBy,
		Items:     items,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, &m); err != nil {
		if db.IsDuplicateKey(err) {
			return MenuResponse{}, ErrConflict("menu already exists for this date")
		}
		return MenuResponse{}, fmt.Errorf("create menu: %w", err)
	}
	return m.toDTO(), nil
}

// GET /menus/today
func (s *Service) Today(ctx context.Context) (MenuResponse, error) {
	return s.ByDate(ctx, "today")
}

// GET /menus/date/:date
func (s *Service) ByDate(ctx context.Context, date string) (MenuResponse, error) {
	day, err := s.parseDate(date)
	if err != nil {
		return MenuResponse{}, ErrInvalid("date must be YYYY-MM-DD or 'today'")
	}
	m, err := s.repo.GetByDate(ctx, day)
	if err != nil {
		return MenuResponse{}, fmt.Errorf("get menu: %w", err)
	}
	if m == nil {
		return MenuResponse{}, ErrNotFound("no menu available for " + day)
	}
	return m.toDTO(), nil
}

// GET /menus/range?from=&to=
func (s *Service) Range(ctx context.Context, from, to string) ([]MenuResponse, error) {
	f, err := s.parseDate(from)
	if err != nil {
		return nil, ErrInvalid("from must be YYYY-MM-DD or 'today'")
	}
	t, err := s.parseDate(to)
	if err != nil {
		return nil, ErrInvalid("to must be YYYY-MM-DD or 'today'")
	}
	ft, _ := time.Parse(DateLayout, f)
	tt, _ := time.Parse(DateLayout, t)
	if tt.Before(ft) {
		return nil, ErrInvalid("to must be >= from")
	}
	if tt.Sub(ft) > MaxRangeDays*24*time.Hour {
		return nil, ErrInvalid(fmt.Sprintf("range must not exceed %d days", MaxRangeDays))
	}

	rows, err := s.repo.ListRange(ctx, f, t)
	if err != nil {
		return nil, fmt.Errorf("list menus: %w", err)
	}
	out := make([]MenuResponse, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.toDTO())
	}
	return out, nil
}

// PUT /menus/:id
func (s *Service) Update(ctx context.Context, id string, req UpdateMenuRequest) (MenuResponse, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return MenuResponse{}, fmt.Errorf("get menu: %w", err)
	}
	if m == nil {
		return MenuResponse{}, ErrNotFound("menu not found")
	}

	if req.Date != nil {
		day, err := s.parseDate(*req.Date)
		if err != nil {
			return MenuResponse{}, ErrInvalid("date must be YYYY-MM-DD or 'today'")
		}
		m.Date = day
	}
	if req.Notes != nil {
		m.Notes = strings.TrimSpace(*req.Notes)
	}
	if req.Items != nil {
		items, err := toItems(*req.Items)
		if err != nil {
			return MenuResponse{}, err
		}
		m.Items = items
	}
	m.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, m); err != nil {
		if db.IsDuplicateKey(err) {
			return MenuResponse{}, ErrConflict("menu already exists for this date")
		}
		return MenuResponse{}, fmt.Errorf("update menu: %w", err)
	}
	return m.toDTO(), nil
}

// DELETE /menus/:id
func (s *Service) Delete(ctx context.Context, id string) error {
	n, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete menu: %w", err)
	}
	if n == 0 {
		return ErrNotFound("menu not found")
	}
	return nil
}

func toItems(in []ItemRequest) ([]Item, error) {
	if len(in) > MaxItems {
		return nil, ErrInvalid(fmt.Sprintf("at most %d items per menu", MaxItems))
	}
	out := make([]Item, 0, len(in))
	for i, r := range in {
		name := strings.TrimSpace(r.Name)
		if name == "" {
			return nil, ErrInvalid(fmt.Sprintf("items[%d].name is required", i))
		}
		cat := strings.ToLower(strings.TrimSpace(r.Category))
		if _, ok := categories[cat]; !ok {
			return nil, ErrInvalid(fmt.Sprintf("items[%d].category must be breakfast, lunch, dinner or snacks", i))
		}
		if r.Price.IsNegative() {
			return nil, ErrInvalid(fmt.Sprintf("items[%d].price must be >= 0", i))
		}
		out = append(out, Item{
			Name:         name,
			Description:  strings.TrimSpace(r.Description),
			Category:     cat,
			Price:        r.Price.Round(2),
			IsVegetarian: r.IsVegetarian == nil || *r.IsVegetarian,
			IsAvailable:  r.IsAvailable == nil || *r.IsAvailable,
		})
	}
	return out, nil
}

func (s *Service) parseDate(v string) (string, error) {
	v = strings.TrimSpace(strings.ToLower(v))
	if v == "today" {
		return s.now().In(s.loc).Format(DateLayout), nil
	}
	t, err := time.ParseInLocation(DateLayout, v, s.loc)
	if err != nil {
		return "", err
	}
	return t.Format(DateLayout), nil
}
