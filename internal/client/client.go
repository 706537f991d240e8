package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
)

const (
	MealLunch  = "lunch"
	MealDinner = "dinner"

	defaultTimeout = 10 * time.Second
	maxRetries     = 3
)

var errEmptyResponse = errors.New("empty response from server")

// APIError is a non-2xx response decoded from the {"error":{code,message}} envelope.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

func IsUnauthenticated(err error) bool {
	var api *APIError
	return errors.As(err, &api) && api.Status == http.StatusUnauthorized
}

type Record struct {
	AttendanceID uint64 `json:"attendance_id"`
	MemberID     string `json:"member_id"`
	Date         string `json:"date"`
	Lunch        bool   `json:"lunch"`
	Dinner       bool   `json:"dinner"`
}

type ToggleResponse struct {
	Record           *Record `json:"record"`
	RemainingCredits int     `json:"remaining_credits"`
}

type Entry struct {
	Record
	MemberName string `json:"member_name"`
}

type Member struct {
	MemberID         string `json:"member_id"`
	Name             string `json:"name"`
	RemainingCredits int    `json:"remaining_credits"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Role      string    `json:"role"`
	MemberID  *string   `json:"member_id"`
}

// Client talks to the /api/v1 surface on behalf of one Session.
type Client struct {
	base    string
	http    *http.Client
	session *Session
	backoff func() retry.Backoff
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithBackoff replaces the retry policy of idempotent requests.
func WithBackoff(b func() retry.Backoff) Option {
	return func(c *Client) { c.backoff = b }
}

func New(baseURL string, session *Session, opts ...Option) *Client {
	c := &Client{
		base:    strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		session: session,
		backoff: func() retry.Backoff {
			return retry.WithMaxRetries(maxRetries, retry.NewExponential(200*time.Millisecond))
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) Session() *Session { return c.session }

func (c *Client) Login(ctx context.Context, id, password string) error {
	var res loginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", map[string]string{"id": id, "password": password}, nil, &res); err != nil {
		return err
	}
	mid := ""
	if res.MemberID != nil {
		mid = *res.MemberID
	}
	c.session.set(res.Token, id, res.Role, mid, res.ExpiresAt)
	return nil
}

// Toggle is not retried: a lost response would otherwise be applied twice
// from the caller's point of view.
func (c *Client) Toggle(ctx context.Context, memberID, date, meal string, status bool) (*ToggleResponse, error) {
	path := fmt.Sprintf("/attendance/%s/%s/%s", url.PathEscape(memberID), url.PathEscape(date), url.PathEscape(meal))
	var res ToggleResponse
	if err := c.do(ctx, http.MethodPut, path, map[string]bool{"status": status}, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) ListByDate(ctx context.Context, date string) ([]Entry, error) {
	var out []Entry
	err := c.retry(ctx, func(ctx context.Context) error {
		return c.do(ctx, http.MethodGet, "/attendance/"+url.PathEscape(date), nil, nil, &out)
	})
	return out, err
}

func (c *Client) ListMembers(ctx context.Context) ([]Member, error) {
	var out struct {
		Members []Member `json:"members"`
	}
	err := c.retry(ctx, func(ctx context.Context) error {
		return c.do(ctx, http.MethodGet, "/members", nil, nil, &out)
	})
	return out.Members, err
}

// retry repeats fn on transport errors and 5xx responses.
func (c *Client) retry(ctx context.Context, fn func(ctx context.Context) error) error {
	return retry.Do(ctx, c.backoff(), func(ctx context.Context) error {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		var api *APIError
		if errors.As(err, &api) && api.Status < http.StatusInternalServerError {
			return err
		}
		return retry.RetryableError(err)
	})
}

func (c *Client) do(ctx context.Context, method, path string, body any, header http.Header, out any) error {
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if tok := c.session.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeError(resp *http.Response) error {
	api := &APIError{Status: resp.StatusCode, Code: "UNKNOWN", Message: http.StatusText(resp.StatusCode)}
	var env struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&env); err == nil && env.Error.Code != "" {
		api.Code = env.Error.Code
		api.Message = env.Error.Message
	}
	return api
}

type BulkEntry struct {
	UserID string `json:"user_id"`
	Lunch  bool   `json:"lunch"`
	Dinner bool   `json:"dinner"`
}

type BulkEntryResult struct {
	UserID           string  `json:"user_id"`
	Status           string  `json:"status"`
	Record           *Record `json:"record"`
	RemainingCredits *int    `json:"remaining_credits"`
	Error            *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type BulkResult struct {
	Date      string            `json:"date"`
	Results   []BulkEntryResult `json:"results"`
	Updated   int               `json:"updated"`
	Unchanged int               `json:"unchanged"`
	Skipped   int               `json:"skipped"`
	Failed    int               `json:"failed"`
}

// BulkImport sends one day of attendance. key is sent as Idempotency-Key, so
// the request is safe to retry.
func (c *Client) BulkImport(ctx context.Context, key, date string, entries []BulkEntry) (*BulkResult, error) {
	body := struct {
		Date    string      `json:"date"`
		Members []BulkEntry `json:"members"`
	}{Date: date, Members: entries}
	h := http.Header{}
	h.Set("Idempotency-Key", key)

	var out BulkResult
	err := c.retry(ctx, func(ctx context.Context) error {
		return c.do(ctx, http.MethodPost, "/attendance", body, h, &out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
