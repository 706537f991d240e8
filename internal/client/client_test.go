package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/stretchr/testify/require"
)

func fastBackoff() retry.Backoff {
	return retry.WithMaxRetries(2, retry.NewConstant(time.Millisecond))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, map[string]any{"error": map[string]string{"code": code, "message": msg}})
}

func TestLoginSetsSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/auth/login", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["password"] != "secret-pw" {
			writeErr(w, http.StatusUnauthorized, "UNAUTHENTICATED", "invalid id or password")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"token":      "tok-1",
			"expires_at": time.Now().Add(time.Hour),
			"role":       "admin",
		})
	}))
	defer srv.Close()

	s := &Session{}
	c := New(srv.URL+"/api/v1", s)

	err := c.Login(context.Background(), "admin", "wrong")
	require.True(t, IsUnauthenticated(err))
	require.False(t, s.Authenticated(time.Now()))

	require.NoError(t, c.Login(context.Background(), "admin", "secret-pw"))
	require.Equal(t, "tok-1", s.Token())
	require.Equal(t, "admin", s.AccountID())
	require.Equal(t, "admin", s.Role())
	require.True(t, s.Authenticated(time.Now()))

	s.Clear()
	require.False(t, s.Authenticated(time.Now()))
}

func TestToggleSendsBearerAndStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/attendance/m1/2025-03-10/lunch", r.URL.Path)
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		var body map[string]bool
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.True(t, body["status"])
		writeJSON(w, http.StatusOK, map[string]any{
			"record":            map[string]any{"attendance_id": 7, "member_id": "m1", "date": "2025-03-10", "lunch": true, "dinner": false},
			"remaining_credits": 29,
		})
	}))
	defer srv.Close()

	s := &Session{}
	s.set("tok", "admin", "admin", "", time.Time{})
	c := New(srv.URL, s)

	res, err := c.Toggle(context.Background(), "m1", "2025-03-10", MealLunch, true)
	require.NoError(t, err)
	require.Equal(t, uint64(7), res.Record.AttendanceID)
	require.True(t, res.Record.Lunch)
	require.Equal(t, 29, res.RemainingCredits)
}

func TestToggleIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeErr(w, http.StatusInternalServerError, "INTERNAL", "internal error")
	}))
	defer srv.Close()

	c := New(srv.URL, &Session{}, WithBackoff(fastBackoff))
	_, err := c.Toggle(context.Background(), "m1", "2025-03-10", MealDinner, true)

	var api *APIError
	require.ErrorAs(t, err, &api)
	require.Equal(t, "INTERNAL", api.Code)
	require.Equal(t, int32(1), calls.Load())
}

func TestListByDateRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			writeErr(w, http.StatusServiceUnavailable, "INTERNAL", "busy")
			return
		}
		writeJSON(w, http.StatusOK, []map[string]any{
			{"attendance_id": 1, "member_id": "m1", "date": "2025-03-10", "lunch": true, "member_name": "Asha"},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, &Session{}, WithBackoff(fastBackoff))
	entries, err := c.ListByDate(context.Background(), "2025-03-10")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "Asha", entries[0].MemberName)
	require.Equal(t, int32(3), calls.Load())
}

func TestListByDateDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeErr(w, http.StatusBadRequest, "INVALID_ARGUMENT", "date must be YYYY-MM-DD or 'today'")
	}))
	defer srv.Close()

	c := New(srv.URL, &Session{}, WithBackoff(fastBackoff))
	_, err := c.ListByDate(context.Background(), "nope")

	var api *APIError
	require.ErrorAs(t, err, &api)
	require.Equal(t, http.StatusBadRequest, api.Status)
	require.Equal(t, "INVALID_ARGUMENT", api.Code)
	require.Equal(t, int32(1), calls.Load())
}

func TestBulkImportSendsIdempotencyKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "import-1", r.Header.Get("Idempotency-Key"))
		var body struct {
			Date    string      `json:"date"`
			Members []BulkEntry `json:"members"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Members, 2)
		writeJSON(w, http.StatusMultiStatus, map[string]any{
			"date": body.Date,
			"results": []map[string]any{
				{"user_id": "m1", "status": "updated", "remaining_credits": 9},
				{"user_id": "ghost", "status": "failed", "error": map[string]string{"code": "NOT_FOUND", "message": "member not found"}},
			},
			"updated": 1,
			"failed":  1,
		})
	}))
	defer srv.Close()

	c := New(srv.URL, &Session{})
	res, err := c.BulkImport(context.Background(), "import-1", "2025-03-10", []BulkEntry{
		{UserID: "m1", Lunch: true},
		{UserID: "ghost", Dinner: true},
	})
	require.NoError(t, err)
	require.Equal(t, 1, res.Updated)
	require.Equal(t, 1, res.Failed)
	require.Equal(t, "NOT_FOUND", res.Results[1].Error.Code)
	require.Equal(t, 9, *res.Results[0].RemainingCredits)
}
