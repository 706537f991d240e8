package idempotency

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newRouter(store Store, calls *int, status int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/members/:id/payments", Middleware(store, time.Hour), func(c *gin.Context) {
		*calls++
		c.JSON(status, gin.H{"call": *calls})
	})
	return r
}

func post(r *gin.Engine, path, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(`{}`))
	if key != "" {
		req.Header.Set(HeaderKey, key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestReplaysStoredResponse(t *testing.T) {
	calls := 0
	r := newRouter(NewMemoryStore(), &calls, http.StatusCreated)

	first := post(r, "/members/m1/payments", "k1")
	second := post(r, "/members/m1/payments", "k1")

	require.Equal(t, 1, calls)
	require.Equal(t, http.StatusCreated, second.Code)
	require.Equal(t, first.Body.String(), second.Body.String())
	require.Equal(t, "true", second.Header().Get(HeaderReplayed))
}

func TestKeyIsScopedByPath(t *testing.T) {
	calls := 0
	r := newRouter(NewMemoryStore(), &calls, http.StatusCreated)

	post(r, "/members/m1/payments", "k1")
	post(r, "/members/m2/payments", "k1")
	require.Equal(t, 2, calls)
}

func TestWithoutHeaderPassesThrough(t *testing.T) {
	calls := 0
	r := newRouter(NewMemoryStore(), &calls, http.StatusCreated)
	post(r, "/members/m1/payments", "")
	post(r, "/members/m1/payments", "")
	require.Equal(t, 2, calls)
}

func TestServerErrorsAreNotStored(t *testing.T) {
	calls := 0
	r := newRouter(NewMemoryStore(), &calls, http.StatusInternalServerError)
	post(r, "/members/m1/payments", "k1")
	post(r, "/members/m1/payments", "k1")
	require.Equal(t, 2, calls)
}

func TestInFlightKeyConflicts(t *testing.T) {
	store := NewMemoryStore()
	ok, err := store.Reserve(context.Background(), "idem:POST:/members/m1/payments:k1:lock", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	calls := 0
	r := newRouter(store, &calls, http.StatusCreated)
	w := post(r, "/members/m1/payments", "k1")
	require.Equal(t, http.StatusConflict, w.Code)
	require.Zero(t, calls)
}

func TestRejectsOversizedKey(t *testing.T) {
	calls := 0
	r := newRouter(NewMemoryStore(), &calls, http.StatusCreated)
	w := post(r, "/members/m1/payments", strings.Repeat("x", maxKeyLen+1))
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMemoryStoreExpiry(t *testing.T) {
	s := NewMemoryStore()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	ctx := context.Background()
	require.NoError(t, s.Save(ctx, "k", []byte("v"), time.Minute))
	v, ok, _ := s.Get(ctx, "k")
	require.True(t, ok)
	require.Equal(t, []byte("v"), v)

	now = now.Add(2 * time.Minute)
	_, ok, _ = s.Get(ctx, "k")
	require.False(t, ok)
}
