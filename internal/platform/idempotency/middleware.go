package idempotency

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	HeaderKey      = "Idempotency-Key"
	HeaderReplayed = "Idempotent-Replayed"

	DefaultTTL = 24 * time.Hour
	lockTTL    = 30 * time.Second
	maxKeyLen  = 128
)

type cachedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

type bodyRecorder struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Middleware replays the stored response for a repeated Idempotency-Key on the same path.
// Requests without the header pass through untouched. 5xx responses are not stored.
func Middleware(store Store, ttl time.Duration) gin.HandlerFunc {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return func(c *gin.Context) {
		key := c.GetHeader(HeaderKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxKeyLen {
			c.AbortWithStatusJSON(http.StatusBadRequest, errorBody("INVALID_ARGUMENT", "Idempotency-Key is too long"))
			return
		}

		ctx := c.Request.Context()
		cacheKey := "idem:" + c.Request.Method + ":" + c.Request.URL.Path + ":" + key

		if raw, ok, err := store.Get(ctx, cacheKey); err != nil {
			slog.Warn("idempotency: lookup failed", "error", err)
		} else if ok {
			var cached cachedResponse
			if err := json.Unmarshal(raw, &cached); err == nil {
				c.Header(HeaderReplayed, "true")
				c.Data(cached.Status, cached.ContentType, cached.Body)
				c.Abort()
				return
			}
		}

		lockKey := cacheKey + ":lock"
		acquired, err := store.Reserve(ctx, lockKey, lockTTL)
		if err != nil {
			slog.Warn("idempotency: reserve failed", "error", err)
			c.Next()
			return
		}
		if !acquired {
			c.AbortWithStatusJSON(http.StatusConflict, errorBody("CONFLICT", "a request with this Idempotency-Key is in progress"))
			return
		}
		defer func() { _ = store.Release(ctx, lockKey) }()

		rec := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = rec
		c.Next()

		status := rec.Status()
		if status >= http.StatusInternalServerError {
			return
		}
		raw, err := json.Marshal(cachedResponse{
			Status:      status,
			ContentType: rec.Header().Get("Content-Type"),
			Body:        rec.buf.Bytes(),
		})
		if err != nil {
			return
		}
		if err := store.Save(ctx, cacheKey, raw, ttl); err != nil {
			slog.Warn("idempotency: save failed", "error", err)
		}
	}
}

func errorBody(code, msg string) gin.H {
	return gin.H{"error": gin.H{"code": code, "message": msg}}
}
