package logger

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestGinLogsRequestWithID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "release", "info")

	r := gin.New()
	r.Use(Gin(log))
	r.GET("/ping/:id", func(c *gin.Context) { c.String(http.StatusTeapot, "x") })

	req := httptest.NewRequest(http.MethodGet, "/ping/42", nil)
	req.Header.Set(RequestIDHeader, "rid-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, "rid-1", w.Header().Get(RequestIDHeader))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "WARN", line["level"])
	require.Equal(t, "/ping/:id", line["route"])
	require.Equal(t, "rid-1", line["request_id"])
	require.EqualValues(t, http.StatusTeapot, line["status"])
}

func TestGinGeneratesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	r := gin.New()
	r.Use(Gin(NewWithWriter(&buf, "release", "info")))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Len(t, w.Header().Get(RequestIDHeader), 36)
}

func TestLevels(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "release", "error")
	log.Info("dropped")
	require.Zero(t, buf.Len())

	log = NewWithWriter(&buf, "dev", "error")
	log.Debug("kept")
	require.NotZero(t, buf.Len())
}
