package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCreditCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.CreditChange(CreditDebit)
	m.CreditChange(CreditDebit)
	m.CreditChange(CreditFloorSkip)
	m.PaymentRecorded()

	require.Equal(t, 2.0, testutil.ToFloat64(m.creditChanges.WithLabelValues(CreditDebit)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.creditChanges.WithLabelValues(CreditFloorSkip)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.payments))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.CreditChange(CreditRefund)
	m.PaymentRecorded()
	m.BulkEntry("failed")

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(m.Gin())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusNoContent, w.Code)
}

func TestGinRecordsRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New(prometheus.NewRegistry())
	r := gin.New()
	r.Use(m.Gin())
	r.GET("/members/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/members/x", nil))
	}
	require.Equal(t, 3.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/members/:id", "200")))
}
