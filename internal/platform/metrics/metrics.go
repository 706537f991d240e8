package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tiffin"

// Credit change kinds.
const (
	CreditDebit     = "debit"
	CreditRefund    = "refund"
	CreditFloorSkip = "floor_skip"
)

// Metrics methods are nil-safe so services can run without instrumentation.
type Metrics struct {
	requests      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	creditChanges *prometheus.CounterVec
	payments      prometheus.Counter
	bulkEntries   *prometheus.CounterVec
}

// New registers collectors on reg. A nil reg builds unregistered collectors.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		creditChanges: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "credit_changes_total",
			Help:      "Meal credit debits, refunds and skipped debits at the zero floor.",
		}, []string{"kind"}),
		payments: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_recorded_total",
			Help:      "Payments recorded against member subscriptions.",
		}),
		bulkEntries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attendance_bulk_entries_total",
			Help:      "Bulk attendance entries by outcome.",
		}, []string{"status"}),
	}
}

func (m *Metrics) CreditChange(kind string) {
	if m == nil {
		return
	}
	m.creditChanges.WithLabelValues(kind).Inc()
}

func (m *Metrics) PaymentRecorded() {
	if m == nil {
		return
	}
	m.payments.Inc()
}

func (m *Metrics) BulkEntry(status string) {
	if m == nil {
		return
	}
	m.bulkEntries.WithLabelValues(status).Inc()
}

func (m *Metrics) Gin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.duration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
