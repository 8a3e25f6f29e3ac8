// Package metrics owns the Prometheus collectors for the HTTP layer and
// the energy domain. All collectors live on an explicit registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	RequestDuration *prometheus.HistogramVec
	RequestCounter  *prometheus.CounterVec
	ErrorCounter    *prometheus.CounterVec

	Signups        prometheus.Counter
	Signins        *prometheus.CounterVec
	UnitsPurchased prometheus.Counter
	AlertsRaised   *prometheus.CounterVec
	MeterRuns      *prometheus.CounterVec
	UsageRecorded  prometheus.Counter
	WSConnections  prometheus.Gauge
}

// New registers every collector under namespace on a fresh registry.
func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		RequestCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_requests_total",
				Help:      "Total number of API requests",
			},
			[]string{"method", "path"},
		),
		ErrorCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_errors_total",
				Help:      "Total number of API errors",
			},
			[]string{"method", "path", "status"},
		),

		Signups: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signups_total",
			Help:      "Total number of accounts created",
		}),
		Signins: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "signins_total",
				Help:      "Sign-in attempts by outcome",
			},
			[]string{"outcome"},
		),
		UnitsPurchased: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "units_purchased_total",
			Help:      "Sum of power units purchased",
		}),
		AlertsRaised: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "alerts_raised_total",
				Help:      "Alerts persisted by type",
			},
			[]string{"alert_type"},
		),
		MeterRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "meter_runs_total",
				Help:      "Metering worker runs by outcome",
			},
			[]string{"outcome"},
		),
		UsageRecorded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "usage_records_total",
			Help:      "Usage records appended",
		}),
		WSConnections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_connections",
			Help:      "Currently connected dashboard streams",
		}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware tracks request metrics
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := c.Writer.Status()
		statusText := strconv.Itoa(status)

		m.RequestDuration.WithLabelValues(c.Request.Method, path, statusText).Observe(time.Since(start).Seconds())
		m.RequestCounter.WithLabelValues(c.Request.Method, path).Inc()
		if status >= 400 {
			m.ErrorCounter.WithLabelValues(c.Request.Method, path, statusText).Inc()
		}
	}
}

// The helpers below are safe on a nil *Metrics so use cases can run
// without instrumentation in tests.

func (m *Metrics) IncSignup() {
	if m != nil {
		m.Signups.Inc()
	}
}

func (m *Metrics) IncSignin(ok bool) {
	if m == nil {
		return
	}
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	m.Signins.WithLabelValues(outcome).Inc()
}

func (m *Metrics) AddUnits(amount float64) {
	if m != nil {
		m.UnitsPurchased.Add(amount)
	}
}

func (m *Metrics) IncAlert(alertType string) {
	if m != nil {
		m.AlertsRaised.WithLabelValues(alertType).Inc()
	}
}

func (m *Metrics) IncMeterRun(ok bool) {
	if m == nil {
		return
	}
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	m.MeterRuns.WithLabelValues(outcome).Inc()
}

func (m *Metrics) AddUsage(n int) {
	if m != nil {
		m.UsageRecorded.Add(float64(n))
	}
}

func (m *Metrics) SetConnections(n int) {
	if m != nil {
		m.WSConnections.Set(float64(n))
	}
}
